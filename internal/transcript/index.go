package transcript

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/models"
)

// IndexStore records one transcript_records row per persisted case study.
type IndexStore struct {
	db *gorm.DB
}

// NewIndexStore creates an IndexStore.
func NewIndexStore(db *gorm.DB) (*IndexStore, error) {
	if db == nil {
		return nil, fmt.Errorf("transcript: db is required")
	}
	return &IndexStore{db: db}, nil
}

// Mirror implements Mirror.
func (s *IndexStore) Mirror(ctx context.Context, rec Record) error {
	row := models.TranscriptRecord{
		Name:        rec.Name,
		SessionID:   rec.SessionID,
		Language:    rec.Language,
		AnswerCount: len(rec.Answers),
		CompletedAt: rec.CompletedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("transcript: index %s: %w", rec.Name, err)
	}
	return nil
}

// Recent returns up to limit index rows, newest first.
func (s *IndexStore) Recent(ctx context.Context, limit int) ([]models.TranscriptRecord, error) {
	var rows []models.TranscriptRecord
	err := s.db.WithContext(ctx).Order("completed_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("transcript: recent: %w", err)
	}
	return rows, nil
}

// CountSince returns how many case studies completed after since.
func (s *IndexStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.TranscriptRecord{}).
		Where("completed_at > ?", since).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("transcript: count since: %w", err)
	}
	return int(n), nil
}
