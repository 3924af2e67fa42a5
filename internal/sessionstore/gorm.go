package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/models"
)

// GormStore keeps sessions in the interview_sessions table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore. The table must already be migrated.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sessionstore: db is required")
	}
	return &GormStore{db: db}, nil
}

// Load implements interview.Store.
func (s *GormStore) Load(ctx context.Context, sessionID string) (*interview.State, error) {
	var row models.InterviewSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore: load %s: %w", sessionID, err)
	}
	return decode(sessionID, []byte(row.State))
}

// Save implements interview.Store as an upsert keyed on session_id.
func (s *GormStore) Save(ctx context.Context, st *interview.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	row := models.InterviewSession{
		SessionID:     st.SessionID,
		Stage:         string(st.Stage),
		Language:      st.Language,
		QuestionIndex: st.QuestionIndex,
		State:         string(data),
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "language", "question_index", "state", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("sessionstore: save %s: %w", st.SessionID, result.Error)
	}
	return nil
}

// Delete implements interview.Store. Deleting a missing session is not an
// error.
func (s *GormStore) Delete(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.InterviewSession{}).Error
	if err != nil {
		return fmt.Errorf("sessionstore: delete %s: %w", sessionID, err)
	}
	return nil
}

// Prune deletes sessions not updated since before and returns how many were
// removed.
func (s *GormStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&models.InterviewSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("sessionstore: prune: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountByStage returns the number of stored sessions per stage.
func (s *GormStore) CountByStage(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Stage string
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.InterviewSession{}).
		Select("stage, count(*) as count").Group("stage").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sessionstore: count by stage: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Stage] = r.Count
	}
	return out, nil
}
