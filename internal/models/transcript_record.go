package models

import "time"

// TranscriptRecord indexes a persisted case study. The record body lives in
// the transcript file named by Name.
type TranscriptRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:128;uniqueIndex;not null"`
	SessionID   string `gorm:"size:128;index"`
	Language    string `gorm:"size:64"`
	AnswerCount int
	CompletedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
}
