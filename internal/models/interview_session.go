package models

import "time"

// InterviewSession is the stored state of one conversation. State holds the
// full JSON-encoded session; the other columns are copies for querying.
type InterviewSession struct {
	SessionID     string `gorm:"primaryKey;size:128"`
	Stage         string `gorm:"size:32;index"`
	Language      string `gorm:"size:64"`
	QuestionIndex int
	State         string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}
