package model

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// PracticeSession 一次模拟面试练习
type PracticeSession struct {
	UUIDBase
	UserID          uint             `gorm:"index;not null" json:"userId"`
	Role            string           `gorm:"size:100" json:"role"`
	Topic           string           `gorm:"size:100" json:"topic"`
	StartDifficulty float64          `gorm:"not null" json:"startDifficulty"`
	EndDifficulty   float64          `json:"endDifficulty"`
	Status          SessionStatus    `gorm:"size:20;default:'active'" json:"status"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	Results         []QuestionResult `gorm:"foreignKey:SessionID" json:"results,omitempty"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}
