package model

import "time"

// QuestionResult 用户答题记录，只追加不修改
type QuestionResult struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"index:idx_result_user_created,priority:1;not null" json:"userId"`
	SessionID        string    `gorm:"index;type:varchar(36)" json:"sessionId"`
	Question         string    `gorm:"type:text" json:"question"`
	AnswerText       string    `gorm:"type:text" json:"answerText"`
	Difficulty       float64   `gorm:"not null" json:"difficulty"`
	WasCorrect       bool      `gorm:"not null" json:"wasCorrect"`
	TimeSpentSeconds float64   `gorm:"not null;default:0" json:"timeSpentSeconds"`
	ConfidenceScore  float64   `gorm:"not null;default:0" json:"confidenceScore"`
	CreatedAt        time.Time `gorm:"index:idx_result_user_created,priority:2" json:"createdAt"`
}

func (QuestionResult) TableName() string {
	return "question_results"
}
