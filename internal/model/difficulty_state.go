package model

import "time"

type DifficultyState struct {
	UserID            uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CurrentDifficulty float64   `gorm:"not null;default:5" json:"currentDifficulty"`
	LastReason        string    `gorm:"size:512" json:"lastReason"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (DifficultyState) TableName() string {
	return "difficulty_states"
}
