package repository

import (
	"errors"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DifficultyRepository struct {
	DB *gorm.DB
}

func NewDifficultyRepository(db *gorm.DB) *DifficultyRepository {
	return &DifficultyRepository{DB: db}
}

// Find 未找到时返回 nil, nil
func (r *DifficultyRepository) Find(userID uint) (*model.DifficultyState, error) {
	var state model.DifficultyState
	err := r.DB.Where("user_id = ?", userID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *DifficultyRepository) Save(state *model.DifficultyState) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_difficulty", "last_reason", "updated_at"}),
	}).Create(state).Error
}
