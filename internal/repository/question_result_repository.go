package repository

import (
	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionResultRepository struct {
	DB *gorm.DB
}

func NewQuestionResultRepository(db *gorm.DB) *QuestionResultRepository {
	return &QuestionResultRepository{DB: db}
}

func (r *QuestionResultRepository) Create(result *model.QuestionResult) error {
	return r.DB.Create(result).Error
}

// Recent 返回用户最近 limit 条记录，按时间升序
func (r *QuestionResultRepository) Recent(userID uint, limit int) ([]model.QuestionResult, error) {
	var results []model.QuestionResult
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
