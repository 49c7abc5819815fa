package repository

import (
	"context"
	"errors"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageStore 每日 prompt 计数的持久化。IncrementIfBelow 必须是单步的原子条件自增，
// 不能由调用方先读后写。
type UsageStore interface {
	GetCount(ctx context.Context, userID uint, day string) (int, error)
	IncrementIfBelow(ctx context.Context, userID uint, day string, limit int) (bool, int, error)
	History(ctx context.Context, userID uint, days []string) ([]model.UsageRecord, error)
}

// UsageRepository 基于数据库行的计数实现
type UsageRepository struct {
	DB *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{DB: db}
}

func (r *UsageRepository) GetCount(ctx context.Context, userID uint, day string) (int, error) {
	var record model.UsageRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, day).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Count, nil
}

// IncrementIfBelow 先确保当天记录存在，再用 count < limit 作为条件自增，
// 是否命中由影响行数决定
func (r *UsageRepository) IncrementIfBelow(ctx context.Context, userID uint, day string, limit int) (bool, int, error) {
	db := r.DB.WithContext(ctx)

	record := model.UsageRecord{UserID: userID, UsageDate: day, DailyLimit: limit}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return false, 0, err
	}

	var incremented bool
	var count int
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UsageRecord{}).
			Where("user_id = ? AND usage_date = ? AND prompt_count < ?", userID, day, limit).
			Updates(map[string]interface{}{
				"prompt_count": gorm.Expr("prompt_count + ?", 1),
				"daily_limit":  limit,
			})
		if res.Error != nil {
			return res.Error
		}
		incremented = res.RowsAffected == 1

		var current model.UsageRecord
		if err := tx.Where("user_id = ? AND usage_date = ?", userID, day).Take(&current).Error; err != nil {
			return err
		}
		count = current.Count
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return incremented, count, nil
}

func (r *UsageRepository) History(ctx context.Context, userID uint, days []string) ([]model.UsageRecord, error) {
	var records []model.UsageRecord
	if len(days) == 0 {
		return records, nil
	}
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND usage_date IN ?", userID, days).
		Order("usage_date DESC").
		Find(&records).Error
	return records, err
}
