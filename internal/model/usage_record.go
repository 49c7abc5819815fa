package model

// UsageRecord 用户某天的 prompt 调用计数，只通过条件自增修改
type UsageRecord struct {
	BaseModel
	UserID     uint   `gorm:"not null;uniqueIndex:idx_usage_user_date,priority:1" json:"userId"`
	UsageDate  string `gorm:"size:10;not null;uniqueIndex:idx_usage_user_date,priority:2" json:"date"`
	Count      int    `gorm:"column:prompt_count;not null;default:0" json:"count"`
	DailyLimit int    `gorm:"not null;default:0" json:"limit"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
