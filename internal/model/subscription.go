package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription 用户订阅，由支付服务同步写入
type Subscription struct {
	BaseModel
	UserID                 uint               `gorm:"uniqueIndex;not null" json:"userId"`
	Tier                   string             `gorm:"size:32;not null" json:"tier"`
	Status                 SubscriptionStatus `gorm:"size:20;not null" json:"status"`
	TrialEndsAt            *time.Time         `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd       *time.Time         `json:"currentPeriodEnd,omitempty"`
	ProviderCustomerID     string             `gorm:"size:64" json:"-"`
	ProviderSubscriptionID string             `gorm:"size:64" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// ExpiredAt 判断在 now 时刻订阅是否已失效
func (s *Subscription) ExpiredAt(now time.Time) bool {
	switch s.Status {
	case SubscriptionCanceled:
		return true
	case SubscriptionTrialing:
		return s.TrialEndsAt != nil && now.After(*s.TrialEndsAt)
	default:
		return s.CurrentPeriodEnd != nil && now.After(*s.CurrentPeriodEnd)
	}
}
