package service

import (
	"errors"
	"strings"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"

	"gorm.io/gorm"
)

type SubscriptionService struct {
	repo *repository.SubscriptionRepository
	cfg  config.SubscriptionConfig
	now  func() time.Time
}

func NewSubscriptionService(repo *repository.SubscriptionRepository, cfg config.SubscriptionConfig) *SubscriptionService {
	return &SubscriptionService{repo: repo, cfg: cfg, now: time.Now}
}

// Get 返回用户的订阅记录，不判断是否过期
func (s *SubscriptionService) Get(userID uint) (*model.Subscription, error) {
	sub, err := s.repo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoSubscription
	}
	return sub, err
}

// Active 返回在 now 时刻仍有效的订阅
func (s *SubscriptionService) Active(userID uint, now time.Time) (*model.Subscription, error) {
	sub, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if sub.ExpiredAt(now) {
		return sub, util.ErrSubscriptionExpired
	}
	return sub, nil
}

const defaultTrialDays = 7

// trialEnd days 未指定时依次使用配置和默认天数
func (s *SubscriptionService) trialEnd(days int) time.Time {
	if days <= 0 {
		days = s.cfg.TrialDays
	}
	if days <= 0 {
		days = defaultTrialDays
	}
	return s.now().AddDate(0, 0, days)
}

// StartTrial 每个用户只能试用一次，已有任何订阅记录时不会覆盖
func (s *SubscriptionService) StartTrial(userID uint) (*model.Subscription, error) {
	tier := s.cfg.TrialTier
	if tier == "" {
		tier = "trial"
	}

	trialEnd := s.trialEnd(0)
	created, err := s.repo.CreateIfAbsent(&model.Subscription{
		UserID:      userID,
		Tier:        tier,
		Status:      model.SubscriptionTrialing,
		TrialEndsAt: &trialEnd,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, util.ErrTrialAlreadyUsed
	}
	return s.repo.FindByUserID(userID)
}

type GrantSubscriptionRequest struct {
	Tier             string     `json:"tier" binding:"required"`
	Status           string     `json:"status" binding:"required,oneof=trialing active past_due canceled"`
	TrialDays        int        `json:"trialDays"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd"`
}

// Grant 管理员手动设置订阅
func (s *SubscriptionService) Grant(userID uint, req GrantSubscriptionRequest) (*model.Subscription, error) {
	sub := &model.Subscription{
		UserID:           userID,
		Tier:             strings.ToLower(req.Tier),
		Status:           model.SubscriptionStatus(req.Status),
		CurrentPeriodEnd: req.CurrentPeriodEnd,
	}
	if sub.Status == model.SubscriptionTrialing {
		trialEnd := s.trialEnd(req.TrialDays)
		sub.TrialEndsAt = &trialEnd
	}

	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}
	return s.repo.FindByUserID(userID)
}
