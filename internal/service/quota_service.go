package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type QuotaReason string

const (
	QuotaReasonExceeded       QuotaReason = "quota_exceeded"
	QuotaReasonNoSubscription QuotaReason = "no_subscription"
	QuotaReasonExpired        QuotaReason = "subscription_expired"
)

const maxHistoryDays = 90

// UsageStatus CanMakePrompt 的结果
type UsageStatus struct {
	Allowed   bool        `json:"allowed"`
	Remaining int         `json:"remaining"`
	Limit     int         `json:"limit"`
	Count     int         `json:"count"`
	ResetTime time.Time   `json:"resetTime"`
	Reason    QuotaReason `json:"reason,omitempty"`
	Tier      string      `json:"tier,omitempty"`
}

// TrackResult TrackPrompt 的结果
type TrackResult struct {
	Success   bool `json:"success"`
	NewCount  int  `json:"newCount"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

type SubscriptionChecker interface {
	Active(userID uint, now time.Time) (*model.Subscription, error)
}

// QuotaService 每用户每天的 prompt 配额。计数只存在于 UsageStore 中，
// 本服务不持有任何计数状态。
type QuotaService struct {
	store repository.UsageStore
	subs  SubscriptionChecker
	loc   *time.Location
	now   func() time.Time

	mu     sync.RWMutex
	limits config.QuotaConfig
}

func NewQuotaService(store repository.UsageStore, subs SubscriptionChecker, cfg config.QuotaConfig) (*QuotaService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &QuotaService{
		store:  store,
		subs:   subs,
		loc:    loc,
		now:    time.Now,
		limits: cfg,
	}, nil
}

// SetLimits 配置热更新时替换各档位上限，存储方式和时区不随之变化
func (s *QuotaService) SetLimits(cfg config.QuotaConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits.DefaultLimit = cfg.DefaultLimit
	s.limits.Tiers = cfg.Tiers
	logger.Log.Info("Quota limits reloaded", zap.Int("defaultLimit", cfg.DefaultLimit), zap.Any("tiers", cfg.Tiers))
}

func (s *QuotaService) limitFor(tier string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits.LimitFor(tier)
}

// DayKey 按服务器时区取日期
func (s *QuotaService) DayKey(date time.Time) string {
	return date.In(s.loc).Format(util.DateFormat)
}

// ResetTime date 之后的下一个零点
func (s *QuotaService) ResetTime(date time.Time) time.Time {
	y, m, d := date.In(s.loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
}

// CanMakePrompt 只读检查，不修改计数
func (s *QuotaService) CanMakePrompt(ctx context.Context, userID uint, date time.Time) (*UsageStatus, error) {
	status := &UsageStatus{ResetTime: s.ResetTime(date)}

	sub, err := s.subs.Active(userID, s.now())
	switch {
	case errors.Is(err, util.ErrNoSubscription):
		status.Reason = QuotaReasonNoSubscription
		monitoring.QuotaChecks.WithLabelValues(string(status.Reason)).Inc()
		return status, nil
	case errors.Is(err, util.ErrSubscriptionExpired):
		status.Reason = QuotaReasonExpired
		if sub != nil {
			status.Tier = sub.Tier
		}
		monitoring.QuotaChecks.WithLabelValues(string(status.Reason)).Inc()
		return status, nil
	case err != nil:
		return nil, err
	}

	limit := s.limitFor(sub.Tier)
	count, err := s.store.GetCount(ctx, userID, s.DayKey(date))
	if err != nil {
		return nil, err
	}

	status.Tier = sub.Tier
	status.Limit = limit
	status.Count = count
	status.Remaining = remaining(limit, count)
	status.Allowed = count < limit
	if !status.Allowed {
		status.Reason = QuotaReasonExceeded
		monitoring.QuotaChecks.WithLabelValues(string(status.Reason)).Inc()
	} else {
		monitoring.QuotaChecks.WithLabelValues("allowed").Inc()
	}
	return status, nil
}

// TrackPrompt 原子地占用一次配额，达到上限时返回 ErrQuotaExceeded 且不修改计数
func (s *QuotaService) TrackPrompt(ctx context.Context, userID uint, date time.Time) (*TrackResult, error) {
	sub, err := s.subs.Active(userID, s.now())
	if err != nil {
		if errors.Is(err, util.ErrNoSubscription) {
			monitoring.PromptsTracked.WithLabelValues(string(QuotaReasonNoSubscription)).Inc()
		} else if errors.Is(err, util.ErrSubscriptionExpired) {
			monitoring.PromptsTracked.WithLabelValues(string(QuotaReasonExpired)).Inc()
		}
		return nil, err
	}

	limit := s.limitFor(sub.Tier)
	day := s.DayKey(date)
	ok, count, err := s.store.IncrementIfBelow(ctx, userID, day, limit)
	if err != nil {
		return nil, err
	}

	result := &TrackResult{
		Success:   ok,
		NewCount:  count,
		Limit:     limit,
		Remaining: remaining(limit, count),
	}
	if !ok {
		monitoring.PromptsTracked.WithLabelValues(string(QuotaReasonExceeded)).Inc()
		logger.Log.Debug("Prompt quota exceeded",
			zap.Uint("userID", userID),
			zap.String("day", day),
			zap.Int("limit", limit))
		return result, util.ErrQuotaExceeded
	}

	monitoring.PromptsTracked.WithLabelValues("tracked").Inc()
	return result, nil
}

// History 最近 days 天（含今天）的使用记录，没有调用的日期不返回
func (s *QuotaService) History(ctx context.Context, userID uint, days int) ([]model.UsageRecord, error) {
	if days < 1 {
		days = 1
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	today := s.now().In(s.loc)
	keys := make([]string, days)
	for i := range keys {
		keys[i] = today.AddDate(0, 0, -i).Format(util.DateFormat)
	}
	return s.store.History(ctx, userID, keys)
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
