package util

import "errors"

var (
	ErrQuotaExceeded       = errors.New("daily prompt limit reached")
	ErrNoSubscription      = errors.New("no active subscription")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrTrialAlreadyUsed    = errors.New("trial already used")
	ErrSessionNotFound     = errors.New("practice session not found")
	ErrSessionCompleted    = errors.New("practice session already completed")
	ErrSessionNotCompleted = errors.New("practice session not completed")
	ErrInvalidDifficulty   = errors.New("difficulty must be between 1 and 10")
	ErrEmptyAIResponse     = errors.New("AI returned no choices")
)
