package model

import (
	"testing"
	"time"
)

func TestSubscriptionExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"trial running", Subscription{Status: SubscriptionTrialing, TrialEndsAt: &future}, false},
		{"trial over", Subscription{Status: SubscriptionTrialing, TrialEndsAt: &past}, true},
		{"active in period", Subscription{Status: SubscriptionActive, CurrentPeriodEnd: &future}, false},
		{"active past period", Subscription{Status: SubscriptionActive, CurrentPeriodEnd: &past}, true},
		{"active without period end", Subscription{Status: SubscriptionActive}, false},
		{"past due still in period", Subscription{Status: SubscriptionPastDue, CurrentPeriodEnd: &future}, false},
		{"canceled", Subscription{Status: SubscriptionCanceled, CurrentPeriodEnd: &future}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.ExpiredAt(now); got != tt.want {
				t.Errorf("ExpiredAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
