package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrQuotaExceeded, http.StatusTooManyRequests},
		{ErrNoSubscription, http.StatusPaymentRequired},
		{ErrSubscriptionExpired, http.StatusForbidden},
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrTrialAlreadyUsed, http.StatusConflict},
		{ErrSessionCompleted, http.StatusConflict},
		{ErrSessionNotCompleted, http.StatusConflict},
		{ErrInvalidDifficulty, http.StatusBadRequest},
		{fmt.Errorf("track: %w", ErrQuotaExceeded), http.StatusTooManyRequests},
		{errors.New("db down"), 0},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 10},
		{"?page=3&pageSize=20", 3, 20},
		{"?page=-1&pageSize=0", 1, 10},
		{"?pageSize=1000", 1, 100},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

		page, size := ParsePagination(c)
		if page != tt.page || size != tt.size {
			t.Errorf("%q: got (%d, %d), want (%d, %d)", tt.query, page, size, tt.page, tt.size)
		}
	}
}
