package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { util.Success(c, "pong") })
	return r
}

func request(r *gin.Engine, method, origin, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
		wantCreds  string
	}{
		{"whitelisted origin", []string{"https://app.example.com/"}, "https://app.example.com", "https://app.example.com", "true"},
		{"unknown origin", []string{"https://app.example.com"}, "https://evil.example.com", "", ""},
		{"wildcard", []string{"*"}, "https://any.example.com", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(newRouter(CORS(tt.allowed)), http.MethodGet, tt.origin, "")

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected allow origin %q, got %q", tt.wantOrigin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("expected credentials %q, got %q", tt.wantCreds, got)
			}
		})
	}

	t.Run("preflight stops the chain", func(t *testing.T) {
		w := request(newRouter(CORS(nil)), http.MethodOptions, "", "")
		if w.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", w.Code)
		}
	})
}

func TestSecure(t *testing.T) {
	w := request(newRouter(Secure()), http.MethodGet, "", "")

	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing security headers: %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("expected no HSTS header over plain http")
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(2, time.Minute)
	defer l.Stop()
	r := newRouter(l.Middleware())

	for i := 0; i < 2; i++ {
		if w := request(r, http.MethodGet, "", "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := request(r, http.MethodGet, "", "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var resp util.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON envelope, got %s", w.Body.String())
	}
	if resp.Code != http.StatusTooManyRequests || resp.Message != "too many requests" {
		t.Errorf("unexpected envelope %+v", resp)
	}

	if w := request(r, http.MethodGet, "", "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("expected another client to pass, got %d", w.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	l := NewRateLimiter(5, time.Minute)
	defer l.Stop()

	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	now = start.Add(2 * time.Minute)
	l.allow("10.0.0.2")

	// expiry 为 3 个窗口
	now = start.Add(4 * time.Minute)
	l.cleanup()

	l.mu.Lock()
	_, first := l.visitors["10.0.0.1"]
	_, second := l.visitors["10.0.0.2"]
	l.mu.Unlock()

	if first {
		t.Error("expected idle client to be removed")
	}
	if !second {
		t.Error("expected recent client to be kept")
	}
}

func TestRateLimiterStop(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)
	l.Stop()
	l.Stop()

	select {
	case <-l.stop:
	default:
		t.Error("expected stop channel to be closed")
	}
}
