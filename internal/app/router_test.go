package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	app    *App
	tokens map[uint]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith tweak 可在组装前修改配置
func newTestServerWith(t *testing.T, tweak func(*config.Config)) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		JWT:     config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Quota: config.QuotaConfig{
			Store:        util.QuotaStoreMySQL,
			Timezone:     "UTC",
			DefaultLimit: 2,
			Tiers:        map[string]int{"trial": 3, "pro": 10},
		},
		Subscription: config.SubscriptionConfig{TrialDays: 7, TrialTier: "trial"},
	}
	if tweak != nil {
		tweak(cfg)
	}

	a, err := New(cfg, db, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(a.Close)
	return &testServer{t: t, app: a, tokens: map[uint]string{}}
}

func (s *testServer) token(userID uint, role string) string {
	key := userID
	if role == util.RoleAdmin {
		key += 1 << 20
	}
	if tok, ok := s.tokens[key]; ok {
		return tok
	}
	tok, err := util.GenerateJWT(userID, role, "user@example.com", testSecret, time.Hour)
	if err != nil {
		s.t.Fatalf("GenerateJWT failed: %v", err)
	}
	s.tokens[key] = tok
	return tok
}

// do 发送请求并解析统一响应结构，userID 为 0 时不带 token
func (s *testServer) do(method, path string, userID uint, role string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(userID, role))
	}

	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("failed to decode %s: %v", raw, err)
	}
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodGet, "/api/health", 0, "", nil); code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("http_requests_total")) {
		t.Errorf("metrics: expected prometheus output, got %d", w.Code)
	}

	if code, _ := s.do(http.MethodGet, "/api/usage", 0, "", nil); code != http.StatusUnauthorized {
		t.Errorf("usage without token: expected 401, got %d", code)
	}
}

func TestRateLimitUsesEnvelope(t *testing.T) {
	s := newTestServerWith(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{MaxRequests: 2, WindowMinutes: 1}
	})

	for i := 0; i < 2; i++ {
		if code, _ := s.do(http.MethodGet, "/api/health", 0, "", nil); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}

	code, env := s.do(http.MethodGet, "/api/health", 0, "", nil)
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if env.Code != http.StatusTooManyRequests || env.Message != "too many requests" {
		t.Errorf("expected 429 envelope, got %+v", env)
	}
}

func TestQuotaFlow(t *testing.T) {
	s := newTestServer(t)
	const user = 11

	if code, _ := s.do(http.MethodPost, "/api/usage/track", user, util.RoleUser, nil); code != http.StatusPaymentRequired {
		t.Fatalf("track without subscription: expected 402, got %d", code)
	}

	code, env := s.do(http.MethodGet, "/api/usage", user, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("usage: expected 200, got %d", code)
	}
	var status struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	decode(t, env.Data, &status)
	if status.Allowed || status.Reason != "no_subscription" {
		t.Errorf("expected no_subscription status, got %+v", status)
	}

	if code, _ := s.do(http.MethodPost, "/api/subscription/trial", user, util.RoleUser, nil); code != http.StatusCreated {
		t.Fatalf("trial: expected 201, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/subscription/trial", user, util.RoleUser, nil); code != http.StatusConflict {
		t.Errorf("second trial: expected 409, got %d", code)
	}

	for i := 1; i <= 3; i++ {
		code, env := s.do(http.MethodPost, "/api/usage/track", user, util.RoleUser, nil)
		if code != http.StatusOK {
			t.Fatalf("track %d: expected 200, got %d (%s)", i, code, env.Message)
		}
	}

	code, env = s.do(http.MethodPost, "/api/usage/track", user, util.RoleUser, nil)
	if code != http.StatusTooManyRequests {
		t.Fatalf("track over limit: expected 429, got %d", code)
	}
	var track struct {
		Success  bool `json:"success"`
		NewCount int  `json:"newCount"`
	}
	decode(t, env.Data, &track)
	if track.Success || track.NewCount != 3 {
		t.Errorf("expected failed track at count 3, got %+v", track)
	}

	code, env = s.do(http.MethodGet, "/api/usage/history?days=3", user, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", code)
	}
	var history []struct {
		Count int `json:"count"`
	}
	decode(t, env.Data, &history)
	if len(history) != 1 || history[0].Count != 3 {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestAdminGrant(t *testing.T) {
	s := newTestServer(t)
	body := map[string]interface{}{"tier": "pro", "status": "active"}

	if code, _ := s.do(http.MethodPut, "/api/admin/subscriptions/21", 21, util.RoleUser, body); code != http.StatusForbidden {
		t.Errorf("grant as user: expected 403, got %d", code)
	}
	if code, _ := s.do(http.MethodPut, "/api/admin/subscriptions/21", 1, util.RoleAdmin, map[string]string{"tier": "pro", "status": "bogus"}); code != http.StatusBadRequest {
		t.Errorf("grant with bad status: expected 400, got %d", code)
	}
	if code, _ := s.do(http.MethodPut, "/api/admin/subscriptions/21", 1, util.RoleAdmin, body); code != http.StatusOK {
		t.Fatalf("grant as admin: expected 200, got %d", code)
	}

	code, env := s.do(http.MethodGet, "/api/usage", 21, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("usage: expected 200, got %d", code)
	}
	var status struct {
		Allowed bool   `json:"allowed"`
		Limit   int    `json:"limit"`
		Tier    string `json:"tier"`
	}
	decode(t, env.Data, &status)
	if !status.Allowed || status.Limit != 10 || status.Tier != "pro" {
		t.Errorf("expected pro quota, got %+v", status)
	}
}

func TestPracticeFlow(t *testing.T) {
	s := newTestServer(t)
	const user = 31

	code, env := s.do(http.MethodPost, "/api/sessions", user, util.RoleUser, map[string]string{"role": "backend engineer"})
	if code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d (%s)", code, env.Message)
	}
	var session struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env.Data, &session)

	result := map[string]interface{}{
		"question":         "How does a B-tree index work?",
		"answerText":       "It keeps sorted keys in balanced pages.",
		"wasCorrect":       true,
		"timeSpentSeconds": 25,
	}
	for i := 0; i < 3; i++ {
		if code, env := s.do(http.MethodPost, "/api/sessions/"+session.ID+"/results", user, util.RoleUser, result); code != http.StatusOK {
			t.Fatalf("record result: expected 200, got %d (%s)", code, env.Message)
		}
	}

	code, env = s.do(http.MethodGet, "/api/difficulty", user, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("difficulty: expected 200, got %d", code)
	}
	var state struct {
		CurrentDifficulty float64 `json:"currentDifficulty"`
	}
	decode(t, env.Data, &state)
	if state.CurrentDifficulty <= 5 {
		t.Errorf("expected difficulty to rise after correct fast answers, got %v", state.CurrentDifficulty)
	}

	if code, _ := s.do(http.MethodPost, "/api/sessions/"+session.ID+"/export", user, util.RoleUser, nil); code != http.StatusConflict {
		t.Errorf("export active session: expected 409, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/sessions/"+session.ID+"/complete", user, util.RoleUser, nil); code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/sessions/"+session.ID+"/results", user, util.RoleUser, result); code != http.StatusConflict {
		t.Errorf("record after complete: expected 409, got %d", code)
	}

	code, env = s.do(http.MethodPost, "/api/sessions/"+session.ID+"/export", user, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d (%s)", code, env.Message)
	}
	var export struct {
		URL string `json:"url"`
	}
	decode(t, env.Data, &export)
	if export.URL == "" {
		t.Error("expected export url")
	}

	if code, _ := s.do(http.MethodGet, "/api/sessions/"+session.ID, 99, util.RoleUser, nil); code != http.StatusNotFound {
		t.Errorf("other user's session: expected 404, got %d", code)
	}

	code, env = s.do(http.MethodGet, "/api/sessions?page=1&pageSize=5", user, util.RoleUser, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, env.Data, &page)
	if page.Total != 1 {
		t.Errorf("expected 1 session, got %d", page.Total)
	}
}

func TestStatelessDifficultyEndpoints(t *testing.T) {
	s := newTestServer(t)
	const user = 41

	if code, _ := s.do(http.MethodPost, "/api/difficulty/calculate", user, util.RoleUser, map[string]interface{}{"currentDifficulty": 11}); code != http.StatusBadRequest {
		t.Errorf("out of range difficulty: expected 400, got %d", code)
	}

	history := make([]map[string]interface{}, 4)
	for i := range history {
		history[i] = map[string]interface{}{"difficulty": 5, "wasCorrect": false, "timeSpentSeconds": 300, "confidenceScore": 0.4}
	}
	code, env := s.do(http.MethodPost, "/api/difficulty/calculate", user, util.RoleUser, map[string]interface{}{
		"history":           history,
		"currentDifficulty": 5,
	})
	if code != http.StatusOK {
		t.Fatalf("calculate: expected 200, got %d (%s)", code, env.Message)
	}
	var res struct {
		NewDifficulty float64 `json:"newDifficulty"`
	}
	decode(t, env.Data, &res)
	if res.NewDifficulty != 4.5 {
		t.Errorf("expected 4.5, got %v", res.NewDifficulty)
	}

	// 无状态计算不影响用户难度
	_, env = s.do(http.MethodGet, "/api/difficulty", user, util.RoleUser, nil)
	var state struct {
		CurrentDifficulty float64 `json:"currentDifficulty"`
	}
	decode(t, env.Data, &state)
	if state.CurrentDifficulty != 5 {
		t.Errorf("expected stored difficulty untouched, got %v", state.CurrentDifficulty)
	}

	code, env = s.do(http.MethodPost, "/api/confidence/score", user, util.RoleUser, map[string]interface{}{
		"answerText":       "first we cached, then we measured",
		"expectedKeywords": []string{"cache"},
	})
	if code != http.StatusOK {
		t.Fatalf("confidence: expected 200, got %d", code)
	}
	var score struct {
		Confidence float64 `json:"confidence"`
	}
	decode(t, env.Data, &score)
	if score.Confidence <= 0 || score.Confidence > 1 {
		t.Errorf("confidence %v out of range", score.Confidence)
	}
}

func TestPromptRoutesUseQuota(t *testing.T) {
	s := newTestServer(t)
	const user = 51

	if code, _ := s.do(http.MethodPost, "/api/prompts/question", user, util.RoleUser, map[string]string{"role": "sre"}); code != http.StatusPaymentRequired {
		t.Errorf("question without subscription: expected 402, got %d", code)
	}

	s.do(http.MethodPost, "/api/subscription/trial", user, util.RoleUser, nil)

	code, env := s.do(http.MethodPost, "/api/prompts/question", user, util.RoleUser, map[string]string{"role": "sre"})
	if code != http.StatusOK {
		t.Fatalf("question: expected 200, got %d (%s)", code, env.Message)
	}
	var q struct {
		Question string `json:"question"`
	}
	decode(t, env.Data, &q)
	if q.Question == "" {
		t.Error("expected a question")
	}

	fb := map[string]interface{}{"question": q.Question, "answer": "I would check the dashboards first."}
	if code, _ := s.do(http.MethodPost, "/api/prompts/feedback", user, util.RoleUser, fb); code != http.StatusOK {
		t.Fatalf("feedback: expected 200, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/prompts/question", user, util.RoleUser, map[string]string{"role": "sre"}); code != http.StatusOK {
		t.Fatalf("third prompt: expected 200, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/prompts/question", user, util.RoleUser, map[string]string{"role": "sre"}); code != http.StatusTooManyRequests {
		t.Errorf("fourth prompt: expected 429, got %d", code)
	}
}
