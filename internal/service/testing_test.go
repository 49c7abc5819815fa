package service

import (
	"path/filepath"
	"testing"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Subscription{},
		&model.UsageRecord{},
		&model.QuestionResult{},
		&model.DifficultyState{},
		&model.PracticeSession{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type testEnv struct {
	db          *gorm.DB
	subs        *SubscriptionService
	quota       *QuotaService
	difficulty  *DifficultyService
	sessions    *SessionService
	clock       time.Time
	storageRoot string
}

func testQuotaConfig() config.QuotaConfig {
	return config.QuotaConfig{
		Store:        "mysql",
		Timezone:     "UTC",
		DefaultLimit: 2,
		Tiers:        map[string]int{"trial": 3, "pro": 5},
	}
}

// newTestEnv 所有服务共享同一个可调整的时钟
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{db: db, clock: testNow, storageRoot: t.TempDir()}
	clock := func() time.Time { return env.clock }

	env.subs = NewSubscriptionService(repository.NewSubscriptionRepository(db), config.SubscriptionConfig{TrialDays: 7, TrialTier: "trial"})
	env.subs.now = clock

	quota, err := NewQuotaService(repository.NewUsageRepository(db), env.subs, testQuotaConfig())
	if err != nil {
		t.Fatalf("NewQuotaService failed: %v", err)
	}
	quota.now = clock
	env.quota = quota

	env.difficulty = NewDifficultyService(repository.NewQuestionResultRepository(db), repository.NewDifficultyRepository(db))
	env.difficulty.now = clock

	env.sessions = NewSessionService(repository.NewSessionRepository(db), env.difficulty)
	env.sessions.now = clock
	return env
}

func (e *testEnv) startTrial(t *testing.T, userID uint) {
	t.Helper()
	if _, err := e.subs.StartTrial(userID); err != nil {
		t.Fatalf("StartTrial failed: %v", err)
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
