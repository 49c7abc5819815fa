package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

var redisNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// setupRedisStore miniredis 与 store 使用同一个固定时钟
func setupRedisStore(t *testing.T) (*RedisUsageStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	mr.SetTime(redisNow)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := NewRedisUsageStore(rdb, 2, time.UTC)
	store.now = func() time.Time { return redisNow }
	return store, mr
}

func TestRedisUsageStoreIncrementIfBelow(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		ok, n, err := store.IncrementIfBelow(ctx, 1, "2026-03-10", 2)
		if err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
		if !ok || n != i {
			t.Errorf("increment %d: expected (true, %d), got (%v, %d)", i, i, ok, n)
		}
	}

	ok, n, err := store.IncrementIfBelow(ctx, 1, "2026-03-10", 2)
	if err != nil {
		t.Fatalf("increment over limit failed: %v", err)
	}
	if ok || n != 2 {
		t.Errorf("expected (false, 2) at the limit, got (%v, %d)", ok, n)
	}

	count, err := store.GetCount(ctx, 1, "2026-03-10")
	if err != nil || count != 2 {
		t.Errorf("expected stored count 2, got %d (err %v)", count, err)
	}

	count, err = store.GetCount(ctx, 1, "2026-03-11")
	if err != nil || count != 0 {
		t.Errorf("expected fresh count on the next day, got %d (err %v)", count, err)
	}

	if got := mr.HGet(usageKey(1, "2026-03-10"), "limit"); got != "2" {
		t.Errorf("expected limit field 2, got %q", got)
	}
}

func TestRedisUsageStoreExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	if _, _, err := store.IncrementIfBelow(ctx, 5, "2026-03-10", 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	// 当天结束后保留两天：03-13 00:00 UTC 过期
	ttl := mr.TTL(usageKey(5, "2026-03-10"))
	want := 60 * time.Hour
	if ttl != want {
		t.Errorf("expected ttl %v, got %v", want, ttl)
	}
}

func TestRedisUsageStorePastDayKeepsLimit(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	// 早已超过保留期的日期
	day := redisNow.AddDate(0, 0, -5).Format("2006-01-02")

	successes := 0
	for i := 0; i < 10; i++ {
		ok, _, err := store.IncrementIfBelow(ctx, 3, day, 3)
		if err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
		if ok {
			successes++
		}
	}

	if successes != 3 {
		t.Errorf("expected 3 successful increments, got %d", successes)
	}
	count, err := store.GetCount(ctx, 3, day)
	if err != nil || count != 3 {
		t.Errorf("expected stored count 3, got %d (err %v)", count, err)
	}
	if ttl := mr.TTL(usageKey(3, day)); ttl != 48*time.Hour {
		t.Errorf("expected ttl of one retention period from now, got %v", ttl)
	}
}

func TestRedisUsageStoreConcurrentIncrements(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	const limit = 4
	var succeeded int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := store.IncrementIfBelow(ctx, 9, "2026-03-10", limit)
			if err != nil {
				t.Errorf("increment failed: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	if succeeded != limit {
		t.Errorf("expected exactly %d successful increments, got %d", limit, succeeded)
	}
}

func TestRedisUsageStoreHistory(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	store.IncrementIfBelow(ctx, 2, "2026-03-09", 5)
	store.IncrementIfBelow(ctx, 2, "2026-03-10", 5)
	store.IncrementIfBelow(ctx, 2, "2026-03-10", 5)

	records, err := store.History(ctx, 2, []string{"2026-03-10", "2026-03-09", "2026-03-08"})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Count != 2 || records[0].DailyLimit != 5 {
		t.Errorf("unexpected record %+v", records[0])
	}
	if records[1].UsageDate != "2026-03-09" || records[1].Count != 1 {
		t.Errorf("unexpected record %+v", records[1])
	}
}
