package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// 比较与自增在同一个脚本内执行，Redis 单线程保证原子性
var incrementBelowScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
	return {0, current}
end
current = redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('HSET', KEYS[1], 'limit', limit)
redis.call('EXPIREAT', KEYS[1], ARGV[2])
return {1, current}
`)

// RedisUsageStore 多实例部署时共享的计数实现，记录在保留期后过期
type RedisUsageStore struct {
	rdb       *redis.Client
	retention time.Duration
	loc       *time.Location
	now       func() time.Time
}

func NewRedisUsageStore(rdb *redis.Client, retentionDays int, loc *time.Location) *RedisUsageStore {
	if retentionDays < 1 {
		retentionDays = 1
	}
	if loc == nil {
		loc = time.Local
	}
	return &RedisUsageStore{
		rdb:       rdb,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		loc:       loc,
		now:       time.Now,
	}
}

func usageKey(userID uint, day string) string {
	return fmt.Sprintf("quota:prompt:%d:%s", userID, day)
}

func (s *RedisUsageStore) GetCount(ctx context.Context, userID uint, day string) (int, error) {
	count, err := s.rdb.HGet(ctx, usageKey(userID, day), "count").Int()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (s *RedisUsageStore) IncrementIfBelow(ctx context.Context, userID uint, day string, limit int) (bool, int, error) {
	expireAt, err := s.expireAt(day)
	if err != nil {
		return false, 0, err
	}

	res, err := incrementBelowScript.Run(ctx, s.rdb, []string{usageKey(userID, day)}, limit, expireAt.Unix()).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected script reply %v", res)
	}
	incremented, _ := values[0].(int64)
	count, _ := values[1].(int64)
	return incremented == 1, int(count), nil
}

func (s *RedisUsageStore) History(ctx context.Context, userID uint, days []string) ([]model.UsageRecord, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(days))
	for i, day := range days {
		cmds[i] = pipe.HGetAll(ctx, usageKey(userID, day))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	records := make([]model.UsageRecord, 0, len(days))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		count, _ := strconv.Atoi(fields["count"])
		limit, _ := strconv.Atoi(fields["limit"])
		records = append(records, model.UsageRecord{
			UserID:     userID,
			UsageDate:  days[i],
			Count:      count,
			DailyLimit: limit,
		})
	}
	return records, nil
}

// expireAt 当天结束后再保留 retention，且不早于 now + retention。
// 过去日期的计数若立即过期，每次调用都会从 0 开始，上限失效。
func (s *RedisUsageStore) expireAt(day string) (time.Time, error) {
	start, err := time.ParseInLocation(util.DateFormat, day, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid usage day %q: %w", day, err)
	}
	at := start.AddDate(0, 0, 1).Add(s.retention)
	if floor := s.now().Add(s.retention); at.Before(floor) {
		at = floor
	}
	return at, nil
}
