// Package cache Redis 缓存模块单元测试
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis 创建 miniredis 测试实例
func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// setupTestRedis 初始化测试 Redis 客户端
func setupTestRedis(t *testing.T, s *miniredis.Miniredis) {
	rdb = redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() {
		_ = rdb.Close()
		rdb = nil
	})
}

// ==================== Init 函数测试 ====================

func TestInit_Success(t *testing.T) {
	s := setupMiniRedis(t)

	cfg := &config.RedisConfig{
		Host:        s.Host(),
		Port:        s.Server().Addr().Port,
		PoolSize:    10,
		DialTimeout: 5,
		ReadTimeout: 3,
	}

	client, err := Init(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.True(t, Enabled())
	t.Cleanup(func() {
		_ = Close()
		rdb = nil
	})
}

func TestInit_ConnectionFailed(t *testing.T) {
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 1}

	_, err := Init(cfg)
	assert.Error(t, err)
	rdb = nil
}

// ==================== 读写测试 ====================

type calendarDay struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

func TestSet_And_Get(t *testing.T) {
	s := setupMiniRedis(t)
	setupTestRedis(t, s)
	ctx := context.Background()

	in := []calendarDay{{Date: "2026-01-01", Status: "booked"}}
	require.NoError(t, Set(ctx, "calendar:1", in, time.Minute))

	var out []calendarDay
	require.NoError(t, Get(ctx, "calendar:1", &out))
	assert.Equal(t, in, out)

	assert.Greater(t, s.TTL("calendar:1"), time.Duration(0))
}

func TestGet_NotFound(t *testing.T) {
	s := setupMiniRedis(t)
	setupTestRedis(t, s)

	var out []calendarDay
	err := Get(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDeleteByPattern(t *testing.T) {
	s := setupMiniRedis(t)
	setupTestRedis(t, s)
	ctx := context.Background()

	require.NoError(t, Set(ctx, BuildKey(KeyPrefixCalendar, "7", "2026-01-01", "2026-02-01"), 1, 0))
	require.NoError(t, Set(ctx, BuildKey(KeyPrefixCalendar, "7", "2026-03-01", "2026-04-01"), 1, 0))
	require.NoError(t, Set(ctx, BuildKey(KeyPrefixCalendar, "8", "2026-01-01", "2026-02-01"), 1, 0))

	n, err := DeleteByPattern(ctx, KeyPrefixCalendar+"7:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.True(t, s.Exists("calendar:8:2026-01-01:2026-02-01"))
}

func TestSet_Expires(t *testing.T) {
	s := setupMiniRedis(t)
	setupTestRedis(t, s)
	ctx := context.Background()

	require.NoError(t, Set(ctx, "rating:1", 4.5, time.Second))
	s.FastForward(2 * time.Second)

	var out float64
	assert.ErrorIs(t, Get(ctx, "rating:1", &out), redis.Nil)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "calendar:7:2026-01", BuildKey(KeyPrefixCalendar, "7", "2026-01"))
	assert.Equal(t, "rating:3", BuildKey(KeyPrefixRating, "3"))
}
