// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr()}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisGetSet(t *testing.T) {
	_, c := setupRedis(t)

	c.Set("report:abc:1-6:docx", []byte("PK\x03\x04"), time.Minute)

	val, ok := c.Get("report:abc:1-6:docx")
	require.True(t, ok)
	assert.Equal(t, []byte("PK\x03\x04"), val)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestRedisTTL(t *testing.T) {
	mr, c := setupRedis(t)

	c.Set("short", []byte("x"), time.Second)
	_, ok := c.Get("short")
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok = c.Get("short")
	assert.False(t, ok, "expected key to be expired")
}

func TestRedisDeleteAndClear(t *testing.T) {
	_, c := setupRedis(t)

	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestRedisStats(t *testing.T) {
	_, c := setupRedis(t)

	c.Set("a", []byte("1"), time.Minute)
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisConnectFailure(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}, testLogger())
	assert.Error(t, err)
}

func TestRedisPing(t *testing.T) {
	_, c := setupRedis(t)

	rc, ok := c.(*redisCache)
	require.True(t, ok)
	assert.NoError(t, rc.Ping(context.Background()))
}

func TestFactoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), Options{Backend: "redis", Redis: RedisConfig{Addr: mr.Addr()}}, testLogger())
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
