package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*UnreadCounts, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUnreadCounts(client, ttl, nil), mr
}

func TestUnreadCounts_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	_, ok := c.Get(ctx, userID)
	assert.False(t, ok)

	c.SetIfCurrent(ctx, userID, 4, c.Version(ctx, userID))
	got, ok := c.Get(ctx, userID)
	require.True(t, ok)
	assert.Equal(t, 4, got)
	assert.Equal(t, time.Minute, mr.TTL(unreadKey(userID)))

	c.Invalidate(ctx, userID)
	_, ok = c.Get(ctx, userID)
	assert.False(t, ok)
}

func TestUnreadCounts_EvictionDuringCountSkipsFill(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	version := c.Version(ctx, userID)
	assert.Zero(t, version)

	// A notification lands after the count was taken.
	c.Invalidate(ctx, userID)
	c.SetIfCurrent(ctx, userID, 1, version)

	_, ok := c.Get(ctx, userID)
	assert.False(t, ok, "a stale count is not cached")
	assert.False(t, mr.Exists(unreadKey(userID)))

	version = c.Version(ctx, userID)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, versionTTL, mr.TTL(versionKey(userID)))

	c.SetIfCurrent(ctx, userID, 2, version)
	got, ok := c.Get(ctx, userID)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestUnreadCounts_Expires(t *testing.T) {
	c, mr := newTestCache(t, 10*time.Second)
	ctx := context.Background()
	userID := uuid.New()

	c.SetIfCurrent(ctx, userID, 1, c.Version(ctx, userID))
	mr.FastForward(11 * time.Second)

	_, ok := c.Get(ctx, userID)
	assert.False(t, ok)
}

func TestUnreadCounts_CorruptValueIsEvicted(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	userID := uuid.New()
	require.NoError(t, mr.Set(unreadKey(userID), "not-a-number"))

	_, ok := c.Get(context.Background(), userID)
	assert.False(t, ok)
	assert.False(t, mr.Exists(unreadKey(userID)))
}

func TestUnreadCounts_ZeroTTLSkipsWrites(t *testing.T) {
	c, mr := newTestCache(t, 0)
	userID := uuid.New()

	c.SetIfCurrent(context.Background(), userID, 2, 0)
	assert.False(t, mr.Exists(unreadKey(userID)))
}

func TestUnreadCounts_NilClientIsNoop(t *testing.T) {
	c := NewUnreadCounts(nil, time.Minute, nil)
	ctx := context.Background()
	userID := uuid.New()

	assert.Equal(t, int64(-1), c.Version(ctx, userID))
	c.SetIfCurrent(ctx, userID, 3, 0)
	c.Invalidate(ctx, userID)
	_, ok := c.Get(ctx, userID)
	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "://bad")
	assert.Error(t, err)
}
