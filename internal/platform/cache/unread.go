package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnreadCounts caches per-user unread notification counts.
//
// Every Invalidate bumps a per-user version. A reader takes the version with
// Version before counting and fills with SetIfCurrent, which writes only if
// no eviction happened in between, so a count taken before a new
// notification is never cached after it.
type UnreadCounts struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// versionTTL bounds how long an idle user's version key lives. It only has
// to outlast a single count query.
const versionTTL = 24 * time.Hour

// setIfCurrent writes the count only while the version key still holds the
// version the reader started from. A missing version key reads as "0".
var setIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// NewUnreadCounts wraps client. A nil client disables caching.
func NewUnreadCounts(client *redis.Client, ttl time.Duration, logger *slog.Logger) *UnreadCounts {
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UnreadCounts{
		redis:  client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "unread_cache")),
	}
}

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Get returns the cached count for userID and whether it was present.
// Redis failures are reported as a miss.
func (c *UnreadCounts) Get(ctx context.Context, userID uuid.UUID) (int, bool) {
	if c.redis == nil {
		return 0, false
	}
	key := unreadKey(userID)
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("unread cache read failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			_ = c.redis.Del(ctx, key).Err()
		}
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return 0, false
	}
	return n, true
}

// Version returns the current eviction version for userID. Read it before
// counting and pass it to SetIfCurrent. Redis failures return -1, which
// never matches, so nothing is cached.
func (c *UnreadCounts) Version(ctx context.Context, userID uuid.UUID) int64 {
	if c.redis == nil {
		return -1
	}
	v, err := c.redis.Get(ctx, versionKey(userID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0
	case err != nil:
		c.logger.Warn("unread cache version read failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return -1
	}
	return v
}

// SetIfCurrent stores count for userID with the configured TTL unless the
// cache was invalidated after version was read.
func (c *UnreadCounts) SetIfCurrent(ctx context.Context, userID uuid.UUID, count int, version int64) {
	if c.redis == nil || c.ttl == 0 || version < 0 {
		return
	}
	keys := []string{versionKey(userID), unreadKey(userID)}
	stored, err := setIfCurrent.Run(ctx, c.redis, keys, version, count, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("unread cache write failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return
	}
	if stored == 0 {
		c.logger.Debug("unread count changed while counting, not cached",
			slog.String("user_id", userID.String()))
	}
}

// Invalidate drops the cached count for userID and bumps its version.
func (c *UnreadCounts) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Expire(ctx, versionKey(userID), versionTTL)
		pipe.Del(ctx, unreadKey(userID))
		return nil
	})
	if err != nil {
		c.logger.Warn("unread cache eviction failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}
}

func unreadKey(userID uuid.UUID) string {
	return "notifications:unread:" + userID.String()
}

func versionKey(userID uuid.UUID) string {
	return "notifications:unread-version:" + userID.String()
}
