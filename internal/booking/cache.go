package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
)

// AvailabilityCache stores built calendars keyed by resource and "today".
// Failures are logged and treated as misses; the store stays authoritative.
//
// Get returns a generation token alongside a miss. The caller reads the store
// after Get and hands the token back to Set, which drops the write when an
// Invalidate ran in between.
type AvailabilityCache interface {
	Get(ctx context.Context, resourceID string, today time.Time) (cal *Calendar, gen int64, ok bool)
	Set(ctx context.Context, resourceID string, today time.Time, gen int64, cal *Calendar)
	Invalidate(ctx context.Context, resourceID string)
}

// NopCache disables caching.
type NopCache struct{}

func (NopCache) Get(context.Context, string, time.Time) (*Calendar, int64, bool) {
	return nil, 0, false
}
func (NopCache) Set(context.Context, string, time.Time, int64, *Calendar) {}
func (NopCache) Invalidate(context.Context, string)                       {}

var errStaleGeneration = errors.New("availability cache generation moved")

// RedisAvailabilityCache keeps one hash per resource, with one field per
// "today" date, plus a counter bumped by every invalidation. Invalidation
// drops the whole hash.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func cacheKey(resourceID string) string {
	return "availability:" + resourceID
}

func generationKey(resourceID string) string {
	return "availability:gen:" + resourceID
}

func readGeneration(ctx context.Context, c redis.Cmdable, resourceID string) (int64, error) {
	gen, err := c.Get(ctx, generationKey(resourceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, resourceID string, today time.Time) (*Calendar, int64, bool) {
	// Read the generation first so an invalidation racing with the caller's
	// store read is always visible to Set.
	gen, err := readGeneration(ctx, c.client, resourceID)
	if err != nil {
		slog.WarnContext(ctx, "availability cache read failed", "resource_id", resourceID, "error", err)
		return nil, -1, false
	}

	raw, err := c.client.HGet(ctx, cacheKey(resourceID), interval.FormatDate(today)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "availability cache read failed", "resource_id", resourceID, "error", err)
		}
		return nil, gen, false
	}

	var cal Calendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		slog.WarnContext(ctx, "availability cache entry corrupt", "resource_id", resourceID, "error", err)
		return nil, gen, false
	}
	return &cal, gen, true
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, resourceID string, today time.Time, gen int64, cal *Calendar) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(cal)
	if err != nil {
		slog.WarnContext(ctx, "availability cache encode failed", "resource_id", resourceID, "error", err)
		return
	}

	key := cacheKey(resourceID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, resourceID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, interval.FormatDate(today), raw)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, generationKey(resourceID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		slog.DebugContext(ctx, "availability cache write skipped, invalidated during build", "resource_id", resourceID)
	default:
		slog.WarnContext(ctx, "availability cache write failed", "resource_id", resourceID, "error", err)
	}
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, resourceID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(resourceID))
		pipe.Del(ctx, cacheKey(resourceID))
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "availability cache invalidate failed", "resource_id", resourceID, "error", err)
	}
}
