package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"reelingest/internal/config"
)

const keyPrefix = "reelingest:ingest:"

// Guard prevents the same source URL from being ingested twice while a prior
// submission is still in flight or freshly completed.
type Guard interface {
	// Claim reserves sourceURL. It returns false when another submission
	// already holds the reservation.
	Claim(ctx context.Context, sourceURL string) (bool, error)
	// Release frees the reservation early, e.g. when a job fails before
	// producing a video.
	Release(ctx context.Context, sourceURL string) error
	Close() error
}

// NewGuard returns a redis-backed guard when dedupe is enabled, otherwise a
// no-op guard that claims everything.
func NewGuard(cfg *config.Config) Guard {
	if !cfg.Dedupe.Enabled || strings.TrimSpace(cfg.Dedupe.RedisAddr) == "" {
		return noopGuard{}
	}
	ttl := time.Duration(cfg.Dedupe.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Dedupe.RedisAddr})
	return &redisGuard{client: client, ttl: ttl}
}

type redisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func (g *redisGuard) Claim(ctx context.Context, sourceURL string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+sourceURL, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe claim: %w", err)
	}
	return ok, nil
}

func (g *redisGuard) Release(ctx context.Context, sourceURL string) error {
	if err := g.client.Del(ctx, keyPrefix+sourceURL).Err(); err != nil {
		return fmt.Errorf("dedupe release: %w", err)
	}
	return nil
}

func (g *redisGuard) Close() error {
	return g.client.Close()
}

type noopGuard struct{}

func (noopGuard) Claim(context.Context, string) (bool, error) { return true, nil }
func (noopGuard) Release(context.Context, string) error       { return nil }
func (noopGuard) Close() error                                { return nil }
