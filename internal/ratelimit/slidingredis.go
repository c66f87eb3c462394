package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window rate limiter over Redis sorted sets. Window and
// Max are fixed per limiter instance; callers vary only the key, so one
// limiter guards one route group.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

func (l Limiter) enabled() bool {
	return l.Client != nil && l.Max > 0 && l.Window > 0
}

// Allow records one event under key and reports whether it fits the window.
// A limiter without a client or limits admits everything.
func (l Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	decision := Decision{Allowed: true, Remaining: l.Max, ResetAt: now.Add(l.Window)}
	if !l.enabled() {
		if decision.Remaining < 0 {
			decision.Remaining = 0
		}
		return decision, nil
	}

	redisKey := l.Prefix + key
	cutoff := fmt.Sprintf("%f", float64(now.Add(-l.Window).UnixNano()))

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: decision.ResetAt}, err
	}

	current := int(countCmd.Val())
	decision.Allowed = current <= l.Max
	decision.Remaining = l.Max - current
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	return decision, nil
}
