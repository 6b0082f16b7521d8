package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/redis/go-redis/v9"
)

// CheckRateLimit reports whether identity may request another challenge. It
// counts entries inside the trailing window and, when the cap is reached,
// reports how long until the oldest in-window entry falls out.
func (c *Cache) CheckRateLimit(ctx context.Context, identity string) (_ entity.RateLimitState, err error) {
	ctx, span := c.startSpan(ctx, "CheckRateLimit")
	defer func() { c.endSpan(span, err) }()

	now := c.clock.Now()
	key := rateLimitKeyPrefix + identity
	windowStart := now.Add(-c.window).Unix()

	if err = c.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		return entity.RateLimitState{}, err
	}

	count, err := c.client.ZCard(ctx, key).Result()
	if err != nil {
		return entity.RateLimitState{}, err
	}

	if count < c.maxRequests {
		return entity.RateLimitState{Allowed: true}, nil
	}

	oldest, err := c.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return entity.RateLimitState{}, err
	}

	reset := c.window
	if len(oldest) > 0 {
		outAt := time.Unix(int64(oldest[0].Score), 0).Add(c.window)
		reset = outAt.Sub(now)
	}

	return entity.RateLimitState{Allowed: false, ResetAfter: reset}, nil
}

// RecordRateLimit appends one entry for identity at the current time. Called
// only after the challenge secret was actually delivered, so failed delivery
// does not consume budget.
func (c *Cache) RecordRateLimit(ctx context.Context, identity string) (err error) {
	ctx, span := c.startSpan(ctx, "RecordRateLimit")
	defer func() { c.endSpan(span, err) }()

	now := c.clock.Now()
	key := rateLimitKeyPrefix + identity

	if err = c.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.Unix()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}).Err(); err != nil {
		return err
	}

	err = c.client.Expire(ctx, key, c.window).Err()
	return err
}
