package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/goerror"
	"github.com/redis/go-redis/v9"
)

// PutChallenge stores rec under its email, superseding any prior record for
// that identity and resetting its failed-attempt counter. The key expires at
// rec.PurgeAfter.
func (c *Cache) PutChallenge(ctx context.Context, rec entity.ChallengeRecord) (err error) {
	ctx, span := c.startSpan(ctx, "PutChallenge")
	defer func() { c.endSpan(span, err) }()

	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ttl := time.Duration(rec.PurgeAfter-c.clock.Now().Unix()) * time.Second
	if ttl <= 0 {
		return errors.New("challenge record already past its purge time")
	}

	if err = c.client.Set(ctx, challengeKeyPrefix+rec.Email, body, ttl).Err(); err != nil {
		return err
	}

	err = c.client.Del(ctx, attemptsKeyPrefix+rec.Email).Err()
	return err
}

// GetChallenge returns the outstanding record for email, or
// goerror.ErrNotFound. A record past its purge time is reported absent even
// when Redis has not evicted it yet.
func (c *Cache) GetChallenge(ctx context.Context, email string) (_ *entity.ChallengeRecord, err error) {
	ctx, span := c.startSpan(ctx, "GetChallenge")
	defer func() { c.endSpan(span, err) }()

	body, err := c.client.Get(ctx, challengeKeyPrefix+email).Bytes()
	if err != nil {
		return nil, c.mapError(err)
	}

	var rec entity.ChallengeRecord
	if err = json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}

	if c.clock.Now().Unix() > rec.PurgeAfter {
		return nil, goerror.ErrNotFound
	}

	attempts, err := c.client.Get(ctx, attemptsKeyPrefix+email).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	rec.FailedAttempts = int32(attempts)

	return &rec, nil
}

// DeleteChallenge removes the record for email along with its failed-attempt
// counter. Removing an absent record is not an error.
func (c *Cache) DeleteChallenge(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteChallenge")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, challengeKeyPrefix+email, attemptsKeyPrefix+email).Err()
	return err
}

// IncrementChallengeAttempts bumps the advisory failed-attempt counter. The
// counter lives under its own key so the bump never rewrites the record a
// concurrent PutChallenge may have superseded.
func (c *Cache) IncrementChallengeAttempts(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "IncrementChallengeAttempts")
	defer func() { c.endSpan(span, err) }()

	key := attemptsKeyPrefix + email
	if err = c.client.Incr(ctx, key).Err(); err != nil {
		return err
	}

	// Mirror the record's lifetime so the counter never outlives it.
	ttl, err := c.client.TTL(ctx, challengeKeyPrefix+email).Result()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		_ = c.client.Del(ctx, key).Err()
		return goerror.ErrNotFound
	}

	err = c.client.Expire(ctx, key, ttl).Err()
	return err
}
