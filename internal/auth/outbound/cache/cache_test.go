package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/pkg/goerror"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestCache(t *testing.T) (*Cache, *fakeClock, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewCache(Config{
		Client:      client,
		Clock:       clk,
		Instrument:  instrument.NewNoop(),
		Window:      15 * time.Minute,
		MaxRequests: 3,
	})

	return c, clk, srv
}

func testRecord(clk *fakeClock, email string) entity.ChallengeRecord {
	now := clk.now.Unix()
	return entity.ChallengeRecord{
		Email:          email,
		SecretDigest:   "digest",
		ChallengeToken: "token-1",
		UserID:         "user-1",
		CreatedAt:      now,
		ExpiresAt:      now + 300,
		PurgeAfter:     now + 300 + 3600,
	}
}

func TestCache_ChallengeRoundTrip(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetChallenge(ctx, "a@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	rec := testRecord(clk, "a@x.com")
	require.NoError(t, c.PutChallenge(ctx, rec))

	got, err := c.GetChallenge(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	require.NoError(t, c.DeleteChallenge(ctx, "a@x.com"))
	_, err = c.GetChallenge(ctx, "a@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	// deleting again stays silent
	require.NoError(t, c.DeleteChallenge(ctx, "a@x.com"))
}

func TestCache_PutChallengeSupersedes(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	first := testRecord(clk, "a@x.com")
	require.NoError(t, c.PutChallenge(ctx, first))

	second := testRecord(clk, "a@x.com")
	second.SecretDigest = "newer-digest"
	second.ChallengeToken = "token-2"
	require.NoError(t, c.PutChallenge(ctx, second))

	got, err := c.GetChallenge(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "newer-digest", got.SecretDigest)
	assert.Equal(t, "token-2", got.ChallengeToken)
}

func TestCache_GetChallengePastPurge(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	rec := testRecord(clk, "a@x.com")
	require.NoError(t, c.PutChallenge(ctx, rec))

	// physically present but logically purged
	clk.now = clk.now.Add(time.Duration(300+3600+1) * time.Second)
	_, err := c.GetChallenge(ctx, "a@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestCache_IncrementChallengeAttempts(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutChallenge(ctx, testRecord(clk, "a@x.com")))
	require.NoError(t, c.IncrementChallengeAttempts(ctx, "a@x.com"))
	require.NoError(t, c.IncrementChallengeAttempts(ctx, "a@x.com"))

	got, err := c.GetChallenge(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.FailedAttempts)

	err = c.IncrementChallengeAttempts(ctx, "missing@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestCache_PutChallengeResetsFailedAttempts(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	first := testRecord(clk, "a@x.com")
	require.NoError(t, c.PutChallenge(ctx, first))
	require.NoError(t, c.IncrementChallengeAttempts(ctx, "a@x.com"))

	second := testRecord(clk, "a@x.com")
	second.SecretDigest = "newer-digest"
	second.ChallengeToken = "token-2"
	require.NoError(t, c.PutChallenge(ctx, second))

	// the counter bump must never write the old record back
	got, err := c.GetChallenge(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "newer-digest", got.SecretDigest)
	assert.Equal(t, "token-2", got.ChallengeToken)
	assert.Equal(t, int32(0), got.FailedAttempts)

	// a bump after the supersede counts against the new record only
	require.NoError(t, c.IncrementChallengeAttempts(ctx, "a@x.com"))
	got, err = c.GetChallenge(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "newer-digest", got.SecretDigest)
	assert.Equal(t, int32(1), got.FailedAttempts)
}

func TestCache_RateLimit(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	state, err := c.CheckRateLimit(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, state.Allowed)

	for range 3 {
		require.NoError(t, c.RecordRateLimit(ctx, "a@x.com"))
		clk.now = clk.now.Add(time.Minute)
	}

	state, err = c.CheckRateLimit(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, state.Allowed)
	assert.Greater(t, state.ResetAfter, time.Duration(0))
	assert.GreaterOrEqual(t, state.ResetMinutes(), 1)

	// another identity is unaffected
	state, err = c.CheckRateLimit(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, state.Allowed)
}

func TestCache_RateLimitWindowSlides(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, c.RecordRateLimit(ctx, "a@x.com"))
		clk.now = clk.now.Add(time.Second)
	}

	state, err := c.CheckRateLimit(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, state.Allowed)

	// all entries age out of the 15 minute window
	clk.now = clk.now.Add(15 * time.Minute)
	state, err = c.CheckRateLimit(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, state.Allowed)
}

func TestCache_RateLimitResetUsesOldestEntry(t *testing.T) {
	c, clk, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.RecordRateLimit(ctx, "a@x.com"))
	clk.now = clk.now.Add(5 * time.Minute)
	require.NoError(t, c.RecordRateLimit(ctx, "a@x.com"))
	clk.now = clk.now.Add(5 * time.Minute)
	require.NoError(t, c.RecordRateLimit(ctx, "a@x.com"))

	state, err := c.CheckRateLimit(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, state.Allowed)

	// oldest entry is 10 minutes old, so it leaves the window in 5
	assert.Equal(t, 5*time.Minute, state.ResetAfter)
	assert.Equal(t, 5, state.ResetMinutes())
}
