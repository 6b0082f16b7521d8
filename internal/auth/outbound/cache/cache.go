package cache

import (
	"context"
	"errors"
	"time"

	"github.com/danupratama/authgate/internal/pkg/clock"
	"github.com/danupratama/authgate/internal/pkg/goerror"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	challengeKeyPrefix = "auth:challenge:"
	attemptsKeyPrefix  = "auth:challenge-attempts:"
	rateLimitKeyPrefix = "auth:ratelimit:"
)

// Cache persists challenge records and rate-limit entries in Redis. TTLs do
// the background purging; readers still treat stale data as absent.
type Cache struct {
	client      *redis.Client
	clock       clock.Clocker
	ins         instrument.Instrumentation
	window      time.Duration
	maxRequests int64
}

type Config struct {
	Client      *redis.Client
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
	Window      time.Duration
	MaxRequests int64
}

func NewCache(cfg Config) *Cache {
	return &Cache{
		client:      cfg.Client,
		clock:       cfg.Clock,
		ins:         cfg.Instrument,
		window:      cfg.Window,
		maxRequests: cfg.MaxRequests,
	}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return goerror.ErrNotFound
	}
	return err
}
