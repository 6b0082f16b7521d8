// Package idp is the client for the identity provider's admin API. The
// issuance and verification flows use it for best-effort account confirmation
// and attribute updates.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client calls the identity provider over HTTP. Transient failures are
// retried with a capped fibonacci backoff since the provider sits behind a
// load balancer that sheds connections under pressure.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	ins        instrument.Instrumentation
	maxRetries uint64
}

type Config struct {
	// BaseURL is the root of the provider's admin API, without trailing slash.
	BaseURL string
	// Token authenticates this service against the admin API.
	Token string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxRetries limits retry attempts per call.
	MaxRetries uint64

	Instrument instrument.Instrumentation
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		ins:        cfg.Instrument,
		maxRetries: maxRetries,
	}
}

// ConfirmUser asks the provider to confirm/activate the account. An account
// that is already confirmed is success, not an error.
func (c *Client) ConfirmUser(ctx context.Context, userID string) (err error) {
	ctx, span := c.startSpan(ctx, "ConfirmUser")
	defer func() { c.endSpan(span, err) }()

	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/admin/users/%s/confirm", userID), nil)
	return err
}

// MarkEmailVerified sets the provider-side email_verified attribute so token
// claims reflect the proven channel.
func (c *Client) MarkEmailVerified(ctx context.Context, userID string) (err error) {
	ctx, span := c.startSpan(ctx, "MarkEmailVerified")
	defer func() { c.endSpan(span, err) }()

	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%s/attributes", userID), map[string]any{
		"email_verified": true,
	})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return err
		}
	}

	b := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(200*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusConflict:
			// already confirmed / already verified
			return nil
		case resp.StatusCode >= 500:
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.RetryableError(fmt.Errorf("idp returned %d: %s", resp.StatusCode, raw))
		default:
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("idp returned %d: %s", resp.StatusCode, raw)
		}
	})
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.idp").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
