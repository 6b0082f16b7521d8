package idp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "service-token",
		Timeout:    time.Second,
		MaxRetries: 2,
		Instrument: instrument.NewNoop(),
	})
}

func TestClient_ConfirmUser(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.ConfirmUser(context.Background(), "user-1"))
	assert.Equal(t, "/admin/users/user-1/confirm", gotPath)
	assert.Equal(t, "Bearer service-token", gotAuth)
}

func TestClient_ConfirmUserAlreadyConfirmed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	assert.NoError(t, c.ConfirmUser(context.Background(), "user-1"))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.MarkEmailVerified(context.Background(), "user-1"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	assert.Error(t, c.ConfirmUser(context.Background(), "ghost"))
	assert.Equal(t, int32(1), calls.Load())
}
