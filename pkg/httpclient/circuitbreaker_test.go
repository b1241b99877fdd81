package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cbTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func noRetryConfig() Config {
	cfg := fastConfig()
	cfg.MaxRetries = 0
	return cfg
}

func trippyBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(noRetryConfig()), trippyBreakerConfig("cb-pass"), cbTestLogger())

	resp, err := cb.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_5xxCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(noRetryConfig()), trippyBreakerConfig("cb-5xx"), cbTestLogger())

	_, err := cb.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 500")
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(noRetryConfig()), trippyBreakerConfig("cb-open"), cbTestLogger())

	for i := 0; i < 3; i++ {
		cb.Get(context.Background(), srv.URL)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Get(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestCircuitBreaker_FallbackInvokedWhenOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(noRetryConfig()), trippyBreakerConfig("cb-fallback"), cbTestLogger()).
		WithFallback(func(ctx context.Context, err error) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"city":"Delhi"}`)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		})

	for i := 0; i < 3; i++ {
		cb.Get(context.Background(), srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	resp, err := cb.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Delhi")
}

func TestCircuitBreaker_FallbackNotInvokedForPlainErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var fallbackCalled bool
	cb := NewCircuitBreakerClient(New(noRetryConfig()), trippyBreakerConfig("cb-nofallback"), cbTestLogger()).
		WithFallback(func(ctx context.Context, err error) (*http.Response, error) {
			fallbackCalled = true
			return nil, err
		})

	// Breaker still closed: a 5xx surfaces as an error without the fallback.
	_, err := cb.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, fallbackCalled)
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("geo")
	assert.Equal(t, "geo", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.InDelta(t, 0.5, cfg.FailureRatio, 0.001)
}
