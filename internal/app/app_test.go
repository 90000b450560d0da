package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/patric-chuzhbe/newsaggr/internal/config"
)

func TestNewWiresHandler(t *testing.T) {
	t.Setenv("TRUSTED_SUBNET", "127.0.0.0/8")

	a, err := New(config.WithDisableFlagsParsing(true))
	require.NoError(t, err)
	defer a.Close()

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	for path, code := range map[string]int{
		"/ping":            http.StatusOK,
		"/news/categories": http.StatusOK,
		"/news":            http.StatusUnauthorized,
		"/internal/stats":  http.StatusOK,
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, code, resp.StatusCode, path)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := New(config.WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Setenv("SERVER_ADDRESS", "127.0.0.1:18089")

	a, err := New(config.WithDisableFlagsParsing(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, a.serve(ctx))
}
