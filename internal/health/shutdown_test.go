package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/health"
)

type countingChecker struct {
	pings atomic.Int32
}

func (c *countingChecker) PingShop(context.Context, time.Duration) error {
	c.pings.Add(1)
	return nil
}

func (c *countingChecker) PingRedis(context.Context, time.Duration) error {
	c.pings.Add(1)
	return nil
}

func TestDrainingInstanceSkipsDependencyChecks(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	checker := &countingChecker{}
	handler := health.Handler{Checker: checker}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	resp := httptest.NewRecorder()
	handler.Ready(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"shop":"ok","redis":"ok"}`, resp.Body.String())
	require.Equal(t, int32(2), checker.pings.Load())

	health.SetReady(false)
	resp = httptest.NewRecorder()
	handler.Ready(resp, req)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, int32(2), checker.pings.Load())

	// liveness is unaffected by draining
	resp = httptest.NewRecorder()
	handler.Live(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
