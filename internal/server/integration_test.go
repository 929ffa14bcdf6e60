package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/core/engine"
	"github.com/reputebot/reputebot/internal/observability"
	"github.com/reputebot/reputebot/internal/server/handlers"
)

// isPermissionError normalizes OS-specific permission errors so tests can
// skip when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics("test", 0, "test"); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = observability.ShutdownMetrics() })
}

// startLoopback serves srv on IPv4 loopback and skips when the sandbox
// refuses to open sockets.
func startLoopback(t *testing.T, srv *Server) (*httptest.Server, *http.Client) {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func TestStatusServerUnderLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("loopback load test")
	}
	observability.InitServerLogger("test", "info", "structured")
	initMetricsOrSkip(t)
	handlers.InitHealthManager("test")

	limiter := engine.NewRateLimiter(map[core.RequestCategory]core.RateWindow{}, clockwork.NewRealClock())
	queue := engine.NewRequestQueue(limiter, engine.QueueConfig{MaxRetries: 1, BackoffBase: 2, BackoffUnit: time.Millisecond}, nil, nil)
	t.Cleanup(func() { _ = queue.Close(context.Background()) })

	ts, client := startLoopback(t, New(config.ServerConfig{Host: "127.0.0.1"}, WithQueue(queue)))

	const numRequests = 40
	const numWorkers = 8

	requests := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requests <- i
	}
	close(requests)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for n := range requests {
				_, _ = queue.Submit(context.Background(), core.CategoryGetProfile, core.PriorityNormal, func(ctx context.Context) (any, error) {
					return n, nil
				})

				path := "/queue/stats"
				switch n % 4 {
				case 1:
					path = "/health"
				case 2:
					path = "/version"
				case 3:
					path = "/missing"
				}
				resp, err := client.Get(ts.URL + path)
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	stats := queue.Stats()
	assert.Equal(t, int64(numRequests), stats.SuccessfulRequests)

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	content := string(body)
	assert.Contains(t, content, "http_requests_total")
	assert.Contains(t, content, "queue_requests_total")
}

func TestStatusServerMetricsDisabled(t *testing.T) {
	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})

	ts, client := startLoopback(t, New(config.ServerConfig{Host: "127.0.0.1"}))

	resp, err := client.Get(ts.URL + "/version")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
