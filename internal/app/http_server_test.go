package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewChecker("storage", func(context.Context) error { return nil }))
	srv := startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "http"), healthHandler)
	require.NotNil(t, srv)

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForHTTP(t, base+"/livez")

	for path, wantBody := range map[string]string{"/metrics": "", "/healthz": "", "/livez": "ok", "/readyz": "ready"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		if wantBody != "" {
			assert.Equal(t, wantBody, string(body), path)
		} else {
			assert.NotEmpty(t, body, path)
		}
	}
}

func TestStartMetricsServer_NotReady(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler("test")
	healthHandler.RegisterChecker("storage", healthcheck.NewChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))
	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "not-ready"), healthHandler)

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForHTTP(t, base+"/livez")

	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStartMetricsServer_ShutdownOnCancel(t *testing.T) {
	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())

	startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), log.WithField("test", "http-shutdown"), healthcheck.NewHandler("test"))
	url := fmt.Sprintf("http://127.0.0.1:%d/livez", port)
	waitForHTTP(t, url)

	cancel()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
		}
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "server should stop after context cancellation")
}

func TestShutdownHTTP(t *testing.T) {
	logger := log.WithField("test", "http-shutdown-func")
	shutdownHTTP(nil, time.Second, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	shutdownHTTP(srv, 0, logger)
	select {
	case err := <-served:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func waitForHTTP(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond, "server at %s did not start", url)
}
