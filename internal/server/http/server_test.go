package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-mcp/internal/domain"
	mcpserver "github.com/helixir/pubmed-mcp/internal/server/mcp"
)

type stubSource struct{}

func (stubSource) Search(context.Context, string, int) (*domain.SearchResponse, error) {
	return domain.EmptySearchResponse(), nil
}

func (stubSource) Fetch(_ context.Context, pmid string) (*domain.FetchResponse, error) {
	return domain.NewFetchResponse(domain.NewFetchRecord(pmid, "", "", "", ""))
}

func newTestServer(t *testing.T, cfg Config, mcpHandler http.Handler) *httptest.Server {
	t.Helper()
	srv := NewServer(cfg, mcpHandler, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	t.Run("GET returns ok", func(t *testing.T) {
		resp, err := http.Get(ts.URL + HealthPath)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", string(body))
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
		assert.NotEmpty(t, resp.Header.Get(CorrelationIDHeader))
	})

	t.Run("HEAD returns no body", func(t *testing.T) {
		resp, err := http.Head(ts.URL + HealthPath)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body)
	})

	t.Run("POST is not allowed", func(t *testing.T) {
		resp, err := http.Post(ts.URL+HealthPath, "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not found"}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		ts := newTestServer(t, Config{MetricsEnabled: true}, nil)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "go_goroutines")
	})

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, Config{MetricsEnabled: false}, nil)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMCPEndpoint(t *testing.T) {
	tools := mcpserver.New(mcpserver.Config{Version: "test"}, stubSource{}, nil, zerolog.Nop())
	ts := newTestServer(t, Config{MCPPath: tools.EndpointPath()}, tools.Handler())

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"search"`)
	assert.Contains(t, string(data), `"fetch"`)
}

func TestServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := NewServer(Config{Address: addr}, nil, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + HealthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	srv := NewServer(Config{Address: addr, ShutdownTimeout: 50 * time.Millisecond}, slow, zerolog.Nop())
	go func() { _ = srv.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + HealthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	go func() {
		resp, err := http.Post("http://"+addr+"/mcp", "application/json", strings.NewReader("{}"))
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	start := time.Now()
	err = srv.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
