package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/hub"
	"github.com/nfrund/shellbus/internal/topic"
	"github.com/nfrund/shellbus/internal/topicmgr"
	"github.com/nfrund/shellbus/internal/topics"
	"github.com/nfrund/shellbus/internal/transport"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	promReg := prometheus.NewRegistry()
	h := hub.NewHub(hub.NewMetrics(promReg))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	catalog := topicmgr.NewManager()
	require.NoError(t, topics.Register(catalog))

	s := New(h, catalog, promReg)
	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-h.Done()
	})
	return s, ts
}

func dialRelay(t *testing.T, ts *httptest.Server) *transport.WebSocket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	relay, err := transport.DialWebSocket(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws")
	require.NoError(t, err)
	t.Cleanup(func() { _ = relay.Close() })
	return relay
}

func TestHub_RelaysBetweenRegistries(t *testing.T) {
	_, ts := newTestServer(t)

	shell := channel.NewRegistry(channel.WithRelay(dialRelay(t, ts)))
	defer shell.Close()
	mfe := channel.NewRegistry(channel.WithRelay(dialRelay(t, ts)))
	defer mfe.Close()

	consumer := topics.CurrentThemeTopic.Topic(mfe)
	defer consumer.Destroy()
	publisher := topics.CurrentThemeTopic.Publisher(shell)
	defer publisher.Destroy()

	// Subscriptions reach the hub asynchronously; republishing the same
	// value until it arrives is harmless.
	require.Eventually(t, func() bool {
		if err := publisher.Publish(context.Background(), topics.Theme{Name: "dark"}); err != nil {
			return false
		}
		v, ok := consumer.Value()
		return ok && v.Name == "dark"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestHub_LateJoinerRecoversThroughHub(t *testing.T) {
	s, ts := newTestServer(t)

	shell := channel.NewRegistry(channel.WithRelay(dialRelay(t, ts)))
	defer shell.Close()
	publisher := topics.UserProfileTopic.Publisher(shell)
	require.NoError(t, publisher.Publish(context.Background(), topics.UserProfile{UserID: "u-1"}))

	// The holder must be subscribed at the hub before the sync request.
	require.Eventually(t, func() bool {
		return s.hub.Stats().Channels == 1
	}, 2*time.Second, 10*time.Millisecond)

	mfe := channel.NewRegistry(channel.WithRelay(dialRelay(t, ts)))
	defer mfe.Close()
	late := topics.UserProfileTopic.Topic(mfe)
	defer late.Destroy()

	select {
	case <-late.Synchronized():
	case <-time.After(3 * time.Second):
		t.Fatalf("late joiner stuck in state %s", late.State())
	}
	v, _ := late.Value()
	assert.Equal(t, "u-1", v.UserID)
	assert.Equal(t, topic.StateSynchronized, late.State())
}

func TestRoutes_Topics(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var defs []topicmgr.Definition
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
		assert.Len(t, defs, len(topics.All()))
	})

	t.Run("match", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics?match=current*", nil))

		var defs []topicmgr.Definition
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
		assert.Len(t, defs, 5)
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/events/1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var def topicmgr.Definition
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
		assert.Equal(t, "events", def.Name)
		assert.False(t, def.ReplayLast)
	})

	t.Run("unknown version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/events/2", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/events/one", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/conflicts", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shellbus_hub_subscribers")
}

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)
	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, `error="a deliberate unhandled error occurred"`)
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	s := New(hub.NewHub(nil), topicmgr.NewManager(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRoutes_WebSocketConnectRate(t *testing.T) {
	s := New(hub.NewHub(nil), topicmgr.NewManager(), nil, WithConnectRate(1))

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUpgradeRequired, get(), "a plain GET reaches the upgrade handler")
	assert.Equal(t, http.StatusTooManyRequests, get())
}
