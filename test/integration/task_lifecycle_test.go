//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightfield/tboard/internal/api"
	"github.com/brightfield/tboard/internal/board"
	"github.com/brightfield/tboard/internal/config"
	"github.com/brightfield/tboard/internal/events"
	"github.com/brightfield/tboard/internal/logger"
	"github.com/redis/go-redis/v9"
)

func init() {
	logger.Init("error", false)
}

func setupTestServer(t *testing.T) (*api.Server, *board.Board, func()) {
	cfg := &config.Config{
		Board: config.BoardConfig{
			MaxTasks:      256,
			HistorySize:   64,
			QueueCapacity: 0,
			CallTimeout:   2 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	b, err := board.New(board.Config{
		Secondaries:   2,
		MaxTasks:      cfg.Board.MaxTasks,
		HistorySize:   cfg.Board.HistorySize,
		QueueCapacity: cfg.Board.QueueCapacity,
		Log:           *logger.Get(),
	})
	require.NoError(t, err)

	require.NoError(t, b.Registry().Register("echo", func(args any) (any, error) {
		return args, nil
	}, "echo(args) -> args", false))

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	publisher := events.NewRedisPubSub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Start(ctx))

	server := api.NewServer(cfg, b, publisher)

	cleanup := func() {
		cancel()
		b.Destroy()
		_ = publisher.Close()
		rdb.FlushDB(context.Background())
		_ = rdb.Close()
	}

	return server, b, cleanup
}

func TestTaskLifecycle_SubmitAndInspect(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]any{
		"func_name": "echo",
		"args":      map[string]any{"key": "value"},
		"priority":  "primary",
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "echo", created["func_name"])

	// give the board's worker a moment to drain the primary queue
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/admin/board", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		var status map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &status)
		depth, _ := status["primary_depth"].(float64)
		return depth == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTaskLifecycle_UnknownFunction(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]any{"func_name": "does-not-exist"})

	req := httptest.NewRequest(http.MethodPost, "/admin/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskLifecycle_MissingFuncName(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]any{})

	req := httptest.NewRequest(http.MethodPost, "/admin/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints_Health(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/admin/health", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestAdminEndpoints_Registry(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/admin/registry", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "functions")
}

func TestAdminEndpoints_PendingCalls(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/admin/calls", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var calls []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &calls))
	assert.Empty(t, calls)
}

func TestAdminEndpoints_UnknownCall(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/admin/calls/does-not-exist", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBoard_StartStop(t *testing.T) {
	b, err := board.New(board.Config{
		Secondaries: 1,
		MaxTasks:    64,
		HistorySize: 16,
		Log:         *logger.Get(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.Start(ctx))

	b.Kill()
	b.Destroy()
}
