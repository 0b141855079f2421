// Package client is a small Go SDK for the tboard admin HTTP+WebSocket
// surface: submitting work to a running board and reading back its
// diagnostic state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BoardClient talks to a single board's admin HTTP API.
type BoardClient struct {
	baseURL string
	opts    *options
	ws      *WebSocketClient
}

// New creates a BoardClient pointed at baseURL (e.g. "http://localhost:8090").
func New(baseURL string, opts ...Option) (*BoardClient, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: baseURL is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &BoardClient{baseURL: baseURL, opts: o}, nil
}

// SubmitTaskRequest is the body of a task submission.
type SubmitTaskRequest struct {
	FuncName string `json:"func_name"`
	Args     any    `json:"args,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Task mirrors the board's JSON task representation.
type Task struct {
	ID        int64  `json:"id"`
	FuncName  string `json:"func_name"`
	Priority  int    `json:"priority"` // 0 primary, 1 secondary
	CreatedAt string `json:"created_at"`
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BoardStatus is the response of GET /admin/board.
type BoardStatus struct {
	Concurrent      int   `json:"concurrent"`
	PrimaryDepth    int   `json:"primary_depth"`
	SecondaryDepths []int `json:"secondary_depths"`
	HistoryLen      int   `json:"history_len"`
}

// SubmitTask submits work to the board and returns the created task.
func (c *BoardClient) SubmitTask(ctx context.Context, req SubmitTaskRequest) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/admin/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Status returns the board's current queue depths and concurrency count.
func (c *BoardClient) Status(ctx context.Context) (*BoardStatus, error) {
	var s BoardStatus
	if err := c.do(ctx, http.MethodGet, "/admin/board", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RegisteredFunctions lists the board's registered function names.
func (c *BoardClient) RegisteredFunctions(ctx context.Context) ([]string, error) {
	var resp struct {
		Functions []string `json:"functions"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/registry", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Functions, nil
}

// History returns the board's recent history entries.
func (c *BoardClient) History(ctx context.Context) ([]map[string]any, error) {
	var entries []map[string]any
	if err := c.do(ctx, http.MethodGet, "/admin/history", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PendingCalls returns the board's in-flight remote calls.
func (c *BoardClient) PendingCalls(ctx context.Context) ([]map[string]any, error) {
	var calls []map[string]any
	if err := c.do(ctx, http.MethodGet, "/admin/calls", nil, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Call returns a single pending remote call by its call id.
func (c *BoardClient) Call(ctx context.Context, callID string) (map[string]any, error) {
	var call map[string]any
	if err := c.do(ctx, http.MethodGet, "/admin/calls/"+callID, nil, &call); err != nil {
		return nil, err
	}
	return call, nil
}

// CheckHealth checks the health of the board's admin server.
func (c *BoardClient) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/admin/health", nil, nil)
}

// ConnectWebSocket establishes a WebSocket connection for real-time board events.
func (c *BoardClient) ConnectWebSocket(ctx context.Context) error {
	if c.ws != nil && c.ws.IsConnected() {
		return nil
	}
	c.ws = newWebSocketClient(c.baseURL, c.opts.apiKey)
	return c.ws.Connect(ctx)
}

// Events returns a channel that receives WebSocket events. ConnectWebSocket
// must be called first.
func (c *BoardClient) Events() <-chan *Event {
	if c.ws == nil {
		ch := make(chan *Event)
		close(ch)
		return ch
	}
	return c.ws.Events()
}

// CloseWebSocket closes the WebSocket connection.
func (c *BoardClient) CloseWebSocket() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

// SubscribeEvents subscribes to specific event types over the WebSocket.
func (c *BoardClient) SubscribeEvents(eventTypes ...EventType) error {
	if c.ws == nil {
		return fmt.Errorf("websocket not connected")
	}
	return c.ws.Subscribe(eventTypes...)
}

func (c *BoardClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.opts.applyHeaders(req); err != nil {
		return err
	}

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Message != "" {
			return fmt.Errorf("client: %s %s: %d %s", method, path, resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("client: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
