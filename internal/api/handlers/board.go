// Package handlers implements the admin HTTP surface's request handlers:
// task submission and the board's read-mostly diagnostic endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightfield/tboard/internal/board"
	"github.com/brightfield/tboard/internal/logger"
	"github.com/brightfield/tboard/internal/task"
)

// BoardHandler handles task-board HTTP requests: submitting work and
// reading back board state for diagnostics.
type BoardHandler struct {
	board *board.Board
}

// NewBoardHandler constructs a BoardHandler over b.
func NewBoardHandler(b *board.Board) *BoardHandler {
	return &BoardHandler{board: b}
}

// submitRequest is the JSON body for POST /admin/tasks.
type submitRequest struct {
	FuncName string `json:"func_name"`
	Args     any    `json:"args,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Submit handles POST /admin/tasks.
func (h *BoardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FuncName == "" {
		respondError(w, http.StatusBadRequest, "func_name is required")
		return
	}

	t, err := h.board.Submit(req.FuncName, req.Args, task.ParsePriority(req.Priority))
	if err != nil {
		logger.Error().Err(err).Str("func", req.FuncName).Msg("failed to submit task")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// Status handles GET /admin/board.
func (h *BoardHandler) Status(w http.ResponseWriter, r *http.Request) {
	primary, secondaries := h.board.QueueDepths()
	respondJSON(w, http.StatusOK, map[string]any{
		"concurrent":       h.board.ConcurrentCount(),
		"primary_depth":    primary,
		"secondary_depths": secondaries,
		"history_len":      h.board.History().Len(),
	})
}

// Health handles GET /admin/health.
func (h *BoardHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// Registry handles GET /admin/registry.
func (h *BoardHandler) Registry(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"functions": h.board.Registry().Names()})
}

// History handles GET /admin/history.
func (h *BoardHandler) History(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.History().Snapshot())
}

// PendingCalls handles GET /admin/calls.
func (h *BoardHandler) PendingCalls(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.PendingCalls())
}

// GetCall handles GET /admin/calls/{callID}.
func (h *BoardHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		respondError(w, http.StatusBadRequest, "call ID is required")
		return
	}
	for _, rt := range h.board.PendingCalls() {
		if rt.CallID == callID {
			respondJSON(w, http.StatusOK, rt)
			return
		}
	}
	respondError(w, http.StatusNotFound, "call not found")
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
