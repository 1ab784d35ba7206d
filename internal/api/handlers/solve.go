package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/solver"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

const maxImageRequestBytes = 10 << 20

// Solver is what the gateway needs from the solve service.
type Solver interface {
	SolveImage(ctx context.Context, body string, opts *anticaptcha.TaskOptions) (*solver.Result, error)
	Balance(ctx context.Context) (float64, error)
	TaskResult(ctx context.Context, id anticaptcha.TaskID) (*anticaptcha.TaskResult, error)
}

// SolveRequest is the body of POST /api/v1/solve
type SolveRequest struct {
	Image   string                   `json:"image"`
	Options *anticaptcha.TaskOptions `json:"options,omitempty"`
}

// SolveHandler handles captcha solving requests
type SolveHandler struct {
	solver Solver
}

// NewSolveHandler creates a new solve handler
func NewSolveHandler(s Solver) *SolveHandler {
	return &SolveHandler{solver: s}
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageRequestBytes)

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	if _, err := base64.StdEncoding.DecodeString(req.Image); err != nil {
		respondError(w, http.StatusBadRequest, "image must be base64 encoded")
		return
	}

	result, err := h.solver.SolveImage(r.Context(), req.Image, req.Options)
	if err != nil {
		respondProviderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// TaskResult handles GET /api/v1/tasks/{taskID}
func (h *SolveHandler) TaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "task ID is required")
		return
	}

	result, err := h.solver.TaskResult(r.Context(), anticaptcha.ParseTaskID(taskID))
	if err != nil {
		logger.Warn().Err(err).Str("task_id", taskID).Msg("failed to get task result")
		respondProviderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Balance handles GET /api/v1/balance
func (h *SolveHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.solver.Balance(r.Context())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to get balance")
		respondProviderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}
