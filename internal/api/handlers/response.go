package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// respondProviderError maps a client error to a gateway response.
func respondProviderError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Message: err.Error()}

	var apiErr *anticaptcha.APIError
	if errors.As(err, &apiErr) {
		resp.Code = apiErr.Code
	}

	status := errorStatus(err)
	resp.Error = http.StatusText(status)
	respondJSON(w, status, resp)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, anticaptcha.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, anticaptcha.ErrAntiCaptcha):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
