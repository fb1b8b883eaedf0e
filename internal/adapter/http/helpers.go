package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAdmissionError maps admission sentinels to their status codes.
func writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty message")
	case errors.Is(err, dashboard.ErrAgentNotReady):
		writeError(w, http.StatusServiceUnavailable, "agent not ready")
	default:
		slog.Error("unhandled admission error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
