// Package http provides the HTTP adapter for the dashboard API.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentpulse/agentpulse/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	State     *service.StateService
	Chat      *service.ChatService
	Lifecycle *service.LifecycleService
	Observers func() int
}

// MountRoutes registers the dashboard API routes.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/api/state", h.handleState)
	r.Post("/api/chat", h.handleChat)
	r.Post("/api/status", h.handleAnnounce)
	r.Get("/health", h.handleHealth)
}

// handleState returns the current full state snapshot.
func (h *Handlers) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.State.Snapshot())
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	OK     bool `json:"ok"`
	Queued bool `json:"queued"`
}

// handleChat admits a user message. The queued flag tells the observer
// UI whether delivery waits for the agent to become free.
func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chatRequest](w, r)
	if !ok {
		return
	}

	queued, err := h.Chat.Submit(r.Context(), req.Message)
	if err != nil {
		writeAdmissionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{OK: true, Queued: queued})
}

type announceRequest struct {
	Status string `json:"status"`
}

// handleAnnounce sets the free-form status line.
func (h *Handlers) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[announceRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	h.Lifecycle.Announce(r.Context(), req.Status)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleHealth reports service health and the current observer count.
func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	type healthStatus struct {
		Status      string `json:"status"`
		AgentStatus string `json:"agent_status"`
		Observers   int    `json:"observers"`
	}

	observers := 0
	if h.Observers != nil {
		observers = h.Observers()
	}
	writeJSON(w, http.StatusOK, healthStatus{
		Status:      "ok",
		AgentStatus: string(h.State.Snapshot().Status),
		Observers:   observers,
	})
}
