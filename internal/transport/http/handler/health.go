package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LiveCounter reports how many notifications are live.
type LiveCounter interface {
	Len() int
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	live LiveCounter
}

// ReadyEnvelope is returned by the ready action.
type ReadyEnvelope struct {
	Message string `json:"message"`
	Live    int    `json:"live"`
}

func NewHealthHandler(live LiveCounter) *HealthHandler { return &HealthHandler{live: live} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "ready":
		writeJSON(w, http.StatusOK, ReadyEnvelope{Message: "ok", Live: h.live.Len()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
