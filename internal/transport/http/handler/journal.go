package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-notifyd/internal/infrastructure/dynamo"
	"github.com/rs/zerolog"
)

const (
	defaultJournalLimit = 20
	maxJournalLimit     = 100
)

// JournalReader reads recent closures for an application.
type JournalReader interface {
	Recent(ctx context.Context, appName string, limit int32) ([]dynamo.Entry, error)
}

// JournalHandler serves the closure history of an application.
type JournalHandler struct {
	journal JournalReader
	log     zerolog.Logger
}

func NewJournalHandler(journal JournalReader, logger zerolog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, log: logger}
}

func (h *JournalHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJournalLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(r.Context(), chi.URLParam(r, "app"), int32(limit))
	if err != nil {
		h.log.Error().Err(err).Msg("journal query failed")
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
