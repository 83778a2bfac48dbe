package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-notifyd/internal/events"
	"github.com/rs/zerolog"
)

const (
	signalBuffer      = 64
	keepaliveInterval = 15 * time.Second
)

// SignalSource is the subset of the event bus the stream subscribes to.
type SignalSource interface {
	SubscribeNotificationCreated(fn func(events.NotificationCreatedPayload)) func()
	SubscribeNotificationClosed(fn func(events.NotificationClosedPayload)) func()
}

type frame struct {
	event string
	id    string
	data  []byte
}

// SignalHandler streams outbound signals as server-sent events.
type SignalHandler struct {
	bus SignalSource
	log zerolog.Logger
}

func NewSignalHandler(bus SignalSource, logger zerolog.Logger) *SignalHandler {
	return &SignalHandler{bus: bus, log: logger}
}

// Stream writes one SSE frame per signal until the client goes away. A
// client that cannot keep up loses frames; the bus dispatcher never waits.
func (h *SignalHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	frames := make(chan frame, signalBuffer)
	offer := func(event events.Event, id string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			h.log.Error().Err(err).Str("signal", event.Signal()).Msg("encode signal")
			return
		}
		select {
		case frames <- frame{event: event.Signal(), id: id, data: data}:
		default:
			h.log.Warn().Str("signal", event.Signal()).Msg("slow signal client, dropping frame")
		}
	}

	offCreated := h.bus.SubscribeNotificationCreated(func(p events.NotificationCreatedPayload) {
		offer(events.EventNotificationCreated, p.EventID, p)
	})
	defer offCreated()
	offClosed := h.bus.SubscribeNotificationClosed(func(p events.NotificationClosedPayload) {
		offer(events.EventNotificationClosed, p.EventID, p)
	})
	defer offClosed()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case f := <-frames:
			if _, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", f.event, f.id, f.data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
