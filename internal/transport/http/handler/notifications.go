package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-notifyd/internal/application/notification"
	"github.com/go-notifyd/internal/domain"
	"github.com/rs/zerolog"
)

// defaultExpireTimeout is used when a Notify body omits expire_timeout.
const defaultExpireTimeout int32 = -1

// NotifyBody is the JSON body of POST /v1/notifications.
type NotifyBody struct {
	AppName       string         `json:"app_name"`
	ReplacesID    uint32         `json:"replaces_id"`
	AppIcon       string         `json:"app_icon"`
	Summary       string         `json:"summary"`
	Body          string         `json:"body"`
	Actions       []string       `json:"actions"`
	Hints         map[string]any `json:"hints"`
	ExpireTimeout *int32         `json:"expire_timeout"`
}

// NotificationHandler serves the notification methods of the RPC surface.
type NotificationHandler struct {
	svc notification.Service
	log zerolog.Logger
}

func NewNotificationHandler(svc notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: logger}
}

func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body NotifyBody
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := h.svc.Notify(r.Context(), h.toRequest(body))
	writeJSON(w, http.StatusOK, IDEnvelope{ID: id})
}

func (h *NotificationHandler) toRequest(body NotifyBody) domain.NotifyRequest {
	timeout := defaultExpireTimeout
	if body.ExpireTimeout != nil {
		timeout = *body.ExpireTimeout
	}

	urgency := domain.UrgencyUnspecified
	if raw, ok := body.Hints["urgency"]; ok {
		u, known := domain.ParseUrgency(raw)
		if !known {
			h.log.Debug().Interface("urgency", raw).Str("app_name", body.AppName).Msg("unknown urgency hint")
		}
		urgency = u
	}

	return domain.NotifyRequest{
		AppName:       body.AppName,
		ReplacesID:    body.ReplacesID,
		AppIcon:       body.AppIcon,
		Summary:       body.Summary,
		Body:          body.Body,
		Actions:       body.Actions,
		Urgency:       urgency,
		ExpireTimeout: timeout,
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpError(w, err)
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Close implements CloseNotification.
func (h *NotificationHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, domain.ReasonClosed)
}

// Dismiss implements DismissNotification.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, domain.ReasonDismissed)
}

func (h *NotificationHandler) close(w http.ResponseWriter, r *http.Request, reason domain.Reason) {
	id, err := pathID(r)
	if err != nil {
		httpError(w, err)
		return
	}
	if !h.svc.Close(r.Context(), id, reason) {
		writeJSON(w, http.StatusOK, CloseEnvelope{ID: id, Message: "notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, CloseEnvelope{ID: id, Closed: true, Message: reason.String()})
}

func (h *NotificationHandler) Capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Capabilities())
}

func (h *NotificationHandler) ServerInformation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ServerInformation())
}

func pathID(r *http.Request) (uint32, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid notification id %q: %w", raw, domain.ErrBadRequest)
	}
	return uint32(id), nil
}
