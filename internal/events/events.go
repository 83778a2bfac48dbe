// Package events provides the typed publish/subscribe bus that carries
// notifyd's outbound signals to every interested sink.
package events

import (
	"time"

	"github.com/go-notifyd/internal/domain"
)

// Event names a signal kind.
type Event string

const (
	EventNotificationClosed  Event = "notification.closed"
	EventNotificationCreated Event = "notification.created"
)

// Signal returns the protocol signal name for the event.
func (e Event) Signal() string {
	switch e {
	case EventNotificationClosed:
		return "NotificationClosed"
	case EventNotificationCreated:
		return "NotificationCreated"
	default:
		return string(e)
	}
}

// NotificationCreatedPayload is emitted when Notify stores a record.
type NotificationCreatedPayload struct {
	EventID  string    `json:"event_id"`
	At       time.Time `json:"at"`
	ID       uint32    `json:"id"`
	Replaced bool      `json:"replaced"`
}

// NotificationClosedPayload is emitted exactly once per destroyed record.
// Notification holds the record as it was when it was removed.
type NotificationClosedPayload struct {
	EventID      string              `json:"event_id"`
	At           time.Time           `json:"at"`
	ID           uint32              `json:"id"`
	Reason       domain.Reason       `json:"reason"`
	Notification domain.Notification `json:"-"`
}
