// Package testbus provides test utilities for the event bus.
// It wraps a real EventBus with event recording and assertion helpers.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-notifyd/internal/events"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   events.Event
	Payload any
}

// Bus wraps a real EventBus with event recording for tests.
type Bus struct {
	*events.EventBus
	cancel context.CancelFunc

	mu     sync.Mutex
	events []RecordedEvent
}

// New creates a test bus, starts it in a background goroutine, and
// subscribes to all event types for recording. The bus is stopped
// when the test completes.
func New(t *testing.T) *Bus {
	t.Helper()

	bus := events.New(64)
	ctx, cancel := context.WithCancel(context.Background())

	tb := &Bus{
		EventBus: bus,
		cancel:   cancel,
	}

	bus.SubscribeNotificationCreated(func(p events.NotificationCreatedPayload) {
		tb.record(events.EventNotificationCreated, p)
	})
	bus.SubscribeNotificationClosed(func(p events.NotificationClosedPayload) {
		tb.record(events.EventNotificationClosed, p)
	})

	go bus.Start(ctx)

	t.Cleanup(func() {
		cancel()
	})

	return tb
}

func (tb *Bus) record(event events.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
}

// Events returns a copy of all recorded events.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	out := make([]RecordedEvent, len(tb.events))
	copy(out, tb.events)
	return out
}

// Closed returns the recorded NotificationClosed payloads in arrival order.
func (tb *Bus) Closed() []events.NotificationClosedPayload {
	var out []events.NotificationClosedPayload
	for _, e := range tb.Events() {
		if p, ok := e.Payload.(events.NotificationClosedPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

// Created returns the recorded NotificationCreated payloads in arrival order.
func (tb *Bus) Created() []events.NotificationCreatedPayload {
	var out []events.NotificationCreatedPayload
	for _, e := range tb.Events() {
		if p, ok := e.Payload.(events.NotificationCreatedPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

// Reset clears all recorded events.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor blocks until an event of the given type is recorded or the timeout expires.
// Returns true if the event was found.
func (tb *Bus) WaitFor(event events.Event, timeout time.Duration) bool {
	return tb.WaitForCount(event, 1, timeout)
}

// WaitForCount blocks until at least n events of the given type are recorded
// or the timeout expires.
func (tb *Bus) WaitForCount(event events.Event, n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if tb.count(event) >= n {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

func (tb *Bus) count(event events.Event) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	n := 0
	for _, e := range tb.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// AssertPublished asserts that an event of the given type was recorded.
func (tb *Bus) AssertPublished(t *testing.T, event events.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished asserts that an event of the given type was NOT recorded
// within the given wait period.
func (tb *Bus) AssertNotPublished(t *testing.T, event events.Event, wait time.Duration) {
	t.Helper()
	time.Sleep(wait)
	if tb.count(event) > 0 {
		t.Errorf("expected event %q to NOT be published, but it was", event)
	}
}
