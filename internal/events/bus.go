package events

import (
	"context"
	"sync"
	"time"

	"github.com/go-notifyd/internal/pkg/id"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus is a buffered, asynchronous bus. Publishing never blocks: when the
// buffer is full the event is dropped and the OnDrop hooks fire. A single
// dispatcher goroutine (Start) delivers events to subscribers in order.
type EventBus struct {
	ch chan envelope

	mu     sync.RWMutex
	nextID uint64
	subs   map[Event]map[uint64]func(any)

	hooks hooks
}

// New creates a bus with the given buffer size.
func New(bufferSize int) *EventBus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &EventBus{
		ch:   make(chan envelope, bufferSize),
		subs: make(map[Event]map[uint64]func(any)),
	}
}

// Start dispatches queued events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

// PublishNotificationCreated enqueues a NotificationCreated signal.
func (bus *EventBus) PublishNotificationCreated(p NotificationCreatedPayload) {
	p.EventID, p.At = stamp(p.EventID, p.At)
	bus.send(EventNotificationCreated, p)
}

// PublishNotificationClosed enqueues a NotificationClosed signal.
func (bus *EventBus) PublishNotificationClosed(p NotificationClosedPayload) {
	p.EventID, p.At = stamp(p.EventID, p.At)
	bus.send(EventNotificationClosed, p)
}

// SubscribeNotificationCreated registers fn and returns a function that removes it.
func (bus *EventBus) SubscribeNotificationCreated(fn func(NotificationCreatedPayload)) func() {
	return bus.subscribe(EventNotificationCreated, func(p any) {
		fn(p.(NotificationCreatedPayload))
	})
}

// SubscribeNotificationClosed registers fn and returns a function that removes it.
func (bus *EventBus) SubscribeNotificationClosed(fn func(NotificationClosedPayload)) func() {
	return bus.subscribe(EventNotificationClosed, func(p any) {
		fn(p.(NotificationClosedPayload))
	})
}

func (bus *EventBus) subscribe(event Event, fn func(any)) func() {
	bus.mu.Lock()
	bus.nextID++
	key := bus.nextID
	if bus.subs[event] == nil {
		bus.subs[event] = make(map[uint64]func(any))
	}
	bus.subs[event][key] = fn
	bus.mu.Unlock()

	bus.runOnSubscribe(event)

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.mu.Lock()
			delete(bus.subs[event], key)
			bus.mu.Unlock()
		})
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	fns := make([]func(any), 0, len(bus.subs[env.event]))
	for _, fn := range bus.subs[env.event] {
		fns = append(fns, fn)
	}
	bus.mu.RUnlock()

	for _, fn := range fns {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

func stamp(eventID string, at time.Time) (string, time.Time) {
	if eventID == "" {
		eventID = id.New()
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return eventID, at
}
