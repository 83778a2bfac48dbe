package events

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log all signal activity.
// Publishes and subscriptions are logged at debug level, drops as warnings
// and subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		switch p := payload.(type) {
		case NotificationCreatedPayload:
			e = e.Uint32("id", p.ID).Bool("replaced", p.Replaced)
		case NotificationClosedPayload:
			e = e.Uint32("id", p.ID).Str("reason", p.Reason.String())
		}
		e.Msg("signal emitted")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("signal dropped: buffer full")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Debug().Str("event", string(event)).Msg("subscriber attached")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
