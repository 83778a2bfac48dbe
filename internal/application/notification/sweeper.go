package notification

import (
	"context"
	"time"

	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events"
	"github.com/rs/zerolog"
)

// Sweeper retires expired notifications and turns each retirement into a
// NotificationClosed signal with reason Expired.
type Sweeper struct {
	store    Store
	pub      Publisher
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewSweeper(store Store, pub Publisher, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		pub:      pub,
		interval: interval,
		log:      logger,
		now:      time.Now,
	}
}

// Sweep runs a single pass and returns how many records it retired. An id
// that disappears between detection and removal was closed explicitly in the
// meantime and is skipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	ids := s.store.ExpiredIDs(s.now())
	retired := 0
	for _, id := range ids {
		n, ok := s.store.Remove(id)
		if !ok {
			continue
		}
		s.pub.PublishNotificationClosed(events.NotificationClosedPayload{
			ID:           id,
			Reason:       domain.ReasonExpired,
			Notification: n,
		})
		retired++
	}
	if retired > 0 {
		s.log.Debug().Ctx(ctx).Int("count", retired).Msg("expired notifications retired")
	}
	return retired
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
