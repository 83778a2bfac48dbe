package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events"
	"github.com/rs/zerolog"
)

const (
	ServerName  = "notifyd"
	Vendor      = "freedesktop.org"
	SpecVersion = "1.2"
)

var capabilities = []string{"body", "persistence"}

// Store is the keyed container the lifecycle service and sweeper work on.
type Store interface {
	InsertNew(n domain.Notification) uint32
	Replace(id uint32, n domain.Notification) uint32
	Remove(id uint32) (domain.Notification, bool)
	Get(id uint32) (domain.Notification, bool)
	Snapshot() map[uint32]domain.Notification
	ExpiredIDs(now time.Time) []uint32
}

// Publisher emits outbound signals. Implementations must not block.
type Publisher interface {
	PublishNotificationCreated(p events.NotificationCreatedPayload)
	PublishNotificationClosed(p events.NotificationClosedPayload)
}

type Service interface {
	Notify(ctx context.Context, req domain.NotifyRequest) uint32
	Close(ctx context.Context, id uint32, reason domain.Reason) bool
	Get(ctx context.Context, id uint32) (*domain.Notification, error)
	List(ctx context.Context) map[uint32]domain.Notification
	Capabilities() []string
	ServerInformation() domain.ServerInfo
}

// ServiceDeps groups the collaborators of the lifecycle service.
type ServiceDeps struct {
	Store     Store
	Publisher Publisher
	Policy    domain.Policy
	Version   string
	Logger    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	store   Store
	pub     Publisher
	policy  domain.Policy
	version string
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:   deps.Store,
		pub:     deps.Publisher,
		policy:  deps.Policy,
		version: deps.Version,
		log:     deps.Logger,
		now:     now,
	}
}

// Notify stores the request as a new record, or over the record named by
// ReplacesID, and emits NotificationCreated. It never fails.
func (s *service) Notify(ctx context.Context, req domain.NotifyRequest) uint32 {
	now := s.now()
	if req.ExpireTimeout < 0 && req.Urgency == domain.UrgencyUnspecified {
		s.log.Debug().Ctx(ctx).
			Str("app_name", req.AppName).
			Dur("timeout", s.policy.LowTimeout).
			Msg("unknown urgency, using low urgency default timeout")
	}

	n := domain.Notification{
		AppName:   req.AppName,
		AppIcon:   req.AppIcon,
		Summary:   req.Summary,
		Body:      req.Body,
		Actions:   req.Actions,
		Urgency:   req.Urgency,
		CreatedAt: now,
		ExpiresAt: s.policy.ExpiresAt(now, req.ExpireTimeout, req.Urgency),
	}

	var id uint32
	if req.ReplacesID == 0 {
		id = s.store.InsertNew(n)
	} else {
		id = s.store.Replace(req.ReplacesID, n)
	}

	s.pub.PublishNotificationCreated(events.NotificationCreatedPayload{
		ID:       id,
		Replaced: req.ReplacesID != 0,
	})
	s.log.Debug().Ctx(ctx).Uint32("id", id).Str("app_name", req.AppName).Msg("created notification")
	return id
}

// Close removes id and emits NotificationClosed with reason. Closing an id
// that is not live is a no-op; the return value reports whether anything was
// removed.
func (s *service) Close(ctx context.Context, id uint32, reason domain.Reason) bool {
	n, ok := s.store.Remove(id)
	if !ok {
		s.log.Warn().Ctx(ctx).Uint32("id", id).Msg("tried to close non-existent notification")
		return false
	}

	s.pub.PublishNotificationClosed(events.NotificationClosedPayload{
		ID:           id,
		Reason:       reason,
		Notification: n,
	})
	s.log.Debug().Ctx(ctx).Uint32("id", id).Msgf("notification %s", reason)
	return true
}

func (s *service) Get(_ context.Context, id uint32) (*domain.Notification, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	return &n, nil
}

func (s *service) List(_ context.Context) map[uint32]domain.Notification {
	return s.store.Snapshot()
}

func (s *service) Capabilities() []string {
	out := make([]string, len(capabilities))
	copy(out, capabilities)
	return out
}

func (s *service) ServerInformation() domain.ServerInfo {
	return domain.ServerInfo{
		Name:        ServerName,
		Vendor:      Vendor,
		Version:     s.version,
		SpecVersion: SpecVersion,
	}
}
