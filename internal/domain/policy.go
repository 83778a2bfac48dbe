package domain

import "time"

// Policy holds the urgency defaults applied when a client asks for the server
// default timeout.
type Policy struct {
	NormalTimeout time.Duration
	LowTimeout    time.Duration
}

// DefaultPolicy returns the stock defaults: two minutes for normal urgency and
// one minute for low or unspecified urgency.
func DefaultPolicy() Policy {
	return Policy{
		NormalTimeout: 120 * time.Second,
		LowTimeout:    60 * time.Second,
	}
}

// ResolveExpiry turns a requested timeout in milliseconds into a lifetime.
// ok is false when the notification never expires.
//
//   - 0 never expires.
//   - positive values are taken literally.
//   - negative values select the urgency default; critical never expires and
//     low or unspecified urgency share the short default.
func (p Policy) ResolveExpiry(timeoutMS int32, urgency Urgency) (d time.Duration, ok bool) {
	switch {
	case timeoutMS == 0:
		return 0, false
	case timeoutMS > 0:
		return time.Duration(timeoutMS) * time.Millisecond, true
	}

	switch urgency {
	case UrgencyCritical:
		return 0, false
	case UrgencyNormal:
		return p.NormalTimeout, true
	default:
		return p.LowTimeout, true
	}
}

// ExpiresAt returns the absolute expiry for a notification accepted at now,
// or nil when it never expires.
func (p Policy) ExpiresAt(now time.Time, timeoutMS int32, urgency Urgency) *time.Time {
	d, ok := p.ResolveExpiry(timeoutMS, urgency)
	if !ok {
		return nil
	}
	t := now.Add(d)
	return &t
}

// IsExpired reports whether n has reached its expiry at now.
func IsExpired(n Notification, now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}
