package domain

// Reason is the closure code carried by NotificationClosed.
type Reason uint32

const (
	ReasonExpired   Reason = 1
	ReasonDismissed Reason = 2
	ReasonClosed    Reason = 3
	ReasonUndefined Reason = 4
)

// String returns a human-readable description used in logs.
func (r Reason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonDismissed:
		return "dismissed by user"
	case ReasonClosed:
		return "closed by CloseNotification"
	default:
		return "undefined reason"
	}
}

// Valid reports whether r is one of the four protocol codes.
func (r Reason) Valid() bool {
	return r >= ReasonExpired && r <= ReasonUndefined
}
