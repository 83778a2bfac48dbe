package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Urgency is the priority class a client attaches through the "urgency" hint.
type Urgency uint8

const (
	UrgencyUnspecified Urgency = iota
	UrgencyLow
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unspecified"
	}
}

func (u Urgency) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Urgency) UnmarshalText(b []byte) error {
	*u, _ = ParseUrgency(string(b))
	return nil
}

// ParseUrgency maps a wire hint value onto the closed Urgency set. Numbers use
// the desktop protocol encoding (0 low, 1 normal, 2 critical); strings are the
// level names. Anything else yields UrgencyUnspecified and ok=false.
func ParseUrgency(v any) (u Urgency, ok bool) {
	switch val := v.(type) {
	case nil:
		return UrgencyUnspecified, false
	case Urgency:
		return val, val != UrgencyUnspecified
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "low", "0":
			return UrgencyLow, true
		case "normal", "1":
			return UrgencyNormal, true
		case "critical", "2":
			return UrgencyCritical, true
		}
		return UrgencyUnspecified, false
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return UrgencyUnspecified, false
		}
		return urgencyFromNumber(f)
	case float64:
		return urgencyFromNumber(val)
	case float32:
		return urgencyFromNumber(float64(val))
	case int:
		return urgencyFromNumber(float64(val))
	case int32:
		return urgencyFromNumber(float64(val))
	case int64:
		return urgencyFromNumber(float64(val))
	case uint8:
		return urgencyFromNumber(float64(val))
	case uint32:
		return urgencyFromNumber(float64(val))
	}
	return UrgencyUnspecified, false
}

func urgencyFromNumber(f float64) (Urgency, bool) {
	if f != math.Trunc(f) {
		return UrgencyUnspecified, false
	}
	switch f {
	case 0:
		return UrgencyLow, true
	case 1:
		return UrgencyNormal, true
	case 2:
		return UrgencyCritical, true
	}
	return UrgencyUnspecified, false
}
