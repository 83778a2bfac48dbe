package domain

import (
	"slices"
	"time"
)

// Notification is a live record owned by the notification store. Everything but
// ExpiresAt is fixed at acceptance; ExpiresAt is derived once from the request.
type Notification struct {
	ID        uint32     `json:"id" yaml:"id"`
	AppName   string     `json:"app_name" yaml:"app_name"`
	AppIcon   string     `json:"app_icon,omitempty" yaml:"app_icon,omitempty"`
	Summary   string     `json:"summary" yaml:"summary"`
	Body      string     `json:"body" yaml:"body"`
	Actions   []string   `json:"actions,omitempty" yaml:"actions,omitempty"`
	Urgency   Urgency    `json:"urgency" yaml:"urgency"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Clone returns a copy that shares no memory with n.
func (n Notification) Clone() Notification {
	out := n
	out.Actions = slices.Clone(n.Actions)
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// NotifyRequest is the transport-independent form of a Notify call.
// ExpireTimeout is in milliseconds: 0 never expires, negative asks for the
// urgency default.
type NotifyRequest struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string
	Urgency       Urgency
	ExpireTimeout int32
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string `json:"name" yaml:"name"`
	Vendor      string `json:"vendor" yaml:"vendor"`
	Version     string `json:"version" yaml:"version"`
	SpecVersion string `json:"spec_version" yaml:"spec_version"`
}
