package http

import (
	"github.com/go-notifyd/internal/application/notification"
	"github.com/go-notifyd/internal/transport/http/handler"
	"github.com/go-notifyd/internal/transport/http/middleware"
)

// Deps holds everything the router needs.
type Deps struct {
	Service notification.Service
	Live    handler.LiveCounter
	Signals handler.SignalSource
	// Verifier enables bearer auth when non-nil.
	Verifier middleware.Verifier
	// Journal mounts the closure history route when non-nil.
	Journal handler.JournalReader
}
