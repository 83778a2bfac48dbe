package commands

import (
	"github.com/go-notifyd/pkg/client"
)

// Flags holds the global flags shared by every command.
type Flags struct {
	LogLevel string
	LogFile  string
	Addr     string
	Token    string
	Format   string
}

// Client returns an RPC client for the configured server.
func (f *Flags) Client() *client.Client {
	var opts []client.Option
	if f.Token != "" {
		opts = append(opts, client.WithToken(f.Token))
	}
	return client.New(f.Addr, opts...)
}
