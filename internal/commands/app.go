// Package commands builds the notifyd command tree: the serve daemon plus
// client commands for every RPC method.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/go-notifyd/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// NewApp returns the root command. Command output goes to out; logs go to
// stderr or --log-file.
func NewApp(flags *Flags, version string, out io.Writer) *cli.Command {
	var logCloser func()

	app := &cli.Command{
		Name:      "notifyd",
		Usage:     "Notification broker with expiring records and closure signals",
		UsageText: "notifyd [global options] command [command options]",
		Description: `notifyd accepts notifications from many clients, expires them according
to their urgency and emits NotificationClosed whenever one goes away.

Run 'notifyd serve' to start the daemon. The other commands are clients for
a running daemon at --addr.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "base URL of the daemon for client commands",
				Sources:     cli.EnvVars("NOTIFYD_ADDR"),
				Value:       "http://127.0.0.1:3000",
				Destination: &flags.Addr,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "bearer token for client commands",
				Sources:     cli.EnvVars("NOTIFYD_TOKEN"),
				Destination: &flags.Token,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"o"},
				Usage:       "output format (json, yaml)",
				Sources:     cli.EnvVars("NOTIFYD_FORMAT"),
				Value:       FormatJSON,
				Destination: &flags.Format,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = NewServeCmd(flags, version).Register(app)
	app = NewNotifyCmd(flags, out).Register(app)
	app = NewQueryCmd(flags, out).Register(app)
	app = NewCloseCmd(flags, out).Register(app)
	app = NewWatchCmd(flags, out).Register(app)
	app = NewHistoryCmd(flags, out).Register(app)
	app = NewTokenCmd(flags, out).Register(app)

	return app
}
