package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-notifyd/pkg/client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// WatchLine is printed for every signal received.
type WatchLine struct {
	Signal  string         `json:"signal" yaml:"signal"`
	EventID string         `json:"event_id" yaml:"event_id"`
	Data    map[string]any `json:"data" yaml:"data"`
}

type WatchCmd struct {
	flags *Flags
	out   io.Writer

	// flags
	count int
}

// NewWatchCmd creates the watch command.
func NewWatchCmd(flags *Flags, out io.Writer) *WatchCmd {
	return &WatchCmd{flags: flags, out: out}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Stream NotificationCreated and NotificationClosed signals",
		UsageText: "notifyd watch [--count N]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "count",
				Aliases:     []string{"n"},
				Usage:       "exit after N signals (0 streams until interrupted)",
				Destination: &cmd.count,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *WatchCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seen := 0
	var printErr error
	err := cmd.flags.Client().Signals(ctx, func(s client.Signal) {
		line := WatchLine{Signal: s.Name, EventID: s.EventID}
		if err := json.Unmarshal(s.Data, &line.Data); err != nil {
			log.Warn().Err(err).Str("signal", s.Name).Msg("undecodable signal data")
		}
		if err := printValue(cmd.out, cmd.flags.Format, line); err != nil {
			printErr = err
			cancel()
			return
		}
		seen++
		if cmd.count > 0 && seen >= cmd.count {
			cancel()
		}
	})
	if err != nil {
		return fmt.Errorf("watch signals: %w", err)
	}
	return printErr
}
