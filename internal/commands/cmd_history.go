package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

type HistoryCmd struct {
	flags *Flags
	out   io.Writer

	// flags
	limit int
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd(flags *Flags, out io.Writer) *HistoryCmd {
	return &HistoryCmd{flags: flags, out: out}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "history",
		Usage:       "Show recently closed notifications of an application",
		UsageText:   "notifyd history [--limit N] APP_NAME",
		Description: `Reads the closure journal. The server must run with JOURNAL_ENABLED=true.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum entries to return (1-100)",
				Value:       20,
				Destination: &cmd.limit,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	app := c.Args().First()
	if app == "" {
		return fmt.Errorf("application name is required")
	}
	entries, err := cmd.flags.Client().Journal(ctx, app, cmd.limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, entries)
}
