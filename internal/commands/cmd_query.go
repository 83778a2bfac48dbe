package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

// QueryCmd groups the read-only RPC methods: list, get, info and capabilities.
type QueryCmd struct {
	flags *Flags
	out   io.Writer
}

// NewQueryCmd creates the read-only query commands.
func NewQueryCmd(flags *Flags, out io.Writer) *QueryCmd {
	return &QueryCmd{flags: flags, out: out}
}

// Register adds list, get, info and capabilities to the application
func (cmd *QueryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "list",
			Aliases:   []string{"ls"},
			Usage:     "List live notifications keyed by id",
			UsageText: "notifyd list",
			Action:    cmd.runList,
		},
		&cli.Command{
			Name:      "get",
			Usage:     "Show one live notification",
			UsageText: "notifyd get ID",
			Action:    cmd.runGet,
		},
		&cli.Command{
			Name:      "info",
			Usage:     "Show server information",
			UsageText: "notifyd info",
			Action:    cmd.runInfo,
		},
		&cli.Command{
			Name:      "capabilities",
			Usage:     "List server capabilities",
			UsageText: "notifyd capabilities",
			Action:    cmd.runCapabilities,
		},
	)
	return app
}

func (cmd *QueryCmd) runList(ctx context.Context, _ *cli.Command) error {
	all, err := cmd.flags.Client().GetNotifications(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, all)
}

func (cmd *QueryCmd) runGet(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	n, err := cmd.flags.Client().GetNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, n)
}

func (cmd *QueryCmd) runInfo(ctx context.Context, _ *cli.Command) error {
	info, err := cmd.flags.Client().GetServerInformation(ctx)
	if err != nil {
		return fmt.Errorf("server information: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, info)
}

func (cmd *QueryCmd) runCapabilities(ctx context.Context, _ *cli.Command) error {
	caps, err := cmd.flags.Client().GetCapabilities(ctx)
	if err != nil {
		return fmt.Errorf("capabilities: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, caps)
}
