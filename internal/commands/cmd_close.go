package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

// CloseResult is printed by close and dismiss.
type CloseResult struct {
	ID     uint32 `json:"id" yaml:"id"`
	Closed bool   `json:"closed" yaml:"closed"`
}

type CloseCmd struct {
	flags *Flags
	out   io.Writer
}

// NewCloseCmd creates the close and dismiss commands.
func NewCloseCmd(flags *Flags, out io.Writer) *CloseCmd {
	return &CloseCmd{flags: flags, out: out}
}

// Register adds close and dismiss to the application
func (cmd *CloseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "close",
			Usage:     "Close a notification (reason: closed)",
			UsageText: "notifyd close ID",
			Description: `Closing an id that is not live is not an error; the output reports
closed: false.`,
			Action: cmd.runClose,
		},
		&cli.Command{
			Name:      "dismiss",
			Usage:     "Dismiss a notification (reason: dismissed by user)",
			UsageText: "notifyd dismiss ID",
			Action:    cmd.runDismiss,
		},
	)
	return app
}

func (cmd *CloseCmd) runClose(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	closed, err := cmd.flags.Client().CloseNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("close notification: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, CloseResult{ID: id, Closed: closed})
}

func (cmd *CloseCmd) runDismiss(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	closed, err := cmd.flags.Client().DismissNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, CloseResult{ID: id, Closed: closed})
}
