package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/go-notifyd/pkg/client"
	"github.com/urfave/cli/v3"
)

type NotifyCmd struct {
	flags *Flags
	out   io.Writer

	// flags
	appName    string
	appIcon    string
	body       string
	replacesID uint32
	actions    []string
	urgency    string
	timeout    int32
}

// NewNotifyCmd creates the notify command.
func NewNotifyCmd(flags *Flags, out io.Writer) *NotifyCmd {
	return &NotifyCmd{flags: flags, out: out}
}

// Register adds the notify command to the application
func (cmd *NotifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notify",
		Usage:     "Create or replace a notification",
		UsageText: "notifyd notify [options] SUMMARY",
		Description: `Sends a Notify request and prints the assigned id.

Expiry follows the server policy: --timeout -1 (the default) uses the urgency
default, 0 never expires, and a positive value is milliseconds.

Examples:
  notifyd notify "Build finished"
  notifyd notify --urgency critical --app ci "Deploy failed"
  notifyd notify --replaces 4 --timeout 5000 "Still running"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "app",
				Aliases:     []string{"a"},
				Usage:       "application name",
				Value:       "notifyd-cli",
				Destination: &cmd.appName,
			},
			&cli.StringFlag{
				Name:        "icon",
				Usage:       "application icon",
				Destination: &cmd.appIcon,
			},
			&cli.StringFlag{
				Name:        "body",
				Aliases:     []string{"b"},
				Usage:       "notification body",
				Destination: &cmd.body,
			},
			&cli.Uint32Flag{
				Name:        "replaces",
				Aliases:     []string{"r"},
				Usage:       "id of the notification to replace",
				Destination: &cmd.replacesID,
			},
			&cli.StringSliceFlag{
				Name:        "action",
				Usage:       "action identifier or label (repeatable, passed through verbatim)",
				Destination: &cmd.actions,
			},
			&cli.StringFlag{
				Name:        "urgency",
				Aliases:     []string{"u"},
				Usage:       "urgency hint (low, normal, critical)",
				Destination: &cmd.urgency,
			},
			&cli.Int32Flag{
				Name:        "timeout",
				Aliases:     []string{"t"},
				Usage:       "expire timeout in milliseconds",
				Value:       -1,
				Destination: &cmd.timeout,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *NotifyCmd) run(ctx context.Context, c *cli.Command) error {
	summary := c.Args().First()
	if summary == "" {
		return fmt.Errorf("summary is required")
	}

	params := client.NotifyParams{
		AppName:       cmd.appName,
		ReplacesID:    cmd.replacesID,
		AppIcon:       cmd.appIcon,
		Summary:       summary,
		Body:          cmd.body,
		Actions:       cmd.actions,
		ExpireTimeout: cmd.timeout,
	}
	if cmd.urgency != "" {
		params.Hints = map[string]any{"urgency": cmd.urgency}
	}

	id, err := cmd.flags.Client().Notify(ctx, params)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, map[string]uint32{"id": id})
}

func parseID(raw string) (uint32, error) {
	if raw == "" {
		return 0, fmt.Errorf("notification id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid notification id %q", raw)
	}
	return uint32(id), nil
}
