package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/go-notifyd/internal/config"
	jwtinfra "github.com/go-notifyd/internal/infrastructure/jwt"
	"github.com/urfave/cli/v3"
)

type TokenCmd struct {
	flags *Flags
	out   io.Writer

	// flags
	clientID string
	scopes   []string
}

// NewTokenCmd creates the token command.
func NewTokenCmd(flags *Flags, out io.Writer) *TokenCmd {
	return &TokenCmd{flags: flags, out: out}
}

// Register adds the token command to the application
func (cmd *TokenCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "token",
		Usage:     "Sign a bearer token for a client",
		UsageText: "notifyd token --client ID [--scope read] [--scope notify]",
		Description: `Signs an RS256 token with JWT_PRIVATE_KEY_PATH. The expiry is JWT_EXPIRY.

Scopes:
  read    list, get, capabilities, server information, signals, history
  notify  notify, close, dismiss`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "client",
				Usage:       "client identifier stored in the token",
				Required:    true,
				Destination: &cmd.clientID,
			},
			&cli.StringSliceFlag{
				Name:        "scope",
				Usage:       "granted scope (repeatable)",
				Value:       []string{jwtinfra.ScopeRead, jwtinfra.ScopeNotify},
				Destination: &cmd.scopes,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *TokenCmd) run(_ context.Context, _ *cli.Command) error {
	for _, s := range cmd.scopes {
		if s != jwtinfra.ScopeRead && s != jwtinfra.ScopeNotify {
			return fmt.Errorf("unknown scope %q", s)
		}
	}

	cfg := config.Load()
	if cfg.JWTPrivateKeyPath == "" || cfg.JWTPublicKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set")
	}
	provider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return err
	}
	token, err := provider.Sign(cmd.clientID, cmd.scopes...)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return printValue(cmd.out, cmd.flags.Format, map[string]string{"token": token})
}
