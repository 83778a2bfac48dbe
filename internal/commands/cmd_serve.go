package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-notifyd/internal/application/notification"
	"github.com/go-notifyd/internal/config"
	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events"
	"github.com/go-notifyd/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-notifyd/internal/infrastructure/jwt"
	"github.com/go-notifyd/internal/infrastructure/memory"
	"github.com/go-notifyd/internal/infrastructure/sns"
	"github.com/go-notifyd/internal/logging"
	transporthttp "github.com/go-notifyd/internal/transport/http"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	flags   *Flags
	version string

	// flags
	port string
}

// NewServeCmd creates the serve command.
func NewServeCmd(flags *Flags, version string) *ServeCmd {
	return &ServeCmd{flags: flags, version: version}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the notification daemon",
		UsageText: "notifyd serve [--port PORT]",
		Description: `Starts the HTTP RPC surface, the expiry sweeper and the signal bus.

Configuration is read from the environment (and a .env file if present).
The SNS forwarder and the DynamoDB closure journal start only when configured.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Usage:       "listen port (overrides APP_PORT)",
				Destination: &cmd.port,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := config.Load()
	if cmd.port != "" {
		cfg.AppPort = cmd.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.New(cfg.EventBufferSize)
	events.RegisterDebugLogger(bus, logging.Component("bus"))
	go bus.Start(ctx)

	store := memory.NewNotificationStore()
	policy := domain.Policy{NormalTimeout: cfg.DefaultTimeoutNormal, LowTimeout: cfg.DefaultTimeoutLow}
	svc := notification.NewService(notification.ServiceDeps{
		Store:     store,
		Publisher: bus,
		Policy:    policy,
		Version:   cmd.version,
		Logger:    logging.Component("lifecycle"),
	})
	go notification.NewSweeper(store, bus, cfg.SweepInterval, logging.Component("sweeper")).Run(ctx)

	deps := &transporthttp.Deps{Service: svc, Live: store, Signals: bus}

	fwd, err := sns.FromConfig(ctx, cfg, logging.Component("sns"))
	if err != nil {
		return fmt.Errorf("sns forwarder: %w", err)
	}
	if fwd != nil {
		defer fwd.Attach(bus)()
		go fwd.Run(ctx)
		log.Info().Str("topic", cfg.SNSTopicARN).Msg("forwarding signals to sns")
	}

	if cfg.JournalEnabled {
		journal, err := startJournal(ctx, cfg, bus)
		if err != nil {
			return err
		}
		deps.Journal = journal
	}

	if cfg.AuthEnabled() {
		provider, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("jwt provider: %w", err)
		}
		deps.Verifier = provider
	} else {
		log.Warn().Msg("JWT_PUBLIC_KEY_PATH not set, bearer auth disabled")
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     transporthttp.NewRouter(cfg, deps),
		ReadTimeout: 15 * time.Second,
		// no write timeout: signal streams stay open
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Str("version", cmd.version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func startJournal(ctx context.Context, cfg *config.Config, bus *events.EventBus) (*dynamo.ClosureJournal, error) {
	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("dynamo client: %w", err)
	}
	logger := logging.Component("journal")
	dynamo.Bootstrap(ctx, client, cfg.JournalTable, logger)

	journal := dynamo.NewClosureJournal(client, cfg.JournalTable, cfg.JournalRetention, cfg.EventBufferSize, logger)
	journal.Attach(bus)
	go journal.Run(ctx)
	logger.Info().Str("table", cfg.JournalTable).Msg("closure journal enabled")
	return journal, nil
}
