// Package app wires configuration, metrics, the IRC reactor and the ops HTTP
// server into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/config"
	"github.com/vovakirdan/ircserv/internal/metrics"
	"github.com/vovakirdan/ircserv/internal/server"
	transporthttp "github.com/vovakirdan/ircserv/internal/transport/http"
)

// App wires together the reactor and the ops transport.
type App struct {
	irc             *server.Server
	ops             *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New validates cfg and constructs the application. The IRC port is bound
// here so that startup errors surface before Run.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg := metrics.NewRegistry()
	irc, err := server.New(cfg, logger, server.WithMetrics(metrics.NewSet(reg)))
	if err != nil {
		return nil, fmt.Errorf("init irc server: %w", err)
	}

	a := &App{irc: irc, shutdownTimeout: cfg.ShutdownTimeout, log: logger}
	if cfg.MetricsAddr != "" {
		a.ops = transporthttp.NewServer(cfg.MetricsAddr, irc, reg, logger)
	}
	return a, nil
}

// Port returns the bound IRC port.
func (a *App) Port() int { return a.irc.Port() }

// Run starts the reactor and, when configured, the ops HTTP server. It blocks
// until ctx is cancelled or either server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ircErr := make(chan error, 1)
	go func() {
		ircErr <- a.irc.Run(ctx)
	}()

	if a.ops == nil {
		return <-ircErr
	}

	opsErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.ops.Addr).Msg("starting ops http server")
		if err := a.ops.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			opsErr <- err
			return
		}
		opsErr <- nil
	}()

	select {
	case err := <-opsErr:
		cancel()
		ircRunErr := <-ircErr
		if err == nil {
			return ircRunErr
		}
		if ircRunErr != nil {
			a.log.Warn().Err(ircRunErr).Msg("irc server stopped with error")
		}
		return fmt.Errorf("ops http server: %w", err)
	case err := <-ircErr:
		a.shutdownOps()
		return err
	}
}

func (a *App) shutdownOps() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down ops http server")
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("ops http shutdown")
	}
}
