// Package server runs the single-threaded reactor: one loop polls sockets,
// dispatches lines to commands, runs liveness checks and sweeps disconnects.
package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/auth"
	"github.com/vovakirdan/ircserv/internal/command"
	"github.com/vovakirdan/ircserv/internal/config"
	"github.com/vovakirdan/ircserv/internal/conn"
	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/listener"
	"github.com/vovakirdan/ircserv/internal/metrics"
	"github.com/vovakirdan/ircserv/internal/poller"
	"github.com/vovakirdan/ircserv/internal/pong"
)

// Version is reported in the welcome burst.
const Version = "ircserv-1.0"

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces the wall clock used for liveness and timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithMetrics records into set instead of discarding measurements.
func WithMetrics(set *metrics.Set) Option {
	return func(s *Server) { s.metrics = set }
}

// Server owns every registry and the socket layer. All of its state except
// the published counters is touched only by the goroutine running Run.
type Server struct {
	cfg     config.Config
	log     *zerolog.Logger
	clock   clockwork.Clock
	metrics *metrics.Set

	loop     poller.Poller
	ln       *listener.Listener
	clients  *core.ClientIndex
	channels *core.ChannelManager
	conns    *conn.Manager
	runner   *command.Runner
	pongs    *pong.Manager

	lastPing time.Time

	clientCount  atomic.Int64
	channelCount atomic.Int64
}

// New binds the listening socket and builds the reactor. Nothing is read
// until Run is called.
func New(cfg config.Config, logger *zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, log: logger, clock: clockwork.NewRealClock(), metrics: &metrics.Set{}}
	for _, opt := range opts {
		opt(s)
	}

	secret, err := auth.NewSecret(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	loop, err := poller.New()
	if err != nil {
		return nil, fmt.Errorf("create poller: %w", err)
	}
	ln, err := listener.Listen(cfg.Host, cfg.Port)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	s.loop = loop
	s.ln = ln

	s.clients = core.NewClientIndex()
	s.conns = conn.NewManager(loop, ln, s.clients, conn.Options{
		MaxLineLength: cfg.MaxLineLength,
		MaxSendQueue:  cfg.MaxSendQueue,
		Clock:         s.clock,
		Metrics:       s.metrics.Connections,
	}, logger)
	s.channels = core.NewChannelManager(s.clients, s.conns, core.ChannelOptions{
		ServerName:   cfg.ServerName,
		MaxPerClient: cfg.MaxChannelsPerClient,
		Clock:        s.clock,
	})
	s.pongs = pong.New(s.clients, s.conns, s.conns, pong.Options{
		Clock:   s.clock,
		Metrics: s.metrics.Reactor,
	}, logger)
	s.runner = command.NewRunner(command.Deps{
		Clients:  s.clients,
		Channels: s.channels,
		Out:      s.conns,
		Drop:     s.conns,
		Pongs:    s.pongs,
		Password: secret,
		Info: command.Info{
			ServerName: cfg.ServerName,
			Network:    cfg.Network,
			Version:    Version,
			Created:    s.clock.Now(),
			MOTD:       cfg.MOTD,
			MaxTargets: cfg.MaxTargets,
		},
		Flood:   command.FloodLimit{Lines: cfg.FloodLines, Window: cfg.FloodWindow},
		Clock:   s.clock,
		Metrics: s.metrics.Commands,
		Logger:  logger,
	})
	s.conns.SetHandler(handler{s})
	return s, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int { return s.ln.Port() }

// ClientCount returns the number of connections as of the last tick. Safe
// for concurrent use.
func (s *Server) ClientCount() int { return int(s.clientCount.Load()) }

// ChannelCount returns the number of channels as of the last tick. Safe for
// concurrent use.
func (s *Server) ChannelCount() int { return int(s.channelCount.Load()) }

// Run drives the loop until ctx is cancelled, then disconnects every client
// and releases the sockets. A poller failure ends the loop with an error.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()
	if err := s.conns.Start(); err != nil {
		return fmt.Errorf("watch listener: %w", err)
	}
	s.log.Info().Int("port", s.Port()).Str("server", s.cfg.ServerName).Msg("irc server listening")

	s.lastPing = s.clock.Now()
	for ctx.Err() == nil {
		if err := s.tick(); err != nil {
			s.conns.Shutdown(conn.ReasonShutdown)
			return err
		}
	}

	s.log.Info().Int("clients", s.clients.Len()).Msg("shutting down irc server")
	s.conns.Shutdown(conn.ReasonShutdown)
	s.publish(0)
	return nil
}

// tick runs one iteration: readiness, liveness, output, then the sweep.
func (s *Server) tick() error {
	events, err := s.loop.Poll(s.cfg.PollInterval)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	start := s.clock.Now()
	for _, ev := range events {
		s.conns.HandleEvent(ev)
	}

	if now := s.clock.Now(); now.Sub(s.lastPing) >= s.cfg.PingInterval {
		s.pongs.SendPingToAllClients()
		s.lastPing = now
	}
	s.pongs.CheckAllPingTimeouts(s.cfg.PingTimeout)

	s.conns.Flush()
	s.conns.Sweep()
	s.conns.Flush()

	s.publish(s.clock.Since(start))
	return nil
}

func (s *Server) publish(elapsed time.Duration) {
	clients, channels := s.clients.Len(), s.channels.Len()
	s.clientCount.Store(int64(clients))
	s.channelCount.Store(int64(channels))
	s.metrics.Reactor.Observe(clients, channels, elapsed)
}

func (s *Server) close() {
	if err := s.ln.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close listener")
	}
	if err := s.loop.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close poller")
	}
}

// handler connects socket callbacks to the command layer.
type handler struct {
	s *Server
}

// OnOpen sends nothing: clients speak first.
func (h handler) OnOpen(*core.Client) {}

func (h handler) OnLine(c *core.Client, line string) {
	h.s.runner.HandleLine(c, line)
}

// OnClose tells peers about connections that vanished without QUIT and
// detaches the client before it leaves the index.
func (h handler) OnClose(c *core.Client) {
	if !c.QuitAnnounced() {
		h.s.channels.AnnounceQuit(c, c.QuitReason())
	}
	h.s.channels.RemoveFromAll(c)
}
