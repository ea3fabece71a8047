// Package pong probes client liveness with PING tokens tracked per client.
package pong

import (
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/metrics"
	"github.com/vovakirdan/ircserv/internal/proto"
	"github.com/vovakirdan/ircserv/internal/utils"
)

// Sender delivers one line to a client.
type Sender interface {
	Send(id core.ClientID, line string)
}

// Disconnector queues a client for the disconnect sweep.
type Disconnector interface {
	MarkForDisconnection(c *core.Client, reason string)
}

// Options tunes a Manager.
type Options struct {
	Clock    clockwork.Clock
	Metrics  *metrics.ReactorMetrics
	NewToken func() string
}

// Manager issues PINGs and detects clients that stopped answering.
type Manager struct {
	clients *core.ClientIndex
	out     Sender
	drop    Disconnector
	opts    Options
	log     *zerolog.Logger
}

// New constructs a Manager.
func New(clients *core.ClientIndex, out Sender, drop Disconnector, opts Options, logger *zerolog.Logger) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.NewToken == nil {
		opts.NewToken = utils.NewToken
	}
	return &Manager{clients: clients, out: out, drop: drop, opts: opts, log: logger}
}

// SendPingToAllClients sends one freshly tokened PING to every live client and
// records the token on that client.
func (m *Manager) SendPingToAllClients() {
	now := m.opts.Clock.Now()
	m.clients.Each(func(c *core.Client) {
		if c.Disconnecting() {
			return
		}
		token := m.opts.NewToken()
		c.AddPing(token, now)
		m.out.Send(c.ID, proto.RelayText("", "PING", token))
	})
}

// HandlePongFromClient clears the token if it is outstanding for c.
func (m *Manager) HandlePongFromClient(c *core.Client, token string) bool {
	if !c.ClearPing(token) {
		m.log.Debug().Uint64("client", uint64(c.ID)).Str("token", token).Msg("unexpected pong token")
		return false
	}
	return true
}

// CheckAllPingTimeouts marks every client whose oldest outstanding token is
// older than timeout and returns how many were marked.
func (m *Manager) CheckAllPingTimeouts(timeout time.Duration) int {
	now := m.opts.Clock.Now()
	reason := "Ping timeout: " + strconv.Itoa(int(timeout/time.Second)) + " seconds"
	marked := 0
	m.clients.Each(func(c *core.Client) {
		if c.Disconnecting() {
			return
		}
		oldest, ok := c.OldestPing()
		if !ok || now.Sub(oldest) <= timeout {
			return
		}
		m.drop.MarkForDisconnection(c, reason)
		m.opts.Metrics.PingTimedOut()
		m.log.Info().Uint64("client", uint64(c.ID)).Str("nick", c.Nick).Msg("ping timeout")
		marked++
	})
	return marked
}
