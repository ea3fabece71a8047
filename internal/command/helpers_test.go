package command

import (
	"strings"
	"testing"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/vovakirdan/ircserv/internal/auth"
	"github.com/vovakirdan/ircserv/internal/core"
)

type outbox struct {
	lines map[core.ClientID][]string
}

func (o *outbox) Send(id core.ClientID, line string) {
	o.lines[id] = append(o.lines[id], line)
}

type dropper struct {
	reasons map[core.ClientID]string
}

func (d *dropper) MarkForDisconnection(c *core.Client, reason string) {
	if c.MarkDisconnecting(reason) {
		d.reasons[c.ID] = reason
	}
}

type pongRecorder struct {
	tokens []string
}

func (p *pongRecorder) HandlePongFromClient(_ *core.Client, token string) bool {
	p.tokens = append(p.tokens, token)
	return true
}

type harness struct {
	runner   *Runner
	clients  *core.ClientIndex
	channels *core.ChannelManager
	out      *outbox
	drop     *dropper
	pongs    *pongRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	secret, err := auth.NewSecret("secret")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	h := &harness{
		clients: core.NewClientIndex(),
		out:     &outbox{lines: make(map[core.ClientID][]string)},
		drop:    &dropper{reasons: make(map[core.ClientID]string)},
		pongs:   &pongRecorder{},
	}
	h.channels = core.NewChannelManager(h.clients, h.out, core.ChannelOptions{ServerName: "irc.test", MaxPerClient: 10, Clock: clock})
	h.runner = NewRunner(Deps{
		Clients:  h.clients,
		Channels: h.channels,
		Out:      h.out,
		Drop:     h.drop,
		Pongs:    h.pongs,
		Password: secret,
		Info: Info{
			ServerName: "irc.test",
			Network:    "TestNet",
			Version:    "ircserv-test",
			Created:    clock.Now(),
			MaxTargets: 4,
		},
	})
	return h
}

func (h *harness) connect() *core.Client {
	return h.clients.Add(0, "h", time.Now())
}

// send runs each line for c in order.
func (h *harness) send(c *core.Client, lines ...string) {
	for _, line := range lines {
		h.runner.HandleLine(c, line)
	}
}

func (h *harness) take(c *core.Client) []string {
	lines := h.out.lines[c.ID]
	delete(h.out.lines, c.ID)
	return lines
}

// register completes the handshake for nick and discards the burst.
func (h *harness) register(t *testing.T, nick string) *core.Client {
	t.Helper()
	c := h.connect()
	h.send(c, "PASS secret", "NICK "+nick, "USER "+nick+" 0 * :Real "+nick)
	require.True(t, c.Registered, "%s registered", nick)
	h.take(c)
	return c
}

// codes returns the command of every line, which for replies is the numeric.
func codes(t *testing.T, lines []string) []string {
	t.Helper()
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		msg, err := ircmsg.ParseLine(line)
		require.NoError(t, err, line)
		out = append(out, msg.Command)
	}
	return out
}

func only(t *testing.T, lines []string) string {
	t.Helper()
	require.Len(t, lines, 1, strings.Join(lines, "\n"))
	return lines[0]
}
