package core

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// recorder is an Outbox keeping every line per recipient.
type recorder struct {
	lines map[ClientID][]string
}

func newRecorder() *recorder {
	return &recorder{lines: make(map[ClientID][]string)}
}

func (r *recorder) Send(id ClientID, line string) {
	r.lines[id] = append(r.lines[id], line)
}

// take returns and forgets the lines delivered to id.
func (r *recorder) take(id ClientID) []string {
	out := r.lines[id]
	delete(r.lines, id)
	return out
}

type fixture struct {
	clients  *ClientIndex
	channels *ChannelManager
	out      *recorder
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Unix(1700000000, 0))
	clients := NewClientIndex()
	out := newRecorder()
	return &fixture{
		clients:  clients,
		channels: NewChannelManager(clients, out, ChannelOptions{ServerName: "irc.test", MaxPerClient: 3, Clock: clock}),
		out:      out,
		clock:    clock,
	}
}

// register adds a fully registered client with nick and username equal.
func (f *fixture) register(t *testing.T, nick string) *Client {
	t.Helper()
	c := f.clients.Add(0, "127.0.0.1", f.clock.Now())
	if err := f.clients.SetNick(c, nick); err != nil {
		t.Fatalf("set nick %s: %v", nick, err)
	}
	c.User = nick
	c.PasswordVerified = true
	c.Registered = true
	return c
}

func (f *fixture) join(t *testing.T, c *Client, name, key string) {
	t.Helper()
	if err := f.channels.Join(c, name, key); err != nil {
		t.Fatalf("%s join %s: %v", c.Nick, name, err)
	}
}

func numericOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Numeric.String()
	}
	return ""
}
