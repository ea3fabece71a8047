package core

import (
	"time"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// ClientID identifies a connection for its whole lifetime. IDs are never reused.
type ClientID uint64

// PlaceholderNick is the nickname of a client that has not chosen one yet.
const PlaceholderNick = "*"

// Client is a connected participant as seen by the core layer.
// Clients are owned by ClientIndex; everything else refers to them by ID.
type Client struct {
	ID       ClientID
	FD       int
	Nick     string
	User     string
	RealName string
	Host     string

	PasswordVerified bool
	Registered       bool
	Invisible        bool

	// RecvBuf holds bytes not yet forming a complete line.
	RecvBuf []byte
	// SendBuf holds encoded lines not yet written to the socket.
	SendBuf []byte

	ConnectedAt  time.Time
	LastActivity time.Time

	// Channels holds the lookup keys of joined channels.
	Channels map[string]struct{}

	pings map[string]time.Time

	floodStart time.Time
	floodCount int

	disconnecting bool
	quitReason    string
	quitAnnounced bool
	closed        bool
}

func newClient(id ClientID, fd int, host string, now time.Time) *Client {
	return &Client{
		ID:           id,
		FD:           fd,
		Nick:         PlaceholderNick,
		Host:         host,
		ConnectedAt:  now,
		LastActivity: now,
		Channels:     make(map[string]struct{}),
		pings:        make(map[string]time.Time),
	}
}

// Prefix returns the nick!user@host source used on relayed messages.
func (c *Client) Prefix() string {
	return proto.Hostmask(c.Nick, c.User, c.Host)
}

// HasNick reports whether the client has claimed a nickname.
func (c *Client) HasNick() bool {
	return c.Nick != PlaceholderNick
}

// InChannel reports whether the client joined the channel with the given key.
func (c *Client) InChannel(key string) bool {
	_, ok := c.Channels[key]
	return ok
}

// AddPing records an outstanding liveness token.
func (c *Client) AddPing(token string, at time.Time) {
	c.pings[token] = at
}

// ClearPing removes token and reports whether it was outstanding.
func (c *Client) ClearPing(token string) bool {
	if _, ok := c.pings[token]; !ok {
		return false
	}
	delete(c.pings, token)
	return true
}

// PendingPings returns the number of unanswered tokens.
func (c *Client) PendingPings() int {
	return len(c.pings)
}

// OldestPing returns the issue time of the oldest unanswered token.
func (c *Client) OldestPing() (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, at := range c.pings {
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found
}

// CountLine records one inbound command and returns how many were seen in the
// current window. A window opens with the first command after the previous
// one expired.
func (c *Client) CountLine(now time.Time, window time.Duration) int {
	if c.floodCount == 0 || now.Sub(c.floodStart) >= window {
		c.floodStart = now
		c.floodCount = 0
	}
	c.floodCount++
	return c.floodCount
}

// MarkDisconnecting flags the client for the next sweep. It returns false if
// the client was already flagged; the first reason wins.
func (c *Client) MarkDisconnecting(reason string) bool {
	if c.disconnecting {
		return false
	}
	c.disconnecting = true
	c.quitReason = reason
	return true
}

// Disconnecting reports whether the client awaits the disconnect sweep.
func (c *Client) Disconnecting() bool { return c.disconnecting }

// QuitReason returns the reason given when the client was flagged.
func (c *Client) QuitReason() string { return c.quitReason }

// QuitAnnounced reports whether peers were already told about the departure.
func (c *Client) QuitAnnounced() bool { return c.quitAnnounced }

// MarkClosed records that the socket is gone; sends become no-ops.
func (c *Client) MarkClosed() { c.closed = true }

// Closed reports whether the socket was closed by the sweep.
func (c *Client) Closed() bool { return c.closed }
