package core

import (
	"maps"
	"slices"
	"time"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// ClientIndex exclusively owns every connected Client and keeps a secondary
// index from casemapped nickname to ID. Every claimed nickname is bound, so the
// nicknames of registered clients are always unique and resolvable.
type ClientIndex struct {
	clients map[ClientID]*Client
	nicks   map[string]ClientID
	lastID  ClientID
}

// NewClientIndex constructs an empty index.
func NewClientIndex() *ClientIndex {
	return &ClientIndex{
		clients: make(map[ClientID]*Client),
		nicks:   make(map[string]ClientID),
	}
}

// Add creates an unregistered client for a freshly accepted connection.
func (x *ClientIndex) Add(fd int, host string, now time.Time) *Client {
	x.lastID++
	c := newClient(x.lastID, fd, host, now)
	x.clients[c.ID] = c
	return c
}

// Remove destroys a client. It is called only by the disconnect sweep, after
// the client was detached from every channel.
func (x *ClientIndex) Remove(id ClientID) {
	c, ok := x.clients[id]
	if !ok {
		return
	}
	if c.HasNick() {
		key := proto.Fold(c.Nick)
		if x.nicks[key] == id {
			delete(x.nicks, key)
		}
	}
	delete(x.clients, id)
}

// Get returns the client with the given connection ID.
func (x *ClientIndex) Get(id ClientID) (*Client, bool) {
	c, ok := x.clients[id]
	return c, ok
}

// ByNick resolves a nickname case-insensitively.
func (x *ClientIndex) ByNick(nick string) (*Client, bool) {
	id, ok := x.nicks[proto.Fold(nick)]
	if !ok {
		return nil, false
	}
	return x.Get(id)
}

// NickInUse reports whether nick is bound to any client.
func (x *ClientIndex) NickInUse(nick string) bool {
	_, ok := x.nicks[proto.Fold(nick)]
	return ok
}

// SetNick claims nick for c, releasing its previous nickname in the same step.
// A nickname bound to another client, in any case, is rejected and c keeps its
// old binding. Changing only the case of one's own nickname is allowed.
func (x *ClientIndex) SetNick(c *Client, nick string) error {
	key := proto.Fold(nick)
	if owner, ok := x.nicks[key]; ok && owner != c.ID {
		return ErrNicknameInUse(nick)
	}
	if c.HasNick() {
		delete(x.nicks, proto.Fold(c.Nick))
	}
	x.nicks[key] = c.ID
	c.Nick = nick
	return nil
}

// Rename moves the binding of oldNick to newNick.
func (x *ClientIndex) Rename(oldNick, newNick string) error {
	c, ok := x.ByNick(oldNick)
	if !ok {
		return ErrNoSuchNick(oldNick)
	}
	return x.SetNick(c, newNick)
}

// Each calls fn for every client in ascending ID order. fn must not add or
// remove clients.
func (x *ClientIndex) Each(fn func(*Client)) {
	for _, id := range slices.Sorted(maps.Keys(x.clients)) {
		fn(x.clients[id])
	}
}

// Len returns the number of connected clients.
func (x *ClientIndex) Len() int {
	return len(x.clients)
}
