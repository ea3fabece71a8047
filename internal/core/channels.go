package core

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// Outbox delivers one encoded line to a client.
type Outbox interface {
	Send(id ClientID, line string)
}

// ChannelOptions tunes a ChannelManager.
type ChannelOptions struct {
	ServerName string
	// MaxPerClient caps the number of channels one client may join; zero disables it.
	MaxPerClient int
	Clock        clockwork.Clock
}

// ChannelManager exclusively owns channels, keyed by casemapped name.
type ChannelManager struct {
	channels map[string]*Channel
	clients  *ClientIndex
	out      Outbox
	opts     ChannelOptions
}

// NewChannelManager constructs an empty manager resolving members through clients.
func NewChannelManager(clients *ClientIndex, out Outbox, opts ChannelOptions) *ChannelManager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &ChannelManager{
		channels: make(map[string]*Channel),
		clients:  clients,
		out:      out,
		opts:     opts,
	}
}

// Get resolves a channel name case-insensitively.
func (m *ChannelManager) Get(name string) (*Channel, bool) {
	ch, ok := m.channels[proto.Fold(name)]
	return ch, ok
}

// Len returns the number of live channels.
func (m *ChannelManager) Len() int { return len(m.channels) }

// Each calls fn for every channel in lookup-key order.
func (m *ChannelManager) Each(fn func(*Channel)) {
	for _, key := range slices.Sorted(maps.Keys(m.channels)) {
		fn(m.channels[key])
	}
}

// Join adds c to the named channel, creating it with c as operator when it
// does not exist. Gates run in order: invite list, key, limit. Joining a
// channel one is already in does nothing.
func (m *ChannelManager) Join(c *Client, name, key string) error {
	ch, exists := m.Get(name)
	if exists {
		switch {
		case ch.Has(ModeInviteOnly) && !ch.IsInvited(c.ID):
			return ErrInviteOnlyChan(ch.Name)
		case ch.Has(ModeKey) && key != ch.Key:
			return ErrBadChannelKey(ch.Name)
		case ch.Has(ModeLimit) && ch.MemberCount() >= ch.Limit:
			return ErrChannelIsFull(ch.Name)
		case ch.IsMember(c.ID):
			return nil
		}
	}
	if m.opts.MaxPerClient > 0 && len(c.Channels) >= m.opts.MaxPerClient {
		return ErrTooManyChannels(name)
	}
	if !exists {
		ch = newChannel(name, proto.Fold(name), m.opts.Clock.Now())
		m.channels[ch.key] = ch
		ch.setOperator(c.ID, true)
	}
	ch.addMember(c.ID)
	c.Channels[ch.key] = struct{}{}

	m.Broadcast(ch, proto.Relay(c.Prefix(), "JOIN", ch.Name), 0)
	if ch.Topic != "" {
		m.sendTopic(c, ch)
	}
	m.sendNames(c, ch)
	return nil
}

// Part removes c from the named channel after announcing the departure to
// every member, c included.
func (m *ChannelManager) Part(c *Client, name, reason string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(c.ID) {
		return ErrNotOnChannel(ch.Name)
	}
	line := proto.Relay(c.Prefix(), "PART", ch.Name)
	if reason != "" {
		line = proto.RelayText(c.Prefix(), "PART", ch.Name, reason)
	}
	m.Broadcast(ch, line, 0)
	m.detach(ch, c)
	return nil
}

// PartAll parts every channel c belongs to.
func (m *ChannelManager) PartAll(c *Client, reason string) {
	for _, key := range slices.Sorted(maps.Keys(c.Channels)) {
		if ch, ok := m.channels[key]; ok {
			_ = m.Part(c, ch.Name, reason)
		}
	}
}

// Kick removes the member named by nick on behalf of an operator.
func (m *ChannelManager) Kick(kicker *Client, name, nick, reason string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(kicker.ID) {
		return ErrNotOnChannel(ch.Name)
	}
	if !ch.IsOperator(kicker.ID) {
		return ErrChanOpPrivsNeeded(ch.Name)
	}
	target, ok := m.clients.ByNick(nick)
	if !ok {
		return ErrNoSuchNick(nick)
	}
	if !ch.IsMember(target.ID) {
		return ErrUserNotInChannel(target.Nick, ch.Name)
	}
	if reason == "" {
		reason = kicker.Nick
	}
	m.Broadcast(ch, proto.RelayText(kicker.Prefix(), "KICK", ch.Name, target.Nick, reason), 0)
	m.detach(ch, target)
	return nil
}

// Invite records a pending invitation for the client named by nick and
// notifies it.
func (m *ChannelManager) Invite(inviter *Client, nick, name string) error {
	target, ok := m.clients.ByNick(nick)
	if !ok {
		return ErrNoSuchNick(nick)
	}
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(inviter.ID) {
		return ErrNotOnChannel(ch.Name)
	}
	if ch.Has(ModeInviteOnly) && !ch.IsOperator(inviter.ID) {
		return ErrChanOpPrivsNeeded(ch.Name)
	}
	if ch.IsMember(target.ID) {
		return ErrUserOnChannel(target.Nick, ch.Name)
	}
	ch.invites[target.ID] = struct{}{}
	m.out.Send(inviter.ID, proto.ReplyPlain(m.opts.ServerName, proto.RplInviting, inviter.Nick, target.Nick, ch.Name))
	m.out.Send(target.ID, proto.Relay(inviter.Prefix(), "INVITE", target.Nick, ch.Name))
	return nil
}

// Topic sends the current topic of the channel to c.
func (m *ChannelManager) Topic(c *Client, name string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(c.ID) {
		return ErrNotOnChannel(ch.Name)
	}
	m.sendTopic(c, ch)
	return nil
}

// SetTopic replaces the topic. Protected channels accept it from operators only.
func (m *ChannelManager) SetTopic(c *Client, name, topic string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(c.ID) {
		return ErrNotOnChannel(ch.Name)
	}
	if ch.Has(ModeTopicProtected) && !ch.IsOperator(c.ID) {
		return ErrChanOpPrivsNeeded(ch.Name)
	}
	ch.Topic = topic
	ch.TopicAuthor = c.Nick
	ch.TopicTime = m.opts.Clock.Now()
	m.Broadcast(ch, proto.RelayText(c.Prefix(), "TOPIC", ch.Name, topic), 0)
	return nil
}

// SetMode applies one mode letter and reports whether state changed. The
// caller broadcasts real changes.
func (m *ChannelManager) SetMode(actor *Client, name string, enable bool, mode rune, param string) (bool, error) {
	ch, ok := m.Get(name)
	if !ok {
		return false, ErrNoSuchChannel(name)
	}
	if !ch.IsOperator(actor.ID) {
		return false, ErrChanOpPrivsNeeded(ch.Name)
	}
	return m.setMode(ch, enable, mode, param)
}

func (m *ChannelManager) setMode(ch *Channel, enable bool, mode rune, param string) (bool, error) {
	switch mode {
	case 'i':
		return toggle(ch, ModeInviteOnly, enable), nil
	case 't':
		return toggle(ch, ModeTopicProtected, enable), nil
	case 'k':
		if !enable {
			if !ch.Has(ModeKey) {
				return false, nil
			}
			ch.set(ModeKey, false)
			ch.Key = ""
			return true, nil
		}
		if !proto.ValidKey(param) {
			return false, ErrInvalidKey(ch.Name)
		}
		if ch.Has(ModeKey) && ch.Key == param {
			return false, nil
		}
		ch.set(ModeKey, true)
		ch.Key = param
		return true, nil
	case 'l':
		if !enable {
			if !ch.Has(ModeLimit) {
				return false, nil
			}
			ch.set(ModeLimit, false)
			ch.Limit = 0
			return true, nil
		}
		limit, err := strconv.Atoi(param)
		if err != nil || limit <= 0 {
			return false, ErrInvalidModeParam(ch.Name, mode, param)
		}
		if ch.Has(ModeLimit) && ch.Limit == limit {
			return false, nil
		}
		ch.set(ModeLimit, true)
		ch.Limit = limit
		return true, nil
	case 'o':
		target, ok := m.clients.ByNick(param)
		if !ok {
			return false, ErrNoSuchNick(param)
		}
		if !ch.IsMember(target.ID) {
			return false, ErrUserNotInChannel(target.Nick, ch.Name)
		}
		if ch.IsOperator(target.ID) == enable {
			return false, nil
		}
		ch.setOperator(target.ID, enable)
		return true, nil
	}
	return false, ErrUnknownMode(mode, ch.Name)
}

func toggle(ch *Channel, mode Mode, enable bool) bool {
	if ch.Has(mode) == enable {
		return false
	}
	ch.set(mode, enable)
	return true
}

// modeTakesParam reports whether a letter consumes an argument for the sign.
func modeTakesParam(mode rune, enable bool) bool {
	switch mode {
	case 'k', 'o':
		return true
	case 'l':
		return enable
	}
	return false
}

// ApplyModes walks a mode string such as "+it-k+l" left to right, consuming
// arguments for parametrized letters in order. Every real change is
// broadcast on its own; failures are collected and processing continues.
func (m *ChannelManager) ApplyModes(actor *Client, name, modes string, params []string) []error {
	ch, ok := m.Get(name)
	if !ok {
		return []error{ErrNoSuchChannel(name)}
	}
	if !ch.IsOperator(actor.ID) {
		return []error{ErrChanOpPrivsNeeded(ch.Name)}
	}
	var errs []error
	enable := true
	for _, mode := range modes {
		switch mode {
		case '+':
			enable = true
			continue
		case '-':
			enable = false
			continue
		}
		var param string
		if modeTakesParam(mode, enable) {
			if len(params) == 0 {
				if mode != 'k' || enable {
					errs = append(errs, ErrNeedMoreParams("MODE"))
					continue
				}
			} else {
				param, params = params[0], params[1:]
			}
		}
		changed, err := m.setMode(ch, enable, mode, param)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			m.Broadcast(ch, modeLine(actor, ch, enable, mode, param), 0)
		}
	}
	return errs
}

func modeLine(actor *Client, ch *Channel, enable bool, mode rune, param string) string {
	sign := "-"
	if enable {
		sign = "+"
	}
	change := sign + string(mode)
	if mode == 'k' && !enable || param == "" {
		return proto.Relay(actor.Prefix(), "MODE", ch.Name, change)
	}
	return proto.Relay(actor.Prefix(), "MODE", ch.Name, change, param)
}

// SendModes answers a mode query with 324 and 329. Key and limit values are
// shown to members only.
func (m *ChannelManager) SendModes(c *Client, name string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	modes, args := ch.ModeString(ch.IsMember(c.ID))
	params := append([]string{ch.Name, modes}, args...)
	m.out.Send(c.ID, proto.ReplyPlain(m.opts.ServerName, proto.RplChannelModeIs, c.Nick, params...))
	created := strconv.FormatInt(ch.CreatedAt.Unix(), 10)
	m.out.Send(c.ID, proto.ReplyPlain(m.opts.ServerName, proto.RplCreationTime, c.Nick, ch.Name, created))
	return nil
}

// Names sends the member list of a channel, or only the end marker when the
// channel does not exist.
func (m *ChannelManager) Names(c *Client, name string) {
	if ch, ok := m.Get(name); ok {
		m.sendNames(c, ch)
		return
	}
	m.out.Send(c.ID, proto.Reply(m.opts.ServerName, proto.RplEndOfNames, c.Nick, name, proto.RplEndOfNames.Text()))
}

// List sends one 322 line per channel followed by 323. An empty filter lists everything.
func (m *ChannelManager) List(c *Client, filter []string) {
	send := func(ch *Channel) {
		count := strconv.Itoa(ch.MemberCount())
		m.out.Send(c.ID, proto.Reply(m.opts.ServerName, proto.RplList, c.Nick, ch.Name, count, ch.Topic))
	}
	if len(filter) == 0 {
		m.Each(send)
	} else {
		for _, name := range filter {
			if ch, ok := m.Get(name); ok {
				send(ch)
			}
		}
	}
	m.out.Send(c.ID, proto.Reply(m.opts.ServerName, proto.RplListEnd, c.Nick, proto.RplListEnd.Text()))
}

// Privmsg relays a PRIVMSG or NOTICE to every member but the sender.
func (m *ChannelManager) Privmsg(c *Client, command, name, text string) error {
	ch, ok := m.Get(name)
	if !ok {
		return ErrNoSuchChannel(name)
	}
	if !ch.IsMember(c.ID) {
		return ErrCannotSendToChan(ch.Name)
	}
	m.Broadcast(ch, proto.RelayText(c.Prefix(), command, ch.Name, text), c.ID)
	return nil
}

// Broadcast sends line to every member except the given ID. Zero excludes nobody.
func (m *ChannelManager) Broadcast(ch *Channel, line string, except ClientID) {
	for _, id := range ch.Members() {
		if id != except {
			m.out.Send(id, line)
		}
	}
}

// Peers returns the distinct clients sharing at least one channel with c.
func (m *ChannelManager) Peers(c *Client) []ClientID {
	seen := make(map[ClientID]struct{})
	for key := range c.Channels {
		ch, ok := m.channels[key]
		if !ok {
			continue
		}
		for id := range ch.members {
			if id != c.ID {
				seen[id] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// SendToPeers delivers line once to every peer of c, and to c when self is set.
func (m *ChannelManager) SendToPeers(c *Client, line string, self bool) {
	if self {
		m.out.Send(c.ID, line)
	}
	for _, id := range m.Peers(c) {
		m.out.Send(id, line)
	}
}

// AnnounceQuit tells c and its peers about the departure. It runs at most once
// per client.
func (m *ChannelManager) AnnounceQuit(c *Client, reason string) {
	if c.quitAnnounced {
		return
	}
	c.quitAnnounced = true
	m.SendToPeers(c, proto.RelayText(c.Prefix(), "QUIT", reason), c.Registered && !c.Closed())
}

// RemoveFromAll detaches c from every channel without notifications. It is
// the last step before the client is destroyed.
func (m *ChannelManager) RemoveFromAll(c *Client) {
	for key := range c.Channels {
		if ch, ok := m.channels[key]; ok {
			m.detach(ch, c)
		} else {
			delete(c.Channels, key)
		}
	}
}

// detach drops membership from both sides and destroys the channel once empty.
func (m *ChannelManager) detach(ch *Channel, c *Client) {
	ch.removeMember(c.ID)
	delete(c.Channels, ch.key)
	if ch.Empty() {
		delete(m.channels, ch.key)
	}
}

func (m *ChannelManager) sendTopic(c *Client, ch *Channel) {
	server := m.opts.ServerName
	if ch.Topic == "" {
		m.out.Send(c.ID, proto.Reply(server, proto.RplNoTopic, c.Nick, ch.Name, proto.RplNoTopic.Text()))
		return
	}
	m.out.Send(c.ID, proto.Reply(server, proto.RplTopic, c.Nick, ch.Name, ch.Topic))
	setAt := strconv.FormatInt(ch.TopicTime.Unix(), 10)
	m.out.Send(c.ID, proto.ReplyPlain(server, proto.RplTopicWhoTime, c.Nick, ch.Name, ch.TopicAuthor, setAt))
}

func (m *ChannelManager) sendNames(c *Client, ch *Channel) {
	names := make([]string, 0, ch.MemberCount())
	for _, id := range ch.Members() {
		member, ok := m.clients.Get(id)
		if !ok {
			continue
		}
		if ch.IsOperator(id) {
			names = append(names, "@"+member.Nick)
		} else {
			names = append(names, member.Nick)
		}
	}
	server := m.opts.ServerName
	m.out.Send(c.ID, proto.Reply(server, proto.RplNamReply, c.Nick, "=", ch.Name, strings.Join(names, " ")))
	m.out.Send(c.ID, proto.Reply(server, proto.RplEndOfNames, c.Nick, ch.Name, proto.RplEndOfNames.Text()))
}
