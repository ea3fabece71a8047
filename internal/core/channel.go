package core

import (
	"maps"
	"slices"
	"strconv"
	"time"
)

// Mode is the set of channel-wide flags.
type Mode uint8

const (
	ModeInviteOnly Mode = 1 << iota
	ModeTopicProtected
	ModeKey
	ModeLimit
)

// modeLetters lists channel-wide flags in display order.
var modeLetters = []struct {
	mode   Mode
	letter byte
}{
	{ModeInviteOnly, 'i'},
	{ModeTopicProtected, 't'},
	{ModeKey, 'k'},
	{ModeLimit, 'l'},
}

// Channel groups members sharing broadcasts. Members are client IDs resolved
// through ClientIndex; a Channel never holds a *Client.
type Channel struct {
	Name      string
	CreatedAt time.Time

	Topic       string
	TopicAuthor string
	TopicTime   time.Time

	Key   string
	Limit int

	key     string
	modes   Mode
	members map[ClientID]struct{}
	ops     map[ClientID]struct{}
	invites map[ClientID]struct{}
}

func newChannel(name, key string, now time.Time) *Channel {
	return &Channel{
		Name:      name,
		CreatedAt: now,
		key:       key,
		members:   make(map[ClientID]struct{}),
		ops:       make(map[ClientID]struct{}),
		invites:   make(map[ClientID]struct{}),
	}
}

// LookupKey returns the casemapped name the channel is indexed by.
func (ch *Channel) LookupKey() string { return ch.key }

// Has reports whether the channel-wide flag m is set.
func (ch *Channel) Has(m Mode) bool { return ch.modes&m != 0 }

func (ch *Channel) set(m Mode, on bool) {
	if on {
		ch.modes |= m
	} else {
		ch.modes &^= m
	}
}

// IsMember reports whether id belongs to the channel.
func (ch *Channel) IsMember(id ClientID) bool {
	_, ok := ch.members[id]
	return ok
}

// IsOperator reports whether id holds operator status.
func (ch *Channel) IsOperator(id ClientID) bool {
	_, ok := ch.ops[id]
	return ok
}

// IsInvited reports whether id has a pending invitation.
func (ch *Channel) IsInvited(id ClientID) bool {
	_, ok := ch.invites[id]
	return ok
}

// MemberCount returns the number of members.
func (ch *Channel) MemberCount() int { return len(ch.members) }

// Members returns member IDs in ascending order.
func (ch *Channel) Members() []ClientID {
	return slices.Sorted(maps.Keys(ch.members))
}

// Empty reports whether the channel has no members left.
func (ch *Channel) Empty() bool { return len(ch.members) == 0 }

func (ch *Channel) addMember(id ClientID) {
	ch.members[id] = struct{}{}
	delete(ch.invites, id)
}

func (ch *Channel) removeMember(id ClientID) {
	delete(ch.members, id)
	delete(ch.ops, id)
}

func (ch *Channel) setOperator(id ClientID, on bool) {
	if on {
		ch.ops[id] = struct{}{}
	} else {
		delete(ch.ops, id)
	}
}

// ModeString renders the flag set as "+itkl". Key and limit arguments are
// appended when withArgs is set.
func (ch *Channel) ModeString(withArgs bool) (string, []string) {
	s := []byte{'+'}
	var args []string
	for _, ml := range modeLetters {
		if !ch.Has(ml.mode) {
			continue
		}
		s = append(s, ml.letter)
		if !withArgs {
			continue
		}
		switch ml.mode {
		case ModeKey:
			args = append(args, ch.Key)
		case ModeLimit:
			args = append(args, strconv.Itoa(ch.Limit))
		}
	}
	return string(s), args
}
