package command

import (
	"maps"
	"slices"
	"strings"

	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/proto"
)

func (r *Runner) handleJoin(req *request) error {
	c := req.client
	if req.params[0] == "0" {
		r.deps.Channels.PartAll(c, "")
		return nil
	}
	var keys []string
	if len(req.params) > 1 {
		keys = strings.Split(req.params[1], ",")
	}
	for i, name := range strings.Split(req.params[0], ",") {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		if err := r.deps.Channels.Join(c, name, key); err != nil {
			r.fail(req, err)
		}
	}
	return nil
}

func (r *Runner) handlePart(req *request) error {
	reason := ""
	if len(req.params) > 1 {
		reason = req.params[1]
	}
	for _, name := range strings.Split(req.params[0], ",") {
		if err := r.deps.Channels.Part(req.client, name, reason); err != nil {
			r.fail(req, err)
		}
	}
	return nil
}

// handleKick accepts one channel with a list of nicknames, or equally long
// lists of channels and nicknames paired in order.
func (r *Runner) handleKick(req *request) error {
	channels := strings.Split(req.params[0], ",")
	nicks := strings.Split(req.params[1], ",")
	if len(channels) != 1 && len(channels) != len(nicks) {
		return core.ErrNeedMoreParams(req.command)
	}
	reason := ""
	if len(req.params) > 2 {
		reason = req.params[2]
	}
	for i, nick := range nicks {
		name := channels[0]
		if len(channels) > 1 {
			name = channels[i]
		}
		if err := r.deps.Channels.Kick(req.client, name, nick, reason); err != nil {
			r.fail(req, err)
		}
	}
	return nil
}

func (r *Runner) handleTopic(req *request) error {
	if len(req.params) == 1 {
		return r.deps.Channels.Topic(req.client, req.params[0])
	}
	return r.deps.Channels.SetTopic(req.client, req.params[0], req.params[1])
}

func (r *Runner) handleMode(req *request) error {
	target := req.params[0]
	if !proto.IsChannel(target) {
		return r.userMode(req)
	}
	if len(req.params) == 1 {
		return r.deps.Channels.SendModes(req.client, target)
	}
	for _, err := range r.deps.Channels.ApplyModes(req.client, target, req.params[1], req.params[2:]) {
		r.fail(req, err)
	}
	return nil
}

// userMode handles MODE for a nickname. Only +i/-i on oneself is supported.
func (r *Runner) userMode(req *request) error {
	c := req.client
	target, ok := r.deps.Clients.ByNick(req.params[0])
	if !ok {
		return core.ErrNoSuchNick(req.params[0])
	}
	if target.ID != c.ID {
		return errUsersDontMatch()
	}
	if len(req.params) == 1 {
		modes := "+"
		if c.Invisible {
			modes += "i"
		}
		r.deps.Out.Send(c.ID, proto.ReplyPlain(r.deps.Info.ServerName, proto.RplUModeIs, c.Nick, modes))
		return nil
	}
	enable, unknown := true, false
	var changes []byte
	for _, m := range req.params[1] {
		switch m {
		case '+':
			enable = true
		case '-':
			enable = false
		case 'i':
			if c.Invisible != enable {
				c.Invisible = enable
				changes = appendChange(changes, enable, 'i')
			}
		default:
			unknown = true
		}
	}
	if len(changes) > 0 {
		r.deps.Out.Send(c.ID, proto.Relay(c.Prefix(), "MODE", c.Nick, string(changes)))
	}
	if unknown {
		return errUModeUnknownFlag()
	}
	return nil
}

// appendChange appends a mode letter, writing the sign only when it differs
// from the last one written.
func appendChange(changes []byte, enable bool, letter byte) []byte {
	sign := byte('-')
	if enable {
		sign = '+'
	}
	last := byte(0)
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i] == '+' || changes[i] == '-' {
			last = changes[i]
			break
		}
	}
	if last != sign {
		changes = append(changes, sign)
	}
	return append(changes, letter)
}

func (r *Runner) handleInvite(req *request) error {
	return r.deps.Channels.Invite(req.client, req.params[0], req.params[1])
}

func (r *Runner) handleNames(req *request) error {
	c := req.client
	if len(req.params) == 0 {
		if len(c.Channels) == 0 {
			r.deps.Channels.Names(c, "*")
			return nil
		}
		for _, key := range slices.Sorted(maps.Keys(c.Channels)) {
			r.deps.Channels.Names(c, key)
		}
		return nil
	}
	for _, name := range strings.Split(req.params[0], ",") {
		r.deps.Channels.Names(c, name)
	}
	return nil
}

func (r *Runner) handleList(req *request) error {
	var filter []string
	if len(req.params) > 0 {
		filter = strings.Split(req.params[0], ",")
	}
	r.deps.Channels.List(req.client, filter)
	return nil
}
