package command

import (
	"strings"

	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/proto"
)

// handleMessage delivers PRIVMSG and NOTICE to channels and nicknames.
// Targets were deduplicated and counted by the validator.
func (r *Runner) handleMessage(req *request) error {
	c := req.client
	text := req.params[1]
	if text == "" {
		return errNoTextToSend()
	}
	for _, target := range strings.Split(req.params[0], ",") {
		if err := r.deliver(c, req.command, target, text); err != nil {
			r.fail(req, err)
		}
	}
	return nil
}

func (r *Runner) deliver(c *core.Client, command, target, text string) error {
	if proto.IsChannel(target) {
		return r.deps.Channels.Privmsg(c, command, target, text)
	}
	peer, ok := r.deps.Clients.ByNick(target)
	if !ok || !peer.Registered {
		return core.ErrNoSuchNick(target)
	}
	r.deps.Out.Send(peer.ID, proto.RelayText(c.Prefix(), command, peer.Nick, text))
	return nil
}
