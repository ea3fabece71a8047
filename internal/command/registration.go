package command

import (
	"strings"
	"time"

	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/proto"
)

// Mode letters advertised in RPL_MYINFO.
const (
	userModes         = "i"
	channelModes      = "iklot"
	channelParamModes = "klo"
)

func (r *Runner) handlePass(req *request) error {
	c := req.client
	if c.PasswordVerified {
		return nil
	}
	if !r.deps.Password.Verify(req.params[0]) {
		return errPasswdMismatch()
	}
	c.PasswordVerified = true
	r.tryRegister(c)
	return nil
}

func (r *Runner) handleNick(req *request) error {
	c := req.client
	nick := req.params[0]
	if nick == c.Nick {
		return nil
	}
	oldPrefix := c.Prefix()
	if err := r.deps.Clients.SetNick(c, nick); err != nil {
		return err
	}
	if c.Registered {
		r.deps.Channels.SendToPeers(c, proto.Relay(oldPrefix, "NICK", nick), true)
		return nil
	}
	r.tryRegister(c)
	return nil
}

func (r *Runner) handleUser(req *request) error {
	c := req.client
	c.User = req.params[0]
	c.RealName = req.params[3]
	r.tryRegister(c)
	return nil
}

// tryRegister completes registration once the password is verified and both
// nickname and username are known.
func (r *Runner) tryRegister(c *core.Client) {
	if c.Registered || !c.PasswordVerified || !c.HasNick() || c.User == "" {
		return
	}
	c.Registered = true
	r.log.Info().Uint64("client", uint64(c.ID)).Str("nick", c.Nick).Str("user", c.User).Msg("client registered")

	info := r.deps.Info
	r.numeric(c, proto.RplWelcome, "Welcome to the "+info.Network+" Network, "+c.Prefix())
	r.numeric(c, proto.RplYourHost, "Your host is "+info.ServerName+", running version "+info.Version)
	r.numeric(c, proto.RplCreated, "This server was created "+info.Created.UTC().Format(time.RFC1123))
	r.deps.Out.Send(c.ID, proto.ReplyPlain(info.ServerName, proto.RplMyInfo, c.Nick,
		info.ServerName, info.Version, userModes, channelModes, channelParamModes))
	r.sendMotd(c)
}

func (r *Runner) sendMotd(c *core.Client) {
	info := r.deps.Info
	if len(info.MOTD) == 0 {
		r.numeric(c, proto.ErrNoMotd, proto.ErrNoMotd.Text())
		return
	}
	r.numeric(c, proto.RplMotdStart, "- "+info.ServerName+" Message of the day - ")
	for _, line := range info.MOTD {
		r.numeric(c, proto.RplMotd, "- "+line)
	}
	r.numeric(c, proto.RplEndOfMotd, proto.RplEndOfMotd.Text())
}

func (r *Runner) handleMotd(req *request) error {
	r.sendMotd(req.client)
	return nil
}

func (r *Runner) handleQuit(req *request) error {
	c := req.client
	reason := "Client Quit"
	if len(req.params) > 0 && req.params[0] != "" {
		reason = req.params[0]
	}
	reason = "Quit: " + reason
	r.deps.Channels.AnnounceQuit(c, reason)
	r.deps.Drop.MarkForDisconnection(c, reason)
	return nil
}

// handleCap implements enough of capability negotiation for clients that
// start with CAP LS: nothing is offered and every request is refused.
func (r *Runner) handleCap(req *request) error {
	c := req.client
	server := r.deps.Info.ServerName
	sub := strings.ToUpper(req.params[0])
	switch sub {
	case "LS", "LIST":
		r.deps.Out.Send(c.ID, proto.RelayText(server, "CAP", c.Nick, sub, ""))
	case "REQ":
		requested := ""
		if len(req.params) > 1 {
			requested = req.params[len(req.params)-1]
		}
		r.deps.Out.Send(c.ID, proto.RelayText(server, "CAP", c.Nick, "NAK", requested))
	case "END":
	default:
		return errInvalidCapCmd(req.params[0])
	}
	return nil
}

func (r *Runner) handlePing(req *request) error {
	server := r.deps.Info.ServerName
	r.deps.Out.Send(req.client.ID, proto.RelayText(server, "PONG", server, req.params[0]))
	return nil
}

func (r *Runner) handlePong(req *request) error {
	token := req.params[len(req.params)-1]
	r.deps.Pongs.HandlePongFromClient(req.client, token)
	return nil
}
