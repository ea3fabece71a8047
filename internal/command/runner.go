// Package command validates and dispatches client commands against the
// client and channel registries.
package command

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/metrics"
	"github.com/vovakirdan/ircserv/internal/proto"
)

// Outbox delivers one line to a client.
type Outbox interface {
	Send(id core.ClientID, line string)
}

// Disconnector queues a client for the disconnect sweep.
type Disconnector interface {
	MarkForDisconnection(c *core.Client, reason string)
}

// PongHandler consumes PONG tokens.
type PongHandler interface {
	HandlePongFromClient(c *core.Client, token string) bool
}

// PasswordChecker verifies the connection password.
type PasswordChecker interface {
	Verify(candidate string) bool
}

// Info describes the server in welcome and MOTD replies.
type Info struct {
	ServerName string
	Network    string
	Version    string
	Created    time.Time
	MOTD       []string
	MaxTargets int
}

// Deps are the collaborators handlers act on.
type Deps struct {
	Clients  *core.ClientIndex
	Channels *core.ChannelManager
	Out      Outbox
	Drop     Disconnector
	Pongs    PongHandler
	Password PasswordChecker
	Info     Info
	Flood    FloodLimit
	Clock    clockwork.Clock
	Metrics  *metrics.CommandMetrics
	Logger   *zerolog.Logger
}

// access is the registration state a command requires.
type access uint8

const (
	// accessAlways commands run in any state.
	accessAlways access = iota
	// accessVerified commands need a verified password.
	accessVerified
	// accessRegistered commands need completed registration.
	accessRegistered
)

type handlerFunc func(r *Runner, req *request) error

// commandSpec declares how one command is checked before its handler runs.
type commandSpec struct {
	run    handlerFunc
	access access

	// onceOnly commands are refused after registration.
	onceOnly bool

	min    int
	max    int
	params []paramKind

	// tooFew overrides the reply for a short parameter list.
	tooFew func(cmd string, got int) *core.Error

	// silent commands never produce error replies.
	silent bool
}

type request struct {
	client  *core.Client
	command string
	params  []string
	spec    *commandSpec
}

// Runner owns the dispatch table. The table is built once and never changes.
type Runner struct {
	deps  Deps
	table map[string]*commandSpec
	clock clockwork.Clock
	log   *zerolog.Logger
}

// NewRunner builds a runner over deps.
func NewRunner(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{deps: deps, table: newTable(), clock: clock, log: logger}
}

func newTable() map[string]*commandSpec {
	needMore := func(kind proto.Numeric) func(string, int) *core.Error {
		return func(string, int) *core.Error { return numericErr(kind) }
	}
	messageTooFew := func(cmd string, got int) *core.Error {
		if got == 0 {
			return errNoRecipient(cmd)
		}
		return errNoTextToSend()
	}
	return map[string]*commandSpec{
		"PASS": {run: (*Runner).handlePass, access: accessAlways, onceOnly: true, min: 1, max: 1, params: []paramKind{paramPassword}},
		"QUIT": {run: (*Runner).handleQuit, access: accessAlways, min: 0, max: 1, params: []paramKind{paramText}},
		"CAP":  {run: (*Runner).handleCap, access: accessAlways, min: 1, max: 3},
		"NICK": {run: (*Runner).handleNick, access: accessVerified, min: 1, max: 1, params: []paramKind{paramNickname}, tooFew: needMore(proto.ErrNoNicknameGiven)},
		"USER": {run: (*Runner).handleUser, access: accessVerified, onceOnly: true, min: 4, max: 4, params: []paramKind{paramUsername, paramAny, paramAny, paramText}},
		"PONG": {run: (*Runner).handlePong, access: accessVerified, min: 1, max: 2, tooFew: needMore(proto.ErrNoOrigin)},

		"PING":    {run: (*Runner).handlePing, access: accessRegistered, min: 1, max: 2, tooFew: needMore(proto.ErrNoOrigin)},
		"MOTD":    {run: (*Runner).handleMotd, access: accessRegistered, min: 0, max: 1},
		"JOIN":    {run: (*Runner).handleJoin, access: accessRegistered, min: 1, max: 2, params: []paramKind{paramJoinChannels, paramKey}},
		"PART":    {run: (*Runner).handlePart, access: accessRegistered, min: 1, max: 2, params: []paramKind{paramChannel, paramText}},
		"KICK":    {run: (*Runner).handleKick, access: accessRegistered, min: 2, max: 3, params: []paramKind{paramChannel, paramAny, paramText}},
		"TOPIC":   {run: (*Runner).handleTopic, access: accessRegistered, min: 1, max: 2, params: []paramKind{paramChannel, paramTopic}},
		"MODE":    {run: (*Runner).handleMode, access: accessRegistered, min: 1, max: 5},
		"INVITE":  {run: (*Runner).handleInvite, access: accessRegistered, min: 2, max: 2, params: []paramKind{paramNickname, paramChannel}},
		"NAMES":   {run: (*Runner).handleNames, access: accessRegistered, min: 0, max: 1, params: []paramKind{paramChannel}},
		"LIST":    {run: (*Runner).handleList, access: accessRegistered, min: 0, max: 1, params: []paramKind{paramChannel}},
		"PRIVMSG": {run: (*Runner).handleMessage, access: accessRegistered, min: 2, max: 2, params: []paramKind{paramTargets, paramText}, tooFew: messageTooFew},
		"NOTICE":  {run: (*Runner).handleMessage, access: accessRegistered, min: 2, max: 2, params: []paramKind{paramTargets, paramText}, tooFew: messageTooFew, silent: true},
	}
}

// HandleLine parses one raw line and runs it for c.
func (r *Runner) HandleLine(c *core.Client, line string) {
	r.Run(c, proto.Parse(line))
}

// Run checks the flood limit, access and parameters, then dispatches msg. An
// empty command is ignored. Command names match exactly.
func (r *Runner) Run(c *core.Client, msg proto.Message) {
	if msg.Command == "" || c.Disconnecting() {
		return
	}
	if r.flooding(c) {
		r.log.Info().Uint64("client", uint64(c.ID)).Str("nick", c.Nick).Msg("excess flood")
		r.deps.Drop.MarkForDisconnection(c, reasonFlood)
		return
	}
	spec, ok := r.table[msg.Command]
	if !ok {
		if !c.Registered {
			r.reply(c, errNotRegistered())
		} else {
			r.reply(c, errUnknownCommand(msg.Command))
		}
		return
	}
	req := &request{client: c, command: msg.Command, params: append([]string(nil), msg.Params...), spec: spec}

	if err := authorize(c, spec); err != nil {
		r.fail(req, err)
		return
	}
	if len(req.params) < spec.min {
		if spec.tooFew != nil {
			r.fail(req, spec.tooFew(req.command, len(req.params)))
		} else {
			r.fail(req, core.ErrNeedMoreParams(req.command))
		}
		return
	}
	if len(req.params) > spec.max {
		req.params = req.params[:spec.max]
	}
	for i, kind := range spec.params {
		if i >= len(req.params) {
			break
		}
		p, err := r.validate(req.command, kind, req.params[i])
		if err != nil {
			r.fail(req, err)
			return
		}
		req.params[i] = p
	}

	r.deps.Metrics.Dispatched(req.command)
	if err := spec.run(r, req); err != nil {
		r.fail(req, err)
	}
}

// authorize applies the registration state machine.
func authorize(c *core.Client, spec *commandSpec) *core.Error {
	switch {
	case spec.onceOnly && c.Registered:
		return errAlreadyRegistered()
	case spec.access == accessAlways:
		return nil
	case !c.PasswordVerified:
		return errNotRegistered()
	case spec.access == accessVerified:
		return nil
	case !c.Registered:
		return errNotRegistered()
	}
	return nil
}

// fail reports err to the client unless the command is silent.
func (r *Runner) fail(req *request, err error) {
	e, ok := err.(*core.Error)
	if !ok {
		r.log.Error().Err(err).Str("command", req.command).Msg("command failed")
		return
	}
	r.log.Debug().Uint64("client", uint64(req.client.ID)).Str("command", req.command).Str("numeric", e.Numeric.String()).Msg("command rejected")
	if req.spec != nil && req.spec.silent {
		return
	}
	r.reply(req.client, e)
}

func (r *Runner) reply(c *core.Client, e *core.Error) {
	r.deps.Metrics.Failed(e.Numeric.String())
	params := append(append([]string(nil), e.Args...), e.Text)
	r.deps.Out.Send(c.ID, proto.Reply(r.deps.Info.ServerName, e.Numeric, c.Nick, params...))
}

// numeric sends one reply to c with the last parameter trailing.
func (r *Runner) numeric(c *core.Client, code proto.Numeric, params ...string) {
	r.deps.Out.Send(c.ID, proto.Reply(r.deps.Info.ServerName, code, c.Nick, params...))
}
