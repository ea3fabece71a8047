package command

import (
	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/proto"
)

func numericErr(code proto.Numeric, args ...string) *core.Error {
	return &core.Error{Numeric: code, Args: args, Text: code.Text()}
}

func errNotRegistered() *core.Error { return numericErr(proto.ErrNotRegistered) }

func errAlreadyRegistered() *core.Error { return numericErr(proto.ErrAlreadyRegistered) }

func errUnknownCommand(cmd string) *core.Error { return numericErr(proto.ErrUnknownCommand, cmd) }

func errPasswdMismatch() *core.Error { return numericErr(proto.ErrPasswdMismatch) }

func errNoNicknameGiven() *core.Error { return numericErr(proto.ErrNoNicknameGiven) }

func errErroneusNickname(nick string) *core.Error {
	return numericErr(proto.ErrErroneusNickname, nick)
}

func errInvalidUsername() *core.Error { return numericErr(proto.ErrInvalidUsername) }

func errNoRecipient(cmd string) *core.Error {
	e := numericErr(proto.ErrNoRecipient)
	e.Text += " (" + cmd + ")"
	return e
}

func errNoTextToSend() *core.Error { return numericErr(proto.ErrNoTextToSend) }

func errTooManyTargets(target string) *core.Error {
	return numericErr(proto.ErrTooManyTargets, target)
}

func errNoOrigin() *core.Error { return numericErr(proto.ErrNoOrigin) }

func errInvalidCapCmd(sub string) *core.Error { return numericErr(proto.ErrInvalidCapCmd, sub) }

func errUModeUnknownFlag() *core.Error { return numericErr(proto.ErrUModeUnknownFlag) }

func errUsersDontMatch() *core.Error { return numericErr(proto.ErrUsersDontMatch) }
