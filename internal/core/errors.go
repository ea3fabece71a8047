package core

import (
	"strings"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// Error is an expected failure of a command, carried back to the client as one
// numeric reply: ":<server> <Numeric> <nick> <Args...> :<Text>".
type Error struct {
	Numeric proto.Numeric
	Args    []string
	Text    string
}

func (e *Error) Error() string {
	parts := append([]string{e.Numeric.String()}, e.Args...)
	return strings.Join(parts, " ") + ": " + e.Text
}

func coreError(code proto.Numeric, args ...string) *Error {
	return &Error{Numeric: code, Args: args, Text: code.Text()}
}

func ErrNoSuchNick(nick string) *Error { return coreError(proto.ErrNoSuchNick, nick) }

func ErrNoSuchChannel(name string) *Error { return coreError(proto.ErrNoSuchChannel, name) }

func ErrCannotSendToChan(name string) *Error { return coreError(proto.ErrCannotSendToChan, name) }

func ErrTooManyChannels(name string) *Error { return coreError(proto.ErrTooManyChannels, name) }

func ErrNicknameInUse(nick string) *Error { return coreError(proto.ErrNicknameInUse, nick) }

func ErrUserNotInChannel(nick, name string) *Error {
	return coreError(proto.ErrUserNotInChannel, nick, name)
}

func ErrNotOnChannel(name string) *Error { return coreError(proto.ErrNotOnChannel, name) }

func ErrUserOnChannel(nick, name string) *Error {
	return coreError(proto.ErrUserOnChannel, nick, name)
}

func ErrNeedMoreParams(command string) *Error { return coreError(proto.ErrNeedMoreParams, command) }

func ErrChannelIsFull(name string) *Error { return coreError(proto.ErrChannelIsFull, name) }

func ErrUnknownMode(mode rune, name string) *Error {
	e := coreError(proto.ErrUnknownMode, string(mode))
	e.Text = "is unknown mode char to me for " + name
	return e
}

func ErrInviteOnlyChan(name string) *Error { return coreError(proto.ErrInviteOnlyChan, name) }

func ErrBadChannelKey(name string) *Error { return coreError(proto.ErrBadChannelKey, name) }

func ErrBadChanMask(name string) *Error { return coreError(proto.ErrBadChanMask, name) }

func ErrChanOpPrivsNeeded(name string) *Error { return coreError(proto.ErrChanOpPrivsNeeded, name) }

func ErrInvalidKey(name string) *Error { return coreError(proto.ErrInvalidKey, name) }

func ErrInvalidModeParam(name string, mode rune, param string) *Error {
	return coreError(proto.ErrInvalidModeParam, name, string(mode), param)
}
