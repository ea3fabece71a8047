package proto

import "strconv"

// Numeric is a three-digit reply code.
type Numeric uint16

const (
	RplWelcome       Numeric = 1
	RplYourHost      Numeric = 2
	RplCreated       Numeric = 3
	RplMyInfo        Numeric = 4
	RplUModeIs       Numeric = 221
	RplList          Numeric = 322
	RplListEnd       Numeric = 323
	RplChannelModeIs Numeric = 324
	RplCreationTime  Numeric = 329
	RplNoTopic       Numeric = 331
	RplTopic         Numeric = 332
	RplTopicWhoTime  Numeric = 333
	RplInviting      Numeric = 341
	RplNamReply      Numeric = 353
	RplEndOfNames    Numeric = 366
	RplMotd          Numeric = 372
	RplMotdStart     Numeric = 375
	RplEndOfMotd     Numeric = 376

	ErrNoSuchNick        Numeric = 401
	ErrNoSuchChannel     Numeric = 403
	ErrCannotSendToChan  Numeric = 404
	ErrTooManyChannels   Numeric = 405
	ErrTooManyTargets    Numeric = 407
	ErrNoOrigin          Numeric = 409
	ErrInvalidCapCmd     Numeric = 410
	ErrNoRecipient       Numeric = 411
	ErrNoTextToSend      Numeric = 412
	ErrUnknownCommand    Numeric = 421
	ErrNoMotd            Numeric = 422
	ErrNoNicknameGiven   Numeric = 431
	ErrErroneusNickname  Numeric = 432
	ErrNicknameInUse     Numeric = 433
	ErrUserNotInChannel  Numeric = 441
	ErrNotOnChannel      Numeric = 442
	ErrUserOnChannel     Numeric = 443
	ErrNotRegistered     Numeric = 451
	ErrNeedMoreParams    Numeric = 461
	ErrAlreadyRegistered Numeric = 462
	ErrPasswdMismatch    Numeric = 464
	ErrInvalidUsername   Numeric = 468
	ErrChannelIsFull     Numeric = 471
	ErrUnknownMode       Numeric = 472
	ErrInviteOnlyChan    Numeric = 473
	ErrBadChannelKey     Numeric = 475
	ErrBadChanMask       Numeric = 476
	ErrChanOpPrivsNeeded Numeric = 482
	ErrUModeUnknownFlag  Numeric = 501
	ErrUsersDontMatch    Numeric = 502
	ErrInvalidKey        Numeric = 525
	ErrInvalidModeParam  Numeric = 696
)

var numericText = map[Numeric]string{
	RplNoTopic:    "No topic is set",
	RplEndOfNames: "End of /NAMES list",
	RplEndOfMotd:  "End of /MOTD command",
	RplListEnd:    "End of /LIST",

	ErrNoSuchNick:        "No such nick/channel",
	ErrNoSuchChannel:     "No such channel",
	ErrCannotSendToChan:  "Cannot send to channel",
	ErrTooManyChannels:   "You have joined too many channels",
	ErrTooManyTargets:    "Too many recipients",
	ErrNoOrigin:          "No origin specified",
	ErrInvalidCapCmd:     "Invalid CAP command",
	ErrNoRecipient:       "No recipient given",
	ErrNoTextToSend:      "No text to send",
	ErrUnknownCommand:    "Unknown command",
	ErrNoMotd:            "MOTD File is missing",
	ErrNoNicknameGiven:   "No nickname given",
	ErrErroneusNickname:  "Erroneous nickname",
	ErrNicknameInUse:     "Nickname is already in use",
	ErrUserNotInChannel:  "They aren't on that channel",
	ErrNotOnChannel:      "You're not on that channel",
	ErrUserOnChannel:     "is already on channel",
	ErrNotRegistered:     "You have not registered",
	ErrNeedMoreParams:    "Not enough parameters",
	ErrAlreadyRegistered: "You may not reregister",
	ErrPasswdMismatch:    "Password incorrect",
	ErrInvalidUsername:   "Your username is not valid",
	ErrChannelIsFull:     "Cannot join channel (+l)",
	ErrUnknownMode:       "is unknown mode char to me",
	ErrInviteOnlyChan:    "Cannot join channel (+i)",
	ErrBadChannelKey:     "Cannot join channel (+k)",
	ErrBadChanMask:       "Bad Channel Mask",
	ErrChanOpPrivsNeeded: "You're not channel operator",
	ErrUModeUnknownFlag:  "Unknown MODE flag",
	ErrUsersDontMatch:    "Cant change mode for other users",
	ErrInvalidKey:        "Key is not well-formed",
	ErrInvalidModeParam:  "Invalid mode parameter",
}

// String returns the zero-padded wire form, e.g. "001".
func (n Numeric) String() string {
	s := strconv.Itoa(int(n))
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// Text returns the default human-readable text for n.
func (n Numeric) Text() string {
	return numericText[n]
}

// IsError reports whether n is in the error range.
func (n Numeric) IsError() bool {
	return n >= 400 && n < 600 || n == ErrInvalidModeParam
}

// Reply formats ":<server> <code> <target> <params...>" with the last parameter trailing.
func Reply(server string, code Numeric, target string, params ...string) string {
	return Message{
		Source:   server,
		Command:  code.String(),
		Params:   append([]string{target}, params...),
		Trailing: len(params) > 0,
	}.String()
}

// ReplyPlain is Reply without forcing a trailing parameter.
func ReplyPlain(server string, code Numeric, target string, params ...string) string {
	return Message{
		Source:  server,
		Command: code.String(),
		Params:  append([]string{target}, params...),
	}.String()
}
