package command

import (
	"strings"

	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/proto"
)

// paramKind selects the validator applied to one parameter position.
type paramKind uint8

const (
	paramAny paramKind = iota
	paramNickname
	paramChannel
	paramJoinChannels
	paramTopic
	paramUsername
	paramKey
	paramPassword
	paramText
	paramTargets
)

// validate checks one parameter and returns it, possibly rewritten.
func (r *Runner) validate(cmd string, kind paramKind, p string) (string, *core.Error) {
	switch kind {
	case paramNickname:
		if !proto.ValidNick(p) {
			return "", errErroneusNickname(p)
		}
	case paramChannel:
		for _, name := range strings.Split(p, ",") {
			if !proto.ValidChannel(name) {
				return "", core.ErrBadChanMask(name)
			}
		}
	case paramJoinChannels:
		if p == "0" {
			return p, nil
		}
		return r.validate(cmd, paramChannel, p)
	case paramTopic:
		return proto.SanitizeText(p, proto.MaxTopicLen), nil
	case paramUsername:
		user, ok := proto.SanitizeUser(p)
		if !ok {
			return "", errInvalidUsername()
		}
		return user, nil
	case paramKey:
		for _, key := range strings.Split(p, ",") {
			if key != "" && !proto.ValidKey(key) {
				return "", core.ErrInvalidKey(key)
			}
		}
	case paramPassword:
		if !proto.ValidPassword(p) {
			return "", errPasswdMismatch()
		}
	case paramText:
		return proto.SanitizeText(p, proto.MaxTextLen), nil
	case paramTargets:
		return r.validateTargets(cmd, p)
	}
	return p, nil
}

// validateTargets splits a comma list of nicknames and channels, drops
// duplicates under casemapping and enforces the per-command target limit.
func (r *Runner) validateTargets(cmd, p string) (string, *core.Error) {
	seen := make(map[string]struct{})
	var targets []string
	for _, t := range strings.Split(p, ",") {
		if t == "" {
			continue
		}
		key := proto.Fold(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		valid := proto.ValidNick(t)
		if proto.IsChannel(t) {
			valid = proto.ValidChannel(t)
		}
		if !valid {
			return "", core.ErrNoSuchNick(t)
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return "", errNoRecipient(cmd)
	}
	if limit := r.deps.Info.MaxTargets; limit > 0 && len(targets) > limit {
		return "", errTooManyTargets(targets[limit])
	}
	return strings.Join(targets, ","), nil
}
