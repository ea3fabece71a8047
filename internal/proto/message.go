package proto

import "strings"

// Message is one parsed protocol line.
type Message struct {
	Source  string
	Command string
	Params  []string
	// Trailing reports that the last parameter is written with a leading ':'.
	Trailing bool
}

// Parse splits a raw line (without terminator) into source, command and parameters.
// A leading "@tags" segment is skipped. A parameter starting with ':' takes the rest
// of the line verbatim. An empty line yields an empty command.
func Parse(line string) Message {
	var msg Message
	rest := skipSpaces(line)

	if strings.HasPrefix(rest, "@") {
		end := indexSpace(rest)
		if end < 0 {
			return msg
		}
		rest = skipSpaces(rest[end:])
	}

	if strings.HasPrefix(rest, ":") {
		end := indexSpace(rest)
		if end < 0 {
			msg.Source = rest[1:]
			return msg
		}
		msg.Source = rest[1:end]
		rest = skipSpaces(rest[end:])
	}

	end := indexSpace(rest)
	if end < 0 {
		msg.Command = rest
		return msg
	}
	msg.Command = rest[:end]
	rest = skipSpaces(rest[end:])

	for rest != "" {
		if rest[0] == ':' {
			msg.Params = append(msg.Params, rest[1:])
			msg.Trailing = true
			break
		}
		end = indexSpace(rest)
		if end < 0 {
			msg.Params = append(msg.Params, rest)
			break
		}
		msg.Params = append(msg.Params, rest[:end])
		rest = skipSpaces(rest[end:])
	}
	return msg
}

// String renders the message without a line terminator.
func (m Message) String() string {
	var b strings.Builder
	if m.Source != "" {
		b.WriteByte(':')
		b.WriteString(m.Source)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, p := range m.Params {
		b.WriteByte(' ')
		if i == len(m.Params)-1 && (m.Trailing || needsTrailing(p)) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Relay formats a message from source; the last parameter is made trailing only when required.
func Relay(source, command string, params ...string) string {
	return Message{Source: source, Command: command, Params: params}.String()
}

// RelayText formats a message from source whose last parameter is free text.
func RelayText(source, command string, params ...string) string {
	return Message{Source: source, Command: command, Params: params, Trailing: len(params) > 0}.String()
}

// Hostmask joins the parts of a client prefix.
func Hostmask(nick, user, host string) string {
	return nick + "!" + user + "@" + host
}

func needsTrailing(p string) bool {
	return p == "" || strings.HasPrefix(p, ":") || strings.ContainsAny(p, " \t")
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func skipSpaces(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			return i
		}
	}
	return -1
}
