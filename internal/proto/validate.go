package proto

import (
	"strings"
	"unicode/utf8"
)

// Length limits for identifiers and free text.
const (
	MaxNickLen     = 30
	MaxChannelLen  = 50
	MaxTopicLen    = 307
	MaxKeyLen      = 23
	MaxUserLen     = 10
	MaxPasswordLen = 64
	MaxTextLen     = 400
)

const nickSpecial = "[]\\`_^{|}"

// Fold maps an identifier to its ASCII-casemapped lookup key.
func Fold(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// EqualFold compares identifiers under ASCII casemapping.
func EqualFold(a, b string) bool {
	return len(a) == len(b) && Fold(a) == Fold(b)
}

// ValidNick reports whether s is a well-formed nickname.
func ValidNick(s string) bool {
	if s == "" || len(s) > MaxNickLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isLetter(c), strings.IndexByte(nickSpecial, c) >= 0:
		case i > 0 && (isDigit(c) || c == '-'):
		default:
			return false
		}
	}
	return true
}

// IsChannel reports whether s carries a channel prefix.
func IsChannel(s string) bool {
	return s != "" && (s[0] == '#' || s[0] == '&')
}

// ValidChannel reports whether s is a well-formed channel name.
func ValidChannel(s string) bool {
	if len(s) < 2 || len(s) > MaxChannelLen || !IsChannel(s) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if isControl(c) || c == ' ' || c == ',' || c == ':' {
			return false
		}
	}
	return true
}

// ValidKey reports whether s may be used as a channel key.
func ValidKey(s string) bool {
	if s == "" || len(s) > MaxKeyLen || s[0] == ':' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isControl(c) || c == ' ' || c == ',' {
			return false
		}
	}
	return true
}

// ValidPassword reports whether s is an acceptable connection password:
// printable ASCII without spaces, bounded in length.
func ValidPassword(s string) bool {
	if s == "" || len(s) > MaxPasswordLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// SanitizeUser truncates a username and reports whether the result is usable.
func SanitizeUser(s string) (string, bool) {
	if len(s) > MaxUserLen {
		s = s[:MaxUserLen]
	}
	if s == "" {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isControl(c) || c == ' ' || c == '@' || c == '!' {
			return "", false
		}
	}
	return s, true
}

// SanitizeText drops control bytes other than IRC formatting codes and
// truncates to limit bytes without splitting a UTF-8 sequence.
func SanitizeText(s string, limit int) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 && !isFormatting(byte(r)) || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(clean) <= limit {
		return clean
	}
	n := limit
	for n > 0 && !utf8.RuneStart(clean[n]) {
		n--
	}
	return clean[:n]
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isControl(c byte) bool { return c < 0x20 || c == 0x7f }

// bold, color, reset, reverse, italic, strike, underline, CTCP delimiter, tab
func isFormatting(c byte) bool {
	switch c {
	case 0x01, 0x02, 0x03, 0x09, 0x0f, 0x16, 0x1d, 0x1e, 0x1f:
		return true
	}
	return false
}
