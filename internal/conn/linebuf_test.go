package conn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextLine(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		line      string
		consumed  int
		truncated bool
		ok        bool
	}{
		{name: "crlf", in: "NICK a\r\nUSER", line: "NICK a", consumed: 8, ok: true},
		{name: "bare lf", in: "NICK a\n", line: "NICK a", consumed: 7, ok: true},
		{name: "empty line", in: "\r\n", line: "", consumed: 2, ok: true},
		{name: "partial", in: "NICK a", ok: false},
		{name: "cr alone is not a terminator", in: "NICK a\rUSER b\n", line: "NICK a\rUSER b", consumed: 14, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, consumed, truncated, ok := nextLine([]byte(tt.in), 512)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.line, string(line))
			assert.Equal(t, tt.consumed, consumed)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

func TestNextLineOversize(t *testing.T) {
	long := strings.Repeat("x", 600)

	line, consumed, truncated, ok := nextLine([]byte(long), 512)
	assert.True(t, ok)
	assert.True(t, truncated)
	assert.Len(t, line, 510)
	assert.Equal(t, 600, consumed, "remainder is discarded")

	buf := []byte(long + "\r\nNICK a\r\n")
	line, consumed, truncated, ok = nextLine(buf, 512)
	assert.True(t, ok)
	assert.True(t, truncated)
	assert.Len(t, line, 510)
	assert.Equal(t, len(buf), consumed, "no resync on a later terminator")

	_, _, _, ok = nextLine([]byte(strings.Repeat("x", 512)), 512)
	assert.False(t, ok, "exactly at the limit still waits for more")

	line, _, truncated, ok = nextLine([]byte(strings.Repeat("y", 510)+"\r\n"), 512)
	assert.True(t, ok)
	assert.False(t, truncated)
	assert.Len(t, line, 510)
}
