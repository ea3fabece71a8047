package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{"empty", "", Message{}},
		{"only spaces", "   ", Message{}},
		{"bare command", "QUIT", Message{Command: "QUIT"}},
		{"words", "USER alice 0 *", Message{Command: "USER", Params: []string{"alice", "0", "*"}}},
		{
			"trailing keeps spaces",
			"PRIVMSG #chan :hello  there :)",
			Message{Command: "PRIVMSG", Params: []string{"#chan", "hello  there :)"}, Trailing: true},
		},
		{"empty trailing", "TOPIC #chan :", Message{Command: "TOPIC", Params: []string{"#chan", ""}, Trailing: true}},
		{"source", ":nick!u@h JOIN #x", Message{Source: "nick!u@h", Command: "JOIN", Params: []string{"#x"}}},
		{"source only", ":nick", Message{Source: "nick"}},
		{"tags skipped", "@time=now;id=1 :src PING tok", Message{Source: "src", Command: "PING", Params: []string{"tok"}}},
		{"tags only", "@a=b", Message{}},
		{"collapsed spaces", "MODE  #c   +k  key ", Message{Command: "MODE", Params: []string{"#c", "+k", "key"}}},
		{"tabs delimit", "NICK\talice", Message{Command: "NICK", Params: []string{"alice"}}},
		{"case preserved", "nick alice", Message{Command: "nick", Params: []string{"alice"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestMessageString(t *testing.T) {
	assert.Equal(t, ":a!b@c KICK #test B :bye", RelayText("a!b@c", "KICK", "#test", "B", "bye"))
	assert.Equal(t, ":a!b@c JOIN #test", Relay("a!b@c", "JOIN", "#test"))
	assert.Equal(t, ":a!b@c PART #test :two words", Relay("a!b@c", "PART", "#test", "two words"))
	assert.Equal(t, "PING ::colon", Message{Command: "PING", Params: []string{":colon"}}.String())
	assert.Equal(t, "CAP * LS :", Message{Command: "CAP", Params: []string{"*", "LS", ""}}.String())
	assert.Equal(t, "a!b@c", Hostmask("a", "b", "c"))
}

func TestParseRoundTripKeepsTrailing(t *testing.T) {
	line := ":srv 332 alice #room :the topic"
	assert.Equal(t, line, Parse(line).String())
}
