package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCreatesChannelWithCreatorAsOperator(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	f.join(t, alice, "#Test", "")

	ch, ok := f.channels.Get("#test")
	require.True(t, ok)
	assert.Equal(t, "#Test", ch.Name)
	assert.True(t, ch.IsOperator(alice.ID))
	assert.True(t, alice.InChannel("#test"))
	assert.Equal(t, []string{
		":alice!alice@127.0.0.1 JOIN #Test",
		":irc.test 353 alice = #Test :@alice",
		":irc.test 366 alice #Test :End of /NAMES list",
	}, f.out.take(alice.ID))
}

func TestJoinLookupIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	f.join(t, alice, "#Test", "")
	f.join(t, bob, "#test", "")
	f.join(t, carol, "#TEST", "")

	assert.Equal(t, 1, f.channels.Len())
	ch, _ := f.channels.Get("#tEsT")
	assert.Equal(t, 3, ch.MemberCount())
	assert.False(t, ch.IsOperator(bob.ID))
}

func TestJoinBroadcastsAndSendsTopic(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.join(t, alice, "#c", "")
	require.NoError(t, f.channels.SetTopic(alice, "#c", "hello world"))
	f.out.take(alice.ID)

	f.join(t, bob, "#c", "")

	assert.Equal(t, []string{":bob!bob@127.0.0.1 JOIN #c"}, f.out.take(alice.ID))
	assert.Equal(t, []string{
		":bob!bob@127.0.0.1 JOIN #c",
		":irc.test 332 bob #c :hello world",
		":irc.test 333 bob #c alice 1700000000",
		":irc.test 353 bob = #c :@alice bob",
		":irc.test 366 bob #c :End of /NAMES list",
	}, f.out.take(bob.ID))
}

func TestJoinTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.join(t, alice, "#c", "")
	f.out.take(alice.ID)

	f.join(t, alice, "#C", "")
	assert.Empty(t, f.out.take(alice.ID))
}

func TestJoinGateOrder(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	f.join(t, op, "#c", "")
	ch, _ := f.channels.Get("#c")

	f.channels.ApplyModes(op, "#c", "+ikl", []string{"secret", "1"})
	require.True(t, ch.Has(ModeInviteOnly))
	require.True(t, ch.Has(ModeKey))
	require.True(t, ch.Has(ModeLimit))

	assert.Equal(t, "473", numericOf(f.channels.Join(bob, "#c", "wrong")))

	ch.invites[bob.ID] = struct{}{}
	assert.Equal(t, "475", numericOf(f.channels.Join(bob, "#c", "wrong")))
	assert.Equal(t, "471", numericOf(f.channels.Join(bob, "#c", "secret")))
	assert.False(t, ch.IsMember(bob.ID))
	assert.True(t, ch.IsInvited(bob.ID), "failed join keeps the invitation")

	f.channels.ApplyModes(op, "#c", "-l", nil)
	f.join(t, bob, "#c", "secret")
	assert.False(t, ch.IsInvited(bob.ID), "invitation consumed on join")
}

func TestJoinRespectsPerClientCap(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	for _, name := range []string{"#a", "#b", "#c"} {
		f.join(t, alice, name, "")
	}
	assert.Equal(t, "405", numericOf(f.channels.Join(alice, "#d", "")))
	_, ok := f.channels.Get("#d")
	assert.False(t, ok)
}

func TestLimitAdmitsExactlyN(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	f.join(t, op, "#l", "")
	assert.Empty(t, f.channels.ApplyModes(op, "#l", "+l", []string{"3"}))

	f.join(t, f.register(t, "u2"), "#l", "")
	f.join(t, f.register(t, "u3"), "#l", "")
	err := f.channels.Join(f.register(t, "u4"), "#l", "")
	assert.Equal(t, "471", numericOf(err))
}

func TestPartAnnouncesBeforeRemoval(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.join(t, alice, "#c", "")
	f.join(t, bob, "#c", "")
	f.out.take(alice.ID)
	f.out.take(bob.ID)

	require.NoError(t, f.channels.Part(bob, "#C", "later"))

	want := []string{":bob!bob@127.0.0.1 PART #c :later"}
	assert.Equal(t, want, f.out.take(alice.ID))
	assert.Equal(t, want, f.out.take(bob.ID))
	assert.False(t, bob.InChannel("#c"))

	assert.Equal(t, "442", numericOf(f.channels.Part(bob, "#c", "")))
	assert.Equal(t, "403", numericOf(f.channels.Part(bob, "#nope", "")))
}

func TestLastPartDestroysChannel(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.join(t, alice, "#c", "")
	require.NoError(t, f.channels.Part(alice, "#c", ""))

	_, ok := f.channels.Get("#c")
	assert.False(t, ok)
	assert.Equal(t, 0, f.channels.Len())
}

func TestKickScenario(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "A")
	b := f.register(t, "B")
	f.join(t, a, "#test", "")
	f.join(t, b, "#test", "")
	f.out.take(a.ID)
	f.out.take(b.ID)

	assert.Equal(t, "482", numericOf(f.channels.Kick(b, "#test", "A", "no")))

	require.NoError(t, f.channels.Kick(a, "#test", "b", "bye"))
	want := []string{":A!A@127.0.0.1 KICK #test B :bye"}
	assert.Equal(t, want, f.out.take(a.ID))
	assert.Equal(t, want, f.out.take(b.ID))

	ch, _ := f.channels.Get("#test")
	assert.False(t, ch.IsMember(b.ID))
	assert.Equal(t, "441", numericOf(f.channels.Kick(a, "#test", "B", "")))
	assert.Equal(t, "401", numericOf(f.channels.Kick(a, "#test", "ghost", "")))

	f.join(t, b, "#test", "")
	assert.True(t, ch.IsMember(b.ID))
}

func TestTopicProtection(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	outsider := f.register(t, "eve")
	f.join(t, op, "#c", "")
	f.join(t, bob, "#c", "")

	require.NoError(t, f.channels.SetTopic(bob, "#c", "from bob"))
	f.channels.ApplyModes(op, "#c", "+t", nil)
	assert.Equal(t, "482", numericOf(f.channels.SetTopic(bob, "#c", "again")))
	assert.Equal(t, "442", numericOf(f.channels.Topic(outsider, "#c")))

	f.clock.Advance(time.Minute)
	require.NoError(t, f.channels.SetTopic(op, "#c", "from op"))
	ch, _ := f.channels.Get("#c")
	assert.Equal(t, "from op", ch.Topic)
	assert.Equal(t, "op", ch.TopicAuthor)
	assert.Equal(t, f.clock.Now(), ch.TopicTime)
}

func TestTopicQueryWithoutTopic(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.join(t, alice, "#c", "")
	f.out.take(alice.ID)

	require.NoError(t, f.channels.Topic(alice, "#c"))
	assert.Equal(t, []string{":irc.test 331 alice #c :No topic is set"}, f.out.take(alice.ID))
}

func TestApplyModesBroadcastsEachChange(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	f.join(t, op, "#c", "")
	f.join(t, bob, "#c", "")
	f.out.take(op.ID)
	f.out.take(bob.ID)

	errs := f.channels.ApplyModes(op, "#c", "+i+t+k", []string{"secret"})
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		":op!op@127.0.0.1 MODE #c +i",
		":op!op@127.0.0.1 MODE #c +t",
		":op!op@127.0.0.1 MODE #c +k secret",
	}, f.out.take(bob.ID))

	errs = f.channels.ApplyModes(op, "#c", "+ik", []string{"secret"})
	assert.Empty(t, errs)
	assert.Empty(t, f.out.take(bob.ID), "repeating current values changes nothing")

	errs = f.channels.ApplyModes(op, "#c", "-k+o", []string{"bob"})
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		":op!op@127.0.0.1 MODE #c -k",
		":op!op@127.0.0.1 MODE #c +o bob",
	}, f.out.take(bob.ID))
	ch, _ := f.channels.Get("#c")
	assert.True(t, ch.IsOperator(bob.ID))
	assert.Equal(t, "", ch.Key)
}

func TestApplyModesCollectsErrors(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	f.join(t, op, "#c", "")

	errs := f.channels.ApplyModes(op, "#c", "+xlo+l", []string{"zero", "bob"})
	var codes []string
	for _, err := range errs {
		codes = append(codes, numericOf(err))
	}
	assert.Equal(t, []string{"472", "696", "441", "461"}, codes)

	errs = f.channels.ApplyModes(bob, "#c", "+i", nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "482", numericOf(errs[0]))
}

func TestOperatorSubsetOfMembers(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	f.join(t, op, "#c", "")
	f.join(t, bob, "#c", "")
	_, err := f.channels.SetMode(op, "#c", true, 'o', "bob")
	require.NoError(t, err)

	require.NoError(t, f.channels.Part(bob, "#c", ""))
	ch, _ := f.channels.Get("#c")
	assert.False(t, ch.IsOperator(bob.ID))

	f.join(t, bob, "#c", "")
	assert.False(t, ch.IsOperator(bob.ID))
}

func TestSendModes(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	eve := f.register(t, "eve")
	f.join(t, op, "#c", "")
	f.channels.ApplyModes(op, "#c", "+tkl", []string{"pw", "5"})
	f.out.take(op.ID)

	require.NoError(t, f.channels.SendModes(op, "#c"))
	assert.Equal(t, []string{
		":irc.test 324 op #c +tkl pw 5",
		":irc.test 329 op #c 1700000000",
	}, f.out.take(op.ID))

	require.NoError(t, f.channels.SendModes(eve, "#c"))
	assert.Equal(t, ":irc.test 324 eve #c +tkl", f.out.take(eve.ID)[0])
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	op := f.register(t, "op")
	bob := f.register(t, "bob")
	f.join(t, op, "#c", "")
	f.channels.ApplyModes(op, "#c", "+i", nil)
	f.out.take(op.ID)

	require.NoError(t, f.channels.Invite(op, "bob", "#c"))
	assert.Equal(t, []string{":irc.test 341 op bob #c"}, f.out.take(op.ID))
	assert.Equal(t, []string{":op!op@127.0.0.1 INVITE bob #c"}, f.out.take(bob.ID))

	f.join(t, bob, "#c", "")
	assert.Equal(t, "443", numericOf(f.channels.Invite(op, "bob", "#c")))
	assert.Equal(t, "482", numericOf(f.channels.Invite(bob, "op", "#c")))
	assert.Equal(t, "401", numericOf(f.channels.Invite(op, "ghost", "#c")))
}

func TestPrivmsgSkipsSender(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	eve := f.register(t, "eve")
	f.join(t, alice, "#c", "")
	f.join(t, bob, "#c", "")
	f.out.take(alice.ID)
	f.out.take(bob.ID)

	require.NoError(t, f.channels.Privmsg(alice, "PRIVMSG", "#C", "hi all"))
	assert.Empty(t, f.out.take(alice.ID))
	assert.Equal(t, []string{":alice!alice@127.0.0.1 PRIVMSG #c :hi all"}, f.out.take(bob.ID))

	assert.Equal(t, "404", numericOf(f.channels.Privmsg(eve, "PRIVMSG", "#c", "x")))
	assert.Equal(t, "403", numericOf(f.channels.Privmsg(eve, "PRIVMSG", "#none", "x")))
}

func TestAnnounceQuitOncePerPeer(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.join(t, alice, "#a", "")
	f.join(t, alice, "#b", "")
	f.join(t, bob, "#a", "")
	f.join(t, bob, "#b", "")
	f.out.take(alice.ID)
	f.out.take(bob.ID)

	f.channels.AnnounceQuit(alice, "Quit: bye")
	f.channels.AnnounceQuit(alice, "Quit: bye")

	want := []string{":alice!alice@127.0.0.1 QUIT :Quit: bye"}
	assert.Equal(t, want, f.out.take(bob.ID))
	assert.Equal(t, want, f.out.take(alice.ID))
	assert.True(t, alice.QuitAnnounced())
}

func TestRemoveFromAllKeepsBothSidesConsistent(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.join(t, alice, "#a", "")
	f.join(t, alice, "#b", "")
	f.join(t, bob, "#b", "")

	f.channels.RemoveFromAll(alice)

	assert.Empty(t, alice.Channels)
	_, ok := f.channels.Get("#a")
	assert.False(t, ok, "emptied channel is destroyed")
	ch, ok := f.channels.Get("#b")
	require.True(t, ok)
	assert.Equal(t, []ClientID{bob.ID}, ch.Members())
	assert.False(t, ch.IsOperator(alice.ID))
}

func TestListAndNames(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.join(t, alice, "#b", "")
	f.join(t, alice, "#a", "")
	require.NoError(t, f.channels.SetTopic(alice, "#a", "first"))
	f.out.take(alice.ID)

	f.channels.List(alice, nil)
	assert.Equal(t, []string{
		":irc.test 322 alice #a 1 :first",
		":irc.test 322 alice #b 1 :",
		":irc.test 323 alice :End of /LIST",
	}, f.out.take(alice.ID))

	f.channels.Names(alice, "#missing")
	lines := f.out.take(alice.ID)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], ":irc.test 366 alice #missing"))
}
