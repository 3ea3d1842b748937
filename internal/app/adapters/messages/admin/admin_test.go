package admin

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/cooldown"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/moderation"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/parser/parsertest"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type users map[string]string

func (u users) UserID(_ context.Context, login string) (string, error) {
	if id, ok := u[login]; ok {
		return id, nil
	}
	return "", errs.NotFound("user", login)
}

type fixture struct {
	h         *parsertest.Harness
	cooldowns *cooldown.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	h := parsertest.New(t)
	cd := cooldown.New(h.Log, h.Manager, h.Store.Cooldowns(), h.Translator)
	require.NoError(t, cd.Register(h.Engine))

	mod := moderation.New(h.Log, h.Manager, h.Store, h.Translator)
	require.NoError(t, mod.Register(h.Engine))

	New(h.Log, h.Manager, h.Translator, h.Commands, cd, mod, h.Store.Points(), users{"viewer": "10"}).Register(h.Engine)
	return &fixture{h: h, cooldowns: cd}
}

// say отправляет сообщение от стримера и возвращает ответы бота.
func (f *fixture) say(t *testing.T, text string) []string {
	t.Helper()
	f.h.Sink.Reset()
	f.h.Process(t, parsertest.Msg(parsertest.Broadcaster(), text))
	return f.h.Sink.Texts()
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name       string
		params     string
		values     map[string]string
		bools      map[string]bool
		positional []string
		wantErr    bool
	}{
		{
			name:   "all flags",
			params: "-p moderators -s -f $haveParam && $is.vip -c !hi there -r Hello,  $sender -c!",
			values: map[string]string{"-p": "moderators", "-f": "$haveParam && $is.vip", "-c": "!hi there", "-r": "Hello,  $sender -c!"},
			bools:  map[string]bool{"-s": true},
		},
		{
			name:       "positional before flags",
			params:     "!hello -rid 2",
			values:     map[string]string{"-rid": "2"},
			bools:      map[string]bool{},
			positional: []string{"!hello"},
		},
		{name: "empty value", params: "-c -r text", wantErr: true},
		{name: "duplicate", params: "-c !a -c !b -r text", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := parseFlags(tt.params, "usage", []string{"-p", "-f", "-c", "-rid"}, []string{"-s"}, "-r")
			if tt.wantErr {
				var pe *errs.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "usage", pe.Usage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.values, fs.values)
			assert.Equal(t, tt.bools, fs.bools)
			assert.Equal(t, tt.positional, fs.positional)
		})
	}
}

func TestCommandLifecycle(t *testing.T) {
	f := newFixture(t)
	viewer := parsertest.Viewer("10", "viewer")

	assert.Equal(t, []string{"@streamer, command !hi was added."}, f.say(t, "!command add -c !hi -r Hello, $sender"))
	assert.Equal(t, []string{"@streamer, command !hi was added."}, f.say(t, "!command add -p moderators -s -c !hi -r mods only"))

	f.h.Sink.Reset()
	f.h.Process(t, parsertest.Msg(viewer, "!hi"))
	assert.Equal(t, []string{"Hello, @viewer"}, f.h.Sink.Texts())

	assert.Equal(t, []string{
		"!hi#1 (everyone) | Hello, $sender",
		"!hi#2 (moderators) stop | mods only",
	}, f.say(t, "!command list !hi"))

	assert.Equal(t, []string{"@streamer, command !hi was edited."}, f.say(t, "!command edit -c !hi -rid 1 -r Hi there"))
	assert.Equal(t, []string{"@streamer, response #2 of !hi was removed."}, f.say(t, "!command remove -c !hi -rid 2"))
	assert.Equal(t, []string{"@streamer, response #5 of !hi was not found."}, f.say(t, "!command remove -c !hi -rid 5"))
	assert.Equal(t, []string{"@streamer, list of commands: !hi"}, f.say(t, "!command list"))

	assert.Equal(t, []string{"@streamer, command !hi was disabled."}, f.say(t, "!command toggle !hi"))
	f.h.Sink.Reset()
	f.h.Process(t, parsertest.Msg(viewer, "!hi"))
	assert.Empty(t, f.h.Sink.Texts(), "выключенная команда молчит")

	assert.Equal(t, []string{"@streamer, command !hi was concealed."}, f.say(t, "!command toggle-visibility !hi"))
	assert.Equal(t, []string{"@streamer, list of commands is empty."}, f.say(t, "!command list"))

	assert.Equal(t, []string{"@streamer, command !hi was removed."}, f.say(t, "!command remove -c !hi"))
	assert.Equal(t, []string{"@streamer, command !hi was not found."}, f.say(t, "!command toggle !hi"))
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare command",
			text: "!command",
			want: "@streamer, sorry, but this command is not correct, use " + commandUsage,
		},
		{
			name: "missing response",
			text: "!command add -c !hi",
			want: "@streamer, sorry, but this command is not correct, use " + commandAddUsage,
		},
		{
			name: "builtin collision",
			text: "!command add -c !permit -r nope",
			want: "@streamer, command !permit collides with a core command.",
		},
		{
			name: "unknown permission",
			text: "!command add -p wizards -c !hi -r text",
			want: `@streamer, unknown permission "wizards".`,
		},
		{
			name: "bad response id",
			text: "!command edit -c !hi -rid zero -r text",
			want: "@streamer, sorry, but this command is not correct, use " + commandEditUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, f.say(t, tt.text))
		})
	}
}

func TestCommandsRequireCasters(t *testing.T) {
	f := newFixture(t)

	res := f.h.Process(t, parsertest.Msg(parsertest.Moderator("20", "mod"), "!command add -c !hi -r text"))
	assert.True(t, res.Halted)
	assert.Equal(t, parser.HaltedByPermission, res.HaltedBy)

	_, err := f.h.Commands.GetCommand(context.Background(), "!hi")
	assert.ErrorIs(t, err, errs.ErrNotFound, "модератор не может создавать команды")
}

func TestAliases(t *testing.T) {
	f := newFixture(t)
	viewer := parsertest.Viewer("10", "viewer")

	f.say(t, "!command add -c !socials -r twitter and more")
	assert.Equal(t, []string{"@streamer, alias !s for !socials was added."}, f.say(t, "!alias add -a !s -c !socials"))
	assert.Equal(t, []string{"@streamer, !s already exists."}, f.say(t, "!alias add -a !s -c !socials"))
	assert.Equal(t, []string{"@streamer, alias !me cannot point to itself."}, f.say(t, "!alias add -a !me -c !ME"))

	f.h.Sink.Reset()
	f.h.Process(t, parsertest.Msg(viewer, "!s"))
	assert.Equal(t, []string{"twitter and more"}, f.h.Sink.Texts())

	assert.Equal(t, []string{"@streamer, list of aliases: !s -> !socials"}, f.say(t, "!alias list"))
	assert.Equal(t, []string{"@streamer, alias !s was disabled."}, f.say(t, "!alias toggle !s"))
	assert.Equal(t, []string{"@streamer, alias !s was concealed."}, f.say(t, "!alias toggle-visibility !s"))
	assert.Equal(t, []string{"@streamer, alias !s was changed to !hi."}, f.say(t, "!alias edit -a !s -c !hi"))
	assert.Equal(t, []string{"@streamer, alias !s was removed."}, f.say(t, "!alias remove !s"))
	assert.Equal(t, []string{"@streamer, alias !s was not found."}, f.say(t, "!alias remove !s"))
}

func TestPriceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := parsertest.Viewer("10", "viewer")

	f.say(t, "!command add -c !gamble -r $sender rolled {randint 1 1}")
	assert.Equal(t, []string{"@streamer, price of !gamble was set to 100 points."}, f.say(t, "!price set !gamble 100"))
	assert.Equal(t, []string{"@streamer, list of prices: !gamble 100"}, f.say(t, "!price list"))

	balance := func() int64 {
		t.Helper()
		v, err := f.h.Store.Points().Get(ctx, viewer.UserID)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, []string{"@streamer, viewer received 50 points."}, f.say(t, "!points add @Viewer 50"))

	f.h.Sink.Reset()
	res := f.h.Process(t, parsertest.Msg(viewer, "!gamble"))
	assert.True(t, res.Halted, "баланса не хватает")
	assert.Equal(t, []string{"@viewer, sorry, you don't have 100 points to use !gamble."}, f.h.Sink.Texts())
	assert.Equal(t, int64(50), balance(), "отказ не меняет баланс")

	assert.Equal(t, []string{"@streamer, viewer received 60 points."}, f.say(t, "!points add @Viewer 60"))

	f.h.Sink.Reset()
	f.h.Process(t, parsertest.Msg(viewer, "!gamble"))
	assert.Equal(t, []string{"@viewer rolled 1"}, f.h.Sink.Texts())
	assert.Equal(t, int64(10), balance(), "цена списана один раз")

	assert.Equal(t, []string{"@streamer, price for !gamble was disabled."}, f.say(t, "!price toggle !gamble"))
	assert.Equal(t, []string{"@streamer, price of !gamble was unset."}, f.say(t, "!price unset !gamble"))
	assert.Equal(t, []string{"@streamer, price for !gamble was not found."}, f.say(t, "!price unset !gamble"))
	assert.Equal(t, []string{"@streamer, list of prices is empty."}, f.say(t, "!price list"))
}

func TestCooldowns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, []string{"@streamer, user cooldown for !so me was set to 30 s."}, f.say(t, "!cooldown !so me user 30"))
	assert.Equal(t, []string{"@streamer, global cooldown for hello was set to 5 s."}, f.say(t, "!cooldown set hello global 5 quiet"))

	cd, err := f.h.Store.Cooldowns().FindByKey(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, cd.Quiet)
	assert.Equal(t, domain.ScopeGlobal, cd.Scope)

	assert.Equal(t, []string{"@streamer, cooldown for hello no longer applies to subscribers."}, f.say(t, "!cooldown toggle subscribers hello"))
	assert.Equal(t, []string{"@streamer, cooldown for hello is now applied to moderators."}, f.say(t, "!cooldown toggle moderators hello"))
	assert.Equal(t, []string{"@streamer, cooldown for hello was disabled."}, f.say(t, "!cooldown toggle enabled hello"))
	assert.Equal(t, []string{`@streamer, unknown cooldown field "colour".`}, f.say(t, "!cooldown toggle colour hello"))

	assert.Equal(t, []string{"@streamer, sorry, but this command is not correct, use " + cooldownSetUsage}, f.say(t, "!cooldown hello weekly 5"))
	assert.Equal(t, []string{"@streamer, cooldown for hello was unset."}, f.say(t, "!cooldown unset hello"))
	assert.Equal(t, []string{"@streamer, cooldown for hello was not found."}, f.say(t, "!cooldown unset hello"))
}

func TestPermit(t *testing.T) {
	f := newFixture(t)
	viewer := parsertest.Viewer("10", "viewer")

	res := f.h.Process(t, parsertest.Msg(parsertest.Moderator("20", "mod"), "!permit @viewer 2"))
	require.False(t, res.Halted)
	assert.Equal(t, []string{"@mod, viewer can post 2 link(s) to chat."}, f.h.Sink.Texts())

	for i := 0; i < 2; i++ {
		res = f.h.Process(t, parsertest.Msg(viewer, "look at example.com"))
		assert.False(t, res.Halted, "ссылка %d разрешена", i)
	}
	res = f.h.Process(t, parsertest.Msg(viewer, "look at example.com"))
	assert.True(t, res.Halted)

	assert.Equal(t, []string{"@streamer, user ghost was not found."}, f.say(t, "!permit ghost"))
	assert.Equal(t, []string{"@streamer, sorry, but this command is not correct, use " + permitUsage}, f.say(t, "!permit viewer 0"))
}
