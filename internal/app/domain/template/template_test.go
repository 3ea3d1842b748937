package template

import (
	"chatcore/internal/app/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type fakeStream struct{}

func (fakeStream) IsLive() bool         { return true }
func (fakeStream) ChannelID() string    { return "1" }
func (fakeStream) ChannelName() string  { return "streamer" }
func (fakeStream) Category() string     { return "Just Chatting" }
func (fakeStream) Title() string        { return "title" }
func (fakeStream) Viewers() int         { return 10 }
func (fakeStream) StartedAt() time.Time { return time.Time{} }

func newManager(t *testing.T) *config.Manager {
	t.Helper()

	cfg := config.Default()
	cfg.Translations = map[string]string{"points.balance": "$sender: $amount"}
	cfg.Variables = map[string]string{"discord": "discord.gg/x"}
	m, err := config.NewInMemory(cfg)
	require.NoError(t, err)
	return m
}

func TestTranslator(t *testing.T) {
	tr := NewTranslator(newManager(t))

	assert.Equal(t, "@bob: 5", tr.Prepare("points.balance", map[string]any{"sender": "@bob", "amount": 5}), "переопределение из конфига")
	assert.Equal(t, "unknown.key", tr.Translate("unknown.key"), "неизвестный ключ возвращается как есть")
	assert.Equal(t,
		"@bob, sorry, you don't have 10 points to use !gamble.",
		tr.Prepare("price.user-have-not-enough-points", map[string]any{
			"sender": "@bob", "amount": 10, "pointsName": "points", "command": "!gamble",
		}))
	assert.Contains(t, tr.Keys(), "cooldowns.cooldown-triggered")
}

func TestRenderer(t *testing.T) {
	r := NewRenderer(newManager(t), fakeStream{})
	r.randInt = func(n int) int { return n - 1 }

	tests := []struct {
		name string
		text string
		vars Vars
		want string
	}{
		{"отправитель и параметр", "$sender said $param", Vars{Sender: "bob", Param: "hi"}, "@bob said hi"},
		{"touser из параметра", "hug $touser", Vars{Sender: "bob", Param: "@alice extra"}, "hug @alice"},
		{"touser без параметра", "hug $touser", Vars{Sender: "bob"}, "hug @bob"},
		{"канал и счетчик", "$channel #$count", Vars{Count: 7}, "streamer #7"},
		{"пользовательская переменная", "join $_discord", Vars{}, "join discord.gg/x"},
		{"неизвестная переменная", "$_nope $unknown", Vars{}, "$_nope $unknown"},
		{"randint", "roll {randint 1 6}", Vars{}, "roll 6"},
		{"randint с обратными границами", "{randint 10 5}", Vars{}, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.text, tt.vars))
		})
	}
}
