package moderation

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/parser/parsertest"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newModeration(t *testing.T, modify ...func(cfg *config.Config)) (*parsertest.Harness, *Service) {
	t.Helper()

	h := parsertest.New(t, modify...)
	svc := New(h.Log, h.Manager, h.Store, h.Translator)
	require.NoError(t, svc.Register(h.Engine))
	return h, svc
}

func TestEscalation(t *testing.T) {
	h, _ := newModeration(t, func(cfg *config.Config) {
		cfg.Moderation.Warnings = config.Warnings{Allowed: 2, ShouldTimeout: true, Announce: true, AnnounceTimeouts: true}
	})
	viewer := parsertest.Viewer("10", "viewer")

	for i := 0; i < 3; i++ {
		res := h.Process(t, parsertest.Msg(viewer, "visit google.com"))
		require.True(t, res.Halted, "сообщение %d", i)
		assert.Equal(t, config.FilterLinks, res.HaltedBy)
	}

	timeouts := h.Sink.Timeouts()
	require.Len(t, timeouts, 3)
	assert.Equal(t, []int{1, 1, 120}, []int{timeouts[0].Seconds, timeouts[1].Seconds, timeouts[2].Seconds}, "два предупреждения, затем таймаут")
	assert.Equal(t, "@viewer, no links allowed, ask for !permit [1 warnings left]", timeouts[0].Reason)

	assert.Equal(t, []string{
		"@viewer, no links allowed, ask for !permit [1 warnings left]",
		"@viewer, no links allowed, ask for !permit",
	}, h.Sink.Texts(), "повторное предупреждение в течение минуты не объявляется")

	warnings, err := h.Store.Warnings().Get(context.Background(), viewer.UserID)
	require.NoError(t, err)
	assert.Empty(t, warnings, "после таймаута список очищен")

	var warned int
	for _, ev := range h.Events.Events() {
		if ev.Kind == ports.EventWarning {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}

func TestEscalation_ExpiredWarnings(t *testing.T) {
	h, svc := newModeration(t, func(cfg *config.Config) {
		cfg.Moderation.Warnings = config.Warnings{Allowed: 1, ShouldTimeout: true}
	})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	viewer := parsertest.Viewer("10", "viewer")

	require.NoError(t, h.Store.Warnings().Set(context.Background(), viewer.UserID, []time.Time{now.Add(-2 * time.Hour)}))

	h.Process(t, parsertest.Msg(viewer, "visit google.com"))
	timeouts := h.Sink.Timeouts()
	require.Len(t, timeouts, 1)
	assert.Equal(t, 1, timeouts[0].Seconds, "старое предупреждение не учитывается")
}

func TestEscalation_NoWarnings(t *testing.T) {
	h, _ := newModeration(t, func(cfg *config.Config) {
		cfg.Moderation.Warnings.Allowed = 0
		cfg.Moderation.Warnings.AnnounceTimeouts = false
	})

	h.Process(t, parsertest.Msg(parsertest.Viewer("10", "viewer"), "visit google.com"))

	timeouts := h.Sink.Timeouts()
	require.Len(t, timeouts, 1)
	assert.Equal(t, 120, timeouts[0].Seconds, "сразу настоящий таймаут")
	assert.Empty(t, h.Sink.Texts())
}

func TestLinks_Permit(t *testing.T) {
	h, svc := newModeration(t)
	viewer := parsertest.Viewer("10", "viewer")

	require.NoError(t, svc.Permit(context.Background(), viewer.UserID, 1))
	assert.Error(t, svc.Permit(context.Background(), viewer.UserID, 0))

	res := h.Process(t, parsertest.Msg(viewer, "visit google.com"))
	assert.False(t, res.Halted, "разрешение расходуется")

	res = h.Process(t, parsertest.Msg(viewer, "visit google.com"))
	assert.True(t, res.Halted, "разрешение одноразовое")
}

func TestExemptions(t *testing.T) {
	h, _ := newModeration(t)

	tests := []struct {
		name   string
		sender message.Sender
		halted bool
	}{
		{name: "viewer", sender: parsertest.Viewer("10", "viewer"), halted: true},
		{name: "moderator", sender: parsertest.Moderator("20", "mod"), halted: false},
		{name: "broadcaster", sender: parsertest.Broadcaster(), halted: false},
		{name: "subscriber", sender: parsertest.Subscriber("30", "sub"), halted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Process(t, parsertest.Msg(tt.sender, "visit google.com"))
			assert.Equal(t, tt.halted, res.Halted)
		})
	}
}

func TestTierSettingsFallback(t *testing.T) {
	h, _ := newModeration(t, func(cfg *config.Config) {
		cfg.Moderation.Caps[domain.TierSubscribers] = &config.CapsSettings{Enabled: false, TriggerLength: 15, MaxPercent: 50, Timeout: 120}
	})

	tests := []struct {
		name   string
		sender message.Sender
		halted bool
	}{
		{name: "subscriber has own settings", sender: parsertest.Subscriber("30", "sub"), halted: false},
		{name: "vip falls back to viewers", sender: message.Sender{UserID: "40", Username: "vip", Badges: message.Badges{VIP: true}}, halted: true},
		{name: "viewer", sender: parsertest.Viewer("10", "viewer"), halted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Process(t, parsertest.Msg(tt.sender, "THIS IS A VERY LOUD MESSAGE"))
			assert.Equal(t, tt.halted, res.Halted)
			if tt.halted {
				assert.Equal(t, config.FilterCaps, res.HaltedBy)
			}
		})
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
		msg    func() *message.ChatMessage
		filter string
	}{
		{
			name: "color",
			msg: func() *message.ChatMessage {
				m := parsertest.Msg(parsertest.Viewer("10", "viewer"), "waves")
				m.IsAction = true
				return m
			},
			filter: config.FilterColor,
		},
		{
			name: "emotes",
			msg: func() *message.ChatMessage {
				var words []string
				var emotes []message.Emote
				for i := 1; i <= 16; i++ {
					name := fmt.Sprintf("emote%d", i)
					words = append(words, name)
					emotes = append(emotes, message.Emote{ID: strconv.Itoa(i), Name: name, Count: 1})
				}
				m := parsertest.Msg(parsertest.Viewer("10", "viewer"), strings.Join(words, " "))
				m.Emotes = emotes
				return m
			},
			filter: config.FilterEmotes,
		},
		{
			name: "blacklist",
			modify: func(cfg *config.Config) {
				cfg.Moderation.BlacklistPhrases = []string{"bad*word"}
			},
			msg: func() *message.ChatMessage {
				return parsertest.Msg(parsertest.Viewer("10", "viewer"), "you are a BadWord")
			},
			filter: config.FilterBlacklist,
		},
		{
			name: "long message",
			msg: func() *message.ChatMessage {
				var words []string
				for i := 0; i < 60; i++ {
					words = append(words, fmt.Sprintf("word%d", i))
				}
				return parsertest.Msg(parsertest.Viewer("10", "viewer"), strings.Join(words, " "))
			},
			filter: config.FilterLongMessage,
		},
		{
			name: "symbols",
			msg: func() *message.ChatMessage {
				return parsertest.Msg(parsertest.Viewer("10", "viewer"), "hello!!!!!!!!!! there")
			},
			filter: config.FilterSymbols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var modify []func(cfg *config.Config)
			if tt.modify != nil {
				modify = append(modify, tt.modify)
			}
			h, _ := newModeration(t, modify...)

			res := h.Process(t, tt.msg())
			assert.True(t, res.Halted)
			assert.Equal(t, tt.filter, res.HaltedBy, "сработал не тот фильтр")
		})
	}
}

func TestWhitelist(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
		text   string
		halted bool
	}{
		{
			name:   "domain",
			modify: func(cfg *config.Config) { cfg.Moderation.WhitelistPhrases = []string{"domain:youtube.com"} },
			text:   "watch https://www.youtube.com/watch?v=1",
			halted: false,
		},
		{
			name:   "wildcard phrase",
			modify: func(cfg *config.Config) { cfg.Moderation.WhitelistPhrases = []string{"my*site.com"} },
			text:   "see mycoolsite.com",
			halted: false,
		},
		{
			name:   "other domain",
			modify: func(cfg *config.Config) { cfg.Moderation.WhitelistPhrases = []string{"domain:youtube.com"} },
			text:   "watch https://evil.com/watch",
			halted: true,
		},
		{
			name:   "song request",
			modify: func(*config.Config) {},
			text:   "!songrequest https://youtu.be/abc",
			halted: false,
		},
		{
			name:   "song link outside request",
			modify: func(*config.Config) {},
			text:   "listen https://youtu.be/abc",
			halted: true,
		},
		{
			name: "clips allowed",
			modify: func(cfg *config.Config) {
				cfg.Moderation.Links[domain.TierViewers].IncludeClips = false
			},
			text:   "look https://clips.twitch.tv/FunnyClip",
			halted: false,
		},
		{
			name:   "clips checked",
			modify: func(*config.Config) {},
			text:   "look https://clips.twitch.tv/FunnyClip",
			halted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newModeration(t, tt.modify)
			res := h.Process(t, parsertest.Msg(parsertest.Viewer("10", "viewer"), tt.text))
			assert.Equal(t, tt.halted, res.Halted)
		})
	}
}

func TestPriceRefundedOnModerationVeto(t *testing.T) {
	h, _ := newModeration(t)
	ctx := context.Background()
	viewer := parsertest.Viewer("10", "viewer")

	_, err := h.Commands.AddResponse(ctx, "!gamble", domain.Response{Text: "rolled"})
	require.NoError(t, err)
	_, err = h.Commands.SetPrice(ctx, "!gamble", 10)
	require.NoError(t, err)
	require.NoError(t, h.Store.Points().Increment(ctx, viewer.UserID, 15))

	res := h.Process(t, parsertest.Msg(viewer, "!gamble google.com"))
	require.True(t, res.Halted)
	assert.Equal(t, config.FilterLinks, res.HaltedBy)
	assert.Equal(t, []string{"price"}, res.RolledBack)

	points, err := h.Store.Points().Get(ctx, viewer.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), points, "поинты возвращены")
	assert.NotContains(t, h.Sink.Texts(), "rolled")
}

func TestModeration_ConfigUpdatedWhileProcessing(t *testing.T) {
	h, _ := newModeration(t)
	viewer := parsertest.Viewer("10", "viewer")

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 100; i++ {
			if err := h.Manager.Update(func(cfg *config.Config) { cfg.Moderation = config.Default().Moderation }); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < 100; i++ {
		res := h.Process(t, parsertest.Msg(viewer, "HELLO WORLD visit google.com"))
		assert.True(t, res.Halted, "сообщение %d", i)
	}
	require.NoError(t, <-done)
}
