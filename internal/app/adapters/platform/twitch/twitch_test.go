package twitch

import (
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/stream"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

type said struct {
	channel, text, replyTo string
}

type fakeChat struct {
	mu   sync.Mutex
	said []said
}

func (f *fakeChat) Say(channel, text, replyTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.said = append(f.said, said{channel, text, replyTo})
	return nil
}

type fakeHelix struct {
	mu       sync.Mutex
	timeouts []string
	whispers []string
	snap     stream.Snapshot
	err      error
}

func (f *fakeHelix) Timeout(userID string, seconds int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.timeouts = append(f.timeouts, userID+":"+reason)
	return nil
}

func (f *fakeHelix) Whisper(toUserID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.whispers = append(f.whispers, toUserID+":"+text)
	return nil
}

func (f *fakeHelix) Stream(string) (stream.Snapshot, error) {
	return f.snap, f.err
}

type fakeTimers struct {
	ids []string
}

func (f *fakeTimers) AddTimer(id string, _ time.Duration, _ func()) { f.ids = append(f.ids, id) }
func (f *fakeTimers) RemoveTimer(string)                            {}

func newTwitch(t *testing.T, helix Helix) (*Twitch, *fakeChat, *stream.Stream) {
	t.Helper()

	cfg := config.Default()
	cfg.Twitch.Channel = "streamer"
	manager, err := config.NewInMemory(cfg)
	require.NoError(t, err)

	chat := &fakeChat{}
	st := stream.NewStream("streamer")
	tw := New(logger.New(logger.WithoutFile(), logger.WithWriter(io.Discard)), manager, chat, helix, st)
	return tw, chat, st
}

func TestSendMessage(t *testing.T) {
	h := &fakeHelix{}
	tw, chat, _ := newTwitch(t, h)
	ctx := context.Background()
	viewer := message.Sender{UserID: "42", Username: "viewer"}

	require.NoError(t, tw.SendMessage(ctx, "hello", viewer, ports.MessageAttrs{}))
	require.NoError(t, tw.SendMessage(ctx, "reply", viewer, ports.MessageAttrs{ReplyTo: "m1"}))
	require.NoError(t, tw.SendMessage(ctx, "psst", viewer, ports.MessageAttrs{Whisper: true}))
	require.NoError(t, tw.Timeout(ctx, viewer, "links", 120))
	tw.Close()

	assert.Equal(t, []said{
		{channel: "streamer", text: "hello"},
		{channel: "streamer", text: "reply", replyTo: "m1"},
	}, chat.said, "шепот не уходит в канал")
	assert.Equal(t, []string{"42:psst"}, h.whispers)
	assert.Equal(t, []string{"42:links"}, h.timeouts)
}

func TestSendMessage_CanceledWhileLimited(t *testing.T) {
	tw, chat, _ := newTwitch(t, nil)
	defer tw.Close()

	for range 20 {
		require.NoError(t, tw.SendMessage(context.Background(), "x", message.Sender{}, ports.MessageAttrs{}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, tw.SendMessage(ctx, "over limit", message.Sender{}, ports.MessageAttrs{}))
	assert.Len(t, chat.said, 20)
}

func TestPollStream(t *testing.T) {
	started := time.Now().Add(-time.Hour).Truncate(time.Second)

	tests := []struct {
		name   string
		helix  *fakeHelix
		live   bool
		timers int
	}{
		{
			name:   "live",
			helix:  &fakeHelix{snap: stream.Snapshot{Live: true, Category: "Chess", Viewers: 5, StartedAt: started}},
			live:   true,
			timers: 1,
		},
		{
			name:   "api error keeps state",
			helix:  &fakeHelix{err: errors.New("boom")},
			timers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw, _, st := newTwitch(t, tt.helix)
			defer tw.Close()

			timers := &fakeTimers{}
			tw.PollStream(timers)

			assert.Equal(t, tt.live, st.IsLive())
			assert.Len(t, timers.ids, tt.timers)
			if tt.live {
				assert.Equal(t, "Chess", st.Category())
				assert.Equal(t, 5, st.Viewers())
				assert.Equal(t, started, st.StartedAt())
			}
		})
	}
}

func TestPollStream_NoAPI(t *testing.T) {
	tw, _, _ := newTwitch(t, nil)
	defer tw.Close()

	timers := &fakeTimers{}
	tw.PollStream(timers)
	assert.Empty(t, timers.ids, "без API опрос не запускается")
}
