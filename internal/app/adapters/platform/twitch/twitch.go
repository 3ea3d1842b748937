package twitch

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/adapters/platform/twitch/api"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/stream"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"golang.org/x/time/rate"
	"time"
)

const (
	streamPollTimer = "twitch-stream-poll"
	streamPollEvery = 30 * time.Second
)

var _ ports.ChatSink = (*Twitch)(nil)

// Chat - транспорт исходящих сообщений (IRC).
type Chat interface {
	Say(channel, text, replyTo string) error
}

// Helix - вызовы API, которые нужны боту.
type Helix interface {
	Timeout(userID string, seconds int, reason string) error
	Whisper(toUserID, text string) error
	Stream(channel string) (stream.Snapshot, error)
}

type Timers interface {
	AddTimer(id string, interval time.Duration, task func())
	RemoveTimer(id string)
}

// Twitch - исходящая сторона чата: сообщения через IRC с лимитом, таймауты и шепот через Helix.
type Twitch struct {
	log     logger.Logger
	manager *config.Manager

	chat    Chat
	helix   Helix
	pool    *api.Pool
	limiter *rate.Limiter
	stream  *stream.Stream
}

// New собирает адаптер; helix может быть nil, тогда таймауты и шепот только логируются.
func New(log logger.Logger, manager *config.Manager, chat Chat, helix Helix, st *stream.Stream) *Twitch {
	perWindow := manager.Get().Twitch.MessagesPer30s
	if perWindow <= 0 {
		perWindow = 20
	}

	return &Twitch{
		log:     log,
		manager: manager,
		chat:    chat,
		helix:   helix,
		pool:    api.NewPool(3, 300),
		limiter: rate.NewLimiter(rate.Every(30*time.Second/time.Duration(perWindow)), perWindow),
		stream:  st,
	}
}

// SendMessage ждет слот лимитера и отправляет текст; личка идет через Helix в фоне.
func (t *Twitch) SendMessage(ctx context.Context, text string, to message.Sender, attrs ports.MessageAttrs) error {
	if attrs.Whisper {
		return t.submit("whisper", func() error {
			if t.helix == nil {
				return api.ErrNotConfigured
			}
			return t.helix.Whisper(to.UserID, text)
		})
	}

	if err := t.limiter.Wait(ctx); err != nil {
		metrics.OutboundMessages.WithLabelValues("message", "dropped").Inc()
		return err
	}

	if err := t.chat.Say(t.manager.Get().Twitch.Channel, text, attrs.ReplyTo); err != nil {
		metrics.OutboundMessages.WithLabelValues("message", "error").Inc()
		return err
	}
	metrics.OutboundMessages.WithLabelValues("message", "ok").Inc()
	return nil
}

func (t *Twitch) Timeout(_ context.Context, user message.Sender, reason string, seconds int) error {
	return t.submit("timeout", func() error {
		if t.helix == nil {
			return api.ErrNotConfigured
		}
		return t.helix.Timeout(user.UserID, seconds, reason)
	})
}

func (t *Twitch) submit(kind string, call func() error) error {
	err := t.pool.Submit(func() {
		if err := call(); err != nil {
			t.log.Error("Twitch call failed", err, "kind", kind)
		}
	})
	if errors.Is(err, api.ErrQueueFull) {
		metrics.OutboundMessages.WithLabelValues(kind, "dropped").Inc()
	}
	return err
}

// PollStream сразу обновляет состояние стрима и повторяет опрос по таймеру.
func (t *Twitch) PollStream(timers Timers) {
	if t.helix == nil {
		t.log.Warn("Stream polling disabled: Twitch API is not configured")
		return
	}

	poll := func() {
		snap, err := t.helix.Stream(t.stream.ChannelName())
		if err != nil {
			t.log.Error("Failed to poll stream status", err)
			return
		}
		if snap.Live != t.stream.IsLive() {
			t.log.Info("Stream status changed", "live", snap.Live, "category", snap.Category)
		}
		t.stream.Apply(snap)
	}

	poll()
	timers.AddTimer(streamPollTimer, streamPollEvery, poll)
}

// Close дожидается фоновых вызовов API.
func (t *Twitch) Close() {
	t.pool.Stop()
}
