package irc

import (
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/gempir/go-twitch-irc/v4"
	"strings"
	"sync"
)

// Handler получает каждое входящее сообщение чата и личку.
type Handler func(ctx context.Context, msg *message.ChatMessage)

type IRC struct {
	log     logger.Logger
	manager *config.Manager
	handler Handler

	mu     sync.RWMutex
	client *twitch.Client
}

func New(log logger.Logger, manager *config.Manager, handler Handler) *IRC {
	return &IRC{
		log:     log,
		manager: manager,
		handler: handler,
	}
}

// Run держит соединение до отмены ctx; переподключение делает сам клиент.
func (i *IRC) Run(ctx context.Context) error {
	cfg := i.manager.Get()
	if cfg.Twitch.Channel == "" || cfg.Twitch.BotUsername == "" || cfg.Twitch.OAuth == "" {
		return errors.New("twitch channel, bot username and oauth are required")
	}

	oauth := cfg.Twitch.OAuth
	if !strings.HasPrefix(oauth, "oauth:") {
		oauth = "oauth:" + oauth
	}

	client := twitch.NewClient(strings.ToLower(cfg.Twitch.BotUsername), oauth)
	client.OnConnect(func() {
		i.log.Info("Connected to Twitch IRC", "channel", cfg.Twitch.Channel)
	})
	client.OnPrivateMessage(func(m twitch.PrivateMessage) {
		i.handler(ctx, fromPrivate(m))
	})
	client.OnWhisperMessage(func(m twitch.WhisperMessage) {
		msg := fromWhisper(m)
		msg.Channel = cfg.Twitch.Channel
		i.handler(ctx, msg)
	})
	client.OnNoticeMessage(func(m twitch.NoticeMessage) {
		i.log.Warn("Twitch IRC notice", "id", m.MsgID, "message", m.Message)
	})
	client.Join(strings.ToLower(cfg.Twitch.Channel))

	i.mu.Lock()
	i.client = client
	i.mu.Unlock()

	go func() {
		<-ctx.Done()
		if err := client.Disconnect(); err != nil && !errors.Is(err, twitch.ErrConnectionIsNotOpen) {
			i.log.Error("Failed to disconnect from Twitch IRC", err)
		}
	}()

	err := client.Connect()
	if errors.Is(err, twitch.ErrClientDisconnected) || ctx.Err() != nil {
		return nil
	}
	return err
}

// Say отправляет сообщение в канал; с replyTo - ответом в тред.
func (i *IRC) Say(channel, text, replyTo string) error {
	i.mu.RLock()
	client := i.client
	i.mu.RUnlock()

	if client == nil {
		return errors.New("twitch irc is not connected")
	}

	if replyTo != "" {
		client.Reply(channel, replyTo, text)
		return nil
	}
	client.Say(channel, text)
	return nil
}
