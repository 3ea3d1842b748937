// Package parsertest собирает конвейер с настоящим роутером и хранилищем в памяти для тестов.
package parsertest

import (
	"chatcore/internal/app/domain/commands"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/domain/stream"
	"chatcore/internal/app/domain/template"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage/memory"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

const (
	Channel     = "streamer"
	BotUsername = "chatbot"
	Stagger     = 750 * time.Millisecond
)

type Sent struct {
	Text    string
	Whisper bool
	To      string
}

type TimeoutCall struct {
	UserID  string
	Seconds int
	Reason  string
}

// Sink запоминает все исходящие сообщения и таймауты.
type Sink struct {
	mu       sync.Mutex
	messages []Sent
	timeouts []TimeoutCall
}

func (s *Sink) SendMessage(_ context.Context, text string, to message.Sender, attrs ports.MessageAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, Sent{Text: text, Whisper: attrs.Whisper, To: to.Username})
	return nil
}

func (s *Sink) Timeout(_ context.Context, user message.Sender, reason string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeouts = append(s.timeouts, TimeoutCall{UserID: user.UserID, Seconds: seconds, Reason: reason})
	return nil
}

func (s *Sink) Messages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Sent(nil), s.messages...)
}

func (s *Sink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Text)
	}
	return out
}

func (s *Sink) Timeouts() []TimeoutCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]TimeoutCall(nil), s.timeouts...)
}

func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.timeouts = nil
}

// Scheduler выполняет задачи сразу, сохраняя запрошенные задержки.
type Scheduler struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *Scheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	s.delays = append(s.delays, delay)
	s.mu.Unlock()

	task()
}

func (s *Scheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.delays...)
}

type Publisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *Publisher) Publish(ev ports.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
}

func (p *Publisher) Events() []ports.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]ports.Event(nil), p.events...)
}

// Followers - статический список фолловеров по id.
type Followers map[string]bool

func (f Followers) IsFollower(userID string) (bool, error) {
	return f[userID], nil
}

type Harness struct {
	Log        logger.Logger
	Manager    *config.Manager
	Store      *memory.Store
	Perms      *permissions.Directory
	Translator *template.Translator
	Stream     *stream.Stream
	Router     *commands.Router
	Commands   *commands.Service
	Pricing    *commands.Pricing
	Engine     *parser.Engine
	Followers  Followers

	Sink   *Sink
	Sched  *Scheduler
	Events *Publisher
}

// New собирает конвейер с алиасами и ценами; modify правит конфиг до валидации.
func New(t testing.TB, modify ...func(cfg *config.Config)) *Harness {
	t.Helper()

	cfg := config.Default()
	cfg.Twitch.Channel = Channel
	cfg.Twitch.BotUsername = BotUsername
	cfg.Twitch.BroadcasterID = "1"
	for _, fn := range modify {
		fn(cfg)
	}

	manager, err := config.NewInMemory(cfg)
	require.NoError(t, err)

	h := &Harness{
		Log:       logger.New(logger.WithoutFile(), logger.WithWriter(io.Discard)),
		Manager:   manager,
		Store:     memory.New(),
		Stream:    stream.NewStream(Channel),
		Followers: make(Followers),
		Sink:      &Sink{},
		Sched:     &Scheduler{},
		Events:    &Publisher{},
	}

	h.Perms = permissions.New(h.Log, manager, h.Store.Tiers(), h.Followers)
	require.NoError(t, h.Perms.EnsureDefaults(context.Background()))

	h.Translator = template.NewTranslator(manager)
	h.Router = commands.NewRouter(h.Log, manager, h.Store, template.NewRenderer(manager, h.Stream), h.Stream)
	h.Commands = commands.NewService(h.Store, h.Router, h.Perms)
	h.Pricing = commands.NewPricing(h.Log, manager, h.Store, h.Translator)

	emitter := parser.NewEmitter(h.Log, h.Sink, h.Sched, Stagger)
	h.Engine = parser.New(h.Log, manager, h.Perms, h.Router, emitter, h.Events)

	require.NoError(t, commands.RegisterAliases(h.Engine))
	require.NoError(t, h.Pricing.Register(h.Engine))
	return h
}

// Process прогоняет сообщение и требует отсутствия ошибки.
func (h *Harness) Process(t testing.TB, msg *message.ChatMessage) *parser.Result {
	t.Helper()

	res, err := h.Engine.Process(context.Background(), msg, parser.ProcessOptions{})
	require.NoError(t, err)
	return res
}

func Viewer(id, name string) message.Sender {
	return message.Sender{UserID: id, Username: name}
}

func Moderator(id, name string) message.Sender {
	return message.Sender{UserID: id, Username: name, Badges: message.Badges{Moderator: true}}
}

func Subscriber(id, name string) message.Sender {
	return message.Sender{UserID: id, Username: name, Badges: message.Badges{Subscriber: true}}
}

func Broadcaster() message.Sender {
	return message.Sender{UserID: "1", Username: Channel, Badges: message.Badges{Broadcaster: true}}
}

func Msg(sender message.Sender, text string) *message.ChatMessage {
	m := message.New(sender, text)
	m.Channel = Channel
	return m
}
