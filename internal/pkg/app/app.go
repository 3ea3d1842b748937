package app

import (
	"chatcore/internal/app/adapters/http"
	"chatcore/internal/app/adapters/http/handlers"
	"chatcore/internal/app/adapters/messages/admin"
	"chatcore/internal/app/adapters/messages/user"
	"chatcore/internal/app/adapters/platform/twitch"
	"chatcore/internal/app/adapters/platform/twitch/api"
	"chatcore/internal/app/adapters/platform/twitch/irc"
	"chatcore/internal/app/adapters/ws"
	"chatcore/internal/app/domain/commands"
	"chatcore/internal/app/domain/cooldown"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/moderation"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/domain/stream"
	"chatcore/internal/app/domain/template"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage/memory"
	"chatcore/internal/app/infrastructure/storage/sqlstore"
	"chatcore/internal/app/infrastructure/timers"
	"chatcore/internal/app/ports"
	"chatcore/internal/pkg/telemetry"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultConfigPath = "config.json"
	Version           = "1.0.0"
)

type Options struct {
	ConfigPath string
	// Offline - без подключения к Twitch: simulate и migrate.
	Offline bool
	Logger  logger.Logger
}

type App struct {
	log     logger.Logger
	manager *config.Manager
	store   ports.Store

	stream    *stream.Stream
	perms     *permissions.Directory
	commands  *commands.Service
	cooldowns *cooldown.Service
	engine    *parser.Engine
	hub       *ws.Hub
	timers    *timers.TimingWheel

	helix  *api.API
	irc    *irc.IRC
	twitch *twitch.Twitch

	shutdownTracing func()
	inflight        sync.WaitGroup
}

// New собирает бота: конфиг, хранилище, конвейер и транспорт.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}

	manager, err := config.New(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	log := opts.Logger
	if log == nil {
		l := logger.New(logger.WithFile(cfg.App.LogFile))
		l.SetLogLevel(cfg.App.LogLevel)
		log = l
	}

	a := &App{
		log:     log,
		manager: manager,
		stream:  stream.NewStream(cfg.Twitch.Channel),
		timers:  timers.NewTimingWheel(50*time.Millisecond, 120),
	}

	a.shutdownTracing, err = telemetry.Init(log, cfg.App.TracingEndpoint, Version)
	if err != nil {
		log.Warn("Tracing is unavailable", "error", err)
		a.shutdownTracing = func() {}
	}

	a.store, err = OpenStore(ctx, cfg.App.Store)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.build(ctx, opts.Offline); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OpenStore открывает хранилище по драйверу из конфига и создает схему.
func OpenStore(ctx context.Context, cfg config.Store) (ports.Store, error) {
	if cfg.Driver == config.DriverMemory {
		return memory.New(), nil
	}

	store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func (a *App) build(ctx context.Context, offline bool) error {
	var (
		followers ports.FollowerChecker
		helix     twitch.Helix
		sink      ports.ChatSink = logSink{log: a.log}
	)

	if !offline {
		h, err := api.New(a.log, a.manager, api.Options{})
		switch {
		case errors.Is(err, api.ErrNotConfigured):
			a.log.Warn("Twitch API is not configured: timeouts, follower checks and stream polling are disabled")
		case err != nil:
			return err
		default:
			if err := h.ResolveIDs(ctx); err != nil {
				return err
			}
			a.helix = h
			followers, helix = h, h
		}

		a.irc = irc.New(logger.NewPrefixedLogger(a.log, "irc"), a.manager, a.handle)
		a.twitch = twitch.New(a.log, a.manager, a.irc, helix, a.stream)
		sink = a.twitch
	}

	a.perms = permissions.New(a.log, a.manager, a.store.Tiers(), followers)
	if err := a.perms.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed tiers: %w", err)
	}

	translator := template.NewTranslator(a.manager)
	router := commands.NewRouter(a.log, a.manager, a.store, template.NewRenderer(a.manager, a.stream), a.stream)
	a.commands = commands.NewService(a.store, router, a.perms)

	a.hub = ws.NewHub(a.log)
	stagger := time.Duration(a.manager.Get().Parser.ResponseStaggerMS) * time.Millisecond
	emitter := parser.NewEmitter(a.log, sink, a.timers, stagger)
	a.engine = parser.New(a.log, a.manager, a.perms, router, emitter, a.hub)

	if err := commands.RegisterAliases(a.engine); err != nil {
		return err
	}
	if err := commands.NewPricing(a.log, a.manager, a.store, translator).Register(a.engine); err != nil {
		return err
	}

	a.cooldowns = cooldown.New(a.log, a.manager, a.store.Cooldowns(), translator)
	if err := a.cooldowns.Register(a.engine); err != nil {
		return err
	}
	if err := a.cooldowns.Reload(ctx); err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}

	mod := moderation.New(a.log, a.manager, a.store, translator)
	if err := mod.Register(a.engine); err != nil {
		return err
	}

	var users ports.UserResolver
	if a.helix != nil {
		users = a.helix
	}
	admin.New(a.log, a.manager, translator, a.commands, a.cooldowns, mod, a.store.Points(), users).Register(a.engine)
	user.New(a.log, a.manager, translator, a.store.Points()).Register(a.engine)

	a.log.Info("Pipeline ready", "parsers", a.engine.Parsers())
	return nil
}

// handle обрабатывает входящее сообщение в своей горутине.
func (a *App) handle(ctx context.Context, msg *message.ChatMessage) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()

		if _, err := a.engine.Process(ctx, msg, parser.ProcessOptions{}); err != nil {
			a.log.Error("Failed to process message", err, "user", msg.Sender.Username, "id", msg.ID)
		}
	}()
}

// Run запускает чат и админку и ждет отмены ctx или падения одного из них.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.twitch != nil {
		a.twitch.PollStream(a.timers)
	}

	r := http.NewRouter(a.log, a.manager, handlers.New(a.log, a.manager, a.commands, a.cooldowns, a.engine, a.hub))

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	run("http", r.Run)
	if a.irc != nil {
		run("irc", a.irc.Run)
	}

	wg.Wait()
	close(errCh)

	a.inflight.Wait()
	return <-errCh
}

// Simulate прогоняет одно сообщение без отправки в чат.
func (a *App) Simulate(ctx context.Context, msg *message.ChatMessage) (*parser.Result, error) {
	msg.Channel = a.manager.Get().Twitch.Channel
	return a.engine.Process(ctx, msg, parser.ProcessOptions{Quiet: true})
}

func (a *App) Log() logger.Logger {
	return a.log
}

func (a *App) Close() {
	a.timers.Stop()
	if a.twitch != nil {
		a.twitch.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("Failed to close store", err)
		}
	}
	if a.shutdownTracing != nil {
		a.shutdownTracing()
	}
}

// logSink пишет исходящие действия в лог, когда чата нет.
type logSink struct {
	log logger.Logger
}

func (s logSink) SendMessage(_ context.Context, text string, to message.Sender, attrs ports.MessageAttrs) error {
	s.log.Info("Outbound message", "to", to.Username, "whisper", attrs.Whisper, "text", text)
	return nil
}

func (s logSink) Timeout(_ context.Context, user message.Sender, reason string, seconds int) error {
	s.log.Info("Outbound timeout", "user", user.Username, "seconds", seconds, "reason", reason)
	return nil
}
