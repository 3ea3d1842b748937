package parser

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage/memory"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type route struct {
	handler    CommandHandler
	permission string
}

type fakeRouter struct {
	routes map[string]route
}

func (r *fakeRouter) Register(name string, h CommandHandler, permission string) {
	r.routes[domain.NormalizeCommand(name)] = route{handler: h, permission: permission}
}

func (r *fakeRouter) Resolve(_ context.Context, _ *Context, text string, _ bool) (*Resolution, error) {
	name, params, _ := strings.Cut(text, " ")
	rt, ok := r.routes[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	return &Resolution{Name: strings.ToLower(name), Params: params, Builtin: true, Permission: rt.permission, Tokens: 1}, nil
}

func (r *fakeRouter) Execute(ctx context.Context, pc *Context, res *Resolution) ([]Response, error) {
	return r.routes[res.Name].handler(ctx, pc, res.Params)
}

type sent struct {
	text    string
	whisper bool
}

type fakeSink struct {
	mu       sync.Mutex
	messages []sent
	timeouts []int
}

func (s *fakeSink) SendMessage(_ context.Context, text string, _ message.Sender, attrs ports.MessageAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sent{text: text, whisper: attrs.Whisper})
	return nil
}

func (s *fakeSink) Timeout(_ context.Context, _ message.Sender, _ string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts = append(s.timeouts, seconds)
	return nil
}

type immediateScheduler struct {
	delays []time.Duration
}

func (s *immediateScheduler) Schedule(delay time.Duration, task func()) {
	s.delays = append(s.delays, delay)
	task()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(ev ports.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type fixture struct {
	engine *Engine
	router *fakeRouter
	sink   *fakeSink
	sched  *immediateScheduler
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Twitch.BotUsername = "chatbot"
	manager, err := config.NewInMemory(cfg)
	require.NoError(t, err)

	log := logger.New(logger.WithoutFile(), logger.WithWriter(io.Discard))
	store := memory.New()
	perms := permissions.New(log, manager, store.Tiers(), nil)
	require.NoError(t, perms.EnsureDefaults(context.Background()))

	f := &fixture{
		router: &fakeRouter{routes: make(map[string]route)},
		sink:   &fakeSink{},
		sched:  &immediateScheduler{},
		events: &recordingPublisher{},
	}
	f.engine = New(log, manager, perms, f.router, NewEmitter(log, f.sink, f.sched, 750*time.Millisecond), f.events)
	return f
}

func viewerMsg(text string) *message.ChatMessage {
	return message.New(message.Sender{UserID: "10", Username: "viewer"}, text)
}

func modMsg(text string) *message.ChatMessage {
	return message.New(message.Sender{UserID: "20", Username: "mod", Badges: message.Badges{Moderator: true}}, text)
}

func TestProcess_PriorityOrder(t *testing.T) {
	f := newFixture(t)

	var order []string
	add := func(name string, prio int) {
		require.NoError(t, f.engine.RegisterParser(name, func(context.Context, *Context) (bool, error) {
			order = append(order, name)
			return true, nil
		}, Options{Priority: prio}))
	}
	add("low", Low)
	add("first-high", High)
	add("highest", Highest)
	add("second-high", High)

	_, err := f.engine.Process(context.Background(), viewerMsg("hello"), ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"highest", "first-high", "second-high", "low"}, order, "при равном приоритете порядок регистрации")
	assert.Equal(t, order, f.engine.Parsers())
	assert.Error(t, f.engine.RegisterParser("low", nil, Options{}), "имя должно быть уникальным")
}

func TestProcess_VetoStopsAndRollsBackInReverse(t *testing.T) {
	f := newFixture(t)

	var rolled []any
	f.engine.RegisterRollback("a", func(_ context.Context, _ *Context, token any) error {
		rolled = append(rolled, token)
		return nil
	})
	f.engine.RegisterRollback("b", func(_ context.Context, _ *Context, token any) error {
		rolled = append(rolled, token)
		return errors.New("rollback b failed")
	})

	require.NoError(t, f.engine.RegisterParser("commit-1", func(_ context.Context, pc *Context) (bool, error) {
		pc.Commit("a", 1)
		return true, nil
	}, Options{Priority: High}))
	require.NoError(t, f.engine.RegisterParser("commit-2", func(_ context.Context, pc *Context) (bool, error) {
		pc.Commit("b", 2)
		pc.Commit("a", 3)
		return true, nil
	}, Options{Priority: Medium}))
	require.NoError(t, f.engine.RegisterParser("veto", func(context.Context, *Context) (bool, error) {
		return false, nil
	}, Options{Priority: Low}))

	executed := false
	require.NoError(t, f.engine.RegisterParser("after", func(context.Context, *Context) (bool, error) {
		executed = true
		return true, nil
	}, Options{Priority: Lowest}))

	dispatched := false
	f.engine.RegisterCommand("!cmd", func(context.Context, *Context, string) ([]Response, error) {
		dispatched = true
		return nil, nil
	}, "")

	res, err := f.engine.Process(context.Background(), viewerMsg("!cmd"), ProcessOptions{})
	require.NoError(t, err)
	assert.True(t, res.Halted)
	assert.Equal(t, "veto", res.HaltedBy)
	assert.False(t, executed, "middleware после вето не выполняется")
	assert.False(t, dispatched, "команда после вето не выполняется")
	assert.Equal(t, []any{3, 2, 1}, rolled, "откат в обратном порядке, ошибка не прерывает проход")
	assert.Equal(t, []string{"a", "a"}, res.RolledBack)
}

func TestProcess_SkipRunsOnlyAlwaysRun(t *testing.T) {
	f := newFixture(t)

	var ran []string
	for _, name := range []string{"regular", "always"} {
		name := name
		require.NoError(t, f.engine.RegisterParser(name, func(context.Context, *Context) (bool, error) {
			ran = append(ran, name)
			return true, nil
		}, Options{Priority: Medium, AlwaysRun: name == "always"}))
	}

	_, err := f.engine.Process(context.Background(), viewerMsg("hi"), ProcessOptions{Skip: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"always"}, ran)
}

func TestProcess_ParserPermission(t *testing.T) {
	f := newFixture(t)

	calls := 0
	require.NoError(t, f.engine.RegisterParser("mods-only", func(context.Context, *Context) (bool, error) {
		calls++
		return true, nil
	}, Options{Permission: domain.TierModerators}))

	_, _ = f.engine.Process(context.Background(), viewerMsg("x"), ProcessOptions{})
	_, _ = f.engine.Process(context.Background(), modMsg("x"), ProcessOptions{})
	assert.Equal(t, 1, calls)
}

func TestProcess_FailOpenAndUserError(t *testing.T) {
	tests := []struct {
		name       string
		handler    Handler
		wantHalted bool
		wantReply  []Response
	}{
		{
			name:    "ошибка пропускает дальше",
			handler: func(context.Context, *Context) (bool, error) { return false, errors.New("db down") },
		},
		{
			name:    "паника пропускает дальше",
			handler: func(context.Context, *Context) (bool, error) { panic("boom") },
		},
		{
			name:       "UserError отвечает и останавливает",
			handler:    func(context.Context, *Context) (bool, error) { return true, errs.User("not allowed", nil) },
			wantHalted: true,
			wantReply:  []Response{{Text: "not allowed"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.engine.RegisterParser("mw", tt.handler, Options{}))

			res, err := f.engine.Process(context.Background(), viewerMsg("x"), ProcessOptions{Quiet: true})
			require.NoError(t, err)
			assert.Equal(t, tt.wantHalted, res.Halted)
			assert.Equal(t, tt.wantReply, res.Responses)
		})
	}
}

func TestProcess_IgnoredSenders(t *testing.T) {
	f := newFixture(t)

	calls := 0
	require.NoError(t, f.engine.RegisterParser("mw", func(context.Context, *Context) (bool, error) {
		calls++
		return true, nil
	}, Options{}))

	for _, name := range []string{"Nightbot", "chatbot"} {
		res, err := f.engine.Process(context.Background(), message.New(message.Sender{UserID: "1", Username: name}, "!cmd"), ProcessOptions{})
		require.NoError(t, err)
		assert.True(t, res.Ignored, name)
	}
	assert.Zero(t, calls)
}

func TestProcess_DispatchPermissionDeniedRollsBack(t *testing.T) {
	f := newFixture(t)

	rolled := false
	f.engine.RegisterRollback("cooldown", func(context.Context, *Context, any) error {
		rolled = true
		return nil
	})
	require.NoError(t, f.engine.RegisterParser("cooldown", func(_ context.Context, pc *Context) (bool, error) {
		pc.Commit("cooldown", nil)
		return true, nil
	}, Options{Priority: High}))
	f.engine.RegisterCommand("!secret", func(context.Context, *Context, string) ([]Response, error) {
		return []Response{{Text: "secret"}}, nil
	}, domain.TierModerators)

	res, err := f.engine.Process(context.Background(), viewerMsg("!secret"), ProcessOptions{})
	require.NoError(t, err)
	assert.True(t, res.Halted)
	assert.Equal(t, HaltedByPermission, res.HaltedBy)
	assert.True(t, rolled)
	assert.Empty(t, f.sink.messages)

	res, err = f.engine.Process(context.Background(), modMsg("!secret"), ProcessOptions{})
	require.NoError(t, err)
	assert.False(t, res.Halted)
	assert.Equal(t, "!secret", res.Command)
}

func TestProcess_EmitsStaggeredUnlessQuiet(t *testing.T) {
	f := newFixture(t)
	f.engine.RegisterCommand("!multi", func(_ context.Context, _ *Context, params string) ([]Response, error) {
		return []Response{{Text: "one " + params}, {Text: "two"}, {Text: "three", Whisper: true}}, nil
	}, "")

	res, err := f.engine.Process(context.Background(), viewerMsg("!multi x"), ProcessOptions{Quiet: true})
	require.NoError(t, err)
	assert.Len(t, res.Responses, 3)
	assert.Equal(t, "x", res.Params)
	assert.Empty(t, f.sink.messages, "тихий режим ничего не отправляет")

	_, err = f.engine.Process(context.Background(), viewerMsg("!multi x"), ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, []sent{{text: "one x"}, {text: "two"}, {text: "three", whisper: true}}, f.sink.messages)
	assert.Equal(t, []time.Duration{750 * time.Millisecond, 1500 * time.Millisecond}, f.sched.delays)
}

func TestProcess_ExecuteErrors(t *testing.T) {
	f := newFixture(t)
	f.engine.RegisterCommand("!usage", func(context.Context, *Context, string) ([]Response, error) {
		return nil, errs.NewParseError("!usage <x>", "missing x")
	}, "")
	f.engine.RegisterCommand("!broken", func(context.Context, *Context, string) ([]Response, error) {
		return nil, errors.New("boom")
	}, "")

	res, err := f.engine.Process(context.Background(), viewerMsg("!usage"), ProcessOptions{Quiet: true})
	require.NoError(t, err)
	assert.True(t, res.Halted)
	assert.Equal(t, []Response{{Text: "!usage <x>"}}, res.Responses)

	res, err = f.engine.Process(context.Background(), viewerMsg("!broken"), ProcessOptions{Quiet: true})
	assert.Error(t, err)
	assert.True(t, res.Halted)
	assert.Empty(t, res.Responses, "внутренняя ошибка не показывается пользователю")
}

func TestProcess_CommandPanicIsContained(t *testing.T) {
	f := newFixture(t)

	rolled := false
	f.engine.RegisterRollback("cooldown", func(context.Context, *Context, any) error {
		rolled = true
		return nil
	})
	require.NoError(t, f.engine.RegisterParser("cooldown", func(_ context.Context, pc *Context) (bool, error) {
		pc.Commit("cooldown", nil)
		return true, nil
	}, Options{Priority: High}))
	f.engine.RegisterCommand("!crash", func(context.Context, *Context, string) ([]Response, error) {
		var m map[string]int
		m["x"]++
		return nil, nil
	}, "")

	var (
		res *Result
		err error
	)
	require.NotPanics(t, func() {
		res, err = f.engine.Process(context.Background(), viewerMsg("!crash"), ProcessOptions{})
	}, "паника обработчика не должна выходить за конвейер")
	assert.Error(t, err)
	assert.True(t, res.Halted)
	assert.Equal(t, HaltedByDispatch, res.HaltedBy)
	assert.True(t, rolled, "зафиксированные изменения откатываются")
	assert.Empty(t, f.sink.messages)
}

func TestProcess_ResubmitAndHandled(t *testing.T) {
	f := newFixture(t)

	f.engine.RegisterCommand("!target", func(_ context.Context, _ *Context, params string) ([]Response, error) {
		return []Response{{Text: "target " + params}}, nil
	}, "")

	var nestedCache *permissions.Cache
	var outerCache *permissions.Cache
	require.NoError(t, f.engine.RegisterParser("redirect", func(ctx context.Context, pc *Context) (bool, error) {
		if !strings.HasPrefix(pc.Text(), "!alias") {
			return true, nil
		}
		outerCache = pc.Permissions()
		pc.MarkHandled()
		res, err := pc.Resubmit(ctx, "!target"+strings.TrimPrefix(pc.Text(), "!alias"))
		if err != nil {
			return false, err
		}
		return !res.Halted, nil
	}, Options{Priority: Lowest}))
	require.NoError(t, f.engine.RegisterParser("spy", func(_ context.Context, pc *Context) (bool, error) {
		if pc.Skip() {
			nestedCache = pc.Permissions()
		}
		return true, nil
	}, Options{Priority: Lowest, AlwaysRun: true}))

	res, err := f.engine.Process(context.Background(), viewerMsg("!alias 42"), ProcessOptions{Quiet: true})
	require.NoError(t, err)
	assert.False(t, res.Halted)
	assert.Equal(t, "!target", res.Command)
	assert.Equal(t, []Response{{Text: "target 42"}}, res.Responses, "ответ выполнен один раз, во вложенном проходе")
	assert.Same(t, outerCache, nestedCache, "кеш прав общий")
}

func TestProcess_FireAndForgetDoesNotGate(t *testing.T) {
	f := newFixture(t)

	done := make(chan struct{})
	require.NoError(t, f.engine.RegisterParser("stats", func(context.Context, *Context) (bool, error) {
		defer close(done)
		return false, nil
	}, Options{FireAndForget: true}))

	res, err := f.engine.Process(context.Background(), viewerMsg("x"), ProcessOptions{})
	require.NoError(t, err)
	assert.False(t, res.Halted)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fire-and-forget middleware не выполнился")
	}
}

func TestContext_TimeoutQuietOnlyRecords(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.RegisterParser("mod", func(ctx context.Context, pc *Context) (bool, error) {
		pc.Timeout(ctx, 600, "links")
		return false, nil
	}, Options{Priority: Moderation}))

	res, err := f.engine.Process(context.Background(), viewerMsg("x"), ProcessOptions{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, []Timeout{{UserID: "10", Seconds: 600, Reason: "links"}}, res.Timeouts)
	assert.Empty(t, f.sink.timeouts)

	_, err = f.engine.Process(context.Background(), viewerMsg("x"), ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{600}, f.sink.timeouts)

	kinds := map[ports.EventKind]int{}
	for _, ev := range f.events.events {
		kinds[ev.Kind]++
	}
	assert.Equal(t, 2, kinds[ports.EventTimeout])
	assert.Equal(t, 2, kinds[ports.EventVeto])
}

func TestProcess_NilMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Process(context.Background(), nil, ProcessOptions{})
	assert.Error(t, err)
}
