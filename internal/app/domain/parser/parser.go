package parser

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/internal/pkg/telemetry"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"fmt"
	"go.opentelemetry.io/otel/attribute"
	"slices"
	"strings"
	"sync"
	"time"
)

// Приоритеты middleware: меньше - раньше.
const (
	Highest    = 0
	High       = 10
	Moderation = 20
	Medium     = 30
	Low        = 40
	Lowest     = 50
)

// HaltedByPermission - имя этапа, если диспетчер отказал по правам.
const (
	HaltedByPermission = "permission"
	HaltedByDispatch   = "dispatch"
)

// Handler - middleware: true пропускает сообщение дальше, false останавливает конвейер.
type Handler func(ctx context.Context, pc *Context) (bool, error)

// Rollback откатывает состояние, зафиксированное через Context.Commit.
type Rollback func(ctx context.Context, pc *Context, token any) error

// CommandHandler выполняет команду; params - текст после имени команды.
type CommandHandler func(ctx context.Context, pc *Context, params string) ([]Response, error)

type Options struct {
	Permission    string // id тира; пусто - для всех
	Priority      int
	FireAndForget bool
	AlwaysRun     bool // выполняется и при skip=true
}

type Response struct {
	Text    string `json:"text"`
	Whisper bool   `json:"whisper,omitempty"`
}

// Resolution - результат сопоставления текста с командой.
type Resolution struct {
	Name       string // нормализованное имя команды
	Params     string
	Builtin    bool
	Permission string
	Tokens     int
	Alias      string // алиас, через который найдена команда
	Rewritten  string // текст после подстановки алиаса
}

// CommandRouter - сопоставление и выполнение команд, реализуется пакетом commands.
type CommandRouter interface {
	Resolve(ctx context.Context, pc *Context, text string, followAliases bool) (*Resolution, error)
	Execute(ctx context.Context, pc *Context, res *Resolution) ([]Response, error)
	Register(name string, handler CommandHandler, permission string)
}

type ProcessOptions struct {
	Skip  bool
	Quiet bool
}

type Timeout struct {
	UserID  string `json:"user_id"`
	Seconds int    `json:"seconds"`
	Reason  string `json:"reason"`
}

type Result struct {
	Ignored    bool       `json:"ignored,omitempty"`
	Halted     bool       `json:"halted"`
	HaltedBy   string     `json:"halted_by,omitempty"`
	Command    string     `json:"command,omitempty"`
	Params     string     `json:"params,omitempty"`
	Responses  []Response `json:"responses,omitempty"`
	Timeouts   []Timeout  `json:"timeouts,omitempty"`
	RolledBack []string   `json:"rolled_back,omitempty"`
}

type middleware struct {
	name    string
	handler Handler
	opts    Options
}

type Engine struct {
	log       logger.Logger
	manager   *config.Manager
	perms     *permissions.Directory
	router    CommandRouter
	emitter   *Emitter
	publisher ports.EventPublisher
	now       func() time.Time

	mu        sync.RWMutex
	parsers   []*middleware
	rollbacks map[string]Rollback
}

func New(log logger.Logger, manager *config.Manager, perms *permissions.Directory, router CommandRouter, emitter *Emitter, publisher ports.EventPublisher) *Engine {
	return &Engine{
		log:       log,
		manager:   manager,
		perms:     perms,
		router:    router,
		emitter:   emitter,
		publisher: publisher,
		now:       time.Now,
		rollbacks: make(map[string]Rollback),
	}
}

func (e *Engine) RegisterParser(name string, handler Handler, opts Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if slices.ContainsFunc(e.parsers, func(m *middleware) bool { return m.name == name }) {
		return fmt.Errorf("parser %q already registered", name)
	}

	e.parsers = append(e.parsers, &middleware{name: name, handler: handler, opts: opts})
	slices.SortStableFunc(e.parsers, func(a, b *middleware) int { return a.opts.Priority - b.opts.Priority })
	return nil
}

func (e *Engine) RegisterRollback(name string, handler Rollback) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rollbacks[name] = handler
}

func (e *Engine) RegisterCommand(name string, handler CommandHandler, permission string) {
	e.router.Register(name, handler, permission)
}

// Parsers возвращает имена middleware в порядке выполнения.
func (e *Engine) Parsers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.parsers))
	for _, p := range e.parsers {
		names = append(names, p.name)
	}
	return names
}

func (e *Engine) Permissions() *permissions.Directory {
	return e.perms
}

func (e *Engine) Process(ctx context.Context, msg *message.ChatMessage, opts ProcessOptions) (*Result, error) {
	if msg == nil || msg.Text == nil {
		return nil, errors.New("empty message")
	}

	pc := e.newContext(msg, opts, permissions.NewCache(e.perms))
	return e.process(ctx, pc)
}

func (e *Engine) newContext(msg *message.ChatMessage, opts ProcessOptions, cache *permissions.Cache) *Context {
	return &Context{
		engine:        e,
		msg:           msg,
		opts:          opts,
		perms:         cache,
		followAliases: !opts.Skip,
	}
}

func (e *Engine) isIgnored(sender message.Sender) bool {
	if e.perms.IsBot(sender) {
		return true
	}
	for _, name := range e.manager.Get().General.IgnoredUsers {
		if strings.EqualFold(name, sender.Username) {
			return true
		}
	}
	return false
}

func (e *Engine) process(ctx context.Context, pc *Context) (*Result, error) {
	start := time.Now()
	sender := pc.Sender()

	ctx, span := telemetry.StartSpan(ctx, "parser.process",
		attribute.String("user_id", sender.UserID),
		attribute.Bool("skip", pc.opts.Skip),
	)
	defer span.End()

	result := &Result{}
	if e.isIgnored(sender) {
		result.Ignored = true
		metrics.MessagesProcessed.WithLabelValues("ignored").Inc()
		return result, nil
	}

	e.mu.RLock()
	parsers := slices.Clone(e.parsers)
	e.mu.RUnlock()

	for _, mw := range parsers {
		if pc.opts.Skip && !mw.opts.AlwaysRun {
			continue
		}

		if mw.opts.Permission != "" {
			ok, err := pc.perms.CheckAccess(ctx, sender, mw.opts.Permission)
			if err != nil {
				e.log.Error("Failed to check parser permission", err, "parser", mw.name)
				continue
			}
			if !ok {
				continue
			}
		}

		if mw.opts.FireAndForget {
			go e.run(context.WithoutCancel(ctx), pc, mw)
			continue
		}

		if !e.run(ctx, pc, mw) {
			result.Halted = true
			result.HaltedBy = mw.name
			break
		}
	}

	var dispatchErr error
	if !result.Halted && !pc.Handled() {
		result.Halted, result.HaltedBy, dispatchErr = e.dispatch(ctx, pc, result)
	}

	if result.Halted {
		metrics.Vetoes.WithLabelValues(result.HaltedBy).Inc()
		e.publish(pc, ports.EventVeto, result.HaltedBy, nil)
		result.RolledBack = e.rollback(ctx, pc)
	}

	pc.mu.Lock()
	own := slices.Clone(pc.responses)
	result.Timeouts = slices.Clone(pc.timeouts)
	nested := pc.nested
	pc.mu.Unlock()

	if !pc.opts.Quiet && len(own) > 0 {
		e.emitter.Emit(ctx, pc.msg, own)
	}

	result.Responses = own
	if nested != nil {
		if result.Command == "" {
			result.Command, result.Params = nested.Command, nested.Params
		}
		result.Responses = append(result.Responses, nested.Responses...)
		result.Timeouts = append(result.Timeouts, nested.Timeouts...)
	}

	outcome := "passed"
	if result.Halted {
		outcome = "halted"
	}
	metrics.MessagesProcessed.WithLabelValues(outcome).Inc()
	metrics.MessageProcessingTime.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Bool("halted", result.Halted), attribute.String("halted_by", result.HaltedBy))
	telemetry.RecordError(span, dispatchErr)

	return result, dispatchErr
}

// run выполняет middleware; ошибки и паники пропускают сообщение дальше,
// кроме errs.UserError - она отвечает пользователю и останавливает конвейер.
func (e *Engine) run(ctx context.Context, pc *Context, mw *middleware) (cont bool) {
	ctx, span := telemetry.StartSpan(ctx, "parser.middleware", attribute.String("parser", mw.name))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			e.log.Error("Parser panicked", err, "parser", mw.name)
			metrics.MiddlewareErrors.WithLabelValues(mw.name).Inc()
			telemetry.RecordError(span, err)
			cont = true
		}
	}()

	ok, err := mw.handler(ctx, pc)
	if err != nil {
		telemetry.RecordError(span, err)
		if text, isUser := userReply(err); isUser {
			pc.Reply(text)
			return false
		}

		e.log.Error("Parser failed", err, "parser", mw.name)
		metrics.MiddlewareErrors.WithLabelValues(mw.name).Inc()
		return true
	}
	return ok
}

func userReply(err error) (string, bool) {
	var ue *errs.UserError
	if !errors.As(err, &ue) {
		return "", false
	}
	return ue.Message, true
}

func (e *Engine) dispatch(ctx context.Context, pc *Context, result *Result) (bool, string, error) {
	res, err := pc.Command(ctx)
	if err != nil {
		e.log.Error("Failed to resolve command", err, "text", pc.Text())
		return false, "", nil
	}
	if res == nil {
		return false, "", nil
	}

	result.Command, result.Params = res.Name, res.Params

	ok, err := pc.perms.CheckAccess(ctx, pc.Sender(), res.Permission)
	if err != nil {
		e.log.Error("Failed to check command permission", err, "command", res.Name)
		return true, HaltedByPermission, nil
	}
	if !ok {
		e.log.Debug("Command permission denied", "command", res.Name, "user", pc.Sender().Username)
		return true, HaltedByPermission, nil
	}

	responses, err := e.execute(ctx, pc, res)
	if err != nil {
		// UserError и ParseError показываются отправителю, остальное только в лог
		if text, isUser := errs.UserMessage(err); isUser {
			pc.Reply(text)
			return true, HaltedByDispatch, nil
		}

		e.log.Error("Command failed", err, "command", res.Name)
		return true, HaltedByDispatch, fmt.Errorf("execute %s: %w", res.Name, err)
	}

	kind := "custom"
	if res.Builtin {
		kind = "builtin"
	}
	metrics.CommandsExecuted.WithLabelValues(res.Name, kind).Inc()
	e.publish(pc, ports.EventCommand, res.Name, map[string]any{"params": res.Params, "alias": res.Alias})

	pc.addResponses(responses)
	return false, "", nil
}

// execute защищает конвейер от паники обработчика команды.
func (e *Engine) execute(ctx context.Context, pc *Context, res *Resolution) (responses []Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			metrics.MiddlewareErrors.WithLabelValues(HaltedByDispatch).Inc()
		}
	}()

	return e.router.Execute(ctx, pc, res)
}

// rollback проходит зафиксированные токены в обратном порядке; ошибки не прерывают проход.
func (e *Engine) rollback(ctx context.Context, pc *Context) []string {
	pc.mu.Lock()
	commits := slices.Clone(pc.commits)
	pc.commits = nil
	pc.mu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var done []string
	for i := len(commits) - 1; i >= 0; i-- {
		c := commits[i]

		handler, ok := e.rollbacks[c.name]
		if !ok {
			e.log.Warn("No rollback registered", "rollback", c.name)
			metrics.Rollbacks.WithLabelValues(c.name, "missing").Inc()
			continue
		}

		if err := handler(ctx, pc, c.token); err != nil {
			e.log.Error("Rollback failed", err, "rollback", c.name)
			metrics.Rollbacks.WithLabelValues(c.name, "error").Inc()
			continue
		}

		metrics.Rollbacks.WithLabelValues(c.name, "ok").Inc()
		e.publish(pc, ports.EventRollback, c.name, nil)
		done = append(done, c.name)
	}
	return done
}

func (e *Engine) publish(pc *Context, kind ports.EventKind, name string, data map[string]any) {
	if e.publisher == nil {
		return
	}

	sender := pc.Sender()
	e.publisher.Publish(ports.Event{
		Kind:     kind,
		Channel:  pc.msg.Channel,
		UserID:   sender.UserID,
		Username: sender.Username,
		Name:     name,
		Data:     data,
		At:       e.now(),
	})
}
