package parser

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/ports"
	"context"
	"strings"
	"sync"
)

type commit struct {
	name  string
	token any
}

// Context - состояние одного прохождения сообщения через конвейер.
type Context struct {
	engine        *Engine
	msg           *message.ChatMessage
	opts          ProcessOptions
	perms         *permissions.Cache
	followAliases bool

	mu         sync.Mutex
	handled    bool
	commits    []commit
	responses  []Response
	timeouts   []Timeout
	nested     *Result
	resolved   bool
	resolution *Resolution
	resolveErr error
}

func (pc *Context) Message() *message.ChatMessage { return pc.msg }
func (pc *Context) Sender() message.Sender        { return pc.msg.Sender }
func (pc *Context) Quiet() bool                   { return pc.opts.Quiet }
func (pc *Context) Skip() bool                    { return pc.opts.Skip }
func (pc *Context) Permissions() *permissions.Cache {
	return pc.perms
}

// Text - исходный текст без невидимых символов и крайних пробелов.
func (pc *Context) Text() string {
	return pc.msg.Text.Text(message.TrimOption)
}

// Command возвращает команду сообщения с учетом алиасов; результат кешируется.
func (pc *Context) Command(ctx context.Context) (*Resolution, error) {
	pc.mu.Lock()
	if pc.resolved {
		defer pc.mu.Unlock()
		return pc.resolution, pc.resolveErr
	}
	pc.mu.Unlock()

	res, err := pc.engine.router.Resolve(ctx, pc, pc.Text(), pc.followAliases)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.resolved = true
	pc.resolution, pc.resolveErr = res, err
	return res, err
}

// Commit запоминает токен для отката при вето.
func (pc *Context) Commit(rollback string, token any) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.commits = append(pc.commits, commit{name: rollback, token: token})
}

// MarkHandled запрещает диспетчеризацию команды в этом прохождении.
func (pc *Context) MarkHandled() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.handled = true
}

func (pc *Context) Handled() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	return pc.handled
}

func (pc *Context) Reply(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	pc.addResponses([]Response{{Text: text}})
}

func (pc *Context) Whisper(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	pc.addResponses([]Response{{Text: text, Whisper: true}})
}

func (pc *Context) addResponses(rs []Response) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.responses = append(pc.responses, rs...)
}

// Timeout выдает таймаут отправителю; в тихом режиме только записывает его в результат.
func (pc *Context) Timeout(ctx context.Context, seconds int, reason string) {
	sender := pc.Sender()

	pc.mu.Lock()
	pc.timeouts = append(pc.timeouts, Timeout{UserID: sender.UserID, Seconds: seconds, Reason: reason})
	pc.mu.Unlock()

	pc.engine.publish(pc, ports.EventTimeout, reason, map[string]any{"seconds": seconds})
	if pc.opts.Quiet {
		return
	}

	if err := pc.engine.emitter.Timeout(ctx, sender, reason, seconds); err != nil {
		pc.engine.log.Error("Failed to timeout user", err, "user", sender.Username)
		metrics.OutboundMessages.WithLabelValues("timeout", "error").Inc()
		return
	}
	metrics.OutboundMessages.WithLabelValues("timeout", "ok").Inc()
}

// Publish отправляет событие конвейера подписчикам.
func (pc *Context) Publish(kind ports.EventKind, name string, data map[string]any) {
	pc.engine.publish(pc, kind, name, data)
}

// Resubmit прогоняет переписанный текст через конвейер с skip=true,
// разделяя кеш прав с текущим сообщением.
func (pc *Context) Resubmit(ctx context.Context, text string) (*Result, error) {
	nestedCtx := pc.engine.newContext(pc.msg.WithText(text), ProcessOptions{Skip: true, Quiet: pc.opts.Quiet}, pc.perms)

	res, err := pc.engine.process(ctx, nestedCtx)
	if res != nil {
		pc.mu.Lock()
		pc.nested = res
		pc.mu.Unlock()
	}
	return res, err
}
