package commands

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/expr"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/template"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// maxCommandTokens ограничивает число поисков в хранилище для длинных сообщений.
const maxCommandTokens = 16

type builtin struct {
	handler    parser.CommandHandler
	permission string
}

var _ parser.CommandRouter = (*Router)(nil)

// Router сопоставляет текст с командами по самому длинному префиксу слов
// и выполняет встроенные и пользовательские команды.
type Router struct {
	log      logger.Logger
	manager  *config.Manager
	commands ports.CommandRepository
	aliases  ports.AliasRepository
	filters  *expr.Cache
	renderer *template.Renderer
	stream   ports.StreamPort
	now      func() time.Time

	mu       sync.RWMutex
	builtins map[string]builtin
	counts   map[string]int64
}

func NewRouter(log logger.Logger, manager *config.Manager, store ports.Store, renderer *template.Renderer, stream ports.StreamPort) *Router {
	return &Router{
		log:      log,
		manager:  manager,
		commands: store.Commands(),
		aliases:  store.Aliases(),
		filters:  expr.NewCache(1024, time.Hour),
		renderer: renderer,
		stream:   stream,
		now:      time.Now,
		builtins: make(map[string]builtin),
		counts:   make(map[string]int64),
	}
}

func (r *Router) Register(name string, handler parser.CommandHandler, permission string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builtins[domain.NormalizeCommand(name)] = builtin{handler: handler, permission: permission}
}

// IsBuiltin - занято ли имя встроенной командой.
func (r *Router) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.builtins[domain.NormalizeCommand(name)]
	return ok
}

// Builtins - имена встроенных команд с итоговыми правами.
func (r *Router) Builtins() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.builtins))
	for name, b := range r.builtins {
		out[name] = r.permissionFor(name, b)
	}
	return out
}

func (r *Router) permissionFor(name string, b builtin) string {
	if p, ok := r.manager.Get().Commands.Permissions[name]; ok {
		return p
	}
	return b.permission
}

func (r *Router) lookupBuiltin(name string) (builtin, bool) {
	r.mu.RLock()
	b, ok := r.builtins[name]
	r.mu.RUnlock()
	if !ok {
		return builtin{}, false
	}

	if slices.ContainsFunc(r.manager.Get().Commands.Disabled, func(d string) bool {
		return domain.NormalizeCommand(d) == name
	}) {
		return builtin{}, false
	}
	return b, true
}

func (r *Router) Resolve(ctx context.Context, pc *parser.Context, text string, followAliases bool) (*parser.Resolution, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "!") {
		return nil, nil
	}

	if followAliases {
		res, handled, err := r.resolveAlias(ctx, pc, tokens)
		if err != nil || handled {
			return res, err
		}
	}
	return r.resolveCommand(ctx, tokens)
}

// resolveAlias возвращает handled=true, если найден подходящий алиас: тогда
// результат окончательный, даже если цель не нашлась.
func (r *Router) resolveAlias(ctx context.Context, pc *parser.Context, tokens []string) (*parser.Resolution, bool, error) {
	for n := min(len(tokens), maxCommandTokens); n > 0; n-- {
		candidate := domain.NormalizeCommand(strings.Join(tokens[:n], " "))

		alias, err := r.aliases.FindByAlias(ctx, candidate)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if !alias.Enabled {
			continue
		}

		if alias.Alias == domain.NormalizeCommand(alias.Command) {
			r.log.Warn("Alias points to itself, skipping", "alias", alias.Alias)
			return nil, false, nil
		}

		ok, err := pc.Permissions().CheckAccess(ctx, pc.Sender(), alias.Permission)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		rewritten := strings.Join(append(strings.Fields(alias.Command), tokens[n:]...), " ")
		res, err := r.resolveCommand(ctx, strings.Fields(rewritten))
		if err != nil {
			return nil, true, err
		}
		if res == nil {
			return nil, true, nil
		}

		// цель "!a b" не должна подменяться более короткой командой "!a"
		if res.Tokens < domain.TokenCount(alias.Command) {
			r.log.Warn("Alias target resolves to a shorter command, refusing",
				"alias", alias.Alias, "target", alias.Command, "resolved", res.Name)
			return nil, true, nil
		}

		res.Alias = alias.Alias
		res.Rewritten = rewritten
		return res, true, nil
	}
	return nil, false, nil
}

func (r *Router) resolveCommand(ctx context.Context, tokens []string) (*parser.Resolution, error) {
	for n := min(len(tokens), maxCommandTokens); n > 0; n-- {
		name := domain.NormalizeCommand(strings.Join(tokens[:n], " "))
		params := strings.Join(tokens[n:], " ")

		if b, ok := r.lookupBuiltin(name); ok {
			return &parser.Resolution{
				Name:       name,
				Params:     params,
				Builtin:    true,
				Permission: r.permissionFor(name, b),
				Tokens:     n,
			}, nil
		}

		cmd, err := r.commands.FindByCommand(ctx, name)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !cmd.Enabled {
			continue
		}

		return &parser.Resolution{Name: name, Params: params, Tokens: n}, nil
	}
	return nil, nil
}

func (r *Router) Execute(ctx context.Context, pc *parser.Context, res *parser.Resolution) ([]parser.Response, error) {
	if res.Builtin {
		b, ok := r.lookupBuiltin(res.Name)
		if !ok {
			return nil, errs.NotFound("command", res.Name)
		}
		return b.handler(ctx, pc, res.Params)
	}

	cmd, err := r.commands.FindByCommand(ctx, res.Name)
	if err != nil {
		return nil, fmt.Errorf("load command: %w", err)
	}
	return r.respond(ctx, pc, cmd, res.Params)
}

// respond отбирает ответы по правам и фильтрам в порядке Order; первый прошедший
// stopIfExecuted завершает выборку.
func (r *Router) respond(ctx context.Context, pc *parser.Context, cmd *domain.Command, params string) ([]parser.Response, error) {
	cmd.SortResponses()
	count := r.increment(cmd.Command)
	sender := pc.Sender()

	var vars map[string]any
	var out []parser.Response
	for _, resp := range cmd.Responses {
		ok, err := pc.Permissions().CheckAccess(ctx, sender, resp.Permission)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if strings.TrimSpace(resp.Filter) != "" {
			if vars == nil {
				vars = r.filterVars(ctx, pc, params)
			}
			pass, err := r.filters.Evaluate(resp.Filter, vars)
			if err != nil {
				r.log.Warn("Response filter failed", "command", cmd.Command, "response", resp.ID, "error", err)
				continue
			}
			if !pass {
				continue
			}
		}

		out = append(out, parser.Response{Text: r.renderer.Render(resp.Text, template.Vars{
			Sender: sender.Name(),
			Param:  params,
			Count:  count,
		})})

		if resp.StopIfExecuted {
			break
		}
	}
	return out, nil
}

func (r *Router) increment(command string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[command]++
	return r.counts[command]
}

func (r *Router) filterVars(ctx context.Context, pc *parser.Context, params string) map[string]any {
	sender := pc.Sender()
	perms := pc.Permissions()

	rank := ""
	if tier, err := perms.HighestPermission(ctx, sender); err == nil && tier != nil {
		rank = tier.Name
	}

	vars := map[string]any{
		"$sender":         sender.Name(),
		"$param":          params,
		"$haveParam":      strings.TrimSpace(params) != "",
		"$is.subscriber":  sender.Badges.Subscriber,
		"$is.moderator":   sender.Badges.Moderator,
		"$is.vip":         sender.Badges.VIP,
		"$is.broadcaster": sender.Badges.Broadcaster,
		"$is.bot":         perms.IsBot(sender),
		"$is.owner":       perms.IsOwner(sender),
		"$is.follower":    perms.IsFollower(sender),
		"$rank":           rank,
		"$isStreamOnline": false,
		"$viewers":        0,
		"$game":           "",
		"$title":          "",
		"$uptime":         time.Duration(0),
	}

	if r.stream != nil {
		vars["$isStreamOnline"] = r.stream.IsLive()
		vars["$viewers"] = r.stream.Viewers()
		vars["$game"] = r.stream.Category()
		vars["$title"] = r.stream.Title()
		if started := r.stream.StartedAt(); r.stream.IsLive() && !started.IsZero() {
			vars["$uptime"] = r.now().Sub(started)
		}
	}

	for name, val := range r.manager.Get().Variables {
		vars["$_"+name] = val
	}
	return vars
}
