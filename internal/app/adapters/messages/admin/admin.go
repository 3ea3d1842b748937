package admin

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/commands"
	"chatcore/internal/app/domain/cooldown"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/moderation"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"strings"
)

// Admin - встроенные команды управления командами, алиасами, ценами, кулдаунами и разрешениями.
type Admin struct {
	log        logger.Logger
	manager    *config.Manager
	translator ports.Translator
	commands   *commands.Service
	cooldowns  *cooldown.Service
	moderation *moderation.Service
	points     ports.PointsRepository
	users      ports.UserResolver
}

func New(log logger.Logger, manager *config.Manager, translator ports.Translator, cmds *commands.Service,
	cooldowns *cooldown.Service, mod *moderation.Service, points ports.PointsRepository, users ports.UserResolver) *Admin {
	return &Admin{
		log:        log,
		manager:    manager,
		translator: translator,
		commands:   cmds,
		cooldowns:  cooldowns,
		moderation: mod,
		points:     points,
		users:      users,
	}
}

func (a *Admin) Register(e *parser.Engine) {
	handlers := map[string]parser.CommandHandler{
		"!command":                   a.usage(commandUsage),
		"!command add":               a.handleCommandAdd,
		"!command edit":              a.handleCommandEdit,
		"!command remove":            a.handleCommandRemove,
		"!command toggle":            a.handleCommandToggle,
		"!command toggle-visibility": a.handleCommandVisibility,
		"!command list":              a.handleCommandList,

		"!alias":                   a.usage(aliasUsage),
		"!alias add":               a.handleAliasAdd,
		"!alias edit":              a.handleAliasEdit,
		"!alias remove":            a.handleAliasRemove,
		"!alias toggle":            a.handleAliasToggle,
		"!alias toggle-visibility": a.handleAliasVisibility,
		"!alias list":              a.handleAliasList,

		"!price":        a.usage(priceUsage),
		"!price set":    a.handlePriceSet,
		"!price unset":  a.handlePriceUnset,
		"!price toggle": a.handlePriceToggle,
		"!price list":   a.handlePriceList,

		"!cooldown":        a.handleCooldownSet,
		"!cooldown set":    a.handleCooldownSet,
		"!cooldown unset":  a.handleCooldownUnset,
		"!cooldown toggle": a.handleCooldownToggle,

		"!points add": a.handlePointsAdd,
	}

	for name, handler := range handlers {
		e.RegisterCommand(name, handler, domain.TierCasters)
	}
	e.RegisterCommand("!permit", a.handlePermit, domain.TierModerators)
}

func (a *Admin) usage(usage string) parser.CommandHandler {
	return func(ctx context.Context, pc *parser.Context, _ string) ([]parser.Response, error) {
		return a.fail(ctx, pc, errs.NewParseError(usage, ""))
	}
}

func (a *Admin) reply(pc *parser.Context, key string, vars map[string]any) ([]parser.Response, error) {
	if vars == nil {
		vars = make(map[string]any, 1)
	}
	vars["sender"] = "@" + pc.Sender().Name()
	return []parser.Response{{Text: a.translator.Prepare(key, vars)}}, nil
}

// fail переводит ошибку админки в ответ отправителю; непредвиденные только логируются.
func (a *Admin) fail(_ context.Context, pc *parser.Context, err error) ([]parser.Response, error) {
	var pe *errs.ParseError
	var nf *errs.NotFoundError

	switch {
	case errors.As(err, &pe):
		return a.reply(pc, "core.command-parse", map[string]any{"usage": pe.Usage})
	case errors.As(err, &nf):
		return a.notFound(pc, nf)
	case errors.Is(err, errs.ErrNotFound):
		return a.reply(pc, "core.not-found", map[string]any{"entity": "entry", "key": ""})
	case errors.Is(err, errs.ErrInvalid):
		return a.reply(pc, "core.invalid", map[string]any{"reason": invalidReason(err)})
	case errors.Is(err, errs.ErrUnavailable):
		return a.reply(pc, "core.unavailable", map[string]any{"feature": "user lookup"})
	}

	a.log.Error("Admin command failed", err, "user", pc.Sender().Username, "text", pc.Text())
	return a.reply(pc, "core.internal-error", nil)
}

func (a *Admin) notFound(pc *parser.Context, nf *errs.NotFoundError) ([]parser.Response, error) {
	switch nf.Entity {
	case "command":
		return a.reply(pc, "customcmds.command-was-not-found", map[string]any{"command": nf.Key})
	case "response":
		command, rid, _ := strings.Cut(nf.Key, "#")
		return a.reply(pc, "customcmds.response-was-not-found", map[string]any{"command": command, "response": rid})
	case "alias":
		return a.reply(pc, "alias.alias-was-not-found", map[string]any{"alias": nf.Key})
	case "price":
		return a.reply(pc, "price.price-was-not-found", map[string]any{"command": nf.Key})
	case "cooldown":
		return a.reply(pc, "cooldowns.cooldown-not-found", map[string]any{"command": nf.Key})
	}
	return a.reply(pc, "core.not-found", map[string]any{"entity": nf.Entity, "key": nf.Key})
}

func invalidReason(err error) string {
	return strings.TrimPrefix(err.Error(), errs.ErrInvalid.Error()+": ")
}

// joinList собирает список для ответа в одну строку.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}
