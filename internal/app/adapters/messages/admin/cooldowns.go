package admin

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/cooldown"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"context"
	"strings"
)

const (
	cooldownSetUsage    = "!cooldown [set] <key> <global|user> <seconds> [quiet]"
	cooldownUnsetUsage  = "!cooldown unset <key>"
	cooldownToggleUsage = "!cooldown toggle <moderators|owners|subscribers|followers|enabled> <key>"
)

// handleCooldownSet разбирает аргументы с конца: ключ может состоять из нескольких слов.
func (a *Admin) handleCooldownSet(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	args := strings.Fields(params)

	quiet := false
	if len(args) > 0 && strings.EqualFold(args[len(args)-1], "quiet") {
		quiet = true
		args = args[:len(args)-1]
	}
	if len(args) < 3 {
		return a.fail(ctx, pc, errs.NewParseError(cooldownSetUsage, ""))
	}

	seconds, err := parseIntArg(args[len(args)-1], cooldownSetUsage, 0)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	scope := domain.CooldownScope(strings.ToLower(args[len(args)-2]))
	if !scope.Valid() {
		return a.fail(ctx, pc, errs.NewParseError(cooldownSetUsage, "scope must be global or user"))
	}

	key := domain.NormalizeCommand(strings.Join(args[:len(args)-2], " "))
	if _, err := a.cooldowns.Set(ctx, key, scope, seconds, quiet); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "cooldowns.cooldown-was-set", map[string]any{
		"type":    string(scope),
		"command": key,
		"seconds": seconds,
	})
}

func (a *Admin) handleCooldownUnset(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	key := domain.NormalizeCommand(params)
	if key == "" {
		return a.fail(ctx, pc, errs.NewParseError(cooldownUnsetUsage, ""))
	}

	if err := a.cooldowns.Unset(ctx, key); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "cooldowns.cooldown-was-unset", map[string]any{"command": key})
}

func (a *Admin) handleCooldownToggle(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	args := strings.Fields(params)
	if len(args) < 2 {
		return a.fail(ctx, pc, errs.NewParseError(cooldownToggleUsage, ""))
	}

	field := strings.ToLower(args[0])
	key := domain.NormalizeCommand(strings.Join(args[1:], " "))

	value, err := a.cooldowns.Toggle(ctx, key, field)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	if field == cooldown.FieldEnabled {
		msg := "cooldowns.cooldown-was-disabled"
		if value {
			msg = "cooldowns.cooldown-was-enabled"
		}
		return a.reply(pc, msg, map[string]any{"command": key})
	}

	// value=true - группа освобождена от кулдауна
	msg := "cooldowns.cooldown-was-enabled-for-x"
	if value {
		msg = "cooldowns.cooldown-was-disabled-for-x"
	}
	return a.reply(pc, msg, map[string]any{"command": key, "type": field})
}
