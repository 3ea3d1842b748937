package admin

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"context"
	"fmt"
	"strings"
)

const (
	permitUsage    = "!permit <user> [count]"
	pointsAddUsage = "!points add <user> <amount>"
)

func (a *Admin) resolveUser(ctx context.Context, name string) (string, string, error) {
	login := strings.ToLower(strings.TrimPrefix(name, "@"))
	// без Twitch API логин не во что разрешить
	if a.users == nil {
		return "", "", fmt.Errorf("resolve %s: %w", login, errs.ErrUnavailable)
	}

	id, err := a.users.UserID(ctx, login)
	if err != nil {
		return "", "", err
	}
	return login, id, nil
}

func (a *Admin) handlePermit(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	args := strings.Fields(params)
	if len(args) < 1 || len(args) > 2 {
		return a.fail(ctx, pc, errs.NewParseError(permitUsage, ""))
	}

	count := 1
	if len(args) == 2 {
		var err error
		if count, err = parseIntArg(args[1], permitUsage, 1); err != nil {
			return a.fail(ctx, pc, err)
		}
	}

	login, id, err := a.resolveUser(ctx, args[0])
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	if err := a.moderation.Permit(ctx, id, count); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "moderation.permit-was-given", map[string]any{"username": login, "count": count})
}

func (a *Admin) handlePointsAdd(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	args := strings.Fields(params)
	if len(args) != 2 {
		return a.fail(ctx, pc, errs.NewParseError(pointsAddUsage, ""))
	}

	amount, err := parseIntArg(args[1], pointsAddUsage, 1)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	login, id, err := a.resolveUser(ctx, args[0])
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	if err := a.points.Increment(ctx, id, int64(amount)); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "points.points-were-given", map[string]any{
		"username":   login,
		"amount":     amount,
		"pointsName": a.manager.Get().Points.Name,
	})
}
