package admin

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"context"
	"strconv"
	"strings"
)

const (
	priceUsage       = "!price <set|unset|toggle|list>"
	priceSetUsage    = "!price set <!command> <amount>"
	priceUnsetUsage  = "!price unset <!command>"
	priceToggleUsage = "!price toggle <!command>"
)

func (a *Admin) handlePriceSet(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	args := strings.Fields(params)
	if len(args) < 2 {
		return a.fail(ctx, pc, errs.NewParseError(priceSetUsage, ""))
	}

	amount, err := parseIntArg(args[len(args)-1], priceSetUsage, 0)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	command := domain.NormalizeCommand(strings.Join(args[:len(args)-1], " "))
	if _, err := a.commands.SetPrice(ctx, command, int64(amount)); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "price.price-was-set", map[string]any{
		"command":    command,
		"amount":     amount,
		"pointsName": a.manager.Get().Points.Name,
	})
}

func (a *Admin) handlePriceUnset(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	command := domain.NormalizeCommand(params)
	if command == "" {
		return a.fail(ctx, pc, errs.NewParseError(priceUnsetUsage, ""))
	}

	if err := a.commands.UnsetPrice(ctx, command); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "price.price-was-unset", map[string]any{"command": command})
}

func (a *Admin) handlePriceToggle(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	command := domain.NormalizeCommand(params)
	if command == "" {
		return a.fail(ctx, pc, errs.NewParseError(priceToggleUsage, ""))
	}

	enabled, err := a.commands.TogglePrice(ctx, command)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	key := "price.price-was-disabled"
	if enabled {
		key = "price.price-was-enabled"
	}
	return a.reply(pc, key, map[string]any{"command": command})
}

func (a *Admin) handlePriceList(ctx context.Context, pc *parser.Context, _ string) ([]parser.Response, error) {
	prices, err := a.commands.ListPrices(ctx)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	items := make([]string, 0, len(prices))
	for _, p := range prices {
		item := p.Command + " " + strconv.FormatInt(p.Price, 10)
		if !p.Enabled {
			item += " (off)"
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return a.reply(pc, "price.list-is-empty", nil)
	}
	return a.reply(pc, "price.list-is-not-empty", map[string]any{"list": joinList(items)})
}
