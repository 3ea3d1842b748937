package admin

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"context"
	"errors"
)

const (
	aliasUsage       = "!alias <add|edit|remove|toggle|toggle-visibility|list>"
	aliasAddUsage    = "!alias add (-p <permission>) -a <!alias> -c <!command>"
	aliasEditUsage   = "!alias edit (-p <permission>) -a <!alias> (-c <!command>)"
	aliasRemoveUsage = "!alias remove <!alias>"
	aliasToggleUsage = "!alias toggle <!alias>"
	aliasVisUsage    = "!alias toggle-visibility <!alias>"
)

func (a *Admin) handleAliasAdd(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	fs, err := parseFlags(params, aliasAddUsage, []string{"-p", "-a", "-c"}, nil, "")
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	if !fs.has("-a") || !fs.has("-c") {
		return a.fail(ctx, pc, errs.NewParseError(aliasAddUsage, "-a and -c are required"))
	}

	alias, command := domain.NormalizeCommand(fs.value("-a")), domain.NormalizeCommand(fs.value("-c"))
	if alias == command {
		return a.reply(pc, "alias.alias-cannot-be-self", map[string]any{"alias": alias})
	}

	if _, err := a.commands.AddAlias(ctx, alias, command, fs.value("-p")); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return a.reply(pc, "core.already-exists", map[string]any{"key": alias})
		}
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "alias.alias-was-added", map[string]any{"alias": alias, "command": command})
}

func (a *Admin) handleAliasEdit(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	fs, err := parseFlags(params, aliasEditUsage, []string{"-p", "-a", "-c"}, nil, "")
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	if !fs.has("-a") || (!fs.has("-c") && !fs.has("-p")) {
		return a.fail(ctx, pc, errs.NewParseError(aliasEditUsage, "-a and one of -c, -p are required"))
	}

	alias := domain.NormalizeCommand(fs.value("-a"))
	if fs.has("-c") && domain.NormalizeCommand(fs.value("-c")) == alias {
		return a.reply(pc, "alias.alias-cannot-be-self", map[string]any{"alias": alias})
	}

	updated, err := a.commands.EditAlias(ctx, alias, domain.NormalizeCommand(fs.value("-c")), fs.value("-p"))
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "alias.alias-was-edited", map[string]any{"alias": alias, "command": updated.Command})
}

func (a *Admin) handleAliasRemove(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	alias := domain.NormalizeCommand(params)
	if alias == "" {
		return a.fail(ctx, pc, errs.NewParseError(aliasRemoveUsage, ""))
	}

	if err := a.commands.RemoveAlias(ctx, alias); err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "alias.alias-was-removed", map[string]any{"alias": alias})
}

func (a *Admin) handleAliasToggle(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	alias := domain.NormalizeCommand(params)
	if alias == "" {
		return a.fail(ctx, pc, errs.NewParseError(aliasToggleUsage, ""))
	}

	enabled, err := a.commands.ToggleAlias(ctx, alias)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	key := "alias.alias-was-disabled"
	if enabled {
		key = "alias.alias-was-enabled"
	}
	return a.reply(pc, key, map[string]any{"alias": alias})
}

func (a *Admin) handleAliasVisibility(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	alias := domain.NormalizeCommand(params)
	if alias == "" {
		return a.fail(ctx, pc, errs.NewParseError(aliasVisUsage, ""))
	}

	visible, err := a.commands.ToggleAliasVisibility(ctx, alias)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	key := "alias.alias-was-concealed"
	if visible {
		key = "alias.alias-was-exposed"
	}
	return a.reply(pc, key, map[string]any{"alias": alias})
}

func (a *Admin) handleAliasList(ctx context.Context, pc *parser.Context, _ string) ([]parser.Response, error) {
	aliases, err := a.commands.ListAliases(ctx)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	items := make([]string, 0, len(aliases))
	for _, al := range aliases {
		if al.Visible {
			items = append(items, al.Alias+" -> "+al.Command)
		}
	}
	if len(items) == 0 {
		return a.reply(pc, "alias.list-is-empty", nil)
	}
	return a.reply(pc, "alias.list-is-not-empty", map[string]any{"list": joinList(items)})
}
