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
	commandUsage       = "!command <add|edit|remove|toggle|toggle-visibility|list>"
	commandAddUsage    = "!command add (-p <permission>) (-s) (-f <filter>) -c <!command> -r <response>"
	commandEditUsage   = "!command edit (-p <permission>) (-s) (-f <filter>) -c <!command> -rid <n> -r <response>"
	commandRemoveUsage = "!command remove -c <!command> (-rid <n>)"
	commandToggleUsage = "!command toggle <!command>"
	commandVisUsage    = "!command toggle-visibility <!command>"
)

func (a *Admin) handleCommandAdd(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	fs, err := parseFlags(params, commandAddUsage, []string{"-p", "-f", "-c"}, []string{"-s"}, "-r")
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	if !fs.has("-c") || !fs.has("-r") {
		return a.fail(ctx, pc, errs.NewParseError(commandAddUsage, "-c and -r are required"))
	}

	command := domain.NormalizeCommand(fs.value("-c"))
	if a.commands.IsBuiltin(command) {
		return a.reply(pc, "customcmds.command-is-builtin", map[string]any{"command": command})
	}

	_, err = a.commands.AddResponse(ctx, command, domain.Response{
		Text:           fs.value("-r"),
		Permission:     fs.value("-p"),
		Filter:         fs.value("-f"),
		StopIfExecuted: fs.has("-s"),
	})
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "customcmds.command-was-added", map[string]any{"command": command})
}

func (a *Admin) handleCommandEdit(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	fs, err := parseFlags(params, commandEditUsage, []string{"-p", "-f", "-c", "-rid"}, []string{"-s"}, "-r")
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	if !fs.has("-c") || !fs.has("-rid") {
		return a.fail(ctx, pc, errs.NewParseError(commandEditUsage, "-c and -rid are required"))
	}

	rid, err := parseIntArg(fs.value("-rid"), commandEditUsage, 1)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	command := domain.NormalizeCommand(fs.value("-c"))
	_, err = a.commands.EditResponse(ctx, command, rid, domain.Response{
		Text:           fs.value("-r"),
		Permission:     fs.value("-p"),
		Filter:         fs.value("-f"),
		StopIfExecuted: fs.has("-s"),
	})
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	return a.reply(pc, "customcmds.command-was-edited", map[string]any{"command": command})
}

func (a *Admin) handleCommandRemove(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	fs, err := parseFlags(params, commandRemoveUsage, []string{"-c", "-rid"}, nil, "")
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	command := fs.value("-c")
	if command == "" && len(fs.positional) > 0 {
		command = strings.Join(fs.positional, " ")
	}
	if command == "" {
		return a.fail(ctx, pc, errs.NewParseError(commandRemoveUsage, "-c is required"))
	}
	command = domain.NormalizeCommand(command)

	rid := 0
	if fs.has("-rid") {
		if rid, err = parseIntArg(fs.value("-rid"), commandRemoveUsage, 1); err != nil {
			return a.fail(ctx, pc, err)
		}
	}

	if err := a.commands.RemoveResponse(ctx, command, rid); err != nil {
		return a.fail(ctx, pc, err)
	}
	if rid == 0 {
		return a.reply(pc, "customcmds.command-was-removed", map[string]any{"command": command})
	}
	return a.reply(pc, "customcmds.response-was-removed", map[string]any{"command": command, "response": rid})
}

func (a *Admin) handleCommandToggle(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	command := domain.NormalizeCommand(params)
	if command == "" {
		return a.fail(ctx, pc, errs.NewParseError(commandToggleUsage, ""))
	}

	enabled, err := a.commands.ToggleCommand(ctx, command)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	key := "customcmds.command-was-disabled"
	if enabled {
		key = "customcmds.command-was-enabled"
	}
	return a.reply(pc, key, map[string]any{"command": command})
}

func (a *Admin) handleCommandVisibility(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	command := domain.NormalizeCommand(params)
	if command == "" {
		return a.fail(ctx, pc, errs.NewParseError(commandVisUsage, ""))
	}

	visible, err := a.commands.ToggleCommandVisibility(ctx, command)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	key := "customcmds.command-was-concealed"
	if visible {
		key = "customcmds.command-was-exposed"
	}
	return a.reply(pc, key, map[string]any{"command": command})
}

// handleCommandList без аргумента перечисляет видимые команды, с аргументом - ответы команды.
func (a *Admin) handleCommandList(ctx context.Context, pc *parser.Context, params string) ([]parser.Response, error) {
	if command := domain.NormalizeCommand(params); command != "" {
		return a.listResponses(ctx, pc, command)
	}

	cmds, err := a.commands.ListCommands(ctx)
	if err != nil {
		return a.fail(ctx, pc, err)
	}

	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.Visible {
			names = append(names, cmd.Command)
		}
	}
	if len(names) == 0 {
		return a.reply(pc, "customcmds.list-is-empty", nil)
	}
	return a.reply(pc, "customcmds.list-is-not-empty", map[string]any{"list": joinList(names)})
}

func (a *Admin) listResponses(ctx context.Context, pc *parser.Context, command string) ([]parser.Response, error) {
	cmd, err := a.commands.GetCommand(ctx, command)
	if err != nil {
		return a.fail(ctx, pc, err)
	}
	cmd.SortResponses()

	out := make([]parser.Response, 0, len(cmd.Responses))
	for i, resp := range cmd.Responses {
		permission := "everyone"
		if resp.Permission != "" {
			permission = resp.Permission
		}
		stop := ""
		if resp.StopIfExecuted {
			stop = "stop "
		}

		// текст ответа подставляется последним, чтобы его $-переменные не раскрылись
		line := a.translator.Prepare("customcmds.responses-list", map[string]any{
			"command":    cmd.Command,
			"index":      strconv.Itoa(i + 1),
			"permission": permission,
			"stop":       stop,
		})
		out = append(out, parser.Response{Text: strings.Replace(line, "$response", resp.Text, 1)})
	}
	if len(out) == 0 {
		return a.reply(pc, "core.no-response", nil)
	}
	return out, nil
}
