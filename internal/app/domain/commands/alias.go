package commands

import (
	"chatcore/internal/app/domain/parser"
	"context"
)

const AliasParserName = "alias"

// RegisterAliases подключает переписывание алиасов последним middleware:
// к этому моменту кулдауны и цена целевой команды уже зафиксированы.
func RegisterAliases(e *parser.Engine) error {
	return e.RegisterParser(AliasParserName, aliasHandler, parser.Options{Priority: parser.Lowest})
}

func aliasHandler(ctx context.Context, pc *parser.Context) (bool, error) {
	res, err := pc.Command(ctx)
	if err != nil || res == nil || res.Alias == "" {
		return true, err
	}

	pc.MarkHandled()
	nested, err := pc.Resubmit(ctx, res.Rewritten)
	if err != nil {
		return false, err
	}
	return !nested.Halted, nil
}
