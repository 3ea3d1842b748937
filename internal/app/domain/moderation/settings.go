package moderation

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"context"
)

var defaults = config.Default().Moderation

// forTier выбирает настройки высшего тира отправителя. Если для него ничего не задано,
// берутся настройки ближайшего более низкого тира, а затем встроенные.
func forTier[T any](ctx context.Context, pc *parser.Context, settings map[string]*T, builtin *T) (*T, error) {
	perms := pc.Permissions()

	highest, err := perms.HighestPermission(ctx, pc.Sender())
	if err != nil {
		return nil, err
	}
	if highest == nil {
		return builtin, nil
	}

	tiers, err := perms.Tiers(ctx)
	if err != nil {
		return nil, err
	}

	start := len(tiers)
	for i := range tiers {
		if tiers[i].ID == highest.ID {
			start = i
			break
		}
	}

	for _, tier := range tiers[start:] {
		if s, ok := settings[tier.ID]; ok && s != nil {
			return s, nil
		}
	}
	return builtin, nil
}

func linksSettings(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (*config.LinksSettings, error) {
	return forTier(ctx, pc, cfg.Links, defaults.Links[domain.TierViewers])
}
