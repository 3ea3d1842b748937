package ports

import (
	"chatcore/internal/app/domain"
	"context"
	"time"
)

type CommandRepository interface {
	List(ctx context.Context) ([]domain.Command, error)
	// FindByCommand ищет по нормализованной строке, errs.ErrNotFound если нет.
	FindByCommand(ctx context.Context, command string) (*domain.Command, error)
	Save(ctx context.Context, cmd *domain.Command) error
	Delete(ctx context.Context, command string) error
}

type AliasRepository interface {
	List(ctx context.Context) ([]domain.Alias, error)
	FindByAlias(ctx context.Context, alias string) (*domain.Alias, error)
	Save(ctx context.Context, alias *domain.Alias) error
	Delete(ctx context.Context, alias string) error
}

type PriceRepository interface {
	List(ctx context.Context) ([]domain.Price, error)
	FindByCommand(ctx context.Context, command string) (*domain.Price, error)
	Save(ctx context.Context, price *domain.Price) error
	Delete(ctx context.Context, command string) error
}

type CooldownRepository interface {
	List(ctx context.Context) ([]domain.Cooldown, error)
	FindByKey(ctx context.Context, key string) (*domain.Cooldown, error)
	Save(ctx context.Context, cd *domain.Cooldown) error
	Delete(ctx context.Context, key string) error

	// Timestamp возвращает последнее срабатывание; viewerID == "" - глобальная метка.
	Timestamp(ctx context.Context, cooldownID, viewerID string) (time.Time, bool, error)
	SetTimestamp(ctx context.Context, cooldownID, viewerID string, ts time.Time) error
	ClearTimestamp(ctx context.Context, cooldownID, viewerID string) error
}

type WarningRepository interface {
	Get(ctx context.Context, viewerID string) ([]time.Time, error)
	Set(ctx context.Context, viewerID string, warnings []time.Time) error
}

type PermitRepository interface {
	Add(ctx context.Context, viewerID string, count int) error
	// Consume атомарно списывает одно разрешение, false если их нет.
	Consume(ctx context.Context, viewerID string) (bool, error)
}

type TierRepository interface {
	List(ctx context.Context) ([]domain.Tier, error)
	Save(ctx context.Context, tier *domain.Tier) error
}

type PointsRepository interface {
	Get(ctx context.Context, viewerID string) (int64, error)
	Increment(ctx context.Context, viewerID string, amount int64) error
	// TryDecrement списывает amount только если баланс >= amount.
	TryDecrement(ctx context.Context, viewerID string, amount int64) (bool, error)
}

type Store interface {
	Commands() CommandRepository
	Aliases() AliasRepository
	Prices() PriceRepository
	Cooldowns() CooldownRepository
	Warnings() WarningRepository
	Permits() PermitRepository
	Tiers() TierRepository
	Points() PointsRepository
	Close() error
}
