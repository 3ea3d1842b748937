package memory

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/ports"
	"context"
	"github.com/google/uuid"
	"sort"
	"sync"
	"time"
)

// Store - хранилище в памяти процесса: для тестов, simulate и одиночного инстанса без БД.
type Store struct {
	mu sync.RWMutex

	commands  map[string]*domain.Command
	aliases   map[string]*domain.Alias
	prices    map[string]*domain.Price
	cooldowns map[string]*domain.Cooldown
	stamps    map[stampKey]time.Time
	warnings  map[string][]time.Time
	permits   map[string]int
	tiers     map[string]*domain.Tier
	points    map[string]int64
}

type stampKey struct {
	cooldownID string
	viewerID   string
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		commands:  make(map[string]*domain.Command),
		aliases:   make(map[string]*domain.Alias),
		prices:    make(map[string]*domain.Price),
		cooldowns: make(map[string]*domain.Cooldown),
		stamps:    make(map[stampKey]time.Time),
		warnings:  make(map[string][]time.Time),
		permits:   make(map[string]int),
		tiers:     make(map[string]*domain.Tier),
		points:    make(map[string]int64),
	}
}

func (s *Store) Commands() ports.CommandRepository   { return commandRepo{s} }
func (s *Store) Aliases() ports.AliasRepository      { return aliasRepo{s} }
func (s *Store) Prices() ports.PriceRepository       { return priceRepo{s} }
func (s *Store) Cooldowns() ports.CooldownRepository { return cooldownRepo{s} }
func (s *Store) Warnings() ports.WarningRepository   { return warningRepo{s} }
func (s *Store) Permits() ports.PermitRepository     { return permitRepo{s} }
func (s *Store) Tiers() ports.TierRepository         { return tierRepo{s} }
func (s *Store) Points() ports.PointsRepository      { return pointsRepo{s} }
func (s *Store) Close() error                        { return nil }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

type commandRepo struct{ s *Store }

func (r commandRepo) List(_ context.Context) ([]domain.Command, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Command, 0, len(r.s.commands))
	for _, c := range r.s.commands {
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out, nil
}

func (r commandRepo) FindByCommand(_ context.Context, command string) (*domain.Command, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.commands[domain.NormalizeCommand(command)]
	if !ok {
		return nil, errs.NotFound("command", command)
	}
	return c.Clone(), nil
}

func (r commandRepo) Save(_ context.Context, cmd *domain.Command) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&cmd.ID)
	cmd.Command = domain.NormalizeCommand(cmd.Command)
	for i := range cmd.Responses {
		ensureID(&cmd.Responses[i].ID)
	}
	cmd.SortResponses()

	// переименование: удаляем старый ключ с тем же id
	for key, existing := range r.s.commands {
		if existing.ID == cmd.ID && key != cmd.Command {
			delete(r.s.commands, key)
		}
	}
	r.s.commands[cmd.Command] = cmd.Clone()
	return nil
}

func (r commandRepo) Delete(_ context.Context, command string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := domain.NormalizeCommand(command)
	if _, ok := r.s.commands[key]; !ok {
		return errs.NotFound("command", command)
	}
	delete(r.s.commands, key)
	return nil
}

type aliasRepo struct{ s *Store }

func (r aliasRepo) List(_ context.Context) ([]domain.Alias, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Alias, 0, len(r.s.aliases))
	for _, a := range r.s.aliases {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

func (r aliasRepo) FindByAlias(_ context.Context, alias string) (*domain.Alias, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.aliases[domain.NormalizeCommand(alias)]
	if !ok {
		return nil, errs.NotFound("alias", alias)
	}
	cp := *a
	return &cp, nil
}

func (r aliasRepo) Save(_ context.Context, alias *domain.Alias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&alias.ID)
	alias.Alias = domain.NormalizeCommand(alias.Alias)
	alias.Command = domain.NormalizeCommand(alias.Command)
	for key, existing := range r.s.aliases {
		if existing.ID == alias.ID && key != alias.Alias {
			delete(r.s.aliases, key)
		}
	}
	cp := *alias
	r.s.aliases[alias.Alias] = &cp
	return nil
}

func (r aliasRepo) Delete(_ context.Context, alias string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := domain.NormalizeCommand(alias)
	if _, ok := r.s.aliases[key]; !ok {
		return errs.NotFound("alias", alias)
	}
	delete(r.s.aliases, key)
	return nil
}

type priceRepo struct{ s *Store }

func (r priceRepo) List(_ context.Context) ([]domain.Price, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Price, 0, len(r.s.prices))
	for _, p := range r.s.prices {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out, nil
}

func (r priceRepo) FindByCommand(_ context.Context, command string) (*domain.Price, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.prices[domain.NormalizeCommand(command)]
	if !ok {
		return nil, errs.NotFound("price", command)
	}
	cp := *p
	return &cp, nil
}

func (r priceRepo) Save(_ context.Context, price *domain.Price) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&price.ID)
	price.Command = domain.NormalizeCommand(price.Command)
	cp := *price
	r.s.prices[price.Command] = &cp
	return nil
}

func (r priceRepo) Delete(_ context.Context, command string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := domain.NormalizeCommand(command)
	if _, ok := r.s.prices[key]; !ok {
		return errs.NotFound("price", command)
	}
	delete(r.s.prices, key)
	return nil
}

type cooldownRepo struct{ s *Store }

func (r cooldownRepo) List(_ context.Context) ([]domain.Cooldown, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Cooldown, 0, len(r.s.cooldowns))
	for _, c := range r.s.cooldowns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r cooldownRepo) FindByKey(_ context.Context, key string) (*domain.Cooldown, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cooldowns[domain.NormalizeCommand(key)]
	if !ok {
		return nil, errs.NotFound("cooldown", key)
	}
	cp := *c
	return &cp, nil
}

func (r cooldownRepo) Save(_ context.Context, cd *domain.Cooldown) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&cd.ID)
	cd.Key = domain.NormalizeCommand(cd.Key)
	cp := *cd
	r.s.cooldowns[cd.Key] = &cp
	return nil
}

func (r cooldownRepo) Delete(_ context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := domain.NormalizeCommand(key)
	cd, ok := r.s.cooldowns[k]
	if !ok {
		return errs.NotFound("cooldown", key)
	}
	delete(r.s.cooldowns, k)
	for sk := range r.s.stamps {
		if sk.cooldownID == cd.ID {
			delete(r.s.stamps, sk)
		}
	}
	return nil
}

func (r cooldownRepo) Timestamp(_ context.Context, cooldownID, viewerID string) (time.Time, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ts, ok := r.s.stamps[stampKey{cooldownID, viewerID}]
	return ts, ok, nil
}

func (r cooldownRepo) SetTimestamp(_ context.Context, cooldownID, viewerID string, ts time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamps[stampKey{cooldownID, viewerID}] = ts
	return nil
}

func (r cooldownRepo) ClearTimestamp(_ context.Context, cooldownID, viewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.stamps, stampKey{cooldownID, viewerID})
	return nil
}

type warningRepo struct{ s *Store }

func (r warningRepo) Get(_ context.Context, viewerID string) ([]time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]time.Time(nil), r.s.warnings[viewerID]...), nil
}

func (r warningRepo) Set(_ context.Context, viewerID string, warnings []time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(warnings) == 0 {
		delete(r.s.warnings, viewerID)
		return nil
	}
	r.s.warnings[viewerID] = append([]time.Time(nil), warnings...)
	return nil
}

type permitRepo struct{ s *Store }

func (r permitRepo) Add(_ context.Context, viewerID string, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.permits[viewerID] += count
	return nil
}

func (r permitRepo) Consume(_ context.Context, viewerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.permits[viewerID] <= 0 {
		return false, nil
	}
	r.s.permits[viewerID]--
	if r.s.permits[viewerID] == 0 {
		delete(r.s.permits, viewerID)
	}
	return true, nil
}

type tierRepo struct{ s *Store }

func (r tierRepo) List(_ context.Context) ([]domain.Tier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Tier, 0, len(r.s.tiers))
	for _, t := range r.s.tiers {
		cp := *t
		cp.UserIDs = append([]string(nil), t.UserIDs...)
		cp.ExcludeUserIDs = append([]string(nil), t.ExcludeUserIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r tierRepo) Save(_ context.Context, tier *domain.Tier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&tier.ID)
	cp := *tier
	r.s.tiers[tier.ID] = &cp
	return nil
}

type pointsRepo struct{ s *Store }

func (r pointsRepo) Get(_ context.Context, viewerID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.points[viewerID], nil
}

func (r pointsRepo) Increment(_ context.Context, viewerID string, amount int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.points[viewerID] += amount
	return nil
}

func (r pointsRepo) TryDecrement(_ context.Context, viewerID string, amount int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.points[viewerID] < amount {
		return false, nil
	}
	r.s.points[viewerID] -= amount
	return true, nil
}
