package permissions

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Defaults - базовые тиры, от высшего к низшему.
func Defaults() []domain.Tier {
	return []domain.Tier{
		{ID: domain.TierCasters, Name: "Casters", Order: 0, Automation: domain.AutomationCasters, IsCore: true},
		{ID: domain.TierModerators, Name: "Moderators", Order: 1, Automation: domain.AutomationModerators, IsCore: true},
		{ID: domain.TierSubscribers, Name: "Subscribers", Order: 2, Automation: domain.AutomationSubscribers, IsCore: true},
		{ID: domain.TierVIP, Name: "VIP", Order: 3, Automation: domain.AutomationVIP, IsCore: true},
		{ID: domain.TierFollowers, Name: "Followers", Order: 4, Automation: domain.AutomationFollowers, IsCore: true},
		{ID: domain.TierViewers, Name: "Viewers", Order: 5, Automation: domain.AutomationViewers, IsCore: true},
	}
}

type Directory struct {
	log       logger.Logger
	manager   *config.Manager
	tiers     ports.TierRepository
	followers ports.FollowerChecker
}

func New(log logger.Logger, manager *config.Manager, tiers ports.TierRepository, followers ports.FollowerChecker) *Directory {
	return &Directory{
		log:       log,
		manager:   manager,
		tiers:     tiers,
		followers: followers,
	}
}

// EnsureDefaults дописывает недостающие базовые тиры, существующие не трогает.
func (d *Directory) EnsureDefaults(ctx context.Context) error {
	existing, err := d.tiers.List(ctx)
	if err != nil {
		return fmt.Errorf("list tiers: %w", err)
	}

	for _, def := range Defaults() {
		if slices.ContainsFunc(existing, func(t domain.Tier) bool { return t.ID == def.ID }) {
			continue
		}
		if err := d.tiers.Save(ctx, &def); err != nil {
			return fmt.Errorf("seed tier %s: %w", def.ID, err)
		}
	}
	return nil
}

func (d *Directory) Tiers(ctx context.Context) ([]domain.Tier, error) {
	tiers, err := d.tiers.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tiers, func(a, b domain.Tier) int { return a.Order - b.Order })
	return tiers, nil
}

// Find ищет тир по id или имени без учета регистра.
func (d *Directory) Find(ctx context.Context, idOrName string) (*domain.Tier, error) {
	tiers, err := d.Tiers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tiers {
		if strings.EqualFold(tiers[i].ID, idOrName) || strings.EqualFold(tiers[i].Name, idOrName) {
			return &tiers[i], nil
		}
	}
	return nil, nil
}

func (d *Directory) IsOwner(sender message.Sender) bool {
	if sender.Badges.Broadcaster {
		return true
	}

	cfg := d.manager.Get()
	if sender.UserID != "" && (sender.UserID == cfg.Twitch.BroadcasterID || sender.UserID == cfg.Twitch.BotUserID) {
		return true
	}
	for _, owner := range cfg.General.Owners {
		if strings.EqualFold(owner, sender.Username) || owner == sender.UserID {
			return true
		}
	}
	return false
}

func (d *Directory) IsBot(sender message.Sender) bool {
	cfg := d.manager.Get()
	if cfg.Twitch.BotUserID != "" && sender.UserID == cfg.Twitch.BotUserID {
		return true
	}
	return cfg.Twitch.BotUsername != "" && strings.EqualFold(sender.Username, cfg.Twitch.BotUsername)
}

// IsFollower берет флаг из сообщения, иначе спрашивает FollowerChecker.
func (d *Directory) IsFollower(sender message.Sender) bool {
	if sender.IsFollower != nil {
		return *sender.IsFollower
	}
	if d.followers == nil {
		return false
	}

	ok, err := d.followers.IsFollower(sender.UserID)
	if err != nil {
		d.log.Warn("Failed to check follower status", "user_id", sender.UserID, "error", err)
		return false
	}
	return ok
}

// HighestPermission - первый по порядку тир, в который попадает зритель.
func (d *Directory) HighestPermission(ctx context.Context, sender message.Sender) (*domain.Tier, error) {
	tiers, err := d.Tiers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tiers {
		if d.matches(&tiers[i], sender) {
			return &tiers[i], nil
		}
	}
	return nil, nil
}

func (d *Directory) matches(tier *domain.Tier, sender message.Sender) bool {
	if tier.Excludes(sender.UserID) {
		return false
	}
	if tier.Includes(sender.UserID) {
		return true
	}

	switch tier.Automation {
	case domain.AutomationCasters:
		return d.IsOwner(sender)
	case domain.AutomationModerators:
		return sender.Badges.Moderator
	case domain.AutomationSubscribers:
		return sender.Badges.Subscriber
	case domain.AutomationVIP:
		return sender.Badges.VIP
	case domain.AutomationFollowers:
		return d.IsFollower(sender)
	case domain.AutomationViewers:
		return true
	default:
		return false
	}
}

// CheckAccess: пустой tierID - без ограничений, неизвестный - отказ.
func (d *Directory) CheckAccess(ctx context.Context, sender message.Sender, tierID string) (bool, error) {
	if tierID == "" {
		return true, nil
	}

	required, err := d.Find(ctx, tierID)
	if err != nil {
		return false, err
	}
	if required == nil {
		d.log.Warn("Unknown permission tier", "tier", tierID)
		return false, nil
	}

	highest, err := d.HighestPermission(ctx, sender)
	if err != nil {
		return false, err
	}
	return accessible(highest, required), nil
}

func accessible(highest, required *domain.Tier) bool {
	return highest != nil && highest.Order <= required.Order
}

// Cache - кеш на одно прохождение конвейера: тир зрителя вычисляется один раз.
type Cache struct {
	dir *Directory

	mu      sync.Mutex
	highest map[string]*domain.Tier
	tiers   []domain.Tier
}

func NewCache(dir *Directory) *Cache {
	return &Cache{dir: dir, highest: make(map[string]*domain.Tier)}
}

func (c *Cache) IsOwner(sender message.Sender) bool {
	return c.dir.IsOwner(sender)
}

func (c *Cache) IsBot(sender message.Sender) bool {
	return c.dir.IsBot(sender)
}

func (c *Cache) IsFollower(sender message.Sender) bool {
	return c.dir.IsFollower(sender)
}

func (c *Cache) HighestPermission(ctx context.Context, sender message.Sender) (*domain.Tier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.highest[sender.UserID]; ok {
		return t, nil
	}

	t, err := c.dir.HighestPermission(ctx, sender)
	if err != nil {
		return nil, err
	}
	c.highest[sender.UserID] = t
	return t, nil
}

func (c *Cache) CheckAccess(ctx context.Context, sender message.Sender, tierID string) (bool, error) {
	if tierID == "" {
		return true, nil
	}

	required, err := c.find(ctx, tierID)
	if err != nil {
		return false, err
	}
	if required == nil {
		return false, nil
	}

	highest, err := c.HighestPermission(ctx, sender)
	if err != nil {
		return false, err
	}
	return accessible(highest, required), nil
}

// Tiers - отсортированный список тиров, читается из хранилища один раз.
func (c *Cache) Tiers(ctx context.Context) ([]domain.Tier, error) {
	c.mu.Lock()
	tiers := c.tiers
	c.mu.Unlock()

	if tiers != nil {
		return tiers, nil
	}

	tiers, err := c.dir.Tiers(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tiers = tiers
	c.mu.Unlock()
	return tiers, nil
}

// IsExempt - попадает ли отправитель под флаги обхода фильтра или кулдауна.
func (c *Cache) IsExempt(sender message.Sender, ex domain.Exemptions) bool {
	switch {
	case ex.Owners && c.IsOwner(sender):
		return true
	case ex.Moderators && sender.Badges.Moderator:
		return true
	case ex.Subscribers && sender.Badges.Subscriber:
		return true
	case ex.Followers && c.IsFollower(sender):
		return true
	}
	return false
}

func (c *Cache) find(ctx context.Context, idOrName string) (*domain.Tier, error) {
	tiers, err := c.Tiers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tiers {
		if strings.EqualFold(tiers[i].ID, idOrName) || strings.EqualFold(tiers[i].Name, idOrName) {
			return &tiers[i], nil
		}
	}
	return nil, nil
}
