package moderation

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage"
	"chatcore/internal/app/ports"
	"chatcore/internal/pkg/keymutex"
	"chatcore/pkg/logger"
	"context"
	"fmt"
	"github.com/dlclark/regexp2"
	"strings"
	"time"
)

const (
	warningWindow = 60 * time.Minute
	dedupWindow   = 60 * time.Second
)

// Ключи каталога для каждого фильтра.
var messageKeys = map[string]string{
	config.FilterLinks:       "links",
	config.FilterSymbols:     "symbols",
	config.FilterLongMessage: "long-message",
	config.FilterCaps:        "caps",
	config.FilterSpam:        "spam",
	config.FilterColor:       "color",
	config.FilterEmotes:      "emotes",
	config.FilterBlacklist:   "forbidden-words",
}

// check возвращает длительность таймаута, если сообщение нарушает фильтр.
type check func(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error)

type Service struct {
	log        logger.Logger
	manager    *config.Manager
	warnings   ports.WarningRepository
	permits    ports.PermitRepository
	translator ports.Translator
	locks      *keymutex.KeyMutex
	dedup      *storage.Cache[string, struct{}]
	patterns   *patterns
	now        func() time.Time
}

func New(log logger.Logger, manager *config.Manager, store ports.Store, translator ports.Translator) *Service {
	return &Service{
		log:        log,
		manager:    manager,
		warnings:   store.Warnings(),
		permits:    store.Permits(),
		translator: translator,
		locks:      keymutex.New(),
		dedup:      storage.NewCache[string, struct{}](64, dedupWindow, storage.ExpireAfterWrite),
		patterns:   newPatterns(),
		now:        time.Now,
	}
}

func (s *Service) checks() map[string]check {
	return map[string]check{
		config.FilterLinks:       s.checkLinks,
		config.FilterSymbols:     s.checkSymbols,
		config.FilterLongMessage: s.checkLongMessage,
		config.FilterCaps:        s.checkCaps,
		config.FilterSpam:        s.checkSpam,
		config.FilterColor:       s.checkColor,
		config.FilterEmotes:      s.checkEmotes,
		config.FilterBlacklist:   s.checkBlacklist,
	}
}

// Register подключает фильтры отдельными middleware в порядке config.FilterNames.
func (s *Service) Register(e *parser.Engine) error {
	checks := s.checks()
	for _, name := range config.FilterNames {
		if err := e.RegisterParser(name, s.handler(name, checks[name]), parser.Options{Priority: parser.Moderation}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) handler(name string, fn check) parser.Handler {
	return func(ctx context.Context, pc *parser.Context) (bool, error) {
		cfg := &s.manager.Get().Moderation
		if pc.Permissions().IsExempt(pc.Sender(), cfg.Exemptions[name]) {
			return true, nil
		}

		seconds, hit, err := fn(ctx, pc, cfg)
		if err != nil {
			return true, fmt.Errorf("%s filter: %w", name, err)
		}
		if !hit {
			return true, nil
		}

		s.log.Debug("Moderation filter triggered", "filter", name, "user", pc.Sender().Username)
		if err := s.punish(ctx, pc, name, seconds); err != nil {
			s.log.Error("Failed to punish user", err, "filter", name, "user", pc.Sender().Username)
		}
		return false, nil
	}
}

// Permit разрешает зрителю count ссылок.
func (s *Service) Permit(ctx context.Context, viewerID string, count int) error {
	if count < 1 {
		return fmt.Errorf("permit count must be positive, got %d", count)
	}
	return s.permits.Add(ctx, viewerID, count)
}

// clean вырезает из текста разрешенные фразы, домены, ссылки на песни и клипы.
func (s *Service) clean(text string, cfg *config.Moderation, links *config.LinksSettings) string {
	for _, phrase := range cfg.WhitelistPhrases {
		if strings.TrimSpace(phrase) == "" {
			continue
		}

		re, err := s.whitelistPattern(phrase)
		if err == nil {
			text, err = remove(re, text)
		}
		if err != nil {
			s.log.Warn("Bad whitelist phrase", "phrase", phrase, "error", err)
		}
	}

	if cmd := cfg.SongRequestCommand; cmd != "" {
		if fields := strings.Fields(text); len(fields) > 0 && strings.EqualFold(fields[0], cmd) {
			text, _ = remove(songRe, text)
		}
	}
	if links != nil && !links.IncludeClips {
		text, _ = remove(clipRe, text)
	}
	return text
}

func (s *Service) whitelistPattern(phrase string) (*regexp2.Regexp, error) {
	if d, ok := strings.CutPrefix(phrase, "domain:"); ok {
		return s.patterns.domain(d)
	}
	return s.patterns.phrase(phrase)
}

func (s *Service) cleanText(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (string, error) {
	links, err := linksSettings(ctx, pc, cfg)
	if err != nil {
		return "", err
	}
	return s.clean(pc.Text(), cfg, links), nil
}

func (s *Service) checkLinks(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := linksSettings(ctx, pc, cfg)
	if err != nil || !settings.Enabled {
		return 0, false, err
	}

	hit, err := hasLink(s.clean(pc.Text(), cfg, settings), settings)
	if err != nil || !hit {
		return 0, false, err
	}

	consumed, err := s.permits.Consume(ctx, pc.Sender().UserID)
	if err != nil {
		return 0, false, err
	}
	if consumed {
		s.log.Debug("Link permit consumed", "user", pc.Sender().Username)
		return 0, false, nil
	}
	return settings.Timeout, true, nil
}

func (s *Service) checkSymbols(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Symbols, defaults.Symbols[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}

	text, err := s.cleanText(ctx, pc, cfg)
	if err != nil {
		return 0, false, err
	}
	return settings.Timeout, tooManySymbols(text, settings), nil
}

func (s *Service) checkLongMessage(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.LongMessage, defaults.LongMessage[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}
	return settings.Timeout, tooLong(pc.Text(), settings), nil
}

func (s *Service) checkCaps(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Caps, defaults.Caps[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}

	text, err := s.cleanText(ctx, pc, cfg)
	if err != nil {
		return 0, false, err
	}
	return settings.Timeout, tooManyCaps(text, pc.Message().EmoteNames(), settings), nil
}

func (s *Service) checkSpam(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Spam, defaults.Spam[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}

	text, err := s.cleanText(ctx, pc, cfg)
	if err != nil {
		return 0, false, err
	}
	hit, err := isSpam(text, settings)
	return settings.Timeout, hit, err
}

func (s *Service) checkColor(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Color, defaults.Color[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}
	return settings.Timeout, pc.Message().IsAction, nil
}

func (s *Service) checkEmotes(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Emotes, defaults.Emotes[domain.TierViewers])
	if err != nil || !settings.Enabled {
		return 0, false, err
	}
	return settings.Timeout, tooManyEmotes(pc.Message(), pc.Text(), settings), nil
}

func (s *Service) checkBlacklist(ctx context.Context, pc *parser.Context, cfg *config.Moderation) (int, bool, error) {
	settings, err := forTier(ctx, pc, cfg.Blacklist, defaults.Blacklist[domain.TierViewers])
	if err != nil || !settings.Enabled || len(cfg.BlacklistPhrases) == 0 {
		return 0, false, err
	}

	text, err := s.cleanText(ctx, pc, cfg)
	if err != nil {
		return 0, false, err
	}

	for _, phrase := range cfg.BlacklistPhrases {
		if strings.TrimSpace(phrase) == "" {
			continue
		}

		re, err := s.patterns.phrase(phrase)
		if err != nil {
			s.log.Warn("Bad blacklist phrase", "phrase", phrase, "error", err)
			continue
		}
		if hit, err := re.MatchString(text); err == nil && hit {
			return settings.Timeout, true, nil
		}
	}
	return 0, false, nil
}

// announce возвращает false, если о нарушении этого фильтра уже писали в последние 60 секунд.
func (s *Service) announce(filter string) bool {
	if _, ok := s.dedup.Get(filter); ok {
		return false
	}
	s.dedup.Set(filter, struct{}{})
	return true
}

func (s *Service) record(filter, action string) {
	metrics.ModerationActions.WithLabelValues(filter, action).Inc()
}
