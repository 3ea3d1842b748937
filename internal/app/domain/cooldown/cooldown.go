package cooldown

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/trie"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

const (
	ParserName   = "cooldown"
	RollbackName = "cooldown"
)

// Поля, переключаемые командой !cooldown toggle.
const (
	FieldEnabled     = "enabled"
	FieldOwners      = "owners"
	FieldModerators  = "moderators"
	FieldSubscribers = "subscribers"
	FieldFollowers   = "followers"
)

type Service struct {
	log        logger.Logger
	manager    *config.Manager
	repo       ports.CooldownRepository
	ledger     *Ledger
	translator ports.Translator

	mu       sync.RWMutex
	keywords *trie.Trie[string]
}

func New(log logger.Logger, manager *config.Manager, repo ports.CooldownRepository, translator ports.Translator) *Service {
	return &Service{
		log:        log,
		manager:    manager,
		repo:       repo,
		ledger:     NewLedger(repo),
		translator: translator,
		keywords:   trie.New[string](nil),
	}
}

func (s *Service) Ledger() *Ledger {
	return s.ledger
}

func (s *Service) Register(e *parser.Engine) error {
	e.RegisterRollback(RollbackName, s.rollback)
	return e.RegisterParser(ParserName, s.Check, parser.Options{Priority: parser.High})
}

// Reload пересобирает словарь ключевых слов из хранилища.
func (s *Service) Reload(ctx context.Context) error {
	cds, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list cooldowns: %w", err)
	}

	m := make(map[string]string)
	for _, cd := range cds {
		if cd.IsKeyword() {
			m[cd.Key] = cd.Key
		}
	}

	s.mu.Lock()
	s.keywords.Update(m)
	s.mu.Unlock()
	return nil
}

// Check проверяет кулдауны команды и ключевых слов сообщения. Если какой-то из них
// не истек, уже зафиксированные в этом сообщении метки откатываются сразу.
func (s *Service) Check(ctx context.Context, pc *parser.Context) (bool, error) {
	cds, err := s.applicable(ctx, pc)
	if err != nil {
		return true, err
	}
	if len(cds) == 0 {
		return true, nil
	}

	sender := pc.Sender()
	var tokens []*Token
	for _, cd := range cds {
		if !cd.Enabled || pc.Permissions().IsExempt(sender, cd.Exempt) {
			continue
		}

		tok, remaining, err := s.ledger.TryCommit(ctx, cd, ViewerKey(cd, sender.UserID))
		if err != nil {
			s.undo(ctx, tokens)
			return true, err
		}

		if tok == nil {
			s.undo(ctx, tokens)
			metrics.CooldownBlocks.WithLabelValues(cd.Key).Inc()
			s.log.Debug("Cooldown triggered", "key", cd.Key, "user", sender.Username, "remaining", remaining)
			if !cd.Quiet {
				s.notify(pc, cd, remaining)
			}
			return false, nil
		}
		tokens = append(tokens, tok)
	}

	for _, tok := range tokens {
		pc.Commit(RollbackName, tok)
	}
	return true, nil
}

func (s *Service) applicable(ctx context.Context, pc *parser.Context) ([]*domain.Cooldown, error) {
	var keys []string

	res, err := pc.Command(ctx)
	if err != nil {
		return nil, err
	}
	if res != nil {
		keys = append(keys, res.Name)
	}

	s.mu.RLock()
	if !s.keywords.Empty() {
		keys = append(keys, s.keywords.FindAll(pc.Message().Text.Words(message.LowerOption, message.RemovePunctuationOption))...)
	}
	s.mu.RUnlock()

	cds := make([]*domain.Cooldown, 0, len(keys))
	for _, key := range keys {
		cd, err := s.repo.FindByKey(ctx, key)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		cds = append(cds, cd)
	}
	return cds, nil
}

func (s *Service) notify(pc *parser.Context, cd *domain.Cooldown, remaining time.Duration) {
	cfg := s.manager.Get().Cooldown
	text := s.translator.Prepare("cooldowns.cooldown-triggered", map[string]any{
		"sender":  "@" + pc.Sender().Name(),
		"command": cd.Key,
		"seconds": int(math.Ceil(remaining.Seconds())),
	})

	if cfg.NotifyAsWhisper {
		pc.Whisper(text)
	}
	if cfg.NotifyInChat {
		pc.Reply(text)
	}
}

func (s *Service) undo(ctx context.Context, tokens []*Token) {
	for i := len(tokens) - 1; i >= 0; i-- {
		if err := s.ledger.Rollback(ctx, tokens[i]); err != nil {
			s.log.Error("Failed to undo cooldown", err, "key", tokens[i].Key)
		}
	}
}

func (s *Service) rollback(ctx context.Context, _ *parser.Context, token any) error {
	tok, ok := token.(*Token)
	if !ok {
		return fmt.Errorf("unexpected cooldown token %T", token)
	}
	return s.ledger.Rollback(ctx, tok)
}

func (s *Service) List(ctx context.Context) ([]domain.Cooldown, error) {
	return s.repo.List(ctx)
}

// Set создает или обновляет кулдаун; флаги исключений существующего сохраняются.
func (s *Service) Set(ctx context.Context, key string, scope domain.CooldownScope, seconds int, quiet bool) (*domain.Cooldown, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("scope must be global or user, got %q", scope)
	}
	if seconds < 0 {
		return nil, errs.Invalid("duration must not be negative, got %d", seconds)
	}

	key = domain.NormalizeCommand(key)
	if key == "" {
		return nil, errs.Invalid("cooldown key must not be empty")
	}

	cd, err := s.repo.FindByKey(ctx, key)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		cd = &domain.Cooldown{Key: key, Enabled: true, Exempt: domain.DefaultExemptions()}
	case err != nil:
		return nil, err
	}

	cd.Scope = scope
	cd.Seconds = seconds
	cd.Quiet = quiet
	if err := s.repo.Save(ctx, cd); err != nil {
		return nil, err
	}
	return cd, s.Reload(ctx)
}

func (s *Service) Unset(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, domain.NormalizeCommand(key)); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Toggle инвертирует флаг и возвращает новое значение.
func (s *Service) Toggle(ctx context.Context, key, field string) (bool, error) {
	cd, err := s.repo.FindByKey(ctx, domain.NormalizeCommand(key))
	if err != nil {
		return false, err
	}

	var target *bool
	switch strings.ToLower(field) {
	case FieldEnabled:
		target = &cd.Enabled
	case FieldOwners:
		target = &cd.Exempt.Owners
	case FieldModerators:
		target = &cd.Exempt.Moderators
	case FieldSubscribers:
		target = &cd.Exempt.Subscribers
	case FieldFollowers:
		target = &cd.Exempt.Followers
	default:
		return false, errs.Invalid("unknown cooldown field %q", field)
	}

	*target = !*target
	if err := s.repo.Save(ctx, cd); err != nil {
		return false, err
	}
	return *target, s.Reload(ctx)
}
