package cooldown

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/ports"
	"chatcore/internal/pkg/keymutex"
	"context"
	"fmt"
	"time"
)

// Token - зафиксированная метка кулдауна и ее прежнее значение.
type Token struct {
	CooldownID  string
	Key         string
	ViewerID    string // пусто - глобальная метка
	Previous    time.Time
	HadPrevious bool
	Committed   time.Time
}

// Ledger - метки последних срабатываний с проверкой и фиксацией под блокировкой ключа.
type Ledger struct {
	repo  ports.CooldownRepository
	locks *keymutex.KeyMutex
	now   func() time.Time
}

func NewLedger(repo ports.CooldownRepository) *Ledger {
	return &Ledger{
		repo:  repo,
		locks: keymutex.New(),
		now:   time.Now,
	}
}

func lockKey(cooldownID, viewerID string) string {
	return cooldownID + "|" + viewerID
}

// ViewerKey - чью метку использует кулдаун: глобальную или зрителя.
func ViewerKey(cd *domain.Cooldown, userID string) string {
	if cd.Scope == domain.ScopeUser {
		return userID
	}
	return ""
}

// TryCommit фиксирует новую метку, если окно истекло; иначе возвращает остаток.
func (l *Ledger) TryCommit(ctx context.Context, cd *domain.Cooldown, viewerID string) (*Token, time.Duration, error) {
	unlock := l.locks.Lock(lockKey(cd.ID, viewerID))
	defer unlock()

	prev, had, err := l.repo.Timestamp(ctx, cd.ID, viewerID)
	if err != nil {
		return nil, 0, fmt.Errorf("read timestamp: %w", err)
	}

	now := l.now()
	if had {
		if elapsed := now.Sub(prev); elapsed < cd.Duration() {
			return nil, cd.Duration() - elapsed, nil
		}
	}

	if err := l.repo.SetTimestamp(ctx, cd.ID, viewerID, now); err != nil {
		return nil, 0, fmt.Errorf("write timestamp: %w", err)
	}

	return &Token{
		CooldownID:  cd.ID,
		Key:         cd.Key,
		ViewerID:    viewerID,
		Previous:    prev,
		HadPrevious: had,
		Committed:   now,
	}, 0, nil
}

// Rollback восстанавливает прежнюю метку, только если текущая все еще наша.
// Если метку успели передвинуть другим сообщением, откат ничего не делает.
func (l *Ledger) Rollback(ctx context.Context, tok *Token) error {
	unlock := l.locks.Lock(lockKey(tok.CooldownID, tok.ViewerID))
	defer unlock()

	cur, had, err := l.repo.Timestamp(ctx, tok.CooldownID, tok.ViewerID)
	if err != nil {
		return fmt.Errorf("read timestamp: %w", err)
	}
	if !had || !cur.Equal(tok.Committed) {
		return nil
	}

	if tok.HadPrevious {
		return l.repo.SetTimestamp(ctx, tok.CooldownID, tok.ViewerID, tok.Previous)
	}
	return l.repo.ClearTimestamp(ctx, tok.CooldownID, tok.ViewerID)
}
