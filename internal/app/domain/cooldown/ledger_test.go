package cooldown

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/infrastructure/storage/memory"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newLedger(t *testing.T) (*Ledger, *domain.Cooldown, *clock) {
	t.Helper()

	store := memory.New()
	cd := &domain.Cooldown{Key: "!roll", Scope: domain.ScopeGlobal, Seconds: 30, Enabled: true}
	require.NoError(t, store.Cooldowns().Save(context.Background(), cd))

	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLedger(store.Cooldowns())
	l.now = c.Now
	return l, cd, c
}

func TestLedger_TryCommit(t *testing.T) {
	l, cd, c := newLedger(t)
	ctx := context.Background()

	tok, _, err := l.TryCommit(ctx, cd, "")
	require.NoError(t, err)
	require.NotNil(t, tok, "первое срабатывание проходит")
	assert.False(t, tok.HadPrevious)

	c.Advance(10 * time.Second)
	tok, remaining, err := l.TryCommit(ctx, cd, "")
	require.NoError(t, err)
	assert.Nil(t, tok, "окно не истекло")
	assert.Equal(t, 20*time.Second, remaining)

	c.Advance(20 * time.Second)
	tok, _, err = l.TryCommit(ctx, cd, "")
	require.NoError(t, err)
	assert.NotNil(t, tok, "ровно на границе окна срабатывание разрешено")
}

func TestLedger_Rollback(t *testing.T) {
	t.Run("restores previous", func(t *testing.T) {
		l, cd, c := newLedger(t)
		ctx := context.Background()

		first, _, err := l.TryCommit(ctx, cd, "")
		require.NoError(t, err)
		c.Advance(time.Minute)
		second, _, err := l.TryCommit(ctx, cd, "")
		require.NoError(t, err)

		require.NoError(t, l.Rollback(ctx, second))
		ts, ok, err := l.repo.Timestamp(ctx, cd.ID, "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, ts.Equal(first.Committed), "вернулась прежняя метка")
	})

	t.Run("clears when there was none", func(t *testing.T) {
		l, cd, _ := newLedger(t)
		ctx := context.Background()

		tok, _, err := l.TryCommit(ctx, cd, "10")
		require.NoError(t, err)
		require.NoError(t, l.Rollback(ctx, tok))

		_, ok, err := l.repo.Timestamp(ctx, cd.ID, "10")
		require.NoError(t, err)
		assert.False(t, ok, "метка удалена")
	})

	t.Run("stale token is ignored", func(t *testing.T) {
		l, cd, c := newLedger(t)
		ctx := context.Background()

		stale, _, err := l.TryCommit(ctx, cd, "")
		require.NoError(t, err)
		c.Advance(time.Minute)
		fresh, _, err := l.TryCommit(ctx, cd, "")
		require.NoError(t, err)

		require.NoError(t, l.Rollback(ctx, stale))
		ts, ok, err := l.repo.Timestamp(ctx, cd.ID, "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, ts.Equal(fresh.Committed), "чужая метка не трогается")
	})
}

func TestViewerKey(t *testing.T) {
	assert.Equal(t, "", ViewerKey(&domain.Cooldown{Scope: domain.ScopeGlobal}, "10"))
	assert.Equal(t, "10", ViewerKey(&domain.Cooldown{Scope: domain.ScopeUser}, "10"))
}
