package sqlstore

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/errs"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTest(t)
	assert.NoError(t, s.Migrate(context.Background()), "повторная миграция не должна падать")
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	cmd := &domain.Command{Command: "!Hello", Enabled: true, Visible: true, Responses: []domain.Response{
		{Order: 1, Text: "two", Permission: domain.TierModerators},
		{Order: 0, Text: "one", StopIfExecuted: true, Filter: "$is.moderator"},
	}}
	require.NoError(t, s.Commands().Save(ctx, cmd))

	got, err := s.Commands().FindByCommand(ctx, "!hello")
	require.NoError(t, err)
	assert.Equal(t, cmd.ID, got.ID)
	require.Len(t, got.Responses, 2)
	assert.Equal(t, "one", got.Responses[0].Text)
	assert.True(t, got.Responses[0].StopIfExecuted)
	assert.Equal(t, "$is.moderator", got.Responses[0].Filter)
	assert.Equal(t, domain.TierModerators, got.Responses[1].Permission)

	got.Responses = got.Responses[:1]
	require.NoError(t, s.Commands().Save(ctx, got))
	got, err = s.Commands().FindByCommand(ctx, "!hello")
	require.NoError(t, err)
	assert.Len(t, got.Responses, 1, "ответы перезаписываются целиком")

	list, err := s.Commands().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Commands().Delete(ctx, "!hello"))
	_, err = s.Commands().FindByCommand(ctx, "!hello")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, s.Commands().Delete(ctx, "!hello"), errs.ErrNotFound)
}

func TestAliasesAndPrices(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.Aliases().Save(ctx, &domain.Alias{Alias: "!Hi", Command: "!hello", Enabled: true}))
	a, err := s.Aliases().FindByAlias(ctx, "!hi")
	require.NoError(t, err)
	assert.Equal(t, "!hello", a.Command)
	assert.ErrorIs(t, s.Aliases().Delete(ctx, "!nope"), errs.ErrNotFound)

	require.NoError(t, s.Prices().Save(ctx, &domain.Price{Command: "!hello", Price: 10, Enabled: true}))
	require.NoError(t, s.Prices().Save(ctx, &domain.Price{Command: "!hello", Price: 25, Enabled: true}))
	p, err := s.Prices().FindByCommand(ctx, "!hello")
	require.NoError(t, err)
	assert.Equal(t, int64(25), p.Price, "повторное сохранение обновляет цену")

	prices, err := s.Prices().List(ctx)
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}

func TestCooldowns(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	cd := &domain.Cooldown{Key: "!me", Scope: domain.ScopeGlobal, Seconds: 60, Enabled: true, Exempt: domain.DefaultExemptions()}
	require.NoError(t, s.Cooldowns().Save(ctx, cd))

	got, err := s.Cooldowns().FindByKey(ctx, "!me")
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeGlobal, got.Scope)
	assert.True(t, got.Exempt.Moderators)

	now := time.Unix(1700000000, 123)
	require.NoError(t, s.Cooldowns().SetTimestamp(ctx, cd.ID, "", now))
	ts, ok, err := s.Cooldowns().Timestamp(ctx, cd.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, now.Equal(ts))

	require.NoError(t, s.Cooldowns().ClearTimestamp(ctx, cd.ID, ""))
	_, ok, err = s.Cooldowns().Timestamp(ctx, cd.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Cooldowns().Delete(ctx, "!me"))
	_, err = s.Cooldowns().FindByKey(ctx, "!me")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPermitsPointsWarningsTiers(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.Permits().Add(ctx, "u1", 1))
	ok, err := s.Permits().Consume(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Permits().Consume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Points().Increment(ctx, "u1", 50))
	require.NoError(t, s.Points().Increment(ctx, "u1", 50))
	ok, err = s.Points().TryDecrement(ctx, "u1", 150)
	require.NoError(t, err)
	assert.False(t, ok, "недостаточно очков")
	ok, err = s.Points().TryDecrement(ctx, "u1", 100)
	require.NoError(t, err)
	assert.True(t, ok)
	p, err := s.Points().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p)

	now := time.Unix(1700000000, 0)
	require.NoError(t, s.Warnings().Set(ctx, "u1", []time.Time{now, now.Add(time.Second)}))
	w, err := s.Warnings().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, w, 2)

	require.NoError(t, s.Tiers().Save(ctx, &domain.Tier{ID: "custom", Name: "Custom", Order: 3, Automation: domain.AutomationNone, UserIDs: []string{"u1"}}))
	tiers, err := s.Tiers().List(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, []string{"u1"}, tiers[0].UserIDs)
	assert.Empty(t, tiers[0].ExcludeUserIDs)
}
