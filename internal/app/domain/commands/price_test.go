package commands_test

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/commands"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/parser/parsertest"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func balance(t *testing.T, h *parsertest.Harness, userID string) int64 {
	t.Helper()
	v, err := h.Store.Points().Get(context.Background(), userID)
	require.NoError(t, err)
	return v
}

func TestPricing(t *testing.T) {
	ctx := context.Background()
	viewer := parsertest.Viewer("10", "viewer")

	newHarness := func(t *testing.T, points int64) *parsertest.Harness {
		h := parsertest.New(t)
		addResponses(t, h, "!gamble", domain.Response{Text: "rolled $param"})
		_, err := h.Commands.SetPrice(ctx, "!gamble", 10)
		require.NoError(t, err)
		if points > 0 {
			require.NoError(t, h.Store.Points().Increment(ctx, viewer.UserID, points))
		}
		return h
	}

	t.Run("not enough points", func(t *testing.T) {
		h := newHarness(t, 5)

		res := h.Process(t, parsertest.Msg(viewer, "!gamble 5"))
		assert.True(t, res.Halted)
		assert.Equal(t, commands.PriceParserName, res.HaltedBy)
		assert.Equal(t, []string{"@viewer, sorry, you don't have 10 points to use !gamble."}, h.Sink.Texts())
		assert.Equal(t, int64(5), balance(t, h, viewer.UserID), "баланс не меняется")
	})

	t.Run("charged", func(t *testing.T) {
		h := newHarness(t, 15)

		res := h.Process(t, parsertest.Msg(viewer, "!gamble 5"))
		assert.False(t, res.Halted)
		assert.Equal(t, []string{"rolled 5"}, h.Sink.Texts())
		assert.Equal(t, int64(5), balance(t, h, viewer.UserID))
	})

	t.Run("charged once through alias", func(t *testing.T) {
		h := newHarness(t, 25)
		_, err := h.Commands.AddAlias(ctx, "!g", "!gamble", "")
		require.NoError(t, err)

		h.Process(t, parsertest.Msg(viewer, "!g 1"))
		assert.Equal(t, []string{"rolled 1"}, h.Sink.Texts())
		assert.Equal(t, int64(15), balance(t, h, viewer.UserID), "вложенный проход не списывает повторно")
	})

	t.Run("refund on later veto", func(t *testing.T) {
		h := newHarness(t, 15)
		require.NoError(t, h.Engine.RegisterParser("veto", func(_ context.Context, pc *parser.Context) (bool, error) {
			return !strings.Contains(pc.Text(), "bad"), nil
		}, parser.Options{Priority: parser.Moderation}))

		res := h.Process(t, parsertest.Msg(viewer, "!gamble bad"))
		assert.True(t, res.Halted)
		assert.Equal(t, "veto", res.HaltedBy)
		assert.Equal(t, []string{commands.PriceRollbackName}, res.RolledBack)
		assert.Equal(t, int64(15), balance(t, h, viewer.UserID), "списание возвращено")
		assert.Empty(t, h.Sink.Texts())
	})

	t.Run("refund on nested veto", func(t *testing.T) {
		h := newHarness(t, 15)
		h.Engine.RegisterCommand("!vip", func(context.Context, *parser.Context, string) ([]parser.Response, error) {
			return []parser.Response{{Text: "vip"}}, nil
		}, domain.TierModerators)
		_, err := h.Commands.SetPrice(ctx, "!vip", 10)
		require.NoError(t, err)
		_, err = h.Commands.AddAlias(ctx, "!v", "!vip", "")
		require.NoError(t, err)

		h.Process(t, parsertest.Msg(viewer, "!v"))
		assert.Equal(t, int64(15), balance(t, h, viewer.UserID), "без доступа к команде цена не списывается")
	})

	t.Run("disabled price", func(t *testing.T) {
		h := newHarness(t, 0)
		_, err := h.Commands.TogglePrice(ctx, "!gamble")
		require.NoError(t, err)

		res := h.Process(t, parsertest.Msg(viewer, "!gamble"))
		assert.False(t, res.Halted)
		assert.Equal(t, []string{"rolled "}, h.Sink.Texts())
	})
}
