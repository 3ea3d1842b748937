package permissions

import (
	"chatcore/internal/app/domain"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage/memory"
	"chatcore/internal/app/ports"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

type fakeFollowers struct {
	ids   map[string]bool
	calls int
	err   error
}

func (f *fakeFollowers) IsFollower(userID string) (bool, error) {
	f.calls++
	return f.ids[userID], f.err
}

func newDirectory(t *testing.T, followers ports.FollowerChecker) (*Directory, *memory.Store) {
	t.Helper()

	cfg := config.Default()
	cfg.Twitch.BroadcasterID = "100"
	cfg.Twitch.BotUserID = "200"
	cfg.Twitch.BotUsername = "chatbot"
	cfg.General.Owners = []string{"CoOwner"}
	manager, err := config.NewInMemory(cfg)
	require.NoError(t, err)

	store := memory.New()
	d := New(logger.New(logger.WithoutFile(), logger.WithWriter(io.Discard)), manager, store.Tiers(), followers)
	require.NoError(t, d.EnsureDefaults(context.Background()))
	return d, store
}

func TestHighestPermission(t *testing.T) {
	d, _ := newDirectory(t, &fakeFollowers{ids: map[string]bool{"5": true}})

	tests := []struct {
		name   string
		sender message.Sender
		want   string
	}{
		{"стример по бейджу", message.Sender{UserID: "1", Badges: message.Badges{Broadcaster: true}}, domain.TierCasters},
		{"стример по id", message.Sender{UserID: "100"}, domain.TierCasters},
		{"владелец из конфига", message.Sender{UserID: "7", Username: "coowner"}, domain.TierCasters},
		{"модератор", message.Sender{UserID: "2", Badges: message.Badges{Moderator: true, Subscriber: true}}, domain.TierModerators},
		{"сабскрайбер", message.Sender{UserID: "3", Badges: message.Badges{Subscriber: true, VIP: true}}, domain.TierSubscribers},
		{"вип", message.Sender{UserID: "4", Badges: message.Badges{VIP: true}}, domain.TierVIP},
		{"фолловер через checker", message.Sender{UserID: "5"}, domain.TierFollowers},
		{"зритель", message.Sender{UserID: "6"}, domain.TierViewers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, err := d.HighestPermission(context.Background(), tt.sender)
			require.NoError(t, err)
			require.NotNil(t, tier)
			assert.Equal(t, tt.want, tier.ID)
		})
	}
}

func TestHighestPermission_IncludeExclude(t *testing.T) {
	d, store := newDirectory(t, nil)
	ctx := context.Background()

	tiers, err := store.Tiers().List(ctx)
	require.NoError(t, err)
	for i := range tiers {
		switch tiers[i].ID {
		case domain.TierModerators:
			tiers[i].UserIDs = []string{"42"}
		case domain.TierViewers:
			tiers[i].ExcludeUserIDs = []string{"13"}
		}
		require.NoError(t, store.Tiers().Save(ctx, &tiers[i]))
	}

	tier, err := d.HighestPermission(ctx, message.Sender{UserID: "42"})
	require.NoError(t, err)
	assert.Equal(t, domain.TierModerators, tier.ID, "явный пользователь попадает в тир без бейджа")

	tier, err = d.HighestPermission(ctx, message.Sender{UserID: "13"})
	require.NoError(t, err)
	assert.Nil(t, tier, "исключенный пользователь не попадает ни в один тир")
}

func TestCheckAccess(t *testing.T) {
	d, _ := newDirectory(t, nil)
	ctx := context.Background()
	mod := message.Sender{UserID: "2", Badges: message.Badges{Moderator: true}}
	viewer := message.Sender{UserID: "6"}

	tests := []struct {
		name   string
		sender message.Sender
		tier   string
		want   bool
	}{
		{"без ограничений", viewer, "", true},
		{"модератор в тир зрителей", mod, domain.TierViewers, true},
		{"модератор в тир модераторов", mod, domain.TierModerators, true},
		{"модератор в тир стримера", mod, domain.TierCasters, false},
		{"зритель в тир подписчиков", viewer, domain.TierSubscribers, false},
		{"поиск по имени", mod, "Moderators", true},
		{"неизвестный тир", mod, "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := d.CheckAccess(ctx, tt.sender, tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			ok, err = NewCache(d).CheckAccess(ctx, tt.sender, tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok, "кеш должен совпадать с директорией")
		})
	}
}

func TestCache_ResolvesOncePerSender(t *testing.T) {
	followers := &fakeFollowers{ids: map[string]bool{"5": true}}
	d, _ := newDirectory(t, followers)
	c := NewCache(d)
	ctx := context.Background()
	sender := message.Sender{UserID: "5"}

	for i := 0; i < 3; i++ {
		ok, err := c.CheckAccess(ctx, sender, domain.TierFollowers)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, followers.calls, "тир вычисляется один раз за сообщение")
}

func TestIsFollower_CheckerError(t *testing.T) {
	d, _ := newDirectory(t, &fakeFollowers{err: errors.New("helix down")})
	assert.False(t, d.IsFollower(message.Sender{UserID: "5"}))

	yes := true
	assert.True(t, d.IsFollower(message.Sender{UserID: "5", IsFollower: &yes}), "флаг из сообщения важнее")
}

func TestEnsureDefaults_Idempotent(t *testing.T) {
	d, store := newDirectory(t, nil)
	require.NoError(t, d.EnsureDefaults(context.Background()))

	tiers, err := store.Tiers().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tiers, len(Defaults()))
	assert.True(t, d.IsBot(message.Sender{Username: "ChatBot"}))
}
