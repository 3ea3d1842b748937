package api

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/ports"
	"context"
	"fmt"
	"github.com/nicklaw5/helix/v2"
	"strings"
)

var (
	_ ports.UserResolver    = (*API)(nil)
	_ ports.FollowerChecker = (*API)(nil)
)

// UserID возвращает id пользователя по логину; errs.ErrNotFound если такого нет.
func (a *API) UserID(_ context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(login), "@"))
	if id, ok := a.users.Get(login); ok {
		return id, nil
	}

	resp, err := a.client.GetUsers(&helix.UsersParams{Logins: []string{login}})
	if err != nil {
		return "", fmt.Errorf("helix: GetUsers: %w", err)
	}
	if err := status("GetUsers", resp.ResponseCommon); err != nil {
		return "", err
	}
	if len(resp.Data.Users) == 0 {
		return "", errs.NotFound("user", login)
	}

	id := resp.Data.Users[0].ID
	a.users.Set(login, id)
	return id, nil
}

// IsFollower проверяет подписку на канал; результат кешируется.
func (a *API) IsFollower(userID string) (bool, error) {
	if v, ok := a.followers.Get(userID); ok {
		return v, nil
	}

	resp, err := a.client.GetChannelFollows(&helix.GetChannelFollowsParams{
		BroadcasterID: a.manager.Get().Twitch.BroadcasterID,
		UserID:        userID,
	})
	if err != nil {
		return false, fmt.Errorf("helix: GetChannelFollows: %w", err)
	}
	if err := status("GetChannelFollows", resp.ResponseCommon); err != nil {
		return false, err
	}

	follows := len(resp.Data.Channels) > 0
	a.followers.Set(userID, follows)
	return follows, nil
}

// ResolveIDs дописывает в конфиг id канала и бота, если они не заданы.
func (a *API) ResolveIDs(ctx context.Context) error {
	cfg := a.manager.Get()
	broadcasterID, botID := cfg.Twitch.BroadcasterID, cfg.Twitch.BotUserID
	if broadcasterID != "" && botID != "" {
		return nil
	}

	var err error
	if broadcasterID == "" {
		if broadcasterID, err = a.UserID(ctx, cfg.Twitch.Channel); err != nil {
			return fmt.Errorf("resolve channel id: %w", err)
		}
	}
	if botID == "" {
		if botID, err = a.UserID(ctx, cfg.Twitch.BotUsername); err != nil {
			return fmt.Errorf("resolve bot id: %w", err)
		}
	}

	a.log.Info("Resolved Twitch ids", "broadcaster_id", broadcasterID, "bot_user_id", botID)
	return a.manager.Update(func(cfg *config.Config) {
		cfg.Twitch.BroadcasterID = broadcasterID
		cfg.Twitch.BotUserID = botID
	})
}
