package api

import (
	"chatcore/internal/app/adapters/metrics"
	"fmt"
	"github.com/nicklaw5/helix/v2"
	"net/http"
)

// Timeout выдает таймаут от имени бота; seconds == 0 - бан.
func (a *API) Timeout(userID string, seconds int, reason string) error {
	cfg := a.manager.Get()

	resp, err := a.client.BanUser(&helix.BanUserParams{
		BroadcasterID: cfg.Twitch.BroadcasterID,
		ModeratorId:   cfg.Twitch.BotUserID,
		Body: helix.BanUserRequestBody{
			Duration: seconds,
			Reason:   reason,
			UserId:   userID,
		},
	})
	if err != nil {
		err = fmt.Errorf("helix: BanUser: %w", err)
	} else {
		err = status("BanUser", resp.ResponseCommon)
	}
	outbound("timeout", err)
	return err
}

// Whisper отправляет личное сообщение; IRC-шепот Twitch больше не доставляет.
func (a *API) Whisper(toUserID, text string) error {
	resp, err := a.client.SendUserWhisper(&helix.SendUserWhisperParams{
		FromUserID: a.manager.Get().Twitch.BotUserID,
		ToUserID:   toUserID,
		Message:    text,
	})
	if err != nil {
		err = fmt.Errorf("helix: SendUserWhisper: %w", err)
	} else {
		err = status("SendUserWhisper", resp.ResponseCommon, http.StatusOK, http.StatusNoContent)
	}
	outbound("whisper", err)
	return err
}

func outbound(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.OutboundMessages.WithLabelValues(kind, result).Inc()
}
