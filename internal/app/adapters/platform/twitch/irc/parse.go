package irc

import (
	"chatcore/internal/app/domain/message"
	"github.com/gempir/go-twitch-irc/v4"
	"time"
)

func fromPrivate(m twitch.PrivateMessage) *message.ChatMessage {
	msg := message.New(sender(m.User), m.Message)
	msg.ID = m.ID
	msg.Channel = m.Channel
	msg.Emotes = emotes(m.Emotes)
	msg.IsAction = m.Action
	if !m.Time.IsZero() {
		msg.ReceivedAt = m.Time
	}
	return msg
}

func fromWhisper(m twitch.WhisperMessage) *message.ChatMessage {
	msg := message.New(sender(m.User), m.Message)
	msg.ID = m.MessageID
	msg.Emotes = emotes(m.Emotes)
	msg.IsAction = m.Action
	msg.IsWhisper = true
	msg.ReceivedAt = time.Now()
	return msg
}

func sender(u twitch.User) message.Sender {
	return message.Sender{
		UserID:      u.ID,
		Username:    u.Name,
		DisplayName: u.DisplayName,
		Badges: message.Badges{
			Broadcaster: hasBadge(u, "broadcaster"),
			Moderator:   hasBadge(u, "moderator"),
			Subscriber:  hasBadge(u, "subscriber") || hasBadge(u, "founder"),
			VIP:         hasBadge(u, "vip"),
		},
	}
}

func emotes(list []*twitch.Emote) []message.Emote {
	if len(list) == 0 {
		return nil
	}

	out := make([]message.Emote, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		out = append(out, message.Emote{ID: e.ID, Name: e.Name, Count: e.Count})
	}
	return out
}

// hasBadge - наличие значка; уровень у founder бывает нулевым.
func hasBadge(u twitch.User, name string) bool {
	_, ok := u.Badges[name]
	return ok
}
