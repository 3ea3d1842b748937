package handlers

import (
	"chatcore/internal/app/domain/message"
	"chatcore/internal/app/domain/parser"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
)

type simulateRequest struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Badges   []string `json:"badges"`
	Follower *bool    `json:"follower"`
	Action   bool     `json:"action"`
	Text     string   `json:"text" binding:"required"`
}

// ParseBadges разбирает список значков "broadcaster,moderator,subscriber,vip".
func ParseBadges(names []string) message.Badges {
	var b message.Badges
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "broadcaster":
			b.Broadcaster = true
		case "moderator", "mod":
			b.Moderator = true
		case "subscriber", "sub":
			b.Subscriber = true
		case "vip":
			b.VIP = true
		}
	}
	return b
}

// Simulate прогоняет сообщение через конвейер без отправки в чат.
func (h *Handlers) Simulate(c *gin.Context) {
	var req simulateRequest
	if !h.bind(c, &req) {
		return
	}

	if req.Username == "" {
		req.Username = "simulator"
	}
	if req.UserID == "" {
		req.UserID = "simulator"
	}

	msg := message.New(message.Sender{
		UserID:     req.UserID,
		Username:   req.Username,
		Badges:     ParseBadges(req.Badges),
		IsFollower: req.Follower,
	}, req.Text)
	msg.Channel = h.manager.Get().Twitch.Channel
	msg.IsAction = req.Action

	res, err := h.engine.Process(c.Request.Context(), msg, parser.ProcessOptions{Quiet: true})
	if err != nil && res == nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
