package handlers

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/infrastructure/config"
	"github.com/gin-gonic/gin"
	"net/http"
)

const secretMask = "********"

// secrets - поля конфига, которые API не отдает наружу.
func secrets(cfg *config.Config) []*string {
	return []*string{
		&cfg.App.AuthToken,
		&cfg.App.Store.DSN,
		&cfg.Twitch.OAuth,
		&cfg.Twitch.ClientID,
		&cfg.Twitch.AccessToken,
	}
}

func (h *Handlers) GetSettings(c *gin.Context) {
	cfg := *h.manager.Get()
	// маскируются только строки копии, общие карты не трогаем
	for _, s := range secrets(&cfg) {
		if *s != "" {
			*s = secretMask
		}
	}
	c.JSON(http.StatusOK, cfg)
}

// PutSettings заменяет конфиг целиком; замаскированные и пустые секреты остаются прежними.
func (h *Handlers) PutSettings(c *gin.Context) {
	next := config.Default()
	if !h.bind(c, next) {
		return
	}

	current := secrets(h.manager.Get())
	for i, s := range secrets(next) {
		if *s == "" || *s == secretMask {
			*s = *current[i]
		}
	}

	if err := config.Validate(next); err != nil {
		h.writeError(c, errs.Invalid("%v", err))
		return
	}

	if err := h.manager.Update(func(cfg *config.Config) {
		*cfg = *next
	}); err != nil {
		h.writeError(c, err)
		return
	}
	h.GetSettings(c)
}

func (h *Handlers) GetModeration(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Get().Moderation)
}

func (h *Handlers) PutModeration(c *gin.Context) {
	next := config.Default().Moderation
	if !h.bind(c, &next) {
		return
	}

	candidate, err := h.manager.Get().Clone()
	if err != nil {
		h.writeError(c, err)
		return
	}
	candidate.Moderation = next
	if err := config.Validate(candidate); err != nil {
		h.writeError(c, errs.Invalid("%v", err))
		return
	}

	if err := h.manager.Update(func(cfg *config.Config) {
		cfg.Moderation = next
	}); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.manager.Get().Moderation)
}
