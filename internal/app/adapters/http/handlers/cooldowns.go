package handlers

import (
	"chatcore/internal/app/domain"
	"github.com/gin-gonic/gin"
	"net/http"
)

type cooldownRequest struct {
	Scope   domain.CooldownScope `json:"scope"`
	Seconds int                  `json:"seconds"`
	Quiet   bool                 `json:"quiet"`
}

func (h *Handlers) ListCooldowns(c *gin.Context) {
	cds, err := h.cooldowns.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cds)
}

func (h *Handlers) SetCooldown(c *gin.Context) {
	var req cooldownRequest
	if !h.bind(c, &req) {
		return
	}

	cd, err := h.cooldowns.Set(c.Request.Context(), c.Param("key"), req.Scope, req.Seconds, req.Quiet)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

func (h *Handlers) UnsetCooldown(c *gin.Context) {
	if err := h.cooldowns.Unset(c.Request.Context(), c.Param("key")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ToggleCooldown(c *gin.Context) {
	v, err := h.cooldowns.Toggle(c.Request.Context(), c.Param("key"), c.Param("field"))
	toggled(c, v, err, h)
}
