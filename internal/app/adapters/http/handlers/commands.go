package handlers

import (
	"chatcore/internal/app/domain"
	"github.com/gin-gonic/gin"
	"net/http"
)

type responseRequest struct {
	Text           string `json:"text"`
	Permission     string `json:"permission"`
	Filter         string `json:"filter"`
	StopIfExecuted bool   `json:"stop_if_executed"`
}

func (r responseRequest) response() domain.Response {
	return domain.Response{Text: r.Text, Permission: r.Permission, Filter: r.Filter, StopIfExecuted: r.StopIfExecuted}
}

func (h *Handlers) ListCommands(c *gin.Context) {
	cmds, err := h.commands.ListCommands(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmds)
}

// ListBuiltins отдает встроенные команды с итоговыми правами с учетом переопределений из конфига.
func (h *Handlers) ListBuiltins(c *gin.Context) {
	c.JSON(http.StatusOK, h.commands.Builtins())
}

func (h *Handlers) GetCommand(c *gin.Context) {
	cmd, err := h.commands.GetCommand(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

func (h *Handlers) AddResponse(c *gin.Context) {
	var req responseRequest
	if !h.bind(c, &req) {
		return
	}

	cmd, err := h.commands.AddResponse(c.Request.Context(), c.Param("name"), req.response())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cmd)
}

func (h *Handlers) EditResponse(c *gin.Context) {
	rid, err := paramInt(c, "rid")
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req responseRequest
	if !h.bind(c, &req) {
		return
	}

	cmd, err := h.commands.EditResponse(c.Request.Context(), c.Param("name"), rid, req.response())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

func (h *Handlers) RemoveResponse(c *gin.Context) {
	rid, err := paramInt(c, "rid")
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.commands.RemoveResponse(c.Request.Context(), c.Param("name"), rid); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) RemoveCommand(c *gin.Context) {
	if err := h.commands.RemoveResponse(c.Request.Context(), c.Param("name"), 0); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ToggleCommand(c *gin.Context) {
	v, err := h.commands.ToggleCommand(c.Request.Context(), c.Param("name"))
	toggled(c, v, err, h)
}

func (h *Handlers) ToggleCommandVisibility(c *gin.Context) {
	v, err := h.commands.ToggleCommandVisibility(c.Request.Context(), c.Param("name"))
	toggled(c, v, err, h)
}

type aliasRequest struct {
	Alias      string `json:"alias"`
	Command    string `json:"command"`
	Permission string `json:"permission"`
}

func (h *Handlers) ListAliases(c *gin.Context) {
	aliases, err := h.commands.ListAliases(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, aliases)
}

func (h *Handlers) AddAlias(c *gin.Context) {
	var req aliasRequest
	if !h.bind(c, &req) {
		return
	}

	alias, err := h.commands.AddAlias(c.Request.Context(), req.Alias, req.Command, req.Permission)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alias)
}

func (h *Handlers) EditAlias(c *gin.Context) {
	var req aliasRequest
	if !h.bind(c, &req) {
		return
	}

	alias, err := h.commands.EditAlias(c.Request.Context(), c.Param("alias"), req.Command, req.Permission)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alias)
}

func (h *Handlers) RemoveAlias(c *gin.Context) {
	if err := h.commands.RemoveAlias(c.Request.Context(), c.Param("alias")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ToggleAlias(c *gin.Context) {
	v, err := h.commands.ToggleAlias(c.Request.Context(), c.Param("alias"))
	toggled(c, v, err, h)
}

func (h *Handlers) ToggleAliasVisibility(c *gin.Context) {
	v, err := h.commands.ToggleAliasVisibility(c.Request.Context(), c.Param("alias"))
	toggled(c, v, err, h)
}

type priceRequest struct {
	Price int64 `json:"price"`
}

func (h *Handlers) ListPrices(c *gin.Context) {
	prices, err := h.commands.ListPrices(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h *Handlers) SetPrice(c *gin.Context) {
	var req priceRequest
	if !h.bind(c, &req) {
		return
	}

	price, err := h.commands.SetPrice(c.Request.Context(), c.Param("command"), req.Price)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *Handlers) UnsetPrice(c *gin.Context) {
	if err := h.commands.UnsetPrice(c.Request.Context(), c.Param("command")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) TogglePrice(c *gin.Context) {
	v, err := h.commands.TogglePrice(c.Request.Context(), c.Param("command"))
	toggled(c, v, err, h)
}
