package handlers

import (
	"chatcore/internal/app/adapters/ws"
	"chatcore/internal/app/domain/commands"
	"chatcore/internal/app/domain/cooldown"
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/domain/parser"
	"chatcore/internal/app/domain/permissions"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/pkg/logger"
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"strconv"
	"time"
)

type Handlers struct {
	log       logger.Logger
	manager   *config.Manager
	commands  *commands.Service
	cooldowns *cooldown.Service
	engine    *parser.Engine
	perms     *permissions.Directory
	hub       *ws.Hub
	started   time.Time
}

func New(log logger.Logger, manager *config.Manager, cmds *commands.Service, cooldowns *cooldown.Service,
	engine *parser.Engine, hub *ws.Hub) *Handlers {
	return &Handlers{
		log:       log,
		manager:   manager,
		commands:  cmds,
		cooldowns: cooldowns,
		engine:    engine,
		perms:     engine.Permissions(),
		hub:       hub,
		started:   time.Now(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Usage string `json:"usage,omitempty"`
}

// writeError отдает доменную ошибку с подходящим статусом; непредвиденные логируются.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var pe *errs.ParseError
	switch {
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, errorResponse{Error: pe.Error(), Usage: pe.Usage})
	case errors.Is(err, errs.ErrInvalid):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.log.Error("Admin API request failed", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handlers) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func toggled(c *gin.Context, value bool, err error, h *Handlers) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func paramInt(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errs.Invalid("%s must be a number", name)
	}
	return v, nil
}
