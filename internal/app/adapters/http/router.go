package http

import (
	"chatcore/internal/app/adapters/http/handlers"
	"chatcore/internal/app/adapters/http/middlewares"
	"chatcore/internal/app/infrastructure/config"
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"time"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, h *handlers.Handlers) *Router {
	cfg := manager.Get()
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	r := &Router{
		router:      gin.New(),
		handlers:    h,
		middlewares: middlewares.New(manager),
		log:         log,
		manager:     manager,
	}
	r.router.Use(gin.Recovery(), r.middlewares.Metrics())

	auth := r.middlewares.Auth()

	pprofGroup := r.router.Group("/", auth)
	pprof.Register(pprofGroup)

	r.router.GET("/metrics", auth, gin.WrapH(promhttp.Handler()))

	api := r.router.Group("/api", auth)
	{
		api.GET("/status", h.Status)
		api.GET("/tiers", h.Tiers)
		api.GET("/events", h.Events)
		api.POST("/simulate", h.Simulate)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.PutSettings)
		api.GET("/settings/moderation", h.GetModeration)
		api.PUT("/settings/moderation", h.PutModeration)

		api.GET("/builtins", h.ListBuiltins)
		api.GET("/commands", h.ListCommands)
		api.GET("/commands/:name", h.GetCommand)
		api.DELETE("/commands/:name", h.RemoveCommand)
		api.POST("/commands/:name/responses", h.AddResponse)
		api.PUT("/commands/:name/responses/:rid", h.EditResponse)
		api.DELETE("/commands/:name/responses/:rid", h.RemoveResponse)
		api.POST("/commands/:name/toggle", h.ToggleCommand)
		api.POST("/commands/:name/toggle-visibility", h.ToggleCommandVisibility)

		api.GET("/aliases", h.ListAliases)
		api.POST("/aliases", h.AddAlias)
		api.PUT("/aliases/:alias", h.EditAlias)
		api.DELETE("/aliases/:alias", h.RemoveAlias)
		api.POST("/aliases/:alias/toggle", h.ToggleAlias)
		api.POST("/aliases/:alias/toggle-visibility", h.ToggleAliasVisibility)

		api.GET("/prices", h.ListPrices)
		api.PUT("/prices/:command", h.SetPrice)
		api.DELETE("/prices/:command", h.UnsetPrice)
		api.POST("/prices/:command/toggle", h.TogglePrice)

		api.GET("/cooldowns", h.ListCooldowns)
		api.PUT("/cooldowns/:key", h.SetCooldown)
		api.DELETE("/cooldowns/:key", h.UnsetCooldown)
		api.POST("/cooldowns/:key/toggle/:field", h.ToggleCooldown)
	}
	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run слушает до отмены ctx, затем мягко останавливает сервер.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.manager.Get().App.Listen, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("Admin API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// websocket /api/events живет дольше WriteTimeout, дедлайны ставит сам хаб
		WriteTimeout: 0,
		IdleTimeout:  30 * time.Second,
	}
}
