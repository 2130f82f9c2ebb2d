package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamview/internal/app/adapters/http/handlers"
	"streamview/internal/app/adapters/http/middlewares"
	"streamview/internal/app/infrastructure/config"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log logger.Logger
	cfg config.HTTP
}

func NewRouter(log logger.Logger, cfg config.HTTP, session ports.SessionPort) *Router {
	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, session),
		middlewares: middlewares.New(),
		log:         log,
		cfg:         cfg,
	}
	r.router.Use(gin.Recovery())

	guard := r.middlewares.LocalOnly()
	if cfg.AuthToken != "" {
		guard = r.middlewares.Auth(cfg.AuthToken)

		admin := r.router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.AuthUser: cfg.AuthToken,
		}))
		pprof.RouteRegister(admin)
		admin.GET("/metrics", gin.WrapH(promhttp.Handler()))
	} else {
		r.router.GET("/metrics", guard, gin.WrapH(promhttp.Handler()))
	}

	api := r.router.Group("/api", guard)
	api.GET("/state", r.handlers.State)
	api.GET("/emotes/frequent", r.handlers.FrequentEmotes)

	channels := api.Group("/channels/:channel")
	channels.PUT("", r.handlers.Join)
	channels.DELETE("", r.handlers.Leave)
	channels.GET("/messages", r.handlers.Messages)
	channels.POST("/messages", r.handlers.Send)
	channels.PUT("/pause", r.handlers.Pause)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run слушает cfg.Addr до отмены ctx.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.cfg.Addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("Local API listening", "addr", r.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
