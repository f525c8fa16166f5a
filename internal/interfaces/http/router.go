// Package http assembles the Gin engine, middleware chain, and route table,
// and owns the HTTP server lifecycle.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logigrain/portauth/internal/application/dto"
	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/internal/infrastructure/monitoring"
	"github.com/logigrain/portauth/internal/interfaces/http/handlers"
	"github.com/logigrain/portauth/internal/interfaces/http/middleware"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

// Router wires the engine and serves it.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger logger.Logger
	server *http.Server
}

// NewRouter builds the engine with the full middleware chain and route table.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	tm *monitoring.TracingManager,
	metrics *monitoring.Metrics,
	limiter service.RateLimitService,
	authService *appservice.AuthAppService,
	authHandler *handlers.AuthHandler,
	ticketHandler *handlers.TicketHandler,
	healthHandler *handlers.HealthHandler,
) *Router {
	if constants.Environment(cfg.ARCA.Environment) == constants.EnvironmentProd {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.Observability(tm, metrics))

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/live", healthHandler.Live)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Server.PprofEnabled {
		pprof.Register(engine)
	}

	v1 := engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		tickets := v1.Group("/tickets")
		tickets.Use(middleware.Authenticate(authService))
		tickets.Use(middleware.RateLimit(limiter, cfg.RateLimit.DefaultRPM))
		{
			tickets.POST("/:service", ticketHandler.GetTicket)
			tickets.DELETE("/:service", ticketHandler.InvalidateTicket)
		}
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Code:    string(constants.ErrCodeNotFound),
			Message: "resource not found",
		})
	})

	return &Router{engine: engine, cfg: cfg, logger: log}
}

// Start serves HTTP until the listener fails or Stop is called.
func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%d", r.cfg.Server.Host, r.cfg.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "starting HTTP server", logger.Fields{"address": addr})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the underlying engine for tests.
func (r *Router) Engine() *gin.Engine { return r.engine }
