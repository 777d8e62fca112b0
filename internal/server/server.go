package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/config"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/handler"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// Server is the HTTP surface of the tracking daemon.
type Server struct {
	config   *config.Config
	pipeline *service.Pipeline
	alerts   *service.AlertEngine
	fences   *service.FenceIndex
	hub      *handler.Hub

	router *gin.Engine
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a server instance.
func NewServer(cfg *config.Config, pipeline *service.Pipeline, alerts *service.AlertEngine, fences *service.FenceIndex, hub *handler.Hub, logger *zap.Logger) *Server {
	return &Server{
		config:   cfg,
		pipeline: pipeline,
		alerts:   alerts,
		fences:   fences,
		hub:      hub,
		logger:   logger.Named("server"),
	}
}

// Setup initializes routes and handlers.
func (s *Server) Setup() {
	reportHandler := handler.NewReportHandler(s.pipeline)
	horseHandler := handler.NewHorseHandler(s.pipeline)
	alertHandler := handler.NewAlertHandler(s.alerts)
	geofenceHandler := handler.NewGeofenceHandler(s.fences)
	statsHandler := handler.NewStatsHandler(s.pipeline, s.alerts, s.hub)
	wsHandler := handler.NewWSHandler(s.hub)

	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket routes
	s.router.GET("/ws/live", wsHandler.HandleLive)
	s.router.GET("/ws/stats", wsHandler.GetStats)

	api := s.router.Group("/api/v1")
	{
		reportHandler.RegisterRoutes(api)
		horseHandler.RegisterRoutes(api)
		alertHandler.RegisterRoutes(api)
		geofenceHandler.RegisterRoutes(api)
		statsHandler.RegisterRoutes(api)
	}
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops listening.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
