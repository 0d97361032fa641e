// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/castawaytv/castaway/internal/api"
	"github.com/castawaytv/castaway/internal/channel"
	"github.com/castawaytv/castaway/internal/config"
	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/guide"
	"github.com/castawaytv/castaway/internal/library"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/middleware"
	"github.com/castawaytv/castaway/internal/playout"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	scanner        *library.Scanner
	channelService *channel.ChannelService
	guideService   *guide.Service
	builder        *playout.Builder
	worker         *playout.Worker
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	scanner := library.NewScanner(repos)
	channelService := channel.NewChannelService(repos)
	guideService := guide.NewService(repos)
	libraryService := library.NewService(repos)
	builder := playout.NewBuilder(database, repos, libraryService, cfg.Playout)
	worker := playout.NewWorker(builder, repos, cfg.Playout.RebuildInterval)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		scanner:        scanner,
		channelService: channelService,
		guideService:   guideService,
		builder:        builder,
		worker:         worker,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupMediaRoutes(apiGroup, s.scanner, s.repos, s.config.Library.Path)
	api.SetupChannelRoutes(apiGroup, s.channelService)
	api.SetupCollectionRoutes(apiGroup, s.repos)
	api.SetupScheduleRoutes(apiGroup, s.repos)
	api.SetupBlockRoutes(apiGroup, s.repos)
	api.SetupDecoRoutes(apiGroup, s.repos)
	api.SetupPlayoutRoutes(apiGroup, s.repos, s.builder)
	api.SetupGuideRoutes(apiGroup, s.guideService)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	// Start the background build worker
	s.worker.Start(context.Background())

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Stop the build worker
	if s.worker != nil {
		s.worker.Stop()
	}

	// Stop the scanner cleanup goroutine
	if s.scanner != nil {
		s.scanner.Stop()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
