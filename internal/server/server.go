// Package server wires the console's HTTP surface: bootstrap, login,
// logout, session snapshot, and page-view analytics ingestion.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bartrekker/admin-api/internal/analytics"
	"github.com/bartrekker/admin-api/internal/auth"
	"github.com/bartrekker/admin-api/internal/config"
	"github.com/bartrekker/admin-api/internal/identity"
	"github.com/bartrekker/admin-api/internal/models"
	"github.com/bartrekker/admin-api/internal/session"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	asynqClient *asynq.Client
	redisClient *redis.Client
	gateway     *auth.Gateway
	emitter     analytics.Emitter
	store       *session.Store
	unsubscribe func()
	cron        *cron.Cron
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Load the JWT secret persisted during first setup, if any
	var settings models.Settings
	if err := db.First(&settings).Error; err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		zlog.Info().Msg("No settings found - JWT will be initialized during first setup")
	}

	// Asynq client for the fire-and-forget analytics events
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Redis client holding the persisted session record
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	messages, err := auth.LoadMessages(cfg.MessagesPath)
	if err != nil {
		zlog.Warn().Err(err).Msg("Failed to load message catalog, using defaults")
	}

	provider := identity.NewLocalProvider(db, zlog)
	emitter := analytics.NewQueueEmitter(asynqClient, zlog)
	gateway := auth.NewGateway(provider, cfg.Admin, emitter, messages, zlog)

	persist := session.NewRedisPersistence(redisClient, cfg.Session.StorageKey)
	store := session.NewStore(context.Background(), gateway, persist, zlog)

	// Subscribe the store to identity-change notifications. Exactly once
	// per process; the unsubscribe runs during shutdown.
	unsubscribe := store.Initialize(context.Background())

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		asynqClient: asynqClient,
		redisClient: redisClient,
		gateway:     gateway,
		emitter:     emitter,
		store:       store,
		unsubscribe: unsubscribe,
		version:     version,
	}

	server.startSweeper()
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 * time.Second
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS for the console origin
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.HTTP.ConsoleOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/setup", s.setupAdmin)
	s.router.POST("/api/auth/login", s.login)

	// Authenticated API routes (JWT + live session required)
	api := s.router.Group("/api")
	api.Use(SessionAuthMiddleware(s.store, s.logger))
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/session", s.getSession)
		api.GET("/auth/me", s.getCurrentUser)

		api.POST("/analytics/page-view", s.pageView)
	}
}

// startSweeper schedules the idle-expiry check. It is the producer of the
// session-expired signal: an idle session is flagged expired and then
// logged out.
func (s *Server) startSweeper() {
	timeout := s.config.Session.IdleTimeout
	if timeout <= 0 {
		s.logger.Info().Msg("Session idle timeout disabled")
		return
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc("* * * * *", func() {
		if !s.store.IsAuthenticated() {
			return
		}
		if idle := s.store.IdleFor(); idle > timeout {
			s.logger.Info().Dur("idle", idle).Msg("Session idle timeout reached, expiring session")
			s.store.SetSessionExpired(true)
			s.store.Logout(context.Background())
		}
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to schedule session expiry sweeper")
		s.cron = nil
		return
	}
	s.cron.Start()
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// healthCheck reports liveness
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

// GetDB exposes the database handle (the worker reuses the server's
// initialization)
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router exposes the configured router for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully, releasing the identity subscription and queue clients.
func (s *Server) Start() error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Int("port", s.config.HTTP.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		s.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, shutting down gracefully...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	s.Close()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Close releases long-lived resources: the identity-change subscription,
// the expiry sweeper, and the queue/storage clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cron != nil {
		s.cron.Stop()
	}
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close Asynq client")
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close Redis client")
	}
}
