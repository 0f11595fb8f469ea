package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/config"
	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/handlers"
	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/middleware"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/harshit21255/delhi-transit-buddy/pkg/jwt"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

const auditRetention = 90 * 24 * time.Hour

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Delhi Transit Buddy")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Connect to the record store
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	// Repositories publish change notifications to the snapshot caches
	notifier := database.NewNotifier()
	stationRepository := database.NewStationRepository(db, notifier)
	busRepository := database.NewBusRepository(db, notifier)

	metroService := services.NewMetroService(stationRepository, notifier, cfg.Routing.InterchangePenalty, logger)
	busService := services.NewBusService(busRepository, notifier, logger)
	searchService := services.NewSearchService(metroService, busService, logger)
	ingestService := services.NewIngestService(
		ingest.NewLoader(logger),
		stationRepository,
		busRepository,
		cfg.Feeds.GTFSDir,
		cfg.Feeds.MetroJSONPath,
		logger,
	)

	if cfg.Feeds.IngestOnStartup {
		report, err := ingestService.Run(context.Background(), models.IngestRequest{Metro: true, Bus: true})
		if err != nil {
			logger.WithError(err).Error("Startup ingestion failed")
		} else {
			logger.WithFields(logrus.Fields{
				"stations": report.Stations,
				"routes":   report.Routes,
				"trips":    report.Trips,
				"combined": report.Combined,
				"skipped":  report.Skipped,
			}).Info("Startup ingestion finished")
		}
	}

	// Snapshot caches rebuild on change notifications until shutdown
	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	go metroService.Cache().Watch(watchCtx)
	go busService.Cache().Watch(watchCtx)

	for _, warm := range []func(context.Context) error{
		metroService.Cache().Refresh,
		busService.Cache().Refresh,
	} {
		if err := warm(context.Background()); err != nil {
			logger.WithError(err).Warn("Snapshot not built at startup, will retry on first request")
		}
	}

	cronService := services.NewCronService(ingestService, cfg.Feeds.RefreshSchedule, logger)

	var (
		rateLimitService *services.RateLimitService
		auditService     *services.AuditService
	)
	if cfg.AdminEnabled() {
		rateLimitService = services.NewRateLimitService(db, services.DefaultRateLimitConfig())
		auditService = services.NewAuditService(db)

		// Hourly at :15, and daily at 04:45 for the audit log
		cronService.AddCleanupJob("login attempts", "0 15 * * * *", rateLimitService.CleanupExpiredAttempts)
		cronService.AddCleanupJob("audit logs", "0 45 4 * * *", func(ctx context.Context) (int64, error) {
			return auditService.CleanupOldAuditLogs(ctx, auditRetention)
		})
	}
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Handlers
	metroHandler := handlers.NewMetroHandler(metroService, logger)
	busHandler := handlers.NewBusHandler(busService, logger)
	searchHandler := handlers.NewSearchHandler(searchService, logger)
	healthHandler := handlers.NewHealthHandler(db, logger, metroService.Cache(), busService.Cache())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", searchHandler.Search)

		metro := v1.Group("/metro")
		{
			metro.GET("/stations", metroHandler.ListStations)
			metro.GET("/stations/:name", metroHandler.GetStation)
			metro.GET("/lines", metroHandler.ListLines)
			metro.GET("/route", metroHandler.PlanRoute)
		}

		bus := v1.Group("/bus")
		{
			bus.GET("/stops/search", busHandler.SearchStops)
			bus.GET("/journey", busHandler.PlanJourney)
			bus.GET("/direct", busHandler.DirectBuses)
		}

		if cfg.AdminEnabled() {
			jwtService := jwt.NewService(
				cfg.JWT.Secret,
				cfg.JWT.RefreshSecret,
				cfg.JWT.AccessTokenExpiry,
				cfg.JWT.RefreshTokenExpiry,
			)
			adminAuthService := services.NewAdminAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, jwtService, logger)
			adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, rateLimitService, auditService, logger)
			adminHandler := handlers.NewAdminHandler(
				ingestService,
				busRepository,
				cronService,
				auditService,
				logger,
				metroService.Cache(),
				busService.Cache(),
			)

			admin := v1.Group("/admin")
			{
				admin.POST("/login", adminAuthHandler.Login)
				admin.POST("/refresh", adminAuthHandler.RefreshToken)

				protected := admin.Group("")
				protected.Use(middleware.AuthMiddleware(jwtService, logger))
				protected.Use(middleware.RequireRole(services.AdminRole))
				{
					protected.POST("/ingest", adminHandler.Ingest)
					protected.POST("/rebuild", adminHandler.Rebuild)
					protected.GET("/stats", adminHandler.Stats)
					protected.GET("/audit", adminHandler.AuditLog)
				}
			}
		} else {
			logger.Info("ADMIN_PASSWORD_HASH not set, admin API disabled")
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()
	stopWatching()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
