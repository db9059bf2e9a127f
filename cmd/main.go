package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/internal/logger"
	"slide-deck-platform/internal/telemetry"
	"slide-deck-platform/middleware"
	"slide-deck-platform/routes"
	"slide-deck-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Redis backs the rate limiter; the middleware fails open if it is down
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Rate limiting degraded", "error", err.Error())
	}

	// Optional tracing
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("slide-deck-platform", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err.Error())
		} else {
			defer shutdown()
		}
	}

	db := mongoClient.Database(cfg.DBName)

	// Services
	probe := services.NewRendererProbe(cfg)
	placeholders := services.NewPlaceholderGenerator()
	converter := services.NewConverter(cfg, placeholders)
	store := services.NewCatalogStore(db)
	index := services.NewIndex(store)

	// Startup probe is diagnostic only; every conversion re-probes
	startupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	if !probe.Probe(startupCtx) {
		logger.Warn("Renderer unavailable at startup; conversions will degrade to placeholders")
	}
	cancel()

	// Warm the derived index and keep it converging in the background
	rebuildCtx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	if err := index.Rebuild(rebuildCtx); err != nil {
		logger.Warn("Initial index rebuild failed", "error", err.Error())
	}
	cancel()

	if err := index.StartResync(time.Duration(cfg.IndexResyncMinutes) * time.Minute); err != nil {
		logger.Warn("Failed to schedule index resync", "error", err.Error())
	}
	defer index.StopResync()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	// Multipart overhead gets a small allowance on top of the file cap;
	// the handler enforces the exact per-file limit.
	router.POST("/convert",
		middleware.RequestSizeLimit(cfg.MaxFileSize+(10<<20)),
		middleware.ConversionLimiter(),
		routes.HandleConvert(cfg, probe, converter, store, index))
	routes.SetupCatalogRoutes(router, cfg, store, index)
	routes.SetupSlideRoutes(router, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
