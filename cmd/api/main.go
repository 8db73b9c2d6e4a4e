package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/esports-scout-api/internal/config"
	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/handlers"
	"github.com/yourusername/esports-scout-api/internal/services"
	"github.com/yourusername/esports-scout-api/pkg/cache"
	"github.com/yourusername/esports-scout-api/pkg/logger"
)

const introspectionTTL = 10 * time.Minute

// ============================================================================
// SECURITY HEADERS
// ============================================================================
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.HasAPIKey() {
		log.Warn("GRID_API_KEY is not set; scouting and proxy routes will answer MISSING_API_KEY")
	}

	// 2. Introspection cache, with Redis as an optional shared tier
	var (
		store       cache.Store = cache.NewMemoryStore()
		redisHealth handlers.CacheHealth
	)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, "introspect:", log)
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, using in-process cache only", zap.Error(err))
		} else {
			defer func() { _ = redisStore.Close() }()
			store = &cache.Tiered{Local: store, Shared: redisStore, TTL: introspectionTTL}
			redisHealth = redisStore
		}
	}

	// 3. Initialize Grid API Client and the scouting pipeline
	gridClient := grid.NewClientFromConfig(cfg, store, log)
	scout := services.NewScoutServiceFromConfig(cfg, gridClient, log)

	// 4. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}

	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.RequestLogger(log))
	router.Use(securityHeadersMiddleware())

	limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	stopSweep := limiter.StartSweeper(time.Minute, 10*time.Minute)
	defer stopSweep()
	router.Use(rateLimitMiddleware(limiter))

	// 5. Routes
	handler := handlers.NewHandler(gridClient, scout, handlers.Options{
		HasAPIKey:       cfg.HasAPIKey(),
		Whitelist:       cfg.TournamentIDs,
		UpstreamTimeout: cfg.UpstreamTimeout,
		Cache:           redisHealth,
		Logger:          log,
	})
	handler.Register(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           3600,
	}).Handler(router)

	// 6. Start server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
