package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trekdesk/cache"
	"trekdesk/config"
	"trekdesk/database"
	"trekdesk/handlers"
	"trekdesk/scheduler"
	"trekdesk/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	cfgPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}

	// Initialize database
	store, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer store.Close()

	// Recommendation cache
	var priceCache cache.Cache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			log.Printf("⚠️  Redis unavailable at %s: %v — using in-memory cache", cfg.Redis.Addr, err)
			rc.Close()
			priceCache = cache.NewMemoryCache()
		} else {
			log.Printf("✅ Redis cache connected at %s", cfg.Redis.Addr)
			defer rc.Close()
			priceCache = rc
		}
	} else {
		priceCache = cache.NewMemoryCache()
	}

	pricingService := services.NewPricingService(store, store, priceCache, cfg.Redis.TTL)

	// Initialize AI service
	advisor := services.NewAdvisor(cfg.AI.APIKey, cfg.AI.Model)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, store, pricingService)
	if err := sched.Register(cfg.Schedule.RepriceCron); err != nil {
		log.Fatalf("❌ %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		go func() {
			if n, err := sched.RunOnce(ctx); err != nil {
				log.Printf("❌ Startup repricing failed: %v", err)
			} else {
				log.Printf("✅ Startup repricing done for %d departures", n)
			}
		}()
	}

	// Set Gin mode
	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Trusted proxies (hosting platform sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.FrontendURLs,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Trace-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(handlers.TraceIDMiddleware())

	limiter := handlers.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer limiter.Stop()
	r.Use(handlers.RateLimitMiddleware(limiter))

	handlers.NewHandler(pricingService, advisor, store).Register(r)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("🚀 trekdesk backend starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Printf("❌ Failed to start server: %v", err)
		return
	case <-quit:
		log.Println("Shutting down server...")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Server exited")
}
