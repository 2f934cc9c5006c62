package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ecosort/waste-bank/internal/config"     // Internal config loader
	"github.com/ecosort/waste-bank/internal/database"   // MySQL connection pool
	"github.com/ecosort/waste-bank/internal/handler"    // HTTP handlers
	"github.com/ecosort/waste-bank/internal/middleware" // Metrics, rate limit and cache middleware
	"github.com/ecosort/waste-bank/internal/queue"      // Background email worker
	"github.com/ecosort/waste-bank/internal/repository" // Data access layer
	"github.com/ecosort/waste-bank/internal/router"     // Route registration
)

func main() {
	// Load .env when present; in containers the variables come from the
	// orchestrator and the file is absent, which is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs rate limiting and the stats cache.  A nil client disables
	// both; the API itself keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	// Repositories share the single pooled handle.
	users := repository.NewUserRepo(db)
	otps := repository.NewOTPRepo(db)
	devices := repository.NewDeviceRepo(db)
	waste := repository.NewWasteRepo(db)
	rewards := repository.NewRewardRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	otpH := handler.NewOTPHandler(cfg, users, otps)
	wasteH := handler.NewWasteHandler(cfg, users, devices, waste, rewards)
	userH := handler.NewUserHandler(users, waste, rewards)
	adminH := handler.NewAdminHandler(users, devices, waste)
	buyerH := handler.NewBuyerHandler(waste)

	// The email worker consumes otp.email and delivers codes outside the
	// request path.  It reconnects on broker failure and never stops the API.
	go func() {
		if err := queue.StartOTPEmailConsumer(); err != nil {
			log.Printf("otp email consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.Metrics)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterOTP(e, otpH, limiter)
	router.RegisterWaste(e, wasteH, cfg.JWTSecret, limiter)
	router.RegisterUser(e, userH, cfg.JWTSecret, cache)
	router.RegisterBuyer(e, buyerH, cfg.JWTSecret, cache)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret, cache)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
