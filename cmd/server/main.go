package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/SampleBias/10x-prompt/internal/config"
	"github.com/SampleBias/10x-prompt/internal/gateway"
	"github.com/SampleBias/10x-prompt/internal/handlers"
	"github.com/SampleBias/10x-prompt/internal/health"
	"github.com/SampleBias/10x-prompt/internal/jobs"
	"github.com/SampleBias/10x-prompt/internal/logging"
	"github.com/SampleBias/10x-prompt/internal/middleware"
	"github.com/SampleBias/10x-prompt/internal/services"
	"github.com/SampleBias/10x-prompt/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting prompt enhancement server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Env: %s)", cfg.Port, cfg.Environment)

	// Redis (optional - session backend; dev mode falls back to in-memory)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		log.Println("🔗 Connecting to Redis...")
		var err error
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			if cfg.Environment == "production" {
				log.Fatalf("❌ Failed to connect to Redis: %v", err)
			}
			log.Printf("⚠️ Failed to connect to Redis: %v (using in-memory sessions)", err)
			redisService = nil
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - using in-memory sessions")
	}
	if redisService != nil {
		defer redisService.Close()
	}

	sessionService := services.NewSessionService(redisService, 24*time.Hour)

	// JWT auth (nil in dev mode means the auth middleware allows bypass)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		var err error
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT auth initialized")
	} else if cfg.Environment == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️ JWT_SECRET not set - auth bypass enabled (development only)")
	}

	// Metrics
	metrics := services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Health registry + completion gateway
	healthService := health.NewService(1)
	gw := gateway.New(cfg.Providers(), healthService, metrics, cfg.CacheTTL)
	log.Println("✅ Completion gateway initialized")

	// Periodic provider re-probing (0 disables)
	var scheduler *jobs.Scheduler
	if cfg.HealthCheckInterval > 0 {
		scheduler = jobs.NewScheduler()
		scheduler.Register("provider-health", jobs.NewProviderHealthChecker(
			healthService, gw.Probers(), cfg.HealthCheckInterval))
		scheduler.Start()
		log.Printf("✅ Health check job scheduled (every %v)", cfg.HealthCheckInterval)
	} else {
		log.Println("⚠️ Periodic health checks disabled (HEALTH_CHECK_INTERVAL_MINUTES=0)")
	}

	// Handlers
	enhanceHandler := handlers.NewEnhanceHandler(gw)
	healthHandler := handlers.NewHealthHandler(healthService)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "10x-prompt",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("promptgw")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Health check (public)
	app.Get("/health", healthHandler.Handle)

	// Rate limiter for enhance endpoint (30 requests per minute per user)
	enhanceLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID, ok := c.Locals("user_id").(string)
			if !ok || userID == "" {
				return c.IP()
			}
			return "enhance:" + userID
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Enhance limit reached for user: %v", c.Locals("user_id"))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please wait before trying again.",
			})
		},
	})

	api := app.Group("/api")
	api.Get("/providers/health", healthHandler.Providers)
	api.Post("/enhance",
		middleware.AuthMiddleware(jwtAuth, sessionService),
		enhanceLimiter,
		enhanceHandler.Handle)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down...")
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}
