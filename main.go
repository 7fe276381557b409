// main.go - gamify achievement backend
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamify/database"
	"gamify/handlers"
	"gamify/handlers/admin"
	"gamify/logger"
	"gamify/middleware"
	"gamify/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	log, err := logger.New(getEnv("LOG_MODE", getEnv("APP_ENV", "development")))
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	validateEnvironment(log)

	if err := database.InitDB(log); err != nil {
		log.Fatal("database init failed", "error", err)
	}
	defer database.CloseDB()
	db := database.GetDB()

	catalog := services.NewCatalogService(db, log)
	if getEnv("SEED_ACHIEVEMENTS", "false") == "true" {
		report, err := catalog.Seed(context.Background(), services.DefaultCatalog())
		if err != nil {
			log.Fatal("seeding achievements failed", "error", err)
		}
		log.Info("achievement catalog seeded", "created", report.Created, "skipped", report.Skipped)
	}

	if username, password := os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD"); username != "" && password != "" {
		if err := handlers.EnsureAdminUser(db, username, password); err != nil {
			log.Fatal("failed to provision admin user", "error", err)
		}
	}

	var publisher services.EventPublisher = services.NewLogPublisher(log)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisPublisher, err := services.NewRedisPublisher(log, redisURL, getEnv("REDIS_CHANNEL_PREFIX", "gamify"))
		if err != nil {
			log.Fatal("redis connection failed", "error", err)
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
	}

	hub := services.NewNotificationHub(log)
	notifier := services.MultiNotifier{services.NewLogNotifier(log), hub}

	evaluator := services.NewAchievementEvaluator(db, log, nil)
	achievements := services.NewAchievementService(db, log, evaluator, publisher, notifier)
	simulation := services.NewTaskSimulationService(db, log, achievements)

	handlers.InitHandlers(handlers.Services{
		DB:           db,
		Log:          log,
		Achievements: achievements,
		Simulation:   simulation,
		Catalog:      catalog,
		Events:       services.NewEventHandlers(log, achievements),
		Hub:          hub,
	})
	admin.InitAdminHandlers(db, catalog, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	stop := make(chan struct{})
	generalLimiter := middleware.GeneralLimiterFromEnv()
	authLimiter := middleware.AuthLimiterFromEnv()
	generalLimiter.StartCleanup(5*time.Minute, stop)
	authLimiter.StartCleanup(5*time.Minute, stop)

	handlers.SetupRoutes(app, generalLimiter, authLimiter)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		close(stop)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	port := getEnv("PORT", "3000")
	log.Info("HTTP server starting",
		"port", port,
		"env", getEnv("APP_ENV", "development"),
		"redis", os.Getenv("REDIS_URL") != "",
	)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("failed to start HTTP server", "error", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment(log *logger.Logger) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters long")
	}

	if os.Getenv("APP_ENV") == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Warn("CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
