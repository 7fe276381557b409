// handlers/routes.go - HTTP route table
package handlers

import (
	"time"

	"gamify/handlers/admin"
	"gamify/metrics"
	"gamify/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers every route on app. A nil limiter disables that
// limit.
func SetupRoutes(app *fiber.App, generalLimiter, authLimiter *middleware.RateLimiter) {
	if generalLimiter != nil {
		app.Use(middleware.FiberRateLimitMiddleware(generalLimiter))
	}

	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	if authLimiter != nil {
		authGroup.Use(middleware.FiberAuthRateLimitMiddleware(authLimiter))
	}
	authGroup.Post("/register", Register)
	authGroup.Post("/login", Login)

	// Achievement routes. Identity is optional here: most endpoints accept
	// an explicit user_id and only fall back to the token.
	achievementGroup := api.Group("/achievements")
	achievementGroup.Use(middleware.OptionalAuth)
	achievementGroup.Get("/", ListAchievements)
	achievementGroup.Get("/available", GetAvailableAchievements)
	achievementGroup.Get("/me", GetMyAchievements)
	achievementGroup.Get("/all-progress", GetAllProgress)
	achievementGroup.Get("/user-stats", GetUserStats)
	achievementGroup.Post("/unlock", UnlockAchievement)
	achievementGroup.Post("/simulate-tasks", SimulateTasks)
	achievementGroup.Get("/:id", GetAchievement)
	achievementGroup.Get("/:id/progress", GetAchievementProgress)

	// Domain events
	api.Post("/events", middleware.OptionalAuth, IngestEvent)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuthMiddleware)
	adminProtected.Get("/verify", admin.VerifyToken)
	adminProtected.Get("/users", admin.GetUsers)
	adminProtected.Get("/users/:id", admin.GetUser)
	adminProtected.Get("/achievements", admin.GetAchievements)
	adminProtected.Post("/achievements", admin.CreateAchievement)
	adminProtected.Post("/achievements/seed", admin.SeedAchievements)
	adminProtected.Get("/achievements/:id", admin.GetAchievement)
	adminProtected.Put("/achievements/:id", admin.UpdateAchievement)
	adminProtected.Delete("/achievements/:id", admin.DeleteAchievement)

	// Live notifications
	app.Get("/ws/notifications", middleware.WebSocketAuthMiddleware, NotificationsUpgrade, NotificationsSocket)

	app.Get("/metrics", metrics.Handler())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})
}
