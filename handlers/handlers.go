// handlers/handlers.go - shared wiring for the HTTP handlers
package handlers

import (
	"errors"

	"gamify/logger"
	"gamify/middleware"
	"gamify/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services bundles everything the handlers call into.
type Services struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Achievements *services.AchievementService
	Simulation   *services.TaskSimulationService
	Catalog      *services.CatalogService
	Events       *services.EventHandlers
	Hub          *services.NotificationHub
}

var (
	db                 *gorm.DB
	log                *logger.Logger
	achievementService *services.AchievementService
	simulationService  *services.TaskSimulationService
	catalogService     *services.CatalogService
	eventHandlers      *services.EventHandlers
	notificationHub    *services.NotificationHub
)

// InitHandlers wires the services used by the package-level handlers.
func InitHandlers(svc Services) {
	if svc.DB == nil {
		panic("database not initialized before InitHandlers")
	}
	db = svc.DB
	log = svc.Log
	if log == nil {
		log = logger.Nop()
	}
	achievementService = svc.Achievements
	simulationService = svc.Simulation
	catalogService = svc.Catalog
	eventHandlers = svc.Events
	notificationHub = svc.Hub
}

// statusFor maps service errors onto HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

func respondError(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// resolveUserID prefers an explicit user id and falls back to the
// authenticated user.
func resolveUserID(c *fiber.Ctx, explicit uint) (uint, error) {
	if explicit != 0 {
		return explicit, nil
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated and no user_id provided")
	}
	return userID, nil
}
