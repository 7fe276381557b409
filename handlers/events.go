// handlers/events.go - inbound domain events
package handlers

import (
	"gamify/services"

	"github.com/gofiber/fiber/v2"
)

// IngestEvent runs an external event (task_completed, level_up, ...)
// through the achievement pipeline.
// POST /api/events
func IngestEvent(c *fiber.Ctx) error {
	var ev services.Event
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if ev.UserID == 0 {
		userID, err := resolveUserID(c, 0)
		if err != nil {
			return respondError(c, err)
		}
		ev.UserID = userID
	}

	unlocked, err := eventHandlers.Dispatch(c.UserContext(), ev)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"event_type": ev.Type,
		"user_id":    ev.UserID,
		"unlocked":   unlocked,
		"count":      len(unlocked),
	})
}
