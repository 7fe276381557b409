// handlers/achievements.go - achievement HTTP handlers
package handlers

import (
	"gamify/middleware"
	"gamify/models"
	"gamify/services"
	"gamify/utils"

	"github.com/gofiber/fiber/v2"
)

type UnlockRequest struct {
	AchievementID string `json:"achievement_id"`
	UserID        uint   `json:"user_id"`
}

type SimulateTasksRequest struct {
	Count        int   `json:"count"`
	UpdateStreak *bool `json:"update_streak"`
	UserID       uint  `json:"user_id"`
}

// ListAchievements returns the catalog. Inactive achievements are only
// visible to admins asking for them.
// GET /api/achievements
func ListAchievements(c *fiber.Ctx) error {
	filter := services.CatalogFilter{
		IncludeInactive: middleware.IsAdmin(c) && utils.ParseBool(c.Query("include_inactive"), false),
		Rarity:          models.Rarity(c.Query("rarity")),
		CriteriaType:    models.CriteriaType(c.Query("criteria_type")),
		Search:          c.Query("search"),
	}

	achievements, err := catalogService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"count":        len(achievements),
	})
}

// GetAvailableAchievements returns every active achievement.
// GET /api/achievements/available
func GetAvailableAchievements(c *fiber.Ctx) error {
	achievements, err := catalogService.List(c.UserContext(), services.CatalogFilter{})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"count":        len(achievements),
	})
}

// GetAchievement returns one achievement.
// GET /api/achievements/:id
func GetAchievement(c *fiber.Ctx) error {
	id, err := utils.ParseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid achievement ID"})
	}

	achievement, err := catalogService.Get(c.UserContext(), id, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"achievement": achievement,
	})
}

// GetMyAchievements lists the authenticated user's achievements.
// GET /api/achievements/me?include_locked=true
func GetMyAchievements(c *fiber.Ctx) error {
	userID, err := resolveUserID(c, 0)
	if err != nil {
		return respondError(c, err)
	}

	includeLocked := utils.ParseBool(c.Query("include_locked"), false)
	views, err := achievementService.GetUserAchievements(c.UserContext(), userID, includeLocked)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": views,
		"count":        len(views),
	})
}

// GetAchievementProgress reports the caller's progress on one achievement.
// GET /api/achievements/:id/progress
func GetAchievementProgress(c *fiber.Ctx) error {
	id, err := utils.ParseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid achievement ID"})
	}

	userID, err := resolveUserID(c, 0)
	if err != nil {
		return respondError(c, err)
	}

	progress, err := achievementService.GetAchievementProgress(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"progress": progress,
	})
}

// GetAllProgress computes progress for every active achievement.
// GET /api/achievements/all-progress?user_id=
func GetAllProgress(c *fiber.Ctx) error {
	explicit, err := utils.ParseUserID(c.Query("user_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid user_id"})
	}
	userID, err := resolveUserID(c, explicit)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := achievementService.CalculateAllProgress(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"user_id":      userID,
		"achievements": entries,
		"count":        len(entries),
	})
}

// GetUserStats returns the user's statistics without creating them.
// GET /api/achievements/user-stats?user_id=
func GetUserStats(c *fiber.Ctx) error {
	explicit, err := utils.ParseUserID(c.Query("user_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid user_id"})
	}
	userID, err := resolveUserID(c, explicit)
	if err != nil {
		return respondError(c, err)
	}

	stats, err := simulationService.GetUserStatistics(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"user_id":    userID,
		"statistics": stats,
	})
}

// UnlockAchievement unlocks an achievement directly.
// POST /api/achievements/unlock
func UnlockAchievement(c *fiber.Ctx) error {
	var req UnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	achievementID, err := utils.ParseUUID(req.AchievementID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid achievement_id"})
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	ua, err := achievementService.UnlockAchievement(c.UserContext(), userID, achievementID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"user_achievement": ua,
		"rewards":          services.RewardsFor(ua.Achievement),
	})
}

// SimulateTasks runs count simulated task completions for a user.
// POST /api/achievements/simulate-tasks
func SimulateTasks(c *fiber.Ctx) error {
	var req SimulateTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	updateStreak := true
	if req.UpdateStreak != nil {
		updateStreak = *req.UpdateStreak
	}

	result, err := simulationService.SimulateTaskCompletions(c.UserContext(), userID, req.Count, updateStreak)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
