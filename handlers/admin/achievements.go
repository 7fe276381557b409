package admin

import (
	"errors"

	"gamify/models"
	"gamify/services"
	"gamify/utils"

	"github.com/gofiber/fiber/v2"
)

// GetAchievements returns all achievements, inactive ones included
func GetAchievements(c *fiber.Ctx) error {
	achievements, err := catalogService.List(c.UserContext(), services.CatalogFilter{
		IncludeInactive: utils.ParseBool(c.Query("include_inactive"), true),
		Rarity:          models.Rarity(c.Query("rarity")),
		CriteriaType:    models.CriteriaType(c.Query("criteria_type")),
		Search:          c.Query("search"),
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	return c.JSON(fiber.Map{
		"achievements": achievements,
		"total":        len(achievements),
	})
}

// GetAchievement returns a single achievement
func GetAchievement(c *fiber.Ctx) error {
	id, err := utils.ParseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement ID"})
	}

	achievement, err := catalogService.Get(c.UserContext(), id, true)
	if err != nil {
		return catalogError(c, err, "Failed to fetch achievement")
	}
	return c.JSON(achievement)
}

// CreateAchievement creates a new achievement
func CreateAchievement(c *fiber.Ctx) error {
	var entry services.CatalogEntry
	if err := c.BodyParser(&entry); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	achievement, err := catalogService.Create(c.UserContext(), entry)
	if err != nil {
		return catalogError(c, err, "Failed to create achievement")
	}

	return c.Status(201).JSON(achievement)
}

// UpdateAchievement replaces an existing achievement
func UpdateAchievement(c *fiber.Ctx) error {
	id, err := utils.ParseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement ID"})
	}

	var entry services.CatalogEntry
	if err := c.BodyParser(&entry); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	achievement, err := catalogService.Update(c.UserContext(), id, entry)
	if err != nil {
		return catalogError(c, err, "Failed to update achievement")
	}

	return c.JSON(achievement)
}

// DeleteAchievement deactivates an achievement. Unlock history is kept.
func DeleteAchievement(c *fiber.Ctx) error {
	id, err := utils.ParseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement ID"})
	}

	if err := catalogService.Deactivate(c.UserContext(), id); err != nil {
		return catalogError(c, err, "Failed to delete achievement")
	}

	return c.JSON(fiber.Map{
		"message": "Achievement deactivated successfully",
	})
}

// SeedAchievements loads the built-in sample catalog
func SeedAchievements(c *fiber.Ctx) error {
	report, err := catalogService.Seed(c.UserContext(), services.DefaultCatalog())
	if err != nil {
		return catalogError(c, err, "Failed to seed achievements")
	}
	return c.JSON(report)
}

func catalogError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": fallback})
}
