// Package dbtest opens throwaway SQLite databases and seeds fixtures for tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"gamify/database"
	"gamify/logger"
	"gamify/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to tb.
func Open(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(db, logger.Nop()); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{Username: username, Password: "pw"}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStatistics(tb testing.TB, db *gorm.DB, stats *models.UserStatistics) *models.UserStatistics {
	tb.Helper()
	if stats.CurrentLevel == 0 {
		stats.CurrentLevel = 1
	}
	if err := db.Create(stats).Error; err != nil {
		tb.Fatalf("seed statistics: %v", err)
	}
	return stats
}

// AchievementOption tweaks a seeded achievement.
type AchievementOption func(*models.Achievement)

func Inactive() AchievementOption {
	return func(a *models.Achievement) { a.IsActive = false }
}

func Rewards(xp, coins int) AchievementOption {
	return func(a *models.Achievement) {
		a.RewardXP = xp
		a.RewardCoins = coins
	}
}

func WithRarity(r models.Rarity) AchievementOption {
	return func(a *models.Achievement) { a.Rarity = r }
}

// CreatedAt pins the catalog position of the seeded achievement.
func CreatedAt(t time.Time) AchievementOption {
	return func(a *models.Achievement) { a.CreatedAt = t }
}

func SeedAchievement(tb testing.TB, db *gorm.DB, name string, ct models.CriteriaType, criteria map[string]interface{}, opts ...AchievementOption) *models.Achievement {
	tb.Helper()
	a := &models.Achievement{
		Name:         name,
		Description:  name + " description",
		CriteriaType: ct,
		Criteria:     datatypes.JSONMap(criteria),
		RewardXP:     100,
		RewardCoins:  10,
		Rarity:       models.RarityCommon,
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed achievement: %v", err)
	}
	return a
}

func SeedUserAchievement(tb testing.TB, db *gorm.DB, ua *models.UserAchievement) *models.UserAchievement {
	tb.Helper()
	if err := db.Create(ua).Error; err != nil {
		tb.Fatalf("seed user achievement: %v", err)
	}
	return ua
}
