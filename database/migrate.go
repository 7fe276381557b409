// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"

	"gamify/logger"
	"gamify/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the service owns.
func RunMigrations(conn *gorm.DB, log *logger.Logger) error {
	log.Info("running database migrations")

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Achievement{},
		&models.UserStatistics{},
		&models.UserAchievement{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := createCoreIndexes(conn); err != nil {
		return err
	}

	log.Info("migrations completed")
	return nil
}

// createCoreIndexes adds the lookups the achievement engine leans on that
// the struct tags do not already declare.
func createCoreIndexes(conn *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",
		"CREATE INDEX IF NOT EXISTS idx_achievements_created ON achievements(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_user_achievements_unlocked ON user_achievements(user_id, unlocked_at)",
	}
	for _, stmt := range statements {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
