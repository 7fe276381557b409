// services/achievement_rules.go - read-only guards checked before unlocking
package services

import (
	"context"
	"fmt"

	"gamify/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementRules answers yes/no questions about achievements and pairs.
// None of the predicates write.
type AchievementRules struct {
	db *gorm.DB
}

func NewAchievementRules(db *gorm.DB) *AchievementRules {
	return &AchievementRules{db: db}
}

// WithDB returns rules bound to tx, typically an open transaction.
func (r *AchievementRules) WithDB(tx *gorm.DB) *AchievementRules {
	return &AchievementRules{db: tx}
}

// AchievementExists reports whether an achievement with id exists, active or not.
func (r *AchievementRules) AchievementExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Achievement{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check achievement: %w", err)
	}
	return count > 0, nil
}

// NotAlreadyUnlocked is true when no completed pair exists.
func (r *AchievementRules) NotAlreadyUnlocked(ctx context.Context, userID uint, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND is_completed = ?", userID, id, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check unlock state: %w", err)
	}
	return count == 0, nil
}

// UserEligible: the achievement exists, is active, and the user has not
// unlocked it yet.
func (r *AchievementRules) UserEligible(ctx context.Context, userID uint, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Achievement{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check achievement: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	return r.NotAlreadyUnlocked(ctx, userID, id)
}

// RewardValuesValid requires both rewards to be non-negative.
func (r *AchievementRules) RewardValuesValid(xp, coins int) bool {
	return xp >= 0 && coins >= 0
}

// CriteriaFormatValid checks the criteria type is known and, when the
// required field is present, that it holds a non-negative whole number.
func (r *AchievementRules) CriteriaFormatValid(ct models.CriteriaType, criteria map[string]interface{}) bool {
	key, ok := RequiredKey(ct)
	if !ok {
		return false
	}
	_, err := requiredValue(criteria, key)
	return err == nil
}
