// services/evaluator.go - dispatches achievements to their criteria validator
package services

import (
	"context"
	"errors"
	"fmt"

	"gamify/logger"
	"gamify/metrics"
	"gamify/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fallback target reported for criteria types that cannot be measured.
const defaultProgressTarget = 100

// AchievementEvaluator maps a criteria type to its validator and runs it.
// Failures never leave the evaluator: a broken achievement definition is
// reported as "not met" with 0% progress.
type AchievementEvaluator struct {
	db         *gorm.DB
	log        *logger.Logger
	validators map[models.CriteriaType]CriteriaValidator
}

func NewAchievementEvaluator(db *gorm.DB, log *logger.Logger, validators map[models.CriteriaType]CriteriaValidator) *AchievementEvaluator {
	if validators == nil {
		validators = DefaultValidators()
	}
	return &AchievementEvaluator{db: db, log: log, validators: validators}
}

// Register adds or replaces the validator for a criteria type.
func (e *AchievementEvaluator) Register(ct models.CriteriaType, v CriteriaValidator) {
	e.validators[ct] = v
}

func (e *AchievementEvaluator) validatorFor(ct models.CriteriaType) (CriteriaValidator, bool) {
	v, ok := e.validators[ct]
	return v, ok && v != nil
}

// EvaluateCriteria reports whether stats satisfy the achievement's criteria.
func (e *AchievementEvaluator) EvaluateCriteria(userID uint, achievement *models.Achievement, stats *models.UserStatistics) (met bool) {
	validator, ok := e.validatorFor(achievement.CriteriaType)
	if !ok {
		e.log.Warn("no validator for criteria type",
			"criteria_type", achievement.CriteriaType, "achievement_id", achievement.ID)
		metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "unregistered")
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("criteria validator panicked",
				"achievement_id", achievement.ID, "user_id", userID, "panic", r)
			metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "panic")
			met = false
		}
	}()

	result, err := validator.Validate(stats, achievement.CriteriaMap())
	if err != nil {
		e.log.Error("error evaluating criteria",
			"achievement_id", achievement.ID, "user_id", userID, "error", err)
		metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "error")
		return false
	}

	e.log.Debug("criteria evaluated",
		"achievement", achievement.Name, "user_id", userID, "met", result)
	return result
}

// CalculateProgress returns the user's progress towards the achievement,
// always within [0, 100].
func (e *AchievementEvaluator) CalculateProgress(userID uint, achievement *models.Achievement, stats *models.UserStatistics) (progress decimal.Decimal) {
	validator, ok := e.validatorFor(achievement.CriteriaType)
	if !ok {
		e.log.Warn("no validator for criteria type",
			"criteria_type", achievement.CriteriaType, "achievement_id", achievement.ID)
		metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "unregistered")
		return models.ProgressMin
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("progress calculation panicked",
				"achievement_id", achievement.ID, "user_id", userID, "panic", r)
			metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "panic")
			progress = models.ProgressMin
		}
	}()

	p, err := validator.CalculateProgress(stats, achievement.CriteriaMap())
	if err != nil {
		e.log.Error("error calculating progress",
			"achievement_id", achievement.ID, "user_id", userID, "error", err)
		metrics.RecordEvaluationFailure(string(achievement.CriteriaType), "error")
		return models.ProgressMin
	}

	p = models.ClampProgress(p)
	e.log.Debug("progress calculated",
		"achievement", achievement.Name, "user_id", userID, "progress", p.StringFixed(2))
	return p
}

// Measure returns the tracked statistic and the target for the achievement.
// Unknown or broken criteria report (0, 100).
func (e *AchievementEvaluator) Measure(achievement *models.Achievement, stats *models.UserStatistics) (current, target int64) {
	validator, ok := e.validatorFor(achievement.CriteriaType)
	if !ok {
		return 0, defaultProgressTarget
	}

	defer func() {
		if r := recover(); r != nil {
			current, target = 0, defaultProgressTarget
		}
	}()

	current, target, err := validator.Measure(stats, achievement.CriteriaMap())
	if err != nil {
		e.log.Warn("cannot measure criteria", "achievement_id", achievement.ID, "error", err)
		return 0, defaultProgressTarget
	}
	return current, target
}

// GetUserStatistics returns the user's counters, or an empty map when the
// user has no statistics row yet. It never creates one.
func (e *AchievementEvaluator) GetUserStatistics(ctx context.Context, userID uint) (map[string]int, error) {
	var stats models.UserStatistics
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e.log.Warn("statistics not found", "user_id", userID)
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	return stats.AsMap(), nil
}
