// services/criteria_validators.go - one validator per criteria type
package services

import (
	"encoding/json"
	"fmt"
	"math"

	"gamify/models"

	"github.com/shopspring/decimal"
)

// CriteriaValidator answers "is the criteria met" and "how far along is the
// user" for one criteria type. Implementations are pure.
type CriteriaValidator interface {
	Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error)
	CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error)
	// Measure returns the statistic being tracked and the configured target.
	Measure(stats *models.UserStatistics, criteria map[string]interface{}) (current, required int64, err error)
}

// DefaultValidators returns the registry used in production.
func DefaultValidators() map[models.CriteriaType]CriteriaValidator {
	return map[models.CriteriaType]CriteriaValidator{
		models.CriteriaTaskCount:   TaskCountValidator{},
		models.CriteriaStreak:      StreakValidator{},
		models.CriteriaLevel:       LevelValidator{},
		models.CriteriaFriendCount: FriendCountValidator{},
		models.CriteriaChallenge:   ChallengeValidator{},
	}
}

// RequiredKey names the criteria field that holds the target for each type.
func RequiredKey(ct models.CriteriaType) (string, bool) {
	switch ct {
	case models.CriteriaTaskCount, models.CriteriaFriendCount:
		return "required_count", true
	case models.CriteriaStreak:
		return "required_days", true
	case models.CriteriaLevel:
		return "required_level", true
	case models.CriteriaChallenge:
		return "required_wins", true
	}
	return "", false
}

// TaskCountValidator: {"required_count": 10, "type": "total"}
type TaskCountValidator struct{}

func (TaskCountValidator) Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error) {
	return measure(int64(stats.TotalTasksCompleted), criteria, "required_count")
}

func (v TaskCountValidator) Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	return meets(v, stats, criteria)
}

func (v TaskCountValidator) CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	return progressOf(v, stats, criteria)
}

// StreakValidator: {"required_days": 7, "type": "consecutive_days"}
type StreakValidator struct{}

func (StreakValidator) Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error) {
	return measure(int64(stats.CurrentStreak), criteria, "required_days")
}

func (v StreakValidator) Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	return meets(v, stats, criteria)
}

func (v StreakValidator) CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	return progressOf(v, stats, criteria)
}

// LevelValidator: {"required_level": 10}
type LevelValidator struct{}

func (LevelValidator) Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error) {
	return measure(int64(stats.CurrentLevel), criteria, "required_level")
}

func (v LevelValidator) Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	return meets(v, stats, criteria)
}

func (v LevelValidator) CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	return progressOf(v, stats, criteria)
}

// FriendCountValidator: {"required_count": 5}
type FriendCountValidator struct{}

func (FriendCountValidator) Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error) {
	return measure(int64(stats.FriendCount), criteria, "required_count")
}

func (v FriendCountValidator) Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	return meets(v, stats, criteria)
}

func (v FriendCountValidator) CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	return progressOf(v, stats, criteria)
}

// ChallengeValidator: {"required_wins": 3}
type ChallengeValidator struct{}

func (ChallengeValidator) Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error) {
	return measure(int64(stats.ChallengesWon), criteria, "required_wins")
}

func (v ChallengeValidator) Validate(stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	return meets(v, stats, criteria)
}

func (v ChallengeValidator) CalculateProgress(stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	return progressOf(v, stats, criteria)
}

type measurer interface {
	Measure(stats *models.UserStatistics, criteria map[string]interface{}) (int64, int64, error)
}

func meets(m measurer, stats *models.UserStatistics, criteria map[string]interface{}) (bool, error) {
	current, required, err := m.Measure(stats, criteria)
	if err != nil {
		return false, err
	}
	return current >= required, nil
}

func progressOf(m measurer, stats *models.UserStatistics, criteria map[string]interface{}) (decimal.Decimal, error) {
	current, required, err := m.Measure(stats, criteria)
	if err != nil {
		return decimal.Zero, err
	}
	return ProgressPercent(current, required), nil
}

func measure(current int64, criteria map[string]interface{}, key string) (int64, int64, error) {
	if current < 0 {
		current = 0
	}
	required, err := requiredValue(criteria, key)
	if err != nil {
		return 0, 0, err
	}
	return current, required, nil
}

// ProgressPercent is min(100, 100*current/required) rounded to two places,
// and exactly 100 when nothing is required.
func ProgressPercent(current, required int64) decimal.Decimal {
	if required <= 0 {
		return models.ProgressMax
	}
	if current <= 0 {
		return models.ProgressMin
	}
	p := decimal.NewFromInt(current).Mul(decimal.NewFromInt(100)).DivRound(decimal.NewFromInt(required), 2)
	if p.GreaterThan(models.ProgressMax) {
		return models.ProgressMax
	}
	return p
}

// requiredValue reads a non-negative whole number from criteria. A missing
// key means nothing is required.
func requiredValue(criteria map[string]interface{}, key string) (int64, error) {
	raw, ok := criteria[key]
	if !ok || raw == nil {
		return 0, nil
	}

	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidCriteria, key, v.String())
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidCriteria, key, raw)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s=%v is not a whole number", ErrInvalidCriteria, key, raw)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: %s=%v is negative", ErrInvalidCriteria, key, raw)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%w: %s=%v is out of range", ErrInvalidCriteria, key, raw)
	}
	return int64(f), nil
}
