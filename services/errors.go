// services/errors.go - error taxonomy for the achievement engine
package services

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors wrap exactly one of these so callers can
// branch with errors.Is on either level.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrAchievementNotFound = fmt.Errorf("achievement %w", ErrNotFound)
	ErrAlreadyUnlocked     = fmt.Errorf("%w: achievement already unlocked", ErrConflict)
	ErrDuplicateName       = fmt.Errorf("%w: achievement name already exists", ErrConflict)
	ErrInvalidCount        = fmt.Errorf("%w: count must be between %d and %d", ErrValidation, MinSimulatedTasks, MaxSimulatedTasks)
	ErrInvalidCriteria     = fmt.Errorf("%w: invalid criteria configuration", ErrValidation)
	ErrInvalidAchievement  = fmt.Errorf("%w: invalid achievement", ErrValidation)
	ErrInvalidEvent        = fmt.Errorf("%w: invalid event", ErrValidation)
)
