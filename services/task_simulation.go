// services/task_simulation.go - drives the task pipeline without a real task service
package services

import (
	"context"
	"errors"
	"fmt"

	"gamify/logger"
	"gamify/metrics"
	"gamify/models"
	"gamify/utils"

	"gorm.io/gorm"
)

const (
	MinSimulatedTasks = 1
	MaxSimulatedTasks = 100

	// XPPerTask is credited for every simulated task.
	XPPerTask = 50
)

type UnlockedAchievement struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Rarity      models.Rarity `json:"rarity"`
	RewardXP    int           `json:"reward_xp"`
	RewardCoins int           `json:"reward_coins"`
	UnlockedAt  *string       `json:"unlocked_at"`
}

type SimulationResult struct {
	TasksCompleted       int                   `json:"tasks_completed"`
	TotalTasksCompleted  int                   `json:"total_tasks_completed"`
	CurrentStreak        int                   `json:"current_streak"`
	LongestStreak        int                   `json:"longest_streak"`
	CurrentLevel         int                   `json:"current_level"`
	TotalXP              int                   `json:"total_xp"`
	AchievementsUnlocked int                   `json:"achievements_unlocked"`
	UnlockedAchievements []UnlockedAchievement `json:"unlocked_achievements"`
	Message              string                `json:"message"`
}

// BackfillReport lists the usernames whose statistics were created and the
// ones that already had a row.
type BackfillReport struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
}

type TaskSimulationService struct {
	db           *gorm.DB
	log          *logger.Logger
	achievements *AchievementService
}

func NewTaskSimulationService(db *gorm.DB, log *logger.Logger, achievements *AchievementService) *TaskSimulationService {
	return &TaskSimulationService{
		db:           db,
		log:          log.With("service", "TaskSimulationService"),
		achievements: achievements,
	}
}

// SimulateTaskCompletions applies count task completions to the user's
// statistics and runs the task-completed pipeline after each one, all in
// one transaction. The streak advances at most once per call.
func (s *TaskSimulationService) SimulateTaskCompletions(ctx context.Context, userID uint, count int, updateStreak bool) (*SimulationResult, error) {
	if count < MinSimulatedTasks || count > MaxSimulatedTasks {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidCount, count)
	}

	s.log.Info("simulating task completions", "user_id", userID, "count", count)

	var (
		user     models.User
		stats    *models.UserStatistics
		unlocked []models.UserAchievement
		effects  []sideEffect
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
			}
			return fmt.Errorf("load user: %w", err)
		}

		var err error
		stats, err = getOrCreateStatistics(tx, userID)
		if err != nil {
			return err
		}

		for i := 0; i < count; i++ {
			stats.TotalTasksCompleted++
			if updateStreak && i == 0 {
				stats.AdvanceStreak()
			}
			if stats.AddXP(XPPerTask) {
				s.log.Info("user leveled up", "user_id", userID, "level", stats.CurrentLevel)
			}

			if err := tx.Save(stats).Error; err != nil {
				return fmt.Errorf("save statistics: %w", err)
			}

			batch, fx, err := s.achievements.checkAndUnlockTx(ctx, tx, userID, EventTaskCompleted)
			if err != nil {
				return err
			}
			unlocked = append(unlocked, batch...)
			effects = append(effects, fx...)

			s.log.Debug("simulated task", "user_id", userID, "task", i+1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.achievements.runEffects(effects)
	metrics.RecordSimulatedTasks(count)

	result := &SimulationResult{
		TasksCompleted:       count,
		TotalTasksCompleted:  stats.TotalTasksCompleted,
		CurrentStreak:        stats.CurrentStreak,
		LongestStreak:        stats.LongestStreak,
		CurrentLevel:         stats.CurrentLevel,
		TotalXP:              stats.TotalXP,
		AchievementsUnlocked: len(unlocked),
		UnlockedAchievements: formatUnlocked(unlocked),
		Message:              fmt.Sprintf("Successfully simulated %d task completions for %s", count, user.Username),
	}

	s.log.Info("simulation complete", "user_id", userID, "tasks", count, "unlocked", len(unlocked))
	return result, nil
}

// GetUserStatistics returns the user's counters, or zeroed defaults when the
// user has none yet. It never creates a statistics row.
func (s *TaskSimulationService) GetUserStatistics(ctx context.Context, userID uint) (map[string]int, error) {
	db := s.db.WithContext(ctx)
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	stats, err := readStatistics(db, userID)
	if err != nil {
		return nil, err
	}
	return stats.AsMap(), nil
}

// BackfillStatistics creates missing statistics rows with default values.
// A zero userID covers every user.
func (s *TaskSimulationService) BackfillStatistics(ctx context.Context, userID uint) (*BackfillReport, error) {
	report := &BackfillReport{Created: []string{}, Existing: []string{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		query := tx.Order("id ASC")
		if userID != 0 {
			query = query.Where("id = ?", userID)
		}
		if err := query.Find(&users).Error; err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		if userID != 0 && len(users) == 0 {
			return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}

		for _, user := range users {
			_, created, err := ensureStatistics(tx, user.ID)
			if err != nil {
				return err
			}
			if created {
				report.Created = append(report.Created, user.Username)
			} else {
				report.Existing = append(report.Existing, user.Username)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("statistics backfilled", "created", len(report.Created), "existing", len(report.Existing))
	return report, nil
}

func formatUnlocked(pairs []models.UserAchievement) []UnlockedAchievement {
	out := make([]UnlockedAchievement, 0, len(pairs))
	for _, ua := range pairs {
		if ua.Achievement == nil {
			continue
		}
		out = append(out, UnlockedAchievement{
			ID:          ua.Achievement.ID.String(),
			Name:        ua.Achievement.Name,
			Description: ua.Achievement.Description,
			Rarity:      ua.Achievement.Rarity,
			RewardXP:    ua.Achievement.RewardXP,
			RewardCoins: ua.Achievement.RewardCoins,
			UnlockedAt:  utils.FormatTime(ua.UnlockedAt),
		})
	}
	return out
}
