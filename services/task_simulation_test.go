package services

import (
	"context"
	"testing"

	"gamify/database/dbtest"
	"gamify/logger"
	"gamify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimulationFixture(t *testing.T) (*serviceFixture, *TaskSimulationService) {
	t.Helper()
	f := newServiceFixture(t)
	_, err := NewCatalogService(f.db, logger.Nop()).Seed(context.Background(), DefaultCatalog())
	require.NoError(t, err)
	return f, NewTaskSimulationService(f.db, logger.Nop(), f.svc)
}

func TestSimulateTaskCompletions(t *testing.T) {
	f, sim := newSimulationFixture(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, f.db, "sim")

	result, err := sim.SimulateTaskCompletions(ctx, user.ID, 5, true)
	require.NoError(t, err)
	assert.Equal(t, 5, result.TasksCompleted)
	assert.Equal(t, 5, result.TotalTasksCompleted)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.LongestStreak)
	assert.Equal(t, 250, result.TotalXP)
	assert.Equal(t, 1, result.CurrentLevel)
	assert.Equal(t, "Successfully simulated 5 task completions for sim", result.Message)

	require.Equal(t, 1, result.AchievementsUnlocked)
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, "First Steps", result.UnlockedAchievements[0].Name)
	assert.Equal(t, 100, result.UnlockedAchievements[0].RewardXP)
	assert.NotNil(t, result.UnlockedAchievements[0].UnlockedAt)

	var stats models.UserStatistics
	require.NoError(t, f.db.Where("user_id = ?", user.ID).First(&stats).Error)
	assert.Equal(t, 5, stats.TotalTasksCompleted)
	assert.Equal(t, 250, stats.TotalXP)

	// Second batch crosses the ten-task mark and the streak advances once more.
	result, err = sim.SimulateTaskCompletions(ctx, user.ID, 5, true)
	require.NoError(t, err)
	assert.Equal(t, 10, result.TotalTasksCompleted)
	assert.Equal(t, 2, result.CurrentStreak)
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, "Task Master", result.UnlockedAchievements[0].Name)
}

func TestSimulateTaskCompletionsLevelsUp(t *testing.T) {
	f, sim := newSimulationFixture(t)
	user := dbtest.SeedUser(t, f.db, "grinder")
	dbtest.SeedStatistics(t, f.db, &models.UserStatistics{UserID: user.ID, TotalXP: 980, CurrentStreak: 3, LongestStreak: 9})

	result, err := sim.SimulateTaskCompletions(context.Background(), user.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1030, result.TotalXP)
	assert.Equal(t, 2, result.CurrentLevel)
	assert.Equal(t, 3, result.CurrentStreak)
	assert.Equal(t, 9, result.LongestStreak)
}

func TestSimulateTaskCompletionsIgnoresOutOfRangeTarget(t *testing.T) {
	f := newServiceFixture(t)
	sim := NewTaskSimulationService(f.db, logger.Nop(), f.svc)
	user := dbtest.SeedUser(t, f.db, "overflow")
	dbtest.SeedAchievement(t, f.db, "Endless", models.CriteriaTaskCount, map[string]interface{}{"required_count": 1e19})

	result, err := sim.SimulateTaskCompletions(context.Background(), user.ID, 1, true)
	require.NoError(t, err)
	assert.Zero(t, result.AchievementsUnlocked)
	assert.Empty(t, result.UnlockedAchievements)

	var unlocked int64
	require.NoError(t, f.db.Model(&models.UserAchievement{}).Where("user_id = ? AND is_completed = ?", user.ID, true).Count(&unlocked).Error)
	assert.Zero(t, unlocked)
}

func TestSimulateTaskCompletionsRejectsBadInput(t *testing.T) {
	f, sim := newSimulationFixture(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, f.db, "bounds")

	for _, count := range []int{0, -1, 101} {
		_, err := sim.SimulateTaskCompletions(ctx, user.ID, count, true)
		assert.ErrorIs(t, err, ErrInvalidCount, "count=%d", count)
		assert.ErrorIs(t, err, ErrValidation, "count=%d", count)
	}

	_, err := sim.SimulateTaskCompletions(ctx, 31337, 1, true)
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.UserStatistics{}).Count(&count).Error)
	assert.Zero(t, count)

	result, err := sim.SimulateTaskCompletions(ctx, user.ID, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 100, result.TotalTasksCompleted)
	assert.Equal(t, 0, result.CurrentStreak)
}

func TestSimulationGetUserStatistics(t *testing.T) {
	f, sim := newSimulationFixture(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, f.db, "quiet")

	stats, err := sim.GetUserStatistics(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["total_tasks_completed"])
	assert.Equal(t, 1, stats["current_level"])

	var count int64
	require.NoError(t, f.db.Model(&models.UserStatistics{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = sim.GetUserStatistics(ctx, 777)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBackfillStatistics(t *testing.T) {
	f := newServiceFixture(t)
	sim := NewTaskSimulationService(f.db, logger.Nop(), f.svc)
	ctx := context.Background()

	alice := dbtest.SeedUser(t, f.db, "alice")
	bob := dbtest.SeedUser(t, f.db, "bob")
	dbtest.SeedStatistics(t, f.db, &models.UserStatistics{UserID: bob.ID, TotalXP: 300, CurrentLevel: 1})

	report, err := sim.BackfillStatistics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, report.Created)
	assert.Empty(t, report.Existing)

	var stats models.UserStatistics
	require.NoError(t, f.db.Where("user_id = ?", alice.ID).First(&stats).Error)
	assert.Equal(t, 1, stats.CurrentLevel)
	assert.Zero(t, stats.TotalXP)

	carol := dbtest.SeedUser(t, f.db, "carol")
	report, err = sim.BackfillStatistics(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{carol.Username}, report.Created)
	assert.Equal(t, []string{"alice", "bob"}, report.Existing)

	// Existing counters are left alone.
	require.NoError(t, f.db.Where("user_id = ?", bob.ID).First(&stats).Error)
	assert.Equal(t, 300, stats.TotalXP)

	_, err = sim.BackfillStatistics(ctx, 31337)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
