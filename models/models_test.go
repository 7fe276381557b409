package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{
		-10:  1,
		0:    1,
		500:  1,
		999:  1,
		1000: 2,
		2999: 3,
		5000: 6,
	}
	for xp, want := range cases {
		assert.Equal(t, want, LevelForXP(xp), "xp=%d", xp)
	}
}

func TestAddXPNeverLowersLevel(t *testing.T) {
	s := NewUserStatistics(1)
	assert.False(t, s.AddXP(999))
	assert.Equal(t, 1, s.CurrentLevel)

	assert.True(t, s.AddXP(1))
	assert.Equal(t, 2, s.CurrentLevel)

	s.CurrentLevel = 7
	assert.False(t, s.AddXP(50))
	assert.Equal(t, 7, s.CurrentLevel)
}

func TestAdvanceStreakTracksLongest(t *testing.T) {
	s := &UserStatistics{CurrentStreak: 2, LongestStreak: 5}
	s.AdvanceStreak()
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)

	s.CurrentStreak = 5
	s.AdvanceStreak()
	assert.Equal(t, 6, s.LongestStreak)
}

func TestCompleteIsOneWay(t *testing.T) {
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ua := &UserAchievement{Progress: decimal.NewFromInt(40)}

	require.True(t, ua.Complete(first))
	assert.True(t, ua.IsCompleted)
	assert.True(t, ua.Progress.Equal(ProgressMax))
	require.NotNil(t, ua.UnlockedAt)
	assert.Equal(t, first, *ua.UnlockedAt)

	assert.False(t, ua.Complete(first.Add(time.Hour)))
	assert.Equal(t, first, *ua.UnlockedAt)
}

func TestUpdateProgressClampsAndSkipsCompleted(t *testing.T) {
	ua := &UserAchievement{}
	ua.UpdateProgress(decimal.NewFromFloat(142.5))
	assert.Equal(t, "100.00", ua.Progress.StringFixed(2))

	ua.UpdateProgress(decimal.NewFromInt(-3))
	assert.Equal(t, "0.00", ua.Progress.StringFixed(2))

	ua.UpdateProgress(decimal.RequireFromString("42.857"))
	assert.Equal(t, "42.86", ua.Progress.StringFixed(2))

	ua.Complete(time.Now())
	ua.UpdateProgress(decimal.NewFromInt(10))
	assert.True(t, ua.Progress.Equal(ProgressMax))
}

func TestCriteriaValidAndRarity(t *testing.T) {
	for _, ct := range CriteriaTypes {
		assert.True(t, ct.Valid(), string(ct))
	}
	assert.False(t, CriteriaType("karma").Valid())
	assert.True(t, RarityLegendary.Valid())
	assert.False(t, Rarity("mythic").Valid())
}

func TestCriteriaMapNeverNil(t *testing.T) {
	a := &Achievement{}
	assert.NotNil(t, a.CriteriaMap())
	assert.Empty(t, a.CriteriaMap())
}
