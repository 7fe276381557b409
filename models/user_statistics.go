// models/user_statistics.go
package models

import "time"

// XPPerLevel is the amount of XP between two consecutive levels.
const XPPerLevel = 1000

// UserStatistics is the per-user aggregate that criteria validators read.
type UserStatistics struct {
	ID     uint `gorm:"primaryKey" json:"-"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	TotalTasksCompleted int `gorm:"not null;default:0" json:"total_tasks_completed"`
	CurrentStreak       int `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak       int `gorm:"not null;default:0" json:"longest_streak"`
	TotalXP             int `gorm:"not null;default:0" json:"total_xp"`
	CurrentLevel        int `gorm:"not null;default:1" json:"current_level"`
	FriendCount         int `gorm:"not null;default:0" json:"friend_count"`
	ChallengesWon       int `gorm:"not null;default:0" json:"challenges_won"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserStatistics) TableName() string {
	return "user_statistics"
}

// NewUserStatistics returns zeroed statistics for a user that has none yet.
func NewUserStatistics(userID uint) *UserStatistics {
	return &UserStatistics{UserID: userID, CurrentLevel: 1}
}

// LevelForXP derives the level from accumulated XP.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return 1 + totalXP/XPPerLevel
}

// AddXP adds xp and raises CurrentLevel when the derived level is higher.
// It reports whether the level went up. The level never goes down.
func (s *UserStatistics) AddXP(xp int) bool {
	s.TotalXP += xp
	if level := LevelForXP(s.TotalXP); level > s.CurrentLevel {
		s.CurrentLevel = level
		return true
	}
	return false
}

// AdvanceStreak bumps the current streak and keeps LongestStreak in sync.
func (s *UserStatistics) AdvanceStreak() {
	s.CurrentStreak++
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
}

// AsMap returns the counters keyed by their wire names.
func (s *UserStatistics) AsMap() map[string]int {
	return map[string]int{
		"total_tasks_completed": s.TotalTasksCompleted,
		"current_streak":        s.CurrentStreak,
		"longest_streak":        s.LongestStreak,
		"total_xp":              s.TotalXP,
		"current_level":         s.CurrentLevel,
		"friend_count":          s.FriendCount,
		"challenges_won":        s.ChallengesWon,
	}
}
