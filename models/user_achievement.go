// models/user_achievement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ProgressMin = decimal.Zero
	ProgressMax = decimal.NewFromInt(100)
)

// UserAchievement tracks progress and unlock state for one user/achievement pair.
type UserAchievement struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_user_achievement_pair,priority:1;index:idx_user_achievements_user_completed,priority:1" json:"user_id"`
	AchievementID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_pair,priority:2;index:idx_user_achievements_achievement_completed,priority:1" json:"achievement_id"`
	Progress      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"progress"`
	IsCompleted   bool            `gorm:"not null;default:false;index:idx_user_achievements_user_completed,priority:2;index:idx_user_achievements_achievement_completed,priority:2" json:"is_completed"`
	UnlockedAt    *time.Time      `json:"unlocked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Achievement *Achievement `gorm:"foreignKey:AchievementID;references:ID" json:"achievement,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// ClampProgress forces p into [0, 100] with two decimal places.
func ClampProgress(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(ProgressMin) {
		p = ProgressMin
	}
	if p.GreaterThan(ProgressMax) {
		p = ProgressMax
	}
	return p.Round(2)
}

// UpdateProgress stores a clamped progress value. Completed records keep 100.
func (ua *UserAchievement) UpdateProgress(p decimal.Decimal) {
	if ua.IsCompleted {
		return
	}
	ua.Progress = ClampProgress(p)
}

// Complete marks the pair unlocked. It only ever transitions once; calling it
// on a completed record leaves UnlockedAt untouched.
func (ua *UserAchievement) Complete(now time.Time) bool {
	if ua.IsCompleted {
		return false
	}
	ua.IsCompleted = true
	ua.Progress = ProgressMax
	unlockedAt := now
	ua.UnlockedAt = &unlockedAt
	return true
}
