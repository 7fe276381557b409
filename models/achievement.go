// models/achievement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CriteriaType is the category of measurable progress an achievement tracks.
type CriteriaType string

const (
	CriteriaTaskCount   CriteriaType = "task_count"
	CriteriaStreak      CriteriaType = "streak"
	CriteriaLevel       CriteriaType = "level"
	CriteriaFriendCount CriteriaType = "friend_count"
	CriteriaChallenge   CriteriaType = "challenge"
)

// CriteriaTypes lists every known criteria type in declaration order.
var CriteriaTypes = []CriteriaType{
	CriteriaTaskCount,
	CriteriaStreak,
	CriteriaLevel,
	CriteriaFriendCount,
	CriteriaChallenge,
}

func (t CriteriaType) Valid() bool {
	for _, known := range CriteriaTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Rarity is cosmetic only.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

type Achievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex;size:200" json:"name"`
	Description string    `gorm:"type:text" json:"description"`

	// Criteria
	CriteriaType CriteriaType      `gorm:"not null;size:20;default:'task_count';index:idx_achievements_criteria_active,priority:1" json:"criteria_type"`
	Criteria     datatypes.JSONMap `gorm:"not null" json:"criteria"` // e.g. {"required_count": 10, "type": "total"}

	// Rewards
	RewardXP    int `gorm:"not null;default:0" json:"reward_xp"`
	RewardCoins int `gorm:"not null;default:0" json:"reward_coins"`

	Icon     string `json:"icon,omitempty"`
	Rarity   Rarity `gorm:"not null;size:20;default:'common';index" json:"rarity"`
	IsActive bool   `gorm:"not null;index:idx_achievements_criteria_active,priority:2" json:"is_active"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Criteria == nil {
		a.Criteria = datatypes.JSONMap{}
	}
	return nil
}

// CriteriaMap returns the criteria configuration as a plain map, never nil.
func (a *Achievement) CriteriaMap() map[string]interface{} {
	if a.Criteria == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(a.Criteria)
}
