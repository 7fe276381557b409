package services

import (
	"context"
	"strings"
	"testing"

	"gamify/database/dbtest"
	"gamify/logger"
	"gamify/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	entries := DefaultCatalog()
	require.Len(t, entries, 9)
	assert.Equal(t, "First Steps", entries[0].Name)
	assert.Equal(t, "Level 100", entries[8].Name)

	svc := NewCatalogService(nil, logger.Nop())
	for _, e := range entries {
		assert.NoError(t, svc.Validate(e), e.Name)
	}
}

func TestLoadCatalog(t *testing.T) {
	entries, err := LoadCatalog(strings.NewReader(`
achievements:
  - name: Helper
    criteria_type: friend_count
    criteria: {required_count: 3}
    reward_xp: 10
    is_active: false
`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CriteriaFriendCount, entries[0].CriteriaType)
	require.NotNil(t, entries[0].IsActive)
	assert.False(t, *entries[0].IsActive)

	entries, err = LoadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = LoadCatalog(strings.NewReader("achievements:\n  - name: X\n    bogus: 1\n"))
	assert.Error(t, err)
}

func TestCatalogSeedIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	report, err := svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.Len(t, report.Created, 9)
	assert.Empty(t, report.Skipped)

	report, err = svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Len(t, report.Skipped, 9)

	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&count).Error)
	assert.EqualValues(t, 9, count)
}

func TestCatalogSeedValidatesBeforeWriting(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCatalogService(db, logger.Nop())

	entries := append(DefaultCatalog(), CatalogEntry{Name: "Broken", CriteriaType: "karma"})
	_, err := svc.Seed(context.Background(), entries)
	assert.ErrorIs(t, err, ErrInvalidAchievement)

	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCatalogValidate(t *testing.T) {
	svc := NewCatalogService(nil, logger.Nop())
	valid := CatalogEntry{Name: "Ok", CriteriaType: models.CriteriaLevel, Criteria: map[string]interface{}{"required_level": 5}}
	require.NoError(t, svc.Validate(valid))

	cases := map[string]CatalogEntry{
		"blank name":       {Name: "  ", CriteriaType: models.CriteriaLevel},
		"unknown type":     {Name: "X", CriteriaType: "karma"},
		"unknown rarity":   {Name: "X", CriteriaType: models.CriteriaLevel, Rarity: "mythic"},
		"negative xp":      {Name: "X", CriteriaType: models.CriteriaLevel, RewardXP: -5},
		"negative coins":   {Name: "X", CriteriaType: models.CriteriaLevel, RewardCoins: -5},
		"negative target":  {Name: "X", CriteriaType: models.CriteriaLevel, Criteria: map[string]interface{}{"required_level": -1}},
		"non-number value": {Name: "X", CriteriaType: models.CriteriaStreak, Criteria: map[string]interface{}{"required_days": "week"}},
		"overflow target":  {Name: "X", CriteriaType: models.CriteriaTaskCount, Criteria: map[string]interface{}{"required_count": 1e19}},
	}
	for name, entry := range cases {
		err := svc.Validate(entry)
		assert.ErrorIs(t, err, ErrInvalidAchievement, name)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestCatalogCRUD(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, CatalogEntry{
		Name:         "Social Butterfly",
		Description:  "Add 5 friends",
		CriteriaType: models.CriteriaFriendCount,
		Criteria:     map[string]interface{}{"required_count": 5},
		RewardXP:     200,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, models.RarityCommon, created.Rarity)

	_, err = svc.Create(ctx, CatalogEntry{Name: "Social Butterfly", CriteriaType: models.CriteriaFriendCount})
	assert.ErrorIs(t, err, ErrDuplicateName)

	updated, err := svc.Update(ctx, created.ID, CatalogEntry{
		Name:         "Social Butterfly",
		Description:  "Add 10 friends",
		CriteriaType: models.CriteriaFriendCount,
		Criteria:     map[string]interface{}{"required_count": 10},
		RewardXP:     400,
		Rarity:       models.RarityRare,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 400, updated.RewardXP)
	assert.True(t, updated.IsActive)

	_, err = svc.Update(ctx, uuid.New(), CatalogEntry{Name: "Ghost", CriteriaType: models.CriteriaLevel})
	assert.ErrorIs(t, err, ErrAchievementNotFound)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID, false)
	assert.ErrorIs(t, err, ErrAchievementNotFound)
	got, err := svc.Get(ctx, created.ID, true)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Add 10 friends", got.Description)

	assert.ErrorIs(t, svc.Deactivate(ctx, uuid.New()), ErrAchievementNotFound)
}

func TestCatalogListFilters(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	_, err := svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Achievement{}).Where("name = ?", "Year Legend").Update("is_active", false).Error)

	all, err := svc.List(ctx, CatalogFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 9)

	active, err := svc.List(ctx, CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 8)

	streaks, err := svc.List(ctx, CatalogFilter{CriteriaType: models.CriteriaStreak})
	require.NoError(t, err)
	assert.Len(t, streaks, 2)

	legendary, err := svc.List(ctx, CatalogFilter{IncludeInactive: true, Rarity: models.RarityLegendary})
	require.NoError(t, err)
	assert.Len(t, legendary, 2)

	levels, err := svc.List(ctx, CatalogFilter{Search: "LEVEL"})
	require.NoError(t, err)
	assert.Len(t, levels, 3)
}
