// services/catalog.go - achievement catalog management
package services

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gamify/logger"
	"gamify/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed catalog/default_achievements.yaml
var defaultCatalogYAML []byte

// CatalogEntry is the editable shape of an achievement, shared by the admin
// API and catalog files.
type CatalogEntry struct {
	Name         string                 `yaml:"name" json:"name"`
	Description  string                 `yaml:"description" json:"description"`
	CriteriaType models.CriteriaType    `yaml:"criteria_type" json:"criteria_type"`
	Criteria     map[string]interface{} `yaml:"criteria" json:"criteria"`
	RewardXP     int                    `yaml:"reward_xp" json:"reward_xp"`
	RewardCoins  int                    `yaml:"reward_coins" json:"reward_coins"`
	Icon         string                 `yaml:"icon" json:"icon"`
	Rarity       models.Rarity          `yaml:"rarity" json:"rarity"`
	IsActive     *bool                  `yaml:"is_active" json:"is_active"`
}

type catalogFile struct {
	Achievements []CatalogEntry `yaml:"achievements"`
}

// LoadCatalog parses a YAML catalog ("achievements:" list).
func LoadCatalog(r io.Reader) ([]CatalogEntry, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return file.Achievements, nil
}

// DefaultCatalog returns the built-in sample achievements.
func DefaultCatalog() []CatalogEntry {
	entries, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic("embedded catalog is invalid: " + err.Error())
	}
	return entries
}

type CatalogFilter struct {
	IncludeInactive bool
	Rarity          models.Rarity
	CriteriaType    models.CriteriaType
	Search          string
}

type SeedReport struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

type CatalogService struct {
	db    *gorm.DB
	log   *logger.Logger
	rules *AchievementRules
}

func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{
		db:    db,
		log:   log.With("service", "CatalogService"),
		rules: NewAchievementRules(db),
	}
}

// List returns achievements in catalog order.
func (s *CatalogService) List(ctx context.Context, filter CatalogFilter) ([]models.Achievement, error) {
	query := s.db.WithContext(ctx).Model(&models.Achievement{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Rarity != "" {
		query = query.Where("rarity = ?", filter.Rarity)
	}
	if filter.CriteriaType != "" {
		query = query.Where("criteria_type = ?", filter.CriteriaType)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var achievements []models.Achievement
	if err := query.Order(catalogOrder).Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Achievement, error) {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var achievement models.Achievement
	if err := query.First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAchievementNotFound, id)
		}
		return nil, fmt.Errorf("load achievement: %w", err)
	}
	return &achievement, nil
}

func (s *CatalogService) Create(ctx context.Context, entry CatalogEntry) (*models.Achievement, error) {
	if err := s.Validate(entry); err != nil {
		return nil, err
	}

	achievement := entry.toModel()
	if err := s.db.WithContext(ctx).Create(achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, entry.Name)
		}
		return nil, fmt.Errorf("create achievement: %w", err)
	}

	s.log.Info("achievement created", "id", achievement.ID, "name", achievement.Name)
	return achievement, nil
}

// Update replaces the editable fields of an achievement.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, entry CatalogEntry) (*models.Achievement, error) {
	if err := s.Validate(entry); err != nil {
		return nil, err
	}

	achievement, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	updated := entry.toModel()
	updated.ID = achievement.ID
	updated.CreatedAt = achievement.CreatedAt
	if entry.IsActive == nil {
		updated.IsActive = achievement.IsActive
	}

	if err := s.db.WithContext(ctx).Save(updated).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, entry.Name)
		}
		return nil, fmt.Errorf("update achievement: %w", err)
	}

	s.log.Info("achievement updated", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

// Deactivate hides an achievement from evaluation and listings. Unlocked
// pairs are kept.
func (s *CatalogService) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Achievement{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate achievement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAchievementNotFound, id)
	}
	s.log.Info("achievement deactivated", "id", id)
	return nil
}

// Seed creates every entry whose name is not in the catalog yet. Existing
// achievements are left untouched. All entries are validated first.
func (s *CatalogService) Seed(ctx context.Context, entries []CatalogEntry) (*SeedReport, error) {
	for _, entry := range entries {
		if err := s.Validate(entry); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
	}

	report := &SeedReport{Created: []string{}, Skipped: []string{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			var existing int64
			if err := tx.Model(&models.Achievement{}).Where("name = ?", entry.Name).Count(&existing).Error; err != nil {
				return fmt.Errorf("check %s: %w", entry.Name, err)
			}
			if existing > 0 {
				report.Skipped = append(report.Skipped, entry.Name)
				continue
			}
			if err := tx.Create(entry.toModel()).Error; err != nil {
				return fmt.Errorf("create %s: %w", entry.Name, err)
			}
			report.Created = append(report.Created, entry.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("catalog seeded", "created", len(report.Created), "skipped", len(report.Skipped))
	return report, nil
}

// Validate rejects an entry before anything is written.
func (s *CatalogService) Validate(entry CatalogEntry) error {
	if strings.TrimSpace(entry.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAchievement)
	}
	if !entry.CriteriaType.Valid() {
		return fmt.Errorf("%w: unknown criteria_type %q", ErrInvalidAchievement, entry.CriteriaType)
	}
	if entry.Rarity != "" && !entry.Rarity.Valid() {
		return fmt.Errorf("%w: unknown rarity %q", ErrInvalidAchievement, entry.Rarity)
	}
	if !s.rules.RewardValuesValid(entry.RewardXP, entry.RewardCoins) {
		return fmt.Errorf("%w: rewards must not be negative", ErrInvalidAchievement)
	}
	if !s.rules.CriteriaFormatValid(entry.CriteriaType, entry.Criteria) {
		return fmt.Errorf("%w: criteria for %s must hold a non-negative whole number", ErrInvalidAchievement, entry.CriteriaType)
	}
	return nil
}

func (e CatalogEntry) toModel() *models.Achievement {
	rarity := e.Rarity
	if rarity == "" {
		rarity = models.RarityCommon
	}
	active := true
	if e.IsActive != nil {
		active = *e.IsActive
	}
	criteria := datatypes.JSONMap{}
	for k, v := range e.Criteria {
		criteria[k] = v
	}
	return &models.Achievement{
		Name:         strings.TrimSpace(e.Name),
		Description:  e.Description,
		CriteriaType: e.CriteriaType,
		Criteria:     criteria,
		RewardXP:     e.RewardXP,
		RewardCoins:  e.RewardCoins,
		Icon:         e.Icon,
		Rarity:       rarity,
		IsActive:     active,
	}
}
