// services/achievement_service.go - check, unlock and progress for user achievements
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamify/logger"
	"gamify/metrics"
	"gamify/models"
	"gamify/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event types accepted by CheckAndUnlockAchievements.
const (
	EventTaskCompleted   = "task_completed"
	EventStreakMilestone = "streak_milestone"
	EventLevelUp         = "level_up"
	EventFriendAdded     = "friend_added"
	EventChallengeWon    = "challenge_won"
)

var eventCriteria = map[string]models.CriteriaType{
	EventTaskCompleted:   models.CriteriaTaskCount,
	EventStreakMilestone: models.CriteriaStreak,
	EventLevelUp:         models.CriteriaLevel,
	EventFriendAdded:     models.CriteriaFriendCount,
	EventChallengeWon:    models.CriteriaChallenge,
}

// CriteriaTypeForEvent returns the criteria type an event re-evaluates.
// Unknown events map to nothing, meaning every active achievement.
func CriteriaTypeForEvent(eventType string) (models.CriteriaType, bool) {
	ct, ok := eventCriteria[eventType]
	return ct, ok
}

const defaultSideEffectTimeout = 10 * time.Second

// Rewards is what an unlock should credit. Crediting is someone else's job.
type Rewards struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

func RewardsFor(a *models.Achievement) Rewards {
	if a == nil {
		return Rewards{}
	}
	return Rewards{XP: a.RewardXP, Coins: a.RewardCoins}
}

// sideEffect runs after the transaction that queued it has committed.
type sideEffect func(ctx context.Context)

type ServiceOption func(*AchievementService)

// WithSyncDispatch runs post-commit side effects on the calling goroutine.
func WithSyncDispatch() ServiceOption {
	return func(s *AchievementService) {
		s.dispatch = func(f func()) { f() }
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *AchievementService) { s.now = now }
}

func WithSideEffectTimeout(d time.Duration) ServiceOption {
	return func(s *AchievementService) { s.effectTimeout = d }
}

type AchievementService struct {
	db        *gorm.DB
	log       *logger.Logger
	evaluator *AchievementEvaluator
	rules     *AchievementRules
	publisher EventPublisher
	notifier  NotificationSender

	now           func() time.Time
	dispatch      func(func())
	effectTimeout time.Duration
}

func NewAchievementService(db *gorm.DB, log *logger.Logger, evaluator *AchievementEvaluator, publisher EventPublisher, notifier NotificationSender, opts ...ServiceOption) *AchievementService {
	s := &AchievementService{
		db:            db,
		log:           log.With("service", "AchievementService"),
		evaluator:     evaluator,
		rules:         NewAchievementRules(db),
		publisher:     publisher,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
		dispatch:      func(f func()) { go f() },
		effectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AchievementService) Rules() *AchievementRules {
	return s.rules
}

// ================== UNLOCK PIPELINE ==================

// CheckAndUnlockAchievements re-evaluates the achievements relevant to
// eventType in one transaction. Met criteria unlock; everything else gets its
// progress persisted. It returns only the records unlocked by this call.
func (s *AchievementService) CheckAndUnlockAchievements(ctx context.Context, userID uint, eventType string, eventData map[string]interface{}) ([]models.UserAchievement, error) {
	s.log.Info("checking achievements", "user_id", userID, "event_type", eventType)
	s.log.Debug("event data", "user_id", userID, "data", eventData)

	var (
		unlocked []models.UserAchievement
		effects  []sideEffect
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var err error
		unlocked, effects, err = s.checkAndUnlockTx(ctx, tx, userID, eventType)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.runEffects(effects)
	s.log.Info("achievement check finished", "user_id", userID, "unlocked", len(unlocked))
	return unlocked, nil
}

// checkAndUnlockTx is the body of CheckAndUnlockAchievements. It only uses tx
// and returns the side effects for the caller to run after commit.
func (s *AchievementService) checkAndUnlockTx(ctx context.Context, tx *gorm.DB, userID uint, eventType string) ([]models.UserAchievement, []sideEffect, error) {
	stats, err := getOrCreateStatistics(tx, userID)
	if err != nil {
		return nil, nil, err
	}

	achievements, err := s.relevantAchievements(tx, eventType)
	if err != nil {
		return nil, nil, err
	}

	rules := s.rules.WithDB(tx)
	unlocked := make([]models.UserAchievement, 0)
	var effects []sideEffect

	for i := range achievements {
		achievement := &achievements[i]

		open, err := rules.NotAlreadyUnlocked(ctx, userID, achievement.ID)
		if err != nil {
			return nil, nil, err
		}
		if !open {
			s.log.Debug("already unlocked", "user_id", userID, "achievement_id", achievement.ID)
			continue
		}

		if s.evaluator.EvaluateCriteria(userID, achievement, stats) {
			ua, fx, err := s.unlockTx(tx, userID, achievement)
			if err != nil {
				return nil, nil, err
			}
			unlocked = append(unlocked, *ua)
			effects = append(effects, fx...)
			continue
		}

		progress := s.evaluator.CalculateProgress(userID, achievement, stats)
		if err := s.updateProgressTx(tx, userID, achievement.ID, progress); err != nil {
			return nil, nil, err
		}
	}

	return unlocked, effects, nil
}

// UnlockAchievement unlocks one achievement for a user. Guards run in order:
// user exists, achievement exists, not already unlocked.
func (s *AchievementService) UnlockAchievement(ctx context.Context, userID uint, achievementID uuid.UUID) (*models.UserAchievement, error) {
	s.log.Info("unlocking achievement", "user_id", userID, "achievement_id", achievementID)

	var (
		result  *models.UserAchievement
		effects []sideEffect
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}

		var achievement models.Achievement
		if err := tx.First(&achievement, "id = ?", achievementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrAchievementNotFound, achievementID)
			}
			return fmt.Errorf("load achievement: %w", err)
		}

		open, err := s.rules.WithDB(tx).NotAlreadyUnlocked(ctx, userID, achievementID)
		if err != nil {
			return err
		}
		if !open {
			return ErrAlreadyUnlocked
		}

		ua, fx, err := s.unlockTx(tx, userID, &achievement)
		if err != nil {
			return err
		}
		result, effects = ua, fx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.runEffects(effects)
	return result, nil
}

// unlockTx completes the pair inside tx. A pair that is already completed,
// or a concurrent insert of the same pair, is ErrAlreadyUnlocked.
func (s *AchievementService) unlockTx(tx *gorm.DB, userID uint, achievement *models.Achievement) (*models.UserAchievement, []sideEffect, error) {
	now := s.now()

	var ua models.UserAchievement
	err := tx.Where("user_id = ? AND achievement_id = ?", userID, achievement.ID).First(&ua).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ua = models.UserAchievement{UserID: userID, AchievementID: achievement.ID}
		ua.Complete(now)
		if err := tx.Create(&ua).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, nil, ErrAlreadyUnlocked
			}
			return nil, nil, fmt.Errorf("create user achievement: %w", err)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("load user achievement: %w", err)
	default:
		if !ua.Complete(now) {
			return nil, nil, ErrAlreadyUnlocked
		}
		if err := tx.Save(&ua).Error; err != nil {
			return nil, nil, fmt.Errorf("complete user achievement: %w", err)
		}
	}
	ua.Achievement = achievement

	rewards := RewardsFor(achievement)
	s.log.Info("achievement unlocked",
		"user_id", userID, "achievement", achievement.Name, "reward_xp", rewards.XP, "reward_coins", rewards.Coins)

	effects := []sideEffect{
		func(context.Context) { metrics.RecordUnlock(string(achievement.Rarity)) },
		s.publishUnlocked(userID, achievement, rewards, now),
		s.notifyUnlocked(userID, achievement, rewards),
	}
	return &ua, effects, nil
}

// updateProgressTx stores progress on the pair, creating it on first use.
// Completed pairs are never touched.
func (s *AchievementService) updateProgressTx(tx *gorm.DB, userID uint, achievementID uuid.UUID, progress decimal.Decimal) error {
	var ua models.UserAchievement
	err := tx.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&ua).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ua = models.UserAchievement{UserID: userID, AchievementID: achievementID, Progress: models.ProgressMin}
		ua.UpdateProgress(progress)
		if err := tx.Create(&ua).Error; err != nil {
			return fmt.Errorf("create progress record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load progress record: %w", err)
	default:
		if ua.IsCompleted {
			return nil
		}
		previous := ua.Progress
		ua.UpdateProgress(progress)
		if ua.Progress.Equal(previous) {
			return nil
		}
		if err := tx.Model(&ua).Update("progress", ua.Progress).Error; err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	}

	metrics.RecordProgressUpdate()
	return nil
}

// relevantAchievements returns active achievements for the event in catalog order.
func (s *AchievementService) relevantAchievements(tx *gorm.DB, eventType string) ([]models.Achievement, error) {
	query := tx.Where("is_active = ?", true)
	if ct, ok := CriteriaTypeForEvent(eventType); ok {
		query = query.Where("criteria_type = ?", ct)
	}

	var achievements []models.Achievement
	if err := query.Order(catalogOrder).Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	return achievements, nil
}

// ================== SIDE EFFECTS ==================

func (s *AchievementService) publishUnlocked(userID uint, achievement *models.Achievement, rewards Rewards, at time.Time) sideEffect {
	event := AchievementUnlockedEvent{
		EventType:       EventTypeAchievementUnlocked,
		UserID:          userID,
		AchievementID:   achievement.ID.String(),
		AchievementName: achievement.Name,
		Rarity:          string(achievement.Rarity),
		Rewards:         rewards,
		Timestamp:       at,
	}
	return func(ctx context.Context) {
		if s.publisher == nil {
			return
		}
		if err := s.publisher.Publish(ctx, TopicAchievementUnlocked, event); err != nil {
			s.log.Warn("publish achievement event failed", "user_id", userID, "achievement_id", achievement.ID, "error", err)
			metrics.RecordSideEffectFailure("publish")
		}
	}
}

func (s *AchievementService) notifyUnlocked(userID uint, achievement *models.Achievement, rewards Rewards) sideEffect {
	note := Notification{
		UserID:   userID,
		Title:    fmt.Sprintf("Achievement Unlocked: %s!", achievement.Name),
		Body:     achievement.Description,
		Type:     NotificationTypeAchievement,
		Priority: PriorityHigh,
		Data: map[string]interface{}{
			"achievement_id":   achievement.ID.String(),
			"achievement_name": achievement.Name,
			"rarity":           string(achievement.Rarity),
			"reward_xp":        rewards.XP,
			"reward_coins":     rewards.Coins,
		},
	}
	return func(ctx context.Context) {
		if s.notifier == nil {
			return
		}
		note.CreatedAt = s.now()
		if err := s.notifier.Send(ctx, note); err != nil {
			s.log.Warn("achievement notification failed", "user_id", userID, "achievement_id", achievement.ID, "error", err)
			metrics.RecordSideEffectFailure("notify")
		}
	}
}

// runEffects hands committed side effects to the dispatcher. A panicking
// effect is logged and does not stop the others.
func (s *AchievementService) runEffects(effects []sideEffect) {
	if len(effects) == 0 {
		return
	}
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.effectTimeout)
		defer cancel()
		for _, fx := range effects {
			s.runEffect(ctx, fx)
		}
	})
}

func (s *AchievementService) runEffect(ctx context.Context, fx sideEffect) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("side effect panicked", "panic", r)
			metrics.RecordSideEffectFailure("panic")
		}
	}()
	fx(ctx)
}

// ================== QUERIES ==================

// UserAchievementView is one row of a user's achievement list.
type UserAchievementView struct {
	Achievement models.Achievement `json:"achievement"`
	Progress    decimal.Decimal    `json:"progress"`
	IsUnlocked  bool               `json:"is_unlocked"`
	UnlockedAt  *time.Time         `json:"unlocked_at"`
}

// GetUserAchievements lists the user's unlocked achievements, or every
// active achievement with the user's state when includeLocked is set.
func (s *AchievementService) GetUserAchievements(ctx context.Context, userID uint, includeLocked bool) ([]UserAchievementView, error) {
	db := s.db.WithContext(ctx)

	if !includeLocked {
		var pairs []models.UserAchievement
		err := db.Preload("Achievement").
			Where("user_id = ? AND is_completed = ?", userID, true).
			Order("unlocked_at ASC").
			Find(&pairs).Error
		if err != nil {
			return nil, fmt.Errorf("load unlocked achievements: %w", err)
		}

		views := make([]UserAchievementView, 0, len(pairs))
		for _, ua := range pairs {
			if ua.Achievement == nil {
				continue
			}
			views = append(views, UserAchievementView{
				Achievement: *ua.Achievement,
				Progress:    ua.Progress,
				IsUnlocked:  true,
				UnlockedAt:  ua.UnlockedAt,
			})
		}
		return views, nil
	}

	achievements, err := s.activeAchievements(db)
	if err != nil {
		return nil, err
	}
	pairs, err := s.pairsByAchievement(db, userID)
	if err != nil {
		return nil, err
	}

	views := make([]UserAchievementView, 0, len(achievements))
	for _, a := range achievements {
		view := UserAchievementView{Achievement: a, Progress: models.ProgressMin}
		if ua, ok := pairs[a.ID]; ok {
			view.Progress = ua.Progress
			view.IsUnlocked = ua.IsCompleted
			view.UnlockedAt = ua.UnlockedAt
		}
		views = append(views, view)
	}
	return views, nil
}

type AchievementProgress struct {
	AchievementID    string              `json:"achievement_id"`
	AchievementName  string              `json:"achievement_name"`
	CriteriaType     models.CriteriaType `json:"criteria_type"`
	CurrentProgress  decimal.Decimal     `json:"current_progress"`
	RequiredProgress int64               `json:"required_progress"`
	CurrentValue     int64               `json:"current_value"`
	Percentage       decimal.Decimal     `json:"percentage"`
	IsUnlocked       bool                `json:"is_unlocked"`
	CanUnlock        bool                `json:"can_unlock"`
	UnlockedAt       *time.Time          `json:"unlocked_at"`
}

// GetAchievementProgress reports the stored progress for one pair, with the
// target taken from the criteria field that matches the achievement's type.
func (s *AchievementService) GetAchievementProgress(ctx context.Context, userID uint, achievementID uuid.UUID) (*AchievementProgress, error) {
	db := s.db.WithContext(ctx)

	var achievement models.Achievement
	if err := db.First(&achievement, "id = ?", achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAchievementNotFound, achievementID)
		}
		return nil, fmt.Errorf("load achievement: %w", err)
	}

	stats, err := readStatistics(db, userID)
	if err != nil {
		return nil, err
	}
	current, target := s.evaluator.Measure(&achievement, stats)

	result := &AchievementProgress{
		AchievementID:    achievement.ID.String(),
		AchievementName:  achievement.Name,
		CriteriaType:     achievement.CriteriaType,
		CurrentProgress:  models.ProgressMin,
		RequiredProgress: target,
		CurrentValue:     current,
		Percentage:       models.ProgressMin,
	}

	var ua models.UserAchievement
	err = db.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&ua).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load user achievement: %w", err)
	default:
		result.CurrentProgress = ua.Progress
		result.Percentage = ua.Progress
		result.IsUnlocked = ua.IsCompleted
		result.UnlockedAt = ua.UnlockedAt
		if ua.IsCompleted {
			result.CurrentValue = target
		}
	}

	eligible, err := s.rules.WithDB(db).UserEligible(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	result.CanUnlock = eligible && s.evaluator.EvaluateCriteria(userID, &achievement, stats)

	return result, nil
}

// ProgressEntry is one achievement in the all-progress listing.
type ProgressEntry struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Icon         string                 `json:"icon,omitempty"`
	CriteriaType models.CriteriaType    `json:"criteria_type"`
	Criteria     map[string]interface{} `json:"criteria"`
	RewardXP     int                    `json:"reward_xp"`
	RewardCoins  int                    `json:"reward_coins"`
	Rarity       models.Rarity          `json:"rarity"`
	Current      int64                  `json:"current"`
	Target       int64                  `json:"target"`
	Percentage   decimal.Decimal        `json:"percentage"`
	IsUnlocked   bool                   `json:"is_unlocked"`
	UnlockedAt   *string                `json:"unlocked_at"`
}

// CalculateAllProgress computes live progress for every active achievement.
// Unlocked achievements always read 100% with current equal to target.
func (s *AchievementService) CalculateAllProgress(ctx context.Context, userID uint) ([]ProgressEntry, error) {
	db := s.db.WithContext(ctx)

	stats, err := readStatistics(db, userID)
	if err != nil {
		return nil, err
	}
	achievements, err := s.activeAchievements(db)
	if err != nil {
		return nil, err
	}
	pairs, err := s.pairsByAchievement(db, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]ProgressEntry, 0, len(achievements))
	for i := range achievements {
		a := &achievements[i]
		current, target := s.evaluator.Measure(a, stats)

		criteria := make(map[string]interface{}, len(a.Criteria)+1)
		for k, v := range a.CriteriaMap() {
			criteria[k] = v
		}
		criteria["target"] = target

		entry := ProgressEntry{
			ID:           a.ID.String(),
			Name:         a.Name,
			Description:  a.Description,
			Icon:         a.Icon,
			CriteriaType: a.CriteriaType,
			Criteria:     criteria,
			RewardXP:     a.RewardXP,
			RewardCoins:  a.RewardCoins,
			Rarity:       a.Rarity,
			Current:      current,
			Target:       target,
			Percentage:   s.evaluator.CalculateProgress(userID, a, stats),
		}

		if ua, ok := pairs[a.ID]; ok && ua.IsCompleted {
			entry.IsUnlocked = true
			entry.Percentage = models.ProgressMax
			entry.Current = target
			entry.UnlockedAt = utils.FormatTime(ua.UnlockedAt)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ================== HELPERS ==================

const catalogOrder = "created_at ASC, name ASC"

func (s *AchievementService) activeAchievements(db *gorm.DB) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := db.Where("is_active = ?", true).Order(catalogOrder).Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	return achievements, nil
}

func (s *AchievementService) pairsByAchievement(db *gorm.DB, userID uint) (map[uuid.UUID]models.UserAchievement, error) {
	var pairs []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Find(&pairs).Error; err != nil {
		return nil, fmt.Errorf("load user achievements: %w", err)
	}
	byID := make(map[uuid.UUID]models.UserAchievement, len(pairs))
	for _, ua := range pairs {
		byID[ua.AchievementID] = ua
	}
	return byID, nil
}

func requireUser(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return nil
}

func getOrCreateStatistics(tx *gorm.DB, userID uint) (*models.UserStatistics, error) {
	stats, _, err := ensureStatistics(tx, userID)
	return stats, err
}

// ensureStatistics is the only place statistics rows are created.
func ensureStatistics(tx *gorm.DB, userID uint) (*models.UserStatistics, bool, error) {
	var stats models.UserStatistics
	err := tx.Where("user_id = ?", userID).First(&stats).Error
	if err == nil {
		return &stats, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("load statistics: %w", err)
	}

	created := models.NewUserStatistics(userID)
	if err := tx.Create(created).Error; err != nil {
		return nil, false, fmt.Errorf("create statistics: %w", err)
	}
	return created, true, nil
}

// readStatistics returns the stored statistics or in-memory defaults.
func readStatistics(db *gorm.DB, userID uint) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	err := db.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewUserStatistics(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	return &stats, nil
}
