// services/event_handlers.go - inbound domain events from other services
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gamify/logger"
	"gamify/models"
)

// Event is an inbound domain event, e.g. a TaskCompleted from the task service.
type Event struct {
	Type   string                 `json:"event_type"`
	UserID uint                   `json:"user_id"`
	Data   map[string]interface{} `json:"data"`
}

type EventHandlers struct {
	log          *logger.Logger
	achievements *AchievementService
}

func NewEventHandlers(log *logger.Logger, achievements *AchievementService) *EventHandlers {
	return &EventHandlers{
		log:          log.With("service", "EventHandlers"),
		achievements: achievements,
	}
}

// Dispatch routes an event to its handler. Unknown event types trigger a
// full re-evaluation of every active achievement.
func (h *EventHandlers) Dispatch(ctx context.Context, ev Event) ([]models.UserAchievement, error) {
	if ev.UserID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidEvent)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: event_type is required", ErrInvalidEvent)
	}

	switch ev.Type {
	case EventTaskCompleted:
		return h.HandleTaskCompleted(ctx, ev.UserID, ev.Data)
	case EventStreakMilestone:
		return h.HandleStreakMilestone(ctx, ev.UserID, ev.Data)
	case EventLevelUp:
		return h.HandleLevelUp(ctx, ev.UserID, ev.Data)
	case EventFriendAdded:
		return h.HandleFriendAdded(ctx, ev.UserID, ev.Data)
	case EventChallengeWon:
		return h.HandleChallengeWon(ctx, ev.UserID, ev.Data)
	}

	h.log.Info("unmapped event, re-evaluating all achievements", "event_type", ev.Type, "user_id", ev.UserID)
	return h.run(ctx, ev.UserID, ev.Type, ev.Data)
}

// HandleTaskCompleted: {"task_id", "difficulty", "timestamp", "xp_earned"}
func (h *EventHandlers) HandleTaskCompleted(ctx context.Context, userID uint, data map[string]interface{}) ([]models.UserAchievement, error) {
	info := map[string]interface{}{
		"task_id":    data["task_id"],
		"difficulty": data["difficulty"],
		"timestamp":  data["timestamp"],
		"xp_earned":  intField(data, "xp_earned", 0),
	}
	return h.run(ctx, userID, EventTaskCompleted, info)
}

// HandleStreakMilestone: {"streak_days"}
func (h *EventHandlers) HandleStreakMilestone(ctx context.Context, userID uint, data map[string]interface{}) ([]models.UserAchievement, error) {
	return h.run(ctx, userID, EventStreakMilestone, map[string]interface{}{
		"streak_days": intField(data, "streak_days", 0),
	})
}

// HandleLevelUp: {"old_level", "new_level"}
func (h *EventHandlers) HandleLevelUp(ctx context.Context, userID uint, data map[string]interface{}) ([]models.UserAchievement, error) {
	return h.run(ctx, userID, EventLevelUp, map[string]interface{}{
		"new_level": intField(data, "new_level", 1),
	})
}

// HandleFriendAdded: {"friend_id"}
func (h *EventHandlers) HandleFriendAdded(ctx context.Context, userID uint, data map[string]interface{}) ([]models.UserAchievement, error) {
	return h.run(ctx, userID, EventFriendAdded, map[string]interface{}{
		"friend_id": data["friend_id"],
	})
}

// HandleChallengeWon: {"challenge_id"}
func (h *EventHandlers) HandleChallengeWon(ctx context.Context, userID uint, data map[string]interface{}) ([]models.UserAchievement, error) {
	return h.run(ctx, userID, EventChallengeWon, map[string]interface{}{
		"challenge_id": data["challenge_id"],
	})
}

func (h *EventHandlers) run(ctx context.Context, userID uint, eventType string, data map[string]interface{}) ([]models.UserAchievement, error) {
	h.log.Info("handling event", "event_type", eventType, "user_id", userID)

	unlocked, err := h.achievements.CheckAndUnlockAchievements(ctx, userID, eventType, data)
	if err != nil {
		h.log.Error("event handling failed", "event_type", eventType, "user_id", userID, "error", err)
		return nil, err
	}
	return unlocked, nil
}

// intField reads an integer out of loosely typed event data.
func intField(data map[string]interface{}, key string, def int) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
