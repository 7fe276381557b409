package services

import (
	"context"
	"encoding/json"
	"testing"

	"gamify/database/dbtest"
	"gamify/logger"
	"gamify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRoutesByEventType(t *testing.T) {
	f := newServiceFixture(t)
	h := NewEventHandlers(logger.Nop(), f.svc)
	ctx := context.Background()

	user := dbtest.SeedUser(t, f.db, "events")
	dbtest.SeedStatistics(t, f.db, &models.UserStatistics{UserID: user.ID, TotalTasksCompleted: 1, FriendCount: 1})
	tasks := dbtest.SeedAchievement(t, f.db, "First Steps", models.CriteriaTaskCount, map[string]interface{}{"required_count": 1})
	friends := dbtest.SeedAchievement(t, f.db, "First Friend", models.CriteriaFriendCount, map[string]interface{}{"required_count": 1})

	unlocked, err := h.Dispatch(ctx, Event{Type: EventFriendAdded, UserID: user.ID, Data: map[string]interface{}{"friend_id": 9}})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, friends.ID, unlocked[0].AchievementID)

	unlocked, err = h.Dispatch(ctx, Event{Type: EventTaskCompleted, UserID: user.ID, Data: map[string]interface{}{"xp_earned": "50"}})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, tasks.ID, unlocked[0].AchievementID)
}

func TestDispatchRejectsIncompleteEvents(t *testing.T) {
	f := newServiceFixture(t)
	h := NewEventHandlers(logger.Nop(), f.svc)

	_, err := h.Dispatch(context.Background(), Event{Type: EventLevelUp})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = h.Dispatch(context.Background(), Event{UserID: 1})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = h.Dispatch(context.Background(), Event{Type: EventLevelUp, UserID: 404})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEventDecodesFromJSON(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"event_type":"level_up","user_id":7,"data":{"new_level":3}}`), &ev))
	assert.Equal(t, EventLevelUp, ev.Type)
	assert.EqualValues(t, 7, ev.UserID)
	assert.Equal(t, 3, intField(ev.Data, "new_level", 1))
}

func TestIntField(t *testing.T) {
	data := map[string]interface{}{
		"int":    4,
		"float":  float64(5),
		"number": json.Number("6"),
		"string": "7",
		"junk":   "x",
	}
	assert.Equal(t, 4, intField(data, "int", 0))
	assert.Equal(t, 5, intField(data, "float", 0))
	assert.Equal(t, 6, intField(data, "number", 0))
	assert.Equal(t, 7, intField(data, "string", 0))
	assert.Equal(t, -1, intField(data, "junk", -1))
	assert.Equal(t, 1, intField(data, "missing", 1))
	assert.Equal(t, 1, intField(nil, "missing", 1))
}

func TestCriteriaTypeForEvent(t *testing.T) {
	ct, ok := CriteriaTypeForEvent(EventChallengeWon)
	assert.True(t, ok)
	assert.Equal(t, models.CriteriaChallenge, ct)

	_, ok = CriteriaTypeForEvent("something_else")
	assert.False(t, ok)
}
