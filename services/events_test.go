package services

import (
	"context"
	"testing"

	"gamify/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherChannel(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	p := NewRedisPublisherFromClient(logger.Nop(), rdb, "gamify:")
	assert.Equal(t, "gamify:achievement.unlocked", p.Channel(TopicAchievementUnlocked))
}

func TestRedisPublisherRejectsBadURL(t *testing.T) {
	_, err := NewRedisPublisher(logger.Nop(), "not a url", "")
	assert.Error(t, err)
}

func TestRedisPublisherUninitialized(t *testing.T) {
	var p *RedisPublisher
	assert.Error(t, p.Publish(context.Background(), TopicAchievementUnlocked, map[string]string{}))
	assert.NoError(t, p.Close())
}

func TestLogPublisherNeverFails(t *testing.T) {
	p := NewLogPublisher(logger.Nop())
	require.NoError(t, p.Publish(context.Background(), TopicAchievementUnlocked, AchievementUnlockedEvent{EventType: EventTypeAchievementUnlocked}))
}
