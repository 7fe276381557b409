// services/events.go - outbound domain events
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gamify/logger"

	"github.com/redis/go-redis/v9"
)

const (
	TopicAchievementUnlocked = "achievement.unlocked"

	EventTypeAchievementUnlocked = "AchievementUnlocked"
)

// EventPublisher delivers domain events to whoever listens. Delivery is best
// effort; callers log failures and move on.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// AchievementUnlockedEvent is published once per unlock, after commit.
type AchievementUnlockedEvent struct {
	EventType       string    `json:"event_type"`
	UserID          uint      `json:"user_id"`
	AchievementID   string    `json:"achievement_id"`
	AchievementName string    `json:"achievement_name"`
	Rarity          string    `json:"rarity"`
	Rewards         Rewards   `json:"rewards"`
	Timestamp       time.Time `json:"timestamp"`
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("service", "LogPublisher")}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.log.Info("event published", "topic", topic, "payload", payload)
	return nil
}

// RedisPublisher PUBLISHes JSON payloads on "<prefix><topic>" channels.
type RedisPublisher struct {
	log    *logger.Logger
	rdb    *redis.Client
	prefix string
}

// NewRedisPublisher connects to the Redis server at url (redis://...) and
// verifies it with a PING.
func NewRedisPublisher(log *logger.Logger, url, prefix string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisPublisherFromClient(log, rdb, prefix), nil
}

func NewRedisPublisherFromClient(log *logger.Logger, rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{
		log:    log.With("service", "RedisPublisher"),
		rdb:    rdb,
		prefix: prefix,
	}
}

func (p *RedisPublisher) Channel(topic string) string {
	return p.prefix + topic
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(topic), raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Debug("event published", "channel", p.Channel(topic))
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
