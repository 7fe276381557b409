// services/notifications.go - user-facing notifications
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamify/logger"
)

const (
	NotificationTypeAchievement = "achievement"

	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Notification struct {
	UserID    uint                   `json:"user_id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Type      string                 `json:"type"`
	Priority  string                 `json:"priority"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationSender delivers a notification to one user. Best effort.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier only logs.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("service", "LogNotifier")}
}

func (n *LogNotifier) Send(ctx context.Context, note Notification) error {
	n.log.Info("notification", "user_id", note.UserID, "title", note.Title, "type", note.Type)
	return nil
}

// MultiNotifier sends to every sender and joins their errors.
type MultiNotifier []NotificationSender

func (m MultiNotifier) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONWriter is the part of a websocket connection the hub needs.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// NotificationHub pushes notifications to every live connection of a user.
type NotificationHub struct {
	log *logger.Logger

	mu          sync.RWMutex
	subscribers map[uint]map[JSONWriter]*sync.Mutex
}

func NewNotificationHub(log *logger.Logger) *NotificationHub {
	return &NotificationHub{
		log:         log.With("service", "NotificationHub"),
		subscribers: make(map[uint]map[JSONWriter]*sync.Mutex),
	}
}

// Subscribe registers conn for userID and returns the function that removes it.
func (h *NotificationHub) Subscribe(userID uint, conn JSONWriter) func() {
	h.mu.Lock()
	conns, ok := h.subscribers[userID]
	if !ok {
		conns = make(map[JSONWriter]*sync.Mutex)
		h.subscribers[userID] = conns
	}
	conns[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.log.Debug("subscriber added", "user_id", userID)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if conns, ok := h.subscribers[userID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.subscribers, userID)
			}
		}
	}
}

// Subscribers returns the number of live connections for userID.
func (h *NotificationHub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Send writes n to each of the user's connections. A user with no live
// connection is not an error.
func (h *NotificationHub) Send(ctx context.Context, n Notification) error {
	h.mu.RLock()
	targets := make(map[JSONWriter]*sync.Mutex, len(h.subscribers[n.UserID]))
	for conn, lock := range h.subscribers[n.UserID] {
		targets[conn] = lock
	}
	h.mu.RUnlock()

	var errs []error
	for conn, lock := range targets {
		lock.Lock()
		err := conn.WriteJSON(n)
		lock.Unlock()
		if err != nil {
			h.log.Warn("notification write failed", "user_id", n.UserID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
