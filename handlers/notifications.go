// handlers/notifications.go - live notification feed over WebSocket
package handlers

import (
	"time"

	"gamify/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationsUpgrade only lets authenticated WebSocket upgrades through.
// GET /ws/notifications
func NotificationsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	c.Locals("subscriberId", userID)
	return c.Next()
}

// NotificationsSocket subscribes the connection to the user's notifications
// until the client goes away.
var NotificationsSocket = websocket.New(func(conn *websocket.Conn) {
	userID, ok := conn.Locals("subscriberId").(uint)
	if !ok || notificationHub == nil {
		_ = conn.Close()
		return
	}

	if err := conn.WriteJSON(fiber.Map{
		"type":      "connected",
		"user_id":   userID,
		"timestamp": time.Now().UTC(),
	}); err != nil {
		return
	}

	unsubscribe := notificationHub.Subscribe(userID, conn)
	defer unsubscribe()

	log.Info("notification subscriber connected", "user_id", userID)
	for {
		// Inbound messages are ignored; reading detects the disconnect.
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("notification subscriber disconnected", "user_id", userID, "error", err)
			return
		}
	}
})
