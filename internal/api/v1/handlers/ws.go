package handlers

import (
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"belajar-todo/internal/websocket"
	"belajar-todo/pkg/logger"
)

// WSHandler meng-upgrade koneksi dan mendaftarkannya ke Hub atas nama user
// yang sudah diautentikasi.
type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// RequireUpgrade menolak request biasa ke endpoint WebSocket.
func (h *WSHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"message": "websocket upgrade required"})
	}
	return c.Next()
}

func (h *WSHandler) Stream() fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		userID, _ := conn.Locals("userID").(int)
		client := &websocket.Client{UserID: userID, Conn: conn}
		if !h.hub.Register(client) {
			conn.Close()
			return
		}
		logger.SystemLogger.Info("WebSocket connected", zap.Int("user_id", userID))
		defer func() {
			h.hub.Unregister(client)
			logger.SystemLogger.Info("WebSocket disconnected", zap.Int("user_id", userID))
		}()

		// Klien tidak mengirim apa-apa; baca hanya untuk mendeteksi close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
