package server

import (
	"log/slog"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades an authenticated request into a hub-registered
// connection. AuthRequired has already resolved the token, so the handshake
// carries the identity in locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		auth, ok := conn.Locals(middleware.AuthLocalKey).(models.AuthContext)
		if !ok {
			conn.Close()
			return
		}

		client, err := s.hub.Register(auth.UserID, auth.SessionID, conn)
		if err != nil {
			observability.WebSocketDrops.WithLabelValues("register").Inc()
			middleware.Logger.Warn("websocket registration rejected",
				slog.Uint64("user_id", uint64(auth.UserID)),
				slog.String("error", err.Error()))
			conn.Close()
			return
		}

		go client.WritePump()
		// ReadPump blocks until the peer goes away and unregisters the
		// client on return. websocket.New requires the handler to block
		// for the connection's lifetime.
		client.ReadPump()
	})
}
