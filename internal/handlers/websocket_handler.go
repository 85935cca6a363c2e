package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/friendcircle/backend/internal/realtime"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades authenticated requests into live connections
// held by the hub.
type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) RegisterWebSocketRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect blocks for the lifetime of the connection.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	h.hub.Serve(conn, userID)
	return nil
}
