package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "swapspot/internal/infrastructure/websocket"
	"swapspot/pkg/errors"
	"swapspot/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins before exposing outside the dev cluster
	},
}

func NewWebSocketHandler(wsManager *ws.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
	}
}

// HandleWebSocket upgrades the request and hands the connection to the
// manager. The userId query parameter binds the connection to a user for
// the session; a connection without one stays anonymous and may only ping.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := c.QueryParam("userId")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return response.Error(c, errors.Internal("failed to upgrade connection", err))
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	h.wsManager.Register(client)

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}
