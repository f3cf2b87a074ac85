package router

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/adapter/api/handler"
)

// The socket endpoint carries its own identity handshake via the userId
// query parameter, so it sits outside the bearer-token middleware.
func setupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
