package router

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/adapter/api/handler"
	"swapspot/internal/adapter/api/middleware"
)

// Setup wires every route group onto the Echo instance.
func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	healthHandler *handler.HealthHandler,
	chatHandler *handler.ChatHandler,
	swapHandler *handler.SwapHandler,
	uploadHandler *handler.UploadHandler,
	wsHandler *handler.WebSocketHandler,
) {
	e.GET("/health", healthHandler.Check)

	setupChatRouter(e, authMiddleware, chatHandler)
	setupSwapRouter(e, authMiddleware, swapHandler)
	setupUploadRouter(e, authMiddleware, uploadHandler)
	setupWebSocketRouter(e, wsHandler)
}
