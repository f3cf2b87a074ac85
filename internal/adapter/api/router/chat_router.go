package router

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/adapter/api/handler"
	"swapspot/internal/adapter/api/middleware"
)

func setupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, chatHandler *handler.ChatHandler) {
	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("/start", chatHandler.StartChat)
	chats.GET("", chatHandler.ListChats)
	chats.GET("/:id", chatHandler.GetChat)
	chats.GET("/:id/messages", chatHandler.ListMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
	chats.POST("/:id/join", chatHandler.JoinChat)
	chats.POST("/:id/leave", chatHandler.LeaveChat)
}
