package router

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/adapter/api/handler"
	"swapspot/internal/adapter/api/middleware"
)

func setupSwapRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, swapHandler *handler.SwapHandler) {
	swaps := e.Group("/v1/swaps")
	swaps.Use(authMiddleware.Authenticate)

	swaps.POST("", swapHandler.ProposeSwap)
	swaps.GET("/me", swapHandler.ListMySwaps)
	swaps.GET("/:id", swapHandler.GetSwap)
	swaps.POST("/:id/accept", swapHandler.AcceptSwap)
	swaps.POST("/:id/reject", swapHandler.RejectSwap)
	swaps.POST("/:id/generate-code", swapHandler.GenerateCode)
	swaps.POST("/:id/complete", swapHandler.CompleteSwap)
}
