package router

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/adapter/api/handler"
	"swapspot/internal/adapter/api/middleware"
)

func setupUploadRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, uploadHandler *handler.UploadHandler) {
	uploads := e.Group("/v1/uploads")
	uploads.Use(authMiddleware.Authenticate)

	uploads.POST("/sign-url", uploadHandler.SignUploadURL)
}
