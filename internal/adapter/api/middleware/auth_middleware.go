package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"swapspot/internal/infrastructure/firebase"
	"swapspot/internal/usecase"
	"swapspot/pkg/errors"
	"swapspot/pkg/response"
)

type AuthMiddleware struct {
	authClient  *firebase.AuthClient
	userUseCase *usecase.UserUseCase
}

func NewAuthMiddleware(authClient *firebase.AuthClient, userUseCase *usecase.UserUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authClient:  authClient,
		userUseCase: userUseCase,
	}
}

// Authenticate verifies the bearer token, guarantees a local profile mirror
// for the uid, and stores the uid in the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("invalid authorization format", nil))
		}

		uid, err := m.authClient.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, errors.Unauthorized("invalid or expired token", err))
		}

		if _, err := m.userUseCase.EnsureUser(c.Request().Context(), uid); err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", uid)
		return next(c)
	}
}
