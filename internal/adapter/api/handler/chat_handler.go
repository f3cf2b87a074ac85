package handler

import (
	"github.com/labstack/echo/v4"

	"swapspot/internal/usecase"
	"swapspot/pkg/errors"
	"swapspot/pkg/response"
	"swapspot/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startChatRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type sendMessageRequest struct {
	Content   string `json:"content"`
	Type      string `json:"type" validate:"omitempty,oneof=text listingCard"`
	ListingID string `json:"listing_id,omitempty"`
}

// StartChat opens (or returns) the caller's 1-on-1 chat with another user.
func (h *ChatHandler) StartChat(c echo.Context) error {
	var req startChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, isNew, err := h.chatUseCase.StartDirectChat(c.Request().Context(), userID, req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	if isNew {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) ListChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	chats, total, err := h.chatUseCase.ListChats(c.Request().Context(), userID, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, chats, total, params.Page, params.PageSize)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat id is required", nil))
	}
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.VerifyMembership(c.Request().Context(), chatID, userID); err != nil {
		return response.Error(c, err)
	}

	details, err := h.chatUseCase.GetChatDetails(c.Request().Context(), chatID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, details)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat id is required", nil))
	}
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.ListChatMessages(c.Request().Context(), chatID, userID, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}

// SendMessage posts a message over HTTP. Delivery to live connections uses
// the same pipeline as the socket sendMessage event.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat id is required", nil))
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.PostMessage(c.Request().Context(), chatID, userID, req.Content, req.Type, req.ListingID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) JoinChat(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat id is required", nil))
	}
	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.JoinBuildingChat(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) LeaveChat(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chat id is required", nil))
	}
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.LeaveBuildingChat(c.Request().Context(), chatID, userID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "left"})
}
