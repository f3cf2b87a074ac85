package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"swapspot/internal/usecase"
	"swapspot/pkg/errors"
	"swapspot/pkg/response"
)

type SwapHandler struct {
	swapUseCase *usecase.SwapUseCase
}

func NewSwapHandler(swapUseCase *usecase.SwapUseCase) *SwapHandler {
	return &SwapHandler{
		swapUseCase: swapUseCase,
	}
}

type proposeSwapRequest struct {
	ListingAID  string  `json:"listing_a_id" validate:"required"`
	ListingBID  string  `json:"listing_b_id" validate:"required,nefield=ListingAID"`
	PartialCash float64 `json:"partial_cash" validate:"omitempty,min=0"`
	PickupTime  string  `json:"pickup_time" validate:"required"`
	Note        string  `json:"note,omitempty" validate:"omitempty,max=500"`
}

type completeSwapRequest struct {
	Code string `json:"code" validate:"required,len=8"`
}

func (h *SwapHandler) ProposeSwap(c echo.Context) error {
	var req proposeSwapRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	pickupTime, err := time.Parse(time.RFC3339, req.PickupTime)
	if err != nil {
		return response.Error(c, errors.BadRequest("pickup_time must be RFC 3339", err))
	}

	userID := c.Get("uid").(string)

	output, err := h.swapUseCase.Propose(c.Request().Context(), userID, usecase.ProposeSwapInput{
		ListingAID:  req.ListingAID,
		ListingBID:  req.ListingBID,
		PartialCash: req.PartialCash,
		PickupTime:  pickupTime,
		Note:        req.Note,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, output)
}

func (h *SwapHandler) ListMySwaps(c echo.Context) error {
	userID := c.Get("uid").(string)
	status := c.QueryParam("status")

	swaps, err := h.swapUseCase.ListForUser(c.Request().Context(), userID, status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swaps)
}

func (h *SwapHandler) GetSwap(c echo.Context) error {
	swapID := c.Param("id")
	if swapID == "" {
		return response.Error(c, errors.BadRequest("swap id is required", nil))
	}
	userID := c.Get("uid").(string)

	swap, err := h.swapUseCase.GetSwap(c.Request().Context(), swapID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

func (h *SwapHandler) AcceptSwap(c echo.Context) error {
	swapID := c.Param("id")
	if swapID == "" {
		return response.Error(c, errors.BadRequest("swap id is required", nil))
	}
	userID := c.Get("uid").(string)

	swap, err := h.swapUseCase.AcceptSwap(c.Request().Context(), swapID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

func (h *SwapHandler) RejectSwap(c echo.Context) error {
	swapID := c.Param("id")
	if swapID == "" {
		return response.Error(c, errors.BadRequest("swap id is required", nil))
	}
	userID := c.Get("uid").(string)

	swap, err := h.swapUseCase.RejectSwap(c.Request().Context(), swapID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

// GenerateCode mints the handover code. The code appears only in this
// response, never in swap reads.
func (h *SwapHandler) GenerateCode(c echo.Context) error {
	swapID := c.Param("id")
	if swapID == "" {
		return response.Error(c, errors.BadRequest("swap id is required", nil))
	}
	userID := c.Get("uid").(string)

	swap, code, err := h.swapUseCase.GenerateCode(c.Request().Context(), swapID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"swap": swap,
		"code": code,
	})
}

func (h *SwapHandler) CompleteSwap(c echo.Context) error {
	swapID := c.Param("id")
	if swapID == "" {
		return response.Error(c, errors.BadRequest("swap id is required", nil))
	}

	var req completeSwapRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	swap, err := h.swapUseCase.CompleteSwap(c.Request().Context(), swapID, userID, req.Code)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}
