package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/repository"
	"github.com/brewline/order-service/internal/service"
)

// RewardsHandler exposes the profile view and point redemption.
type RewardsHandler struct {
	Rewards *service.Rewards
}

// NewRewardsHandler constructs a RewardsHandler.
func NewRewardsHandler(rewards *service.Rewards) *RewardsHandler {
	if rewards == nil {
		panic("nil rewards service passed to NewRewardsHandler")
	}
	return &RewardsHandler{Rewards: rewards}
}

// Me handles GET /v1/me, returning the authenticated user's profile. The
// client refetches this after each mutation instead of mirroring the point
// balance locally.
func (h *RewardsHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p, err := h.Rewards.Profile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": p})
}

// Redeem handles POST /v1/merch/:id/redeem. Success or
// insufficient-balance is decided by one atomic server-side operation; the
// client never pre-checks the balance.
func (h *RewardsHandler) Redeem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	merchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || merchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid merch id"})
	}
	item, err := h.Rewards.Redeem(c.Request().Context(), userID, merchID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMerchNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "merch item not found"})
		case errors.Is(err, repository.ErrMerchOutOfStock):
			return c.JSON(http.StatusConflict, echo.Map{"error": "item out of stock"})
		case errors.Is(err, repository.ErrInsufficientPoints):
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient points"})
		case errors.Is(err, repository.ErrProfileNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to redeem"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"redeemed":    item.Name,
		"points_cost": item.PointsCost,
	})
}
