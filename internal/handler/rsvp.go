package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/repository"
	"github.com/brewline/order-service/internal/service"
)

// RSVPHandler exposes seat reservation endpoints. Every mutating response
// carries the updated available_spots so clients can reconcile optimistic
// UI state against the authoritative counter.
type RSVPHandler struct {
	RSVP *service.RSVP
}

// NewRSVPHandler constructs an RSVPHandler.
func NewRSVPHandler(rsvp *service.RSVP) *RSVPHandler {
	if rsvp == nil {
		panic("nil rsvp service passed to NewRSVPHandler")
	}
	return &RSVPHandler{RSVP: rsvp}
}

// ListEvents handles GET /v1/events.
func (h *RSVPHandler) ListEvents(c echo.Context) error {
	events, err := h.RSVP.ListEvents(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// Reserve handles POST /v1/events/:id/reserve.
func (h *RSVPHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := parseEventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	spots, err := h.RSVP.Reserve(c.Request().Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrAlreadyReserved):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already reserved"})
		case errors.Is(err, repository.ErrCapacityExhausted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is full"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"available_spots": spots})
}

// Cancel handles POST /v1/events/:id/cancel for the caller's own
// reservation.
func (h *RSVPHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := parseEventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	spots, err := h.RSVP.Cancel(c.Request().Context(), eventID, userID)
	if err != nil {
		return rsvpCancelError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available_spots": spots})
}

// AdminCancel handles POST /v1/events/:id/admin-cancel. The target user
// comes from the body; the acting user's role comes from the token.
func (h *RSVPHandler) AdminCancel(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := parseEventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	spots, err := h.RSVP.AdminCancel(c.Request().Context(), eventID, body.UserID, getRole(c))
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return rsvpCancelError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available_spots": spots})
}

// rsvpCancelError maps cancellation failures shared by the self-service and
// admin paths. A failed capacity rollback gets its own message so operators
// can spot partial-state situations in logs and support tickets.
func rsvpCancelError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNoReservation):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no reservation found for this event"})
	case errors.Is(err, repository.ErrCapacityUpdateFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update available spots, please try again"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
}

func parseEventID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid event id")
	}
	return id, nil
}
