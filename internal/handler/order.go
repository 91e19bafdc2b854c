package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/repository"
	"github.com/brewline/order-service/internal/service"
)

// OrderHandler exposes order creation and retrieval. All methods assume
// JWT authentication has already run; the client sees only the small
// enumerated outcome set, never internal failure detail.
type OrderHandler struct {
	Orchestrator *service.Orchestrator
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orchestrator *service.Orchestrator) *OrderHandler {
	if orchestrator == nil {
		panic("nil orchestrator passed to NewOrderHandler")
	}
	return &OrderHandler{Orchestrator: orchestrator}
}

type createOrderBody struct {
	Items []struct {
		ItemID         string `json:"item_id"`
		Name           string `json:"name"`
		Quantity       uint32 `json:"quantity"`
		UnitPriceCents int64  `json:"unit_price_cents"`
	} `json:"items"`
	FulfillmentType string  `json:"fulfillment_type"`
	DeliveryAddress *string `json:"delivery_address"`
	PickupNote      *string `json:"pickup_note"`
	UsePoints       bool    `json:"use_points"`
}

// Create handles POST /v1/orders. On success it returns 201 with the order
// id and the gateway client secret the app needs to complete payment.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createOrderBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req := service.CreateOrderRequest{
		FulfillmentType: body.FulfillmentType,
		DeliveryAddress: body.DeliveryAddress,
		PickupNote:      body.PickupNote,
		UsePoints:       body.UsePoints,
	}
	for _, it := range body.Items {
		req.Items = append(req.Items, model.LineItem{
			ItemID:         it.ItemID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	res, err := h.Orchestrator.CreateOrder(c.Request().Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientPoints):
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient points"})
		case errors.Is(err, repository.ErrProfileNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment service unavailable, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":      res.Order.ID,
		"total_cents":   res.Order.TotalCents,
		"client_secret": res.ClientSecret,
	})
}

// Get handles GET /v1/orders/:id. Clients refetch here after payment to see
// the authoritative state instead of trusting their optimistic copy.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Orchestrator.GetOrder(c.Request().Context(), orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": o})
}
