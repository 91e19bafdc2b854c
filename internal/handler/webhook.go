package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/repository"
	"github.com/brewline/order-service/internal/service"
)

// maxWebhookBody bounds how much of a webhook request is read before
// verification.
const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookHandler receives gateway event deliveries. The endpoint must stay
// safe to call repeatedly with the same payload: a duplicate delivery is a
// 200 no-op, never an error.
type WebhookHandler struct {
	Reconciler *service.Reconciler
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(reconciler *service.Reconciler) *WebhookHandler {
	if reconciler == nil {
		panic("nil reconciler passed to NewWebhookHandler")
	}
	return &WebhookHandler{Reconciler: reconciler}
}

// Handle handles POST /v1/webhooks/stripe. The raw body is read before any
// parsing because the signature covers the exact bytes on the wire.
// Responses: 200 on handled (possibly no-op) deliveries, 400 on signature
// or payload validation failure. Unknown intents are acknowledged with 200
// after logging so the provider does not redeliver forever.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")

	if err := h.Reconciler.Apply(c.Request().Context(), body, sig); err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
		case errors.Is(err, service.ErrMalformedEvent):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
		case errors.Is(err, repository.ErrUnknownIntent):
			log.Printf("webhook: event references unknown intent: %v", err)
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		// Transient store failure: non-2xx so the provider redelivers.
		log.Printf("webhook: apply failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
