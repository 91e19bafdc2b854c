package router

import (
	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/handler"
	"github.com/brewline/order-service/internal/middleware"
)

// Handlers bundles every HTTP handler the router wires up. Keeping them in
// one struct makes the registration call sites in main read as a manifest
// of the API surface.
type Handlers struct {
	Order        *handler.OrderHandler
	Webhook      *handler.WebhookHandler
	RSVP         *handler.RSVPHandler
	Rewards      *handler.RewardsHandler
	Notification *handler.NotificationHandler
}

// RegisterRoutes registers routes that require no authentication: the
// health probe, the public event catalog and the gateway webhook endpoint.
// The webhook authenticates itself through its signature header, never
// through a user token.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/events", h.RSVP.ListEvents)
	e.POST("/v1/webhooks/stripe", h.Webhook.Handle)
}

// RegisterAPI registers authenticated customer endpoints under /v1. Every
// route requires a valid access token and a known role; rateLimit applies
// the shared token bucket and may be a pass-through when rate limiting is
// disabled.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("customer", "admin", "super_admin"),
		rateLimit,
	)

	g.GET("/me", h.Rewards.Me)

	g.POST("/orders", h.Order.Create)
	g.GET("/orders/:id", h.Order.Get)

	g.POST("/events/:id/reserve", h.RSVP.Reserve)
	g.POST("/events/:id/cancel", h.RSVP.Cancel)

	g.POST("/merch/:id/redeem", h.Rewards.Redeem)

	g.GET("/notifications", h.Notification.List)
	g.POST("/notifications/:id/read", h.Notification.MarkRead)

	// Staff-only reservation override. The handler re-checks the role so
	// the rule holds even if this route is ever remounted elsewhere.
	g.POST("/events/:id/admin-cancel", h.RSVP.AdminCancel,
		middleware.RequireRole("admin", "super_admin"))
}
