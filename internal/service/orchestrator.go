package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/repository"
)

// Tax rate applied to the cart subtotal, in basis points (8.75%).
const taxRateBasisPoints = 875

// pointsDiscountCapBasisPoints caps the reward discount at 20% of the
// subtotal. One point is worth one cent.
const pointsDiscountCapBasisPoints = 2000

// Fulfillment types accepted at order creation.
const (
	FulfillmentPickup   = "pickup"
	FulfillmentDelivery = "delivery"
)

// CreateOrderRequest is the caller-supplied cart snapshot plus fulfillment
// choice. The cart itself belongs to an external collaborator; only the
// frozen line items cross this boundary.
type CreateOrderRequest struct {
	Items           []model.LineItem
	FulfillmentType string
	DeliveryAddress *string
	PickupNote      *string
	UsePoints       bool
}

// CreateOrderResult carries the persisted order and the gateway's
// client-facing secret needed to complete payment.
type CreateOrderResult struct {
	Order        *model.Order
	ClientSecret string
}

// Orchestrator creates orders and requests gateway intents for them. It
// never advances payment state itself; confirmation always arrives through
// the webhook reconciler.
type Orchestrator struct {
	orders   OrderStore
	profiles ProfileStore
	gateway  IntentCreator
	currency string
}

// NewOrchestrator constructs an Orchestrator. All dependencies must be
// non-nil; currency is the ISO code intents are opened in.
func NewOrchestrator(orders OrderStore, profiles ProfileStore, gw IntentCreator, currency string) *Orchestrator {
	if orders == nil || profiles == nil || gw == nil {
		panic("nil dependency passed to NewOrchestrator")
	}
	return &Orchestrator{orders: orders, profiles: profiles, gateway: gw, currency: currency}
}

// CreateOrder validates the cart snapshot, computes the amounts in integer
// cents, persists a pending order and opens a gateway intent for the exact
// total. On a hard gateway failure the order is moved to a terminal
// cancelled/failed state before the error is returned; on a timeout it is
// left pending for the webhook or the reaper to resolve, since the intent
// may or may not exist on the provider side.
func (s *Orchestrator) CreateOrder(ctx context.Context, userID uint64, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var subtotal int64
	for _, it := range req.Items {
		subtotal += int64(it.Quantity) * it.UnitPriceCents
	}
	tax := subtotal * taxRateBasisPoints / 10000

	var discount int64
	if req.UsePoints {
		p, err := s.profiles.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		discount = p.Points
		if limit := subtotal * pointsDiscountCapBasisPoints / 10000; discount > limit {
			discount = limit
		}
		if discount > 0 {
			// Conditional decrement; loses cleanly if a concurrent
			// redemption drained the balance first.
			if err := s.profiles.RedeemPoints(ctx, userID, discount); err != nil {
				return nil, err
			}
		}
	}

	total := subtotal + tax - discount

	order := &model.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		SubtotalCents:   subtotal,
		TaxCents:        tax,
		DiscountCents:   discount,
		TotalCents:      total,
		FulfillmentType: req.FulfillmentType,
		DeliveryAddress: req.DeliveryAddress,
		PickupNote:      req.PickupNote,
		Items:           req.Items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentParams{
		AmountCents: total,
		Currency:    s.currency,
		OrderID:     order.ID,
		UserID:      userID,
		Description: fmt.Sprintf("Order #%s", order.ID),
	})
	if err != nil {
		if gateway.IsTimeout(err) {
			// Unknown outcome: the intent may exist. Leave the order
			// pending; the reaper or a later webhook settles it.
			log.Printf("orchestrator: intent creation timed out for order %s: %v", order.ID, err)
			return nil, fmt.Errorf("%w: %v", gateway.ErrGatewayUnavailable, err)
		}
		log.Printf("orchestrator: intent creation failed for order %s: %v", order.ID, err)
		if mErr := s.orders.MarkGatewayFailure(ctx, order.ID); mErr != nil {
			log.Printf("orchestrator: failed to cancel order %s after gateway failure: %v", order.ID, mErr)
		}
		return nil, err
	}

	rec := &model.PaymentIntentRecord{
		OrderID:     order.ID,
		UserID:      userID,
		IntentID:    intent.ID,
		AmountCents: total,
		Currency:    s.currency,
		Status:      model.PaymentStatusPending,
	}
	if err := s.orders.AttachIntent(ctx, rec); err != nil {
		// The intent exists remotely but is not linked locally; the
		// webhook will log UnknownIntent until an operator reconciles.
		log.Printf("orchestrator: failed to attach intent %s to order %s: %v", intent.ID, order.ID, err)
		return nil, err
	}
	order.PaymentIntentID = &rec.IntentID

	return &CreateOrderResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

// GetOrder loads an order for its owner. Requests for somebody else's order
// report ErrForbidden.
func (s *Orchestrator) GetOrder(ctx context.Context, orderID string, userID uint64) (*model.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrForbidden
	}
	return o, nil
}

// RunReaper periodically cancels orders stuck in pending with no attached
// intent. It blocks until ctx is done and is meant to run in its own
// goroutine from main.
func (s *Orchestrator) RunReaper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.orders.CancelStale(ctx, maxAge)
			if err != nil {
				log.Printf("reaper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reaper: cancelled %d stale pending orders", n)
			}
		}
	}
}

func validateRequest(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for _, it := range req.Items {
		if it.ItemID == "" {
			return fmt.Errorf("%w: item id is required", ErrValidation)
		}
		if it.Quantity == 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		if it.UnitPriceCents <= 0 {
			return fmt.Errorf("%w: unit price must be positive", ErrValidation)
		}
	}
	switch req.FulfillmentType {
	case FulfillmentPickup:
	case FulfillmentDelivery:
		if req.DeliveryAddress == nil || *req.DeliveryAddress == "" {
			return fmt.Errorf("%w: delivery requires an address", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown fulfillment type %q", ErrValidation, req.FulfillmentType)
	}
	return nil
}
