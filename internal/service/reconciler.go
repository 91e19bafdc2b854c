package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/queue"
)

// ErrMalformedEvent rejects webhook payloads that verified but cannot be
// interpreted (bad JSON, missing intent id).
var ErrMalformedEvent = errors.New("malformed webhook event")

// Gateway event types the reconciler understands. Anything else is
// acknowledged without effect so the provider stops redelivering it.
const (
	eventIntentSucceeded  = "payment_intent.succeeded"
	eventIntentFailed     = "payment_intent.payment_failed"
	eventIntentCanceled   = "payment_intent.canceled"
	eventIntentProcessing = "payment_intent.processing"
)

// WebhookEvent is the provider's event envelope, reduced to the fields the
// reconciler reads. Metadata echoes back the order id stamped onto the
// intent at creation, used as a cross-check only; the intent id is the
// authoritative join key.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Status           string            `json:"status"`
			PaymentMethod    string            `json:"payment_method"`
			Metadata         map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// Deduper is an optional fast path that remembers processed gateway event
// ids. It is advisory only: the conditional ledger update remains the
// authority on whether a transition happened, so a cold or failing cache
// never threatens correctness.
type Deduper interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

// Reconciler applies asynchronous, at-least-once, possibly out-of-order
// gateway events to the ledger. Every transition goes through a single
// atomic conditional update; side effects fire only when that update
// reports a changed row, which bounds them to at most once per logical
// outcome no matter how often an event is redelivered.
type Reconciler struct {
	orders        OrderStore
	notifications NotificationStore
	rewards       *Rewards
	dispatcher    Dispatcher
	dedupe        Deduper
	secret        string
	tolerance     time.Duration
	now           func() time.Time
}

// NewReconciler constructs a Reconciler. dispatcher and dedupe may be nil;
// both degrade to no-ops.
func NewReconciler(orders OrderStore, notifications NotificationStore, rewards *Rewards, dispatcher Dispatcher, dedupe Deduper, webhookSecret string) *Reconciler {
	if orders == nil || notifications == nil || rewards == nil {
		panic("nil dependency passed to NewReconciler")
	}
	return &Reconciler{
		orders:        orders,
		notifications: notifications,
		rewards:       rewards,
		dispatcher:    dispatcher,
		dedupe:        dedupe,
		secret:        webhookSecret,
		tolerance:     gateway.DefaultTolerance,
		now:           time.Now,
	}
}

// Apply verifies, deduplicates and applies one webhook delivery. A nil
// return means the delivery was handled, including the idempotent no-op
// case where the order already sits in a terminal state. Signature and
// payload failures are the only 4xx-worthy outcomes.
func (s *Reconciler) Apply(ctx context.Context, payload []byte, sigHeader string) error {
	if err := gateway.VerifySignature(payload, sigHeader, s.secret, s.tolerance, s.now()); err != nil {
		return err
	}

	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	intentID := ev.Data.Object.ID
	if intentID == "" {
		return fmt.Errorf("%w: missing intent id", ErrMalformedEvent)
	}

	if s.dedupe != nil && ev.ID != "" && s.dedupe.Seen(ctx, ev.ID) {
		log.Printf("reconciler: event %s already processed, skipping", ev.ID)
		return nil
	}

	// Resolve the order first so an unknown intent is reported as such
	// rather than vanishing into a zero-row update.
	order, err := s.orders.GetByIntentID(ctx, intentID)
	if err != nil {
		return err
	}
	if meta := ev.Data.Object.Metadata["order_id"]; meta != "" && meta != order.ID {
		log.Printf("reconciler: metadata order id %s does not match ledger order %s for intent %s", meta, order.ID, intentID)
	}

	switch ev.Type {
	case eventIntentProcessing:
		changed, err := s.orders.MarkProcessing(ctx, intentID)
		if err != nil {
			return err
		}
		if !changed {
			log.Printf("reconciler: processing event for intent %s was a no-op", intentID)
		}

	case eventIntentSucceeded:
		var pm *string
		if ev.Data.Object.PaymentMethod != "" {
			pm = &ev.Data.Object.PaymentMethod
		}
		changed, err := s.orders.MarkTerminal(ctx, intentID, model.PaymentStatusSucceeded, pm, nil)
		if err != nil {
			return err
		}
		if changed {
			s.onSucceeded(ctx, order)
		}

	case eventIntentFailed:
		msg := "Payment failed"
		if ev.Data.Object.LastPaymentError != nil && ev.Data.Object.LastPaymentError.Message != "" {
			msg = ev.Data.Object.LastPaymentError.Message
		}
		changed, err := s.orders.MarkTerminal(ctx, intentID, model.PaymentStatusFailed, nil, &msg)
		if err != nil {
			return err
		}
		if changed {
			s.onFailed(ctx, order, msg)
		}

	case eventIntentCanceled:
		if _, err := s.orders.MarkTerminal(ctx, intentID, model.PaymentStatusCanceled, nil, nil); err != nil {
			return err
		}

	default:
		log.Printf("reconciler: unhandled event type %s", ev.Type)
	}

	if s.dedupe != nil && ev.ID != "" {
		s.dedupe.Mark(ctx, ev.ID)
	}
	return nil
}

// onSucceeded runs the first-transition side effects: reward accrual and the
// success notification. Failures here are logged, never propagated; the
// payment transition is already durable.
func (s *Reconciler) onSucceeded(ctx context.Context, order *model.Order) {
	if _, err := s.rewards.Award(ctx, order); err != nil {
		log.Printf("reconciler: reward accrual failed for order %s: %v", order.ID, err)
	}
	s.notify(ctx, order.UserID, "Payment Successful",
		"Your payment has been processed successfully. Your order is being prepared!")
}

// onFailed runs the first-transition failure notification.
func (s *Reconciler) onFailed(ctx context.Context, order *model.Order, gatewayMsg string) {
	s.notify(ctx, order.UserID,
		"Payment Failed",
		fmt.Sprintf("Your payment could not be processed: %s. Please try again.", gatewayMsg))
}

func (s *Reconciler) notify(ctx context.Context, userID uint64, title, message string) {
	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    model.NotificationTypeOrder,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("reconciler: failed to record notification for user %d: %v", userID, err)
		return
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, queue.NotificationDispatch{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Title:          n.Title,
			Message:        n.Message,
			Type:           n.Type,
			SentAt:         s.now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("reconciler: notification dispatch failed for user %d: %v", userID, err)
		}
	}
}
