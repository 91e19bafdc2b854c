// Package service holds the usecase layer: order orchestration, webhook
// reconciliation, capacity reservation and reward accrual. Services depend
// on narrow store interfaces so the repositories can be swapped for fakes in
// tests; the concrete implementations live in internal/repository and carry
// the transactional guarantees each contract demands.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/queue"
)

// ErrValidation rejects malformed input before any mutation happens.
var ErrValidation = errors.New("validation failed")

// OrderStore is the ledger surface for orders and payment intent records.
// MarkProcessing and MarkTerminal must be atomic conditional updates whose
// boolean result reports whether a row actually changed; that result is the
// only thing side effects may be gated on.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	AttachIntent(ctx context.Context, rec *model.PaymentIntentRecord) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*model.Order, error)
	MarkProcessing(ctx context.Context, intentID string) (bool, error)
	MarkTerminal(ctx context.Context, intentID, paymentStatus string, paymentMethod, errorMessage *string) (bool, error)
	MarkGatewayFailure(ctx context.Context, orderID string) error
	CancelStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// EventStore owns the capacity counter mutation path. Reserve and Cancel
// are single transactions; no other component may touch available_spots.
type EventStore interface {
	Reserve(ctx context.Context, eventID, userID uint64) (uint32, error)
	Cancel(ctx context.Context, eventID, userID uint64) (uint32, error)
	GetByID(ctx context.Context, eventID uint64) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
}

// ProfileStore owns the loyalty point balance.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error)
	AwardPoints(ctx context.Context, userID uint64, orderID string, points int64) error
	RedeemPoints(ctx context.Context, userID uint64, cost int64) error
	GetMerchItem(ctx context.Context, merchID uint64) (*model.MerchItem, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string, userID uint64) error
}

// IntentCreator is the outbound gateway boundary.
type IntentCreator interface {
	CreateIntent(ctx context.Context, p gateway.IntentParams) (*gateway.Intent, error)
}

// Dispatcher hands notification events to the external dispatcher. Callers
// invoke it at most once per logical state transition and treat failures as
// log-only; delivery mechanics are out of scope here.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev queue.NotificationDispatch) error
}
