package model

import "time"

// Order status values. Status is derived from the payment outcome once a
// terminal payment state is reached and is never written independently of it.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment status values mirroring the gateway's intent lifecycle. The set is
// closed; anything else arriving over the wire is rejected before mutation.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusCanceled   = "canceled"
)

// Order aggregates a user's purchase: its line items, computed amounts and
// the payment lifecycle state. All monetary fields are integer minor
// currency units (cents); no float arithmetic touches money anywhere.
//
// Fields:
//  ID              – UUID primary key, generated at creation.
//  UserID          – user who placed the order.
//  Status          – order state (pending, preparing, completed, cancelled).
//  PaymentStatus   – payment state (pending, processing, succeeded, failed, canceled).
//  SubtotalCents   – sum of line item qty * unit price.
//  TaxCents        – tax computed from the subtotal.
//  DiscountCents   – reward points discount applied at checkout.
//  TotalCents      – subtotal + tax - discount; equals the gateway intent amount.
//  FulfillmentType – "pickup" or "delivery".
//  DeliveryAddress – delivery address (nullable, delivery only).
//  PickupNote      – free-form pickup note (nullable).
//  PaymentIntentID – gateway intent id once one has been requested (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last modification timestamp.
type Order struct {
	ID              string     `json:"id"`               // orders.id
	UserID          uint64     `json:"user_id"`          // orders.user_id
	Status          string     `json:"status"`           // orders.status
	PaymentStatus   string     `json:"payment_status"`   // orders.payment_status
	SubtotalCents   int64      `json:"subtotal_cents"`   // orders.subtotal_cents
	TaxCents        int64      `json:"tax_cents"`        // orders.tax_cents
	DiscountCents   int64      `json:"discount_cents"`   // orders.discount_cents
	TotalCents      int64      `json:"total_cents"`      // orders.total_cents
	FulfillmentType string     `json:"fulfillment_type"` // orders.fulfillment_type
	DeliveryAddress *string    `json:"delivery_address,omitempty"`
	PickupNote      *string    `json:"pickup_note,omitempty"`
	PaymentIntentID *string    `json:"payment_intent_id,omitempty"`
	Items           []LineItem `json:"items"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LineItem is a single cart line frozen into the order. Items are immutable
// once the order leaves the pending state.
type LineItem struct {
	ItemID         string `json:"item_id"`          // order_items.item_id
	Name           string `json:"name"`             // order_items.name
	Quantity       uint32 `json:"quantity"`         // order_items.quantity
	UnitPriceCents int64  `json:"unit_price_cents"` // order_items.unit_price_cents
}

// IsTerminalPayment reports whether s is a terminal payment state. Terminal
// states accept no further transitions.
func IsTerminalPayment(s string) bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
		return true
	}
	return false
}

// CanTransitionPayment reports whether the payment state machine permits
// moving from one state to another. The machine is monotonic:
// pending -> processing -> {succeeded, failed, canceled}, with processing
// optional. Re-applying the current state is not a legal transition; callers
// treat it as an idempotent no-op instead.
func CanTransitionPayment(from, to string) bool {
	if IsTerminalPayment(from) {
		return false
	}
	switch to {
	case PaymentStatusProcessing:
		return from == PaymentStatusPending
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
		return from == PaymentStatusPending || from == PaymentStatusProcessing
	}
	return false
}

// DeriveOrderStatus maps a terminal payment state to the order status the
// reconciler must write alongside it. Non-terminal states leave the order
// status untouched and the second return is false.
func DeriveOrderStatus(paymentStatus string) (string, bool) {
	switch paymentStatus {
	case PaymentStatusSucceeded:
		return OrderStatusPreparing, true
	case PaymentStatusFailed, PaymentStatusCanceled:
		return OrderStatusCancelled, true
	}
	return "", false
}
