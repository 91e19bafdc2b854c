package model

import "time"

// PaymentIntentRecord mirrors the gateway's view of a charge attempt, one per
// order. Rows are created by the orchestrator when an intent is requested and
// updated only by the webhook reconciler; they are never deleted.
//
// Fields:
//  ID             – primary key identifier.
//  OrderID        – owning order (1:1).
//  UserID         – user the charge belongs to.
//  IntentID       – gateway intent id (unique).
//  AmountCents    – charge amount in minor units; equals the order total at creation.
//  Currency       – ISO currency code, lower case.
//  Status         – gateway lifecycle status (same closed set as Order.PaymentStatus).
//  PaymentMethod  – gateway payment method id once known (nullable).
//  ErrorMessage   – gateway error detail on failure (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type PaymentIntentRecord struct {
	ID            uint64    // stripe_payments.id
	OrderID       string    // stripe_payments.order_id
	UserID        uint64    // stripe_payments.user_id
	IntentID      string    // stripe_payments.stripe_payment_intent_id
	AmountCents   int64     // stripe_payments.amount_cents
	Currency      string    // stripe_payments.currency
	Status        string    // stripe_payments.status
	PaymentMethod *string   // stripe_payments.payment_method (nullable)
	ErrorMessage  *string   // stripe_payments.error_message (nullable)
	CreatedAt     time.Time // stripe_payments.created_at
	UpdatedAt     time.Time // stripe_payments.updated_at
}
