// Package repository defines sentinel error values shared across the
// repositories. Higher layers compare against them with errors.Is to
// translate storage outcomes into the small enumerated set of responses the
// client is allowed to see. For example, ErrCapacityExhausted maps to a 409
// while ErrCapacityUpdateFailed is surfaced distinctly so operators can
// detect partial-state situations.
package repository

import "errors"

// ErrAlreadyReserved is returned when a user attempts to reserve a spot for
// an event they already hold an active reservation for.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrCapacityExhausted is returned when the conditional decrement of
// available_spots matches no row because the event is full. The attempt is
// terminal; retrying without freed capacity cannot succeed.
var ErrCapacityExhausted = errors.New("capacity exhausted")

// ErrNoReservation is returned by cancellation paths when no active
// reservation exists for the (event, user) pair.
var ErrNoReservation = errors.New("no reservation")

// ErrCapacityUpdateFailed is returned when the capacity increment half of a
// cancellation fails after the reservation delete. The enclosing transaction
// is rolled back so the reservation survives; the distinct sentinel keeps
// the compensation visible instead of reporting a false success.
var ErrCapacityUpdateFailed = errors.New("capacity update failed")

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrOrderNotFound is returned when the referenced order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrUnknownIntent is returned when a webhook event references a gateway
// intent id that no order carries. Logged, never retried automatically.
var ErrUnknownIntent = errors.New("unknown payment intent")

// ErrProfileNotFound is returned when the user profile row is missing.
var ErrProfileNotFound = errors.New("profile not found")

// ErrInsufficientPoints is returned when a redemption's conditional decrement
// matches no row because the balance is below the cost.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrMerchNotFound is returned when the redeemable item does not exist.
var ErrMerchNotFound = errors.New("merch item not found")

// ErrMerchOutOfStock is returned when the redeemable item is not in stock.
var ErrMerchOutOfStock = errors.New("merch item out of stock")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into a 403 response.
var ErrForbidden = errors.New("forbidden")
