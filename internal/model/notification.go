package model

import "time"

// Notification categories.
const (
	NotificationTypeOrder = "order"
	NotificationTypeEvent = "event"
)

// Notification is a user-facing side-effect record. It carries no invariants
// of its own; the reconciler and RSVP service insert at most one per logical
// state transition.
type Notification struct {
	ID        string    `json:"id"`         // notifications.id (UUID)
	UserID    uint64    `json:"user_id"`    // notifications.user_id
	Title     string    `json:"title"`      // notifications.title
	Message   string    `json:"message"`    // notifications.message
	Type      string    `json:"type"`       // notifications.type
	Read      bool      `json:"read"`       // notifications.read
	CreatedAt time.Time `json:"created_at"` // notifications.created_at
}
