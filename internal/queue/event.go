// Package queue defines message payloads exchanged over the message broker.
package queue

// DispatchQueueName is the durable queue notification events travel on.
const DispatchQueueName = "notification.dispatch"

// NotificationDispatch is published once per user-facing state transition
// (payment outcome, staff RSVP cancellation). It carries enough for the
// external dispatcher to deliver without querying the primary database.
type NotificationDispatch struct {
	NotificationID string `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	SentAt         string `json:"sent_at"`
}
