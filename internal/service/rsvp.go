package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/queue"
	"github.com/brewline/order-service/internal/repository"
)

// RSVP manages seat reservations against finite event capacity. All
// capacity arithmetic happens inside the event store's transactions; this
// layer adds the authorization gate for the admin variant and the
// notification side effect.
type RSVP struct {
	rsvpEvents    EventStore
	notifications NotificationStore
	dispatcher    Dispatcher
}

// NewRSVP constructs the reservation service. dispatcher may be nil.
func NewRSVP(events EventStore, notifications NotificationStore, dispatcher Dispatcher) *RSVP {
	if events == nil || notifications == nil {
		panic("nil dependency passed to NewRSVP")
	}
	return &RSVP{rsvpEvents: events, notifications: notifications, dispatcher: dispatcher}
}

// Reserve claims one spot for the user. The store rejects duplicates with
// ErrAlreadyReserved and full events with ErrCapacityExhausted; on success
// the remaining spot count is returned for the client to reconcile its
// optimistic state.
func (s *RSVP) Reserve(ctx context.Context, eventID, userID uint64) (uint32, error) {
	return s.rsvpEvents.Reserve(ctx, eventID, userID)
}

// Cancel releases the caller's own reservation.
func (s *RSVP) Cancel(ctx context.Context, eventID, userID uint64) (uint32, error) {
	return s.rsvpEvents.Cancel(ctx, eventID, userID)
}

// AdminCancel releases another user's reservation. The actor must hold an
// elevated role; the affected user gets a notification distinct from the
// self-service path so they know staff intervened.
func (s *RSVP) AdminCancel(ctx context.Context, eventID, targetUserID uint64, actorRole string) (uint32, error) {
	if actorRole != model.RoleAdmin && actorRole != model.RoleSuperAdmin {
		return 0, repository.ErrForbidden
	}
	spots, err := s.rsvpEvents.Cancel(ctx, eventID, targetUserID)
	if err != nil {
		return 0, err
	}

	ev, evErr := s.rsvpEvents.GetByID(ctx, eventID)
	title := "Reservation Cancelled"
	msg := "Your event reservation was cancelled by staff. Your spot has been released."
	if evErr == nil {
		msg = fmt.Sprintf("Your reservation for %q was cancelled by staff. Your spot has been released.", ev.Title)
	}
	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  targetUserID,
		Title:   title,
		Message: msg,
		Type:    model.NotificationTypeEvent,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		// The cancellation itself committed; notification failures stay local.
		log.Printf("rsvp: failed to record admin-cancel notification for user %d: %v", targetUserID, err)
		return spots, nil
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, queue.NotificationDispatch{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Title:          n.Title,
			Message:        n.Message,
			Type:           n.Type,
			SentAt:         time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("rsvp: admin-cancel dispatch failed for user %d: %v", targetUserID, err)
		}
	}
	return spots, nil
}

// GetEvent loads one event.
func (s *RSVP) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	return s.rsvpEvents.GetByID(ctx, eventID)
}

// ListEvents returns all events for browsing.
func (s *RSVP) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.rsvpEvents.List(ctx)
}
