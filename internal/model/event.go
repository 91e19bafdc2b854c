package model

import "time"

// Event is a finite-capacity happening users can RSVP to. Capacity is fixed
// after creation; AvailableSpots is the only concurrently-mutated counter and
// is touched exclusively through the event repository's conditional updates.
// Invariant: 0 <= AvailableSpots <= Capacity.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – display title.
//  Description    – display description.
//  StartsAt       – when the event begins (UTC).
//  Capacity       – total seats, immutable, positive.
//  AvailableSpots – seats still open.
//  CreatedAt      – creation timestamp.
type Event struct {
	ID             uint64    `json:"id"`              // events.id
	Title          string    `json:"title"`           // events.title
	Description    string    `json:"description"`     // events.description
	StartsAt       time.Time `json:"starts_at"`       // events.starts_at
	Capacity       uint32    `json:"capacity"`        // events.capacity
	AvailableSpots uint32    `json:"available_spots"` // events.available_spots
	CreatedAt      time.Time `json:"created_at"`      // events.created_at
}

// Reservation records one user's claim on one event seat. At most one active
// reservation exists per (event, user) pair, enforced by a unique key.
type Reservation struct {
	ID        uint64    `json:"id"`         // event_rsvps.id
	EventID   uint64    `json:"event_id"`   // event_rsvps.event_id
	UserID    uint64    `json:"user_id"`    // event_rsvps.user_id
	CreatedAt time.Time `json:"created_at"` // event_rsvps.created_at
}
