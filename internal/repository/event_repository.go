package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/brewline/order-service/internal/model"
)

// EventRepo is the only component allowed to mutate events.available_spots.
// The decrement-and-check on reserve and the clamped increment on cancel are
// single conditional UPDATEs executed inside one transaction with the
// reservation row change, so concurrent callers for the same event serialize
// on the row rather than on an application lock.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Reserve claims one spot for the (event, user) pair. It inserts the
// reservation first so the unique key on (event_id, user_id) rejects double
// booking, then decrements available_spots with a guard that only matches
// while spots remain. Zero rows from the guard means the event is full and
// the whole transaction rolls back. On success the remaining spot count is
// returned.
func (r *EventRepo) Reserve(ctx context.Context, eventID, userID uint64) (uint32, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO event_rsvps (event_id, user_id) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, ins, eventID, userID); err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyReserved
		}
		if isForeignKeyViolation(err) {
			return 0, ErrEventNotFound
		}
		return 0, err
	}

	const dec = `UPDATE events SET available_spots = available_spots - 1
	             WHERE id = ? AND available_spots > 0`
	res, err := tx.ExecContext(ctx, dec, eventID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Full, or the event vanished; distinguish before rolling back.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrEventNotFound
		}
		return 0, ErrCapacityExhausted
	}

	spots, err := r.spotsTx(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return spots, nil
}

// Cancel releases the (event, user) reservation: delete the row, then
// increment available_spots clamped to capacity, both in one transaction.
// If the increment fails the transaction rolls back, which restores the
// deleted reservation; the caller sees ErrCapacityUpdateFailed rather than
// a false success, and the system never loses a slot silently.
func (r *EventRepo) Cancel(ctx context.Context, eventID, userID uint64) (uint32, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const del = `DELETE FROM event_rsvps WHERE event_id = ? AND user_id = ?`
	res, err := tx.ExecContext(ctx, del, eventID, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoReservation
	}

	const inc = `UPDATE events SET available_spots = LEAST(available_spots + 1, capacity)
	             WHERE id = ?`
	incRes, err := tx.ExecContext(ctx, inc, eventID)
	if err != nil {
		return 0, ErrCapacityUpdateFailed
	}
	if m, err := incRes.RowsAffected(); err != nil || m == 0 {
		return 0, ErrCapacityUpdateFailed
	}

	spots, err := r.spotsTx(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, ErrCapacityUpdateFailed
	}
	committed = true
	return spots, nil
}

// HasReservation reports whether an active reservation exists for the pair.
func (r *EventRepo) HasReservation(ctx context.Context, eventID, userID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM event_rsvps WHERE event_id = ? AND user_id = ?)`,
		eventID, userID).Scan(&exists)
	return exists, err
}

// GetByID loads a single event. ErrEventNotFound is returned when absent.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*model.Event, error) {
	const q = `SELECT id, title, description, starts_at, capacity, available_spots, created_at
	           FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(
		&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.Capacity, &e.AvailableSpots, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all upcoming events ordered by start time.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, title, description, starts_at, capacity, available_spots, created_at
	           FROM events ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.Capacity, &e.AvailableSpots, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepo) spotsTx(ctx context.Context, tx *sql.Tx, eventID uint64) (uint32, error) {
	var spots uint32
	err := tx.QueryRowContext(ctx, `SELECT available_spots FROM events WHERE id = ?`, eventID).Scan(&spots)
	return spots, err
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a unique key).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isForeignKeyViolation detects MySQL error 1452 (FK constraint fails).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}
