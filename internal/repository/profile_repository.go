package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brewline/order-service/internal/model"
)

// ProfileRepo owns the loyalty point balance. Both mutation paths are
// atomic: awards are deduplicated through a per-order marker row inserted in
// the same transaction as the increment, redemptions run a single
// conditional decrement guarded on the current balance.
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo returns a ProfileRepo bound to the given database.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// GetByUserID loads a profile. ErrProfileNotFound is returned when absent.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	const q = `SELECT user_id, name, email, role, points, created_at, updated_at
	           FROM user_profiles WHERE user_id = ?`
	var p model.Profile
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&p.UserID, &p.Name, &p.Email, &p.Role, &p.Points, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AwardPoints credits points to the user for the given order, at most once
// per order. The point_awards primary key on order_id makes a duplicate
// call a clean no-op: the marker insert fails with a duplicate key, the
// transaction rolls back and the balance is untouched. A missing profile
// surfaces as ErrProfileNotFound so the caller can report accrual failure
// without disturbing the already-committed payment transition.
func (r *ProfileRepo) AwardPoints(ctx context.Context, userID uint64, orderID string, points int64) error {
	if points <= 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const mark = `INSERT INTO point_awards (order_id, user_id, points) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, mark, orderID, userID, points); err != nil {
		if isDuplicateKey(err) {
			// Already awarded for this order.
			return nil
		}
		return err
	}
	const inc = `UPDATE user_profiles SET points = points + ?, updated_at = UTC_TIMESTAMP() WHERE user_id = ?`
	res, err := tx.ExecContext(ctx, inc, points, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RedeemPoints deducts cost from the balance in a single conditional
// update. The points >= cost guard in the WHERE clause is what eliminates
// the check-then-act race: two concurrent redemptions cannot both match
// once the balance drops below the cost.
func (r *ProfileRepo) RedeemPoints(ctx context.Context, userID uint64, cost int64) error {
	const q = `UPDATE user_profiles SET points = points - ?, updated_at = UTC_TIMESTAMP()
	           WHERE user_id = ? AND points >= ?`
	res, err := r.db.ExecContext(ctx, q, cost, userID, cost)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the profile is missing or the balance is short.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = ?)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrProfileNotFound
		}
		return ErrInsufficientPoints
	}
	return nil
}

// GetMerchItem loads a redeemable catalog item.
func (r *ProfileRepo) GetMerchItem(ctx context.Context, merchID uint64) (*model.MerchItem, error) {
	const q = `SELECT id, name, points_cost, in_stock FROM merch_items WHERE id = ?`
	var m model.MerchItem
	err := r.db.QueryRowContext(ctx, q, merchID).Scan(&m.ID, &m.Name, &m.PointsCost, &m.InStock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
