package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brewline/order-service/internal/model"
)

// OrderRepo owns persistence for orders, their line items and the payment
// intent records attached to them. Status-bearing columns are only ever
// written through conditional updates so that concurrent webhook deliveries
// serialize on row-level atomicity rather than application locks.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts a new order together with its line items in one
// transaction. The caller supplies the computed amounts and a generated
// UUID; timestamps default in the database and are read back on load.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
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

	const q = `INSERT INTO orders
	           (id, user_id, status, payment_status, subtotal_cents, tax_cents, discount_cents, total_cents, fulfillment_type, delivery_address, pickup_note)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		o.ID, o.UserID, o.Status, o.PaymentStatus,
		o.SubtotalCents, o.TaxCents, o.DiscountCents, o.TotalCents,
		o.FulfillmentType, o.DeliveryAddress, o.PickupNote,
	); err != nil {
		return err
	}
	if len(o.Items) > 0 {
		query := `INSERT INTO order_items (order_id, item_id, name, quantity, unit_price_cents) VALUES `
		args := make([]interface{}, 0, len(o.Items)*5)
		for i, it := range o.Items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, o.ID, it.ItemID, it.Name, it.Quantity, it.UnitPriceCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AttachIntent records a freshly created gateway intent: it inserts the
// payment record and stamps the intent id onto the order in one
// transaction. The payment record is never deleted afterwards.
func (r *OrderRepo) AttachIntent(ctx context.Context, rec *model.PaymentIntentRecord) error {
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

	const ins = `INSERT INTO stripe_payments
	             (order_id, user_id, stripe_payment_intent_id, amount_cents, currency, status)
	             VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		rec.OrderID, rec.UserID, rec.IntentID, rec.AmountCents, rec.Currency, rec.Status,
	); err != nil {
		return err
	}
	const upd = `UPDATE orders SET payment_intent_id = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, rec.IntentID, rec.OrderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads an order and its line items. It returns ErrOrderNotFound
// when no such order exists.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT id, user_id, status, payment_status, subtotal_cents, tax_cents, discount_cents, total_cents,
	                  fulfillment_type, delivery_address, pickup_note, payment_intent_id, created_at, updated_at
	           FROM orders WHERE id = ?`
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByIntentID resolves an order from the gateway intent id embedded in
// webhook metadata. ErrUnknownIntent is returned when no order carries the
// id, which the reconciler logs without retrying.
func (r *OrderRepo) GetByIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	const q = `SELECT id, user_id, status, payment_status, subtotal_cents, tax_cents, discount_cents, total_cents,
	                  fulfillment_type, delivery_address, pickup_note, payment_intent_id, created_at, updated_at
	           FROM orders WHERE payment_intent_id = ?`
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, q, intentID))
	if errors.Is(err, ErrOrderNotFound) {
		return nil, ErrUnknownIntent
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkProcessing moves the order and its payment record from pending to
// processing. The WHERE clause makes the write a no-op when the order has
// already advanced, so late or duplicated "processing" events cannot move
// the state machine backwards. It reports whether a row actually changed.
func (r *OrderRepo) MarkProcessing(ctx context.Context, intentID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE orders SET payment_status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE payment_intent_id = ? AND payment_status = ?`
	res, err := tx.ExecContext(ctx, q, model.PaymentStatusProcessing, intentID, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	const pq = `UPDATE stripe_payments SET status = ?, updated_at = UTC_TIMESTAMP()
	            WHERE stripe_payment_intent_id = ? AND status = ?`
	if _, err := tx.ExecContext(ctx, pq, model.PaymentStatusProcessing, intentID, model.PaymentStatusPending); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return n > 0, nil
}

// MarkTerminal applies a terminal payment outcome to the order identified by
// the gateway intent id. The single conditional UPDATE excludes rows that
// are already terminal; its RowsAffected result is the one signal side
// effects are gated on, which is what makes duplicate webhook deliveries
// harmless. The derived order status is written in the same statement. The
// payment record is updated alongside with the gateway's payment method and
// error detail when present.
func (r *OrderRepo) MarkTerminal(ctx context.Context, intentID, paymentStatus string, paymentMethod, errorMessage *string) (bool, error) {
	derived, ok := model.DeriveOrderStatus(paymentStatus)
	if !ok {
		return false, fmt.Errorf("mark terminal: %q is not a terminal payment status", paymentStatus)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE orders SET payment_status = ?, status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE payment_intent_id = ? AND payment_status NOT IN (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, paymentStatus, derived, intentID,
		model.PaymentStatusSucceeded, model.PaymentStatusFailed, model.PaymentStatusCanceled)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	const pq = `UPDATE stripe_payments
	            SET status = ?, payment_method = COALESCE(?, payment_method),
	                error_message = COALESCE(?, error_message), updated_at = UTC_TIMESTAMP()
	            WHERE stripe_payment_intent_id = ? AND status NOT IN (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, pq, paymentStatus, paymentMethod, errorMessage, intentID,
		model.PaymentStatusSucceeded, model.PaymentStatusFailed, model.PaymentStatusCanceled); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return n > 0, nil
}

// MarkGatewayFailure moves an order whose intent creation failed outright
// into a terminal cancelled/failed state so it never dangles in pending.
func (r *OrderRepo) MarkGatewayFailure(ctx context.Context, orderID string) error {
	const q = `UPDATE orders SET status = ?, payment_status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND payment_status = ?`
	_, err := r.db.ExecContext(ctx, q,
		model.OrderStatusCancelled, model.PaymentStatusFailed, orderID, model.PaymentStatusPending)
	return err
}

// CancelStale sweeps orders that have sat in pending with no attached
// intent for longer than maxAge, moving them to cancelled/canceled. Orders
// that did obtain an intent are left for the webhook to resolve. It returns
// the number of orders reaped.
func (r *OrderRepo) CancelStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	const q = `UPDATE orders SET status = ?, payment_status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE payment_status = ? AND payment_intent_id IS NULL
	             AND created_at < (UTC_TIMESTAMP() - INTERVAL ? SECOND)`
	res, err := r.db.ExecContext(ctx, q,
		model.OrderStatusCancelled, model.PaymentStatusCanceled,
		model.PaymentStatusPending, int64(maxAge/time.Second))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *OrderRepo) scanOrder(row *sql.Row) (*model.Order, error) {
	var o model.Order
	var addr, note, intent sql.NullString
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus,
		&o.SubtotalCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
		&o.FulfillmentType, &addr, &note, &intent, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if addr.Valid {
		v := addr.String
		o.DeliveryAddress = &v
	}
	if note.Valid {
		v := note.String
		o.PickupNote = &v
	}
	if intent.Valid {
		v := intent.String
		o.PaymentIntentID = &v
	}
	return &o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, o *model.Order) error {
	const q = `SELECT item_id, name, quantity, unit_price_cents FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	o.Items = make([]model.LineItem, 0)
	for rows.Next() {
		var it model.LineItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}
