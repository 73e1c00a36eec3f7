package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"runnerDispatch/internal/feed"
	"runnerDispatch/models"
)

// OrderRepository is the core repository for Order entities. Every committed
// write is published to the change feed so live view sessions can refresh.
type OrderRepository struct {
	db   *sql.DB
	feed *feed.Broker
}

// NewOrderRepository creates a new OrderRepository. broker may be nil when no
// change feed is wanted (e.g., one-shot CLI runs).
func NewOrderRepository(db *sql.DB, broker *feed.Broker) *OrderRepository {
	return &OrderRepository{db: db, feed: broker}
}

const orderColumns = `id, order_number, status, payment_status, runner_id, merchant_id, customer_name, customer_phone, collection_pin, delivery_pin, subtotal, delivery_fee, total_amount, created_at, delivered_at, cancelled_at, cancellation_reason`

// Create inserts a new order. Status defaults to 'pending'; a human-facing
// order number is generated when absent.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentStatusPending
	}
	if o.OrderNumber == "" {
		o.OrderNumber = "CR-" + strings.ToUpper(uuid.NewString()[:8])
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO orders (order_number, status, payment_status, runner_id, merchant_id, customer_name, customer_phone, collection_pin, delivery_pin, subtotal, delivery_fee, total_amount) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, string(o.Status), string(o.PaymentStatus), o.RunnerID, o.MerchantID, o.CustomerName, o.CustomerPhone, o.CollectionPin, o.DeliveryPin, o.Subtotal, o.DeliveryFee, o.TotalAmount)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	o2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o2 == nil {
		return nil, fmt.Errorf("created order not found: id=%d", id)
	}
	r.publish(feed.EventInsert, o2)
	return o2, nil
}

// GetByID fetches an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// AssignRunner is the acceptance write: a single conditional update keyed on
// the unassigned precondition so that exactly one of two racing accepts
// succeeds. Returns the number of rows affected; zero means the order was
// already assigned (or left the accepting statuses) and the caller lost.
func (r *OrderRepository) AssignRunner(ctx context.Context, orderID, runnerID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, runner_id = ? WHERE id = ? AND runner_id IS NULL AND status IN (?, ?)`,
		string(models.OrderStatusReady), runnerID, orderID,
		string(models.OrderStatusPending), string(models.OrderStatusReady))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.publishByID(ctx, feed.EventUpdate, orderID)
	}
	return n, nil
}

// AdvanceStatus moves an order owned by the given runner from one status to
// the next, conditionally. Zero rows affected means the precondition no
// longer holds (wrong owner, wrong status, or a concurrent write won).
func (r *OrderRepository) AdvanceStatus(ctx context.Context, orderID, runnerID int64, from, to models.OrderStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ? AND runner_id = ? AND status = ?`,
		string(to), orderID, runnerID, string(from))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.publishByID(ctx, feed.EventUpdate, orderID)
	}
	return n, nil
}

// MarkDelivered completes an order: status and delivered_at in one
// conditional write. The in_transit precondition makes a double-submit a
// no-op (zero rows).
func (r *OrderRepository) MarkDelivered(ctx context.Context, orderID, runnerID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, delivered_at = CURRENT_TIMESTAMP WHERE id = ? AND runner_id = ? AND status = ?`,
		string(models.OrderStatusDelivered), orderID, runnerID, string(models.OrderStatusInTransit))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.publishByID(ctx, feed.EventUpdate, orderID)
	}
	return n, nil
}

// Cancel marks a pending order cancelled with a reason. Used by the external
// timeout scheduler; the dashboard only ever observes the resulting event.
func (r *OrderRepository) Cancel(ctx context.Context, orderID int64, reason string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, cancelled_at = CURRENT_TIMESTAMP, cancellation_reason = ? WHERE id = ? AND status = ? AND runner_id IS NULL`,
		string(models.OrderStatusCancelled), reason, orderID, string(models.OrderStatusPending))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.publishByID(ctx, feed.EventUpdate, orderID)
	}
	return n, nil
}

// CountInFlight counts the runner's current orders in {picked_up, in_transit}.
// Checked immediately before assignment for the capacity guard.
func (r *OrderRepository) CountInFlight(ctx context.Context, runnerID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE runner_id = ? AND status IN (?, ?)`,
		runnerID, string(models.OrderStatusPickedUp), string(models.OrderStatusInTransit)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// publishByID loads the row and publishes it; mutations always publish the
// post-write state, never the caller's view of it.
func (r *OrderRepository) publishByID(ctx context.Context, t feed.EventType, orderID int64) {
	if r.feed == nil {
		return
	}
	o, err := r.GetByID(ctx, orderID)
	if err != nil || o == nil {
		return
	}
	r.publish(t, o)
}

func (r *OrderRepository) publish(t feed.EventType, o *models.Order) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(feed.Event{
		Table:          feed.TableOrders,
		Type:           t,
		OrderID:        o.ID,
		Status:         string(o.Status),
		RunnerAssigned: o.RunnerID != nil,
	})
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status, payment string
	var runnerID sql.NullInt64
	var deliveredAt, cancelledAt, cancelReason sql.NullString
	err := row.Scan(&o.ID, &o.OrderNumber, &status, &payment, &runnerID, &o.MerchantID,
		&o.CustomerName, &o.CustomerPhone, &o.CollectionPin, &o.DeliveryPin,
		&o.Subtotal, &o.DeliveryFee, &o.TotalAmount, &o.CreatedAt,
		&deliveredAt, &cancelledAt, &cancelReason)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(payment)
	if runnerID.Valid {
		v := runnerID.Int64
		o.RunnerID = &v
	}
	if deliveredAt.Valid {
		v := deliveredAt.String
		o.DeliveredAt = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.String
		o.CancelledAt = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		o.CancellationReason = &v
	}
	return &o, nil
}

func scanOrderRows(rows *sql.Rows) ([]models.Order, error) {
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
