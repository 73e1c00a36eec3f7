package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"runnerDispatch/models"
)

// ListAvailable returns unassigned orders a runner could accept:
// status in {pending, ready} with no runner, newest first.
func (r *OrderRepository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status IN (?, ?) AND runner_id IS NULL ORDER BY created_at DESC, id DESC`,
		string(models.OrderStatusPending), string(models.OrderStatusReady))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListActive returns the runner's in-progress orders. An accepted order stays
// 'ready' until collection verification, so 'ready' appears here as well as
// in the available predicate; the runner_id filter keeps the two disjoint.
func (r *OrderRepository) ListActive(ctx context.Context, runnerID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status IN (?, ?, ?) AND runner_id = ? ORDER BY created_at DESC, id DESC`,
		string(models.OrderStatusReady), string(models.OrderStatusPickedUp), string(models.OrderStatusInTransit), runnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListCompleted returns the runner's delivered orders, newest first.
func (r *OrderRepository) ListCompleted(ctx context.Context, runnerID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = ? AND runner_id = ? ORDER BY created_at DESC, id DESC`,
		string(models.OrderStatusDelivered), runnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// GetAddress fetches the delivery address for an order.
func (r *OrderRepository) GetAddress(ctx context.Context, orderID int64) (*models.DeliveryAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var a models.DeliveryAddress
	err := r.db.QueryRowContext(ctx, `SELECT id, order_id, building, room, instructions FROM order_addresses WHERE order_id = ?`, orderID).
		Scan(&a.ID, &a.OrderID, &a.Building, &a.Room, &a.Instructions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// SetAddress inserts the delivery address for an order (seed/ordering flow).
func (r *OrderRepository) SetAddress(ctx context.Context, a *models.DeliveryAddress) error {
	if a == nil {
		return errors.New("address is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO order_addresses (order_id, building, room, instructions) VALUES (?,?,?,?)`,
		a.OrderID, a.Building, a.Room, a.Instructions)
	if err != nil {
		return err
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// GetItems fetches the line items for an order.
func (r *OrderRepository) GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, name, quantity, unit_price, special_request FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &it.UnitPrice, &it.SpecialRequest); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AddItem inserts a line item (seed/ordering flow).
func (r *OrderRepository) AddItem(ctx context.Context, it *models.OrderItem) error {
	if it == nil {
		return errors.New("item is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO order_items (order_id, name, quantity, unit_price, special_request) VALUES (?,?,?,?,?)`,
		it.OrderID, it.Name, it.Quantity, it.UnitPrice, it.SpecialRequest)
	if err != nil {
		return err
	}
	it.ID, _ = res.LastInsertId()
	return nil
}
