package repository

import (
	"context"
	"database/sql"
	"time"

	"runnerDispatch/models"
)

// HistoryRepository manages the append-only status audit log. Rows are never
// mutated or deleted.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append records one transition. Failures here are an audit-trail concern,
// never fatal to the transition itself; callers log and move on.
func (r *HistoryRepository) Append(ctx context.Context, orderID int64, status models.OrderStatus, actor, note string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT INTO order_status_history (order_id, status, actor, note) VALUES (?,?,?,?)`,
		orderID, string(status), actor, note)
	return err
}

// ListByOrder returns the audit trail for an order, oldest first.
func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID int64) ([]models.StatusHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, status, actor, note, created_at FROM order_status_history WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.StatusHistory
	for rows.Next() {
		var h models.StatusHistory
		var status string
		if err := rows.Scan(&h.ID, &h.OrderID, &status, &h.Actor, &h.Note, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Status = models.OrderStatus(status)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
