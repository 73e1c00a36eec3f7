package repository

import (
	"context"
	"database/sql"
	"time"

	"runnerDispatch/models"
)

// EarningsRepository manages per-delivery earnings rows.
type EarningsRepository struct {
	db *sql.DB
}

func NewEarningsRepository(db *sql.DB) *EarningsRepository {
	return &EarningsRepository{db: db}
}

// Insert creates the earnings row for a delivered order. The UNIQUE index on
// order_id plus INSERT OR IGNORE makes this exactly-once: a repeated delivery
// submit reports inserted=false instead of duplicating the row.
func (r *EarningsRepository) Insert(ctx context.Context, runnerID, orderID int64, baseFee, tip, bonus float64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO runner_earnings (runner_id, order_id, base_fee, tip, bonus, total) VALUES (?,?,?,?,?,?)`,
		runnerID, orderID, baseFee, tip, bonus, baseFee+tip+bonus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByRunner returns the runner's earnings rows, newest first.
func (r *EarningsRepository) ListByRunner(ctx context.Context, runnerID int64) ([]models.Earnings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, runner_id, order_id, base_fee, tip, bonus, total, created_at FROM runner_earnings WHERE runner_id = ? ORDER BY id DESC`, runnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Earnings
	for rows.Next() {
		var e models.Earnings
		if err := rows.Scan(&e.ID, &e.RunnerID, &e.OrderID, &e.BaseFee, &e.Tip, &e.Bonus, &e.Total, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalForRunner sums the runner's earnings.
func (r *EarningsRepository) TotalForRunner(ctx context.Context, runnerID int64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var total float64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total), 0) FROM runner_earnings WHERE runner_id = ?`, runnerID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
