package models

// Earnings is created exactly once per order, at the moment the order
// reaches 'delivered'. Owned by the runner who delivered it.
type Earnings struct {
	ID        int64   `db:"id" json:"id"`
	RunnerID  int64   `db:"runner_id" json:"runner_id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	BaseFee   float64 `db:"base_fee" json:"base_fee"`
	Tip       float64 `db:"tip" json:"tip"`
	Bonus     float64 `db:"bonus" json:"bonus"`
	Total     float64 `db:"total" json:"total"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}
