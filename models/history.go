package models

// ActorSystem is recorded when a transition was not performed by a runner.
const ActorSystem = "system"

// StatusHistory is one row of the append-only audit log: a single status
// transition with the actor that performed it. Rows are never mutated.
type StatusHistory struct {
	ID        int64       `db:"id" json:"id"`
	OrderID   int64       `db:"order_id" json:"order_id"`
	Status    OrderStatus `db:"status" json:"status"`
	Actor     string      `db:"actor" json:"actor"`
	Note      string      `db:"note" json:"note"`
	CreatedAt string      `db:"created_at" json:"created_at"`
}
