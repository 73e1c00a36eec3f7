package models

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is an independent axis from OrderStatus. It gates acceptance:
// a runner may only accept an order whose payment status is 'paid'.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order represents a customer order as seen by a runner.
// RunnerID is nil while the order is unassigned; assignment is exclusive.
type Order struct {
	ID            int64         `db:"id" json:"id"`
	OrderNumber   string        `db:"order_number" json:"order_number"`
	Status        OrderStatus   `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	RunnerID      *int64        `db:"runner_id" json:"runner_id,omitempty"`
	MerchantID    int64         `db:"merchant_id" json:"merchant_id"`
	CustomerName  string        `db:"customer_name" json:"customer_name"`
	CustomerPhone string        `db:"customer_phone" json:"customer_phone"`
	// Collection/delivery PINs are out-of-band proof of physical handoff.
	// The collection PIN is shown to the merchant; the delivery PIN is
	// entered by the runner and compared against the stored value.
	CollectionPin string  `db:"collection_pin" json:"-"`
	DeliveryPin   string  `db:"delivery_pin" json:"-"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	DeliveryFee   float64 `db:"delivery_fee" json:"delivery_fee"`
	TotalAmount   float64 `db:"total_amount" json:"total_amount"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	// Nullable lifecycle annotations; use pointers to distinguish null vs zero.
	DeliveredAt        *string `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt        *string `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
}

// OrderItem is a priced line item snapshot, immutable from the runner's perspective.
type OrderItem struct {
	ID             int64   `db:"id" json:"id"`
	OrderID        int64   `db:"order_id" json:"order_id"`
	Name           string  `db:"name" json:"name"`
	Quantity       int     `db:"quantity" json:"quantity"`
	UnitPrice      float64 `db:"unit_price" json:"unit_price"`
	SpecialRequest string  `db:"special_request" json:"special_request,omitempty"`
}

// Merchant is the pickup side of an order.
type Merchant struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Phone    string `db:"phone" json:"phone"`
}

// DeliveryAddress is the drop-off side of an order.
type DeliveryAddress struct {
	ID           int64  `db:"id" json:"id"`
	OrderID      int64  `db:"order_id" json:"order_id"`
	Building     string `db:"building" json:"building"`
	Room         string `db:"room" json:"room"`
	Instructions string `db:"instructions" json:"instructions,omitempty"`
}
