// Package lifecycle enforces the order status state machine: which
// transitions a runner may perform, the assignment and capacity guards, and
// the side effects (audit rows, earnings, notifications) of each step.
package lifecycle

import (
	"context"
	"fmt"
	"log"

	"runnerDispatch/internal/auth"
	"runnerDispatch/internal/notify"
	"runnerDispatch/models"
	"runnerDispatch/repository"
)

// transition defines a valid runner-initiated state change.
type transition struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// validTransitions is the authoritative state machine definition.
// Acceptance (pending/ready -> ready+assigned) is handled separately because
// it changes assignment, not just status. System cancellation is performed by
// an external scheduler and only observed here.
var validTransitions = map[transition]bool{
	{models.OrderStatusReady, models.OrderStatusPickedUp}:      true,
	{models.OrderStatusPickedUp, models.OrderStatusInTransit}:  true,
	{models.OrderStatusInTransit, models.OrderStatusDelivered}: true,
}

// Controller validates and applies order transitions. One instance serves the
// whole process; every operation takes the runner session explicitly.
type Controller struct {
	orders   *repository.OrderRepository
	history  *repository.HistoryRepository
	earnings *repository.EarningsRepository

	notifier  notify.Dispatcher
	baseFee   float64
	maxActive int
}

// NewController wires the controller. notifier may be nil; maxActive <= 0
// falls back to 3.
func NewController(orders *repository.OrderRepository, history *repository.HistoryRepository, earnings *repository.EarningsRepository, notifier notify.Dispatcher, baseFee float64, maxActive int) *Controller {
	if maxActive <= 0 {
		maxActive = 3
	}
	return &Controller{
		orders:    orders,
		history:   history,
		earnings:  earnings,
		notifier:  notifier,
		baseFee:   baseFee,
		maxActive: maxActive,
	}
}

func actorFor(sess *auth.Session) string {
	return fmt.Sprintf("runner:%d", sess.RunnerID)
}

// appendHistory records the audit row. The status write is authoritative; a
// history failure is logged and swallowed.
func (c *Controller) appendHistory(ctx context.Context, orderID int64, status models.OrderStatus, sess *auth.Session, note string) {
	if err := c.history.Append(ctx, orderID, status, actorFor(sess), note); err != nil {
		log.Printf("lifecycle: history append for order %d: %v", orderID, err)
	}
}

func (c *Controller) dispatch(msg notify.Message) {
	if c.notifier != nil {
		c.notifier.Dispatch(msg)
	}
}

// Accept claims an unassigned order for the runner. Guards, in order:
// payment must be 'paid'; the runner must hold fewer than maxActive orders in
// {picked_up, in_transit}; and the assignment write itself is conditional on
// runner_id IS NULL, so of two racing accepts exactly one succeeds and the
// loser sees ALREADY_ASSIGNED. The accepted order stays 'ready' until
// collection verification.
func (c *Controller) Accept(ctx context.Context, sess *auth.Session, orderID int64) (*models.Order, error) {
	ord, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.RunnerID != nil {
		return nil, reject(ReasonAlreadyAssigned, "order has already been accepted by another runner")
	}
	if ord.Status != models.OrderStatusPending && ord.Status != models.OrderStatusReady {
		return nil, reject(ReasonInvalidStatus, fmt.Sprintf("order cannot be accepted while %s", ord.Status))
	}
	if ord.PaymentStatus != models.PaymentStatusPaid {
		return nil, reject(ReasonNotPaid, "order has not been paid for yet")
	}

	// The count and the assignment are separate round trips; the capacity
	// guard only needs to be correct against this runner's own actions.
	inFlight, err := c.orders.CountInFlight(ctx, sess.RunnerID)
	if err != nil {
		return nil, err
	}
	if inFlight >= c.maxActive {
		return nil, reject(ReasonCapacityExceeded, fmt.Sprintf("you already have %d active deliveries", inFlight))
	}

	n, err := c.orders.AssignRunner(ctx, orderID, sess.RunnerID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, reject(ReasonAlreadyAssigned, "order has already been accepted by another runner")
	}

	c.appendHistory(ctx, orderID, models.OrderStatusPickedUp, sess, "Order accepted by runner - awaiting collection verification")

	updated, err := c.orders.GetByID(ctx, orderID)
	if err != nil || updated == nil {
		return nil, fmt.Errorf("reload accepted order %d: %w", orderID, err)
	}
	c.dispatch(notify.Message{
		Subject: fmt.Sprintf("Order %s accepted", updated.OrderNumber),
		Body:    fmt.Sprintf("Runner %s accepted order %s.", sess.Name, updated.OrderNumber),
		Phones:  []string{updated.CustomerPhone},
	})
	return updated, nil
}

// VerifyCollection records the merchant handoff: the collection PIN was
// presented out of band, and the system records verification as an explicit
// action. Transitions ready -> picked_up for the owning runner.
func (c *Controller) VerifyCollection(ctx context.Context, sess *auth.Session, orderID int64) (*models.Order, error) {
	return c.advance(ctx, sess, orderID, models.OrderStatusReady, models.OrderStatusPickedUp, "Order collected from merchant")
}

// MarkInTransit transitions picked_up -> in_transit for the owning runner.
func (c *Controller) MarkInTransit(ctx context.Context, sess *auth.Session, orderID int64) (*models.Order, error) {
	return c.advance(ctx, sess, orderID, models.OrderStatusPickedUp, models.OrderStatusInTransit, "Order in transit to customer")
}

// advance applies a guarded status-only transition conditional on ownership
// and the expected current status.
func (c *Controller) advance(ctx context.Context, sess *auth.Session, orderID int64, from, to models.OrderStatus, note string) (*models.Order, error) {
	if !validTransitions[transition{From: from, To: to}] {
		return nil, reject(ReasonInvalidStatus, fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}
	ord, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.RunnerID == nil || *ord.RunnerID != sess.RunnerID {
		return nil, reject(ReasonNotAssigned, "order is not assigned to you")
	}
	if ord.Status != from {
		return nil, reject(ReasonInvalidStatus, fmt.Sprintf("order is %s, expected %s", ord.Status, from))
	}

	n, err := c.orders.AdvanceStatus(ctx, orderID, sess.RunnerID, from, to)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// A concurrent write moved the order between our read and write.
		return nil, reject(ReasonInvalidStatus, fmt.Sprintf("order is no longer %s", from))
	}

	c.appendHistory(ctx, orderID, to, sess, note)

	updated, err := c.orders.GetByID(ctx, orderID)
	if err != nil || updated == nil {
		return nil, fmt.Errorf("reload order %d: %w", orderID, err)
	}
	return updated, nil
}

// VerifyDeliveryPin completes the delivery when the submitted PIN matches the
// order's stored delivery PIN. A mismatch leaves the order untouched and
// permits unlimited retries. On success the order is delivered, delivered_at
// is set, and exactly one earnings row is created for the runner.
func (c *Controller) VerifyDeliveryPin(ctx context.Context, sess *auth.Session, orderID int64, pin string) (*models.Order, error) {
	ord, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if ord.RunnerID == nil || *ord.RunnerID != sess.RunnerID {
		return nil, reject(ReasonNotAssigned, "order is not assigned to you")
	}
	if ord.Status != models.OrderStatusInTransit {
		return nil, reject(ReasonInvalidStatus, fmt.Sprintf("order is %s, expected %s", ord.Status, models.OrderStatusInTransit))
	}
	if pin != ord.DeliveryPin {
		return nil, reject(ReasonInvalidPin, "invalid PIN")
	}

	n, err := c.orders.MarkDelivered(ctx, orderID, sess.RunnerID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Double submit or concurrent completion; no second delivery.
		return nil, reject(ReasonInvalidStatus, "order is no longer in transit")
	}

	c.appendHistory(ctx, orderID, models.OrderStatusDelivered, sess, "Order delivered to customer")

	// Earnings are best-effort relative to the status change: the delivery
	// is reported as success even if this write fails.
	inserted, err := c.earnings.Insert(ctx, sess.RunnerID, orderID, c.baseFee, 0, 0)
	if err != nil {
		log.Printf("lifecycle: earnings insert for order %d: %v", orderID, err)
	} else if !inserted {
		log.Printf("lifecycle: earnings row for order %d already exists", orderID)
	}

	updated, err := c.orders.GetByID(ctx, orderID)
	if err != nil || updated == nil {
		return nil, fmt.Errorf("reload delivered order %d: %w", orderID, err)
	}
	c.dispatch(notify.Message{
		Subject: fmt.Sprintf("Order %s delivered", updated.OrderNumber),
		Body:    fmt.Sprintf("Order %s was delivered by %s.", updated.OrderNumber, sess.Name),
		Phones:  []string{updated.CustomerPhone},
	})
	return updated, nil
}
