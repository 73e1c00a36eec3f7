// Package orders materializes the per-view order lists a runner sees:
// the filtered query plus joined merchant, address, and line-item data.
package orders

import (
	"context"
	"fmt"
	"log"

	"runnerDispatch/internal/auth"
	"runnerDispatch/models"
	"runnerDispatch/repository"
)

// View selects which filtered order set to fetch.
type View string

const (
	ViewAvailable View = "available"
	ViewActive    View = "active"
	ViewCompleted View = "completed"
)

// ParseView validates a view name from the transport layer.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewAvailable, ViewActive, ViewCompleted:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Detail is an order with its joined relations. Merchant and Address may be
// nil when their independent sub-fetch failed or the row is genuinely absent;
// a partial join never fails the whole result.
type Detail struct {
	models.Order
	Merchant *models.Merchant        `json:"merchant,omitempty"`
	Address  *models.DeliveryAddress `json:"address,omitempty"`
	Items    []models.OrderItem      `json:"items"`
}

// FetchError is the typed failure surfaced when the primary query itself
// fails. Sub-fetch failures degrade instead.
type FetchError struct {
	View View
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s orders failed: %v", e.View, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher issues the filtered query appropriate to the active view.
type Fetcher struct {
	orders    *repository.OrderRepository
	merchants *repository.MerchantRepository
}

func NewFetcher(orders *repository.OrderRepository, merchants *repository.MerchantRepository) *Fetcher {
	return &Fetcher{orders: orders, merchants: merchants}
}

// Fetch returns the current matching set for the view, newest first. A
// session without a runner is a no-op, not an error: the caller simply gets
// nothing to render.
func (f *Fetcher) Fetch(ctx context.Context, sess *auth.Session, view View) ([]Detail, error) {
	if sess == nil || sess.RunnerID == 0 {
		return nil, nil
	}
	var (
		rows []models.Order
		err  error
	)
	switch view {
	case ViewAvailable:
		rows, err = f.orders.ListAvailable(ctx)
	case ViewActive:
		rows, err = f.orders.ListActive(ctx, sess.RunnerID)
	case ViewCompleted:
		rows, err = f.orders.ListCompleted(ctx, sess.RunnerID)
	default:
		return nil, &FetchError{View: view, Err: fmt.Errorf("unknown view")}
	}
	if err != nil {
		return nil, &FetchError{View: view, Err: err}
	}

	out := make([]Detail, 0, len(rows))
	for _, o := range rows {
		out = append(out, f.join(ctx, o))
	}
	return out, nil
}

// join performs the per-order sub-fetches. Each is independent: a failed
// address or merchant lookup degrades that field to nil and never aborts
// sibling rows.
func (f *Fetcher) join(ctx context.Context, o models.Order) Detail {
	d := Detail{Order: o, Items: []models.OrderItem{}}

	m, err := f.merchants.GetByID(ctx, o.MerchantID)
	if err != nil {
		log.Printf("orders: merchant fetch for order %d: %v", o.ID, err)
	} else {
		d.Merchant = m
	}

	a, err := f.orders.GetAddress(ctx, o.ID)
	if err != nil {
		log.Printf("orders: address fetch for order %d: %v", o.ID, err)
	} else {
		d.Address = a
	}

	items, err := f.orders.GetItems(ctx, o.ID)
	if err != nil {
		log.Printf("orders: items fetch for order %d: %v", o.ID, err)
	} else if items != nil {
		d.Items = items
	}
	return d
}

// Get returns a single order with joins, or nil when absent.
func (f *Fetcher) Get(ctx context.Context, orderID int64) (*Detail, error) {
	o, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	d := f.join(ctx, *o)
	return &d, nil
}
