package feed

import (
	"context"
	"log"
	"sync"
	"time"
)

// Status is the connection state of a view subscription.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOnline     Status = "online"
	StatusOffline    Status = "offline"
)

// ViewAvailable is the view name whose INSERT events raise new-order cues.
const ViewAvailable = "available"

const (
	// DefaultDebounce coalesces bursts of change events into one refetch.
	DefaultDebounce = 100 * time.Millisecond
	// DefaultBackoff is the fixed wait between reconnect attempts.
	DefaultBackoff = 5 * time.Second
	// DefaultHighlightWindow is how long a newly-arrived order stays marked "new".
	DefaultHighlightWindow = 5 * time.Second
)

// Options configures a Subscriber. Zero durations fall back to the defaults;
// tests shrink them.
type Options struct {
	View            string
	Debounce        time.Duration
	Backoff         time.Duration
	HighlightWindow time.Duration
	Buffer          int

	// OnStatus is invoked on every connection-state change.
	OnStatus func(Status)
	// OnNewOrder is invoked when an insert relevant to the available view
	// arrives while that view is active (notification cue / toast).
	OnNewOrder func(orderID int64)
}

// Subscriber maintains one live change-feed subscription for a view session
// and triggers debounced refetches on relevant events. At most one
// subscription is live at a time; the previous one is always torn down
// before a new one is established.
type Subscriber struct {
	broker  *Broker
	refetch func(context.Context) error
	opts    Options

	mu        sync.Mutex
	status    Status
	newOrders map[int64]time.Time
}

// NewSubscriber wires a subscriber to a broker. refetch re-applies the full
// filtered query for the active view; events are never trusted as a source
// of row data.
func NewSubscriber(broker *Broker, refetch func(context.Context) error, opts Options) *Subscriber {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.HighlightWindow <= 0 {
		opts.HighlightWindow = DefaultHighlightWindow
	}
	return &Subscriber{
		broker:    broker,
		refetch:   refetch,
		opts:      opts,
		status:    StatusConnecting,
		newOrders: make(map[int64]time.Time),
	}
}

// Status returns the current connection state.
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsNew reports whether the order arrived within the highlight window.
func (s *Subscriber) IsNew(orderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.newOrders[orderID]
	if !ok {
		return false
	}
	if time.Since(at) > s.opts.HighlightWindow {
		delete(s.newOrders, orderID)
		return false
	}
	return true
}

func (s *Subscriber) setStatus(st Status) {
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed && s.opts.OnStatus != nil {
		s.opts.OnStatus(st)
	}
}

func (s *Subscriber) markNew(orderID int64) {
	now := time.Now()
	s.mu.Lock()
	s.newOrders[orderID] = now
	for id, at := range s.newOrders {
		if now.Sub(at) > s.opts.HighlightWindow {
			delete(s.newOrders, id)
		}
	}
	s.mu.Unlock()
}

// Run blocks, maintaining the subscription until ctx is cancelled. On a feed
// error it goes offline, waits the fixed backoff, and reconnects; events
// missed while offline are recovered by the refetch performed on reconnect.
func (s *Subscriber) Run(ctx context.Context) {
	for {
		s.setStatus(StatusConnecting)
		sub, err := s.broker.Subscribe(TableOrders, []EventType{EventInsert, EventUpdate}, s.opts.Buffer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.setStatus(StatusOffline)
			select {
			case <-time.After(s.opts.Backoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		s.setStatus(StatusOnline)
		if err := s.refetch(ctx); err != nil {
			log.Printf("feed: refetch on connect: %v", err)
		}
		s.consume(ctx, sub)
		s.broker.Unsubscribe(sub)
		if ctx.Err() != nil {
			return
		}
		s.setStatus(StatusOffline)
		select {
		case <-time.After(s.opts.Backoff):
		case <-ctx.Done():
			return
		}
	}
}

// consume processes events until the channel closes or ctx is cancelled.
func (s *Subscriber) consume(ctx context.Context, sub *Subscription) {
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			s.handle(ev)
			pending = time.After(s.opts.Debounce)
		case <-pending:
			pending = nil
			if err := s.refetch(ctx); err != nil {
				log.Printf("feed: refetch: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// handle applies per-event behavior. Updates always lead to a refetch
// regardless of which fields changed; inserts additionally raise the
// new-order cue when the row matches the available predicate and the
// available view is active.
func (s *Subscriber) handle(ev Event) {
	if ev.Type != EventInsert {
		return
	}
	if s.opts.View != ViewAvailable {
		return
	}
	if ev.RunnerAssigned {
		return
	}
	if ev.Status != "pending" && ev.Status != "ready" {
		return
	}
	s.markNew(ev.OrderID)
	if s.opts.OnNewOrder != nil {
		s.opts.OnNewOrder(ev.OrderID)
	}
}
