package feed

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// TableOrders is the only table the runner dashboard watches today.
const TableOrders = "orders"

// EventType classifies a change-feed event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// Event is a change notification keyed by table and event type. It carries
// just enough of the row to filter by relevance; consumers refetch rather
// than trusting the payload shape.
type Event struct {
	Table          string    `json:"table"`
	Type           EventType `json:"type"`
	OrderID        int64     `json:"order_id"`
	Status         string    `json:"status"`
	RunnerAssigned bool      `json:"runner_assigned"`
}

// Subscription is a live handle onto the change feed. C is closed when the
// subscription is torn down, or by the broker itself when the subscriber
// falls too far behind; either way the consumer must resubscribe and recover
// missed events via a full refetch.
type Subscription struct {
	id string
	C  <-chan Event
	ch chan Event
}

// ID returns the opaque subscription handle.
func (s *Subscription) ID() string { return s.id }

type subEntry struct {
	sub    *Subscription
	tables map[string]bool
	types  map[EventType]bool
}

// Broker fans change events out to live subscriptions. Repositories publish
// into it after every committed write.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]*subEntry
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]*subEntry)}
}

// ErrBrokerClosed is returned by Subscribe after Close.
var ErrBrokerClosed = errors.New("feed: broker closed")

// Subscribe registers interest in events on the given table. A zero or
// negative buffer gets a small default.
func (b *Broker) Subscribe(table string, types []EventType, buffer int) (*Subscription, error) {
	if buffer <= 0 {
		buffer = 16
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{id: uuid.NewString(), C: ch, ch: ch}
	entry := &subEntry{
		sub:    sub,
		tables: map[string]bool{table: true},
		types:  make(map[EventType]bool, len(types)),
	}
	for _, t := range types {
		entry.types[t] = true
	}
	b.subs[sub.id] = entry
	return sub, nil
}

// Unsubscribe tears the subscription down and closes its channel.
func (b *Broker) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.subs[s.id]; ok {
		delete(b.subs, s.id)
		close(entry.sub.ch)
	}
}

// Publish delivers ev to every matching subscription without blocking.
// A subscription whose buffer is full is dropped (its channel closed); the
// consumer observes the closed channel as a feed error and reconnects.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for id, entry := range b.subs {
		if !entry.tables[ev.Table] {
			continue
		}
		if len(entry.types) > 0 && !entry.types[ev.Type] {
			continue
		}
		select {
		case entry.sub.ch <- ev:
		default:
			delete(b.subs, id)
			close(entry.sub.ch)
		}
	}
}

// Close tears down all subscriptions. Further Subscribe calls fail.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, entry := range b.subs {
		delete(b.subs, id)
		close(entry.sub.ch)
	}
}
