// Package notify fans order events out to external channels. Delivery is
// best-effort and fire-and-forget: a channel failure is logged, never
// surfaced to the order mutation that triggered it.
package notify

import (
	"context"
	"log"
	"time"
)

// Message is an order event snapshot to announce.
type Message struct {
	Subject string
	Body    string
	Phones  []string
}

// Dispatcher is the side-channel the lifecycle controller invokes after a
// mutation commits.
type Dispatcher interface {
	Dispatch(msg Message)
}

// Channel is one concrete delivery mechanism (email, SMS, telegram).
type Channel interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Fanout dispatches to all configured channels concurrently. There is one
// instance per process lifetime, constructed at the application root and
// injected where needed.
type Fanout struct {
	channels []Channel
	timeout  time.Duration
}

// NewFanout builds a fan-out over the given channels.
func NewFanout(channels ...Channel) *Fanout {
	return &Fanout{channels: channels, timeout: 10 * time.Second}
}

// Dispatch sends msg through every channel in its own goroutine and returns
// immediately. Callers never await delivery.
func (f *Fanout) Dispatch(msg Message) {
	for _, ch := range f.channels {
		go func(ch Channel) {
			ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			defer cancel()
			if err := ch.Notify(ctx, msg); err != nil {
				log.Printf("notify: %s: %v", ch.Name(), err)
			}
		}(ch)
	}
}
