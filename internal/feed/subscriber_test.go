package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testOptions(view string) Options {
	return Options{
		View:            view,
		Debounce:        5 * time.Millisecond,
		Backoff:         10 * time.Millisecond,
		HighlightWindow: 50 * time.Millisecond,
		Buffer:          8,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSubscriberRefetchesOnConnectAndOnUpdate(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	var refetches atomic.Int64
	sub := NewSubscriber(b, func(context.Context) error {
		refetches.Add(1)
		return nil
	}, testOptions("active"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { sub.Run(ctx); close(done) }()

	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never came online")
	waitFor(t, func() bool { return refetches.Load() == 1 }, "no refetch on connect")

	// A burst of updates coalesces into a single debounced refetch.
	for i := 0; i < 5; i++ {
		b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 7, Status: "picked_up"})
	}
	waitFor(t, func() bool { return refetches.Load() == 2 }, "no refetch after updates")
	time.Sleep(20 * time.Millisecond)
	if n := refetches.Load(); n != 2 {
		t.Errorf("refetches = %d, want 2 (burst must debounce)", n)
	}

	cancel()
	<-done
}

func TestSubscriberNewOrderCue(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	var mu sync.Mutex
	var cues []int64
	opts := testOptions(ViewAvailable)
	opts.OnNewOrder = func(orderID int64) {
		mu.Lock()
		cues = append(cues, orderID)
		mu.Unlock()
	}
	sub := NewSubscriber(b, func(context.Context) error { return nil }, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)
	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never came online")

	// Relevant insert: unassigned, pending.
	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 1, Status: "pending"})
	// Irrelevant inserts: already assigned, or terminal status.
	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 2, Status: "pending", RunnerAssigned: true})
	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 3, Status: "delivered"})
	// Updates never cue, they only refetch.
	b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 4, Status: "pending"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(cues) >= 1
	}, "no cue for relevant insert")

	mu.Lock()
	got := append([]int64(nil), cues...)
	mu.Unlock()
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("cues = %v, want [1]", got)
	}

	if !sub.IsNew(1) {
		t.Error("order 1 should be marked new inside the highlight window")
	}
	if sub.IsNew(3) {
		t.Error("irrelevant insert must not be marked new")
	}
	time.Sleep(60 * time.Millisecond)
	if sub.IsNew(1) {
		t.Error("highlight must expire after the window")
	}
}

func TestSubscriberNoCueOutsideAvailableView(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	var cued atomic.Bool
	opts := testOptions("active")
	opts.OnNewOrder = func(int64) { cued.Store(true) }
	sub := NewSubscriber(b, func(context.Context) error { return nil }, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)
	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never came online")

	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 1, Status: "pending"})
	time.Sleep(20 * time.Millisecond)
	if cued.Load() {
		t.Error("active view must not raise new-order cues")
	}
}

func TestSubscriberReconnectsAfterDrop(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	var mu sync.Mutex
	var statuses []Status
	block := make(chan struct{})
	var refetches atomic.Int64

	opts := testOptions("available")
	opts.Buffer = 1
	opts.OnStatus = func(st Status) {
		mu.Lock()
		statuses = append(statuses, st)
		mu.Unlock()
	}
	sub := NewSubscriber(b, func(ctx context.Context) error {
		if refetches.Add(1) == 2 {
			// Stall the second refetch so published events pile up past the
			// one-slot buffer and the broker drops the subscription.
			select {
			case <-block:
			case <-ctx.Done():
			}
		}
		return nil
	}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { sub.Run(ctx); close(done) }()
	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never came online")

	// First event parks the subscriber in the stalled refetch.
	b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 1})
	waitFor(t, func() bool { return refetches.Load() >= 2 }, "second refetch never started")
	// Overflow the buffer while the consumer is stalled.
	b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 2})
	b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 3})
	close(block)

	// Dropped subscription: offline, then a fresh connect with its own refetch.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, st := range statuses {
			if st == StatusOffline {
				return true
			}
		}
		return false
	}, "never went offline after drop")
	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never reconnected")
	waitFor(t, func() bool { return refetches.Load() >= 3 }, "no refetch on reconnect")

	cancel()
	<-done
}

func TestSubscriberOfflineAfterBrokerClose(t *testing.T) {
	b := NewBroker()
	sub := NewSubscriber(b, func(context.Context) error { return nil }, testOptions("available"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { sub.Run(ctx); close(done) }()
	waitFor(t, func() bool { return sub.Status() == StatusOnline }, "never came online")

	b.Close()
	waitFor(t, func() bool { return sub.Status() == StatusOffline }, "never went offline after broker close")

	cancel()
	<-done
}
