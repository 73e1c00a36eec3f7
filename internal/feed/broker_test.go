package feed

import (
	"testing"
	"time"
)

func TestPublishFiltersByTableAndType(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	inserts, err := b.Subscribe(TableOrders, []EventType{EventInsert}, 4)
	if err != nil {
		t.Fatal(err)
	}
	all, err := b.Subscribe(TableOrders, nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.Subscribe("runners", nil, 4)
	if err != nil {
		t.Fatal(err)
	}

	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 1})
	b.Publish(Event{Table: TableOrders, Type: EventUpdate, OrderID: 1})

	if got := drain(inserts.C); len(got) != 1 || got[0].Type != EventInsert {
		t.Errorf("insert-only subscription got %v", got)
	}
	if got := drain(all.C); len(got) != 2 {
		t.Errorf("unfiltered subscription got %d events, want 2", len(got))
	}
	if got := drain(other.C); len(got) != 0 {
		t.Errorf("other-table subscription got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub, err := b.Subscribe(TableOrders, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	b.Unsubscribe(sub)

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after Unsubscribe")
	}

	// Double unsubscribe must be a no-op, not a double close.
	b.Unsubscribe(sub)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub, err := b.Subscribe(TableOrders, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 1})
	// Buffer full: this publish drops the subscription.
	b.Publish(Event{Table: TableOrders, Type: EventInsert, OrderID: 2})

	got := drainClosed(t, sub.C)
	if len(got) != 1 || got[0].OrderID != 1 {
		t.Fatalf("got %v, want only the buffered event before the drop", got)
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	b := NewBroker()
	sub, err := b.Subscribe(TableOrders, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	b.Close()

	if _, ok := <-sub.C; ok {
		t.Error("Close must close live subscriptions")
	}
	if _, err := b.Subscribe(TableOrders, nil, 1); err != ErrBrokerClosed {
		t.Errorf("Subscribe after Close = %v, want ErrBrokerClosed", err)
	}
	// Publish after Close is a no-op.
	b.Publish(Event{Table: TableOrders, Type: EventInsert})
}

func drain(c <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-c:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func drainClosed(t *testing.T, c <-chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case ev, ok := <-c:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatal("channel never closed")
		}
	}
}
