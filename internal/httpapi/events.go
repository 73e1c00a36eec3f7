package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"runnerDispatch/internal/feed"
	"runnerDispatch/internal/orders"
)

// orderSnapshot is one SSE "orders" payload: the refreshed view with the
// highlight flags applied.
type orderSnapshot struct {
	View   orders.View     `json:"view"`
	Orders []orderWithFlag `json:"orders"`
}

type orderWithFlag struct {
	orders.Detail
	IsNew bool `json:"is_new"`
}

// streamEvents serves GET /api/events?view=...: one live view session per
// request. A change-feed subscriber drives debounced refetches; each refetch
// result, every connection-status change, and every new-order cue is pushed
// to the client as a server-sent event. The subscription is torn down when
// the client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	view, err := orders.ParseView(c.DefaultQuery("view", string(orders.ViewAvailable)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := make(chan sse.Event, 16)
	push := func(ev sse.Event) {
		select {
		case events <- ev:
		default:
			// Slow client; the next refetch will carry the fresh state.
		}
	}

	var sub *feed.Subscriber
	refetch := func(ctx context.Context) error {
		list, err := s.fetcher.Fetch(ctx, sess, view)
		if err != nil {
			return err
		}
		snap := orderSnapshot{View: view, Orders: make([]orderWithFlag, 0, len(list))}
		for _, d := range list {
			snap.Orders = append(snap.Orders, orderWithFlag{Detail: d, IsNew: sub != nil && sub.IsNew(d.ID)})
		}
		push(sse.Event{Event: "orders", Data: snap})
		return nil
	}

	sub = feed.NewSubscriber(s.broker, refetch, feed.Options{
		View: string(view),
		OnStatus: func(st feed.Status) {
			push(sse.Event{Event: "status", Data: string(st)})
		},
		OnNewOrder: func(orderID int64) {
			push(sse.Event{Event: "new_order", Data: map[string]int64{"order_id": orderID}})
		},
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		sub.Run(ctx)
		close(events)
	}()

	c.Writer.Header().Set("Content-Type", sse.ContentType)
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		if err := sse.Encode(w, ev); err != nil {
			return false
		}
		return true
	})
}
