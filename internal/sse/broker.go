// Package sse streams dashboard changes to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// DashboardEvent tells clients to refetch the overview counters.
const DashboardEvent = "dashboard.updated"

type subscription struct {
	ch     chan []byte
	filter Filter
}

// Broker fans entity changes out to subscribed streams.
//
// A single goroutine owns the subscriber set, the event sequence and the
// dashboard throttle; every public method talks to it over channels.
// dashboard.updated is sent at most once per throttle interval, and a change
// that lands inside the interval is flushed when it ends.
type Broker struct {
	throttle  time.Duration
	keepAlive time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	changeCh      chan Change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that throttles dashboard.updated to one per
// throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		throttle:      throttle,
		keepAlive:     25 * time.Second,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan Change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[chan []byte]Filter)
	var seq uint64
	var lastDashboard time.Time

	flush := time.NewTimer(b.throttle)
	flush.Stop()
	defer flush.Stop()
	pending := false

	send := func(event string, data any, want func(Filter) bool) {
		payload, err := json.Marshal(data)
		if err != nil {
			slog.Error("sse: encode event", slog.String("event", event), slog.String("error", err.Error()))
			return
		}
		seq++
		msg := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event, payload))
		for ch, f := range subs {
			if !want(f) {
				continue
			}
			select {
			case ch <- msg:
			default:
				// Slow reader; it refetches on the next dashboard event.
			}
		}
	}
	dashboard := func(now time.Time) {
		lastDashboard = now
		send(DashboardEvent, struct {
			At time.Time `json:"at"`
		}{now.UTC()}, func(f Filter) bool { return f.wants(EntityDashboard) })
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.subscribeCh:
			subs[s.ch] = s.filter

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			send(c.Type(), c, func(f Filter) bool { return f.match(c) })

			now := time.Now()
			if wait := b.throttle - now.Sub(lastDashboard); wait <= 0 {
				if pending {
					flush.Stop()
					pending = false
				}
				dashboard(now)
			} else if !pending {
				pending = true
				flush.Reset(wait)
			}

		case now := <-flush.C:
			pending = false
			dashboard(now)

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close stops the broker and ends every open stream.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a stream and returns its message channel. The channel
// is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(f Filter) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- subscription{ch: ch, filter: f}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a stream and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of open streams.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Notify publishes c as "<entity>.<action>" and schedules dashboard.updated.
func (b *Broker) Notify(c Change) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- c:
	case <-b.stopped:
	}
}

// ServeHTTP streams events (GET /api/events). ?client_id= and ?entity= narrow
// the stream; a comment line is written periodically so proxies keep the
// connection open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	ch := b.Subscribe(FilterFromQuery(r.URL.Query()))
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
