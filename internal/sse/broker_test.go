package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// drain collects the event names currently buffered on ch.
func drain(ch chan []byte) []string {
	var events []string
	for {
		select {
		case msg := <-ch:
			for _, line := range strings.Split(string(msg), "\n") {
				if name, ok := strings.CutPrefix(line, "event: "); ok {
					events = append(events, name)
				}
			}
		default:
			return events
		}
	}
}

func waitFor(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe(Filter{})
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestNotify_PayloadAndSequence(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe(Filter{Entities: []Entity{EntityProject}})
	defer b.Unsubscribe(ch)

	b.Notify(Change{Entity: EntityProject, Action: ActionMoved, ID: "p1", ClientID: "c1", From: "backlog", To: "in_review"})
	b.Notify(Change{Entity: EntityProject, Action: ActionDeleted, ID: "p2"})

	first := waitFor(t, ch)
	assert.Contains(t, first, "event: project.moved\n")
	assert.Contains(t, first, `"entity":"project","action":"moved","id":"p1","client_id":"c1","from":"backlog","to":"in_review"`)
	second := waitFor(t, ch)
	assert.Contains(t, second, "event: project.deleted\n")

	// The dashboard event between them is filtered out but still numbered.
	assert.True(t, strings.HasPrefix(first, "id: 1\n"), first)
	assert.True(t, strings.HasPrefix(second, "id: 3\n"), second)
}

func TestFilter_ClientAndEntity(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	acme := b.Subscribe(Filter{ClientID: "acme"})
	defer b.Unsubscribe(acme)
	content := b.Subscribe(Filter{Entities: []Entity{EntityContent}})
	defer b.Unsubscribe(content)

	b.Notify(Change{Entity: EntityContent, Action: ActionCreated, ID: "a1", ClientID: "acme"})
	b.Notify(Change{Entity: EntityContent, Action: ActionCreated, ID: "a2", ClientID: "blue"})
	b.Notify(Change{Entity: EntityFramework, Action: ActionUpdated, ID: "f1"})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"content.created", DashboardEvent}, drain(acme))
	assert.Equal(t, []string{"content.created", "content.created"}, drain(content))
}

func TestFilterFromQuery(t *testing.T) {
	q, _ := url.ParseQuery("client_id=c1&entity=project,+content&entity=journal")
	f := FilterFromQuery(q)
	assert.Equal(t, "c1", f.ClientID)
	assert.Equal(t, []Entity{EntityProject, EntityContent, EntityJournal}, f.Entities)
	assert.Equal(t, Filter{}, FilterFromQuery(url.Values{}))
}

func TestNotify_DashboardThrottleFlushesTrailingChange(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	b.Notify(Change{Entity: EntityProject, Action: ActionMoved, ID: "p1"})
	b.Notify(Change{Entity: EntityContent, Action: ActionDeleted, ID: "c1"})
	b.Notify(Change{Entity: EntityContent, Action: ActionDeleted, ID: "c2"})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"project.moved", DashboardEvent, "content.deleted", "content.deleted"}, drain(ch))

	// The changes inside the interval produce one more refresh when it ends.
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, []string{DashboardEvent}, drain(ch))
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events?entity=journal", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Notify(Change{Entity: EntityClient, Action: ActionCreated, ID: "c1"})
	b.Notify(Change{Entity: EntityJournal, Action: ActionCreated, ID: "j1"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "retry: 3000\n\n"))
	assert.Contains(t, body, "event: journal.created")
	assert.NotContains(t, body, "client.created")

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestNotifyDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest are dropped without blocking the loop.
	for i := 0; i < 100; i++ {
		b.Notify(Change{Entity: EntityJournal, Action: ActionUpdated, ID: "j"})
	}
	if b.ClientCount() != 1 {
		t.Fatal("broker loop blocked")
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe(Filter{})
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Notify(Change{Entity: EntityClient, Action: ActionUpdated, ID: "x"})
	closed := b.Subscribe(Filter{})
	if _, ok := <-closed; ok {
		t.Fatal("subscribe after close should return a closed channel")
	}
}
