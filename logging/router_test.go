package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func closeRouter(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("router close failed: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(SystemClock{}, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("router setup failed: %v", err)
	}

	router.Publish(context.Background(), Event{
		Type:     "network.synced",
		Tick:     7,
		Severity: SeverityInfo,
		Actor:    EntityRef{ID: "client", Kind: EntityKindSession},
	})
	closeRouter(t, router)

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != "network.synced" || events[0].Tick != 7 {
		t.Fatalf("event = %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatal("event time not stamped")
	}
	if got := router.Stats().EventsTotal; got != 1 {
		t.Fatalf("events total = %d, want 1", got)
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	router, err := NewRouter(SystemClock{}, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("router setup failed: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "a", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "b", Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "c", Severity: SeverityWarn})
	router.Publish(context.Background(), Event{Type: "d", Severity: SeverityError})
	closeRouter(t, router)

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2: %+v", len(events), events)
	}
	if events[0].Type != "c" || events[1].Type != "d" {
		t.Fatalf("filtered order = %+v", events)
	}
}

func TestRouterAppliesStaticFields(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"node": "test-1"}
	router, err := NewRouter(SystemClock{}, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("router setup failed: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "x", Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "y", Severity: SeverityInfo,
		Extra: map[string]any{"node": "caller"}})
	closeRouter(t, router)

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Extra["node"] != "test-1" {
		t.Fatalf("static field missing: %+v", events[0].Extra)
	}
	// Caller-set fields win over static ones.
	if events[1].Extra["node"] != "caller" {
		t.Fatalf("caller field overwritten: %+v", events[1].Extra)
	}
}

func TestRouterDropsUntypedEvents(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(SystemClock{}, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("router setup failed: %v", err)
	}

	router.Publish(context.Background(), Event{Severity: SeverityError})
	closeRouter(t, router)

	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("untyped event delivered: %+v", events)
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(SystemClock{}, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("router setup failed: %v", err)
	}
	closeRouter(t, router)

	router.Publish(context.Background(), Event{Type: "late", Severity: SeverityInfo})
	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("post-close event delivered: %+v", events)
	}
}

func TestWithFieldsWrapsPublisher(t *testing.T) {
	var got Event
	pub := WithFields(PublisherFunc(func(_ context.Context, event Event) {
		got = event
	}), map[string]any{"role": "server"})

	pub.Publish(context.Background(), Event{Type: "x"})
	if got.Extra["role"] != "server" {
		t.Fatalf("field missing: %+v", got.Extra)
	}
}
