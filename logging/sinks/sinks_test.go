package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"planetfall/logging"
)

func TestMemorySinkRetainsIndependentCopies(t *testing.T) {
	sink := NewMemorySink()
	event := logging.Event{
		Type:  "simulation.fleet_launched",
		Tick:  3,
		Extra: map[string]any{"origin": 0},
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Mutating the caller's maps after the write must not leak into the
	// retained copy.
	event.Extra["origin"] = 99
	got := sink.Events()
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	if got[0].Extra["origin"] != 0 {
		t.Fatalf("retained event mutated: %+v", got[0].Extra)
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatal("reset left events behind")
	}
}

func TestJSONSinkEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf, logging.JSONConfig{})

	for i := uint64(1); i <= 3; i++ {
		if err := sink.Write(logging.Event{Type: "network.synced", Tick: i}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for i, line := range lines {
		var decoded logging.Event
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if decoded.Tick != uint64(i+1) {
			t.Fatalf("line %d tick = %d, want %d", i, decoded.Tick, i+1)
		}
	}
}

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	err := sink.Write(logging.Event{
		Type:     "network.slot_assigned",
		Tick:     12,
		Actor:    logging.EntityRef{ID: "faction-0", Kind: logging.EntityKindFaction},
		Severity: logging.SeverityInfo,
		Payload:  map[string]string{"addr": "127.0.0.1:9700"},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"network.slot_assigned", "tick=12", "faction:faction-0", "severity=info", "127.0.0.1:9700"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}
