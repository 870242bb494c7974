package events

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSubscribeAndPublish(t *testing.T) {
	b := NewBus(10)

	var got []string
	b.Subscribe(TypePaneCleared, func(e Event) {
		got = append(got, e.Type)
	})

	b.Publish(Event{Type: TypePaneCleared, Session: "dev"})
	b.Publish(Event{Type: TypeReportSent})

	if len(got) != 1 || got[0] != TypePaneCleared {
		t.Fatalf("handler saw %v, want one pane_cleared", got)
	}
}

func TestWildcardAndUnsubscribe(t *testing.T) {
	b := NewBus(10)

	count := 0
	unsub := b.SubscribeAll(func(Event) { count++ })

	b.Publish(Event{Type: TypeMonitorStarted})
	b.Publish(Event{Type: TypeCycleCompleted})
	unsub()
	b.Publish(Event{Type: TypeMonitorStopped})

	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestHistoryOrder(t *testing.T) {
	b := NewBus(2)
	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"})
	b.Publish(Event{Type: "c"})

	hist := b.History()
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
	if hist[0].Type != "b" || hist[1].Type != "c" {
		t.Errorf("history = [%s %s], want [b c]", hist[0].Type, hist[1].Type)
	}
}

func TestJSONStream(t *testing.T) {
	b := NewBus(10)
	var buf bytes.Buffer
	b.EnableJSONStream(&buf)

	b.Publish(Event{Type: TypeCycleCompleted, Session: "dev",
		Data: map[string]interface{}{"cycle": 3}})

	var decoded Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("stream line is not JSON: %v", err)
	}
	if decoded.Type != TypeCycleCompleted || decoded.Session != "dev" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Timestamp.IsZero() {
		t.Error("timestamp was not filled in")
	}
}
