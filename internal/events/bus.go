// Package events provides the monitor's pub/sub bus and the JSONL event
// stream for machine consumers.
package events

import (
	"container/ring"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one monitoring occurrence.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Session   string                 `json:"session,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Event type names published by the engine.
const (
	TypeMonitorStarted = "monitor_started"
	TypeCycleCompleted = "cycle_completed"
	TypePaneCleared    = "pane_cleared"
	TypeClearFailed    = "clear_failed"
	TypeReportSent     = "report_sent"
	TypeMonitorStopped = "monitor_stopped"
)

// Handler is a subscription callback.
type Handler func(Event)

// UnsubscribeFunc removes a subscription.
type UnsubscribeFunc func()

type handlerEntry struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous pub/sub bus with a bounded history ring.
// Handlers run on the publishing goroutine so JSONL output stays ordered.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]handlerEntry
	nextID      atomic.Uint64

	historyMu sync.Mutex
	history   *ring.Ring
}

// NewBus creates a bus retaining historySize recent events.
func NewBus(historySize int) *Bus {
	if historySize < 1 {
		historySize = 100
	}
	return &Bus{
		subscribers: make(map[string][]handlerEntry),
		history:     ring.New(historySize),
	}
}

// Subscribe registers a handler for one event type. "*" matches all.
func (b *Bus) Subscribe(eventType string, handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	b.subscribers[eventType] = append(b.subscribers[eventType], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subscribers[eventType]
		for i, h := range handlers {
			if h.id == id {
				b.subscribers[eventType] = append(handlers[:i], handlers[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a wildcard handler.
func (b *Bus) SubscribeAll(handler Handler) UnsubscribeFunc {
	return b.Subscribe("*", handler)
}

// Publish records the event and delivers it to matching handlers in
// subscription order.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.historyMu.Lock()
	b.history.Value = event
	b.history = b.history.Next()
	b.historyMu.Unlock()

	b.mu.RLock()
	entries := make([]handlerEntry, 0, len(b.subscribers[event.Type])+len(b.subscribers["*"]))
	entries = append(entries, b.subscribers[event.Type]...)
	entries = append(entries, b.subscribers["*"]...)
	b.mu.RUnlock()

	for _, entry := range entries {
		entry.handler(event)
	}
}

// History returns retained events, oldest first.
func (b *Bus) History() []Event {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()

	var out []Event
	b.history.Do(func(v interface{}) {
		if e, ok := v.(Event); ok {
			out = append(out, e)
		}
	})
	return out
}

// EnableJSONStream writes every published event to w as one JSON object
// per line. Returns the unsubscribe function.
func (b *Bus) EnableJSONStream(w io.Writer) UnsubscribeFunc {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return b.SubscribeAll(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(e)
	})
}
