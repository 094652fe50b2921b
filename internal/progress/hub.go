// internal/progress/hub.go
// Package progress fans lifecycle events (round_started, round_completed,
// cycle_detected, process_completed, ...) out to any number of live
// WebSocket subscribers, for a CLI --watch mode. Grounded on the teacher's
// internal/gateway.Server: same map[chan []byte]struct{} subscriber
// registry, same non-blocking broadcast that drops slow consumers instead
// of blocking the phase engine.
package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/metrics"
)

// Event is one lifecycle notification, broadcast as JSON to every subscriber.
type Event struct {
	Name   string            `json:"event"`
	Detail map[string]string `json:"detail,omitempty"`
	TS     int64             `json:"ts"`
}

// Hub is a fan-out broadcaster. It implements internal/notify.Sink so the
// phase engine can drive it exactly like a log/webhook/slack sink.
type Hub struct {
	subsMu sync.RWMutex
	subs   map[chan []byte]struct{}
}

// NewHub returns an empty Hub ready to accept subscribers and events.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

// Notify implements notify.Sink: encode the event and broadcast it.
func (h *Hub) Notify(event string, detail map[string]string) {
	payload, err := json.Marshal(Event{Name: event, Detail: detail, TS: time.Now().Unix()})
	if err != nil {
		logging.Sugar().Warnw("progress: marshal event", "err", err)
		return
	}

	h.subsMu.RLock()
	defer h.subsMu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			logging.Sugar().Debug("progress: dropping event to slow subscriber")
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unregister func the caller must invoke when done draining it.
func (h *Hub) Subscribe() (ch chan []byte, unregister func()) {
	ch = make(chan []byte, 64)
	h.subsMu.Lock()
	h.subs[ch] = struct{}{}
	metrics.ProgressSubscribers.Set(float64(len(h.subs)))
	h.subsMu.Unlock()

	unregister = func() {
		h.subsMu.Lock()
		delete(h.subs, ch)
		metrics.ProgressSubscribers.Set(float64(len(h.subs)))
		h.subsMu.Unlock()
		close(ch)
	}
	return ch, unregister
}
