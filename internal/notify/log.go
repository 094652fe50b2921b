// internal/notify/log.go
// Package notify implements the lifecycle-event sinks from SPEC_FULL.md
// supplement 4, adapted from the teacher's alert-sink trio
// (internal/gateway/alerts/sinks/{log,webhook,slack}.go). process() fires
// round_started, round_completed, cycle_detected and process_completed
// events at zero or more configured sinks; this is observability only, no
// spec semantics depend on it.
package notify

import (
	"go.uber.org/zap"

	"github.com/nodeforge/classforge/internal/logging"
)

// Sink receives a lifecycle event and its string-keyed detail fields.
// The phase engine calls Notify synchronously. WebhookSink fires its request
// from a goroutine; SlackSink posts (and retries) on the caller's goroutine.
type Sink interface {
	Notify(event string, detail map[string]string)
}

// LogSink prints events through the processor's structured logger. It is
// the default sink when the CLI's --notify flag names no other backend.
type LogSink struct{}

// NewLogSink returns a new LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

// Notify logs event and its detail fields at Info level.
func (s *LogSink) Notify(event string, detail map[string]string) {
	fields := make([]zap.Field, 0, len(detail)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range detail {
		fields = append(fields, zap.String(k, v))
	}
	logging.Logger().Info("lifecycle event", fields...)
}

// Multi fans one lifecycle event out to every sink in order. A nil or
// empty sinks list is a valid, silent notifier.
type Multi struct{ sinks []Sink }

// NewMulti returns a Sink that forwards to every one of sinks.
func NewMulti(sinks ...Sink) *Multi { return &Multi{sinks: sinks} }

func (m *Multi) Notify(event string, detail map[string]string) {
	for _, s := range m.sinks {
		s.Notify(event, detail)
	}
}
