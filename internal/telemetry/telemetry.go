// internal/telemetry/telemetry.go
// Package telemetry wraps go.opentelemetry.io/otel so each round and phase
// of the engine produces a span, letting an operator correlate a slow
// process() call with the specific round/transformer responsible. Nothing
// elsewhere in this module requires an OTel SDK to be configured: with no
// TracerProvider registered, otel's global no-op tracer makes every call
// here a cheap no-op, matching the teacher's posture of optional
// observability layered on top of required behavior.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nodeforge/classforge/internal/phaseengine"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartRound opens a span covering one READ/fixpoint/WRITE round.
func StartRound(ctx context.Context, roundIndex int, transformerIDs []string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "phaseengine.round",
		trace.WithAttributes(
			attribute.Int("classforge.round_index", roundIndex),
			attribute.StringSlice("classforge.transformer_ids", transformerIDs),
		),
	)
}

// StartPhase opens a span covering one phase (apply, read, write) as a child
// of whatever span ctx carries.
func StartPhase(ctx context.Context, phase string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "phaseengine."+phase)
}

// End records err (if any) on span and closes it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
