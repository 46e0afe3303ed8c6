package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed and records err with attrs. A nil err is a no-op.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetOutcome tags span with how an inbound message or resume request was handled.
func SetOutcome(span trace.Span, outcome string, failed bool) {
	span.SetAttributes(attribute.String(OutcomeKey, outcome))

	if failed {
		span.SetStatus(codes.Error, outcome)
	}
}
