package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span failed and records the error together with the
// orchestration identifiers the caller supplies.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// ExecutionAttributes builds the span attributes identifying a plan run.
func ExecutionAttributes(planID, executionID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlanIDKey, planID),
		attribute.String(ExecutionIDKey, executionID),
	}
}
