package journal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty when
// no valid span is present.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry stamped with the trace info found in ctx.
//
//	entry := journal.NewEntry(ctx, "ORD-2", "cancel", "refund", journal.OutcomeDispatched, key)
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, orderID, command, operation string, outcome Outcome, idempotencyKey string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		OrderID:        orderID,
		Command:        command,
		Operation:      operation,
		Outcome:        outcome,
		IdempotencyKey: idempotencyKey,
		TraceID:        ti.TraceID,
		SpanID:         ti.SpanID,
		RecordedAt:     time.Now().UTC(),
	}
}

// WithError sets the failure details on e and returns it.
func (e *Entry) WithError(kind, message string) *Entry {
	e.ErrorKind = kind
	e.Message = message
	return e
}
