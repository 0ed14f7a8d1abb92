// Package journal defines the command journal: an append-only record of
// every action the storefront sent, or refused to send, to the order service.
//
// Each confirmed action produces a DISPATCHED row followed by exactly one
// SUCCEEDED or FAILED row. Actions stopped on the client produce a single
// REJECTED row and never reach the network.
package journal

import "time"

// Outcome is the result recorded for a command at a point in time.
type Outcome string

const (
	OutcomeDispatched Outcome = "DISPATCHED"
	OutcomeSucceeded  Outcome = "SUCCEEDED"
	OutcomeFailed     Outcome = "FAILED"
	OutcomeRejected   Outcome = "REJECTED"
)

// Entry is a single row in the command_journal table.
type Entry struct {
	OrderID string

	// Command is what the user asked for; Operation is the endpoint it was
	// routed to (a cancel on a paid online order is sent as a refund).
	Command   string
	Operation string

	Outcome Outcome

	// ErrorKind and Message are set on FAILED and REJECTED rows. Message is
	// the text shown to the user.
	ErrorKind string
	Message   string

	// IdempotencyKey is the key sent with the outbound request.
	IdempotencyKey string

	// TraceID and SpanID come from the span active when the row was written.
	TraceID string
	SpanID  string

	RecordedAt time.Time
}
