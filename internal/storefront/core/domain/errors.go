package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the guidance the user needs.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindPayment         Kind = "payment"
	KindNetwork         Kind = "network"
	KindTimeout         Kind = "timeout"
	KindUnauthenticated Kind = "unauthenticated"
	KindRejected        Kind = "rejected"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrPayment         = &Error{Kind: KindPayment}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrRejected        = &Error{Kind: KindRejected}
)

// Error is the single error type surfaced by the lifecycle core. Message is
// shown to the user as-is; for server failures it is the server's own text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// Retryable reports whether the user can simply try again.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

func NewError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validationf(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err is not a lifecycle error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Validation codes shared by the dispatcher and the backend.
const (
	CodeNotCancellable       = "not_cancellable"
	CodeReturnNotAllowed     = "return_not_allowed"
	CodeReturnExists         = "return_exists"
	CodeReasonRequired       = "reason_required"
	CodePaymentNotAllowed    = "payment_not_allowed"
	CodeReferenceRequired    = "payment_reference_required"
	CodeActionInFlight       = "action_in_flight"
	CodeConfirmationRequired = "confirmation_required"
	CodeConfirmationStale    = "confirmation_stale"
	CodeOrderNotLoaded       = "order_not_loaded"
	CodeInvalidOrder         = "invalid_order"
	CodeInvalidAddress       = "invalid_address"
	CodeInvalidItem          = "invalid_item"
	CodeUnknownCommand       = "unknown_command"
)
