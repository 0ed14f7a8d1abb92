package lifecycle

import (
	"context"
	"errors"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/projection"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Message is the user-visible outcome of the last load or action. Every
// failure path sets one; nothing is swallowed.
type Message struct {
	Level     Level       `json:"level"`
	Kind      domain.Kind `json:"kind,omitempty"`
	Text      string      `json:"text"`
	Guidance  string      `json:"guidance,omitempty"`
	Retryable bool        `json:"retryable"`
}

var guidance = map[domain.Kind]string{
	domain.KindNotFound:        "Go back to your orders.",
	domain.KindConflict:        "This order was updated elsewhere. The latest details are shown.",
	domain.KindPayment:         "Please contact support before trying again.",
	domain.KindNetwork:         "Check your connection and try again.",
	domain.KindTimeout:         "The order service took too long to answer. Try again in a moment.",
	domain.KindUnauthenticated: "Sign in and try again.",
}

func errorMessage(err error) *Message {
	var e *domain.Error
	if !errors.As(err, &e) {
		e = classify(err)
	}
	text := e.Message
	if text == "" {
		text = "Something went wrong."
	}
	return &Message{
		Level:     LevelError,
		Kind:      e.Kind,
		Text:      text,
		Guidance:  guidance[e.Kind],
		Retryable: e.Retryable(),
	}
}

func infoMessage(text string) *Message {
	return &Message{Level: LevelInfo, Text: text}
}

// classify turns transport-level failures that escaped the adapter into the
// lifecycle taxonomy.
func classify(err error) *domain.Error {
	var e *domain.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.Error{Kind: domain.KindTimeout, Code: "timeout", Message: "The request timed out.", Err: err}
	case errors.Is(err, context.Canceled):
		return &domain.Error{Kind: domain.KindNetwork, Code: "cancelled", Message: "The request was cancelled.", Err: err}
	default:
		return &domain.Error{Kind: domain.KindNetwork, Code: "unreachable", Message: "Could not reach the order service.", Err: err}
	}
}

func prompt(o *domain.Order, t domain.Transition, reason string) string {
	switch t.Operation {
	case domain.OperationRefund:
		if m := projection.FormatNullMoney(o.Amount); m.Loaded {
			return "Cancel this order? " + m.Display + " will be refunded to your original payment method."
		}
		return "Cancel this order? The amount paid will be refunded to your original payment method."
	case domain.OperationCancel:
		return "Cancel this order? This cannot be undone."
	case domain.OperationRequestReturn:
		return "Request a return for this order? Reason: " + reason
	}
	return "Continue?"
}

func successText(o *domain.Order, op domain.Operation) string {
	switch op {
	case domain.OperationRefund:
		if m := projection.FormatNullMoney(o.Amount); m.Loaded {
			return "Your order has been cancelled and a refund of " + m.Display + " has been initiated."
		}
		return "Your order has been cancelled and a refund has been initiated."
	case domain.OperationCancel:
		return "Your order has been cancelled."
	case domain.OperationRequestReturn:
		return "Your return request has been submitted."
	case domain.OperationConfirmPayment:
		return "Payment confirmed."
	}
	return "Done."
}
