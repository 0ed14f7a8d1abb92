package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Command is a user-initiated action on an order.
type Command string

const (
	CommandCancel         Command = "cancel"
	CommandRequestReturn  Command = "request-return"
	CommandConfirmPayment Command = "confirm-payment"
)

func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(s))); c {
	case CommandCancel, CommandRequestReturn, CommandConfirmPayment:
		return c, nil
	}
	return "", Validationf(CodeUnknownCommand, "unknown action %q", s)
}

// Operation is the backend call a command resolves to.
type Operation string

const (
	OperationCancel         Operation = "cancel"
	OperationRefund         Operation = "refund"
	OperationRequestReturn  Operation = "request-return"
	OperationConfirmPayment Operation = "confirm-payment"
)

// Transition is one row of the lifecycle table. An empty Method matches any
// payment method.
type Transition struct {
	From        Status
	Command     Command
	Method      PaymentMethod
	Operation   Operation
	To          Status
	Destructive bool
}

// transitionTable is consulted both to decide which actions are offered and
// to pick the endpoint a confirmed action is sent to.
var transitionTable = []Transition{
	{From: StatusPending, Command: CommandCancel, Operation: OperationCancel, To: StatusCancelled, Destructive: true},
	{From: StatusPaid, Command: CommandCancel, Method: PaymentCOD, Operation: OperationCancel, To: StatusCancelled, Destructive: true},
	{From: StatusPaid, Command: CommandCancel, Method: PaymentOnline, Operation: OperationRefund, To: StatusRefunded, Destructive: true},
	{From: StatusShipped, Command: CommandCancel, Operation: OperationCancel, To: StatusCancelled, Destructive: true},
	{From: StatusDelivered, Command: CommandRequestReturn, Operation: OperationRequestReturn, To: StatusDelivered, Destructive: true},
	{From: StatusPending, Command: CommandConfirmPayment, Method: PaymentOnline, Operation: OperationConfirmPayment, To: StatusPaid},
}

// Resolve returns the transition for cmd given the order's current state, or
// a validation error when the command must not be issued.
func Resolve(o *Order, cmd Command) (Transition, error) {
	if o == nil {
		return Transition{}, Validationf(CodeOrderNotLoaded, "order is not loaded")
	}
	for _, t := range transitionTable {
		if t.Command != cmd || t.From != o.Status {
			continue
		}
		if t.Method != "" && t.Method != o.PaymentMethod {
			continue
		}
		if cmd == CommandRequestReturn && o.HasReturn() {
			return Transition{}, Validationf(CodeReturnExists,
				"a return for this order is already %s", strings.ReplaceAll(string(o.Return.Status), "_", " "))
		}
		return t, nil
	}
	return Transition{}, rejectCommand(o, cmd)
}

func rejectCommand(o *Order, cmd Command) error {
	switch cmd {
	case CommandCancel:
		return Validationf(CodeNotCancellable, "an order that is %s cannot be cancelled", o.Status)
	case CommandRequestReturn:
		return Validationf(CodeReturnNotAllowed, "a return can only be requested for a delivered order")
	case CommandConfirmPayment:
		return Validationf(CodePaymentNotAllowed, "payment can only be confirmed for a pending online order")
	}
	return Validationf(CodeUnknownCommand, "unknown action %q", cmd)
}

// Allows reports whether cmd can be issued for o right now.
func Allows(o *Order, cmd Command) bool {
	_, err := Resolve(o, cmd)
	return err == nil
}

// advances lists the server-driven forward moves of the top-level machine.
var advances = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed},
	StatusPaid:    {StatusShipped, StatusFailed},
	StatusShipped: {StatusDelivered, StatusFailed},
}

// CanAdvance reports whether the server may move an order from one stage to
// the next without a client command.
func CanAdvance(from, to Status) bool {
	return slices.Contains(advances[from], to)
}

// IsKnownTransition reports whether an observed change from one status to
// another is explained by a server advance or by a command in the table.
func IsKnownTransition(from, to Status) bool {
	if from == to || CanAdvance(from, to) {
		return true
	}
	for _, t := range transitionTable {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

func (t Transition) String() string {
	return fmt.Sprintf("%s --%s/%s--> %s", t.From, t.Command, t.Operation, t.To)
}
