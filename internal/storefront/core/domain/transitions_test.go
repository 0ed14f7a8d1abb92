package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

func order(status domain.Status, method domain.PaymentMethod) *domain.Order {
	return &domain.Order{ID: "ORD-T", Status: status, PaymentMethod: method}
}

func TestResolveCancel(t *testing.T) {
	tests := []struct {
		name   string
		status domain.Status
		method domain.PaymentMethod
		op     domain.Operation
		to     domain.Status
	}{
		{"pending cod", domain.StatusPending, domain.PaymentCOD, domain.OperationCancel, domain.StatusCancelled},
		{"pending online", domain.StatusPending, domain.PaymentOnline, domain.OperationCancel, domain.StatusCancelled},
		{"paid cod", domain.StatusPaid, domain.PaymentCOD, domain.OperationCancel, domain.StatusCancelled},
		{"paid online refunds", domain.StatusPaid, domain.PaymentOnline, domain.OperationRefund, domain.StatusRefunded},
		{"shipped online", domain.StatusShipped, domain.PaymentOnline, domain.OperationCancel, domain.StatusCancelled},
		{"shipped cod", domain.StatusShipped, domain.PaymentCOD, domain.OperationCancel, domain.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := domain.Resolve(order(tt.status, tt.method), domain.CommandCancel)
			require.NoError(t, err)
			assert.Equal(t, tt.op, tr.Operation)
			assert.Equal(t, tt.to, tr.To)
			assert.True(t, tr.Destructive)
		})
	}
}

func TestResolveCancelRejectedOutsideCancellableStates(t *testing.T) {
	for _, st := range []domain.Status{
		domain.StatusDelivered, domain.StatusCancelled, domain.StatusFailed, domain.StatusRefunded,
	} {
		for _, m := range []domain.PaymentMethod{domain.PaymentCOD, domain.PaymentOnline} {
			_, err := domain.Resolve(order(st, m), domain.CommandCancel)
			require.Error(t, err, "%s/%s", st, m)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindValidation, Code: domain.CodeNotCancellable}))
			assert.False(t, domain.Allows(order(st, m), domain.CommandCancel))
		}
	}
}

func TestResolveRequestReturn(t *testing.T) {
	o := order(domain.StatusDelivered, domain.PaymentCOD)
	tr, err := domain.Resolve(o, domain.CommandRequestReturn)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationRequestReturn, tr.Operation)
	assert.Equal(t, domain.StatusDelivered, tr.To)

	o.Return = &domain.Return{Status: domain.ReturnApproved}
	_, err = domain.Resolve(o, domain.CommandRequestReturn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindValidation, Code: domain.CodeReturnExists}))
	assert.Contains(t, err.Error(), "approved")

	_, err = domain.Resolve(order(domain.StatusShipped, domain.PaymentCOD), domain.CommandRequestReturn)
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindValidation, Code: domain.CodeReturnNotAllowed}))
}

func TestResolveConfirmPayment(t *testing.T) {
	tr, err := domain.Resolve(order(domain.StatusPending, domain.PaymentOnline), domain.CommandConfirmPayment)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, tr.To)
	assert.False(t, tr.Destructive)

	_, err = domain.Resolve(order(domain.StatusPending, domain.PaymentCOD), domain.CommandConfirmPayment)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = domain.Resolve(order(domain.StatusPaid, domain.PaymentOnline), domain.CommandConfirmPayment)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestResolveWithoutOrder(t *testing.T) {
	_, err := domain.Resolve(nil, domain.CommandCancel)
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindValidation, Code: domain.CodeOrderNotLoaded}))
}

func TestParseCommand(t *testing.T) {
	c, err := domain.ParseCommand(" Cancel ")
	require.NoError(t, err)
	assert.Equal(t, domain.CommandCancel, c)

	_, err = domain.ParseCommand("refund")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestServerAdvance(t *testing.T) {
	assert.True(t, domain.CanAdvance(domain.StatusPending, domain.StatusPaid))
	assert.True(t, domain.CanAdvance(domain.StatusShipped, domain.StatusDelivered))
	assert.True(t, domain.CanAdvance(domain.StatusPaid, domain.StatusFailed))
	assert.False(t, domain.CanAdvance(domain.StatusDelivered, domain.StatusShipped))
	assert.False(t, domain.CanAdvance(domain.StatusCancelled, domain.StatusPaid))

	assert.True(t, domain.IsKnownTransition(domain.StatusPaid, domain.StatusRefunded))
	assert.True(t, domain.IsKnownTransition(domain.StatusShipped, domain.StatusShipped))
	assert.False(t, domain.IsKnownTransition(domain.StatusRefunded, domain.StatusPending))
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusShipped.IsTerminal())
	assert.True(t, domain.StatusDelivered.IsTerminal())
	assert.True(t, domain.StatusRefunded.IsTerminal())
}
