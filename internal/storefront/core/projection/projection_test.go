package projection_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/projection"
)

func completed(vm projection.ViewModel) []bool {
	out := make([]bool, len(vm.Steps))
	for i, s := range vm.Steps {
		out[i] = s.Completed
	}
	return out
}

func TestProgressSteps(t *testing.T) {
	tests := []struct {
		status  domain.Status
		steps   []bool
		current int
	}{
		{domain.StatusPending, []bool{true, false, false, false}, 0},
		{domain.StatusPaid, []bool{true, true, false, false}, 1},
		{domain.StatusShipped, []bool{true, true, true, false}, 2},
		{domain.StatusDelivered, []bool{true, true, true, true}, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			vm := projection.Project(&domain.Order{ID: "o", Status: tt.status, PaymentMethod: domain.PaymentCOD})
			assert.Equal(t, tt.steps, completed(vm))
			assert.True(t, vm.OnProgressPath)
			assert.Equal(t, tt.current, vm.CurrentStep)
			assert.Nil(t, vm.Banner)
		})
	}
}

func TestOffPathStatusesShowBannerAndNoSteps(t *testing.T) {
	tests := map[domain.Status]projection.BannerKind{
		domain.StatusCancelled: projection.BannerCancelled,
		domain.StatusFailed:    projection.BannerFailed,
		domain.StatusRefunded:  projection.BannerRefunded,
	}
	for st, kind := range tests {
		t.Run(string(st), func(t *testing.T) {
			vm := projection.Project(&domain.Order{ID: "o", Status: st, PaymentMethod: domain.PaymentOnline})
			assert.Equal(t, []bool{false, false, false, false}, completed(vm))
			assert.False(t, vm.OnProgressPath)
			require.NotNil(t, vm.Banner)
			assert.Equal(t, kind, vm.Banner.Kind)
			assert.NotEmpty(t, vm.Banner.Message)
			assert.False(t, vm.IsCancellable)
		})
	}
}

func TestActionAvailability(t *testing.T) {
	tests := []struct {
		name          string
		order         domain.Order
		cancellable   bool
		refund        bool
		canReturn     bool
		canConfirmPay bool
	}{
		{"pending cod", domain.Order{Status: domain.StatusPending, PaymentMethod: domain.PaymentCOD}, true, false, false, false},
		{"pending online", domain.Order{Status: domain.StatusPending, PaymentMethod: domain.PaymentOnline}, true, false, false, true},
		{"paid online", domain.Order{Status: domain.StatusPaid, PaymentMethod: domain.PaymentOnline}, true, true, false, false},
		{"paid cod", domain.Order{Status: domain.StatusPaid, PaymentMethod: domain.PaymentCOD}, true, false, false, false},
		{"shipped online", domain.Order{Status: domain.StatusShipped, PaymentMethod: domain.PaymentOnline}, true, false, false, false},
		{"delivered", domain.Order{Status: domain.StatusDelivered, PaymentMethod: domain.PaymentCOD}, false, false, true, false},
		{"delivered with return", domain.Order{
			Status: domain.StatusDelivered, PaymentMethod: domain.PaymentCOD,
			Return: &domain.Return{Status: domain.ReturnRequested},
		}, false, false, false, false},
		{"refunded", domain.Order{Status: domain.StatusRefunded, PaymentMethod: domain.PaymentOnline}, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.order
			o.ID = "o"
			vm := projection.Project(&o)
			assert.Equal(t, tt.cancellable, vm.IsCancellable)
			assert.Equal(t, tt.refund, vm.CancelRequiresRefund)
			assert.Equal(t, tt.canReturn, vm.CanRequestReturn)
			assert.Equal(t, tt.canConfirmPay, vm.CanConfirmPayment)
		})
	}
}

func TestProjectIsIdempotentAndPure(t *testing.T) {
	o := &domain.Order{
		ID:            "ORD-3",
		Status:        domain.StatusDelivered,
		PaymentMethod: domain.PaymentOnline,
		Amount:        decimal.NewNullDecimal(decimal.RequireFromString("100")),
		Items: []domain.LineItem{
			{ProductID: "p1", Size: "M", Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
		},
		Shipment: &domain.Shipment{Carrier: "delhivery", TrackingID: "T1", Status: domain.ShipmentDelivered},
		Return:   &domain.Return{Status: domain.ReturnQCFailed, Reason: "damaged"},
	}
	before := o.Clone()

	first := projection.Project(o)
	second := projection.Project(o)
	assert.Equal(t, first, second)
	assert.Equal(t, before, o)

	require.NotNil(t, first.Return)
	assert.Equal(t, "Return qc failed", first.Return.StatusLabel)
	assert.False(t, first.Return.Closed)
	require.NotNil(t, first.Shipment)
	assert.Equal(t, "Delivered", first.Shipment.StatusLabel)
	assert.Equal(t, "₹100.00", first.Items[0].LineTotal.Display)
}

func TestMoneyDistinguishesZeroFromMissing(t *testing.T) {
	zero := projection.Project(&domain.Order{
		ID: "o", Status: domain.StatusPending, PaymentMethod: domain.PaymentCOD,
		Amount: decimal.NewNullDecimal(decimal.Zero),
	})
	assert.True(t, zero.Amount.Loaded)
	assert.Equal(t, "₹0.00", zero.Amount.Display)
	assert.Equal(t, "0.00", zero.Amount.Value)

	missing := projection.Project(&domain.Order{ID: "o", Status: domain.StatusPending, PaymentMethod: domain.PaymentCOD})
	assert.False(t, missing.Amount.Loaded)
	assert.Equal(t, projection.AmountUnavailable, missing.Amount.Display)
	assert.Empty(t, missing.Amount.Value)

	assert.Equal(t, "₹12.35", projection.FormatMoney(decimal.RequireFromString("12.345")).Display)
}

func TestProjectNilOrder(t *testing.T) {
	vm := projection.Project(nil)

	assert.False(t, vm.OnProgressPath)
	assert.Equal(t, -1, vm.CurrentStep)
	assert.Equal(t, []bool{false, false, false, false}, completed(vm))
	assert.False(t, vm.Amount.Loaded)
	assert.Equal(t, projection.AmountUnavailable, vm.Amount.Display)
	assert.False(t, vm.IsCancellable)
	assert.False(t, vm.CanRequestReturn)
	assert.False(t, vm.CanConfirmPayment)
	assert.Empty(t, vm.Items)
	assert.Nil(t, vm.Banner)
}
