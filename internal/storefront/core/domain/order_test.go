package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

func TestOrderDecodeNormalisesCasing(t *testing.T) {
	raw := `{
		"orderId": "ORD-9",
		"status": "Cancelled",
		"paymentMethod": "cod",
		"amount": "249.5",
		"items": [{"productId": "p1", "size": "M", "quantity": 2, "unitPrice": "124.75"}],
		"shipment": {"carrier": "bluedart", "trackingId": "BD1", "status": "IN_TRANSIT"},
		"return": {"status": "QC_Passed", "reason": "too small"}
	}`
	var o domain.Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, domain.PaymentCOD, o.PaymentMethod)
	assert.True(t, o.Amount.Valid)
	assert.True(t, o.Amount.Decimal.Equal(decimal.RequireFromString("249.50")))
	assert.Equal(t, domain.ShipmentInTransit, o.Shipment.Status)
	assert.Equal(t, domain.ReturnQCPassed, o.Return.Status)
	assert.True(t, o.Items[0].Subtotal().Equal(decimal.RequireFromString("249.5")))
	require.NoError(t, o.Validate())
}

func TestOrderDecodeRejectsUnknownStatus(t *testing.T) {
	var o domain.Order
	err := json.Unmarshal([]byte(`{"orderId":"x","status":"lost","paymentMethod":"COD"}`), &o)
	assert.Error(t, err)
}

func TestOrderAmountMissingIsNotZero(t *testing.T) {
	var o domain.Order
	require.NoError(t, json.Unmarshal([]byte(`{"orderId":"x","status":"paid","paymentMethod":"ONLINE"}`), &o))
	assert.False(t, o.Amount.Valid)

	require.NoError(t, json.Unmarshal([]byte(`{"orderId":"x","status":"paid","paymentMethod":"ONLINE","amount":0}`), &o))
	assert.True(t, o.Amount.Valid)
	assert.True(t, o.Amount.Decimal.IsZero())
}

func TestOrderValidate(t *testing.T) {
	base := func() *domain.Order {
		return &domain.Order{
			ID:            "ORD-1",
			Status:        domain.StatusPending,
			PaymentMethod: domain.PaymentCOD,
			Amount:        decimal.NewNullDecimal(decimal.NewFromInt(10)),
			Items:         []domain.LineItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
		}
	}
	require.NoError(t, base().Validate())

	tests := map[string]func(o *domain.Order){
		"missing id":      func(o *domain.Order) { o.ID = " " },
		"missing status":  func(o *domain.Order) { o.Status = "" },
		"missing method":  func(o *domain.Order) { o.PaymentMethod = "" },
		"negative amount": func(o *domain.Order) { o.Amount = decimal.NewNullDecimal(decimal.NewFromInt(-1)) },
		"zero quantity":   func(o *domain.Order) { o.Items[0].Quantity = 0 },
		"negative price":  func(o *domain.Order) { o.Items[0].UnitPrice = decimal.NewFromInt(-5) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			o := base()
			mutate(o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestOrderCloneIsDeep(t *testing.T) {
	o := &domain.Order{
		ID:     "ORD-1",
		Items:  []domain.LineItem{{ProductID: "p", Quantity: 1}},
		Return: &domain.Return{Status: domain.ReturnRequested},
	}
	c := o.Clone()
	c.Items[0].Quantity = 5
	c.Return.Status = domain.ReturnRejected

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, domain.ReturnRequested, o.Return.Status)
	assert.Nil(t, (*domain.Order)(nil).Clone())
}

func TestSubMachines(t *testing.T) {
	assert.True(t, domain.CanReturnTransition(domain.ReturnRequested, domain.ReturnApproved))
	assert.True(t, domain.CanReturnTransition(domain.ReturnQCFailed, domain.ReturnRejected))
	assert.True(t, domain.CanReturnTransition(domain.ReturnQCPassed, domain.ReturnRefunded))
	assert.False(t, domain.CanReturnTransition(domain.ReturnRefunded, domain.ReturnRequested))
	assert.True(t, domain.ReturnRejected.IsTerminal())

	assert.True(t, domain.CanShipmentTransition(domain.ShipmentLabelCreated, domain.ShipmentPickedUp))
	assert.True(t, domain.CanShipmentTransition(domain.ShipmentInTransit, domain.ShipmentException))
	assert.True(t, domain.CanShipmentTransition(domain.ShipmentException, domain.ShipmentOutForDelivery))
	assert.False(t, domain.CanShipmentTransition(domain.ShipmentDelivered, domain.ShipmentException))

	_, err := domain.ParseShipmentStatus("teleported")
	assert.Error(t, err)
}

func TestAddressSnapshotIsACopy(t *testing.T) {
	a := domain.Address{
		Title: "Home", Name: " Asha ", Line1: "12 MG Road", City: "Pune", State: "MH",
		Pincode: "411001", Phone: "9876543210",
	}
	require.NoError(t, a.Validate())

	snap := a.Snapshot()
	a.City = "Mumbai"
	assert.Equal(t, "Pune", snap.City)
	assert.Equal(t, "Asha", snap.Name)
	require.NoError(t, snap.Validate())

	bad := a
	bad.Pincode = "4110"
	assert.True(t, errors.Is(bad.Validate(), domain.ErrValidation))
	bad = a
	bad.Phone = "12345"
	assert.True(t, errors.Is(bad.Validate(), domain.ErrValidation))
	bad = a
	bad.State = ""
	assert.ErrorContains(t, bad.Validate(), "state")
}

func TestCart(t *testing.T) {
	c := domain.NewCart([]domain.CartLine{
		{CartKey: domain.CartKey{ProductID: "p2", Size: "M"}, Quantity: 1},
		{CartKey: domain.CartKey{ProductID: "p1", Size: "L"}, Quantity: 2},
		{CartKey: domain.CartKey{ProductID: "p1", Size: "L"}, Quantity: 1},
	})
	assert.Equal(t, 3, c.Quantity(domain.CartKey{ProductID: "p1", Size: "L"}))
	assert.Equal(t, "p1", c.Lines()[0].ProductID)

	require.NoError(t, c.Set(domain.CartKey{ProductID: "p2", Size: "M"}, 0))
	assert.Equal(t, 1, c.Len())
	assert.Error(t, c.Set(domain.CartKey{ProductID: "p3"}, 1))
	assert.Error(t, c.Set(domain.CartKey{ProductID: "p3", Size: "S"}, -1))

	c.Clear()
	assert.True(t, c.IsEmpty())
}
