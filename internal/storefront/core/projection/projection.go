// Package projection derives the read-only view of an order that the
// storefront renders. Project is pure: it reads the order and nothing else.
package projection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// Step labels of the progress indicator, in order.
var StepLabels = [...]string{"Order Placed", "Order Packed", "In Transit", "Delivered"}

// progressPath maps a status onto the step it completes.
var progressPath = map[domain.Status]int{
	domain.StatusPending:   0,
	domain.StatusPaid:      1,
	domain.StatusShipped:   2,
	domain.StatusDelivered: 3,
}

type Step struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

type BannerKind string

const (
	BannerCancelled BannerKind = "cancelled"
	BannerFailed    BannerKind = "failed"
	BannerRefunded  BannerKind = "refunded"
)

type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

var banners = map[domain.Status]Banner{
	domain.StatusCancelled: {Kind: BannerCancelled, Message: "This order was cancelled."},
	domain.StatusFailed:    {Kind: BannerFailed, Message: "This order could not be completed."},
	domain.StatusRefunded:  {Kind: BannerRefunded, Message: "This order was cancelled and the payment refunded."},
}

type ItemView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
	LineTotal Money  `json:"lineTotal"`
}

type ShipmentView struct {
	Carrier     string                `json:"carrier"`
	TrackingID  string                `json:"trackingId"`
	Status      domain.ShipmentStatus `json:"status"`
	StatusLabel string                `json:"statusLabel"`
	LabelURL    string                `json:"labelUrl,omitempty"`
	Exception   bool                  `json:"exception"`
}

type ReturnView struct {
	Status      domain.ReturnStatus `json:"status"`
	StatusLabel string              `json:"statusLabel"`
	Reason      string              `json:"reason,omitempty"`
	RequestedAt time.Time           `json:"requestedAt"`
	Closed      bool                `json:"closed"`
}

// ViewModel is everything the order-detail page needs to render and to
// decide which actions to offer.
type ViewModel struct {
	OrderID        string                 `json:"orderId"`
	Status         domain.Status          `json:"status"`
	StatusLabel    string                 `json:"statusLabel"`
	PaymentMethod  domain.PaymentMethod   `json:"paymentMethod"`
	Steps          []Step                 `json:"steps"`
	CurrentStep    int                    `json:"currentStep"`
	OnProgressPath bool                   `json:"onProgressPath"`
	Banner         *Banner                `json:"banner,omitempty"`
	Amount         Money                  `json:"amount"`
	Items          []ItemView             `json:"items"`
	Address        domain.AddressSnapshot `json:"address"`
	Shipment       *ShipmentView          `json:"shipment,omitempty"`
	Return         *ReturnView            `json:"return,omitempty"`

	IsCancellable        bool `json:"isCancellable"`
	CancelRequiresRefund bool `json:"cancelRequiresRefund"`
	CanRequestReturn     bool `json:"canRequestReturn"`
	CanConfirmPayment    bool `json:"canConfirmPayment"`
}

// Project computes the view of o. CurrentStep is -1 only together with
// OnProgressPath == false; callers must branch on OnProgressPath. A nil order
// projects to an empty view with every step incomplete and no action offered.
func Project(o *domain.Order) ViewModel {
	if o == nil {
		vm := ViewModel{
			Amount:      FormatNullMoney(decimal.NullDecimal{}),
			Steps:       make([]Step, len(StepLabels)),
			CurrentStep: -1,
			Items:       []ItemView{},
		}
		for i, label := range StepLabels {
			vm.Steps[i] = Step{Label: label}
		}
		return vm
	}
	vm := ViewModel{
		OrderID:       o.ID,
		Status:        o.Status,
		StatusLabel:   humanize(string(o.Status)),
		PaymentMethod: o.PaymentMethod,
		Amount:        FormatNullMoney(o.Amount),
		Address:       o.Address,
		Steps:         make([]Step, len(StepLabels)),
		CurrentStep:   -1,
	}

	idx, onPath := progressPath[o.Status]
	vm.OnProgressPath = onPath
	for i, label := range StepLabels {
		vm.Steps[i] = Step{Label: label, Completed: onPath && i <= idx}
	}
	if onPath {
		vm.CurrentStep = idx
	} else if b, ok := banners[o.Status]; ok {
		vm.Banner = &b
	}

	cancel, cancelErr := domain.Resolve(o, domain.CommandCancel)
	vm.IsCancellable = cancelErr == nil
	vm.CancelRequiresRefund = cancelErr == nil && cancel.Operation == domain.OperationRefund
	vm.CanRequestReturn = domain.Allows(o, domain.CommandRequestReturn)
	vm.CanConfirmPayment = domain.Allows(o, domain.CommandConfirmPayment)

	vm.Items = make([]ItemView, len(o.Items))
	for i, it := range o.Items {
		vm.Items[i] = ItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			UnitPrice: FormatMoney(it.UnitPrice),
			LineTotal: FormatMoney(it.Subtotal()),
		}
	}

	if s := o.Shipment; s != nil {
		vm.Shipment = &ShipmentView{
			Carrier:     s.Carrier,
			TrackingID:  s.TrackingID,
			Status:      s.Status,
			StatusLabel: humanize(string(s.Status)),
			LabelURL:    s.LabelURL,
			Exception:   s.Status == domain.ShipmentException,
		}
	}
	if o.HasReturn() {
		vm.Return = &ReturnView{
			Status:      o.Return.Status,
			StatusLabel: "Return " + strings.ToLower(humanize(string(o.Return.Status))),
			Reason:      o.Return.Reason,
			RequestedAt: o.Return.RequestedAt,
			Closed:      o.Return.Status.IsTerminal(),
		}
	}
	return vm
}

// humanize turns "out_for_delivery" into "Out for delivery".
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
