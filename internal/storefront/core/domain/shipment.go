package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ShipmentStatus is the carrier-reported progress nested under a shipped or
// delivered order.
type ShipmentStatus string

const (
	ShipmentLabelCreated   ShipmentStatus = "label_created"
	ShipmentPickedUp       ShipmentStatus = "picked_up"
	ShipmentInTransit      ShipmentStatus = "in_transit"
	ShipmentOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentDelivered      ShipmentStatus = "delivered"
	ShipmentException      ShipmentStatus = "exception"
)

// shipmentTransitions lists the carrier events the client accepts as forward
// progress. An exception can be raised from any non-terminal stage and is
// cleared by a re-attempt.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentLabelCreated:   {ShipmentPickedUp, ShipmentException},
	ShipmentPickedUp:       {ShipmentInTransit, ShipmentException},
	ShipmentInTransit:      {ShipmentOutForDelivery, ShipmentException},
	ShipmentOutForDelivery: {ShipmentDelivered, ShipmentException},
	ShipmentException:      {ShipmentInTransit, ShipmentOutForDelivery, ShipmentDelivered},
	ShipmentDelivered:      {},
}

func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	st := ShipmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := shipmentTransitions[st]; !ok {
		return "", fmt.Errorf("unknown shipment status %q", s)
	}
	return st, nil
}

// CanShipmentTransition reports whether the carrier may move from one stage to another.
func CanShipmentTransition(from, to ShipmentStatus) bool {
	return slices.Contains(shipmentTransitions[from], to)
}

func (s ShipmentStatus) IsTerminal() bool { return s == ShipmentDelivered }

func (s *ShipmentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("shipment status: %w", err)
	}
	st, err := ParseShipmentStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Shipment is present once the order has been dispatched.
type Shipment struct {
	Carrier     string         `json:"carrier"`
	TrackingID  string         `json:"trackingId"`
	Status      ShipmentStatus `json:"status"`
	LabelURL    string         `json:"labelUrl,omitempty"`
	ShippedAt   *time.Time     `json:"shippedAt,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty"`
}
