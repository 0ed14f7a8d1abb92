package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ReturnStatus is the post-delivery return workflow. It runs independently of
// the shipment and never touches the amount or items captured at purchase.
type ReturnStatus string

const (
	ReturnRequested       ReturnStatus = "requested"
	ReturnApproved        ReturnStatus = "approved"
	ReturnPickupScheduled ReturnStatus = "pickup_scheduled"
	ReturnPicked          ReturnStatus = "picked"
	ReturnQCPassed        ReturnStatus = "qc_passed"
	ReturnQCFailed        ReturnStatus = "qc_failed"
	ReturnRejected        ReturnStatus = "rejected"
	ReturnRefunded        ReturnStatus = "refunded"
)

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested:       {ReturnApproved, ReturnRejected, ReturnRefunded},
	ReturnApproved:        {ReturnPickupScheduled},
	ReturnPickupScheduled: {ReturnPicked},
	ReturnPicked:          {ReturnQCPassed, ReturnQCFailed},
	ReturnQCPassed:        {ReturnRefunded},
	ReturnQCFailed:        {ReturnRejected},
	ReturnRejected:        {},
	ReturnRefunded:        {},
}

func ParseReturnStatus(s string) (ReturnStatus, error) {
	st := ReturnStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := returnTransitions[st]; !ok {
		return "", fmt.Errorf("unknown return status %q", s)
	}
	return st, nil
}

// CanReturnTransition reports whether a return may move from one state to another.
func CanReturnTransition(from, to ReturnStatus) bool {
	return slices.Contains(returnTransitions[from], to)
}

func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnRejected || s == ReturnRefunded
}

func (s *ReturnStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("return status: %w", err)
	}
	st, err := ParseReturnStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Return is present once a return has been requested.
type Return struct {
	Status      ReturnStatus `json:"status"`
	Reason      string       `json:"reason"`
	RequestedAt time.Time    `json:"requestedAt"`
}
