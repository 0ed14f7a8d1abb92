package domain

import (
	"regexp"
	"strings"
)

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
)

// Address is an entry in the user's address book.
type Address struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

func (a Address) Validate() error {
	required := []struct{ field, value string }{
		{"name", a.Name},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Validationf(CodeInvalidAddress, "address %s is required", r.field)
		}
	}
	return validateContact(a.Pincode, a.Phone)
}

// Snapshot copies the address by value into the shape stored on an order.
// Later edits to the address book never reach orders placed before them.
func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Name:    strings.TrimSpace(a.Name),
		Line1:   strings.TrimSpace(a.Line1),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
		Phone:   strings.TrimSpace(a.Phone),
	}
}

// AddressSnapshot is the shipping address captured at checkout.
type AddressSnapshot struct {
	Name    string `json:"name"`
	Line1   string `json:"line1,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

func (s AddressSnapshot) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return Validationf(CodeInvalidAddress, "address name is required")
	}
	if strings.TrimSpace(s.City) == "" {
		return Validationf(CodeInvalidAddress, "address city is required")
	}
	return validateContact(s.Pincode, s.Phone)
}

func validateContact(pincode, phone string) error {
	if !pincodePattern.MatchString(strings.TrimSpace(pincode)) {
		return Validationf(CodeInvalidAddress, "pincode must be 6 digits")
	}
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return Validationf(CodeInvalidAddress, "phone must be 10 digits")
	}
	return nil
}
