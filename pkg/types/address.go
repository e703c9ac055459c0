package types

import "strings"

// AddressSnapshot is the delivery address copied onto an order at checkout.
type AddressSnapshot struct {
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postalCode" validate:"required"`
	Country    string  `json:"country" validate:"required"`
}

// Pincode is the normalized postal code used for store service-area matching.
func (a AddressSnapshot) Pincode() string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(a.PostalCode), " ", ""))
}
