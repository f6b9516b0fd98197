package types

import "strings"

// Address is the shipping address snapshot stored on orders and the saved
// address entries on a user profile. Persisted as jsonb, so plain JSON tags
// are the serialization contract.
type Address struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Validate reports whether the minimum shippable fields are present.
func (a Address) Validate() bool {
	return strings.TrimSpace(a.Address) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}
