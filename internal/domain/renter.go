package domain

import "strings"

// Renter is a customer renting a fleet asset. TaxID is always stored
// normalized and is the only join key against gateway customers.
type Renter struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	TaxID             string `json:"tax_id"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Address           string `json:"address,omitempty"`
	DriverLicense     string `json:"driver_license,omitempty"`
	AssetPlate        string `json:"asset_plate,omitempty"`
	GatewayCustomerID string `json:"gateway_customer_id,omitempty"`
}

// NormalizeTaxID keeps digits only. Matching is exact equality on the result.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
