package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AssetAvailability string

const (
	AssetAvailable AssetAvailability = "available"
	AssetRented    AssetAvailability = "rented"
	AssetInService AssetAvailability = "in_service"
	AssetSold      AssetAvailability = "sold"
)

func ParseAssetAvailability(s string) (AssetAvailability, error) {
	switch a := AssetAvailability(s); a {
	case AssetAvailable, AssetRented, AssetInService, AssetSold:
		return a, nil
	}
	return "", fmt.Errorf("unknown asset availability %q", s)
}

// Asset is a rentable fleet unit identified by its plate.
type Asset struct {
	Plate           string            `json:"plate"`
	Model           string            `json:"model"`
	Availability    AssetAvailability `json:"availability"`
	RenterID        *int64            `json:"renter_id,omitempty"`
	AcquisitionCost decimal.Decimal   `json:"acquisition_cost"`
	AcquiredOn      time.Time         `json:"acquired_on"`
	OdometerKm      int64             `json:"odometer_km"`
}
