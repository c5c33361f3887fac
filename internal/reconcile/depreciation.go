package reconcile

import (
	"time"

	"fleet-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

// Heuristic display figures, not accounting depreciation.
const (
	AverageKmPerDay    = 350
	LossPerPeriod      = 0.01
	DepreciationPeriod = 30
	MaxLoss            = 0.99
)

type Depreciation struct {
	ElapsedDays         int             `json:"elapsed_days"`
	EstimatedOdometerKm int64           `json:"estimated_odometer_km"`
	LossPercent         decimal.Decimal `json:"loss_percent"`
	CurrentValue        decimal.Decimal `json:"current_value"`
}

// EstimateDepreciation applies straight-line usage and a fixed loss per full
// 30-day period since acquisition. The value never drops below 1% of cost.
func EstimateDepreciation(asset domain.Asset, asOf time.Time) Depreciation {
	days := 0
	if !asset.AcquiredOn.IsZero() {
		days = int(dayOf(asOf).Sub(dayOf(asset.AcquiredOn)).Hours() / 24)
	}
	if days < 0 {
		days = 0
	}

	periods := days / DepreciationPeriod
	loss := decimal.NewFromFloat(LossPerPeriod).Mul(decimal.NewFromInt(int64(periods)))
	if maxLoss := decimal.NewFromFloat(MaxLoss); loss.GreaterThan(maxLoss) {
		loss = maxLoss
	}

	value := asset.AcquisitionCost.Sub(asset.AcquisitionCost.Mul(loss))
	return Depreciation{
		ElapsedDays:         days,
		EstimatedOdometerKm: int64(days) * AverageKmPerDay,
		LossPercent:         loss.Mul(decimal.NewFromInt(100)).Round(0),
		CurrentValue:        value.Round(2),
	}
}
