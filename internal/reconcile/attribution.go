package reconcile

import (
	"context"
	"errors"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/repository"
)

// PeriodFinder resolves the rental period covering a customer's date
type PeriodFinder interface {
	FindCovering(ctx context.Context, taxID string, day time.Time) (*domain.RentalPeriod, error)
}

// AttributeAsset fills the asset plate of a transaction that has a customer
// but no asset, using the most recently started rental period covering its
// date. No covering period leaves the transaction unattributed.
func AttributeAsset(ctx context.Context, finder PeriodFinder, tx *domain.Transaction) error {
	if tx.AssetPlate != "" || tx.CustomerTaxID == "" {
		return nil
	}
	period, err := finder.FindCovering(ctx, tx.CustomerTaxID, tx.OccurredOn)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	tx.AssetPlate = period.AssetPlate
	return nil
}
