package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
)

var (
	ErrAssetExists       = errors.New("asset with this plate already exists")
	ErrRentalOpen        = errors.New("asset already has an open rental period")
	ErrNoOpenRental      = errors.New("asset has no open rental period")
	ErrAssetNotAvailable = errors.New("asset is not available for rental")
)

type fleetService struct {
	assetRepo  repository.AssetRepository
	renterRepo repository.RenterRepository
	periodRepo repository.RentalPeriodRepository
}

func NewFleetService(assetRepo repository.AssetRepository, renterRepo repository.RenterRepository, periodRepo repository.RentalPeriodRepository) FleetService {
	return &fleetService{assetRepo: assetRepo, renterRepo: renterRepo, periodRepo: periodRepo}
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func (s *fleetService) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	asset.Plate = normalizePlate(asset.Plate)
	if asset.Plate == "" || strings.TrimSpace(asset.Model) == "" {
		return invalidf("plate and model are required")
	}
	if asset.Availability == "" {
		asset.Availability = domain.AssetAvailable
	}
	if _, err := domain.ParseAssetAvailability(string(asset.Availability)); err != nil {
		return &InputError{Err: err}
	}
	if asset.AcquisitionCost.IsNegative() {
		return &InputError{Err: domain.ErrNegativeAmount}
	}
	// ownership goes through Bind so both sides stay in sync
	asset.RenterID = nil

	created, err := s.assetRepo.Create(ctx, asset)
	if err != nil {
		return err
	}
	if !created {
		return ErrAssetExists
	}
	return nil
}

func (s *fleetService) GetAsset(ctx context.Context, plate string) (*domain.Asset, error) {
	return s.assetRepo.GetByPlate(ctx, normalizePlate(plate))
}

func (s *fleetService) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return s.assetRepo.List(ctx)
}

func (s *fleetService) UpdateAsset(ctx context.Context, asset *domain.Asset) error {
	asset.Plate = normalizePlate(asset.Plate)
	if _, err := domain.ParseAssetAvailability(string(asset.Availability)); err != nil {
		return &InputError{Err: err}
	}
	return s.assetRepo.Update(ctx, asset)
}

func (s *fleetService) Bind(ctx context.Context, plate string, renterID int64) error {
	plate = normalizePlate(plate)
	if err := s.assetRepo.Bind(ctx, plate, renterID); err != nil {
		return fmt.Errorf("failed to bind %s to renter %d: %w", plate, renterID, err)
	}
	logger.InfoContext(ctx, "Asset bound", "plate", plate, "renter_id", renterID)
	return nil
}

func (s *fleetService) Unbind(ctx context.Context, plate string) error {
	plate = normalizePlate(plate)
	if err := s.assetRepo.Unbind(ctx, plate); err != nil {
		return fmt.Errorf("failed to unbind %s: %w", plate, err)
	}
	logger.InfoContext(ctx, "Asset unbound", "plate", plate)
	return nil
}

// StartRental opens a period for the renter and binds the asset to them
func (s *fleetService) StartRental(ctx context.Context, plate string, renterID int64, start time.Time) (*domain.RentalPeriod, error) {
	plate = normalizePlate(plate)
	asset, err := s.assetRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	if asset.Availability == domain.AssetSold || asset.Availability == domain.AssetInService {
		return nil, ErrAssetNotAvailable
	}
	renter, err := s.renterRepo.GetByID(ctx, renterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.periodRepo.GetOpenByAsset(ctx, plate); err == nil {
		return nil, ErrRentalOpen
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	period := &domain.RentalPeriod{
		CustomerTaxID: renter.TaxID,
		AssetPlate:    plate,
		StartDate:     start,
	}
	if err := s.periodRepo.Start(ctx, period); err != nil {
		return nil, err
	}
	if err := s.Bind(ctx, plate, renterID); err != nil {
		return nil, err
	}
	return period, nil
}

// EndRental closes the open period and releases the asset
func (s *fleetService) EndRental(ctx context.Context, plate string, end time.Time) (*domain.RentalPeriod, error) {
	plate = normalizePlate(plate)
	period, err := s.periodRepo.GetOpenByAsset(ctx, plate)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoOpenRental
	}
	if err != nil {
		return nil, err
	}
	if end.Before(period.StartDate) {
		return nil, invalidf("end date %s precedes start date %s", end.Format(time.DateOnly), period.StartDate.Format(time.DateOnly))
	}

	if err := s.periodRepo.End(ctx, period.ID, end); err != nil {
		return nil, err
	}
	period.EndDate = &end
	if err := s.Unbind(ctx, plate); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *fleetService) RentalHistory(ctx context.Context, plate string) ([]domain.RentalPeriod, error) {
	return s.periodRepo.ListByAsset(ctx, normalizePlate(plate))
}
