package service

import (
	"context"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/reconcile"
)

type reportService struct {
	engine *reconcile.Engine
}

func NewReportService(engine *reconcile.Engine) ReportService {
	return &reportService{engine: engine}
}

func validRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return invalidf("from and to are required")
	}
	if to.Before(from) {
		return invalidf("invalid range: %s is after %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return nil
}

func (s *reportService) Dashboard(ctx context.Context) *reconcile.Dashboard {
	return s.engine.Refresh(ctx)
}

func (s *reportService) Period(ctx context.Context, from, to time.Time) (*reconcile.PeriodView, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return s.engine.Period(ctx, from, to)
}

func (s *reportService) Customer(ctx context.Context, taxID string, from, to time.Time) (*reconcile.CustomerRollup, reconcile.Section, error) {
	if err := validRange(from, to); err != nil {
		return nil, reconcile.Section{}, err
	}
	if domain.NormalizeTaxID(taxID) == "" {
		return nil, reconcile.Section{}, invalidf("tax id is required")
	}
	return s.engine.CustomerStatement(ctx, taxID, from, to)
}

func (s *reportService) BankMovements(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return s.engine.BankMovements(ctx, from, to)
}

func (s *reportService) FleetValuation(ctx context.Context) ([]reconcile.AssetValuation, error) {
	return s.engine.FleetValuation(ctx)
}
