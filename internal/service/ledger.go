package service

import (
	"context"
	"strings"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/reconcile"
	"fleet-backoffice/internal/repository"
)

type ledgerService struct {
	txRepo     repository.TransactionRepository
	periods    reconcile.PeriodFinder
	categories []string
	allowed    map[string]bool
}

// NewLedgerService validates manual money-out rows against categories. An
// empty list accepts any non-empty category.
func NewLedgerService(txRepo repository.TransactionRepository, periods reconcile.PeriodFinder, categories []string) LedgerService {
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return &ledgerService{txRepo: txRepo, periods: periods, categories: categories, allowed: allowed}
}

func (s *ledgerService) prepare(ctx context.Context, tx *domain.Transaction) error {
	tx.Source = domain.SourceManual
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return &InputError{Err: err}
	}
	if tx.Kind == domain.KindMoneyOut {
		tx.Category = strings.TrimSpace(tx.Category)
		if tx.Category == "" {
			return &InputError{Err: domain.ErrMissingCategory}
		}
		if len(s.allowed) > 0 && !s.allowed[strings.ToLower(tx.Category)] {
			return invalidf("unknown expense category %q", tx.Category)
		}
	}
	return reconcile.AttributeAsset(ctx, s.periods, tx)
}

func (s *ledgerService) Record(ctx context.Context, tx *domain.Transaction) error {
	if err := s.prepare(ctx, tx); err != nil {
		return err
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Ledger entry recorded", "id", *tx.ID, "kind", tx.Kind, "asset", tx.AssetPlate)
	return nil
}

func (s *ledgerService) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

func (s *ledgerService) Update(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == nil {
		return invalidf("transaction id is required")
	}
	if err := s.prepare(ctx, tx); err != nil {
		return err
	}
	return s.txRepo.Update(ctx, tx)
}

func (s *ledgerService) SetStatus(ctx context.Context, id int64, status domain.SettlementStatus) error {
	if _, err := domain.ParseSettlementStatus(string(status)); err != nil {
		return &InputError{Err: err}
	}
	return s.txRepo.UpdateStatus(ctx, id, status)
}

func (s *ledgerService) Delete(ctx context.Context, id int64) error {
	return s.txRepo.Delete(ctx, id)
}

func (s *ledgerService) List(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if to.Before(from) {
		return nil, invalidf("invalid range: %s is after %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return s.txRepo.ListByPeriod(ctx, from, to)
}

func (s *ledgerService) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}
