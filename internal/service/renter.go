package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/repository"
)

var ErrRenterExists = errors.New("renter with this tax id already exists")

// CustomerSource lists gateway customers
type CustomerSource interface {
	GetCustomers(ctx context.Context) ([]gateway.Customer, error)
}

type renterService struct {
	renterRepo repository.RenterRepository
	customers  CustomerSource
}

func NewRenterService(renterRepo repository.RenterRepository, customers CustomerSource) RenterService {
	return &renterService{renterRepo: renterRepo, customers: customers}
}

func (s *renterService) Create(ctx context.Context, renter *domain.Renter) error {
	renter.TaxID = domain.NormalizeTaxID(renter.TaxID)
	if renter.TaxID == "" || strings.TrimSpace(renter.Name) == "" {
		return invalidf("name and tax id are required")
	}
	created, err := s.renterRepo.Create(ctx, renter)
	if err != nil {
		return err
	}
	if !created {
		return ErrRenterExists
	}
	return nil
}

func (s *renterService) Get(ctx context.Context, id int64) (*domain.Renter, error) {
	return s.renterRepo.GetByID(ctx, id)
}

func (s *renterService) List(ctx context.Context) ([]domain.Renter, error) {
	return s.renterRepo.List(ctx)
}

func (s *renterService) Update(ctx context.Context, renter *domain.Renter) error {
	if strings.TrimSpace(renter.Name) == "" {
		return invalidf("name is required")
	}
	return s.renterRepo.Update(ctx, renter)
}

// SyncFromGateway upserts every gateway customer that carries a tax id
func (s *renterService) SyncFromGateway(ctx context.Context) (*SyncResult, error) {
	customers, err := s.customers.GetCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateway customers: %w", err)
	}

	result := &SyncResult{Fetched: len(customers)}
	for _, c := range customers {
		taxID := domain.NormalizeTaxID(c.CpfCnpj)
		if taxID == "" || c.Deleted {
			result.Skipped++
			continue
		}
		renter := &domain.Renter{
			Name:              strings.TrimSpace(c.Name),
			TaxID:             taxID,
			Email:             c.Email,
			Phone:             firstNonEmpty(c.MobilePhone, c.Phone),
			Address:           customerAddress(c),
			GatewayCustomerID: c.ID,
		}
		inserted, err := s.renterRepo.UpsertByTaxID(ctx, renter)
		if err != nil {
			return result, fmt.Errorf("failed to upsert renter %s: %w", c.ID, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	logger.InfoContext(ctx, "Gateway customers synced",
		"fetched", result.Fetched, "inserted", result.Inserted, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func customerAddress(c gateway.Customer) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Address, c.AddressNumber, c.Province, c.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
