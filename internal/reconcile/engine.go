package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Gateway interface {
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	GetAllPayments(ctx context.Context, from, to time.Time) ([]gateway.Payment, error)
	GetReceivedPayments(ctx context.Context, from, to time.Time) ([]gateway.Payment, error)
	GetCustomers(ctx context.Context) ([]gateway.Customer, error)
}

type Bank interface {
	GetBalance(ctx context.Context, asOf *time.Time) (*bank.Balance, error)
	GetStatement(ctx context.Context, from, to time.Time) (*bank.Statement, error)
}

type Ledger interface {
	ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
}

type Renters interface {
	List(ctx context.Context) ([]domain.Renter, error)
}

type Assets interface {
	List(ctx context.Context) ([]domain.Asset, error)
}

// Section flags whether a part of a view could be computed. An unavailable
// section carries zero figures and the error that caused it.
type Section struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

func sectionOf(errs ...error) Section {
	if err := errors.Join(errs...); err != nil {
		return Section{Available: false, Error: err.Error()}
	}
	return Section{Available: true}
}

type Engine struct {
	gateway Gateway
	bank    Bank
	ledger  Ledger
	renters Renters
	assets  Assets
	now     func() time.Time
}

func NewEngine(gw Gateway, bk Bank, ledger Ledger, renters Renters, assets Assets) *Engine {
	return &Engine{gateway: gw, bank: bk, ledger: ledger, renters: renters, assets: assets, now: time.Now}
}

// PeriodView is the merged ledger and gateway picture for a date range
type PeriodView struct {
	From         time.Time            `json:"from"`
	To           time.Time            `json:"to"`
	Transactions []domain.Transaction `json:"transactions"`
	DRE          DRE                  `json:"dre"`
	Customers    []CustomerRollup     `json:"customers"`
	Totals       Totals               `json:"totals"`
	Gateway      Section              `json:"gateway"`
}

// Period merges manual transactions with gateway payments created in
// [from, to]. A gateway failure degrades to ledger-only figures and is
// flagged; a ledger failure is returned.
func (e *Engine) Period(ctx context.Context, from, to time.Time) (*PeriodView, error) {
	var (
		manual    []domain.Transaction
		payments  []gateway.Payment
		customers []gateway.Customer
		renters   []domain.Renter

		ledgerErr, paymentsErr, customersErr, rentersErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		manual, ledgerErr = e.ledger.ListByPeriod(ctx, from, to)
		return nil
	})
	g.Go(func() error {
		payments, paymentsErr = e.gateway.GetAllPayments(ctx, from, to)
		return nil
	})
	g.Go(func() error {
		customers, customersErr = e.gateway.GetCustomers(ctx)
		return nil
	})
	g.Go(func() error {
		renters, rentersErr = e.renters.List(ctx)
		return nil
	})
	g.Wait()

	if ledgerErr != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", ledgerErr)
	}
	if rentersErr != nil {
		logger.WarnContext(ctx, "Renter directory unavailable for period view", "error", rentersErr)
	}

	if customersErr != nil {
		logger.WarnContext(ctx, "Gateway customers unavailable, using local mapping", "error", customersErr)
		customers = nil
	}
	names, taxIDByCustomer := customerIndex(renters, customers)

	txs := make([]domain.Transaction, 0, len(manual)+len(payments))
	txs = append(txs, manual...)
	if paymentsErr != nil {
		logger.WarnContext(ctx, "Gateway payments unavailable for period view", "error", paymentsErr)
	} else {
		for _, p := range payments {
			txs = append(txs, FromPayment(p, taxIDByCustomer[p.Customer]))
		}
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].OccurredOn.Before(txs[j].OccurredOn) })

	rollups := Rollup(txs, names)
	return &PeriodView{
		From:         dayOf(from),
		To:           dayOf(to),
		Transactions: txs,
		DRE:          ComputeDRE(from, to, txs),
		Customers:    rollups,
		Totals:       SumRollups(rollups),
		Gateway:      sectionOf(paymentsErr),
	}, nil
}

// Receipts rolls up gateway payments received (by payment date) within
// [from, to], one row per customer. Unlike Period it fails when the gateway
// is unreachable.
func (e *Engine) Receipts(ctx context.Context, from, to time.Time) ([]CustomerRollup, error) {
	var (
		payments  []gateway.Payment
		customers []gateway.Customer
		renters   []domain.Renter

		customersErr, rentersErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = e.gateway.GetReceivedPayments(gctx, from, to)
		return err
	})
	g.Go(func() error {
		customers, customersErr = e.gateway.GetCustomers(gctx)
		return nil
	})
	g.Go(func() error {
		renters, rentersErr = e.renters.List(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load received payments: %w", err)
	}
	if customersErr != nil {
		logger.WarnContext(ctx, "Gateway customers unavailable, using local mapping", "error", customersErr)
		customers = nil
	}
	if rentersErr != nil {
		logger.WarnContext(ctx, "Renter directory unavailable for receipts", "error", rentersErr)
	}

	names, taxIDByCustomer := customerIndex(renters, customers)
	txs := make([]domain.Transaction, 0, len(payments))
	for _, p := range payments {
		txs = append(txs, FromPayment(p, taxIDByCustomer[p.Customer]))
	}
	return Rollup(txs, names), nil
}

// customerIndex maps tax ids to display names and gateway customer ids to
// tax ids. Local renters win on names; gateway data fills the gaps.
func customerIndex(renters []domain.Renter, customers []gateway.Customer) (map[string]string, map[string]string) {
	names := map[string]string{}
	taxIDByCustomer := map[string]string{}
	for _, r := range renters {
		names[r.TaxID] = r.Name
		if r.GatewayCustomerID != "" {
			taxIDByCustomer[r.GatewayCustomerID] = r.TaxID
		}
	}
	for _, c := range customers {
		taxID := domain.NormalizeTaxID(c.CpfCnpj)
		if taxID == "" {
			continue
		}
		taxIDByCustomer[c.ID] = taxID
		if _, ok := names[taxID]; !ok {
			names[taxID] = c.Name
		}
	}
	return names, taxIDByCustomer
}

// CustomerStatement is the period view narrowed to one tax id
func (e *Engine) CustomerStatement(ctx context.Context, taxID string, from, to time.Time) (*CustomerRollup, Section, error) {
	view, err := e.Period(ctx, from, to)
	if err != nil {
		return nil, Section{}, err
	}
	taxID = domain.NormalizeTaxID(taxID)
	for _, r := range view.Customers {
		if r.TaxID == taxID {
			return &r, view.Gateway, nil
		}
	}
	return &CustomerRollup{TaxID: taxID, Transactions: []domain.Transaction{}}, view.Gateway, nil
}

// BankMovements materializes the bank statement for [from, to]
func (e *Engine) BankMovements(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	stmt, err := e.bank.GetStatement(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(stmt.Transactions))
	for _, line := range stmt.Transactions {
		out = append(out, FromStatementLine(line))
	}
	return out, nil
}

type AssetValuation struct {
	Asset        domain.Asset `json:"asset"`
	Depreciation Depreciation `json:"depreciation"`
}

func (e *Engine) FleetValuation(ctx context.Context) ([]AssetValuation, error) {
	assets, err := e.assets.List(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]AssetValuation, 0, len(assets))
	for _, a := range assets {
		out = append(out, AssetValuation{Asset: a, Depreciation: EstimateDepreciation(a, now)})
	}
	return out, nil
}
