package reconcile

import (
	"context"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider/gateway"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const gatewayMetricsDays = 30

type BankSection struct {
	Status  Section         `json:"status"`
	Balance decimal.Decimal `json:"balance"`
}

type GatewaySection struct {
	Status    Section         `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
	Received  int             `json:"received_30d"`
	Overdue   int             `json:"overdue_30d"`
	Customers int             `json:"customers"`
}

type FleetSection struct {
	Status        Section `json:"status"`
	Total         int     `json:"total"`
	Rented        int     `json:"rented"`
	Idle          int     `json:"idle"`
	InService     int     `json:"in_service"`
	ActiveRenters int     `json:"active_renters"`
}

type LedgerSection struct {
	Status               Section         `json:"status"`
	PendingRevenueMonth  decimal.Decimal `json:"pending_revenue_month"`
	PendingExpensesToday decimal.Decimal `json:"pending_expenses_today"`
	PendingExpensesMonth decimal.Decimal `json:"pending_expenses_month"`
	NetEstimate          decimal.Decimal `json:"net_estimate"`
}

type Dashboard struct {
	RefreshedAt time.Time      `json:"refreshed_at"`
	Bank        BankSection    `json:"bank"`
	Gateway     GatewaySection `json:"gateway"`
	Fleet       FleetSection   `json:"fleet"`
	Ledger      LedgerSection  `json:"ledger"`
}

// Refresh fans out to every source once. It never fails: each source that
// errors leaves its section at zero with the error attached.
func (e *Engine) Refresh(ctx context.Context) *Dashboard {
	now := e.now()
	today := dayOf(now)
	d := &Dashboard{RefreshedAt: now}

	var (
		bankErr, gwBalanceErr, gwPaymentsErr, gwCustomersErr error
		assetsErr, rentersErr, ledgerErr                     error

		payments  []gateway.Payment
		customers []gateway.Customer
		assets    []domain.Asset
		renters   []domain.Renter
		monthTxs  []domain.Transaction
	)

	var g errgroup.Group
	g.Go(func() error {
		bal, err := e.bank.GetBalance(ctx, nil)
		if err != nil {
			bankErr = err
			return nil
		}
		d.Bank.Balance = bal.Disponivel
		return nil
	})
	g.Go(func() error {
		bal, err := e.gateway.GetBalance(ctx)
		if err != nil {
			gwBalanceErr = err
			return nil
		}
		d.Gateway.Balance = bal
		return nil
	})
	g.Go(func() error {
		payments, gwPaymentsErr = e.gateway.GetAllPayments(ctx, today.AddDate(0, 0, -gatewayMetricsDays), today)
		return nil
	})
	g.Go(func() error {
		customers, gwCustomersErr = e.gateway.GetCustomers(ctx)
		return nil
	})
	g.Go(func() error {
		assets, assetsErr = e.assets.List(ctx)
		return nil
	})
	g.Go(func() error {
		renters, rentersErr = e.renters.List(ctx)
		return nil
	})
	g.Go(func() error {
		month := domain.MonthOf(today)
		monthTxs, ledgerErr = e.ledger.ListByPeriod(ctx, month.FirstDay(), month.LastDay())
		return nil
	})
	g.Wait()

	d.Bank.Status = sectionOf(bankErr)

	for _, p := range payments {
		switch {
		case IsReceived(p.Status):
			d.Gateway.Received++
		case p.Status == gateway.StatusOverdue:
			d.Gateway.Overdue++
		}
	}
	d.Gateway.Customers = len(customers)
	d.Gateway.Status = sectionOf(gwBalanceErr, gwPaymentsErr, gwCustomersErr)

	for _, a := range assets {
		d.Fleet.Total++
		switch a.Availability {
		case domain.AssetRented:
			d.Fleet.Rented++
		case domain.AssetAvailable:
			d.Fleet.Idle++
		case domain.AssetInService:
			d.Fleet.InService++
		}
	}
	for _, r := range renters {
		if r.AssetPlate != "" {
			d.Fleet.ActiveRenters++
		}
	}
	d.Fleet.Status = sectionOf(assetsErr, rentersErr)

	for _, tx := range monthTxs {
		if tx.Status != domain.StatusPending {
			continue
		}
		if tx.IsMoneyIn() {
			d.Ledger.PendingRevenueMonth = d.Ledger.PendingRevenueMonth.Add(tx.Gross)
			continue
		}
		d.Ledger.PendingExpensesMonth = d.Ledger.PendingExpensesMonth.Add(tx.Gross)
		if dayOf(tx.OccurredOn).Equal(today) {
			d.Ledger.PendingExpensesToday = d.Ledger.PendingExpensesToday.Add(tx.Gross)
		}
	}
	d.Ledger.NetEstimate = d.Ledger.PendingRevenueMonth.Sub(d.Ledger.PendingExpensesMonth)
	d.Ledger.Status = sectionOf(ledgerErr)

	for name, s := range map[string]Section{"bank": d.Bank.Status, "gateway": d.Gateway.Status, "fleet": d.Fleet.Status, "ledger": d.Ledger.Status} {
		if !s.Available {
			logger.WarnContext(ctx, "Dashboard section degraded", "section", name, "error", s.Error)
		}
	}
	return d
}
