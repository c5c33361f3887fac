package reconcile

import (
	"sort"
	"time"

	"fleet-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

const uncategorized = "Outros"

type ExpenseLine struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// DRE is the period income statement
type DRE struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	GrossRevenue    decimal.Decimal `json:"gross_revenue"`
	Deductions      decimal.Decimal `json:"deductions"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	Expenses        []ExpenseLine   `json:"expenses"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	OperatingResult decimal.Decimal `json:"operating_result"`
}

// ComputeDRE aggregates transactions dated within [from, to]. Gateway rows
// are taken as given: the caller windows them by creation date, the same
// basis the rollups use. Refunded rows are excluded; every other status
// counts. Deductions are the gateway fees
// between gross and net; manual money-in counts at gross. Expenses come from
// manual money-out rows only, since bank debits mirror them. Figures are
// rounded to cents at the end, never per row.
func ComputeDRE(from, to time.Time, txs []domain.Transaction) DRE {
	start, end := dayOf(from), dayOf(to)
	gross, fees := decimal.Zero, decimal.Zero
	byCategory := map[string]decimal.Decimal{}

	for _, tx := range txs {
		if tx.Status == domain.StatusRefunded {
			continue
		}
		if d := dayOf(tx.OccurredOn); tx.Source != domain.SourceGateway && (d.Before(start) || d.After(end)) {
			continue
		}
		switch {
		case tx.IsMoneyIn():
			if tx.Source == domain.SourceBank {
				continue
			}
			gross = gross.Add(tx.Gross)
			if tx.Source == domain.SourceGateway {
				fees = fees.Add(tx.Fee())
			}
		case tx.Kind == domain.KindMoneyOut && tx.Source == domain.SourceManual:
			category := tx.Category
			if category == "" {
				category = tx.Origin
			}
			if category == "" {
				category = uncategorized
			}
			byCategory[category] = byCategory[category].Add(tx.Gross)
		}
	}

	out := DRE{From: start, To: end, Expenses: make([]ExpenseLine, 0, len(byCategory))}
	total := decimal.Zero
	for category, amount := range byCategory {
		total = total.Add(amount)
		out.Expenses = append(out.Expenses, ExpenseLine{Category: category, Amount: amount.Round(2)})
	}
	sort.Slice(out.Expenses, func(i, j int) bool {
		if !out.Expenses[i].Amount.Equal(out.Expenses[j].Amount) {
			return out.Expenses[i].Amount.GreaterThan(out.Expenses[j].Amount)
		}
		return out.Expenses[i].Category < out.Expenses[j].Category
	})

	netRevenue := gross.Sub(fees)
	out.GrossRevenue = gross.Round(2)
	out.Deductions = fees.Round(2)
	out.NetRevenue = netRevenue.Round(2)
	out.TotalExpenses = total.Round(2)
	out.OperatingResult = netRevenue.Sub(total).Round(2)
	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
