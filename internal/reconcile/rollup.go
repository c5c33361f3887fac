package reconcile

import (
	"sort"

	"fleet-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

// CustomerRollup sums one customer's money-in rows per settlement bucket
type CustomerRollup struct {
	TaxID        string               `json:"tax_id"`
	Name         string               `json:"name"`
	Settled      decimal.Decimal      `json:"settled"`
	Pending      decimal.Decimal      `json:"pending"`
	Overdue      decimal.Decimal      `json:"overdue"`
	Refunded     decimal.Decimal      `json:"refunded"`
	SettledCount int                  `json:"settled_count"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Totals is the fleet-wide sum of all rollups
type Totals struct {
	Settled decimal.Decimal `json:"settled"`
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
}

// Rollup groups transactions by normalized tax id. Rows with no customer are
// skipped. Money-out rows are listed but not summed. names maps tax ids to
// display names.
func Rollup(txs []domain.Transaction, names map[string]string) []CustomerRollup {
	byTaxID := map[string]*CustomerRollup{}
	for _, tx := range txs {
		taxID := domain.NormalizeTaxID(tx.CustomerTaxID)
		if taxID == "" {
			continue
		}
		r, ok := byTaxID[taxID]
		if !ok {
			r = &CustomerRollup{TaxID: taxID, Name: names[taxID]}
			byTaxID[taxID] = r
		}
		r.Transactions = append(r.Transactions, tx)
		if !tx.IsMoneyIn() {
			continue
		}
		switch tx.Status {
		case domain.StatusSettled:
			r.Settled = r.Settled.Add(tx.Gross)
			r.SettledCount++
		case domain.StatusPending:
			r.Pending = r.Pending.Add(tx.Gross)
		case domain.StatusOverdue:
			r.Overdue = r.Overdue.Add(tx.Gross)
		case domain.StatusRefunded:
			r.Refunded = r.Refunded.Add(tx.Gross)
		}
	}

	out := make([]CustomerRollup, 0, len(byTaxID))
	for _, r := range byTaxID {
		r.Settled = r.Settled.Round(2)
		r.Pending = r.Pending.Round(2)
		r.Overdue = r.Overdue.Round(2)
		r.Refunded = r.Refunded.Round(2)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TaxID < out[j].TaxID
	})
	return out
}

func SumRollups(rollups []CustomerRollup) Totals {
	var t Totals
	for _, r := range rollups {
		t.Settled = t.Settled.Add(r.Settled)
		t.Pending = t.Pending.Add(r.Pending)
		t.Overdue = t.Overdue.Add(r.Overdue)
	}
	return t
}
