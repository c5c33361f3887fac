package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestChargedAmount(t *testing.T) {
	p := gateway.Payment{
		Value:         dec("100"),
		InterestValue: dec("5"),
		FineValue:     dec("3"),
		Discount:      &gateway.Discount{Value: dec("2")},
		Status:        gateway.StatusReceived,
	}
	assert.Equal(t, "106", ChargedAmount(p).String())

	p.Status = gateway.StatusPending
	assert.Equal(t, "100", ChargedAmount(p).String())

	p.Status = gateway.StatusReceivedInCash
	p.Discount = nil
	assert.Equal(t, "108", ChargedAmount(p).String())
}

func TestSettlementStatus(t *testing.T) {
	cases := map[string]domain.SettlementStatus{
		"RECEIVED":               domain.StatusSettled,
		"CONFIRMED":              domain.StatusSettled,
		"RECEIVED_IN_CASH":       domain.StatusSettled,
		"PENDING":                domain.StatusPending,
		"AWAITING_RISK_ANALYSIS": domain.StatusPending,
		"OVERDUE":                domain.StatusOverdue,
		"REFUNDED":               domain.StatusRefunded,
		"REFUND_IN_PROGRESS":     domain.StatusRefunded,
		"CHARGEBACK_REQUESTED":   domain.StatusRefunded,
		"SOMETHING_NEW":          domain.StatusPending,
	}
	for status, want := range cases {
		assert.Equal(t, want, SettlementStatus(status), status)
	}
}

func TestFromPayment(t *testing.T) {
	tx := FromPayment(gateway.Payment{
		ID: "pay_1", Value: dec("200"), NetValue: dec("197.01"), Status: "RECEIVED",
		PaymentDate: "2024-03-04", DueDate: "2024-03-01",
	}, "123.456.789-00")

	assert.Equal(t, domain.SourceGateway, tx.Source)
	assert.Nil(t, tx.ID)
	assert.Equal(t, "12345678900", tx.CustomerTaxID)
	assert.Equal(t, date(2024, 3, 4), tx.OccurredOn)
	assert.Equal(t, "2.99", tx.Fee().String())
	assert.Equal(t, domain.StatusSettled, tx.Status)
}

func TestFromStatementLine(t *testing.T) {
	credit := FromStatementLine(bank.StatementLine{DataEntrada: "2024-03-02", TipoOperacao: "C", Valor: dec("50.00"), Titulo: "Pix recebido"})
	debit := FromStatementLine(bank.StatementLine{DataEntrada: "2024-03-02", TipoOperacao: "D", Valor: dec("20.00"), Descricao: "Tarifa"})

	assert.Equal(t, domain.KindMoneyInGross, credit.Kind)
	assert.Equal(t, "Pix recebido", credit.Description)
	assert.Equal(t, domain.KindMoneyOut, debit.Kind)
	assert.Equal(t, domain.SourceBank, debit.Source)
}

func manual(kind domain.TransactionKind, category, amount string, day time.Time, status domain.SettlementStatus) domain.Transaction {
	tx := domain.Transaction{Source: domain.SourceManual, Kind: kind, Category: category, Gross: dec(amount), OccurredOn: day, Status: status}
	tx.Normalize()
	return tx
}

func TestComputeDRE_ManualRoundTrip(t *testing.T) {
	from, to := date(2024, 3, 1), date(2024, 3, 31)
	txs := []domain.Transaction{
		manual(domain.KindMoneyInGross, "", "1000.10", date(2024, 3, 1), domain.StatusSettled),
		manual(domain.KindMoneyInNet, "", "333.33", date(2024, 3, 15), domain.StatusPending),
		manual(domain.KindMoneyInGross, "", "0.01", date(2024, 3, 31), domain.StatusSettled),
		manual(domain.KindMoneyOut, "IPVA", "200.05", date(2024, 3, 10), domain.StatusSettled),
		manual(domain.KindMoneyOut, "Seguros", "99.99", date(2024, 3, 20), domain.StatusPending),
		manual(domain.KindMoneyOut, "IPVA", "0.10", date(2024, 3, 21), domain.StatusSettled),
		manual(domain.KindMoneyOut, "Seguros", "500", date(2024, 4, 1), domain.StatusSettled),
	}

	dre := ComputeDRE(from, to, txs)

	moneyIn := dec("1000.10").Add(dec("333.33")).Add(dec("0.01"))
	moneyOut := dec("200.05").Add(dec("99.99")).Add(dec("0.10"))
	assert.True(t, dre.OperatingResult.Equal(moneyIn.Sub(moneyOut)), "got %s", dre.OperatingResult)
	assert.True(t, dre.Deductions.IsZero())
	assert.Equal(t, "1333.44", dre.NetRevenue.StringFixed(2))
	require.Len(t, dre.Expenses, 2)
	assert.Equal(t, "IPVA", dre.Expenses[0].Category)
	assert.Equal(t, "200.15", dre.Expenses[0].Amount.StringFixed(2))
}

func TestComputeDRE_GatewayFeesAndRefunds(t *testing.T) {
	from, to := date(2024, 3, 1), date(2024, 3, 31)
	txs := []domain.Transaction{
		FromPayment(gateway.Payment{Value: dec("100"), NetValue: dec("97.5"), Status: "RECEIVED", PaymentDate: "2024-03-05"}, ""),
		FromPayment(gateway.Payment{Value: dec("50"), NetValue: dec("48"), Status: "PENDING", DueDate: "2024-03-20"}, ""),
		FromPayment(gateway.Payment{Value: dec("80"), NetValue: dec("78"), Status: "REFUNDED", PaymentDate: "2024-03-07"}, ""),
		FromStatementLine(bank.StatementLine{DataEntrada: "2024-03-06", TipoOperacao: "C", Valor: dec("97.5")}),
	}

	dre := ComputeDRE(from, to, txs)
	assert.Equal(t, "150.00", dre.GrossRevenue.StringFixed(2))
	assert.Equal(t, "4.50", dre.Deductions.StringFixed(2))
	assert.Equal(t, "145.50", dre.NetRevenue.StringFixed(2))
	assert.Equal(t, "145.50", dre.OperatingResult.StringFixed(2))
}

func TestRollup(t *testing.T) {
	a := manual(domain.KindMoneyInGross, "", "100", date(2024, 3, 1), domain.StatusSettled)
	a.CustomerTaxID = "111.222.333-44"
	b := FromPayment(gateway.Payment{Value: dec("70"), Status: "OVERDUE", DueDate: "2024-03-02"}, "11122233344")
	c := FromPayment(gateway.Payment{Value: dec("30"), Status: "PENDING", DueDate: "2024-03-03"}, "55566677788")
	out := manual(domain.KindMoneyOut, "Manutenção", "40", date(2024, 3, 4), domain.StatusSettled)
	out.CustomerTaxID = "11122233344"
	anonymous := manual(domain.KindMoneyInGross, "", "999", date(2024, 3, 5), domain.StatusSettled)

	rollups := Rollup([]domain.Transaction{a, b, c, out, anonymous}, map[string]string{"11122233344": "Ana", "55566677788": "Bruno"})
	require.Len(t, rollups, 2)
	assert.Equal(t, "Ana", rollups[0].Name)
	assert.Equal(t, "100", rollups[0].Settled.String())
	assert.Equal(t, "70", rollups[0].Overdue.String())
	assert.Len(t, rollups[0].Transactions, 3)
	assert.Equal(t, "30", rollups[1].Pending.String())

	totals := SumRollups(rollups)
	assert.Equal(t, "100", totals.Settled.String())
	assert.Equal(t, "30", totals.Pending.String())
}

func TestAttributeAsset(t *testing.T) {
	ctx := context.Background()
	day := date(2024, 3, 10)

	t.Run("Resolves plate", func(t *testing.T) {
		finder := new(MockPeriodFinder)
		finder.On("FindCovering", ctx, "111", day).Return(&domain.RentalPeriod{AssetPlate: "ABC1D23"}, nil)
		tx := &domain.Transaction{CustomerTaxID: "111", OccurredOn: day}
		require.NoError(t, AttributeAsset(ctx, finder, tx))
		assert.Equal(t, "ABC1D23", tx.AssetPlate)
	})

	t.Run("No period leaves unattributed", func(t *testing.T) {
		finder := new(MockPeriodFinder)
		finder.On("FindCovering", ctx, "111", day).Return(nil, repository.ErrNotFound)
		tx := &domain.Transaction{CustomerTaxID: "111", OccurredOn: day}
		require.NoError(t, AttributeAsset(ctx, finder, tx))
		assert.Empty(t, tx.AssetPlate)
	})

	t.Run("Explicit plate untouched", func(t *testing.T) {
		finder := new(MockPeriodFinder)
		tx := &domain.Transaction{CustomerTaxID: "111", AssetPlate: "KEEP000", OccurredOn: day}
		require.NoError(t, AttributeAsset(ctx, finder, tx))
		finder.AssertNotCalled(t, "FindCovering", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEstimateDepreciation(t *testing.T) {
	asset := domain.Asset{AcquisitionCost: dec("15000"), AcquiredOn: date(2024, 1, 1)}

	d := EstimateDepreciation(asset, date(2024, 3, 1))
	assert.Equal(t, 60, d.ElapsedDays)
	assert.Equal(t, int64(21000), d.EstimatedOdometerKm)
	assert.Equal(t, "2", d.LossPercent.String())
	assert.Equal(t, "14700.00", d.CurrentValue.StringFixed(2))

	d = EstimateDepreciation(asset, date(2024, 1, 29))
	assert.Equal(t, "0", d.LossPercent.String())

	d = EstimateDepreciation(asset, date(2040, 1, 1))
	assert.Equal(t, "99", d.LossPercent.String())
	assert.Equal(t, "150.00", d.CurrentValue.StringFixed(2))
}

func newEngine() (*Engine, *MockGateway, *MockBank, *MockLedger, *MockRenters, *MockAssets) {
	gw, bk, led, rn, as := new(MockGateway), new(MockBank), new(MockLedger), new(MockRenters), new(MockAssets)
	e := NewEngine(gw, bk, led, rn, as)
	e.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return e, gw, bk, led, rn, as
}

func TestEngine_Refresh_BankDown(t *testing.T) {
	e, gw, bk, led, rn, as := newEngine()
	ctx := context.Background()

	bk.On("GetBalance", ctx, (*time.Time)(nil)).Return(nil, errors.New("tls: handshake failure"))
	gw.On("GetBalance", ctx).Return(dec("820.40"), nil)
	gw.On("GetAllPayments", ctx, mock.Anything, mock.Anything).Return([]gateway.Payment{
		{Status: "RECEIVED"}, {Status: "CONFIRMED"}, {Status: "OVERDUE"}, {Status: "PENDING"},
	}, nil)
	gw.On("GetCustomers", ctx).Return([]gateway.Customer{{ID: "c1"}, {ID: "c2"}}, nil)
	as.On("List", ctx).Return([]domain.Asset{{Availability: domain.AssetRented}, {Availability: domain.AssetAvailable}}, nil)
	rn.On("List", ctx).Return([]domain.Renter{{AssetPlate: "ABC1D23"}, {}}, nil)
	led.On("ListByPeriod", ctx, date(2024, 3, 1), date(2024, 3, 31)).Return([]domain.Transaction{
		manual(domain.KindMoneyInGross, "", "300", date(2024, 3, 20), domain.StatusPending),
		manual(domain.KindMoneyOut, "IPVA", "120", date(2024, 3, 15), domain.StatusPending),
	}, nil)

	d := e.Refresh(ctx)

	assert.False(t, d.Bank.Status.Available)
	assert.Contains(t, d.Bank.Status.Error, "handshake")
	assert.True(t, d.Bank.Balance.IsZero())

	assert.True(t, d.Gateway.Status.Available)
	assert.Equal(t, "820.4", d.Gateway.Balance.String())
	assert.Equal(t, 2, d.Gateway.Received)
	assert.Equal(t, 1, d.Gateway.Overdue)
	assert.Equal(t, 2, d.Gateway.Customers)

	assert.Equal(t, 1, d.Fleet.Rented)
	assert.Equal(t, 1, d.Fleet.ActiveRenters)
	assert.Equal(t, "180", d.Ledger.NetEstimate.String())
	assert.Equal(t, "120", d.Ledger.PendingExpensesToday.String())
}

func TestEngine_Period_GatewayDown(t *testing.T) {
	e, gw, _, led, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 3, 1), date(2024, 3, 31)

	sale := manual(domain.KindMoneyInGross, "", "500", date(2024, 3, 3), domain.StatusSettled)
	sale.CustomerTaxID = "11122233344"
	led.On("ListByPeriod", ctx, from, to).Return([]domain.Transaction{sale}, nil)
	gw.On("GetAllPayments", ctx, from, to).Return(nil, errors.New("gateway list payments failed with status 503"))
	gw.On("GetCustomers", ctx).Return(nil, errors.New("unreachable"))
	rn.On("List", ctx).Return([]domain.Renter{{Name: "Ana", TaxID: "11122233344"}}, nil)

	view, err := e.Period(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, view.Gateway.Available)
	assert.Len(t, view.Transactions, 1)
	assert.Equal(t, "500.00", view.DRE.OperatingResult.StringFixed(2))
	require.Len(t, view.Customers, 1)
	assert.Equal(t, "Ana", view.Customers[0].Name)
}

func TestEngine_Period_JoinsGatewayCustomers(t *testing.T) {
	e, gw, _, led, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 3, 1), date(2024, 3, 31)

	led.On("ListByPeriod", ctx, from, to).Return([]domain.Transaction{}, nil)
	gw.On("GetAllPayments", ctx, from, to).Return([]gateway.Payment{
		{ID: "p1", Customer: "cus_1", Value: dec("250"), NetValue: dec("247"), Status: "RECEIVED", PaymentDate: "2024-03-05"},
	}, nil)
	gw.On("GetCustomers", ctx).Return([]gateway.Customer{{ID: "cus_1", Name: "Carla", CpfCnpj: "999.888.777-66"}}, nil)
	rn.On("List", ctx).Return([]domain.Renter{}, nil)

	rollup, section, err := e.CustomerStatement(ctx, "99988877766", from, to)
	require.NoError(t, err)
	assert.True(t, section.Available)
	assert.Equal(t, "Carla", rollup.Name)
	assert.Equal(t, "250", rollup.Settled.String())
	assert.Equal(t, 1, rollup.SettledCount)
}

func TestEngine_Period_LedgerErrorPropagates(t *testing.T) {
	e, gw, _, led, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 3, 1), date(2024, 3, 31)

	led.On("ListByPeriod", ctx, from, to).Return(nil, errors.New("connection refused"))
	gw.On("GetAllPayments", ctx, from, to).Return([]gateway.Payment{}, nil)
	gw.On("GetCustomers", ctx).Return([]gateway.Customer{}, nil)
	rn.On("List", ctx).Return([]domain.Renter{}, nil)

	_, err := e.Period(ctx, from, to)
	assert.Error(t, err)
}

func TestEngine_Period_PaymentCrossingMonthBoundary(t *testing.T) {
	e, gw, _, led, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 1, 1), date(2024, 1, 31)

	led.On("ListByPeriod", ctx, from, to).Return([]domain.Transaction{}, nil)
	gw.On("GetAllPayments", ctx, from, to).Return([]gateway.Payment{
		{ID: "p1", Customer: "cus_1", Value: dec("100"), NetValue: dec("98"), Status: "RECEIVED",
			DateCreated: "2024-01-25", PaymentDate: "2024-02-03"},
	}, nil)
	gw.On("GetCustomers", ctx).Return([]gateway.Customer{{ID: "cus_1", Name: "Bruno", CpfCnpj: "12345678901"}}, nil)
	rn.On("List", ctx).Return([]domain.Renter{}, nil)

	view, err := e.Period(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, "100.00", view.Totals.Settled.StringFixed(2))
	assert.Equal(t, "100.00", view.DRE.GrossRevenue.StringFixed(2))
	assert.Equal(t, "2.00", view.DRE.Deductions.StringFixed(2))
	assert.True(t, view.DRE.GrossRevenue.Equal(view.Totals.Settled))
}

func TestEngine_Receipts(t *testing.T) {
	e, gw, _, _, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 2, 1), date(2024, 2, 29)

	gw.On("GetReceivedPayments", mock.Anything, from, to).Return([]gateway.Payment{
		{ID: "p1", Customer: "cus_1", Value: dec("100"), Status: "RECEIVED", PaymentDate: "2024-02-03"},
		{ID: "p2", Customer: "cus_1", Value: dec("50"), Status: "RECEIVED", PaymentDate: "2024-02-10"},
	}, nil)
	gw.On("GetCustomers", mock.Anything).Return(nil, errors.New("unreachable"))
	rn.On("List", mock.Anything).Return([]domain.Renter{{Name: "Bruno", TaxID: "12345678901", GatewayCustomerID: "cus_1"}}, nil)

	rollups, err := e.Receipts(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, rollups, 1)
	assert.Equal(t, "Bruno", rollups[0].Name)
	assert.Equal(t, "150", rollups[0].Settled.String())
	assert.Equal(t, 2, rollups[0].SettledCount)
}

func TestEngine_Receipts_GatewayDown(t *testing.T) {
	e, gw, _, _, rn, _ := newEngine()
	ctx := context.Background()
	from, to := date(2024, 2, 1), date(2024, 2, 29)

	gw.On("GetReceivedPayments", mock.Anything, from, to).Return(nil, errors.New("status 503"))
	gw.On("GetCustomers", mock.Anything).Return([]gateway.Customer{}, nil)
	rn.On("List", mock.Anything).Return([]domain.Renter{}, nil)

	_, err := e.Receipts(ctx, from, to)
	assert.Error(t, err)
}
