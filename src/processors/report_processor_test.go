package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vestfolio/src/models"
)

func TestBuildCashLedgerRunningBalance(t *testing.T) {
	feeAmt := usd("-25", "1.1")
	wireAmt := usd("-4500", "1.1")
	events := []models.TransactionEvent{
		sell("CSCO", day(2022, 3, 10), "10", "5000", "1.1"),
		dividend("CSCO", day(2022, 4, 1), "100", "1.1"),
		withholding("CSCO", day(2022, 4, 1), "-15", "1.1"),
		{Type: models.EventWire, Date: day(2022, 4, 20), Amount: &wireAmt, Fee: &feeAmt},
	}

	lines := NewReportProcessor().BuildCashLedger(events)
	require.Len(t, lines, 5, "wire fee gets its own line")
	assert.True(t, lines[0].Balance.Equal(d("5000")))
	assert.True(t, lines[1].Balance.Equal(d("5100")))
	assert.True(t, lines[2].Balance.Equal(d("5085")))
	assert.True(t, lines[3].Balance.Equal(d("585")))
	assert.True(t, lines[4].Balance.Equal(d("560")))
	assert.True(t, lines[3].Entry.Transfer)
}

func TestAssembleSummaryAndWireConfirmation(t *testing.T) {
	ledger := models.NewLotLedger()
	ledger.Add(models.Lot{Symbol: "CSCO", Date: day(2021, 1, 1), Qty: d("5"), Basis: usd("100", "1")})
	ledger.Add(models.Lot{Symbol: "AAPL", Date: day(2021, 2, 1), Qty: d("3"), Basis: usd("120", "1")})

	disposals := DisposalOutcome{
		Disposals: []models.Disposal{
			{
				Symbol:   "CSCO",
				SaleDate: day(2022, 6, 1),
				Qty:      d("10"),
				Proceeds: usd("2250", "1"),
				Legs: []models.DisposalLeg{
					{Qty: d("10"), Basis: usd("1750", "1"), Proceeds: usd("2250", "1"), GainReporting: d("500")},
				},
				GainReporting: d("500"),
			},
		},
	}
	wires := WireOutcome{
		Confirmed: []bool{true},
		Matches:   []models.WireMatch{{ProceedsDate: day(2022, 6, 1), WireDate: day(2022, 6, 3)}},
	}
	dividends := []models.DividendIncome{{Symbol: "CSCO", GrossReporting: d("160"), TaxReporting: d("-12"), NetReporting: d("148")}}

	report, holdings := NewReportProcessor().Assemble(AssembleInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Ledger:    ledger,
		Disposals: disposals,
		Wires:     wires,
		Dividends: dividends,
	})

	require.Len(t, report.Disposals, 1)
	assert.True(t, report.Disposals[0].WireConfirmed)
	assert.True(t, report.Summary.Complete)
	assert.True(t, report.Summary.TotalGainReporting.Equal(d("500")))
	assert.True(t, report.Summary.DividendNetReporting.Equal(d("148")))
	assert.NotNil(t, report.UnmatchedWires, "always present, even when empty")

	// Per-security rows cover sold and still-held symbols, sorted.
	require.Len(t, report.Summary.PerSecurity, 2)
	assert.Equal(t, "AAPL", report.Summary.PerSecurity[0].Symbol)
	assert.True(t, report.Summary.PerSecurity[0].RemainingQty.Equal(d("3")))
	csco := report.Summary.PerSecurity[1]
	assert.True(t, csco.QtySold.Equal(d("10")))
	assert.True(t, csco.BasisReporting.Equal(d("1750")))
	assert.True(t, csco.RemainingQty.Equal(d("5")))

	assert.Equal(t, 2022, holdings.Year)
	assert.True(t, holdings.TotalShares("CSCO").Equal(d("5")))
}

func TestAssembleIncompleteWhenExceptionsExist(t *testing.T) {
	ledger := models.NewLotLedger()
	disposals := DisposalOutcome{
		Exceptions: []models.ExceptionEntry{
			{Symbol: "CSCO", Date: day(2022, 3, 1), Requested: d("20"), Available: d("15"), Shortfall: d("5")},
		},
		Diagnostics: []models.Diagnostic{{Level: "error", Symbol: "CSCO"}},
	}

	report, _ := NewReportProcessor().Assemble(AssembleInput{
		Year: 2022, Broker: models.BrokerSchwab, Ledger: ledger, Disposals: disposals,
	})

	assert.False(t, report.Summary.Complete)
	require.Len(t, report.Exceptions, 1)
	assert.True(t, report.Exceptions[0].Shortfall.Equal(d("5")))
	require.NotEmpty(t, report.Diagnostics)
}

func TestProceedsEntriesFollowDisposalOrder(t *testing.T) {
	disposals := []models.Disposal{
		{Symbol: "CSCO", SaleDate: day(2022, 3, 10), Proceeds: usd("5000", "1.1")},
		{Symbol: "AAPL", SaleDate: day(2022, 1, 5), Proceeds: usd("800", "1.1")},
	}

	entries := NewReportProcessor().ProceedsEntries(disposals)
	require.Len(t, entries, 2)
	assert.Equal(t, day(2022, 3, 10), entries[0].Date)
	assert.Equal(t, "sale proceeds AAPL", entries[1].Description)
}
