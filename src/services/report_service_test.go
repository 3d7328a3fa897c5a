package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vestfolio/src/database"
	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/models"
	"github.com/username/vestfolio/src/normalizer"
	"github.com/username/vestfolio/src/processors"
	"github.com/username/vestfolio/src/rates"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	dbPath := filepath.Join(os.TempDir(), fmt.Sprintf("vestfolio_test_%d.db", time.Now().UnixNano()))
	database.InitDB(dbPath)
	code := m.Run()
	database.DB.Close()
	os.Remove(dbPath)
	os.Exit(code)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y, m, dd int) models.Date { return models.NewDate(y, time.Month(m), dd) }

func newTestService() ReportService {
	source := rates.NewStaticSource("EUR", map[string]map[string]decimal.Decimal{
		"USD": {"2022-03-10": d("1.2"), "2021-06-01": d("1.25"), "2021-09-01": d("1.25")},
	})
	return NewReportService(
		normalizer.New(source, "EUR"),
		processors.NewHoldingsProcessor(),
		processors.NewDisposalProcessor(),
		processors.NewDividendProcessor(),
		processors.NewWireProcessor(d("5.00"), 7),
		processors.NewReportProcessor(),
		cache.New(5*time.Minute, 10*time.Minute),
	)
}

// testHistory builds a fresh event slice per call: two 2021 acquisitions
// and one 2022 sale of 8 shares.
func testHistory() []models.TransactionEvent {
	return []models.TransactionEvent{
		{
			Type: models.EventDeposit, Date: day(2021, 6, 1), Symbol: "CSCO", Qty: d("10"),
			PurchasePrice: &models.Amount{Currency: "USD", Value: d("100"), Rate: d("1.25")},
		},
		{
			Type: models.EventDeposit, Date: day(2021, 9, 1), Symbol: "CSCO", Qty: d("5"),
			PurchasePrice: &models.Amount{Currency: "USD", Value: d("110"), Rate: d("1.25")},
		},
		{
			Type: models.EventSell, Date: day(2022, 3, 10), Symbol: "CSCO", Qty: d("-8"),
			Amount: &models.Amount{Currency: "USD", Value: d("1200"), Rate: d("1.2")},
		},
	}
}

func TestGenerateReportEndToEnd(t *testing.T) {
	svc := newTestService()

	result, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
		Wires:     []models.WireRecord{{Date: day(2022, 3, 14), Amount: d("1198.00"), Currency: "USD"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	assert.True(t, result.Summary.Complete)
	assert.Equal(t, 1, result.Summary.DisposalCount)
	require.Len(t, result.Report.Disposals, 1)
	disp := result.Report.Disposals[0]
	// 1200/1.2 = 1000 proceeds against 8 * 100/1.25 = 640 basis.
	assert.True(t, disp.GainReporting.Equal(d("360")))
	assert.True(t, disp.WireConfirmed)
	assert.Empty(t, result.UnmatchedWires)

	require.NotNil(t, result.Holdings)
	assert.Equal(t, 2022, result.Holdings.Year)
	assert.True(t, result.Holdings.TotalShares("CSCO").Equal(d("7")))

	// Served from cache and, after a fresh service, from the database.
	fetched, err := svc.GetReport(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, fetched.RunID)

	cold := newTestService()
	fetched, err = cold.GetReport(result.RunID)
	require.NoError(t, err)
	assert.True(t, fetched.Summary.TotalGainReporting.Equal(d("360")))

	events, err := svc.GetTransactions(result.RunID)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	latest, err := svc.GetLatestHoldings()
	require.NoError(t, err)
	assert.Equal(t, 2022, latest.Year)
}

func TestGenerateReportHoldingsRoundTrip(t *testing.T) {
	svc := newTestService()

	first, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
	})
	require.NoError(t, err)

	// The year-end snapshot seeds the next year's run directly.
	second, err := svc.GenerateReport(ReportInput{
		Year:          2023,
		Broker:        models.BrokerSchwab,
		Histories:     [][]models.TransactionEvent{testHistory()},
		PriorHoldings: first.Holdings,
	})
	require.NoError(t, err)
	assert.True(t, second.Holdings.TotalShares("CSCO").Equal(d("7")), "snapshot lots not double counted")
	assert.Equal(t, 0, second.Summary.DisposalCount)
}

func TestGenerateReportInputValidation(t *testing.T) {
	svc := newTestService()
	history := [][]models.TransactionEvent{testHistory()}

	for name, in := range map[string]ReportInput{
		"missing year":   {Broker: models.BrokerSchwab, Histories: history},
		"unknown broker": {Year: 2022, Broker: "etrade", Histories: history},
		"no histories":   {Year: 2022, Broker: models.BrokerSchwab},
		"single-file with two files": {
			Year: 2022, Broker: models.BrokerMorgan,
			Histories: [][]models.TransactionEvent{testHistory(), testHistory()},
		},
	} {
		_, err := svc.GenerateReport(in)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestGenerateReportSurfacesBalanceMismatch(t *testing.T) {
	svc := newTestService()

	_, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
		Expected:  &models.ExpectedBalance{Symbol: "CSCO", Qty: d("20"), Date: day(2021, 12, 31)},
	})
	var mismatch *processors.BalanceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Delta.Equal(d("-5")), "15 reconstructed against 20 expected")
}

func TestGetReportUnknownRun(t *testing.T) {
	_, err := newTestService().GetReport("no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func bundleEntries(t *testing.T, data []byte) map[string]bool {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	entries := make(map[string]bool)
	for _, f := range zr.File {
		entries[f.Name] = true
	}
	return entries
}

func TestBuildBundleContents(t *testing.T) {
	svc := newTestService()

	clean, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
		Wires:     []models.WireRecord{{Date: day(2022, 3, 14), Amount: d("1198.00"), Currency: "USD"}},
	})
	require.NoError(t, err)

	data, name, err := svc.BuildBundle(clean.RunID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("vestfolio-2022-%s.zip", clean.RunID), name)

	entries := bundleEntries(t, data)
	assert.True(t, entries["holdings.json"])
	assert.True(t, entries["tax_report.json"])
	assert.True(t, entries["portfolio.csv"])
	assert.False(t, entries["unmatched_wires.json"], "omitted when every wire matched")

	// A stray wire makes the unmatched file appear.
	dirty, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
		Wires: []models.WireRecord{
			{Date: day(2022, 3, 14), Amount: d("1198.00"), Currency: "USD"},
			{Date: day(2022, 9, 1), Amount: d("-9999"), Currency: "USD"},
		},
	})
	require.NoError(t, err)

	data, _, err = svc.BuildBundle(dirty.RunID)
	require.NoError(t, err)
	assert.True(t, bundleEntries(t, data)["unmatched_wires.json"])
}

func TestDeleteAllRuns(t *testing.T) {
	svc := newTestService()

	result, err := svc.GenerateReport(ReportInput{
		Year:      2022,
		Broker:    models.BrokerSchwab,
		Histories: [][]models.TransactionEvent{testHistory()},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllRuns())
	_, err = svc.GetReport(result.RunID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = svc.GetLatestHoldings()
	assert.ErrorIs(t, err, ErrRunNotFound)
}
