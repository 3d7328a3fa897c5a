package processors

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

// ReportProcessor assembles the per-disposal results, wire reconciliation
// and income aggregates into the yearly tax report and the year-end
// holdings snapshot. No business logic beyond aggregation lives here.
type ReportProcessor struct{}

func NewReportProcessor() *ReportProcessor { return &ReportProcessor{} }

// ProceedsEntries derives the cash-proceeds entries the wire reconciler
// consumes, one per disposal, in disposal order.
func (p *ReportProcessor) ProceedsEntries(disposals []models.Disposal) []models.CashEntry {
	entries := make([]models.CashEntry, 0, len(disposals))
	for _, d := range disposals {
		entries = append(entries, models.CashEntry{
			Date:        d.SaleDate,
			Description: "sale proceeds " + d.Symbol,
			Amount:      d.Proceeds,
		})
	}
	return entries
}

// BuildCashLedger lists the year's cash movements in the broker account
// with a running balance in the trading currency.
func (p *ReportProcessor) BuildCashLedger(events []models.TransactionEvent) []models.CashLedgerLine {
	var lines []models.CashLedgerLine
	balance := decimal.Zero
	for _, e := range events {
		var entry *models.CashEntry
		switch e.Type {
		case models.EventSell:
			entry = &models.CashEntry{Date: e.Date, Description: "sale proceeds " + e.Symbol, Amount: *e.Amount}
		case models.EventDividend:
			entry = &models.CashEntry{Date: e.Date, Description: "dividend " + e.Symbol, Amount: *e.Amount}
		case models.EventTax:
			entry = &models.CashEntry{Date: e.Date, Description: "tax withheld " + e.Symbol, Amount: *e.Amount}
		case models.EventWire:
			entry = &models.CashEntry{Date: e.Date, Description: "wire transfer out", Amount: *e.Amount, Transfer: true}
		}
		if entry == nil {
			continue
		}
		balance = balance.Add(entry.Amount.Value)
		lines = append(lines, models.CashLedgerLine{Entry: *entry, Balance: balance})
		if e.Fee != nil && !e.Fee.Value.IsZero() {
			balance = balance.Add(e.Fee.Value)
			lines = append(lines, models.CashLedgerLine{
				Entry:   models.CashEntry{Date: e.Date, Description: "fee", Amount: *e.Fee},
				Balance: balance,
			})
		}
	}
	return lines
}

// AssembleInput carries everything one run produced.
type AssembleInput struct {
	Year         int
	Broker       string
	Ledger       *models.LotLedger // year-end state, after disposals
	PrevHoldings *models.Holdings
	Disposals    DisposalOutcome
	Wires        WireOutcome
	Dividends    []models.DividendIncome
	CashLedger   []models.CashLedgerLine
	Diagnostics  []models.Diagnostic
}

// Assemble produces the report and the year-end holdings snapshot.
// Wires.Confirmed indexes the disposals slice (ProceedsEntries order).
func (p *ReportProcessor) Assemble(in AssembleInput) (*models.TaxReport, *models.Holdings) {
	disposals := in.Disposals.Disposals
	for i := range disposals {
		if i < len(in.Wires.Confirmed) {
			disposals[i].WireConfirmed = in.Wires.Confirmed[i]
		}
	}

	summary := p.summarize(in)
	holdings := in.Ledger.Snapshot(in.Year, in.Broker)

	diags := append([]models.Diagnostic{}, in.Diagnostics...)
	diags = append(diags, in.Disposals.Diagnostics...)
	diags = append(diags, in.Wires.Diagnostics...)

	report := &models.TaxReport{
		Year:                in.Year,
		Broker:              in.Broker,
		Disposals:           disposals,
		Dividends:           in.Dividends,
		CashLedger:          in.CashLedger,
		WireMatches:         in.Wires.Matches,
		UnmatchedWires:      in.Wires.UnmatchedWires,
		UnconfirmedProceeds: in.Wires.Unconfirmed,
		Exceptions:          in.Disposals.Exceptions,
		Diagnostics:         diags,
		Summary:             summary,
		PrevHoldings:        in.PrevHoldings,
	}
	if report.UnmatchedWires == nil {
		report.UnmatchedWires = []models.UnmatchedWire{}
	}
	return report, holdings
}

func (p *ReportProcessor) summarize(in AssembleInput) models.Summary {
	perSymbol := make(map[string]*models.SecuritySummary)
	get := func(symbol string) *models.SecuritySummary {
		if s, ok := perSymbol[symbol]; ok {
			return s
		}
		s := &models.SecuritySummary{Symbol: symbol}
		perSymbol[symbol] = s
		return s
	}

	for _, d := range in.Disposals.Disposals {
		s := get(d.Symbol)
		s.QtySold = s.QtySold.Add(d.Qty)
		s.ProceedsReporting = s.ProceedsReporting.Add(d.Proceeds.Reporting)
		s.GainReporting = s.GainReporting.Add(d.GainReporting)
		s.DisposalCount++
		for _, leg := range d.Legs {
			s.BasisReporting = s.BasisReporting.Add(leg.Basis.Reporting)
		}
	}
	for _, symbol := range in.Ledger.Symbols() {
		get(symbol)
	}

	summary := models.Summary{
		Year:                 in.Year,
		Broker:               in.Broker,
		DisposalCount:        len(in.Disposals.Disposals),
		UnmatchedWireCount:   len(in.Wires.UnmatchedWires),
		UnconfirmedSaleCount: len(in.Wires.Unconfirmed),
		Complete:             len(in.Disposals.Exceptions) == 0,
		PerSecurity:          []models.SecuritySummary{},
	}
	var symbols []string
	for symbol := range perSymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		s := perSymbol[symbol]
		s.RemainingQty = in.Ledger.Available(symbol)
		summary.PerSecurity = append(summary.PerSecurity, *s)
		summary.TotalGainReporting = summary.TotalGainReporting.Add(s.GainReporting)
	}
	for _, d := range in.Dividends {
		summary.DividendNetReporting = summary.DividendNetReporting.Add(d.NetReporting)
	}
	return summary
}
