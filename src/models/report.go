package models

import "github.com/shopspring/decimal"

// DisposalLeg is the part of a disposal taken from one lot. Basis is the
// prorated cost at the lot's own acquisition-date rate; Proceeds is the
// prorated sale cash at the sale-date rate. GainReporting is computed in
// the reporting currency only.
type DisposalLeg struct {
	LotDate       Date            `json:"lot_date"`
	LotSeq        int             `json:"lot_seq"`
	Qty           decimal.Decimal `json:"qty"`
	Basis         Amount          `json:"basis"`
	Proceeds      Amount          `json:"proceeds"`
	GainReporting decimal.Decimal `json:"gain_reporting"`
}

// Disposal is one sale matched against one or more lots, oldest first.
// Immutable once created by the disposal matcher.
type Disposal struct {
	Symbol        string          `json:"symbol"`
	SaleDate      Date            `json:"sale_date"`
	Qty           decimal.Decimal `json:"qty"`
	Proceeds      Amount          `json:"proceeds"`
	Legs          []DisposalLeg   `json:"legs"`
	GainReporting decimal.Decimal `json:"gain_reporting"`
	WireConfirmed bool            `json:"wire_confirmed"`
}

// ExceptionEntry records a disposal (or transfer) that could not be
// matched. The run continues; the summary is marked incomplete.
type ExceptionEntry struct {
	Symbol    string          `json:"symbol"`
	Date      Date            `json:"date"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Message   string          `json:"message"`
}

// DividendIncome aggregates one security's dividend and withholding for
// the year, in reporting currency.
type DividendIncome struct {
	Symbol         string          `json:"symbol"`
	GrossReporting decimal.Decimal `json:"gross_reporting"`
	TaxReporting   decimal.Decimal `json:"tax_reporting"` // negative
	NetReporting   decimal.Decimal `json:"net_reporting"`
}

// CashLedgerLine is one cash movement with the running balance after it.
type CashLedgerLine struct {
	Entry   CashEntry       `json:"entry"`
	Balance decimal.Decimal `json:"balance"`
}

// Diagnostic is a user-facing note produced while computing a report.
// The core returns diagnostics as values; the boundary decides rendering.
type Diagnostic struct {
	Level   string `json:"level"` // "info", "warn", "error"
	Message string `json:"message"`
	Symbol  string `json:"symbol,omitempty"`
	Date    Date   `json:"date,omitempty"`
}

// SecuritySummary is the per-security gain/loss breakdown.
type SecuritySummary struct {
	Symbol            string          `json:"symbol"`
	QtySold           decimal.Decimal `json:"qty_sold"`
	ProceedsReporting decimal.Decimal `json:"proceeds_reporting"`
	BasisReporting    decimal.Decimal `json:"basis_reporting"`
	GainReporting     decimal.Decimal `json:"gain_reporting"`
	DisposalCount     int             `json:"disposal_count"`
	RemainingQty      decimal.Decimal `json:"remaining_qty"`
}

// Summary is the yearly roll-up. Complete is false when any disposal
// raised an exception entry; totals then cover only the matched part.
type Summary struct {
	Year                 int               `json:"year"`
	Broker               string            `json:"broker"`
	TotalGainReporting   decimal.Decimal   `json:"total_gain_reporting"`
	DividendNetReporting decimal.Decimal   `json:"dividend_net_reporting"`
	PerSecurity          []SecuritySummary `json:"per_security"`
	DisposalCount        int               `json:"disposal_count"`
	UnmatchedWireCount   int               `json:"unmatched_wire_count"`
	UnconfirmedSaleCount int               `json:"unconfirmed_sale_count"`
	Complete             bool              `json:"complete"`
}

// TaxReport bundles everything one run produced for a tax year.
type TaxReport struct {
	Year                int                   `json:"year"`
	Broker              string                `json:"broker"`
	Disposals           []Disposal            `json:"disposals"`
	Dividends           []DividendIncome      `json:"dividends"`
	CashLedger          []CashLedgerLine      `json:"cash_ledger"`
	WireMatches         []WireMatch           `json:"wire_matches,omitempty"`
	UnmatchedWires      []UnmatchedWire       `json:"unmatched_wires"`
	UnconfirmedProceeds []UnconfirmedProceeds `json:"unconfirmed_proceeds,omitempty"`
	Exceptions          []ExceptionEntry      `json:"exceptions,omitempty"`
	Diagnostics         []Diagnostic          `json:"diagnostics,omitempty"`
	Summary             Summary               `json:"summary"`
	PrevHoldings        *Holdings             `json:"prev_holdings,omitempty"`
}

// ReportResult is the success envelope returned by one run: the year-end
// holdings snapshot, the tax report and the unmatched-wire diagnostics.
type ReportResult struct {
	RunID          string          `json:"run_id"`
	Report         TaxReport       `json:"report"`
	Holdings       *Holdings       `json:"holdings"`
	UnmatchedWires []UnmatchedWire `json:"unmatched_wires"`
	Summary        Summary         `json:"summary"`
}
