package models

import "github.com/shopspring/decimal"

// HoldingsSchemaVersion is bumped whenever the snapshot format changes in
// a way older readers cannot consume.
const HoldingsSchemaVersion = 1

// Holdings is a point-in-time snapshot of the lot ledger: the year-end
// inventory produced by one run, valid verbatim as the prior-holdings
// input of the next tax year's run. Year is the tax year the snapshot
// closes (lots as of Dec 31 of Year).
type Holdings struct {
	SchemaVersion int         `json:"schema_version"`
	Year          int         `json:"year"`
	Broker        string      `json:"broker"`
	Stocks        []Lot       `json:"stocks"`
	Cash          []CashEntry `json:"cash,omitempty"`
}

// TotalShares sums the snapshot quantity for one security.
func (h *Holdings) TotalShares(symbol string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range h.Stocks {
		if lot.Symbol == symbol {
			total = total.Add(lot.Qty)
		}
	}
	return total
}

// CashEntry is one cash movement in the broker account (sale proceeds,
// dividends, withholding, outgoing wires).
type CashEntry struct {
	Date        Date   `json:"date"`
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Transfer    bool   `json:"transfer,omitempty"`
}

// ExpectedBalance is an externally asserted quantity for one security at a
// reference date. It anchors reconstruction strategies that lack a full
// history; it validates the reconstructed ledger and never overrides it.
type ExpectedBalance struct {
	Symbol string          `json:"symbol"`
	Qty    decimal.Decimal `json:"qty"`
	Date   Date            `json:"date"`
}
