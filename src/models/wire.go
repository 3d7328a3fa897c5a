package models

import "github.com/shopspring/decimal"

// WireRecord is a bank transfer supplied by the user for reconciliation
// against stock-sale proceeds. Amount is signed as it appears on the bank
// statement (incoming transfers positive).
type WireRecord struct {
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
}

// UnmatchedWire is a WireRecord with no matching sale proceeds inside the
// reconciliation window. Amount is sign-normalized to its absolute value.
// AmountReporting stays nil: the reporting-currency value of an
// unreconciled transfer is unknown and must not default to zero.
type UnmatchedWire struct {
	Date            Date             `json:"date"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	AmountReporting *decimal.Decimal `json:"amount_reporting,omitempty"`
	Description     string           `json:"description,omitempty"`
}

// WireMatch pairs one proceeds entry with the bank wire that settled it.
type WireMatch struct {
	ProceedsDate Date            `json:"proceeds_date"`
	WireDate     Date            `json:"wire_date"`
	Proceeds     decimal.Decimal `json:"proceeds"`
	WireAmount   decimal.Decimal `json:"wire_amount"`
	Currency     string          `json:"currency"`
}

// UnconfirmedProceeds flags sale proceeds with no confirming bank wire.
// Diagnostic only; the report is still produced.
type UnconfirmedProceeds struct {
	Date     Date            `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
