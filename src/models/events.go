package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EventType tags a TransactionEvent. Events are a closed set produced by
// the normalizer; the processors switch on this tag.
type EventType string

const (
	EventDeposit  EventType = "DEPOSIT"  // ESPP purchase / RSU vest entering the account
	EventBuy      EventType = "BUY"      // open-market or reinvestment purchase
	EventSell     EventType = "SELL"     // disposal for cash proceeds
	EventDividend EventType = "DIVIDEND" // cash dividend
	EventTax      EventType = "TAX"      // withholding on dividends
	EventWire     EventType = "WIRE"     // cash transferred out of the broker account
	EventTransfer EventType = "TRANSFER" // shares transferred out (no proceeds)
)

// TransactionEvent is one entry of the canonical, ordered transaction
// sequence produced by the normalizer. It is immutable once normalized.
//
// Which fields are populated depends on Type:
//   - DEPOSIT/BUY: Symbol, Qty (>0), PurchasePrice (per share)
//   - SELL: Symbol, Qty (<0), Amount (net cash proceeds, >0)
//   - TRANSFER: Symbol, Qty (<0)
//   - DIVIDEND: Symbol, Amount (>0)
//   - TAX: Symbol, Amount (<0)
//   - WIRE: Amount (<0, cash leaving the account), optional Fee
type TransactionEvent struct {
	Type          EventType       `json:"type"`
	Date          Date            `json:"date"`
	Symbol        string          `json:"symbol,omitempty"`
	Description   string          `json:"description,omitempty"`
	Qty           decimal.Decimal `json:"qty,omitempty"`
	PurchasePrice *Amount         `json:"purchase_price,omitempty"`
	Amount        *Amount         `json:"amount,omitempty"`
	Fee           *Amount         `json:"fee,omitempty"`
	Source        string          `json:"source,omitempty"`

	// Ordering metadata assigned by the normalizer: FileOrder is the
	// position of the originating file in the upload, Seq the entry's
	// position within that file. Ties on Date are broken by
	// (FileOrder, Seq).
	FileOrder int `json:"file_order"`
	Seq       int `json:"seq"`
}

// SortEvents orders events by date ascending, ties broken by input file
// order then intra-file sequence. The sort is stable so already-ordered
// input stays put.
func SortEvents(events []TransactionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date.Time) {
			return events[i].Date.Before(events[j].Date.Time)
		}
		if events[i].FileOrder != events[j].FileOrder {
			return events[i].FileOrder < events[j].FileOrder
		}
		return events[i].Seq < events[j].Seq
	})
}

// EventsInYear returns the events whose date falls in the given year,
// preserving order.
func EventsInYear(events []TransactionEvent, year int) []TransactionEvent {
	var out []TransactionEvent
	for _, e := range events {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

// EventsBefore returns the events strictly before the given date,
// preserving order.
func EventsBefore(events []TransactionEvent, cutoff Date) []TransactionEvent {
	var out []TransactionEvent
	for _, e := range events {
		if e.Date.Before(cutoff.Time) {
			out = append(out, e)
		}
	}
	return out
}
