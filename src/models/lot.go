package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Lot is a quantity of a single security acquired on one date at one cost
// basis. Basis is the per-share purchase price with its reporting-currency
// value fixed at the acquisition date. Identity is (Symbol, Date, Seq);
// Seq disambiguates same-day acquisitions.
type Lot struct {
	Symbol      string          `json:"symbol"`
	Date        Date            `json:"date"`
	Seq         int             `json:"seq"`
	Qty         decimal.Decimal `json:"qty"`
	Basis       Amount          `json:"purchase_price"`
	Description string          `json:"description,omitempty"`
}

// LotPortion is a slice of a lot consumed by one disposal: the lot's
// identity and basis, plus the quantity taken from it.
type LotPortion struct {
	Lot Lot
	Qty decimal.Decimal
}

// LotLedger holds the open acquisition lots per security, ordered by
// acquisition date ascending (ties by Seq). The total quantity per
// security never goes negative: ConsumeFIFO refuses to oversell.
type LotLedger struct {
	lots map[string][]Lot
}

func NewLotLedger() *LotLedger {
	return &LotLedger{lots: make(map[string][]Lot)}
}

// Add inserts a lot, keeping the per-security ordering.
func (l *LotLedger) Add(lot Lot) {
	lots := append(l.lots[lot.Symbol], lot)
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].Date.Equal(lots[j].Date.Time) {
			return lots[i].Date.Before(lots[j].Date.Time)
		}
		return lots[i].Seq < lots[j].Seq
	})
	l.lots[lot.Symbol] = lots
}

// Lots returns a copy of the open lots for a security, oldest first.
func (l *LotLedger) Lots(symbol string) []Lot {
	out := make([]Lot, len(l.lots[symbol]))
	copy(out, l.lots[symbol])
	return out
}

// Symbols returns the securities with open lots, sorted for deterministic
// iteration.
func (l *LotLedger) Symbols() []string {
	var out []string
	for s, lots := range l.lots {
		if len(lots) > 0 {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Available returns the total open quantity for a security.
func (l *LotLedger) Available(symbol string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[symbol] {
		total = total.Add(lot.Qty)
	}
	return total
}

// ConsumeFIFO takes qty shares from the oldest lots first, splitting the
// last lot if needed. If the ledger holds less than qty the ledger is left
// untouched and ok is false; callers decide which error kind the shortfall
// maps to.
func (l *LotLedger) ConsumeFIFO(symbol string, qty decimal.Decimal) (portions []LotPortion, ok bool) {
	if qty.GreaterThan(l.Available(symbol)) {
		return nil, false
	}
	remaining := qty
	lots := l.lots[symbol]
	for len(lots) > 0 && remaining.IsPositive() {
		current := &lots[0]
		taken := decimal.Min(remaining, current.Qty)
		portions = append(portions, LotPortion{Lot: *current, Qty: taken})
		remaining = remaining.Sub(taken)
		current.Qty = current.Qty.Sub(taken)
		if current.Qty.IsZero() {
			lots = lots[1:]
		}
	}
	l.lots[symbol] = lots
	return portions, true
}

// Clone deep-copies the ledger.
func (l *LotLedger) Clone() *LotLedger {
	out := NewLotLedger()
	for symbol, lots := range l.lots {
		cp := make([]Lot, len(lots))
		copy(cp, lots)
		out.lots[symbol] = cp
	}
	return out
}

// Snapshot exports the open lots as a holdings snapshot for the given tax
// year boundary.
func (l *LotLedger) Snapshot(year int, broker string) *Holdings {
	h := &Holdings{
		SchemaVersion: HoldingsSchemaVersion,
		Year:          year,
		Broker:        broker,
		Stocks:        []Lot{},
	}
	for _, symbol := range l.Symbols() {
		h.Stocks = append(h.Stocks, l.Lots(symbol)...)
	}
	return h
}
