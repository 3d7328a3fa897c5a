package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

// WireOutcome is the result of reconciling sale proceeds against bank
// transfers. Confirmed is parallel to the proceeds input: true where a
// wire settled that entry. Nothing here is fatal; unmatched records on
// either side are retained for user review.
type WireOutcome struct {
	Matches        []models.WireMatch
	UnmatchedWires []models.UnmatchedWire
	Unconfirmed    []models.UnconfirmedProceeds
	Confirmed      []bool
	Diagnostics    []models.Diagnostic
}

// WireProcessor matches stock-sale cash proceeds to bank wire records.
// A wire settles a proceeds entry when the amounts agree within tolerance
// and the wire lands inside the settlement window after the sale date.
// Both knobs are broker-dependent configuration.
type WireProcessor struct {
	tolerance  decimal.Decimal
	windowDays int
}

func NewWireProcessor(tolerance decimal.Decimal, windowDays int) *WireProcessor {
	return &WireProcessor{tolerance: tolerance, windowDays: windowDays}
}

// Reconcile greedily matches earliest proceeds to the earliest eligible
// wire; no record is matched twice. Unmatched wires come back
// sign-normalized with their reporting-currency value left unresolved:
// an absent value, never a fabricated zero.
func (p *WireProcessor) Reconcile(proceeds []models.CashEntry, wires []models.WireRecord) WireOutcome {
	out := WireOutcome{Confirmed: make([]bool, len(proceeds))}

	order := make([]int, len(proceeds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return proceeds[order[a]].Date.Before(proceeds[order[b]].Date.Time)
	})

	sortedWires := make([]models.WireRecord, len(wires))
	copy(sortedWires, wires)
	sort.SliceStable(sortedWires, func(i, j int) bool {
		return sortedWires[i].Date.Before(sortedWires[j].Date.Time)
	})
	used := make([]bool, len(sortedWires))

	for _, idx := range order {
		entry := proceeds[idx]
		amount := entry.Amount.Value.Abs()
		deadline := entry.Date.AddDays(p.windowDays)

		matched := -1
		candidates := 0
		for i, w := range sortedWires {
			if used[i] || w.Date.Before(entry.Date.Time) || w.Date.After(deadline.Time) {
				continue
			}
			if w.Currency != "" && entry.Amount.Currency != "" && w.Currency != entry.Amount.Currency {
				continue
			}
			if w.Amount.Abs().Sub(amount).Abs().LessThanOrEqual(p.tolerance) {
				candidates++
				if matched < 0 {
					matched = i
				}
			}
		}

		if matched < 0 {
			out.Unconfirmed = append(out.Unconfirmed, models.UnconfirmedProceeds{
				Date:     entry.Date,
				Amount:   amount,
				Currency: entry.Amount.Currency,
			})
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Level:   "warn",
				Date:    entry.Date,
				Message: fmt.Sprintf("wire not confirmed for sale proceeds of %s %s", amount, entry.Amount.Currency),
			})
			continue
		}

		if candidates > 1 {
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Level:   "warn",
				Date:    entry.Date,
				Message: fmt.Sprintf("wire reconciliation ambiguity: %d wires within tolerance of proceeds on %s, matched earliest", candidates, entry.Date),
			})
		}

		w := sortedWires[matched]
		used[matched] = true
		out.Confirmed[idx] = true
		out.Matches = append(out.Matches, models.WireMatch{
			ProceedsDate: entry.Date,
			WireDate:     w.Date,
			Proceeds:     amount,
			WireAmount:   w.Amount.Abs(),
			Currency:     entry.Amount.Currency,
		})
	}

	for i, w := range sortedWires {
		if used[i] {
			continue
		}
		// AmountReporting deliberately stays nil: without a matched sale
		// there is no transaction-date rate to convert at.
		out.UnmatchedWires = append(out.UnmatchedWires, models.UnmatchedWire{
			Date:        w.Date,
			Amount:      w.Amount.Abs(),
			Currency:    w.Currency,
			Description: w.Description,
		})
	}
	return out
}
