package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

// DisposalOutcome is everything disposal matching produced for one year.
// Exceptions carry the disposals that could not be matched; the rest of
// the run is unaffected by them.
type DisposalOutcome struct {
	Disposals   []models.Disposal
	Exceptions  []models.ExceptionEntry
	Diagnostics []models.Diagnostic
}

// DisposalProcessor applies the reporting year's events to the opening
// ledger: acquisitions enter as new lots, sales are matched oldest-lot-
// first. Gains are computed in the reporting currency only: the basis leg
// keeps its acquisition-date rate, the proceeds leg its sale-date rate.
type DisposalProcessor struct{}

func NewDisposalProcessor() *DisposalProcessor { return &DisposalProcessor{} }

// Process mutates ledger into the year-end state and returns the realized
// disposals. events must be the normalized, ordered events of the
// reporting year.
func (p *DisposalProcessor) Process(ledger *models.LotLedger, events []models.TransactionEvent) DisposalOutcome {
	var out DisposalOutcome

	for _, e := range events {
		switch e.Type {
		case models.EventDeposit, models.EventBuy:
			ledger.Add(models.Lot{
				Symbol:      e.Symbol,
				Date:        e.Date,
				Seq:         e.Seq,
				Qty:         e.Qty,
				Basis:       *e.PurchasePrice,
				Description: e.Description,
			})

		case models.EventSell:
			qty := e.Qty.Abs()
			available := ledger.Available(e.Symbol)
			if qty.GreaterThan(available) {
				// Fatal for this disposal only. Nothing is clipped: the
				// lots stay put and the gap is surfaced on the report.
				lotsErr := &InsufficientLotsError{
					Symbol:    e.Symbol,
					Date:      e.Date,
					Requested: qty,
					Available: available,
					Shortfall: qty.Sub(available),
				}
				out.Exceptions = append(out.Exceptions, models.ExceptionEntry{
					Symbol:    e.Symbol,
					Date:      e.Date,
					Requested: qty,
					Available: available,
					Shortfall: lotsErr.Shortfall,
					Message:   lotsErr.Error(),
				})
				out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
					Level:   "error",
					Symbol:  e.Symbol,
					Date:    e.Date,
					Message: lotsErr.Error(),
				})
				continue
			}

			portions, _ := ledger.ConsumeFIFO(e.Symbol, qty)
			out.Disposals = append(out.Disposals, buildDisposal(e, qty, portions))

		case models.EventTransfer:
			qty := e.Qty.Abs()
			available := ledger.Available(e.Symbol)
			if qty.GreaterThan(available) {
				out.Exceptions = append(out.Exceptions, models.ExceptionEntry{
					Symbol:    e.Symbol,
					Date:      e.Date,
					Requested: qty,
					Available: available,
					Shortfall: qty.Sub(available),
					Message:   "transfer out exceeds available shares",
				})
				continue
			}
			ledger.ConsumeFIFO(e.Symbol, qty)
			out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
				Level:   "info",
				Symbol:  e.Symbol,
				Date:    e.Date,
				Message: "shares transferred out without proceeds",
			})
		}
	}
	return out
}

// buildDisposal prorates the sale's net proceeds over the consumed lot
// portions and realizes the per-leg gain. The last portion takes the
// remainder so the legs always sum back to the sale's proceeds.
func buildDisposal(sale models.TransactionEvent, qty decimal.Decimal, portions []models.LotPortion) models.Disposal {
	proceeds := *sale.Amount
	d := models.Disposal{
		Symbol:   sale.Symbol,
		SaleDate: sale.Date,
		Qty:      qty,
		Proceeds: proceeds,
	}
	remaining := proceeds
	for i, portion := range portions {
		legProceeds := remaining
		if i < len(portions)-1 {
			legProceeds = proceeds.Mul(portion.Qty).Div(qty)
			remaining = remaining.Sub(legProceeds)
		}
		legBasis := portion.Lot.Basis.Mul(portion.Qty)
		gain := legProceeds.Reporting.Sub(legBasis.Reporting)
		d.Legs = append(d.Legs, models.DisposalLeg{
			LotDate:       portion.Lot.Date,
			LotSeq:        portion.Lot.Seq,
			Qty:           portion.Qty,
			Basis:         legBasis,
			Proceeds:      legProceeds,
			GainReporting: gain,
		})
		d.GainReporting = d.GainReporting.Add(gain)
	}
	return d
}
