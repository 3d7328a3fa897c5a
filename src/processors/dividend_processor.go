package processors

import (
	"sort"

	"github.com/username/vestfolio/src/models"
)

// DividendProcessor rolls up dividend income and withholding per security
// for the reporting year, in reporting currency.
type DividendProcessor struct{}

func NewDividendProcessor() *DividendProcessor { return &DividendProcessor{} }

func (p *DividendProcessor) Aggregate(events []models.TransactionEvent) []models.DividendIncome {
	bySymbol := make(map[string]*models.DividendIncome)
	get := func(symbol string) *models.DividendIncome {
		if d, ok := bySymbol[symbol]; ok {
			return d
		}
		d := &models.DividendIncome{Symbol: symbol}
		bySymbol[symbol] = d
		return d
	}

	for _, e := range events {
		switch e.Type {
		case models.EventDividend:
			d := get(e.Symbol)
			d.GrossReporting = d.GrossReporting.Add(e.Amount.Reporting)
		case models.EventTax:
			d := get(e.Symbol)
			d.TaxReporting = d.TaxReporting.Add(e.Amount.Reporting)
		}
	}

	var out []models.DividendIncome
	for _, d := range bySymbol {
		d.NetReporting = d.GrossReporting.Add(d.TaxReporting)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
