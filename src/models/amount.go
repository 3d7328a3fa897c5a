package models

import "github.com/shopspring/decimal"

// Amount is a monetary value in its original trading currency together
// with its reporting-currency conversion. Rate follows the ECB convention:
// foreign units per one reporting unit, so Reporting = Value / Rate.
// The rate is fixed at the amount's own transaction date and never
// re-priced afterwards.
type Amount struct {
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	Rate      decimal.Decimal `json:"rate"`
	Reporting decimal.Decimal `json:"reporting"`
}

// NewAmount builds an Amount from a value and the historical rate in
// effect on its transaction date.
func NewAmount(currency string, value, rate decimal.Decimal) Amount {
	a := Amount{Currency: currency, Value: value, Rate: rate}
	if rate.IsPositive() {
		a.Reporting = value.Div(rate)
	}
	return a
}

// Mul scales both legs of the amount, preserving the historical rate.
func (a Amount) Mul(qty decimal.Decimal) Amount {
	return Amount{
		Currency:  a.Currency,
		Value:     a.Value.Mul(qty),
		Rate:      a.Rate,
		Reporting: a.Reporting.Mul(qty),
	}
}

// Div divides both legs, preserving the historical rate.
func (a Amount) Div(qty decimal.Decimal) Amount {
	return Amount{
		Currency:  a.Currency,
		Value:     a.Value.Div(qty),
		Rate:      a.Rate,
		Reporting: a.Reporting.Div(qty),
	}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{
		Currency:  a.Currency,
		Value:     a.Value.Add(b.Value),
		Rate:      a.Rate,
		Reporting: a.Reporting.Add(b.Reporting),
	}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{
		Currency:  a.Currency,
		Value:     a.Value.Sub(b.Value),
		Rate:      a.Rate,
		Reporting: a.Reporting.Sub(b.Reporting),
	}
}

// Abs sign-normalizes both value legs.
func (a Amount) Abs() Amount {
	return Amount{
		Currency:  a.Currency,
		Value:     a.Value.Abs(),
		Rate:      a.Rate,
		Reporting: a.Reporting.Abs(),
	}
}

func (a Amount) IsZero() bool {
	return a.Value.IsZero()
}
