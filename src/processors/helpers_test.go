package processors

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) models.Date { return models.NewDate(y, m, dd) }

func usd(value, rate string) models.Amount {
	return models.NewAmount("USD", d(value), d(rate))
}

// deposit builds an ESPP purchase or vest with a per-share price.
func deposit(symbol string, date models.Date, qty, price, rate string) models.TransactionEvent {
	p := usd(price, rate)
	return models.TransactionEvent{
		Type:          models.EventDeposit,
		Date:          date,
		Symbol:        symbol,
		Qty:           d(qty),
		PurchasePrice: &p,
	}
}

// sell builds a disposal; qty is the positive share count, proceeds the
// net cash received.
func sell(symbol string, date models.Date, qty, proceeds, rate string) models.TransactionEvent {
	a := usd(proceeds, rate)
	return models.TransactionEvent{
		Type:   models.EventSell,
		Date:   date,
		Symbol: symbol,
		Qty:    d(qty).Neg(),
		Amount: &a,
	}
}

func dividend(symbol string, date models.Date, amount, rate string) models.TransactionEvent {
	a := usd(amount, rate)
	return models.TransactionEvent{Type: models.EventDividend, Date: date, Symbol: symbol, Amount: &a}
}

func withholding(symbol string, date models.Date, amount, rate string) models.TransactionEvent {
	a := usd(amount, rate)
	return models.TransactionEvent{Type: models.EventTax, Date: date, Symbol: symbol, Amount: &a}
}

func proceedsEntry(date models.Date, amount string) models.CashEntry {
	return models.CashEntry{Date: date, Description: "sale proceeds CSCO", Amount: usd(amount, "1.1")}
}

func wire(date models.Date, amount string) models.WireRecord {
	return models.WireRecord{Date: date, Amount: d(amount), Currency: "USD"}
}
