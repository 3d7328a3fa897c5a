package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) Date { return NewDate(y, m, dd) }

func lot(symbol string, date Date, seq int, qty, price, rate string) Lot {
	return Lot{
		Symbol: symbol,
		Date:   date,
		Seq:    seq,
		Qty:    d(qty),
		Basis:  NewAmount("USD", d(price), d(rate)),
	}
}

func TestLotLedgerKeepsAcquisitionOrder(t *testing.T) {
	ledger := NewLotLedger()
	ledger.Add(lot("CSCO", day(2021, 6, 1), 3, "10", "55", "1.2"))
	ledger.Add(lot("CSCO", day(2020, 1, 15), 1, "5", "40", "1.1"))
	ledger.Add(lot("CSCO", day(2021, 6, 1), 2, "7", "54", "1.2"))

	lots := ledger.Lots("CSCO")
	require.Len(t, lots, 3)
	assert.Equal(t, day(2020, 1, 15), lots[0].Date)
	// Same-day lots ordered by origin sequence.
	assert.Equal(t, 2, lots[1].Seq)
	assert.Equal(t, 3, lots[2].Seq)
}

func TestConsumeFIFOSplitsLots(t *testing.T) {
	ledger := NewLotLedger()
	ledger.Add(lot("CSCO", day(2020, 1, 1), 0, "10", "100", "1"))
	ledger.Add(lot("CSCO", day(2021, 1, 1), 1, "10", "150", "1"))

	portions, ok := ledger.ConsumeFIFO("CSCO", d("15"))
	require.True(t, ok)
	require.Len(t, portions, 2)
	assert.True(t, portions[0].Qty.Equal(d("10")), "oldest lot consumed in full")
	assert.Equal(t, day(2020, 1, 1), portions[0].Lot.Date)
	assert.True(t, portions[1].Qty.Equal(d("5")))

	// The split remainder stays on the younger lot.
	assert.True(t, ledger.Available("CSCO").Equal(d("5")))
	remaining := ledger.Lots("CSCO")
	require.Len(t, remaining, 1)
	assert.Equal(t, day(2021, 1, 1), remaining[0].Date)
}

func TestConsumeFIFORefusesOversell(t *testing.T) {
	ledger := NewLotLedger()
	ledger.Add(lot("CSCO", day(2020, 1, 1), 0, "15", "100", "1"))

	portions, ok := ledger.ConsumeFIFO("CSCO", d("20"))
	assert.False(t, ok)
	assert.Nil(t, portions)
	// The ledger is untouched on refusal.
	assert.True(t, ledger.Available("CSCO").Equal(d("15")))
}

func TestSnapshotRoundTrip(t *testing.T) {
	ledger := NewLotLedger()
	ledger.Add(lot("CSCO", day(2020, 1, 1), 0, "10", "42.5", "1.08"))
	ledger.Add(lot("AAPL", day(2021, 3, 9), 4, "2.5", "150", "1.1"))

	snap := ledger.Snapshot(2022, BrokerSchwab)
	assert.Equal(t, HoldingsSchemaVersion, snap.SchemaVersion)
	assert.Equal(t, 2022, snap.Year)
	require.Len(t, snap.Stocks, 2)
	assert.True(t, snap.TotalShares("AAPL").Equal(d("2.5")))

	// A snapshot seeds an identical ledger.
	reseeded := NewLotLedger()
	for _, l := range snap.Stocks {
		reseeded.Add(l)
	}
	assert.Equal(t, ledger.Lots("CSCO"), reseeded.Lots("CSCO"))
	assert.Equal(t, ledger.Lots("AAPL"), reseeded.Lots("AAPL"))
}

func TestSortEventsBreaksTiesByFileThenSeq(t *testing.T) {
	events := []TransactionEvent{
		{Type: EventSell, Date: day(2022, 5, 1), Symbol: "CSCO", FileOrder: 1, Seq: 0},
		{Type: EventDeposit, Date: day(2022, 5, 1), Symbol: "CSCO", FileOrder: 0, Seq: 2},
		{Type: EventDeposit, Date: day(2022, 5, 1), Symbol: "CSCO", FileOrder: 0, Seq: 1},
		{Type: EventDeposit, Date: day(2022, 4, 30), Symbol: "CSCO", FileOrder: 1, Seq: 5},
	}
	SortEvents(events)

	assert.Equal(t, day(2022, 4, 30), events[0].Date)
	assert.Equal(t, 1, events[1].Seq)
	assert.Equal(t, 2, events[2].Seq)
	assert.Equal(t, 1, events[3].FileOrder)
}
