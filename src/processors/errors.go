package processors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

// IncompleteHistoryError reports a sale replayed during reconstruction
// that references more shares than the ledger holds at that point; the
// supplied history has a gap before its first acquisition. Recoverable
// only by supplying more history or a prior holdings snapshot.
type IncompleteHistoryError struct {
	Symbol    string
	Date      models.Date
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *IncompleteHistoryError) Error() string {
	return fmt.Sprintf("incomplete transaction history: sale of %s %s on %s exceeds reconstructed balance of %s",
		e.Requested, e.Symbol, e.Date, e.Available)
}

// BalanceMismatchError reports a reconstructed ledger that disagrees with
// the externally supplied expected balance at the reference date. Delta is
// reconstructed minus expected. The ledger is never silently adjusted.
type BalanceMismatchError struct {
	Symbol        string
	Date          models.Date
	Expected      decimal.Decimal
	Reconstructed decimal.Decimal
	Delta         decimal.Decimal
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("balance mismatch for %s on %s: expected %s, reconstructed %s (delta %s)",
		e.Symbol, e.Date, e.Expected, e.Reconstructed, e.Delta)
}

// InsufficientLotsError reports a current-year disposal that exceeds the
// total open quantity for its security. Fatal for that disposal only; the
// rest of the run proceeds and the report is marked incomplete.
type InsufficientLotsError struct {
	Symbol    string
	Date      models.Date
	Requested decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientLotsError) Error() string {
	return fmt.Sprintf("insufficient lots for %s on %s: sale of %s against %s available (short %s shares)",
		e.Symbol, e.Date, e.Requested, e.Available, e.Shortfall)
}
