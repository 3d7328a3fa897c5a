package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
	"github.com/username/vestfolio/src/rates"
)

// ErrValidationFailed wraps every consistency problem found in a supplied
// transaction history.
var ErrValidationFailed = errors.New("transaction history validation failed")

// Normalizer turns decoded transaction events into the canonical ordered
// sequence the processors consume: signs canonicalized per event type,
// amounts enriched with their transaction-date exchange rate, ordering
// metadata assigned. The event decoding itself trusts the upstream
// broker-specific exporters; this layer validates internal consistency.
type Normalizer struct {
	rateSource        rates.Source
	reportingCurrency string
}

func New(rateSource rates.Source, reportingCurrency string) *Normalizer {
	return &Normalizer{rateSource: rateSource, reportingCurrency: reportingCurrency}
}

// transactionFile is the canonical export envelope; a bare JSON array is
// accepted too.
type transactionFile struct {
	Transactions []models.TransactionEvent `json:"transactions"`
}

// Decode reads one canonical transaction export.
func (n *Normalizer) Decode(r io.Reader) ([]models.TransactionEvent, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading transaction file: %w", err)
	}
	var file transactionFile
	if err := json.Unmarshal(raw, &file); err == nil && file.Transactions != nil {
		return file.Transactions, nil
	}
	var events []models.TransactionEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return events, nil
}

// Normalize validates and enriches one file's events and stamps them with
// their ordering metadata. With relaxed set, deposits may omit their
// purchase price (single-file lifetime exports from some brokers do not
// carry a basis for the oldest entries); a zero basis in the reporting
// currency is substituted.
func (n *Normalizer) Normalize(fileOrder int, events []models.TransactionEvent, relaxed bool) ([]models.TransactionEvent, error) {
	out := make([]models.TransactionEvent, 0, len(events))
	for seq, e := range events {
		e.FileOrder = fileOrder
		e.Seq = seq
		if err := n.canonicalize(&e, relaxed); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s %s): %v", ErrValidationFailed, seq, e.Type, e.Date, err)
		}
		if err := n.enrich(&e); err != nil {
			return nil, fmt.Errorf("entry %d (%s %s): %w", seq, e.Type, e.Date, err)
		}
		out = append(out, e)
	}
	models.SortEvents(out)
	return out, nil
}

func (n *Normalizer) canonicalize(e *models.TransactionEvent, relaxed bool) error {
	if e.Date.IsZero() {
		return errors.New("missing date")
	}
	switch e.Type {
	case models.EventDeposit, models.EventBuy:
		if e.Symbol == "" {
			return errors.New("missing symbol")
		}
		if !e.Qty.IsPositive() {
			return errors.New("acquisition quantity must be positive")
		}
		if e.PurchasePrice == nil {
			if !relaxed {
				return errors.New("missing purchase price")
			}
			e.PurchasePrice = &models.Amount{
				Currency: n.reportingCurrency,
				Value:    decimal.Zero,
				Rate:     decimal.NewFromInt(1),
			}
		}
	case models.EventSell, models.EventTransfer:
		if e.Symbol == "" {
			return errors.New("missing symbol")
		}
		if e.Qty.IsZero() {
			return errors.New("disposal quantity must be non-zero")
		}
		e.Qty = e.Qty.Abs().Neg()
		if e.Type == models.EventSell {
			if e.Amount == nil {
				return errors.New("missing sale proceeds")
			}
			e.Amount.Value = e.Amount.Value.Abs()
		}
	case models.EventDividend:
		if e.Symbol == "" {
			return errors.New("missing symbol")
		}
		if e.Amount == nil {
			return errors.New("missing dividend amount")
		}
		e.Amount.Value = e.Amount.Value.Abs()
	case models.EventTax:
		if e.Amount == nil {
			return errors.New("missing tax amount")
		}
		e.Amount.Value = e.Amount.Value.Abs().Neg()
	case models.EventWire:
		if e.Amount == nil {
			return errors.New("missing wire amount")
		}
		e.Amount.Value = e.Amount.Value.Abs().Neg()
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// enrich fills in the transaction-date exchange rate and reporting value
// for every amount carried by the event. Rates supplied by the exporter
// are kept; each amount keeps the rate of its own leg's date forever.
func (n *Normalizer) enrich(e *models.TransactionEvent) error {
	for _, a := range []*models.Amount{e.PurchasePrice, e.Amount, e.Fee} {
		if a == nil {
			continue
		}
		if a.Currency == "" {
			a.Currency = n.reportingCurrency
		}
		if !a.Rate.IsPositive() {
			rate, err := n.rateSource.Rate(a.Currency, e.Date)
			if err != nil {
				return fmt.Errorf("resolving rate for %s: %w", a.Currency, err)
			}
			a.Rate = rate
		}
		a.Reporting = a.Value.Div(a.Rate)
	}
	return nil
}

// Merge concatenates several normalized histories on year boundaries. For
// years covered by more than one file, the earlier-starting file keeps the
// first overlapping year and the later file supplies the years after it:
// lifetime exports typically truncate their earliest year, so the file
// that reaches further back is authoritative for the boundary year.
func Merge(histories [][]models.TransactionEvent) []models.TransactionEvent {
	type span struct {
		first, last int
		events      []models.TransactionEvent
	}
	var spans []span
	for _, h := range histories {
		if len(h) == 0 {
			continue
		}
		events := make([]models.TransactionEvent, len(h))
		copy(events, h)
		models.SortEvents(events)
		spans = append(spans, span{
			first:  events[0].Date.Year(),
			last:   events[len(events)-1].Date.Year(),
			events: events,
		})
	}
	if len(spans) == 0 {
		return nil
	}
	if len(spans) == 1 {
		return spans[0].events
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].first < spans[j].first })

	// Assign each year to a file.
	years := make(map[int]int)
	minYear, maxYear := spans[0].first, spans[0].last
	overlapDone := false
	for i, s := range spans {
		if s.last > maxYear {
			maxYear = s.last
		}
		for y := s.first; y <= s.last; y++ {
			if _, seen := years[y]; seen && !overlapDone {
				overlapDone = true
				continue
			}
			years[y] = i
		}
	}

	var merged []models.TransactionEvent
	for y := minYear; y <= maxYear; y++ {
		i, ok := years[y]
		if !ok {
			continue
		}
		merged = append(merged, models.EventsInYear(spans[i].events, y)...)
	}
	models.SortEvents(merged)
	return merged
}
