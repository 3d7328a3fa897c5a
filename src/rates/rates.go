package rates

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/models"
)

// Source resolves the historical exchange rate for a currency at a date,
// expressed as foreign units per one reporting unit (ECB convention).
// Implementations must be safe for concurrent reads: rate lookups are the
// only data shared between parallel report runs.
type Source interface {
	Rate(currency string, date models.Date) (decimal.Decimal, error)
}

// maxFallbackDays bounds the walk back to the most recent prior
// observation; rates are published on business days only.
const maxFallbackDays = 7

// rateFile mirrors the ECB-style observation dump the historical rates
// are distributed in.
type rateFile struct {
	Root struct {
		Obs []struct {
			TimePeriod string `json:"_TIME_PERIOD"`
			ObsValue   string `json:"_OBS_VALUE"`
			Ccy        string `json:"_CCY"`
		} `json:"Obs"`
	} `json:"root"`
}

// HistoricalSource serves rates from an in-memory index loaded once at
// startup. Read-only after construction, so concurrent reads are safe.
type HistoricalSource struct {
	reportingCurrency string
	byCurrency        map[string]map[string]decimal.Decimal // currency -> date -> rate
}

// NewHistoricalSource loads the observation file at filePath.
func NewHistoricalSource(filePath, reportingCurrency string) (*HistoricalSource, error) {
	logger.L.Info("Loading historical exchange rates", "path", filePath)
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading historical exchange rate file '%s': %w", filePath, err)
	}

	var file rateFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("error unmarshalling historical exchange rates from '%s': %w", filePath, err)
	}

	s := &HistoricalSource{
		reportingCurrency: reportingCurrency,
		byCurrency:        make(map[string]map[string]decimal.Decimal),
	}
	for _, obs := range file.Root.Obs {
		rate, err := decimal.NewFromString(obs.ObsValue)
		if err != nil {
			logger.L.Warn("Invalid exchange rate value in data", "currency", obs.Ccy, "date", obs.TimePeriod, "value", obs.ObsValue)
			continue
		}
		if s.byCurrency[obs.Ccy] == nil {
			s.byCurrency[obs.Ccy] = make(map[string]decimal.Decimal)
		}
		s.byCurrency[obs.Ccy][obs.TimePeriod] = rate
	}
	logger.L.Info("Historical exchange rates loaded", "path", filePath, "currencies", len(s.byCurrency))
	return s, nil
}

// NewStaticSource builds a source from a fixed table; used by tests.
func NewStaticSource(reportingCurrency string, table map[string]map[string]decimal.Decimal) *HistoricalSource {
	return &HistoricalSource{reportingCurrency: reportingCurrency, byCurrency: table}
}

// Rate returns the observation for the given date, falling back to the
// most recent prior observation within maxFallbackDays (weekends and
// holidays have no published rate). The reporting currency is identity.
func (s *HistoricalSource) Rate(currency string, date models.Date) (decimal.Decimal, error) {
	if currency == s.reportingCurrency {
		return decimal.NewFromInt(1), nil
	}
	dates, ok := s.byCurrency[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate data for currency %s", currency)
	}
	for i := 0; i <= maxFallbackDays; i++ {
		if rate, ok := dates[date.AddDays(-i).String()]; ok {
			return rate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("exchange rate not found for %s on %s", currency, date)
}
