package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/vestfolio/src/database"
	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/models"
	"github.com/username/vestfolio/src/normalizer"
	"github.com/username/vestfolio/src/processors"
)

const ckReportRun = "res_report_run_%s"

type reportServiceImpl struct {
	normalizer        *normalizer.Normalizer
	holdingsProcessor *processors.HoldingsProcessor
	disposalProcessor *processors.DisposalProcessor
	dividendProcessor *processors.DividendProcessor
	wireProcessor     *processors.WireProcessor
	reportProcessor   *processors.ReportProcessor
	resultCache       *cache.Cache
}

func NewReportService(
	norm *normalizer.Normalizer,
	holdingsProcessor *processors.HoldingsProcessor,
	disposalProcessor *processors.DisposalProcessor,
	dividendProcessor *processors.DividendProcessor,
	wireProcessor *processors.WireProcessor,
	reportProcessor *processors.ReportProcessor,
	resultCache *cache.Cache,
) ReportService {
	return &reportServiceImpl{
		normalizer:        norm,
		holdingsProcessor: holdingsProcessor,
		disposalProcessor: disposalProcessor,
		dividendProcessor: dividendProcessor,
		wireProcessor:     wireProcessor,
		reportProcessor:   reportProcessor,
		resultCache:       resultCache,
	}
}

func (s *reportServiceImpl) GenerateReport(in ReportInput) (*models.ReportResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("GenerateReport START", "year", in.Year, "broker", in.Broker)

	if in.Year <= 0 {
		return nil, fmt.Errorf("%w: tax year is required", ErrInvalidInput)
	}
	if !models.IsSupportedBroker(in.Broker) {
		return nil, fmt.Errorf("%w: unsupported broker %q", ErrInvalidInput, in.Broker)
	}
	if len(in.Histories) == 0 {
		return nil, fmt.Errorf("%w: at least one transaction history is required", ErrInvalidInput)
	}

	strategy := processors.SelectStrategy(processors.ReconstructionInput{
		Strategy:      in.Strategy,
		Broker:        in.Broker,
		PriorHoldings: in.PriorHoldings,
		Expected:      in.Expected,
	})
	if strategy == processors.StrategySingleFile && len(in.Histories) != 1 {
		return nil, fmt.Errorf("%w: single-file reconstruction takes exactly one transaction file, got %d", ErrInvalidInput, len(in.Histories))
	}
	relaxed := strategy == processors.StrategySingleFile

	normalized := make([][]models.TransactionEvent, 0, len(in.Histories))
	for fileOrder, history := range in.Histories {
		events, err := s.normalizer.Normalize(fileOrder, history, relaxed)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, events)
	}
	merged := normalizer.Merge(normalized)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: transaction histories are empty", ErrInvalidInput)
	}

	ledger, diags, err := s.holdingsProcessor.Reconstruct(processors.ReconstructionInput{
		Strategy:      strategy,
		Year:          in.Year,
		Broker:        in.Broker,
		History:       merged,
		PriorHoldings: in.PriorHoldings,
		Expected:      in.Expected,
	})
	if err != nil {
		return nil, fmt.Errorf("holdings reconstruction failed: %w", err)
	}

	yearEvents := models.EventsInYear(merged, in.Year)
	outcome := s.disposalProcessor.Process(ledger, yearEvents)
	dividends := s.dividendProcessor.Aggregate(yearEvents)
	cashLedger := s.reportProcessor.BuildCashLedger(yearEvents)

	var wireOutcome processors.WireOutcome
	if len(in.Wires) > 0 {
		proceeds := s.reportProcessor.ProceedsEntries(outcome.Disposals)
		wireOutcome = s.wireProcessor.Reconcile(proceeds, in.Wires)
	} else {
		diags = append(diags, models.Diagnostic{
			Level:   "info",
			Message: "no wire records supplied; wire reconciliation skipped",
		})
	}

	report, holdings := s.reportProcessor.Assemble(processors.AssembleInput{
		Year:         in.Year,
		Broker:       in.Broker,
		Ledger:       ledger,
		PrevHoldings: in.PriorHoldings,
		Disposals:    outcome,
		Wires:        wireOutcome,
		Dividends:    dividends,
		CashLedger:   cashLedger,
		Diagnostics:  diags,
	})

	result := &models.ReportResult{
		RunID:          uuid.NewString(),
		Report:         *report,
		Holdings:       holdings,
		UnmatchedWires: report.UnmatchedWires,
		Summary:        report.Summary,
	}

	if err := s.persistRun(result, string(strategy), merged); err != nil {
		return nil, err
	}
	s.resultCache.Set(fmt.Sprintf(ckReportRun, result.RunID), result, cache.DefaultExpiration)

	logger.L.Info("GenerateReport END",
		"runID", result.RunID,
		"year", in.Year,
		"strategy", strategy,
		"disposals", result.Summary.DisposalCount,
		"complete", result.Summary.Complete,
		"duration", time.Since(overallStartTime))
	return result, nil
}

func (s *reportServiceImpl) persistRun(result *models.ReportResult, strategy string, events []models.TransactionEvent) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("error marshalling run result: %w", err)
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(
		`INSERT INTO report_runs (id, year, broker, strategy, result_json) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, result.Report.Year, result.Report.Broker, strategy, string(resultJSON),
	); err != nil {
		return fmt.Errorf("error inserting report run: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO transaction_events (run_id, file_order, seq, type, date, symbol, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing event insert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("error marshalling event: %w", err)
		}
		if _, err := stmt.Exec(result.RunID, e.FileOrder, e.Seq, string(e.Type), e.Date.String(), e.Symbol, string(payload)); err != nil {
			return fmt.Errorf("error inserting event (%s %s): %w", e.Type, e.Date, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing run: %w", err)
	}
	return nil
}

func (s *reportServiceImpl) GetReport(runID string) (*models.ReportResult, error) {
	cacheKey := fmt.Sprintf(ckReportRun, runID)
	if cached, found := s.resultCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report run", "runID", runID)
		return cached.(*models.ReportResult), nil
	}

	var resultJSON string
	err := database.DB.QueryRow(`SELECT result_json FROM report_runs WHERE id = ?`, runID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching report run %s: %w", runID, err)
	}

	var result models.ReportResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling report run %s: %w", runID, err)
	}
	s.resultCache.Set(cacheKey, &result, cache.DefaultExpiration)
	return &result, nil
}

func (s *reportServiceImpl) GetLatestHoldings() (*models.Holdings, error) {
	var resultJSON string
	err := database.DB.QueryRow(`SELECT result_json FROM report_runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching latest run: %w", err)
	}

	var result models.ReportResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling latest run: %w", err)
	}
	return result.Holdings, nil
}

func (s *reportServiceImpl) GetTransactions(runID string) ([]models.TransactionEvent, error) {
	rows, err := database.DB.Query(
		`SELECT payload FROM transaction_events WHERE run_id = ? ORDER BY date, file_order, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("error fetching events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var events []models.TransactionEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		var e models.TransactionEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("error unmarshalling event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return events, nil
}

func (s *reportServiceImpl) DeleteAllRuns() error {
	if _, err := database.DB.Exec(`DELETE FROM transaction_events`); err != nil {
		return fmt.Errorf("error deleting transaction events: %w", err)
	}
	if _, err := database.DB.Exec(`DELETE FROM report_runs`); err != nil {
		return fmt.Errorf("error deleting report runs: %w", err)
	}
	s.resultCache.Flush()
	logger.L.Info("Deleted all report runs")
	return nil
}
