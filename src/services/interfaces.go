package services

import (
	"errors"

	"github.com/username/vestfolio/src/models"
	"github.com/username/vestfolio/src/processors"
)

var (
	// ErrInvalidInput flags a request the core never ran for: bad year,
	// unknown broker, no transaction files.
	ErrInvalidInput = errors.New("invalid report input")
	// ErrRunNotFound is returned for unknown run IDs.
	ErrRunNotFound = errors.New("report run not found")
)

// ReportInput is one reconstruction-plus-report request. Histories are the
// decoded transaction files in upload order, pre-normalization. Strategy
// may be left empty to infer it from input availability.
type ReportInput struct {
	Year          int
	Broker        string
	Strategy      processors.ReconstructionStrategy
	Histories     [][]models.TransactionEvent
	PriorHoldings *models.Holdings
	Expected      *models.ExpectedBalance
	Wires         []models.WireRecord
}

// ReportService runs the holdings-reconstruction and report-assembly
// pipeline. Each run is an independent synchronous computation; runs may
// execute concurrently, sharing only the read-safe rate cache.
type ReportService interface {
	GenerateReport(in ReportInput) (*models.ReportResult, error)
	GetReport(runID string) (*models.ReportResult, error)
	GetLatestHoldings() (*models.Holdings, error)
	GetTransactions(runID string) ([]models.TransactionEvent, error)
	DeleteAllRuns() error
	BuildBundle(runID string) ([]byte, string, error)
}
