package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/username/vestfolio/src/config"
	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/models"
	"github.com/username/vestfolio/src/normalizer"
	"github.com/username/vestfolio/src/processors"
	"github.com/username/vestfolio/src/services"
	"github.com/username/vestfolio/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
	normalizer    *normalizer.Normalizer
}

func NewReportHandler(service services.ReportService, norm *normalizer.Normalizer) *ReportHandler {
	return &ReportHandler{
		reportService: service,
		normalizer:    norm,
	}
}

// HandleGenerateReport accepts a multipart request carrying one or more
// canonical transaction exports plus the optional inputs (prior holdings,
// wire records, expected balance) and runs one report computation.
func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil || year <= 0 {
		utils.SendJSONError(w, "A valid 'year' form value is required.", http.StatusBadRequest)
		return
	}
	broker := r.FormValue("broker")
	if !models.IsSupportedBroker(broker) {
		utils.SendJSONError(w, fmt.Sprintf("Unsupported broker %q.", broker), http.StatusBadRequest)
		return
	}
	strategy, ok := parseStrategy(r.FormValue("strategy"))
	if !ok {
		utils.SendJSONError(w, fmt.Sprintf("Unknown reconstruction strategy %q.", r.FormValue("strategy")), http.StatusBadRequest)
		return
	}

	transactionFiles := r.MultipartForm.File["transactions"]
	if len(transactionFiles) == 0 {
		utils.SendJSONError(w, "At least one file in the 'transactions' field is required.", http.StatusBadRequest)
		return
	}

	input := services.ReportInput{Year: year, Broker: broker, Strategy: strategy}
	for _, header := range transactionFiles {
		events, err := h.decodeTransactions(header)
		if err != nil {
			logger.L.Warn("Failed to decode transaction file", "filename", header.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error decoding transaction file %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		input.Histories = append(input.Histories, events)
	}

	if err := decodeOptionalJSON(r, "holdings", &input.PriorHoldings); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error decoding holdings file: %v", err), http.StatusBadRequest)
		return
	}
	if input.PriorHoldings != nil && input.PriorHoldings.SchemaVersion > models.HoldingsSchemaVersion {
		utils.SendJSONError(w, fmt.Sprintf("Holdings snapshot schema version %d is newer than supported version %d.", input.PriorHoldings.SchemaVersion, models.HoldingsSchemaVersion), http.StatusBadRequest)
		return
	}
	if err := decodeOptionalJSON(r, "wires", &input.Wires); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error decoding wires file: %v", err), http.StatusBadRequest)
		return
	}
	if err := decodeOptionalJSON(r, "expected_balance", &input.Expected); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error decoding expected balance file: %v", err), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing report request", "year", year, "broker", broker, "files", len(input.Histories))
	result, err := h.reportService.GenerateReport(input)
	if err != nil {
		h.sendReportError(w, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

// sendReportError maps domain error kinds to HTTP responses carrying
// enough context for the caller to message the user.
func (h *ReportHandler) sendReportError(w http.ResponseWriter, err error) {
	var incompleteErr *processors.IncompleteHistoryError
	var mismatchErr *processors.BalanceMismatchError

	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, normalizer.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &incompleteErr):
		logger.L.Warn("Report aborted: incomplete history", "symbol", incompleteErr.Symbol, "date", incompleteErr.Date)
		utils.SendJSON(w, map[string]any{
			"error":     incompleteErr.Error(),
			"kind":      "incomplete_history",
			"symbol":    incompleteErr.Symbol,
			"date":      incompleteErr.Date,
			"requested": incompleteErr.Requested,
			"available": incompleteErr.Available,
		}, http.StatusUnprocessableEntity)
	case errors.As(err, &mismatchErr):
		logger.L.Warn("Report aborted: balance mismatch", "symbol", mismatchErr.Symbol, "delta", mismatchErr.Delta)
		utils.SendJSON(w, map[string]any{
			"error":         mismatchErr.Error(),
			"kind":          "balance_mismatch",
			"symbol":        mismatchErr.Symbol,
			"date":          mismatchErr.Date,
			"expected":      mismatchErr.Expected,
			"reconstructed": mismatchErr.Reconstructed,
			"delta":         mismatchErr.Delta,
		}, http.StatusUnprocessableEntity)
	default:
		logger.L.Error("Internal error generating report", "error", err)
		utils.SendJSONError(w, "An internal error occurred while generating the report. Please try again later.", http.StatusInternalServerError)
	}
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	result, err := h.reportService.GetReport(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Report run %s not found.", runID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving report run", "runID", runID, "error", err)
		utils.SendJSONError(w, "Error retrieving report run.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *ReportHandler) HandleDownloadBundle(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	data, name, err := h.reportService.BuildBundle(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Report run %s not found.", runID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error building export bundle", "runID", runID, "error", err)
		utils.SendJSONError(w, "Error building export bundle.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.L.Error("Error writing export bundle response", "runID", runID, "error", err)
	}
}

func (h *ReportHandler) decodeTransactions(header *multipart.FileHeader) ([]models.TransactionEvent, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return h.normalizer.Decode(file)
}

// decodeOptionalJSON decodes a single optional multipart file into dst.
// Absence is not an error.
func decodeOptionalJSON(r *http.Request, field string, dst any) error {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(dst)
}

func parseStrategy(raw string) (processors.ReconstructionStrategy, bool) {
	switch processors.ReconstructionStrategy(raw) {
	case "", processors.StrategyFullHistory, processors.StrategyPriorPlusIncremental,
		processors.StrategyExpectedBalance, processors.StrategySingleFile:
		return processors.ReconstructionStrategy(raw), true
	}
	return "", false
}
