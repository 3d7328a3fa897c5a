package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/services"
	"github.com/username/vestfolio/src/utils"
)

type TransactionHandler struct {
	reportService services.ReportService
}

func NewTransactionHandler(service services.ReportService) *TransactionHandler {
	return &TransactionHandler{reportService: service}
}

// HandleGetTransactions returns the normalized, ordered events persisted
// for one run.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		utils.SendJSONError(w, "The 'run_id' query parameter is required.", http.StatusBadRequest)
		return
	}
	events, err := h.reportService.GetTransactions(runID)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Report run %s not found.", runID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving transactions", "runID", runID, "error", err)
		utils.SendJSONError(w, "Error retrieving transactions.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, events, http.StatusOK)
}

func (h *TransactionHandler) HandleDeleteAllRuns(w http.ResponseWriter, r *http.Request) {
	if err := h.reportService.DeleteAllRuns(); err != nil {
		logger.L.Error("Error deleting report runs", "error", err)
		utils.SendJSONError(w, "Error deleting report runs.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "all report runs deleted"}, http.StatusOK)
}
