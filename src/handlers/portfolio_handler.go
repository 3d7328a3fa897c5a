package handlers

import (
	"errors"
	"net/http"

	"github.com/username/vestfolio/src/logger"
	"github.com/username/vestfolio/src/services"
	"github.com/username/vestfolio/src/utils"
)

type PortfolioHandler struct {
	reportService services.ReportService
}

func NewPortfolioHandler(service services.ReportService) *PortfolioHandler {
	return &PortfolioHandler{reportService: service}
}

// HandleGetHoldings returns the year-end holdings snapshot of the most
// recent run: the file a user feeds back in as next year's prior
// holdings.
func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.reportService.GetLatestHoldings()
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendJSONError(w, "No report runs recorded yet.", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving latest holdings", "error", err)
		utils.SendJSONError(w, "Error retrieving holdings.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, holdings, http.StatusOK)
}
