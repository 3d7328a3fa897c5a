package services

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/username/vestfolio/src/models"
)

// BuildBundle packages one run's artifacts into a single downloadable zip:
// the year-end holdings snapshot, the tax report, and a tabular portfolio
// export. An unmatched-wires file is included only when unmatched wires
// exist; its presence is part of the contract.
func (s *reportServiceImpl) BuildBundle(runID string) ([]byte, string, error) {
	result, err := s.GetReport(runID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := addJSONEntry(zw, "holdings.json", result.Holdings); err != nil {
		return nil, "", err
	}
	if err := addJSONEntry(zw, "tax_report.json", result.Report); err != nil {
		return nil, "", err
	}
	if err := addPortfolioCSV(zw, result.Holdings); err != nil {
		return nil, "", err
	}
	if len(result.UnmatchedWires) > 0 {
		if err := addJSONEntry(zw, "unmatched_wires.json", result.UnmatchedWires); err != nil {
			return nil, "", err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("error finalizing export bundle: %w", err)
	}
	name := fmt.Sprintf("vestfolio-%d-%s.zip", result.Report.Year, runID)
	return buf.Bytes(), name, nil
}

func addJSONEntry(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("error creating bundle entry %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding bundle entry %s: %w", name, err)
	}
	return nil
}

func addPortfolioCSV(zw *zip.Writer, holdings *models.Holdings) error {
	w, err := zw.Create("portfolio.csv")
	if err != nil {
		return fmt.Errorf("error creating bundle entry portfolio.csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "acquired", "qty", "price", "currency", "rate", "price_reporting"}); err != nil {
		return err
	}
	for _, lot := range holdings.Stocks {
		record := []string{
			lot.Symbol,
			lot.Date.String(),
			lot.Qty.String(),
			lot.Basis.Value.String(),
			lot.Basis.Currency,
			lot.Basis.Rate.String(),
			lot.Basis.Reporting.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
