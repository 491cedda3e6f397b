package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
	"github.com/SableBench/rnaloc-cli/internal/multinom"
)

var coefficientHeader = []string{"class", "term", "estimate", "std_err", "z", "p"}

// WriteCoefficientsCSV writes the coefficient table as CSV.
func WriteCoefficientsCSV(path string, coeffs []multinom.Coefficient) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(coefficientHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range coeffs {
		rec := []string{
			string(c.Class), c.Term,
			formatFloat(c.Estimate), formatFloat(c.StdErr),
			formatFloat(c.Z), formatFloat(c.P),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCoefficientsXLSX writes the coefficient table as a single-sheet
// workbook.
func WriteCoefficientsXLSX(path string, coeffs []multinom.Coefficient) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Coefficients"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range coefficientHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}
	for r, c := range coeffs {
		vals := []any{string(c.Class), c.Term, c.Estimate, c.StdErr, c.Z, c.P}
		for j, v := range vals {
			cell, err := excelize.CoordinatesToCellName(j+1, r+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set cell: %w", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteSurfaceCSV writes a decision-surface grid as (x, y, predicted)
// triples for external heat-map rendering.
func WriteSurfaceCSV(path string, x, y dataset.Covariate, pts []multinom.SurfacePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(SurfaceHeader(x, y)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range pts {
		rec := []string{formatFloat(p.X), formatFloat(p.Y), string(p.Predicted)}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
