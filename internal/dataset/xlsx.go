package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a gene table from an .xlsx workbook. sheetName wins over
// sheetIndex (1-based); with neither set, the first sheet is used. Header
// and cell semantics match LoadCSV.
func LoadXLSX(path, sheetName string, sheetIndex int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	source := filepath.Base(path)
	sheet, err := resolveSheet(f, sheetName, sheetIndex, source)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("sheet %q is empty", sheet)}
	}

	layout, err := resolveHeader(rows[0], source)
	if err != nil {
		return nil, err
	}

	tbl := &Table{Source: source}
	for i, rec := range rows[1:] {
		if blankRow(rec) {
			continue
		}
		gr, err := layout.parseRow(rec, i+2)
		if err != nil {
			return nil, err
		}
		tbl.Records = append(tbl.Records, gr)
	}
	return tbl, nil
}

func resolveSheet(f *excelize.File, name string, index int, source string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", &SchemaError{Source: source, Reason: "workbook has no sheets"}
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", &SchemaError{
			Source: source,
			Reason: fmt.Sprintf("sheet %q not found (available: %s)", name, strings.Join(sheets, ", ")),
		}
	}
	if index > 0 {
		if index > len(sheets) {
			return "", &SchemaError{Source: source, Reason: fmt.Sprintf("sheet index %d out of range (%d sheets)", index, len(sheets))}
		}
		return sheets[index-1], nil
	}
	return sheets[0], nil
}

func blankRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
