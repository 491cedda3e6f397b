package cmd

import (
	"fmt"
	"strings"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// loadTable dispatches on file extension. Flag values win over config; an
// empty delimiter auto-detects by extension.
func loadTable(path, delimiter, sheetName string, sheetIndex int) (*dataset.Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		if sheetName == "" && cfg != nil {
			sheetName = cfg.SheetName
		}
		if sheetIndex == 0 && cfg != nil {
			sheetIndex = cfg.SheetIndex
		}
		return dataset.LoadXLSX(path, sheetName, sheetIndex)
	}

	if delimiter == "" && cfg != nil {
		delimiter = cfg.Delimiter
	}
	var comma rune
	switch delimiter {
	case "":
	case ",":
		comma = ','
	case "\t", "tab":
		comma = '\t'
	case ";":
		comma = ';'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	return dataset.LoadCSV(path, comma)
}

func warnDuplicates(tbl *dataset.Table) {
	if dups := tbl.DuplicateGenes(); len(dups) > 0 {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "⚠ Warning: %d duplicated gene names (e.g. %s)\n", len(dups), dups[0])
	}
}
