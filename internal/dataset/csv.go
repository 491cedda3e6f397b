package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadCSV reads a gene table from a CSV or TSV file. The header must carry
// every required column and every covariate column exactly once; anything
// else is a schema error. delimiter 0 auto-detects from the file extension.
func LoadCSV(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	if delimiter == 0 {
		delimiter = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delimiter

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Source: filepath.Base(path), Reason: "empty file"}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	layout, err := resolveHeader(header, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	tbl := &Table{Source: filepath.Base(path)}
	rowNum := 1
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rowNum+1, err)
		}
		rowNum++
		gr, err := layout.parseRow(rec, rowNum)
		if err != nil {
			return nil, err
		}
		tbl.Records = append(tbl.Records, gr)
	}
	return tbl, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// headerLayout maps resolved column positions for one input file.
type headerLayout struct {
	source     string
	required   map[string]int    // required column name -> index
	covariates map[Covariate]int // covariate -> index
}

// resolveHeader validates the header against the closed schema: all nine
// required columns, all covariates, no strangers, no duplicates.
func resolveHeader(header []string, source string) (*headerLayout, error) {
	l := &headerLayout{
		source:     source,
		required:   make(map[string]int, len(requiredColumns)),
		covariates: make(map[Covariate]int, len(Covariates)),
	}
	reqSet := make(map[string]bool, len(requiredColumns))
	for _, c := range requiredColumns {
		reqSet[c] = true
	}
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		switch {
		case reqSet[name]:
			if _, dup := l.required[name]; dup {
				return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("duplicate column %q", name)}
			}
			l.required[name] = i
		default:
			cov, ok := ParseCovariate(name)
			if !ok {
				return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("unknown column %q", name)}
			}
			if _, dup := l.covariates[cov]; dup {
				return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("duplicate column %q", name)}
			}
			l.covariates[cov] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := l.required[c]; !ok {
			return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("missing required column %q", c)}
		}
	}
	for _, c := range Covariates {
		if _, ok := l.covariates[c]; !ok {
			return nil, &SchemaError{Source: source, Reason: fmt.Sprintf("missing covariate column %q", c)}
		}
	}
	return l, nil
}

func (l *headerLayout) parseRow(rec []string, rowNum int) (GeneRecord, error) {
	cell := func(idx int) string {
		if idx < len(rec) {
			return strings.TrimSpace(rec[idx])
		}
		return ""
	}

	gr := GeneRecord{
		Gene:       cell(l.required["Gene"]),
		RefSeqID:   cell(l.required["RefSeq"]),
		Covariates: make(map[Covariate]float64, len(l.covariates)),
	}

	cat, ok := ParseCategory(cell(l.required["Category"]))
	if !ok {
		return gr, fmt.Errorf("%s row %d: invalid category %q", l.source, rowNum, cell(l.required["Category"]))
	}
	gr.Category = cat

	coeffs := []struct {
		name string
		dst  *float64
	}{
		{"pco_cy", &gr.PcoCY}, {"pco_er", &gr.PcoER}, {"pco_tg", &gr.PcoTG},
		{"npco_cy", &gr.NpcoCY}, {"npco_er", &gr.NpcoER}, {"npco_tg", &gr.NpcoTG},
	}
	for _, c := range coeffs {
		v := cell(l.required[c.name])
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return gr, fmt.Errorf("%s row %d: column %s: parse %q: %w", l.source, rowNum, c.name, v, err)
		}
		*c.dst = x
	}

	for cov, idx := range l.covariates {
		v := cell(idx)
		if v == "" || strings.EqualFold(v, "NA") {
			continue // missing cell
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return gr, fmt.Errorf("%s row %d: covariate %s: parse %q: %w", l.source, rowNum, cov, v, err)
		}
		gr.Covariates[cov] = x
	}
	return gr, nil
}
