package feature

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// fixtureTable builds n records with covariate values derived from the row
// index so every column varies. missingUTR marks rows whose 3'UTR length
// is left missing; missingClip marks rows missing Clip_TIA1.
func fixtureTable(n int, missingUTR, missingClip map[int]bool) *dataset.Table {
	tbl := &dataset.Table{Source: "fixture"}
	cats := []dataset.Category{dataset.CatDF, dataset.CatER, dataset.CatTG, dataset.CatCY}
	for i := 0; i < n; i++ {
		r := dataset.GeneRecord{
			Gene:       "G" + string(rune('A'+i%26)),
			Category:   cats[i%len(cats)],
			Covariates: map[dataset.Covariate]float64{},
		}
		for j, c := range dataset.Covariates {
			if c == dataset.CovAnno3UTRLength {
				if !missingUTR[i] {
					r.Covariates[c] = float64(100 + 10*i)
				}
				continue
			}
			if c == dataset.CovClipTIA1 && missingClip[i] {
				continue
			}
			r.Covariates[c] = float64((i*7+j*3)%11) / 2
		}
		tbl.Records = append(tbl.Records, r)
	}
	return tbl
}

func TestImpute(t *testing.T) {
	// Rows 1 and 3 miss the UTR length; row 2 misses Clip_TIA1.
	tbl := fixtureTable(5, map[int]bool{1: true, 3: true}, map[int]bool{2: true})

	out, err := Impute(tbl)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	// Source rows untouched.
	if _, ok := tbl.Records[1].Covariates[dataset.CovAnno3UTRLength]; ok {
		t.Fatalf("input table mutated")
	}

	// Observed UTR lengths: rows 0,2,4 -> 100, 120, 140; median 120.
	for _, i := range []int{1, 3} {
		if v := out.Records[i].Covariates[dataset.CovAnno3UTRLength]; v != 120 {
			t.Fatalf("row %d UTR length: got %g want 120 (column median)", i, v)
		}
	}
	// Count-like covariates impute to zero.
	if v := out.Records[2].Covariates[dataset.CovClipTIA1]; v != 0 {
		t.Fatalf("missing Clip_TIA1 should become 0, got %g", v)
	}
	// Every cell present afterwards.
	for i, r := range out.Records {
		if len(r.Covariates) != len(dataset.Covariates) {
			t.Fatalf("row %d has %d covariates after impute", i, len(r.Covariates))
		}
	}
}

func TestImputeAllMissingMedian(t *testing.T) {
	all := map[int]bool{}
	for i := 0; i < 4; i++ {
		all[i] = true
	}
	tbl := fixtureTable(4, all, nil)
	if _, err := Impute(tbl); err == nil || !strings.Contains(err.Error(), "median undefined") {
		t.Fatalf("expected undefined-median domain error, got %v", err)
	}
}

func TestTransformScale(t *testing.T) {
	tbl := fixtureTable(12, nil, nil)
	imputed, err := Impute(tbl)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	m, err := TransformScale(imputed)
	if err != nil {
		t.Fatalf("TransformScale: %v", err)
	}
	if m.Rows() != 12 || m.Cols() != len(dataset.Covariates) {
		t.Fatalf("matrix dims %dx%d", m.Rows(), m.Cols())
	}
	if len(m.Labels) != 12 || m.Labels[1] != dataset.CatER {
		t.Fatalf("labels misaligned: %v", m.Labels)
	}

	// Every standardized column has mean ~0 and sd ~1 (or is constant and
	// all zeros).
	col := make([]float64, m.Rows())
	for j := 0; j < m.Cols(); j++ {
		mat.Col(col, j, m.X)
		mean, sd := stat.MeanStdDev(col, nil)
		if math.Abs(mean) > 1e-12 {
			t.Fatalf("column %d mean %g", j, mean)
		}
		constant := true
		for _, v := range col {
			if v != 0 {
				constant = false
				break
			}
		}
		if !constant && math.Abs(sd-1) > 1e-12 {
			t.Fatalf("column %d sd %g", j, sd)
		}
	}

	// Means are ~0, so decision-surface pins sit at the column centers.
	for j, v := range m.ColumnMeans() {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("column %d mean-of-standardized %g", j, v)
		}
	}
}

func TestTransformScaleDomainError(t *testing.T) {
	tbl := fixtureTable(3, nil, nil)
	imputed, err := Impute(tbl)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	imputed.Records[1].Covariates[dataset.CovMotifARE] = -2
	if _, err := TransformScale(imputed); err == nil || !strings.Contains(err.Error(), "sqrt of negative") {
		t.Fatalf("expected sqrt domain error, got %v", err)
	}
}

func TestTransformScaleRequiresImpute(t *testing.T) {
	tbl := fixtureTable(3, map[int]bool{0: true}, nil)
	if _, err := TransformScale(tbl); err == nil || !strings.Contains(err.Error(), "impute first") {
		t.Fatalf("expected missing-cell error, got %v", err)
	}
}
