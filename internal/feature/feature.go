// Package feature turns a validated gene table into a model-ready numeric
// matrix: median/zero imputation, a square-root variance-stabilizing
// transform, and per-column standardization.
package feature

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// Matrix is the classifier input: one row per gene, one column per
// covariate in canonical order, plus the aligned category labels. Row order
// matches the source table; DF rows are retained as a fourth class.
type Matrix struct {
	X      *mat.Dense
	Labels []dataset.Category
	Names  []dataset.Covariate
}

// Rows returns the number of observations.
func (m *Matrix) Rows() int { r, _ := m.X.Dims(); return r }

// Cols returns the number of covariates.
func (m *Matrix) Cols() int { _, c := m.X.Dims(); return c }

// ColumnMeans returns per-column means, the pin values for decision-surface
// sweeps.
func (m *Matrix) ColumnMeans() []float64 {
	r, c := m.X.Dims()
	means := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m.X)
		means[j] = stat.Mean(col, nil)
	}
	return means
}

// Impute fills missing covariate cells and returns a new table. The
// length-like Anno_3UTR_length column takes its observed median: a missing
// annotated length has no meaningful zero. Every other covariate is a
// count, where absence means "no evidence", so missing cells become 0.
// A column that must be median-imputed but has no observed values at all is
// a domain error.
func Impute(tbl *dataset.Table) (*dataset.Table, error) {
	medians := make(map[dataset.Covariate]float64)
	for _, cov := range dataset.Covariates {
		if cov != dataset.CovAnno3UTRLength {
			continue
		}
		vals, present := tbl.CovariateColumn(cov)
		var observed []float64
		for i, ok := range present {
			if ok {
				observed = append(observed, vals[i])
			}
		}
		if len(observed) == 0 {
			return nil, fmt.Errorf("impute %s: column has no observed values, median undefined", cov)
		}
		medians[cov] = observedMedian(observed)
	}

	out := &dataset.Table{Source: tbl.Source, Records: make([]dataset.GeneRecord, len(tbl.Records))}
	for i, r := range tbl.Records {
		nr := r
		nr.Covariates = make(map[dataset.Covariate]float64, len(dataset.Covariates))
		for _, cov := range dataset.Covariates {
			if v, ok := r.Covariates[cov]; ok {
				nr.Covariates[cov] = v
				continue
			}
			if m, ok := medians[cov]; ok {
				nr.Covariates[cov] = m
			} else {
				nr.Covariates[cov] = 0
			}
		}
		out.Records[i] = nr
	}
	return out, nil
}

func observedMedian(vals []float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}

// TransformScale applies sqrt to every covariate value, then standardizes
// each column to zero mean and unit variance. Inputs must be imputed (no
// missing cells) and non-negative; a negative value is a domain error. A
// constant column standardizes to all zeros rather than dividing by zero.
func TransformScale(tbl *dataset.Table) (*Matrix, error) {
	n := tbl.Len()
	p := len(dataset.Covariates)
	x := mat.NewDense(n, p, nil)
	labels := make([]dataset.Category, n)

	for i, r := range tbl.Records {
		labels[i] = r.Category
		for j, cov := range dataset.Covariates {
			v, ok := r.Covariates[cov]
			if !ok {
				return nil, fmt.Errorf("transform: gene %s covariate %s is missing; impute first", r.Gene, cov)
			}
			if v < 0 {
				return nil, fmt.Errorf("transform: gene %s covariate %s: sqrt of negative value %g", r.Gene, cov, v)
			}
			x.Set(i, j, math.Sqrt(v))
		}
	}

	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		mean, sd := stat.MeanStdDev(col, nil)
		for i := 0; i < n; i++ {
			if sd == 0 || math.IsNaN(sd) {
				x.Set(i, j, 0)
			} else {
				x.Set(i, j, (col[i]-mean)/sd)
			}
		}
	}

	return &Matrix{X: x, Labels: labels, Names: append([]dataset.Covariate(nil), dataset.Covariates...)}, nil
}
