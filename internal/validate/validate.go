// Package validate re-derives the localization table's computed columns from
// its raw columns and checks them against the reported values. It is
// diagnostic only: mismatches are counted and summarized, never corrected,
// and never block downstream stages.
package validate

import (
	"math"
	"sort"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// DefaultCompositionTol bounds |pco_cy+pco_er+pco_tg − 1| per record.
const DefaultCompositionTol = 1e-6

// DefaultCompareTol is the approximate-equality tolerance for reproduced
// normalized columns, applied both absolutely and relative to the reported
// value (the conventional all.equal scale).
const DefaultCompareTol = 1.5e-8

// DefaultRoundingDigits is the empirically discovered rounding convention:
// the upstream table divides by the per-column median rounded to 4 decimal
// digits. With 0 (no rounding) the comparison fails with a small bias.
const DefaultRoundingDigits = 4

// CompositionResult is the outcome of the per-record composition check.
type CompositionResult struct {
	Checked   int
	Failing   int
	Tolerance float64
	// FailingGenes lists offending gene names for the report.
	FailingGenes []string
}

// CheckComposition verifies pco_cy+pco_er+pco_tg ≈ 1 for every record.
// Pure: failing records are reported, not corrected.
func CheckComposition(records []dataset.GeneRecord, tol float64) CompositionResult {
	if tol <= 0 {
		tol = DefaultCompositionTol
	}
	res := CompositionResult{Checked: len(records), Tolerance: tol}
	for _, r := range records {
		sum := r.PcoCY + r.PcoER + r.PcoTG
		if math.Abs(sum-1.0) > tol {
			res.Failing++
			res.FailingGenes = append(res.FailingGenes, r.Gene)
		}
	}
	return res
}

// Normalized holds re-derived normalized coefficient columns and the scalar
// each raw column was divided by.
type Normalized struct {
	CY, ER, TG []float64
	// ScaleCY etc. are round(median(column), digits); digits <= 0 leaves
	// the median unrounded.
	ScaleCY, ScaleER, ScaleTG float64
}

// DeriveNormalized recomputes the normalized partition coefficients:
// value / round(median(column), roundingDigits), with the median taken over
// the entire column. Pure and deterministic.
func DeriveNormalized(records []dataset.GeneRecord, roundingDigits int) Normalized {
	cy := make([]float64, len(records))
	er := make([]float64, len(records))
	tg := make([]float64, len(records))
	for i, r := range records {
		cy[i], er[i], tg[i] = r.PcoCY, r.PcoER, r.PcoTG
	}
	n := Normalized{
		ScaleCY: roundTo(median(cy), roundingDigits),
		ScaleER: roundTo(median(er), roundingDigits),
		ScaleTG: roundTo(median(tg), roundingDigits),
	}
	n.CY = divideAll(cy, n.ScaleCY)
	n.ER = divideAll(er, n.ScaleER)
	n.TG = divideAll(tg, n.ScaleTG)
	return n
}

func divideAll(vals []float64, scale float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / scale
	}
	return out
}

// median computes the population median with linear interpolation between
// the two central order statistics for even counts.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}

// roundTo rounds x to the given number of decimal digits; digits <= 0
// returns x unchanged (no rounding, not rounding to integer).
func roundTo(x float64, digits int) float64 {
	if digits <= 0 {
		return x
	}
	pow := math.Pow(10, float64(digits))
	return math.Round(x*pow) / pow
}

// ColumnComparison summarizes reported−computed residuals for one column.
type ColumnComparison struct {
	Column    string
	Pass      bool
	Tolerance float64
	N         int
	// Residual summary over reported−computed.
	Min, Median, Mean, Max float64
	// MaxAbs is the largest absolute residual; the value that decides Pass.
	MaxAbs float64
}

// CompareNormalized checks a recomputed column against the reported one.
// A value passes when |reported−computed| <= tol + tol*|reported|; the
// column passes when every value does.
func CompareNormalized(column string, computed, reported []float64, tol float64) ColumnComparison {
	if tol <= 0 {
		tol = DefaultCompareTol
	}
	c := ColumnComparison{Column: column, Tolerance: tol, N: len(reported), Pass: true}
	if len(computed) != len(reported) || len(reported) == 0 {
		c.Pass = false
		return c
	}
	resid := make([]float64, len(reported))
	var sum float64
	for i := range reported {
		d := reported[i] - computed[i]
		resid[i] = d
		sum += d
		if a := math.Abs(d); a > c.MaxAbs {
			c.MaxAbs = a
		}
		if math.Abs(d) > tol+tol*math.Abs(reported[i]) {
			c.Pass = false
		}
	}
	sorted := make([]float64, len(resid))
	copy(sorted, resid)
	sort.Float64s(sorted)
	c.Min = sorted[0]
	c.Max = sorted[len(sorted)-1]
	c.Median = median(resid)
	c.Mean = sum / float64(len(resid))
	return c
}

// CategoryResult is the outcome of the argmax-vs-reported category check.
type CategoryResult struct {
	// Checked counts non-DF records with an assigned category.
	Checked    int
	Mismatches int
	// Ties counts records whose normalized triplet has no unique maximum.
	// Upstream tie-breaking is undefined, so ties are flagged rather than
	// counted as mismatches.
	Ties            int
	MismatchedGenes []string
}

// MaxCategory assigns each record the category of its largest normalized
// coefficient. Ties resolve to the first of ER, TG, CY in that order and
// are reported via the second return value.
func MaxCategory(records []dataset.GeneRecord) (assigned []dataset.Category, ties int) {
	assigned = make([]dataset.Category, len(records))
	for i, r := range records {
		vals := [3]float64{r.NpcoER, r.NpcoTG, r.NpcoCY}
		cats := [3]dataset.Category{dataset.CatER, dataset.CatTG, dataset.CatCY}
		best := 0
		tied := false
		for j := 1; j < 3; j++ {
			if vals[j] > vals[best] {
				best = j
				tied = false
			} else if vals[j] == vals[best] {
				tied = true
			}
		}
		if tied {
			ties++
		}
		assigned[i] = cats[best]
	}
	return assigned, ties
}

// CheckCategories compares argmax-derived categories with the reported
// labels for every non-DF record that has a label.
func CheckCategories(records []dataset.GeneRecord) CategoryResult {
	assigned, ties := MaxCategory(records)
	res := CategoryResult{Ties: ties}
	for i, r := range records {
		if r.Category == "" || r.Category == dataset.CatDF {
			continue
		}
		res.Checked++
		if assigned[i] != r.Category {
			res.Mismatches++
			res.MismatchedGenes = append(res.MismatchedGenes, r.Gene)
		}
	}
	return res
}
