package validate

import (
	"fmt"
	"strings"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// Options controls validator behavior.
type Options struct {
	// CompositionTol bounds the per-record composition residual.
	CompositionTol float64
	// RoundingDigits is applied to the column medians before dividing.
	RoundingDigits int
	// CompareTol is the approximate-equality tolerance for reproduced
	// normalized columns.
	CompareTol float64
}

// DefaultOptions returns the discovered upstream conventions.
func DefaultOptions() Options {
	return Options{
		CompositionTol: DefaultCompositionTol,
		RoundingDigits: DefaultRoundingDigits,
		CompareTol:     DefaultCompareTol,
	}
}

// Report aggregates every validator check over one table.
type Report struct {
	Source         string
	Records        int
	RoundingDigits int

	Composition CompositionResult
	Columns     []ColumnComparison
	Category    CategoryResult
}

// Pass reports whether every check succeeded.
func (r *Report) Pass() bool {
	if r.Composition.Failing > 0 || r.Category.Mismatches > 0 {
		return false
	}
	for _, c := range r.Columns {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Run executes the full validation pass over a table.
func Run(tbl *dataset.Table, opt Options) *Report {
	rep := &Report{
		Source:         tbl.Source,
		Records:        tbl.Len(),
		RoundingDigits: opt.RoundingDigits,
	}
	rep.Composition = CheckComposition(tbl.Records, opt.CompositionTol)

	norm := DeriveNormalized(tbl.Records, opt.RoundingDigits)
	reportedCY := make([]float64, tbl.Len())
	reportedER := make([]float64, tbl.Len())
	reportedTG := make([]float64, tbl.Len())
	for i, r := range tbl.Records {
		reportedCY[i], reportedER[i], reportedTG[i] = r.NpcoCY, r.NpcoER, r.NpcoTG
	}
	rep.Columns = []ColumnComparison{
		CompareNormalized("npco_cy", norm.CY, reportedCY, opt.CompareTol),
		CompareNormalized("npco_er", norm.ER, reportedER, opt.CompareTol),
		CompareNormalized("npco_tg", norm.TG, reportedTG, opt.CompareTol),
	}
	rep.Category = CheckCategories(tbl.Records)
	return rep
}

// Markdown renders the report in a compact bracket-section layout.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[VALIDATION REPORT]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Records: %d\n", r.Records))
	if r.Pass() {
		b.WriteString("Status: PASS\n")
	} else {
		b.WriteString("Status: FAIL\n")
	}

	b.WriteString("\n[COMPOSITION]\n")
	b.WriteString(fmt.Sprintf("- checked %d records, %d failing (tolerance %.1g)\n",
		r.Composition.Checked, r.Composition.Failing, r.Composition.Tolerance))
	for _, g := range limitStrings(r.Composition.FailingGenes, 10) {
		b.WriteString(fmt.Sprintf("  • %s\n", g))
	}

	b.WriteString(fmt.Sprintf("\n[NORMALIZATION] (median rounded to %d digits)\n", r.RoundingDigits))
	for _, c := range r.Columns {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("- %s: %s — residual min %.3g, median %.3g, mean %.3g, max %.3g (|max| %.3g, tol %.1g)\n",
			c.Column, status, c.Min, c.Median, c.Mean, c.Max, c.MaxAbs, c.Tolerance))
	}

	b.WriteString("\n[CATEGORY ASSIGNMENT]\n")
	b.WriteString(fmt.Sprintf("- checked %d non-DF records, %d mismatches, %d ties\n",
		r.Category.Checked, r.Category.Mismatches, r.Category.Ties))
	for _, g := range limitStrings(r.Category.MismatchedGenes, 10) {
		b.WriteString(fmt.Sprintf("  • %s\n", g))
	}
	return b.String()
}

func limitStrings(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	out := make([]string, n+1)
	copy(out, in[:n])
	out[n] = fmt.Sprintf("… and %d more", len(in)-n)
	return out
}
