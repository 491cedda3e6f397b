// Package report renders pipeline results for humans (markdown) and for
// downstream plotting collaborators (CSV/XLSX exports).
package report

import (
	"fmt"
	"strings"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
	"github.com/SableBench/rnaloc-cli/internal/multinom"
)

// FitSummary gathers everything the fit stage reports.
type FitSummary struct {
	Source     string
	N          int
	Converged  bool
	Iterations int

	Deviance     float64
	NullDeviance float64
	PseudoR2     float64
	Accuracy     float64
	// PredictionTies counts rows whose class probabilities tied at the
	// maximum (argmax behavior is undefined upstream, so they are
	// surfaced rather than hidden).
	PredictionTies int

	Confusion    *multinom.ConfusionMatrix
	Coefficients []multinom.Coefficient
	// CoefficientNote carries a non-fatal reason the Wald statistics are
	// absent (e.g. a singular information matrix).
	CoefficientNote string
}

// Markdown renders the fit summary in a compact bracket-section layout.
func (s *FitSummary) Markdown() string {
	var b strings.Builder
	b.WriteString("[FIT SUMMARY]\n")
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", s.Source))
	}
	b.WriteString(fmt.Sprintf("Observations: %d\n", s.N))
	if s.Converged {
		b.WriteString(fmt.Sprintf("Converged: yes (%d iterations)\n", s.Iterations))
	} else {
		b.WriteString(fmt.Sprintf("Converged: no (stopped at %d iterations; deviance reflects the stopping point)\n", s.Iterations))
	}

	b.WriteString("\n[DIAGNOSTICS]\n")
	b.WriteString(fmt.Sprintf("- deviance: %.4f\n", s.Deviance))
	b.WriteString(fmt.Sprintf("- null deviance: %.4f\n", s.NullDeviance))
	b.WriteString(fmt.Sprintf("- pseudo-R²: %.4f\n", s.PseudoR2))
	b.WriteString(fmt.Sprintf("- accuracy: %.4f\n", s.Accuracy))
	if s.PredictionTies > 0 {
		b.WriteString(fmt.Sprintf("- ⚠ tied argmax predictions: %d\n", s.PredictionTies))
	}

	if s.Confusion != nil {
		b.WriteString("\n[CONFUSION MATRIX] (rows = observed, columns = predicted)\n")
		b.WriteString(confusionTable(s.Confusion))
	}

	if len(s.Coefficients) > 0 {
		b.WriteString("\n[COEFFICIENTS] (sorted by p-value)\n")
		b.WriteString("| class | term | estimate | std err | z | p |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, c := range s.Coefficients {
			b.WriteString(fmt.Sprintf("| %s | %s | %.4g | %.4g | %.3f | %.3g |\n",
				c.Class, c.Term, c.Estimate, c.StdErr, c.Z, c.P))
		}
	} else if s.CoefficientNote != "" {
		b.WriteString(fmt.Sprintf("\n[COEFFICIENTS]\n⚠ %s\n", s.CoefficientNote))
	}
	return b.String()
}

func confusionTable(cm *multinom.ConfusionMatrix) string {
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range cm.Classes {
		b.WriteString(fmt.Sprintf(" %s |", c))
	}
	b.WriteString("\n| --- |")
	for range cm.Classes {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for i, c := range cm.Classes {
		b.WriteString(fmt.Sprintf("| %s |", c))
		for j := range cm.Classes {
			b.WriteString(fmt.Sprintf(" %d |", cm.Counts[i][j]))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("correct %d / %d\n", cm.Diagonal(), cm.Total()))
	return b.String()
}

// SurfaceHeader names the columns of an exported decision-surface grid.
func SurfaceHeader(x, y dataset.Covariate) []string {
	return []string{string(x), string(y), "predicted"}
}
