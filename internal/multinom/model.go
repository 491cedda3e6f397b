// Package multinom fits and evaluates a plain maximum-likelihood
// multinomial logistic regression over the four localization classes.
package multinom

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// Model is a fitted multinomial logistic regression. Coefficients are
// stored per non-reference class; the first class in Classes is the
// implicit reference with all-zero coefficients.
type Model struct {
	// Classes in factor order; Classes[0] is the reference level.
	Classes []dataset.Category
	// Covariates in feature-matrix column order.
	Covariates []dataset.Covariate
	// Coef has one row per non-reference class and one column per term;
	// column 0 is the intercept.
	Coef *mat.Dense

	N          int
	LogLik     float64
	Converged  bool
	Iterations int
}

// Deviance is −2 × log-likelihood at the fitted coefficients. For a model
// stopped at the iteration budget this reflects the stopping point.
func (m *Model) Deviance() float64 { return -2 * m.LogLik }

// PseudoR2 is the deviance-based goodness of fit relative to an
// intercept-only null model: 1 − D/D0.
func PseudoR2(m, null *Model) float64 {
	return 1 - m.Deviance()/null.Deviance()
}

// linearPredictors fills z with the non-reference class scores for one
// observation row (without the implicit zero of the reference class).
func (m *Model) linearPredictors(row []float64, z []float64) {
	k := len(m.Classes) - 1
	p := len(row)
	for c := 0; c < k; c++ {
		s := m.Coef.At(c, 0)
		for j := 0; j < p; j++ {
			s += m.Coef.At(c, j+1) * row[j]
		}
		z[c] = s
	}
}

// probsRow computes softmax class probabilities for one observation,
// reference class first. probs has length len(Classes).
func (m *Model) probsRow(row []float64, z, probs []float64) {
	m.linearPredictors(row, z)
	maxZ := 0.0 // reference class score
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	sum := math.Exp(-maxZ) // reference term
	for c := range z {
		sum += math.Exp(z[c] - maxZ)
	}
	probs[0] = math.Exp(-maxZ) / sum
	for c := range z {
		probs[c+1] = math.Exp(z[c]-maxZ) / sum
	}
}

// PredictProba returns the n×K class-probability matrix for X, with
// columns in Classes order.
func (m *Model) PredictProba(x mat.Matrix) *mat.Dense {
	n, p := x.Dims()
	k := len(m.Classes)
	out := mat.NewDense(n, k, nil)
	row := make([]float64, p)
	z := make([]float64, k-1)
	probs := make([]float64, k)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			row[j] = x.At(i, j)
		}
		m.probsRow(row, z, probs)
		out.SetRow(i, probs)
	}
	return out
}

// Predict assigns each row the class with the greatest probability. Ties
// resolve to the earliest class in factor order; the count of tied rows is
// returned so callers can flag them (upstream behavior is undefined).
func (m *Model) Predict(x mat.Matrix) (pred []dataset.Category, ties int) {
	proba := m.PredictProba(x)
	n, k := proba.Dims()
	pred = make([]dataset.Category, n)
	for i := 0; i < n; i++ {
		best := 0
		tied := false
		for c := 1; c < k; c++ {
			v := proba.At(i, c)
			if v > proba.At(i, best) {
				best = c
				tied = false
			} else if v == proba.At(i, best) {
				tied = true
			}
		}
		if tied {
			ties++
		}
		pred[i] = m.Classes[best]
	}
	return pred, ties
}
