package multinom

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// Accuracy is the fraction of exact matches between predicted and observed
// labels.
func Accuracy(predicted, actual []dataset.Category) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return 0
	}
	var hits int
	for i := range predicted {
		if predicted[i] == actual[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(predicted))
}

// ConfusionMatrix is a labeled count table: rows are observed classes,
// columns are predicted classes, both in factor order.
type ConfusionMatrix struct {
	Classes []dataset.Category
	Counts  [][]int
}

// NewConfusionMatrix tallies predictions against observations over the
// fixed class set.
func NewConfusionMatrix(predicted, actual []dataset.Category) (*ConfusionMatrix, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("confusion matrix: %d predictions vs %d observations", len(predicted), len(actual))
	}
	classes := append([]dataset.Category(nil), dataset.Categories...)
	idx := make(map[dataset.Category]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := range predicted {
		ai, ok := idx[actual[i]]
		if !ok {
			return nil, fmt.Errorf("confusion matrix: unknown observed class %q", actual[i])
		}
		pi, ok := idx[predicted[i]]
		if !ok {
			return nil, fmt.Errorf("confusion matrix: unknown predicted class %q", predicted[i])
		}
		counts[ai][pi]++
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}, nil
}

// Diagonal sums the correctly classified counts.
func (c *ConfusionMatrix) Diagonal() int {
	var d int
	for i := range c.Counts {
		d += c.Counts[i][i]
	}
	return d
}

// Total sums all cells.
func (c *ConfusionMatrix) Total() int {
	var t int
	for i := range c.Counts {
		for j := range c.Counts[i] {
			t += c.Counts[i][j]
		}
	}
	return t
}

// Coefficient is one row of the coefficient table: the estimate for a
// (class, term) pair with its Wald statistic.
type Coefficient struct {
	Class    dataset.Category
	Term     string
	Estimate float64
	StdErr   float64
	Z        float64
	P        float64
}

// InterceptTerm names the intercept row in the coefficient table.
const InterceptTerm = "(Intercept)"

// CoefficientTable computes Wald z statistics and two-sided normal p-values
// from the observed information matrix evaluated at the fit, over the same
// matrix the model was fitted on. Rows come back sorted by ascending
// p-value (most significant first).
func (m *Model) CoefficientTable(x *mat.Dense) ([]Coefficient, error) {
	n, p := x.Dims()
	k := len(m.Classes) - 1
	terms := p + 1
	d := k * terms

	// Observed information: for each observation, the block (c,l) is
	// p_c(δ_cl − p_l) times the outer product of the intercept-augmented
	// row with itself.
	info := mat.NewSymDense(d, nil)
	row := make([]float64, p)
	aug := make([]float64, terms)
	z := make([]float64, k)
	probs := make([]float64, k+1)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			row[j] = x.At(i, j)
		}
		m.probsRow(row, z, probs)
		aug[0] = 1
		copy(aug[1:], row)
		for c := 0; c < k; c++ {
			for l := c; l < k; l++ {
				w := -probs[c+1] * probs[l+1]
				if c == l {
					w += probs[c+1]
				}
				for a := 0; a < terms; a++ {
					bStart := 0
					if l == c {
						bStart = a
					}
					for b := bStart; b < terms; b++ {
						ri := c*terms + a
						ci := l*terms + b
						if ri <= ci {
							info.SetSym(ri, ci, info.At(ri, ci)+w*aug[a]*aug[b])
						}
					}
				}
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return nil, fmt.Errorf("coefficient table: information matrix is not positive definite (separation or collinear covariates)")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("coefficient table: invert information matrix: %w", err)
	}

	normal := distuv.UnitNormal
	out := make([]Coefficient, 0, d)
	for c := 0; c < k; c++ {
		for t := 0; t < terms; t++ {
			idx := c*terms + t
			est := m.Coef.At(c, t)
			se := math.Sqrt(cov.At(idx, idx))
			zstat := est / se
			coef := Coefficient{
				Class:    m.Classes[c+1],
				Estimate: est,
				StdErr:   se,
				Z:        zstat,
				P:        2 * normal.Survival(math.Abs(zstat)),
			}
			if t == 0 {
				coef.Term = InterceptTerm
			} else {
				coef.Term = string(m.Covariates[t-1])
			}
			out = append(out, coef)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].P < out[j].P })
	return out, nil
}
