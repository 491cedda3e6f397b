package multinom

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
	"github.com/SableBench/rnaloc-cli/internal/feature"
)

// FitOptions controls the optimization.
type FitOptions struct {
	// MaxIterations is the optimizer budget; exceeding it is not an
	// error, the partially optimized model is returned.
	MaxIterations int
	// GradTol is the gradient-norm convergence threshold.
	GradTol float64
	// Seed drives the initial-coefficient jitter. The fit is fully
	// deterministic given the seed; no ambient RNG state is consulted.
	Seed int64
}

// DefaultFitOptions mirrors the descriptive-inference defaults: 1000
// iterations, no regularization.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxIterations: 1000, GradTol: 1e-6, Seed: 1}
}

// Fit estimates the multinomial logistic regression of labels on the
// standardized covariate matrix by maximizing the multinomial
// log-likelihood (cross-entropy) with L-BFGS. The class set is the fixed
// factor order; DF rows are kept as their own class.
func Fit(m *feature.Matrix, opts FitOptions) (*Model, error) {
	n := m.Rows()
	p := m.Cols()
	if n == 0 {
		return nil, fmt.Errorf("fit: empty feature matrix")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 1000
	}
	if opts.GradTol <= 0 {
		opts.GradTol = 1e-6
	}

	classes := append([]dataset.Category(nil), dataset.Categories...)
	classIdx := make(map[dataset.Category]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	y := make([]int, n)
	for i, lab := range m.Labels {
		idx, ok := classIdx[lab]
		if !ok {
			return nil, fmt.Errorf("fit: row %d has unassigned or unknown category %q", i, lab)
		}
		y[i] = idx
	}

	k := len(classes) - 1 // non-reference classes
	terms := p + 1        // intercept + covariates
	ll := negLogLik{x: m.X, y: y, k: k, terms: terms}

	problem := optimize.Problem{
		Func: ll.value,
		Grad: ll.gradient,
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: opts.GradTol,
	}

	// Small seeded jitter off the zero start keeps the fit reproducible
	// while avoiding a symmetric saddle in degenerate inputs.
	rng := rand.New(rand.NewSource(opts.Seed))
	init := make([]float64, k*terms)
	for i := range init {
		init[i] = rng.NormFloat64() * 1e-4
	}

	// Running out of budget is a valid stop; only a hard optimizer
	// failure with no usable point is an error.
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	theta := result.X
	iterations := result.Stats.MajorIterations
	converged := result.Status == optimize.GradientThreshold

	coef := mat.NewDense(k, terms, theta)
	model := &Model{
		Classes:    classes,
		Covariates: append([]dataset.Covariate(nil), m.Names...),
		Coef:       coef,
		N:          n,
		LogLik:     -ll.value(theta),
		Converged:  converged,
		Iterations: iterations,
	}
	return model, nil
}

// FitNull builds the intercept-only model in closed form: each class
// intercept is the log odds of its marginal frequency against the
// reference class.
func FitNull(labels []dataset.Category) (*Model, error) {
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("fit null: no labels")
	}
	classes := append([]dataset.Category(nil), dataset.Categories...)
	counts := make([]float64, len(classes))
	idx := make(map[dataset.Category]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	for i, lab := range labels {
		j, ok := idx[lab]
		if !ok {
			return nil, fmt.Errorf("fit null: row %d has unassigned or unknown category %q", i, lab)
		}
		counts[j]++
	}
	if counts[0] == 0 {
		return nil, fmt.Errorf("fit null: reference class %s has no observations", classes[0])
	}

	k := len(classes) - 1
	coef := mat.NewDense(k, 1, nil)
	for c := 1; c < len(classes); c++ {
		if counts[c] == 0 {
			coef.Set(c-1, 0, math.Inf(-1))
			continue
		}
		coef.Set(c-1, 0, math.Log(counts[c]/counts[0]))
	}

	var logLik float64
	for _, cnt := range counts {
		if cnt > 0 {
			logLik += cnt * math.Log(cnt/float64(n))
		}
	}
	return &Model{
		Classes:   classes,
		Coef:      coef,
		N:         n,
		LogLik:    logLik,
		Converged: true,
	}, nil
}

// negLogLik evaluates the negative multinomial log-likelihood and its
// gradient over a flat coefficient vector laid out row-major per class:
// [intercept, covariates...].
type negLogLik struct {
	x     *mat.Dense
	y     []int
	k     int // non-reference classes
	terms int // intercept + covariates
}

func (l negLogLik) value(theta []float64) float64 {
	n, p := l.x.Dims()
	z := make([]float64, l.k)
	var nll float64
	for i := 0; i < n; i++ {
		l.scores(theta, i, p, z)
		lse := logSumExp0(z)
		if l.y[i] > 0 {
			nll -= z[l.y[i]-1]
		}
		nll += lse
	}
	return nll
}

func (l negLogLik) gradient(grad, theta []float64) {
	n, p := l.x.Dims()
	z := make([]float64, l.k)
	for i := range grad {
		grad[i] = 0
	}
	for i := 0; i < n; i++ {
		l.scores(theta, i, p, z)
		lse := logSumExp0(z)
		for c := 0; c < l.k; c++ {
			pc := math.Exp(z[c] - lse)
			if l.y[i] == c+1 {
				pc -= 1
			}
			base := c * l.terms
			grad[base] += pc
			for j := 0; j < p; j++ {
				grad[base+1+j] += pc * l.x.At(i, j)
			}
		}
	}
}

func (l negLogLik) scores(theta []float64, i, p int, z []float64) {
	for c := 0; c < l.k; c++ {
		base := c * l.terms
		s := theta[base]
		for j := 0; j < p; j++ {
			s += theta[base+1+j] * l.x.At(i, j)
		}
		z[c] = s
	}
}

// logSumExp0 computes log(1 + Σ exp(z_c)), the softmax normalizer with the
// reference class pinned at score zero.
func logSumExp0(z []float64) float64 {
	maxZ := 0.0
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	sum := math.Exp(-maxZ)
	for _, v := range z {
		sum += math.Exp(v - maxZ)
	}
	return maxZ + math.Log(sum)
}
