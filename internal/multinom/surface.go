package multinom

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// SurfacePoint is one grid cell of a pairwise decision boundary sweep.
type SurfacePoint struct {
	X, Y      float64
	Predicted dataset.Category
}

// Sweep defaults for boundary visualization.
const (
	DefaultGridMin   = -10.0
	DefaultGridMax   = 10.0
	DefaultGridSteps = 500
)

// DecisionSurface sweeps covariates xi and yi over a steps×steps linear
// grid on [lo,hi] while pinning every other covariate at its column mean,
// and predicts the class at each cell. It is a pure function of the fitted
// model; cells are independent evaluations.
func (m *Model) DecisionSurface(means []float64, xi, yi int, lo, hi float64, steps int) ([]SurfacePoint, error) {
	p := len(m.Covariates)
	if len(means) != p {
		return nil, fmt.Errorf("decision surface: %d means for %d covariates", len(means), p)
	}
	if xi < 0 || xi >= p || yi < 0 || yi >= p || xi == yi {
		return nil, fmt.Errorf("decision surface: invalid covariate pair (%d, %d)", xi, yi)
	}
	if steps < 1 {
		return nil, fmt.Errorf("decision surface: steps must be >= 1, got %d", steps)
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	at := func(i int) float64 {
		if steps == 1 {
			return (lo + hi) / 2
		}
		return lo + (hi-lo)*float64(i)/float64(steps-1)
	}

	rowBuf := mat.NewDense(1, p, nil)
	out := make([]SurfacePoint, 0, steps*steps)
	for iy := 0; iy < steps; iy++ {
		for ix := 0; ix < steps; ix++ {
			for j := 0; j < p; j++ {
				rowBuf.Set(0, j, means[j])
			}
			rowBuf.Set(0, xi, at(ix))
			rowBuf.Set(0, yi, at(iy))
			pred, _ := m.Predict(rowBuf)
			out = append(out, SurfacePoint{X: at(ix), Y: at(iy), Predicted: pred[0]})
		}
	}
	return out, nil
}

// CovariatePair resolves two covariate names to their column indices.
func CovariatePair(names []dataset.Covariate, a, b dataset.Covariate) (int, int, error) {
	ai, bi := -1, -1
	for i, n := range names {
		if n == a {
			ai = i
		}
		if n == b {
			bi = i
		}
	}
	if ai < 0 {
		return 0, 0, fmt.Errorf("decision surface: unknown covariate %q", a)
	}
	if bi < 0 {
		return 0, 0, fmt.Errorf("decision surface: unknown covariate %q", b)
	}
	if ai == bi {
		return 0, 0, fmt.Errorf("decision surface: covariates must differ, got %q twice", a)
	}
	return ai, bi, nil
}
