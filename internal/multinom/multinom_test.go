package multinom

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
	"github.com/SableBench/rnaloc-cli/internal/feature"
)

// syntheticMatrix builds n observations over four covariates with a known
// linear class structure plus noise, so the fit has real but imperfect
// signal to recover.
func syntheticMatrix(n int, noise float64, seed int64) *feature.Matrix {
	rng := rand.New(rand.NewSource(seed))
	p := 4
	x := mat.NewDense(n, p, nil)
	labels := make([]dataset.Category, n)
	for i := 0; i < n; i++ {
		row := make([]float64, p)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		x.SetRow(i, row)

		// Reference class DF scores zero; the others follow fixed
		// linear rules over the first three covariates.
		scores := []float64{
			0,
			2*row[0] - row[1] + noise*rng.NormFloat64(),
			-row[0] + 2*row[1] + noise*rng.NormFloat64(),
			1.5*row[2] + noise*rng.NormFloat64(),
		}
		best := 0
		for c := 1; c < len(scores); c++ {
			if scores[c] > scores[best] {
				best = c
			}
		}
		labels[i] = dataset.Categories[best]
	}
	return &feature.Matrix{
		X:      x,
		Labels: labels,
		Names:  append([]dataset.Covariate(nil), dataset.Covariates[:p]...),
	}
}

func nullAccuracy(labels []dataset.Category) float64 {
	counts := map[dataset.Category]int{}
	best := 0
	for _, l := range labels {
		counts[l]++
		if counts[l] > best {
			best = counts[l]
		}
	}
	return float64(best) / float64(len(labels))
}

func TestFitRecoversSignal(t *testing.T) {
	m := syntheticMatrix(100, 1.0, 42)
	opts := DefaultFitOptions()
	opts.MaxIterations = 500
	opts.Seed = 7

	model, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if model.N != 100 || len(model.Classes) != 4 {
		t.Fatalf("unexpected model shape: %+v", model)
	}
	if r, c := model.Coef.Dims(); r != 3 || c != 5 {
		t.Fatalf("coefficient dims %dx%d", r, c)
	}

	null, err := FitNull(m.Labels)
	if err != nil {
		t.Fatalf("FitNull: %v", err)
	}
	if model.Deviance() >= null.Deviance() {
		t.Fatalf("fitted deviance %g should beat null %g", model.Deviance(), null.Deviance())
	}
	if r2 := PseudoR2(model, null); r2 <= 0 || r2 >= 1 {
		t.Fatalf("pseudo-R² out of range: %g", r2)
	}

	pred, _ := model.Predict(m.X)
	acc := Accuracy(pred, m.Labels)
	if acc <= nullAccuracy(m.Labels) {
		t.Fatalf("accuracy %g should beat the marginal predictor %g", acc, nullAccuracy(m.Labels))
	}

	// Confusion diagonal must agree with accuracy's hit count.
	cm, err := NewConfusionMatrix(pred, m.Labels)
	if err != nil {
		t.Fatalf("NewConfusionMatrix: %v", err)
	}
	hits := 0
	for i := range pred {
		if pred[i] == m.Labels[i] {
			hits++
		}
	}
	if cm.Diagonal() != hits {
		t.Fatalf("confusion diagonal %d != hit count %d", cm.Diagonal(), hits)
	}
	if cm.Total() != 100 {
		t.Fatalf("confusion total %d", cm.Total())
	}
}

func TestFitDeterministicGivenSeed(t *testing.T) {
	m := syntheticMatrix(60, 1.0, 3)
	opts := DefaultFitOptions()
	opts.MaxIterations = 200
	opts.Seed = 11

	a, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	b, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !mat.Equal(a.Coef, b.Coef) {
		t.Fatalf("same seed must reproduce identical coefficients")
	}
}

func TestFitIterationBudgetIsNotAnError(t *testing.T) {
	m := syntheticMatrix(80, 1.0, 5)
	opts := DefaultFitOptions()
	opts.MaxIterations = 2 // far too few to converge
	opts.Seed = 1

	model, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("budget exhaustion must not be an error: %v", err)
	}
	if model.Converged {
		t.Fatalf("2 iterations should not converge")
	}
	// The partially optimized model is still usable for diagnostics.
	if math.IsNaN(model.Deviance()) || math.IsInf(model.Deviance(), 0) {
		t.Fatalf("deviance unusable: %g", model.Deviance())
	}
	if pred, _ := model.Predict(m.X); len(pred) != 80 {
		t.Fatalf("prediction unusable")
	}
}

func TestFitRejectsUnlabeledRows(t *testing.T) {
	m := syntheticMatrix(10, 1.0, 9)
	m.Labels[4] = ""
	if _, err := Fit(m, DefaultFitOptions()); err == nil {
		t.Fatalf("expected error for unassigned category")
	}
}

func TestFitNullClosedForm(t *testing.T) {
	labels := make([]dataset.Category, 0, 10)
	for i, n := range []int{4, 3, 2, 1} {
		for j := 0; j < n; j++ {
			labels = append(labels, dataset.Categories[i])
		}
	}
	null, err := FitNull(labels)
	if err != nil {
		t.Fatalf("FitNull: %v", err)
	}

	wantIntercepts := []float64{math.Log(3.0 / 4.0), math.Log(2.0 / 4.0), math.Log(1.0 / 4.0)}
	for i, w := range wantIntercepts {
		if got := null.Coef.At(i, 0); math.Abs(got-w) > 1e-12 {
			t.Fatalf("intercept %d: got %g want %g", i, got, w)
		}
	}

	wantLL := 4*math.Log(0.4) + 3*math.Log(0.3) + 2*math.Log(0.2) + 1*math.Log(0.1)
	if math.Abs(null.LogLik-wantLL) > 1e-12 {
		t.Fatalf("null log-likelihood: got %g want %g", null.LogLik, wantLL)
	}
	if r2 := PseudoR2(null, null); r2 != 0 {
		t.Fatalf("null vs itself pseudo-R² should be 0, got %g", r2)
	}
}

func TestCoefficientTable(t *testing.T) {
	m := syntheticMatrix(100, 1.0, 42)
	opts := DefaultFitOptions()
	opts.MaxIterations = 500
	opts.Seed = 7
	model, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	coeffs, err := model.CoefficientTable(m.X)
	if err != nil {
		t.Fatalf("CoefficientTable: %v", err)
	}
	if len(coeffs) != 3*5 {
		t.Fatalf("expected 15 rows, got %d", len(coeffs))
	}
	for i, c := range coeffs {
		if c.StdErr <= 0 || math.IsNaN(c.StdErr) {
			t.Fatalf("row %d: bad std err %g", i, c.StdErr)
		}
		if c.P < 0 || c.P > 1 {
			t.Fatalf("row %d: p-value %g", i, c.P)
		}
		if i > 0 && coeffs[i-1].P > c.P {
			t.Fatalf("rows not sorted by significance at %d", i)
		}
		if c.Term != InterceptTerm && dataset.Covariate(c.Term).Index() < 0 {
			t.Fatalf("row %d: unknown term %q", i, c.Term)
		}
	}

	// The planted strong effects should be among the most significant.
	top := coeffs[0]
	if top.P > 1e-3 {
		t.Fatalf("strongest effect unexpectedly weak: %+v", top)
	}
}

func TestDecisionSurface(t *testing.T) {
	m := syntheticMatrix(100, 1.0, 42)
	opts := DefaultFitOptions()
	opts.MaxIterations = 300
	opts.Seed = 7
	model, err := Fit(m, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	means := make([]float64, 4)
	pts, err := model.DecisionSurface(means, 0, 1, -1, 1, 3)
	if err != nil {
		t.Fatalf("DecisionSurface: %v", err)
	}
	if len(pts) != 9 {
		t.Fatalf("3x3 grid should yield 9 predictions, got %d", len(pts))
	}
	valid := map[dataset.Category]bool{}
	for _, c := range model.Classes {
		valid[c] = true
	}
	axis := map[float64]bool{-1: true, 0: true, 1: true}
	for _, p := range pts {
		if !axis[p.X] || !axis[p.Y] {
			t.Fatalf("grid point off the lattice: %+v", p)
		}
		if !valid[p.Predicted] {
			t.Fatalf("prediction outside class set: %+v", p)
		}
	}

	if _, err := model.DecisionSurface(means, 0, 0, -1, 1, 3); err == nil {
		t.Fatalf("identical pair must be rejected")
	}
	if _, err := model.DecisionSurface(means[:2], 0, 1, -1, 1, 3); err == nil {
		t.Fatalf("mismatched means must be rejected")
	}
	if _, err := model.DecisionSurface(means, 0, 1, -1, 1, 0); err == nil {
		t.Fatalf("zero steps must be rejected")
	}
}

func TestCovariatePair(t *testing.T) {
	names := dataset.Covariates[:4]
	a, b, err := CovariatePair(names, names[2], names[0])
	if err != nil || a != 2 || b != 0 {
		t.Fatalf("pair resolution: %d,%d,%v", a, b, err)
	}
	if _, _, err := CovariatePair(names, names[0], dataset.CovSiteM6A); err == nil {
		t.Fatalf("unknown covariate must be rejected")
	}
	if _, _, err := CovariatePair(names, names[1], names[1]); err == nil {
		t.Fatalf("identical covariates must be rejected")
	}
}

func TestAccuracyEdgeCases(t *testing.T) {
	if Accuracy(nil, nil) != 0 {
		t.Fatalf("empty accuracy should be 0")
	}
	pred := []dataset.Category{dataset.CatER, dataset.CatTG}
	act := []dataset.Category{dataset.CatER, dataset.CatCY}
	if a := Accuracy(pred, act); a != 0.5 {
		t.Fatalf("accuracy: %g", a)
	}
	if Accuracy(pred, act[:1]) != 0 {
		t.Fatalf("length mismatch should yield 0")
	}
}
