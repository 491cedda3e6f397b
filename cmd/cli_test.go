package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
)

// writeFixtureCSV builds a small but fully schematic gene table whose
// normalized columns follow the rounded-median convention, so validation
// passes end to end.
func writeFixtureCSV(t *testing.T, n int) string {
	t.Helper()

	cy := make([]float64, n)
	er := make([]float64, n)
	tg := make([]float64, n)
	for i := 0; i < n; i++ {
		cy[i] = 0.2 + 0.5*float64(i)/float64(n-1)
		er[i] = 0.1 + 0.2*float64(i%5)/4
		tg[i] = 1 - cy[i] - er[i]
	}
	scale := func(vals []float64) float64 {
		cp := append([]float64(nil), vals...)
		sort.Float64s(cp)
		var m float64
		if len(cp)%2 == 1 {
			m = cp[len(cp)/2]
		} else {
			m = (cp[len(cp)/2-1] + cp[len(cp)/2]) / 2
		}
		return math.Round(m*1e4) / 1e4
	}
	sCY, sER, sTG := scale(cy), scale(er), scale(tg)

	header := []string{"Gene", "RefSeq", "Category", "pco_cy", "pco_er", "pco_tg", "npco_cy", "npco_er", "npco_tg"}
	for _, c := range dataset.Covariates {
		header = append(header, string(c))
	}
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		ncy, ner, ntg := cy[i]/sCY, er[i]/sER, tg[i]/sTG
		cat := "CY"
		if ner > ncy && ner > ntg {
			cat = "ER"
		} else if ntg > ncy && ntg > ner {
			cat = "TG"
		}
		if i%7 == 0 {
			cat = "DF"
		}
		row := []string{
			fmt.Sprintf("GENE%03d", i), fmt.Sprintf("NM_%06d", i), cat,
			fmt.Sprintf("%.17g", cy[i]), fmt.Sprintf("%.17g", er[i]), fmt.Sprintf("%.17g", tg[i]),
			fmt.Sprintf("%.17g", ncy), fmt.Sprintf("%.17g", ner), fmt.Sprintf("%.17g", ntg),
		}
		for j := range dataset.Covariates {
			row = append(row, fmt.Sprintf("%g", float64((i*3+j)%9)))
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "genes.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errb)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\nstderr: %s", args, err, errb.String())
	}
	return out.String(), errb.String()
}

func TestValidateCommand(t *testing.T) {
	path := writeFixtureCSV(t, 21)
	outPath := filepath.Join(t.TempDir(), "validation.md")

	out, _ := execute(t, "validate", path, "-o", outPath)
	if !strings.Contains(out, "[VALIDATION REPORT]") {
		t.Fatalf("missing report section:\n%s", out)
	}
	if !strings.Contains(out, "0 failing") {
		t.Fatalf("composition should pass:\n%s", out)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	if !strings.Contains(string(b), "[NORMALIZATION]") {
		t.Fatalf("report file incomplete:\n%s", b)
	}

	// The rounding convention is configurable because it was discovered,
	// not given: digits=0 must flip the normalization check.
	out, _ = execute(t, "validate", path, "--digits", "0", "-o", outPath)
	if !strings.Contains(out, "median rounded to 0 digits") {
		t.Fatalf("digits flag not honored:\n%s", out)
	}
}

func TestFitCommand(t *testing.T) {
	path := writeFixtureCSV(t, 28)
	coefPath := filepath.Join(t.TempDir(), "coef.csv")

	out, _ := execute(t, "fit", path, "--max-iter", "60", "--seed", "5", "--coef-csv", coefPath)
	for _, want := range []string{"[FIT SUMMARY]", "[DIAGNOSTICS]", "[CONFUSION MATRIX]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}

	// Either the Wald table or the explicit note about why it is absent
	// must show up; with 28 rows and 32 covariates the information
	// matrix is expected to be singular.
	if !strings.Contains(out, "[COEFFICIENTS]") {
		t.Fatalf("coefficients section missing:\n%s", out)
	}
}

func TestRunCommand(t *testing.T) {
	path := writeFixtureCSV(t, 21)
	outDir := filepath.Join(t.TempDir(), "artifacts")

	out, _ := execute(t, "run", path, "-o", outDir, "--max-iter", "40", "--seed", "5")
	if !strings.Contains(out, "✓ Run") {
		t.Fatalf("missing completion line:\n%s", out)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("run dir: %v %v", entries, err)
	}
	runDir := filepath.Join(outDir, entries[0].Name())
	for _, f := range []string{"validation.md", "fit.md", "diagnostics.json"} {
		if _, err := os.Stat(filepath.Join(runDir, f)); err != nil {
			t.Fatalf("missing artifact %s: %v", f, err)
		}
	}
}

func TestSurfaceCommand(t *testing.T) {
	path := writeFixtureCSV(t, 21)
	outPath := filepath.Join(t.TempDir(), "surface.csv")

	_, errb := execute(t, "surface", path,
		"--x", "Clip_TIA1", "--y", "Anno_3UTR_length",
		"--min", "-1", "--max", "1", "--steps", "3",
		"--max-iter", "40", "--seed", "5", "-o", outPath)
	if !strings.Contains(errb, "9 grid predictions") {
		t.Fatalf("expected 3x3 grid note, got:\n%s", errb)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("surface file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected header + 9 rows, got %d", len(lines))
	}
}

func TestLoadTableDelimiter(t *testing.T) {
	if _, err := loadTable("x.csv", "|", "", 0); err == nil || !strings.Contains(err.Error(), "unsupported --delimiter") {
		t.Fatalf("expected delimiter error, got %v", err)
	}
}
