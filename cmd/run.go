package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/SableBench/rnaloc-cli/internal/report"
	"github.com/SableBench/rnaloc-cli/internal/utils"
	"github.com/SableBench/rnaloc-cli/internal/validate"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runDelimiter  string
	runSheetName  string
	runSheetIndex int
	runOutputDir  string
	runMaxIter    int
	runSeed       int64
)

// runDiagnostics is the machine-readable artifact written alongside the
// markdown reports.
type runDiagnostics struct {
	RunID          string  `json:"run_id"`
	Source         string  `json:"source"`
	Records        int     `json:"records"`
	ValidationPass bool    `json:"validation_pass"`
	Converged      bool    `json:"converged"`
	Iterations     int     `json:"iterations"`
	Deviance       float64 `json:"deviance"`
	NullDeviance   float64 `json:"null_deviance"`
	PseudoR2       float64 `json:"pseudo_r2"`
	Accuracy       float64 `json:"accuracy"`
}

var runCmd = &cobra.Command{
	Use:   "run <table>",
	Short: "Validate and fit end to end, writing all artifacts to a run directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := loadTable(args[0], runDelimiter, runSheetName, runSheetIndex)
		if err != nil {
			return err
		}
		warnDuplicates(tbl)

		outDir := runOutputDir
		if outDir == "" && cfg != nil {
			outDir = cfg.OutputDir
		}
		runID := uuid.NewString()[:8]
		dir := filepath.Join(outDir, runID)
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create run dir: %w", err)
		}

		// Stage 1: validation (diagnostic; never blocks the fit).
		vrep := validate.Run(tbl, validatorOptions())
		if err := utils.SafeWriteFile(filepath.Join(dir, "validation.md"), []byte(vrep.Markdown())); err != nil {
			return err
		}
		if !vrep.Pass() {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Validation reported mismatches; continuing (the fit recomputes its own inputs)")
		}

		// Stage 2: fit + diagnostics.
		m, model, err := fitPipeline(tbl, runMaxIter, runSeed)
		if err != nil {
			return err
		}
		sum, err := buildSummary(tbl.Source, m, model)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(dir, "fit.md"), []byte(sum.Markdown())); err != nil {
			return err
		}
		if len(sum.Coefficients) > 0 {
			if err := report.WriteCoefficientsCSV(filepath.Join(dir, "coefficients.csv"), sum.Coefficients); err != nil {
				return err
			}
			if err := report.WriteCoefficientsXLSX(filepath.Join(dir, "coefficients.xlsx"), sum.Coefficients); err != nil {
				return err
			}
		}

		diag := runDiagnostics{
			RunID:          runID,
			Source:         tbl.Source,
			Records:        tbl.Len(),
			ValidationPass: vrep.Pass(),
			Converged:      sum.Converged,
			Iterations:     sum.Iterations,
			Deviance:       sum.Deviance,
			NullDeviance:   sum.NullDeviance,
			PseudoR2:       sum.PseudoR2,
			Accuracy:       sum.Accuracy,
		}
		b, err := utils.PrettyJSON(diag)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(dir, "diagnostics.json"), b); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Run %s complete: artifacts in %s\n", runID, dir)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "CSV delimiter: ','|tab|';' (default auto by extension)")
	runCmd.Flags().StringVar(&runSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	runCmd.Flags().IntVar(&runSheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "artifact directory root (default from config)")
	runCmd.Flags().IntVar(&runMaxIter, "max-iter", 0, "optimizer iteration budget (overrides config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "seed for the fit's initial jitter (overrides config)")
	rootCmd.AddCommand(runCmd)
}
