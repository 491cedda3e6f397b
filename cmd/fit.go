package cmd

import (
	"fmt"

	"github.com/SableBench/rnaloc-cli/internal/dataset"
	"github.com/SableBench/rnaloc-cli/internal/feature"
	"github.com/SableBench/rnaloc-cli/internal/multinom"
	"github.com/SableBench/rnaloc-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	fitDelimiter  string
	fitSheetName  string
	fitSheetIndex int
	fitMaxIter    int
	fitSeed       int64
	fitCoefCSV    string
	fitCoefXLSX   string
)

var fitCmd = &cobra.Command{
	Use:   "fit <table>",
	Short: "Fit the multinomial localization model and print diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := loadTable(args[0], fitDelimiter, fitSheetName, fitSheetIndex)
		if err != nil {
			return err
		}
		warnDuplicates(tbl)

		m, model, err := fitPipeline(tbl, fitMaxIter, fitSeed)
		if err != nil {
			return err
		}
		sum, err := buildSummary(tbl.Source, m, model)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), sum.Markdown())

		if fitCoefCSV != "" {
			if err := report.WriteCoefficientsCSV(fitCoefCSV, sum.Coefficients); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Coefficients written to %s\n", fitCoefCSV)
		}
		if fitCoefXLSX != "" {
			if err := report.WriteCoefficientsXLSX(fitCoefXLSX, sum.Coefficients); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Coefficients written to %s\n", fitCoefXLSX)
		}
		return nil
	},
}

// fitPipeline runs impute → transform/scale → fit with flag/config
// precedence on the optimizer settings.
func fitPipeline(tbl *dataset.Table, maxIter int, seed int64) (*feature.Matrix, *multinom.Model, error) {
	imputed, err := feature.Impute(tbl)
	if err != nil {
		return nil, nil, err
	}
	m, err := feature.TransformScale(imputed)
	if err != nil {
		return nil, nil, err
	}

	opts := multinom.DefaultFitOptions()
	if cfg != nil {
		if cfg.MaxIterations > 0 {
			opts.MaxIterations = cfg.MaxIterations
		}
		if cfg.Seed != 0 {
			opts.Seed = cfg.Seed
		}
	}
	if maxIter > 0 {
		opts.MaxIterations = maxIter
	}
	if seed != 0 {
		opts.Seed = seed
	}

	model, err := multinom.Fit(m, opts)
	if err != nil {
		return nil, nil, err
	}
	return m, model, nil
}

// buildSummary evaluates a fitted model on its own training matrix. The
// pipeline is descriptive inference over all available data; there is no
// train/test split by design.
func buildSummary(source string, m *feature.Matrix, model *multinom.Model) (*report.FitSummary, error) {
	null, err := multinom.FitNull(m.Labels)
	if err != nil {
		return nil, err
	}
	pred, ties := model.Predict(m.X)
	cm, err := multinom.NewConfusionMatrix(pred, m.Labels)
	if err != nil {
		return nil, err
	}

	sum := &report.FitSummary{
		Source:         source,
		N:              model.N,
		Converged:      model.Converged,
		Iterations:     model.Iterations,
		Deviance:       model.Deviance(),
		NullDeviance:   null.Deviance(),
		PseudoR2:       multinom.PseudoR2(model, null),
		Accuracy:       multinom.Accuracy(pred, m.Labels),
		PredictionTies: ties,
		Confusion:      cm,
	}
	coeffs, err := model.CoefficientTable(m.X)
	if err != nil {
		// A singular information matrix spoils the Wald statistics but
		// not the fit itself; report and continue.
		sum.CoefficientNote = err.Error()
	} else {
		sum.Coefficients = coeffs
	}
	return sum, nil
}

func init() {
	fitCmd.Flags().StringVar(&fitDelimiter, "delimiter", "", "CSV delimiter: ','|tab|';' (default auto by extension)")
	fitCmd.Flags().StringVar(&fitSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	fitCmd.Flags().IntVar(&fitSheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	fitCmd.Flags().IntVar(&fitMaxIter, "max-iter", 0, "optimizer iteration budget (overrides config)")
	fitCmd.Flags().Int64Var(&fitSeed, "seed", 0, "seed for the fit's initial jitter (overrides config)")
	fitCmd.Flags().StringVar(&fitCoefCSV, "coef-csv", "", "export the coefficient table as CSV")
	fitCmd.Flags().StringVar(&fitCoefXLSX, "coef-xlsx", "", "export the coefficient table as XLSX")
	rootCmd.AddCommand(fitCmd)
}
