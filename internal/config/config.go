package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Validator settings.
	CompositionTol float64 `mapstructure:"composition_tol" yaml:"composition_tol"`
	CompareTol     float64 `mapstructure:"compare_tol" yaml:"compare_tol"`
	RoundingDigits int     `mapstructure:"rounding_digits" yaml:"rounding_digits"`

	// Fit settings.
	MaxIterations int   `mapstructure:"max_iterations" yaml:"max_iterations"`
	Seed          int64 `mapstructure:"seed" yaml:"seed"`

	// Decision-surface sweep settings.
	GridMin   float64 `mapstructure:"grid_min" yaml:"grid_min"`
	GridMax   float64 `mapstructure:"grid_max" yaml:"grid_max"`
	GridSteps int     `mapstructure:"grid_steps" yaml:"grid_steps"`

	// Input handling.
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// OutputDir is where run artifacts land.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.rnaloc/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".rnaloc")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RNALOC")
	v.AutomaticEnv()

	// Defaults: the empirically discovered upstream conventions plus the
	// descriptive-fit budget.
	v.SetDefault("composition_tol", 1e-6)
	v.SetDefault("compare_tol", 1.5e-8)
	v.SetDefault("rounding_digits", 4)
	v.SetDefault("max_iterations", 1000)
	v.SetDefault("seed", 1)
	v.SetDefault("grid_min", -10.0)
	v.SetDefault("grid_max", 10.0)
	v.SetDefault("grid_steps", 500)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 0)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".rnaloc")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve output_dir default: ./rnaloc-out
	if c.OutputDir == "" {
		c.OutputDir = "rnaloc-out"
	}
	return &c, nil
}
