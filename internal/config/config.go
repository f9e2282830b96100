// Package config loads scplan settings from a YAML file and SCPLAN_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/vsinha/scplan/internal/logging"
	"github.com/vsinha/scplan/pkg/application/services/formulation"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

// EnvPrefix prefixes every environment override, e.g. SCPLAN_SOLVER_TIME_LIMIT
const EnvPrefix = "SCPLAN"

// Config is the full application configuration
type Config struct {
	Features FeaturesConfig `mapstructure:"features"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Logging  logging.Config `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// FeaturesConfig selects the model variant
type FeaturesConfig struct {
	MultiEchelon           bool    `mapstructure:"multi_echelon"`
	DistributionCenters    bool    `mapstructure:"distribution_centers"`
	CarbonObjective        bool    `mapstructure:"carbon_objective"`
	ObjectiveMode          string  `mapstructure:"objective_mode"`
	CostWeight             float64 `mapstructure:"cost_weight"`
	CarbonWeight           float64 `mapstructure:"carbon_weight"`
	CostPriority           int     `mapstructure:"cost_priority"`
	CarbonPriority         int     `mapstructure:"carbon_priority"`
	LexicographicTolerance float64 `mapstructure:"lexicographic_tolerance"`
	Workers                int     `mapstructure:"workers"`
}

// SolverConfig tunes the solver and the solution check
type SolverConfig struct {
	TimeLimit time.Duration `mapstructure:"time_limit"`
	Gap       float64       `mapstructure:"gap"`
	Threads   int           `mapstructure:"threads"`
	// Tolerance is the slack allowed when re-verifying a solution
	Tolerance float64 `mapstructure:"tolerance"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `mapstructure:"format"`
	// Detail includes per-scenario orders and inventory in text reports
	Detail bool `mapstructure:"detail"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	f := formulation.DefaultFeatures()
	return &Config{
		Features: FeaturesConfig{
			MultiEchelon:           f.MultiEchelon,
			DistributionCenters:    f.DistributionCenters,
			CarbonObjective:        f.CarbonObjective,
			ObjectiveMode:          f.ObjectiveMode.String(),
			CostWeight:             f.CostWeight,
			CarbonWeight:           f.CarbonWeight,
			CostPriority:           f.CostPriority,
			CarbonPriority:         f.CarbonPriority,
			LexicographicTolerance: f.LexicographicTolerance,
			Workers:                f.Workers,
		},
		Solver: SolverConfig{
			TimeLimit: time.Minute,
			Tolerance: 1e-6,
		},
		Logging: logging.DefaultConfig(),
		Output:  OutputConfig{Format: "text"},
	}
}

// Load reads configPath (optional) over the defaults and applies
// environment overrides
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("features.multi_echelon", d.Features.MultiEchelon)
	v.SetDefault("features.distribution_centers", d.Features.DistributionCenters)
	v.SetDefault("features.carbon_objective", d.Features.CarbonObjective)
	v.SetDefault("features.objective_mode", d.Features.ObjectiveMode)
	v.SetDefault("features.cost_weight", d.Features.CostWeight)
	v.SetDefault("features.carbon_weight", d.Features.CarbonWeight)
	v.SetDefault("features.cost_priority", d.Features.CostPriority)
	v.SetDefault("features.carbon_priority", d.Features.CarbonPriority)
	v.SetDefault("features.lexicographic_tolerance", d.Features.LexicographicTolerance)
	v.SetDefault("features.workers", d.Features.Workers)

	v.SetDefault("solver.time_limit", d.Solver.TimeLimit)
	v.SetDefault("solver.gap", d.Solver.Gap)
	v.SetDefault("solver.threads", d.Solver.Threads)
	v.SetDefault("solver.tolerance", d.Solver.Tolerance)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.detail", d.Output.Detail)
}

// Validate checks values that do not depend on the catalog
func (c *Config) Validate() error {
	var errs error
	if _, err := formulation.ParseObjectiveMode(c.Features.ObjectiveMode); err != nil {
		errs = multierr.Append(errs, &entities.ConfigurationError{Field: "features.objective_mode", Reason: err.Error()})
	}
	if c.Solver.TimeLimit < 0 {
		errs = multierr.Append(errs, &entities.ConfigurationError{Field: "solver.time_limit", Reason: "must be non-negative"})
	}
	if c.Solver.Tolerance < 0 {
		errs = multierr.Append(errs, &entities.ConfigurationError{Field: "solver.tolerance", Reason: "must be non-negative"})
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		errs = multierr.Append(errs, &entities.ConfigurationError{Field: "output.format", Reason: fmt.Sprintf("unsupported format %q (expected text, json or csv)", c.Output.Format)})
	}
	return errs
}

// FormulationFeatures converts the features section
func (c *Config) FormulationFeatures() (formulation.Features, error) {
	mode, err := formulation.ParseObjectiveMode(c.Features.ObjectiveMode)
	if err != nil {
		return formulation.Features{}, &entities.ConfigurationError{Field: "features.objective_mode", Reason: err.Error()}
	}
	return formulation.Features{
		MultiEchelon:           c.Features.MultiEchelon,
		DistributionCenters:    c.Features.DistributionCenters,
		CarbonObjective:        c.Features.CarbonObjective,
		ObjectiveMode:          mode,
		CostWeight:             c.Features.CostWeight,
		CarbonWeight:           c.Features.CarbonWeight,
		CostPriority:           c.Features.CostPriority,
		CarbonPriority:         c.Features.CarbonPriority,
		LexicographicTolerance: c.Features.LexicographicTolerance,
		Workers:                c.Features.Workers,
	}, nil
}

// SolverOptions converts the solver section
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		TimeLimit: c.Solver.TimeLimit,
		Gap:       c.Solver.Gap,
		Threads:   c.Solver.Threads,
	}
}
