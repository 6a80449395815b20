// Package config handles loading and managing roiscope configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/sensitivity"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "ROISCOPE_"

// Config is the top-level configuration for roiscope.
type Config struct {
	DataDir   string `yaml:"data_dir" env:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR" validate:"required"`
	Company   string `yaml:"company" env:"COMPANY" validate:"required"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info error fatal"`

	Storage     StorageConfig     `yaml:"storage" envPrefix:"STORAGE_"`
	Model       ModelConfig       `yaml:"model" envPrefix:"MODEL_"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" envPrefix:"SENSITIVITY_"`
}

// StorageConfig selects where run outputs are published.
type StorageConfig struct {
	Backend   string `yaml:"backend" env:"BACKEND" validate:"oneof=local s3 gcs"`
	Bucket    string `yaml:"bucket" env:"BUCKET" validate:"required_unless=Backend local"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"` // custom S3 endpoint, e.g. MinIO
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
}

// ModelConfig overrides model constants.
type ModelConfig struct {
	ShiftRates        map[string]float64 `yaml:"shift_rates" env:"SHIFT_RATES" validate:"dive,gte=0,lte=1"`
	FallbackShiftRate float64            `yaml:"fallback_shift_rate" env:"FALLBACK_SHIFT_RATE" validate:"gte=0,lte=1"`
}

// SensitivityConfig configures the sensitivity harness.
type SensitivityConfig struct {
	BaseScenario    string                     `yaml:"base_scenario" env:"BASE_SCENARIO" validate:"required"`
	Gates           GatesConfig                `yaml:"gates" envPrefix:"GATES_"`
	BaselineWeights scoring.Weights            `yaml:"baseline_weights"`
	WeightSchemes   []sensitivity.WeightScheme `yaml:"weight_schemes" validate:"min=1"`
	ReadinessGates  []float64                  `yaml:"readiness_gates" env:"READINESS_GATES" validate:"min=1"`
	RiskGates       []float64                  `yaml:"risk_gates" env:"RISK_GATES" validate:"min=1"`
	AgentCosts      []float64                  `yaml:"agent_costs" env:"AGENT_COSTS" validate:"min=1,dive,gte=0"`
	ImplMultipliers []float64                  `yaml:"impl_multipliers" env:"IMPL_MULTIPLIERS" validate:"min=1,dive,gte=0"`
	MonteCarlo      MonteCarloConfig           `yaml:"monte_carlo" envPrefix:"MC_"`
}

// GatesConfig are the sweep gates.
type GatesConfig struct {
	MinReadiness float64 `yaml:"min_readiness" env:"MIN_READINESS"`
	MaxRisk      float64 `yaml:"max_risk" env:"MAX_RISK"`
}

// MonteCarloConfig configures the resampling analysis. A zero seed selects
// the default seed.
type MonteCarloConfig struct {
	Trials  int    `yaml:"trials" env:"TRIALS" validate:"gt=0"`
	Seed    uint64 `yaml:"seed" env:"SEED"`
	Workers int    `yaml:"workers" env:"WORKERS" validate:"gte=0"`

	WReadiness sensitivity.Triangular `yaml:"w_readiness"`
	WROI       sensitivity.Triangular `yaml:"w_roi"`
	WRisk      sensitivity.Triangular `yaml:"w_risk"`
	Adoption   sensitivity.Triangular `yaml:"adoption_rate"`
	AgentCost  sensitivity.Triangular `yaml:"agent_cost"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	rates := scoring.DefaultShiftRates()
	sens := sensitivity.DefaultOptions()
	mc := sens.MonteCarlo

	return &Config{
		DataDir:   "data",
		OutputDir: "outputs",
		Company:   "DEMO_CO",
		LogLevel:  "info",
		Storage: StorageConfig{
			Backend: "local",
		},
		Model: ModelConfig{
			ShiftRates:        rates.Rates,
			FallbackShiftRate: rates.Fallback,
		},
		Sensitivity: SensitivityConfig{
			BaseScenario:    "SCN_BASE",
			Gates:           GatesConfig{MinReadiness: sens.SweepGates.MinReadiness, MaxRisk: sens.SweepGates.MaxRisk},
			BaselineWeights: sens.BaselineWeights,
			WeightSchemes:   sens.Schemes,
			ReadinessGates:  sens.ReadinessGates,
			RiskGates:       sens.RiskGates,
			AgentCosts:      sens.AgentCosts,
			ImplMultipliers: sens.ImplMultipliers,
			MonteCarlo: MonteCarloConfig{
				Trials:     mc.Trials,
				Seed:       mc.Seed,
				Workers:    mc.Workers,
				WReadiness: mc.WReadiness,
				WROI:       mc.WROI,
				WRisk:      mc.WRisk,
				Adoption:   mc.Adoption,
				AgentCost:  mc.AgentCost,
			},
		},
	}
}

// Load reads a config file from the given path and fills every field the
// file leaves unset from DefaultConfig. If the file does not exist, it
// returns the default config.
func Load(path string) (*Config, error) {
	defaults := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := mergo.Merge(cfg, defaults); err != nil {
		return nil, fmt.Errorf("merging config defaults: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with ROISCOPE_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration for values that cannot run.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.SensitivityOptions().Validate(); err != nil {
		return fmt.Errorf("invalid config: sensitivity: %w", err)
	}
	return nil
}

// ShiftRates returns the shift-rate table for the scoring engine.
func (c *Config) ShiftRates() scoring.ShiftRates {
	rates := make(map[string]float64, len(c.Model.ShiftRates))
	for k, v := range c.Model.ShiftRates {
		rates[k] = v
	}
	return scoring.ShiftRates{Rates: rates, Fallback: c.Model.FallbackShiftRate}
}

// SensitivityOptions converts the sensitivity section to harness options.
func (c *Config) SensitivityOptions() sensitivity.Options {
	s := c.Sensitivity
	mc := s.MonteCarlo
	return sensitivity.Options{
		SweepGates:      scoring.Gates{MinReadiness: s.Gates.MinReadiness, MaxRisk: s.Gates.MaxRisk},
		BaselineWeights: s.BaselineWeights,
		Schemes:         s.WeightSchemes,
		ReadinessGates:  s.ReadinessGates,
		RiskGates:       s.RiskGates,
		AgentCosts:      s.AgentCosts,
		ImplMultipliers: s.ImplMultipliers,
		MonteCarlo: sensitivity.MonteCarloOptions{
			Trials:     mc.Trials,
			Seed:       sensitivity.SeedOrDefault(mc.Seed),
			Workers:    mc.Workers,
			WReadiness: mc.WReadiness,
			WROI:       mc.WROI,
			WRisk:      mc.WRisk,
			Adoption:   mc.Adoption,
			AgentCost:  mc.AgentCost,
		},
	}
}

// FindConfigFile looks for .roiscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".roiscope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
