package lab

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/thalesfsp/mab"
	"github.com/thalesfsp/mab/evaluate"
	"github.com/thalesfsp/mab/models"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when neither a path nor MAB_CONFIG is given.
const DefaultConfigPath = "mab.yaml"

// RunConfig describes one experiment: which datasets, which arms, which
// policy and how many pulls.
type RunConfig struct {
	// Name prefixes every artifact, e.g. "ucb" or "proposed_0.5_0.99".
	Name string `yaml:"name" json:"name"`

	// Budget is the number of pulls per dataset.
	Budget int `yaml:"budget" json:"budget"`

	// Seed of the first dataset; dataset i uses Seed+i.
	Seed int64 `yaml:"seed" json:"seed"`

	// Workers is the size of the worker pool.
	Workers int `yaml:"workers" json:"workers"`

	// Folds and Criterion configure cross-validation.
	Folds     int                `yaml:"folds" json:"folds"`
	Criterion evaluate.Criterion `yaml:"criterion" json:"criterion"`

	// Policy selects and parameterizes the selection policy.
	Policy mab.PolicyConfig `yaml:"policy" json:"policy"`

	// Models lists the arms by name, all built-in models when empty.
	Models []string `yaml:"models" json:"models"`

	// Data locates the datasets.
	Data DataConfig `yaml:"data" json:"data"`

	// Output is the artifact directory. Nothing is written when empty.
	Output string `yaml:"output" json:"output"`

	// GroundTruthBudget is the number of random pulls per model used to find
	// the ground truth. Zero disables the ground truth.
	GroundTruthBudget int `yaml:"ground_truth_budget" json:"ground_truth_budget"`

	// LogLevel and LogFormat configure zap.
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// DataConfig locates the datasets.
type DataConfig struct {
	Dir     string   `yaml:"dir" json:"dir"`
	Header  bool     `yaml:"header" json:"header"`
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// DefaultRunConfig returns the defaults applied before the YAML file.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Name:      "ucb",
		Budget:    1000,
		Seed:      1,
		Workers:   runtime.NumCPU(),
		Folds:     evaluate.DefaultFolds,
		Criterion: evaluate.Accuracy,
		Policy:    mab.DefaultPolicyConfig(),
		Data:      DataConfig{Dir: "./data"},
		Output:    "./out",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfig loads the configuration file at path. MAB_CONFIG overrides an
// empty path. A missing file yields the defaults. MAB_LOG_LEVEL and
// MAB_WORKERS override the file.
func LoadConfig(path string) (*RunConfig, error) {
	if path == "" {
		path = getEnv("MAB_CONFIG", DefaultConfigPath)
	}

	config := DefaultRunConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.LogLevel = getEnv("MAB_LOG_LEVEL", config.LogLevel)
	config.Workers = getEnvInt("MAB_WORKERS", config.Workers)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseConfig parses a YAML document on top of the defaults.
func ParseConfig(data []byte) (*RunConfig, error) {
	config := DefaultRunConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that would fail before the first pull.
func (c *RunConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	if c.Folds < 2 {
		return fmt.Errorf("folds must be >= 2, got %d", c.Folds)
	}

	switch c.Criterion {
	case evaluate.Accuracy, evaluate.AUC:
	default:
		return fmt.Errorf("unknown criterion %q", c.Criterion)
	}

	if _, err := mab.NewPolicy(c.Policy); err != nil {
		return err
	}

	if _, err := models.Catalog(c.Models...); err != nil {
		return err
	}

	if c.GroundTruthBudget < 0 {
		return fmt.Errorf("ground_truth_budget must be >= 0, got %d", c.GroundTruthBudget)
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
