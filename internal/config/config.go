package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"studygate/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Quality    QualityConfig    `yaml:"quality"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Baseline   BaselineConfig   `yaml:"baseline"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ValidationConfig controls the observation validator
type ValidationConfig struct {
	HistoryCapacity   int           `yaml:"historyCapacity" validate:"gte=1"`
	RollingWindow     int           `yaml:"rollingWindow" validate:"gte=1,ltefield=HistoryCapacity"`
	PerformanceBudget time.Duration `yaml:"performanceBudget" validate:"gt=0"`
	BatchConcurrency  int           `yaml:"batchConcurrency" validate:"gte=1,lte=256"`
}

// QualityConfig holds the data-quality gate thresholds, all on a 0-100 scale
type QualityConfig struct {
	MinCompleteness      float64 `yaml:"minCompleteness" validate:"gte=0,lte=100"`
	MinAttentionPassRate float64 `yaml:"minAttentionPassRate" validate:"gte=0,lte=100"`
	MaxOutlierRate       float64 `yaml:"maxOutlierRate" validate:"gte=0,lte=100"`
	MinOverallScore      float64 `yaml:"minOverallScore" validate:"gte=0,lte=100"`
	MinSamplesPerGroup   int     `yaml:"minSamplesPerGroup" validate:"gte=2"`
}

// AnalysisConfig holds the inferential settings
type AnalysisConfig struct {
	Alpha               float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	TargetPower         float64 `yaml:"targetPower" validate:"gt=0,lt=1"`
	MinimumDetectable   float64 `yaml:"minimumDetectableEffect" validate:"gt=0"`
	PracticalThreshold  float64 `yaml:"practicalThreshold" validate:"gte=0"`
	BootstrapIterations int     `yaml:"bootstrapIterations" validate:"gte=1000"`
	BootstrapSeed       int64   `yaml:"bootstrapSeed"`
	ConfidenceLevel     float64 `yaml:"confidenceLevel" validate:"gt=0,lt=1"`
	MaxSampleSize       int     `yaml:"maxSampleSize" validate:"gte=4"`
}

// BaselineConfig points at an optional recalibration workbook
type BaselineConfig struct {
	WorkbookPath string `yaml:"workbookPath"`
	Sheet        string `yaml:"sheet"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=error warn info debug trace"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls Prometheus registration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace" validate:"omitempty,alphanum"`
}

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it. An empty path falls back to
// STUDYGATE_CONFIG.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("STUDYGATE_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("config file %s not found: %w", path, err))
			}
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse config: %w", err))
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// Default returns the study defaults
func Default() Config {
	return Config{
		Validation: ValidationConfig{
			HistoryCapacity:   100,
			RollingWindow:     5,
			PerformanceBudget: 10 * time.Millisecond,
			BatchConcurrency:  8,
		},
		Quality: QualityConfig{
			MinCompleteness:      95,
			MinAttentionPassRate: 90,
			MaxOutlierRate:       5,
			MinOverallScore:      90,
			MinSamplesPerGroup:   10,
		},
		Analysis: AnalysisConfig{
			Alpha:               0.05,
			TargetPower:         0.80,
			MinimumDetectable:   0.5,
			PracticalThreshold:  0.3,
			BootstrapIterations: 2000,
			ConfidenceLevel:     0.95,
			MaxSampleSize:       100000,
		},
		Baseline: BaselineConfig{Sheet: "Sheet1"},
		Logging:  LoggingConfig{Level: "info"},
		Metrics:  MetricsConfig{Enabled: true, Address: ":2112", Namespace: "studygate"},
	}
}

// Validate checks field constraints and reports the first offending field
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Validation.HistoryCapacity = getEnvIntOrDefault("STUDYGATE_HISTORY_CAPACITY", cfg.Validation.HistoryCapacity)
	cfg.Validation.RollingWindow = getEnvIntOrDefault("STUDYGATE_ROLLING_WINDOW", cfg.Validation.RollingWindow)
	cfg.Validation.PerformanceBudget = getEnvDurationOrDefault("STUDYGATE_PERFORMANCE_BUDGET", cfg.Validation.PerformanceBudget)
	cfg.Validation.BatchConcurrency = getEnvIntOrDefault("STUDYGATE_BATCH_CONCURRENCY", cfg.Validation.BatchConcurrency)

	cfg.Quality.MinCompleteness = getEnvFloatOrDefault("STUDYGATE_MIN_COMPLETENESS", cfg.Quality.MinCompleteness)
	cfg.Quality.MinAttentionPassRate = getEnvFloatOrDefault("STUDYGATE_MIN_ATTENTION_PASS_RATE", cfg.Quality.MinAttentionPassRate)
	cfg.Quality.MaxOutlierRate = getEnvFloatOrDefault("STUDYGATE_MAX_OUTLIER_RATE", cfg.Quality.MaxOutlierRate)
	cfg.Quality.MinOverallScore = getEnvFloatOrDefault("STUDYGATE_MIN_OVERALL_SCORE", cfg.Quality.MinOverallScore)

	cfg.Analysis.Alpha = getEnvFloatOrDefault("STUDYGATE_ALPHA", cfg.Analysis.Alpha)
	cfg.Analysis.TargetPower = getEnvFloatOrDefault("STUDYGATE_TARGET_POWER", cfg.Analysis.TargetPower)
	cfg.Analysis.MinimumDetectable = getEnvFloatOrDefault("STUDYGATE_MDE", cfg.Analysis.MinimumDetectable)
	cfg.Analysis.PracticalThreshold = getEnvFloatOrDefault("STUDYGATE_PRACTICAL_THRESHOLD", cfg.Analysis.PracticalThreshold)
	cfg.Analysis.BootstrapIterations = getEnvIntOrDefault("STUDYGATE_BOOTSTRAP_ITERATIONS", cfg.Analysis.BootstrapIterations)
	cfg.Analysis.BootstrapSeed = int64(getEnvIntOrDefault("STUDYGATE_BOOTSTRAP_SEED", int(cfg.Analysis.BootstrapSeed)))

	cfg.Baseline.WorkbookPath = getEnvOrDefault("STUDYGATE_BASELINE_WORKBOOK", cfg.Baseline.WorkbookPath)

	cfg.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level))
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}

	cfg.Metrics.Enabled = getEnvBoolOrDefault("STUDYGATE_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Address = getEnvOrDefault("STUDYGATE_METRICS_ADDRESS", cfg.Metrics.Address)
	cfg.Metrics.Namespace = getEnvOrDefault("STUDYGATE_METRICS_NAMESPACE", cfg.Metrics.Namespace)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
