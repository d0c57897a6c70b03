package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/output"
)

// envPrefix is the prefix of every environment override, e.g. KCOMBO_WORKERS.
const envPrefix = "KCOMBO"

// Config validation errors
var (
	ErrInvalidK           = errors.New("k must be a positive integer")
	ErrInvalidCandidates  = errors.New("p must be a positive integer not below k")
	ErrInvalidWorkers     = errors.New("n must be a positive integer")
	ErrMissingInput       = errors.New("an input file is required")
	ErrInvalidDistance    = errors.New("distance must be 'manhattan' or 'euclidean'")
	ErrInvalidFormat      = errors.New("format must be 'csv' or 'parquet'")
	ErrInvalidLogFormat   = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidMemoryLimit = errors.New("memory_limit must not be negative")
	ErrInvalidIOLimit     = errors.New("io_limit must not be negative")
)

// Config holds every CLI setting. Values are layered: defaults, then the YAML
// file, then the environment (KCOMBO_*, optionally from .env), then flags.
type Config struct {
	K          int    `yaml:"k" envconfig:"K"`
	Candidates int    `yaml:"candidates" envconfig:"CANDIDATES"`
	Workers    int    `yaml:"workers" envconfig:"WORKERS"`
	Input      string `yaml:"input" envconfig:"INPUT"`
	Output     string `yaml:"output" envconfig:"OUTPUT"`
	Quiet      bool   `yaml:"quiet" envconfig:"QUIET"`
	Distance   string `yaml:"distance" envconfig:"DISTANCE"`

	// Format overrides the format inferred from the output name.
	Format string `yaml:"format" envconfig:"FORMAT"`

	MemoryLimit   int64 `yaml:"memory_limit" envconfig:"MEMORY_LIMIT"`
	IOLimit       int64 `yaml:"io_limit" envconfig:"IO_LIMIT"`
	MaxIterations int   `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	Elevate       bool  `yaml:"elevate" envconfig:"ELEVATE"`

	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	LogFormat   string `yaml:"log_format" envconfig:"LOG_FORMAT"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	S3Region   string `yaml:"s3_region" envconfig:"S3_REGION"`
	S3Endpoint string `yaml:"s3_endpoint" envconfig:"S3_ENDPOINT"`

	MinioEndpoint  string `yaml:"minio_endpoint" envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `yaml:"minio_access_key" envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `yaml:"minio_secret_key" envconfig:"MINIO_SECRET_KEY"`
	MinioSecure    bool   `yaml:"minio_secure" envconfig:"MINIO_SECURE"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		K:             2,
		Candidates:    0, // same as K
		Workers:       4,
		Distance:      "manhattan",
		MaxIterations: 0,
		Elevate:       true,
		LogFormat:     "text",
		LogLevel:      "info",
		MinioEndpoint: "localhost:9000",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// LoadEnv overlays KCOMBO_* variables onto cfg. envFiles are loaded first
// without overriding variables that are already set; missing files are
// ignored.
func LoadEnv(cfg *Config, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	return nil
}

// ValidateConfig validates the configuration and returns an error if invalid.
// The p <= n check needs the input and happens when the run starts.
func ValidateConfig(cfg *Config) error {
	if cfg.K <= 0 {
		return ErrInvalidK
	}
	if cfg.Candidates == 0 {
		cfg.Candidates = cfg.K
	}
	if cfg.Candidates < cfg.K {
		return fmt.Errorf("%w: %d < %d", ErrInvalidCandidates, cfg.Candidates, cfg.K)
	}
	if cfg.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if cfg.Input == "" {
		return ErrMissingInput
	}
	if _, err := distance.ParseMetric(cfg.Distance); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDistance, cfg.Distance)
	}
	if _, err := output.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.MemoryLimit < 0 {
		return ErrInvalidMemoryLimit
	}
	if cfg.IOLimit < 0 {
		return ErrInvalidIOLimit
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, ErrInvalidLogLevel
	}
}

// OutputFormat returns the explicit format or the one implied by the output name.
func (c *Config) OutputFormat() output.Format {
	if c.Format != "" {
		f, _ := output.ParseFormat(c.Format)
		return f
	}
	return output.FormatFromName(c.Output)
}
