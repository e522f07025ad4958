// Package config handles tgraph configuration from environment variables and
// optional YAML files.
//
// Configuration is built in three layers, later layers winning:
//  1. Built-in defaults (Default)
//  2. A YAML file (LoadFile), when one is given
//  3. TGRAPH_* environment variables (ApplyEnv)
//
// Example Usage:
//
//	cfg, err := config.Load("tgraph.yaml") // "" skips the file layer
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
// Environment Variables:
//   - TGRAPH_LOG_LEVEL="error" | "info" | "debug" | "trace"
//   - TGRAPH_LOG_OUTPUT="stderr" | "stdout"
//   - TGRAPH_INITIAL_CAPACITY=1024
//   - TGRAPH_VERIFY_ON_COMMIT=true
//   - TGRAPH_MAX_STAGED_OPERATIONS=0 (0 = unlimited)
//   - TGRAPH_METRICS_ENABLED=true
//   - TGRAPH_METRICS_NAMESPACE="tgraph"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all tgraph configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Graph   GraphConfig   `yaml:"graph"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (error, info, debug, trace)
	Level string `yaml:"level"`
	// Output (stderr, stdout)
	Output string `yaml:"output"`
}

// GraphConfig holds graph engine settings.
type GraphConfig struct {
	// InitialCapacity pre-sizes node storage
	InitialCapacity int `yaml:"initial_capacity"`
	// VerifyOnCommit re-checks the bidirectional link invariant before every
	// commit is published. Costs a full scan per commit.
	VerifyOnCommit bool `yaml:"verify_on_commit"`
	// MaxStagedOperations caps a single transaction's log (0 = unlimited)
	MaxStagedOperations int `yaml:"max_staged_operations"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
		Graph: GraphConfig{
			InitialCapacity: 64,
		},
		Metrics: MetricsConfig{
			Namespace: "tgraph",
		},
	}
}

// LoadFromEnv returns defaults overlaid with TGRAPH_* environment variables.
func LoadFromEnv() *Config {
	cfg := Default()
	cfg.ApplyEnv()
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty) over the
// defaults, then applies environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays TGRAPH_* environment variables onto c.
func (c *Config) ApplyEnv() {
	c.Logging.Level = strings.ToLower(getEnv("TGRAPH_LOG_LEVEL", c.Logging.Level))
	c.Logging.Output = strings.ToLower(getEnv("TGRAPH_LOG_OUTPUT", c.Logging.Output))

	c.Graph.InitialCapacity = getEnvInt("TGRAPH_INITIAL_CAPACITY", c.Graph.InitialCapacity)
	c.Graph.VerifyOnCommit = getEnvBool("TGRAPH_VERIFY_ON_COMMIT", c.Graph.VerifyOnCommit)
	c.Graph.MaxStagedOperations = getEnvInt("TGRAPH_MAX_STAGED_OPERATIONS", c.Graph.MaxStagedOperations)

	c.Metrics.Enabled = getEnvBool("TGRAPH_METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Namespace = getEnv("TGRAPH_METRICS_NAMESPACE", c.Metrics.Namespace)
}

// Verbosity maps the log level onto logr verbosity. "error" returns -1:
// only errors are logged.
func (c LoggingConfig) Verbosity() int {
	switch c.Level {
	case "error":
		return -1
	case "debug":
		return 1
	case "trace":
		return 2
	default:
		return 0
	}
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "error", "info", "debug", "trace":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Output {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Graph.InitialCapacity < 0 {
		return fmt.Errorf("invalid initial capacity: %d", c.Graph.InitialCapacity)
	}

	if c.Graph.MaxStagedOperations < 0 {
		return fmt.Errorf("invalid max staged operations: %d", c.Graph.MaxStagedOperations)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics enabled but no namespace provided")
	}

	return nil
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Log: %s/%s, Capacity: %d, Verify: %v, MaxOps: %d, Metrics: %v(%s)}",
		c.Logging.Level, c.Logging.Output,
		c.Graph.InitialCapacity, c.Graph.VerifyOnCommit, c.Graph.MaxStagedOperations,
		c.Metrics.Enabled, c.Metrics.Namespace,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
