// Package config loads seacan's configuration.
//
// Configuration is read from a single YAML file named by the --config flag
// or, failing that, the SEACAN_CONFIG environment variable. There is no
// automatic discovery: without either, the defaults apply.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SEACAN_CONFIG"

// Config is seacan's configuration. Command line flags override it.
type Config struct {
	// Cargo is the cargo executable. Empty means look it up.
	Cargo string `yaml:"cargo"`

	// Workspace is the directory cargo runs in.
	Workspace string `yaml:"workspace"`

	// TargetDir overrides cargo's target directory.
	TargetDir string `yaml:"target_dir"`

	// Color is passed to cargo's --color: auto, always or never.
	Color string `yaml:"color"`

	Release bool `yaml:"release"`

	Introspect IntrospectConfig `yaml:"introspect"`

	History HistoryConfig `yaml:"history"`
}

// IntrospectConfig configures test listing.
type IntrospectConfig struct {
	// Parallelism is how many test binaries are listed at once.
	Parallelism int `yaml:"parallelism"`

	// Ignored marks #[ignore] tests with a second listing run.
	Ignored bool `yaml:"ignored"`
}

// HistoryConfig configures run recording.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir is where runs are recorded. Empty means .seacan/history under
	// the git repository root.
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Introspect: IntrospectConfig{
			Parallelism: 1,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads the file at path, or the file named by SEACAN_CONFIG when path
// is empty. With neither it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandVariables expands ${HOME} and similar in paths.
func (c *Config) expandVariables() {
	c.Cargo = os.ExpandEnv(c.Cargo)
	c.Workspace = os.ExpandEnv(c.Workspace)
	c.TargetDir = os.ExpandEnv(c.TargetDir)
	c.History.Dir = os.ExpandEnv(c.History.Dir)
}

// Validate checks field values.
func (c *Config) Validate() error {
	var errs []error
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("color must be auto, always or never, got %q", c.Color))
	}
	if c.Introspect.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("introspect.parallelism must be at least 1, got %d", c.Introspect.Parallelism))
	}
	return errors.Join(errs...)
}
