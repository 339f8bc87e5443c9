package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/resolver"
)

// Output formats understood by the order and plan commands.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPaths  []string // files or directories of pipeline manifests
	ComponentsPath string   // directory of component specs, optional

	Strict         bool
	TargetRegistry string
	VersionSuffix  string
	DryRun         bool
	OutputFormat   string

	// InputValues, JobStates and JobOutputs describe the orchestrator view
	// used by plan. JobOutputs keys have the form <job>.<output>.
	InputValues map[string]string
	JobStates   map[string]string
	JobOutputs  map[string]string

	LogFormat   string
	LogLevel    string
	WorkerCount int
	NoColor     bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ManifestPaths) == 0 {
		return nil, errors.New("at least one manifest path is required")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = FormatText
	}
	if cfg.OutputFormat != FormatText && cfg.OutputFormat != FormatYAML {
		return nil, fmt.Errorf("invalid output format %q: must be 'text' or 'yaml'", cfg.OutputFormat)
	}

	if _, err := cfg.jobStates(); err != nil {
		return nil, fmt.Errorf("invalid job state: %w", err)
	}
	for key := range cfg.JobOutputs {
		if !strings.Contains(key, ".") {
			return nil, fmt.Errorf("invalid job output %q: expected <job>.<output>", key)
		}
	}
	return &cfg, nil
}

// jobStates converts the configured job states.
func (c *Config) jobStates() (map[string]resolver.State, error) {
	states := make(map[string]resolver.State, len(c.JobStates))
	for job, s := range c.JobStates {
		state, err := resolver.ParseState(s)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job, err)
		}
		states[job] = state
	}
	return states, nil
}
