// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doi-enrich/pkg/types"
)

// RunFile is the on-disk summary of an enrichment run: the configuration
// that produced it (minus the API key) and the outcome counts.
type RunFile struct {
	Config  RunConfig  `yaml:"config"`
	Summary RunSummary `yaml:"summary"`
}

// RunConfig echoes the run settings in a serializable form.
type RunConfig struct {
	Retrieve     bool   `yaml:"retrieve"`
	Resolve      bool   `yaml:"resolve"`
	UserAgent    string `yaml:"user_agent,omitempty"`
	SampleSize   int    `yaml:"sample_size,omitempty"`
	RequestDelay string `yaml:"request_delay"`
	MaxRetries   int    `yaml:"max_retries"`
}

// RunSummary stores the outcome counts and a timestamp.
type RunSummary struct {
	Succeeded int       `yaml:"succeeded"`
	Failed    int       `yaml:"failed"`
	Skipped   int       `yaml:"skipped"`
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteRunFile saves the run configuration and summary to a YAML file. The
// API key is deliberately not written.
func WriteRunFile(path string, cfg types.EnrichConfig, result BatchResult) error {
	rf := RunFile{
		Config: RunConfig{
			Retrieve:     cfg.Retrieve,
			Resolve:      cfg.Resolve,
			UserAgent:    cfg.UserAgent,
			SampleSize:   cfg.SampleSize,
			RequestDelay: cfg.RequestDelay.String(),
			MaxRetries:   cfg.MaxRetries,
		},
		Summary: RunSummary{
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Skipped:   result.Skipped,
			Total:     result.Total(),
			Timestamp: time.Now(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously written run summary from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}
