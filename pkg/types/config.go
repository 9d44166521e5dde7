package types

import "time"

// HTTPConfig holds shared HTTP settings for the network operations.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "doi-enrich/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EnrichConfig holds settings for an enrichment run. It is constructed once
// by the CLI and is immutable for the run's duration.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// Retrieve enables the CrossRef metadata fetch for each DOI.
	Retrieve bool `json:"retrieve" yaml:"retrieve"`

	// Resolve enables redirect-following DOI resolution for each DOI.
	Resolve bool `json:"resolve" yaml:"resolve"`

	// APIKey is an optional CrossRef Plus token sent as
	// "Crossref-Plus-API-Token: Bearer <key>".
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the pause between consecutive rows (default 1s).
	// Applied only when no API key is configured; see UseDelay.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// SampleSize limits the run to a random subset of input rows.
	// Zero or negative means all rows.
	SampleSize int `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`

	// MaxRetries is the number of retry attempts after a transient
	// HTTP failure (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the base for exponential retry backoff; attempt n
	// waits RetryBaseDelay * 2^n (default 100ms).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// UseDelay reports whether inter-row pacing applies. Authenticated requests
// are assumed to have higher quota, so a configured API key disables the
// pause even when RequestDelay is set explicitly.
func (c EnrichConfig) UseDelay() bool {
	return c.APIKey == "" && c.RequestDelay > 0
}
