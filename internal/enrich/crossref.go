// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/doi-enrich/internal/httputil"
	"github.com/pdiddy/doi-enrich/pkg/types"
)

// Base URLs for the metadata and resolution endpoints. Declared as vars so
// tests can substitute httptest servers.
var (
	crossrefAPIBase = "https://api.crossref.org/works/"
	doiBase         = "https://doi.org/"
)

// FetchError reports a failed metadata fetch after retries were exhausted.
// The caller treats it as "no metadata available" for the DOI, not as a
// reason to abort the run.
type FetchError struct {
	DOI string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching metadata for %s: %v", e.DOI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchMetadata retrieves the CrossRef work record for a DOI and returns the
// compacted JSON body. The DOI is inserted into the endpoint URL verbatim;
// reserved characters may make the request fail, which surfaces like any
// other fetch failure. Transient failures are retried per cfg before the
// final outcome is reported.
func FetchMetadata(ctx context.Context, client *http.Client, doi string, cfg types.EnrichConfig) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodGet, crossrefAPIBase+doi, nil)
	if err != nil {
		return nil, &FetchError{DOI: doi, Err: fmt.Errorf("creating request: %w", err)}
	}
	if cfg.APIKey != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+cfg.APIKey)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, retryPolicy(cfg))
	if err != nil {
		return nil, &FetchError{DOI: doi, Err: fmt.Errorf("CrossRef API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{DOI: doi, Err: fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{DOI: doi, Err: fmt.Errorf("reading response body: %w", err)}
	}

	// Compact so the payload fits one output cell; this also rejects
	// malformed bodies.
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, &FetchError{DOI: doi, Err: fmt.Errorf("parsing CrossRef response: %w", err)}
	}
	return json.RawMessage(buf.Bytes()), nil
}

func retryPolicy(cfg types.EnrichConfig) httputil.RetryPolicy {
	return httputil.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
	}
}
