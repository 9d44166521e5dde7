// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/doi-enrich/internal/httputil"
	"github.com/pdiddy/doi-enrich/pkg/types"
)

// ResolveError reports a failed DOI resolution after retries were exhausted
// or a final non-200 status.
type ResolveError struct {
	DOI string
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.DOI, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ResolveDOI issues a HEAD request to the doi.org resolver and returns the
// final post-redirect URL. The HTTP client follows redirects; only a final
// 200 counts as resolved. Transient failures are retried per cfg.
func ResolveDOI(ctx context.Context, client *http.Client, doi string, cfg types.EnrichConfig) (string, error) {
	req, err := http.NewRequest(http.MethodHead, doiBase+doi, nil)
	if err != nil {
		return "", &ResolveError{DOI: doi, Err: fmt.Errorf("creating request: %w", err)}
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, retryPolicy(cfg))
	if err != nil {
		return "", &ResolveError{DOI: doi, Err: fmt.Errorf("resolver request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ResolveError{DOI: doi, Err: fmt.Errorf("resolver returned HTTP %d", resp.StatusCode)}
	}

	// resp.Request reflects the last request in the redirect chain.
	return resp.Request.URL.String(), nil
}
