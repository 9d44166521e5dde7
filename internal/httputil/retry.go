// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the enrichment operations.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryPolicy controls retry behavior for transient HTTP failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero or negative selects the default (3).
	MaxRetries int

	// BaseDelay is the backoff base; attempt n waits BaseDelay * 2^n.
	// Zero or negative selects the default (100ms).
	BaseDelay time.Duration
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 100 * time.Millisecond
)

// Transient reports whether an HTTP status is worth retrying: rate limiting
// (429) and server-side errors (5xx). Client errors such as 404 are final.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request and retries transient failures with
// exponential backoff. Transport-level errors and Transient statuses are
// retried; any other response is returned immediately.
//
// The delay for attempt n is BaseDelay * 2^n: 100ms, 200ms, 400ms, 800ms
// with the defaults. Before each retry the previous response body is drained
// and closed. If the context is cancelled during a backoff wait the function
// returns ctx.Err(). After exhausting retries the last response (or last
// transport error) is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	maxRetries := policy.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := policy.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err == nil && !Transient(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries — surface the last outcome as-is.
		if attempt >= maxRetries {
			return resp, err
		}

		// Drain and close the body before retrying.
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
