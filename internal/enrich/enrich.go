// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich implements the per-DOI retrieval pipeline: an optional
// CrossRef metadata fetch and an optional redirect-following resolution per
// input row, with per-row failure containment and incremental result output.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/doi-enrich/internal/csvio"
	"github.com/pdiddy/doi-enrich/pkg/types"
)

// RowSink receives one result per processed row. The CSV writer and the
// optional SQLite store both implement it.
type RowSink interface {
	WriteRow(types.RowResult) error
}

// BatchResult holds the outcome of an enrichment run.
type BatchResult struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Processed returns the number of rows that produced an output record.
func (r BatchResult) Processed() int {
	return r.Succeeded + r.Failed
}

// Total returns the total number of input rows seen.
func (r BatchResult) Total() int {
	return r.Processed() + r.Skipped
}

// ProcessRow runs the enabled operations for one input row. The second
// return value is false when the row has no usable DOI; such rows produce no
// output record, only a warning line. Operation failures never abort the
// row: each failed operation leaves an absent field variant and flips the
// status to Failure.
func ProcessRow(ctx context.Context, client *http.Client, row csvio.Row, cfg types.EnrichConfig, w io.Writer) (types.RowResult, bool) {
	doi := row.DOI()
	if doi == "" {
		fmt.Fprintln(w, "warning: row without DOI, skipping")
		return types.RowResult{}, false
	}

	fmt.Fprintf(w, "processing: %s\n", doi)
	res := types.RowResult{DOI: doi, Status: types.StatusSuccess}

	if cfg.Retrieve {
		payload, err := FetchMetadata(ctx, client, doi, cfg)
		if err != nil {
			res.Metadata = &types.Metadata{Err: err}
			res.Status = types.StatusFailure
			fmt.Fprintf(w, "  warning: metadata fetch failed: %v\n", err)
		} else {
			res.Metadata = &types.Metadata{Payload: payload}
			fmt.Fprintf(w, "  retrieved metadata for %s\n", doi)
		}
	}

	if cfg.Resolve {
		url, err := ResolveDOI(ctx, client, doi, cfg)
		if err != nil {
			res.Resolution = &types.Resolution{Err: err}
			res.Status = types.StatusFailure
			fmt.Fprintf(w, "  warning: resolution failed: %v\n", err)
		} else {
			res.Resolution = &types.Resolution{URL: url}
			fmt.Fprintf(w, "  resolved %s to %s\n", doi, url)
		}
	}

	return res, true
}

// Run processes rows strictly in sequence, appending each result to every
// sink before the next row starts. Per-DOI failures are contained and
// counted; only a sink write error (the output file or database becoming
// unwritable) aborts the run. Pacing sleeps cfg.RequestDelay between rows
// when cfg.UseDelay() holds.
func Run(ctx context.Context, client *http.Client, rows []csvio.Row, cfg types.EnrichConfig, sinks []RowSink, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for i, row := range rows {
		if i > 0 && cfg.UseDelay() {
			time.Sleep(cfg.RequestDelay)
		}

		res, ok := ProcessRow(ctx, client, row, cfg, w)
		if !ok {
			result.Skipped++
			continue
		}

		for _, sink := range sinks {
			if err := sink.WriteRow(res); err != nil {
				return result, fmt.Errorf("writing result for %s: %w", res.DOI, err)
			}
		}

		if res.Status == types.StatusFailure {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed, %d skipped (total: %d)\n",
		result.Succeeded, result.Failed, result.Skipped, result.Total())
	return result, nil
}
