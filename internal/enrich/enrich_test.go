// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/doi-enrich/internal/csvio"
	"github.com/pdiddy/doi-enrich/pkg/types"
)

// newEndpointServer serves both endpoints: /works/... returns metadata for
// DOIs not listed in failFetch, /doi/... redirects to a landing page for
// DOIs not listed in failResolve.
func newEndpointServer(t *testing.T, failFetch, failResolve map[string]bool) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/works/"):
			doi := strings.TrimPrefix(r.URL.Path, "/works/")
			if failFetch[doi] {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintf(w, `{"message":{"DOI":%q}}`, doi)
		case strings.HasPrefix(r.URL.Path, "/doi/"):
			doi := strings.TrimPrefix(r.URL.Path, "/doi/")
			if failResolve[doi] {
				http.NotFound(w, r)
				return
			}
			http.Redirect(w, r, ts.URL+"/landing/"+doi, http.StatusFound)
		case strings.HasPrefix(r.URL.Path, "/landing/"):
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	return ts
}

func TestProcessRowBothSucceed(t *testing.T) {
	ts := newEndpointServer(t, nil, nil)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testConfig()
	cfg.Retrieve = true
	cfg.Resolve = true

	var buf bytes.Buffer
	res, ok := ProcessRow(context.Background(), ts.Client(), csvio.Row{"doi": "10.1000/xyz"}, cfg, &buf)
	if !ok {
		t.Fatal("expected a result")
	}
	if res.Status != types.StatusSuccess {
		t.Errorf("Status = %q, want Success", res.Status)
	}
	if res.Metadata == nil || !res.Metadata.Present() {
		t.Error("expected present metadata")
	}
	if res.Resolution == nil || !res.Resolution.Present() {
		t.Error("expected present resolution")
	}
	if !strings.HasSuffix(res.Resolution.URL, "/landing/10.1000/xyz") {
		t.Errorf("Resolution.URL = %q", res.Resolution.URL)
	}
	if !strings.Contains(buf.String(), "processing: 10.1000/xyz") {
		t.Error("output should contain the processing line")
	}
}

func TestProcessRowPartialFailureIsFailure(t *testing.T) {
	tests := []struct {
		name        string
		failFetch   bool
		failResolve bool
	}{
		{"fetch fails", true, false},
		{"resolve fails", false, true},
		{"both fail", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failFetch := map[string]bool{}
			failResolve := map[string]bool{}
			if tt.failFetch {
				failFetch["10.1000/xyz"] = true
			}
			if tt.failResolve {
				failResolve["10.1000/xyz"] = true
			}
			ts := newEndpointServer(t, failFetch, failResolve)
			defer ts.Close()
			restore := overrideBaseURLs(ts.URL)
			defer restore()

			cfg := testConfig()
			cfg.Retrieve = true
			cfg.Resolve = true

			var buf bytes.Buffer
			res, ok := ProcessRow(context.Background(), ts.Client(), csvio.Row{"doi": "10.1000/xyz"}, cfg, &buf)
			if !ok {
				t.Fatal("expected a result")
			}
			if res.Status != types.StatusFailure {
				t.Errorf("Status = %q, want Failure", res.Status)
			}
			if res.Metadata.Present() == tt.failFetch {
				t.Errorf("Metadata.Present() = %v with failFetch=%v", res.Metadata.Present(), tt.failFetch)
			}
			if res.Resolution.Present() == tt.failResolve {
				t.Errorf("Resolution.Present() = %v with failResolve=%v", res.Resolution.Present(), tt.failResolve)
			}
			if !strings.Contains(buf.String(), "warning:") {
				t.Error("output should contain a warning line")
			}
		})
	}
}

func TestProcessRowDisabledOperationsLeftNil(t *testing.T) {
	ts := newEndpointServer(t, nil, nil)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testConfig()
	cfg.Retrieve = true

	var buf bytes.Buffer
	res, ok := ProcessRow(context.Background(), ts.Client(), csvio.Row{"doi": "10.1000/xyz"}, cfg, &buf)
	if !ok {
		t.Fatal("expected a result")
	}
	if res.Metadata == nil {
		t.Error("Metadata should be set when retrieval is enabled")
	}
	if res.Resolution != nil {
		t.Error("Resolution should be nil when resolution is disabled")
	}
}

func TestProcessRowMissingDOI(t *testing.T) {
	cfg := testConfig()
	cfg.Retrieve = true

	var buf bytes.Buffer
	_, ok := ProcessRow(context.Background(), http.DefaultClient, csvio.Row{"doi": "  "}, cfg, &buf)
	if ok {
		t.Fatal("expected the row to be skipped")
	}
	if !strings.Contains(buf.String(), "warning: row without DOI") {
		t.Errorf("output = %q, want a missing-DOI warning", buf.String())
	}
}

func TestRunWritesRowsAndSummary(t *testing.T) {
	ts := newEndpointServer(t, map[string]bool{"10.1000/bad": true}, nil)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testConfig()
	cfg.Retrieve = true

	rows := []csvio.Row{
		{"doi": "10.1000/good"},
		{"doi": ""}, // skipped
		{"doi": "10.1000/bad"},
	}

	var out bytes.Buffer
	sink, err := csvio.NewWriter(&out, cfg.Retrieve, cfg.Resolve)
	if err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	result, err := Run(context.Background(), ts.Client(), rows, cfg, []RowSink{sink}, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Succeeded != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1/1/1", result)
	}
	if result.Total() != 3 {
		t.Errorf("Total = %d, want 3", result.Total())
	}

	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Header + two data rows; the skipped row produced no output.
	if len(records) != 3 {
		t.Fatalf("output rows = %d, want 3", len(records))
	}
	if records[1][0] != "10.1000/good" || records[1][2] != "Success" {
		t.Errorf("first data row = %v", records[1])
	}
	if records[2][0] != "10.1000/bad" || records[2][1] != csvio.NoDataPlaceholder || records[2][2] != "Failure" {
		t.Errorf("second data row = %v", records[2])
	}
	if !strings.Contains(log.String(), "Batch summary: 1 succeeded, 1 failed, 1 skipped") {
		t.Errorf("log = %q, want summary line", log.String())
	}
}

// failingSink always errors, standing in for an unwritable output file.
type failingSink struct{}

func (failingSink) WriteRow(types.RowResult) error {
	return fmt.Errorf("disk full")
}

func TestRunSinkErrorIsFatal(t *testing.T) {
	ts := newEndpointServer(t, nil, nil)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testConfig()
	cfg.Resolve = true

	var log bytes.Buffer
	rows := []csvio.Row{{"doi": "10.1000/a"}, {"doi": "10.1000/b"}}
	_, err := Run(context.Background(), ts.Client(), rows, cfg, []RowSink{failingSink{}}, &log)
	if err == nil {
		t.Fatal("expected a fatal error from the sink")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v", err)
	}
}

// recordingSink collects results so tests can inspect what Run emitted.
type recordingSink struct {
	rows []types.RowResult
}

func (s *recordingSink) WriteRow(r types.RowResult) error {
	s.rows = append(s.rows, r)
	return nil
}

func TestRunFansOutToAllSinks(t *testing.T) {
	ts := newEndpointServer(t, nil, nil)
	defer ts.Close()
	restore := overrideBaseURLs(ts.URL)
	defer restore()

	cfg := testConfig()
	cfg.Resolve = true

	a := &recordingSink{}
	b := &recordingSink{}
	var log bytes.Buffer
	rows := []csvio.Row{{"doi": "10.1000/a"}, {"doi": "10.1000/b"}}
	result, err := Run(context.Background(), ts.Client(), rows, cfg, []RowSink{a, b}, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", result.Succeeded)
	}
	if len(a.rows) != 2 || len(b.rows) != 2 {
		t.Errorf("sink rows = %d/%d, want 2/2", len(a.rows), len(b.rows))
	}
	if a.rows[0].DOI != "10.1000/a" || a.rows[1].DOI != "10.1000/b" {
		t.Errorf("rows out of order: %v", a.rows)
	}
}

func TestUseDelay(t *testing.T) {
	cfg := testConfig()
	cfg.RequestDelay = 1
	if !cfg.UseDelay() {
		t.Error("UseDelay should be true with a delay and no API key")
	}
	cfg.APIKey = "token"
	if cfg.UseDelay() {
		t.Error("UseDelay should be false once an API key is set")
	}
	cfg.APIKey = ""
	cfg.RequestDelay = 0
	if cfg.UseDelay() {
		t.Error("UseDelay should be false with a zero delay")
	}
}
