// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csvio reads DOI input tables and appends enrichment results to a
// delimited output file. Absent result fields are serialized to their
// placeholder text here and nowhere else.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/doi-enrich/pkg/types"
)

// DOIColumn is the required input column holding the DOI.
const DOIColumn = "doi"

// Placeholder text written when an enabled operation produced no value.
const (
	NoDataPlaceholder     = "No data available"
	ResolutionPlaceholder = "Resolution failed"
)

// Row is one input record keyed by header column. Columns other than
// DOIColumn are carried but ignored.
type Row map[string]string

// DOI returns the row's trimmed DOI value, which may be empty.
func (r Row) DOI() string {
	return strings.TrimSpace(r[DOIColumn])
}

// ReadRows parses a delimited table with a required header row. The header
// must contain a DOI column (matched case-insensitively); its values are
// stored under DOIColumn regardless of the header's spelling.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	doiIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), DOIColumn) {
			doiIdx = i
			break
		}
	}
	if doiIdx < 0 {
		return nil, fmt.Errorf("input is missing required column %q", DOIColumn)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			if i == doiIdx {
				row[DOIColumn] = rec[i]
				continue
			}
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Writer appends one output row per processed DOI. The column set and order
// are fixed at construction: doi + (API_Response if retrieve) +
// (Resolved_URL if resolve) + Status. Every row is flushed as it is written,
// so the output is complete up to the last processed DOI if the run dies.
type Writer struct {
	cw       *csv.Writer
	retrieve bool
	resolve  bool
}

// NewWriter writes the header for the enabled operations and returns a
// Writer producing rows of exactly that shape.
func NewWriter(w io.Writer, retrieve, resolve bool) (*Writer, error) {
	cw := csv.NewWriter(w)
	header := []string{DOIColumn}
	if retrieve {
		header = append(header, "API_Response")
	}
	if resolve {
		header = append(header, "Resolved_URL")
	}
	header = append(header, "Status")
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flushing header: %w", err)
	}
	return &Writer{cw: cw, retrieve: retrieve, resolve: resolve}, nil
}

// WriteRow appends one result row and flushes it.
func (w *Writer) WriteRow(res types.RowResult) error {
	rec := []string{res.DOI}
	if w.retrieve {
		cell := NoDataPlaceholder
		if res.Metadata != nil && res.Metadata.Present() {
			cell = string(res.Metadata.Payload)
		}
		rec = append(rec, cell)
	}
	if w.resolve {
		cell := ResolutionPlaceholder
		if res.Resolution != nil && res.Resolution.Present() {
			cell = res.Resolution.URL
		}
		rec = append(rec, cell)
	}
	rec = append(rec, string(res.Status))

	if err := w.cw.Write(rec); err != nil {
		return fmt.Errorf("writing row for %s: %w", res.DOI, err)
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return fmt.Errorf("flushing row for %s: %w", res.DOI, err)
	}
	return nil
}
