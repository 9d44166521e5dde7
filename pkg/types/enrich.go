// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Status summarizes a row's outcome. A row is a Failure if and only if at
// least one enabled operation failed for its DOI; partial results are kept
// in the field variants, not reflected by a distinct status.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// Metadata is the outcome of a CrossRef fetch: either a present JSON payload
// or an absence reason. Sentinel text for absent values is produced at the
// output-writing boundary, never stored here.
type Metadata struct {
	Payload json.RawMessage `json:"payload,omitempty" yaml:"payload,omitempty"`
	Err     error           `json:"-" yaml:"-"`
}

// Present reports whether a payload was retrieved.
func (m Metadata) Present() bool { return m.Err == nil }

// Resolution is the outcome of a DOI resolution: either the final
// post-redirect URL or an absence reason.
type Resolution struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	Err error  `json:"-" yaml:"-"`
}

// Present reports whether the DOI resolved to a URL.
func (r Resolution) Present() bool { return r.Err == nil }

// RowResult is the outcome of processing one input row. Metadata is nil when
// retrieval is disabled, Resolution is nil when resolution is disabled; the
// set of non-nil fields is fixed for the whole run by the config.
type RowResult struct {
	DOI        string      `json:"doi" yaml:"doi"`
	Metadata   *Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Status     Status      `json:"status" yaml:"status"`
}
