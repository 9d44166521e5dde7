// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"math/rand/v2"

	"github.com/pdiddy/doi-enrich/internal/csvio"
)

// Sample returns a uniformly random subset of exactly n rows drawn without
// replacement. When n is zero, negative, or at least len(rows), the input is
// returned unchanged in its original order. The order of a proper sample is
// unspecified.
func Sample(rows []csvio.Row, n int, rng *rand.Rand) []csvio.Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	sampled := make([]csvio.Row, 0, n)
	for _, i := range rng.Perm(len(rows))[:n] {
		sampled = append(sampled, rows[i])
	}
	return sampled
}
