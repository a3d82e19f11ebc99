package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides random number streams for resampling.
// Tests inject a seeded implementation so bootstrap intervals are reproducible;
// production defaults to a cryptographically seeded source.
type RNGPort interface {
	// Stream returns an independent generator for a named operation.
	// The returned *rand.Rand is not safe for concurrent use.
	Stream(ctx context.Context, name string) (*rand.Rand, error)
}
