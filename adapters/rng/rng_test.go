package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/ports"
)

var _ ports.RNGPort = (*Adapter)(nil)

func draw(t *testing.T, a *Adapter, name string) []int {
	t.Helper()
	r, err := a.Stream(context.Background(), name)
	require.NoError(t, err)
	out := make([]int, 16)
	for i := range out {
		out[i] = r.Intn(1000)
	}
	return out
}

func TestSeededStreamsReplay(t *testing.T) {
	a := Seeded(42)
	assert.Equal(t, draw(t, a, "bootstrap"), draw(t, a, "bootstrap"))
	assert.Equal(t, draw(t, a, "bootstrap"), draw(t, Seeded(42), "bootstrap"))
	assert.NotEqual(t, draw(t, a, "bootstrap"), draw(t, a, "permutation"))
	assert.NotEqual(t, draw(t, a, "bootstrap"), draw(t, Seeded(43), "bootstrap"))
}

func TestSecureStreamsDiffer(t *testing.T) {
	a := Secure()
	assert.True(t, a.IsSecure())
	assert.NotEqual(t, draw(t, a, "bootstrap"), draw(t, a, "bootstrap"))

	r, err := a.Stream(context.Background(), "x")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		v := r.Float64()
		assert.True(t, v >= 0 && v < 1)
	}
}

func TestFromSeed(t *testing.T) {
	assert.True(t, FromSeed(0).IsSecure())
	assert.False(t, FromSeed(7).IsSecure())
}

func TestStreamHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Seeded(1).Stream(ctx, "bootstrap")
	assert.ErrorIs(t, err, context.Canceled)
}
