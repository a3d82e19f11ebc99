package rng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Adapter implements ports.RNGPort. A seeded adapter derives every stream
// from the base seed and the stream name, so the same name always replays
// the same sequence. A secure adapter draws from crypto/rand.
type Adapter struct {
	seed   int64
	secure bool
}

// Seeded returns a deterministic adapter for reproducible resampling
func Seeded(seed int64) *Adapter {
	return &Adapter{seed: seed}
}

// Secure returns an adapter backed by the operating system's CSPRNG
func Secure() *Adapter {
	return &Adapter{secure: true}
}

// FromSeed picks Secure for a zero seed and Seeded otherwise
func FromSeed(seed int64) *Adapter {
	if seed == 0 {
		return Secure()
	}
	return Seeded(seed)
}

// IsSecure reports whether streams come from crypto/rand
func (a *Adapter) IsSecure() bool {
	return a.secure
}

// Stream returns an independent generator for a named operation
func (a *Adapter) Stream(ctx context.Context, name string) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.secure {
		return rand.New(cryptoSource{}), nil
	}
	seed := a.seed
	if name != "" {
		seed = int64(hashString(name)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

type cryptoSource struct{}

func (cryptoSource) Seed(int64) {}

func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
