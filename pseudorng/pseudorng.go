// Package pseudorng is the software stand-in entropy source for hosts with
// no TRNG hardware attached. It generates data with a ChaCha8 stream
// seeded from crypto/rand, or from a caller-provided seed when a
// reproducible stream is wanted. The collection surface mirrors the
// hardware driver's so the CLIs can treat both sources uniformly.
package pseudorng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"time"
)

// Detect always reports true: software randomness has no device to go
// missing.
func Detect() (bool, error) { return true, nil }

// Source is a seedable pseudorandom byte stream.
type Source struct {
	c *mrand.ChaCha8
}

// New creates a pseudorandom source. A zero seed draws seed material from
// crypto/rand; any other value gives a deterministic, reproducible stream.
func New(seed uint64) (*Source, error) {
	var key [32]byte
	if seed == 0 {
		if _, err := crand.Read(key[:]); err != nil {
			return nil, fmt.Errorf("seeding from crypto/rand: %w", err)
		}
	} else {
		// spread the 64-bit seed across the whole key
		for i := 0; i < len(key); i += 8 {
			binary.LittleEndian.PutUint64(key[i:], seed)
			seed = seed*0x9E3779B97F4A7C15 + 1
		}
	}
	return &Source{c: mrand.NewChaCha8(key)}, nil
}

// ReadBytes fills and returns a buffer of n pseudorandom bytes.
func (s *Source) ReadBytes(n int) ([]byte, error) {
	if s == nil || s.c == nil {
		return nil, errors.New("source is nil")
	}
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}
	buf := make([]byte, n)
	if _, err := s.c.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBits returns bitCount pseudorandom bits packed MSB-first per byte.
// The unused trailing bits of the final byte are zeroed.
func (s *Source) ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf, err := s.ReadBytes((bitCount + 7) / 8)
	if err != nil {
		return nil, err
	}
	extraBits := (8 - (bitCount % 8)) % 8
	if extraBits != 0 {
		mask := byte(0xFF << extraBits)
		buf[len(buf)-1] &= mask
	}
	return buf, nil
}

// CollectBitsAtInterval generates bitCount bits every interval and calls
// onBatch. The first batch is produced immediately. Runs until ctx is
// cancelled; returns the cancellation cause or any generation error.
func (s *Source) CollectBitsAtInterval(ctx context.Context, bitCount int, interval time.Duration, onBatch func([]byte)) error {
	if bitCount <= 0 {
		return errors.New("bitCount must be positive")
	}
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	if onBatch == nil {
		return errors.New("onBatch callback must not be nil")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := s.ReadBits(bitCount)
		if err != nil {
			return err
		}
		onBatch(b)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReadBits is the package-level convenience over a fresh crypto-seeded
// source.
func ReadBits(bitCount int) ([]byte, error) {
	s, err := New(0)
	if err != nil {
		return nil, err
	}
	return s.ReadBits(bitCount)
}
