package bitstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountOnesFullBytes(t *testing.T) {
	assert.Equal(t, 0, CountOnes([]byte{0x00, 0x00}, 16))
	assert.Equal(t, 16, CountOnes([]byte{0xFF, 0xFF}, 16))
	assert.Equal(t, 8, CountOnes([]byte{0xF0, 0x0F}, 16))
}

func TestCountOnesPartialLastByte(t *testing.T) {
	// 12 bits: all of byte 0, top nibble of byte 1
	assert.Equal(t, 12, CountOnes([]byte{0xFF, 0xFF}, 12))
	assert.Equal(t, 8, CountOnes([]byte{0xFF, 0x0F}, 12))

	// 3 bits of a single byte, MSB-first
	assert.Equal(t, 3, CountOnes([]byte{0xE0}, 3))
	assert.Equal(t, 0, CountOnes([]byte{0x1F}, 3))
}

func TestCountOnesDegenerateInput(t *testing.T) {
	assert.Equal(t, 0, CountOnes(nil, 8))
	assert.Equal(t, 0, CountOnes([]byte{0xFF}, 0))
	assert.Equal(t, 0, CountOnes([]byte{0xFF}, -3))

	// bitCount larger than the buffer: count what is there
	assert.Equal(t, 8, CountOnes([]byte{0xFF}, 64))
}

func TestZTestBalancedSamples(t *testing.T) {
	rows := []Row{{Ones: 128}, {Ones: 128}, {Ones: 128}}
	rows = ZTest(rows, 256)
	for _, r := range rows {
		assert.InDelta(t, 128.0, r.CumulativeMean, 1e-9)
		assert.InDelta(t, 0.0, r.ZScore, 1e-9)
	}
}

func TestZTestBiasedSamples(t *testing.T) {
	// all-ones samples of 100 bits: mean 100, expected 50, sd 5
	rows := []Row{{Ones: 100}, {Ones: 100}, {Ones: 100}, {Ones: 100}}
	rows = ZTest(rows, 100)

	require.InDelta(t, 10.0, rows[0].ZScore, 1e-9)  // (100-50)/(5/1)
	require.InDelta(t, 20.0, rows[3].ZScore, 1e-9)  // (100-50)/(5/2)
	assert.InDelta(t, 100.0, rows[3].CumulativeMean, 1e-9)
}

func TestZTestZeroBlock(t *testing.T) {
	rows := []Row{{Ones: 1}}
	out := ZTest(rows, 0)
	assert.Zero(t, out[0].ZScore)
}
