package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var captureStart = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func TestBuildBaseName(t *testing.T) {
	base, err := BuildBaseName(captureStart, DeviceTRNG, 2048, 1)
	require.NoError(t, err)
	assert.Equal(t, "20250314T150926_trng_s2048_i1", base)
}

func TestBuildBaseNameRejectsBadInput(t *testing.T) {
	_, err := BuildBaseName(captureStart, Device("usb"), 2048, 1)
	assert.Error(t, err)
	_, err = BuildBaseName(captureStart, DeviceSim, 0, 1)
	assert.Error(t, err)
	_, err = BuildBaseName(captureStart, DeviceSim, 8, 0)
	assert.Error(t, err)
}

func TestBuildBinCSVPaths(t *testing.T) {
	bin, csv, err := BuildBinCSVPaths("data", captureStart, DevicePseudo, 512, 5)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "20250314T150926_pseudo_s512_i5.bin"), bin)
	assert.Equal(t, filepath.Join("data", "20250314T150926_pseudo_s512_i5.csv"), csv)
}

func TestParseRoundTrip(t *testing.T) {
	bin, _, err := BuildBinCSVPaths("out", captureStart, DeviceSim, 1024, 2)
	require.NoError(t, err)

	info, err := Parse(bin)
	require.NoError(t, err)
	assert.Equal(t, captureStart, info.Start)
	assert.Equal(t, DeviceSim, info.Device)
	assert.Equal(t, 1024, info.Bits)
	assert.Equal(t, 2, info.IntervalSeconds)
}

func TestParseRejectsForeignNames(t *testing.T) {
	_, err := Parse("random_bytes.bin")
	assert.Error(t, err)
	_, err = Parse("20250314T150926_usb_s8_i1.bin")
	assert.Error(t, err)
}

func TestParseBitsAndInterval(t *testing.T) {
	bits, err := ParseBits("x/20250314T150926_trng_s2048_i3.csv")
	require.NoError(t, err)
	assert.Equal(t, 2048, bits)

	interval, err := ParseInterval("x/20250314T150926_trng_s2048_i3.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, interval)

	_, err = ParseBits("nope.bin")
	assert.Error(t, err)
	_, err = ParseInterval("nope.bin")
	assert.Error(t, err)
}

func TestSiblingWithExt(t *testing.T) {
	assert.Equal(t, "a/b.xlsx", SiblingWithExt("a/b.bin", "xlsx"))
	assert.Equal(t, "a/b.xlsx", SiblingWithExt("a/b.csv", ".xlsx"))
}
