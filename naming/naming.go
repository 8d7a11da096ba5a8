// Package naming builds and parses the file names used for entropy
// collection runs. The convention encodes everything needed to interpret a
// capture later:
//
//	YYYYMMDDTHHMMSS_{device}_s{bits}_i{interval}
//
// so a .bin or .csv file is self-describing and analysis tools do not need
// a side channel for the sample size or cadence.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Device identifies the entropy source a capture came from. Allowed values
// are "trng" (the hardware unit), "sim" (the simulated register file) and
// "pseudo" (software PRNG).
type Device string

const (
	DeviceTRNG   Device = "trng"
	DeviceSim    Device = "sim"
	DevicePseudo Device = "pseudo"
)

// Validate checks whether d is one of the allowed device identifiers.
func (d Device) Validate() error {
	switch d {
	case DeviceTRNG, DeviceSim, DevicePseudo:
		return nil
	}
	return fmt.Errorf("invalid device: %q (allowed: trng, sim, pseudo)", string(d))
}

const timestampLayout = "20060102T150405"

// BuildBaseName builds the base file name for a capture started at now,
// reading bits per sample every intervalSeconds.
func BuildBaseName(now time.Time, device Device, bits int, intervalSeconds int) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}
	if bits <= 0 {
		return "", errors.New("bits must be > 0")
	}
	if intervalSeconds <= 0 {
		return "", errors.New("intervalSeconds must be > 0")
	}
	return fmt.Sprintf("%s_%s_s%d_i%d", now.Format(timestampLayout), string(device), bits, intervalSeconds), nil
}

// BuildBinCSVPaths builds the .bin and .csv paths for a capture inside dir
// (dir may be empty for the current directory).
func BuildBinCSVPaths(dir string, now time.Time, device Device, bits int, intervalSeconds int) (binPath string, csvPath string, err error) {
	base, err := BuildBaseName(now, device, bits, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dir, base+".bin"), filepath.Join(dir, base+".csv"), nil
}

// Info is the metadata recovered from a capture file name.
type Info struct {
	Start           time.Time
	Device          Device
	Bits            int
	IntervalSeconds int
}

var baseNameRe = regexp.MustCompile(`(\d{8}T\d{6})_([a-z]+)_s(\d+)_i(\d+)`)

// Parse extracts capture metadata from a file path following the naming
// convention. The extension and any directory components are ignored.
func Parse(path string) (Info, error) {
	m := baseNameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Info{}, fmt.Errorf("file name does not follow the capture convention: %s", filepath.Base(path))
	}

	start, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return Info{}, fmt.Errorf("invalid timestamp in %q: %w", m[1], err)
	}
	dev := Device(m[2])
	if err := dev.Validate(); err != nil {
		return Info{}, err
	}
	bits, err := strconv.Atoi(m[3])
	if err != nil {
		return Info{}, err
	}
	interval, err := strconv.Atoi(m[4])
	if err != nil {
		return Info{}, err
	}
	return Info{Start: start, Device: dev, Bits: bits, IntervalSeconds: interval}, nil
}

// ParseBits extracts just the per-sample bit count from a capture path.
// Unlike Parse it tolerates file names that carry the _s/_i markers
// without the full convention.
func ParseBits(path string) (int, error) {
	re := regexp.MustCompile(`_s(\d+)_i`)
	m := re.FindStringSubmatch(path)
	if len(m) < 2 {
		return 0, fmt.Errorf("bit count not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}

// ParseInterval extracts just the sampling interval in seconds from a
// capture path.
func ParseInterval(path string) (int, error) {
	re := regexp.MustCompile(`_i(\d+)`)
	m := re.FindStringSubmatch(path)
	if len(m) < 2 {
		return 0, fmt.Errorf("interval not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}

// trimExt drops the extension from a path, if any.
func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// SiblingWithExt returns path with its extension replaced, e.g. the .xlsx
// report written next to a .bin capture.
func SiblingWithExt(path string, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return trimExt(path) + ext
}
