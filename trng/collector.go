package trng

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryPause is slept between failed polls so a not-ready unit does not
// spin a host core. Register reads over a debug link are slow enough that
// the pause is rarely the bottleneck.
const retryPause = time.Millisecond

// ReadByte polls Get until a byte is ready or ctx is done. Use a context
// with a deadline when talking to hardware that may never produce data
// (e.g. a unit that was not enabled).
func (d *Device) ReadByte(ctx context.Context) (byte, error) {
	for {
		b, err := d.Get()
		if err == nil {
			return b, nil
		}
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("waiting for random byte: %w", ctx.Err())
		case <-time.After(retryPause):
		}
	}
}

// ReadBytes fills and returns a buffer of n random bytes, polling the
// device for each one.
func (d *Device) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := d.ReadByte(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %d/%d bytes: %w", i, n, err)
		}
		buf[i] = b
	}
	return buf, nil
}

// ReadBits reads bitCount random bits and returns them packed MSB-first in
// each byte. The unused trailing bits of the final byte are zeroed.
func (d *Device) ReadBits(ctx context.Context, bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	byteCount := (bitCount + 7) / 8
	data, err := d.ReadBytes(ctx, byteCount)
	if err != nil {
		return nil, err
	}
	extraBits := (8 - (bitCount % 8)) % 8
	if extraBits != 0 {
		mask := byte(0xFF << extraBits)
		data[len(data)-1] &= mask
	}
	return data, nil
}

// CollectBitsAtInterval reads bitCount bits every interval, invoking
// onBatch with the bytes each time. The first read happens immediately.
// It runs until ctx is cancelled or a read fails; the error is returned.
func (d *Device) CollectBitsAtInterval(ctx context.Context, bitCount int, interval time.Duration, onBatch func([]byte)) error {
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

		b, err := d.ReadBits(ctx, bitCount)
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
