package uartlink

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.bug.st/serial"
)

// fakePort is a scripted serial.Port: it records everything written and
// serves reads chunk by chunk from a canned script. A nil chunk produces a
// timeout-style empty read.
type fakePort struct {
	written []byte
	chunks  [][]byte
	readErr error
	closed  bool
}

func respond(chunks ...[]byte) *fakePort {
	return &fakePort{chunks: chunks}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.chunks) == 0 {
		return 0, nil // timeout-style empty read
	}
	chunk := f.chunks[0]
	n := copy(p, chunk)
	if n == len(chunk) {
		f.chunks = f.chunks[1:]
	} else {
		f.chunks[0] = chunk[n:]
	}
	return n, nil
}

func (f *fakePort) Close() error                                 { f.closed = true; return nil }
func (f *fakePort) SetMode(*serial.Mode) error                   { return nil }
func (f *fakePort) Drain() error                                 { return nil }
func (f *fakePort) ResetInputBuffer() error                      { return nil }
func (f *fakePort) ResetOutputBuffer() error                     { return nil }
func (f *fakePort) SetDTR(bool) error                            { return nil }
func (f *fakePort) SetRTS(bool) error                            { return nil }
func (f *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (f *fakePort) SetReadTimeout(time.Duration) error           { return nil }
func (f *fakePort) Break(time.Duration) error                    { return nil }

func TestRead32Framing(t *testing.T) {
	port := respond([]byte{'r', 0x78, 0x56, 0x34, 0x12})
	link := NewFromPort(port)

	v := link.Read32(0xFFFFFFB8)
	require.NoError(t, link.Err())
	assert.Equal(t, uint32(0x12345678), v)
	assert.Equal(t, []byte{'R', 0xB8, 0xFF, 0xFF, 0xFF}, port.written)
}

func TestRead32SplitResponse(t *testing.T) {
	// response arrives in three chunks with an empty read in between;
	// readFull must accumulate
	port := respond([]byte{'r', 0xAA}, nil, []byte{0x00, 0x00}, []byte{0x00})
	link := NewFromPort(port)

	v := link.Read32(0)
	require.NoError(t, link.Err())
	assert.Equal(t, uint32(0xAA), v)
}

func TestWrite32Framing(t *testing.T) {
	port := respond([]byte{'w'})
	link := NewFromPort(port)

	link.Write32(0xFFFFFFB8, 0x40000000)
	require.NoError(t, link.Err())
	assert.Equal(t,
		[]byte{'W', 0xB8, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x40},
		port.written)
}

func TestBadAckRecordsError(t *testing.T) {
	port := respond([]byte{'x', 0, 0, 0, 0})
	link := NewFromPort(port)

	v := link.Read32(0)
	assert.Zero(t, v)
	assert.Error(t, link.Err())
}

func TestTransportErrorReadsZero(t *testing.T) {
	port := &fakePort{readErr: io.ErrClosedPipe}
	link := NewFromPort(port)

	assert.Zero(t, link.Read32(0xFFFFFFB8))
	require.Error(t, link.Err())
	assert.True(t, errors.Is(link.Err(), io.ErrClosedPipe))
}

func TestFaultedLinkStopsDrivingTheWire(t *testing.T) {
	port := &fakePort{readErr: io.ErrClosedPipe}
	link := NewFromPort(port)

	_ = link.Read32(0)
	writtenAfterFault := len(port.written)
	_ = link.Read32(0)
	link.Write32(0, 1)
	assert.Equal(t, writtenAfterFault, len(port.written))

	// recovery path: clearing the error resumes traffic
	port.readErr = nil
	port.chunks = [][]byte{{'r', 1, 0, 0, 0}}
	link.ClearErr()
	assert.Equal(t, uint32(1), link.Read32(0))
	require.NoError(t, link.Err())
}

func TestCloseNilSafe(t *testing.T) {
	var link *Link
	assert.NoError(t, link.Close())

	port := &fakePort{}
	link = NewFromPort(port)
	assert.NoError(t, link.Close())
	assert.True(t, port.closed)
}
