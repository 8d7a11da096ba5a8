package uartlink

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Protocol opcodes. Responses echo the request opcode in lower case.
const (
	cmdRead  byte = 'R'
	cmdWrite byte = 'W'
	ackRead  byte = 'r'
	ackWrite byte = 'w'
)

// DefaultBaudRate is the NEORV32 debug/bootloader UART default.
const DefaultBaudRate = 19200

// exchangeTimeout bounds a full request/response exchange. A register
// access is a handful of bytes, so anything slower than this means the
// link is gone.
const exchangeTimeout = 2 * time.Second

// Link is a register bus over a serial debug bridge.
type Link struct {
	port serial.Port
	err  error
}

// Open opens the named serial port and returns a register link over it.
// baud 0 selects DefaultBaudRate.
func Open(portName string, baud int) (*Link, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}

	_ = port.SetDTR(true)
	_ = port.SetReadTimeout(100 * time.Millisecond)
	// drop whatever the bridge buffered before we attached
	if err := port.ResetInputBuffer(); err != nil {
		// not fatal, proceed
	}
	return &Link{port: port}, nil
}

// OpenDetected locates the first serial port that looks like a NEORV32
// debug bridge and opens it. baud 0 selects DefaultBaudRate.
func OpenDetected(baud int) (*Link, error) {
	portName, err := FindPort()
	if err != nil {
		return nil, err
	}
	return Open(portName, baud)
}

// NewFromPort wraps an already configured serial port. Mostly useful for
// testing the protocol against a scripted port.
func NewFromPort(port serial.Port) *Link {
	return &Link{port: port}
}

// Close releases the serial port.
func (l *Link) Close() error {
	if l == nil || l.port == nil {
		return nil
	}
	return l.port.Close()
}

// Err returns the first transport error seen since the last ClearErr.
// Register operations themselves never fail; a broken link just reads
// zeros, so callers doing anything important should check Err afterwards.
func (l *Link) Err() error { return l.err }

// ClearErr discards the recorded transport error.
func (l *Link) ClearErr() { l.err = nil }

// Read32 implements trng.Bus. On a transport fault it records the error
// and returns zero.
func (l *Link) Read32(addr uint32) uint32 {
	var req [5]byte
	req[0] = cmdRead
	binary.LittleEndian.PutUint32(req[1:], addr)

	var resp [5]byte
	if err := l.exchange(req[:], resp[:]); err != nil {
		l.fail(fmt.Errorf("read reg 0x%08X: %w", addr, err))
		return 0
	}
	if resp[0] != ackRead {
		l.fail(fmt.Errorf("read reg 0x%08X: bad ack 0x%02X", addr, resp[0]))
		return 0
	}
	return binary.LittleEndian.Uint32(resp[1:])
}

// Write32 implements trng.Bus. On a transport fault it records the error;
// the write is lost, which is indistinguishable from writing to a missing
// peripheral.
func (l *Link) Write32(addr uint32, v uint32) {
	var req [9]byte
	req[0] = cmdWrite
	binary.LittleEndian.PutUint32(req[1:], addr)
	binary.LittleEndian.PutUint32(req[5:], v)

	var resp [1]byte
	if err := l.exchange(req[:], resp[:]); err != nil {
		l.fail(fmt.Errorf("write reg 0x%08X: %w", addr, err))
		return
	}
	if resp[0] != ackWrite {
		l.fail(fmt.Errorf("write reg 0x%08X: bad ack 0x%02X", addr, resp[0]))
	}
}

// exchange sends a request frame and fills resp with the full response.
func (l *Link) exchange(req, resp []byte) error {
	if l.err != nil {
		// once faulted, stop driving the wire until the caller
		// acknowledges via ClearErr
		return l.err
	}
	if _, err := l.port.Write(req); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return l.readFull(resp)
}

// readFull reads until buf is filled or the exchange deadline passes.
// Serial reads come back in arbitrary chunks, so loop and accumulate.
func (l *Link) readFull(buf []byte) error {
	total := 0
	deadline := time.Now().Add(exchangeTimeout)
	for total < len(buf) {
		if time.Now().After(deadline) {
			return fmt.Errorf("response timeout: got %d/%d bytes", total, len(buf))
		}
		n, err := l.port.Read(buf[total:])
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		total += n
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	return nil
}

func (l *Link) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}
