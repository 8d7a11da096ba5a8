// Package ftdilink drives the NEORV32 debug bridge through the raw FTDI
// USB endpoints with libusb, bypassing the operating system's serial
// driver. It speaks the same peek/poke register protocol as package
// uartlink and likewise implements trng.Bus.
//
// Going through libusb avoids the VCP driver's latency timer defaults and
// works on systems where no FTDI serial driver is bound at all. The price
// is that the device must be free (detached from the kernel driver), which
// gousb arranges automatically.
package ftdilink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// FTDI vendor ID and the product IDs of bridge chips found on NEORV32
// boards (FT232R, FT2232, FT232H, FT-X).
const ftdiVendorID = 0x0403

var bridgeProductIDs = []gousb.ID{0x6001, 0x6010, 0x6014, 0x6015}

// dualChannelPID marks the FT2232, the one listed bridge with two UART
// channels. Its control requests address a channel through the index word.
const dualChannelPID gousb.ID = 0x6010

// channelA is the FTDI index value for the first (and here only claimed)
// UART channel of a dual-channel chip.
const channelA uint16 = 1

// ftdi SIO requests (vendor-specific)
const (
	ftdiReqReset       = 0x00
	ftdiReqSetFlowCtrl = 0x02
	ftdiReqSetBaudRate = 0x03
	ftdiReqSetData     = 0x04
	ftdiReqSetLatency  = 0x09
	ftdiReqSetBitmode  = 0x0B
)

// ftdi reset values
const (
	ftdiResetSIO     = 0
	ftdiResetPurgeRX = 1
	ftdiResetPurgeTX = 2
)

// ftdi line properties: 8 data bits, no parity, 1 stop bit
const ftdiData8N1 = 0x0008

// ftdiBitmodeReset selects plain UART mode.
const ftdiBitmodeReset = 0x0000

// Protocol opcodes, shared with uartlink's wire format.
const (
	cmdRead  byte = 'R'
	cmdWrite byte = 'W'
	ackRead  byte = 'r'
	ackWrite byte = 'w'
)

// DefaultBaudRate matches the NEORV32 debug/bootloader UART default.
const DefaultBaudRate = 19200

// exchangeTimeout bounds a full register access round trip.
const exchangeTimeout = 2 * time.Second

// Session encapsulates an open FTDI bridge via gousb and acts as a
// register bus over it.
//
// Usage:
//
//	s, _ := ftdilink.Open(0, 1)
//	defer s.Close()
//	dev := trng.New(s, 0)
type Session struct {
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
	channel   uint16 // 0 on single-channel chips, channelA on the FT2232
	err       error
}

// Open claims the first FTDI bridge on the bus and configures it for the
// debug UART. baud 0 selects DefaultBaudRate; latencyMs 0 selects 1ms,
// the lowest the FTDI latency timer goes.
func Open(baud int, latencyMs uint8) (*Session, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if latencyMs == 0 {
		latencyMs = 1
	}

	ctx := gousb.NewContext()

	dev, err := openFirstBridge(ctx)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	_ = dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	// Find bulk endpoints (expect 1 IN, 1 OUT)
	var inEp *gousb.InEndpoint
	var outEp *gousb.OutEndpoint
	for _, ep := range intf.Setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionIn && ep.TransferType == gousb.TransferTypeBulk {
			inEp, err = intf.InEndpoint(ep.Number)
			if err != nil {
				intf.Close()
				cfg.Close()
				dev.Close()
				ctx.Close()
				return nil, err
			}
		}
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			outEp, err = intf.OutEndpoint(ep.Number)
			if err != nil {
				intf.Close()
				cfg.Close()
				dev.Close()
				ctx.Close()
				return nil, err
			}
		}
	}
	if inEp == nil || outEp == nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, errors.New("bulk endpoints not found")
	}

	s := &Session{ctx: ctx, dev: dev, cfg: cfg, intf: intf, inEp: inEp, outEp: outEp, maxPacket: int(inEp.Desc.MaxPacketSize)}
	if dev.Desc.Product == dualChannelPID {
		s.channel = channelA
	}

	// UART setup: reset, drop stale buffers, then line parameters
	if err := s.ftdiReset(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.purge(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.ftdiSetBaudRate(baud); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.ftdiSetLineProperties(ftdiData8N1); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.ftdiSetLatencyTimer(latencyMs); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.ftdiSetFlowControl(0); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.ftdiSetBitmode(ftdiBitmodeReset, 0); err != nil {
		s.Close()
		return nil, err
	}
	time.Sleep(50 * time.Millisecond)
	s.drainRead()

	return s, nil
}

func openFirstBridge(ctx *gousb.Context) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor != gousb.ID(ftdiVendorID) {
			return false
		}
		for _, pid := range bridgeProductIDs {
			if desc.Product == pid {
				return true
			}
		}
		return false
	})
	if len(devs) == 0 {
		if err != nil {
			return nil, fmt.Errorf("enumerating FTDI devices: %w", err)
		}
		return nil, errors.New("no FTDI bridge found")
	}
	// keep the first, release the rest
	for _, d := range devs[1:] {
		d.Close()
	}
	return devs[0], nil
}

// Close releases USB resources.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.intf != nil {
		s.intf.Close()
	}
	if s.cfg != nil {
		s.cfg.Close()
	}
	if s.dev != nil {
		s.dev.Close()
	}
	if s.ctx != nil {
		s.ctx.Close()
	}
}

// Err returns the first transport error seen since the last ClearErr.
func (s *Session) Err() error { return s.err }

// ClearErr discards the recorded transport error.
func (s *Session) ClearErr() { s.err = nil }

// Read32 implements trng.Bus. Faults are recorded and read back as zero,
// like a read from a missing peripheral.
func (s *Session) Read32(addr uint32) uint32 {
	var req [5]byte
	req[0] = cmdRead
	binary.LittleEndian.PutUint32(req[1:], addr)

	resp, err := s.exchange(req[:], 5)
	if err != nil {
		s.fail(fmt.Errorf("read reg 0x%08X: %w", addr, err))
		return 0
	}
	if resp[0] != ackRead {
		s.fail(fmt.Errorf("read reg 0x%08X: bad ack 0x%02X", addr, resp[0]))
		return 0
	}
	return binary.LittleEndian.Uint32(resp[1:])
}

// Write32 implements trng.Bus.
func (s *Session) Write32(addr uint32, v uint32) {
	var req [9]byte
	req[0] = cmdWrite
	binary.LittleEndian.PutUint32(req[1:], addr)
	binary.LittleEndian.PutUint32(req[5:], v)

	resp, err := s.exchange(req[:], 1)
	if err != nil {
		s.fail(fmt.Errorf("write reg 0x%08X: %w", addr, err))
		return
	}
	if resp[0] != ackWrite {
		s.fail(fmt.Errorf("write reg 0x%08X: bad ack 0x%02X", addr, resp[0]))
	}
}

// exchange sends a request frame and collects want response bytes,
// stripping the FTDI 2-byte modem status header each bulk IN packet
// carries.
func (s *Session) exchange(req []byte, want int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, err := s.outEp.Write(req); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	out := make([]byte, 0, want)
	tmp := make([]byte, s.maxPacket)
	deadline := time.Now().Add(exchangeTimeout)
	for len(out) < want {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("response timeout: got %d/%d bytes", len(out), want)
		}
		m, err := s.inEp.Read(tmp)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		out = stripStatus(out, tmp[:m], want)
	}
	return out, nil
}

// stripStatus appends the payload of one bulk IN packet to out, dropping
// the 2-byte modem status header and never collecting more than want
// bytes. A packet carrying only the header contributes nothing.
func stripStatus(out, pkt []byte, want int) []byte {
	if len(pkt) <= 2 {
		return out
	}
	payload := pkt[2:]
	if room := want - len(out); len(payload) > room {
		payload = payload[:room]
	}
	return append(out, payload...)
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// drainRead discards buffered input, stopping once only status headers
// come back.
func (s *Session) drainRead() {
	buf := make([]byte, 8192)
	for i := 0; i < 10; i++ {
		n, _ := s.inEp.Read(buf)
		if n <= 2 {
			break
		}
	}
}

// Control request helpers

func (s *Session) control(req uint8, value uint16, index uint16) error {
	typ := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := s.dev.Control(typ, req, value, index, nil)
	return err
}

func (s *Session) ftdiReset() error {
	if err := s.control(ftdiReqReset, ftdiResetSIO, 1); err != nil {
		return err
	}
	return nil
}

func (s *Session) purge() error {
	if err := s.control(ftdiReqReset, ftdiResetPurgeRX, 1); err != nil {
		return err
	}
	return s.control(ftdiReqReset, ftdiResetPurgeTX, 1)
}

func (s *Session) ftdiSetBaudRate(baud int) error {
	value, index := encodeBaudDivisor(baud, s.channel)
	return s.control(ftdiReqSetBaudRate, value, index)
}

func (s *Session) ftdiSetLineProperties(props uint16) error {
	return s.control(ftdiReqSetData, props, 1)
}

func (s *Session) ftdiSetLatencyTimer(ms uint8) error {
	return s.control(ftdiReqSetLatency, uint16(ms), 1)
}

func (s *Session) ftdiSetFlowControl(mode uint16) error {
	return s.control(ftdiReqSetFlowCtrl, 0, mode|1)
}

func (s *Session) ftdiSetBitmode(mode uint16, mask uint8) error {
	return s.control(ftdiReqSetBitmode, mode|uint16(mask), 1)
}

// encodeBaudDivisor converts a baud rate into the FTDI divisor encoding:
// the 3MHz UART reference clock divided by a 14-bit integer divisor plus a
// 3-bit sub-integer code packed into the top of the value and the low bit
// of the index. On a dual-channel chip the index word also carries the
// channel number in its low byte, so the divisor's overflow bit moves up
// to the high byte; channel 0 selects the single-channel layout.
func encodeBaudDivisor(baud int, channel uint16) (value, index uint16) {
	const refClock = 3_000_000
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	// divisor in eighths, rounded to nearest
	div8 := (refClock*8 + baud/2) / baud
	div := div8 >> 3

	// fractional code lookup per FTDI application note
	fracCode := [8]uint32{0, 3, 2, 4, 1, 5, 6, 7}
	encoded := uint32(div) | fracCode[div8&7]<<14

	// special cases: exact 3MBaud and 2MBaud use reserved encodings
	switch div8 {
	case 8:
		encoded = 0
	case 12:
		encoded = 1
	}

	value = uint16(encoded & 0xFFFF)
	if channel != 0 {
		index = uint16((encoded>>8)&0xFF00) | channel
	} else {
		index = uint16(encoded >> 16)
	}
	return value, index
}
