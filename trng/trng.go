package trng

import (
	"errors"
)

// Bus is the register-access handle the driver operates on. Implementations
// back it with whatever actually reaches the register: a debug link to a
// live board (uartlink, ftdilink) or a simulated register file (simreg).
//
// Register access carries no error return, matching the hardware: a write to
// a peripheral that was never synthesized is a silent no-op and a read comes
// back all-zero. Transports that can fail report faults out-of-band.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

// Memory map of the TRNG control/status register and of the SYSINFO SOC
// capability word that flags whether the TRNG was synthesized at all.
const (
	CtrlAddr       uint32 = 0xFFFFFFB8
	SysinfoSocAddr uint32 = 0xFFFFFFE8
)

// Control/status register bit layout. DATA occupies the low byte; the flag
// bits sit at the top of the word.
const (
	CtrlDataLSB          = 0       // random data byte, bits [7:0]
	CtrlFIFOClear uint32 = 1 << 28 // write 1 to flush the data pool, self-clearing
	CtrlSimMode   uint32 = 1 << 29 // read-only: entropy source is a simulation PRNG
	CtrlEnable    uint32 = 1 << 30 // entropy generation active
	CtrlValid     uint32 = 1 << 31 // read-only: DATA holds a fresh byte

	ctrlDataMask uint32 = 0xFF
)

// SocTRNG is the TRNG presence bit in the SYSINFO SOC register.
const SocTRNG uint32 = 1 << 24

// DefaultSettleIterations is the settle-delay loop count used after writes
// to the enable bit. The value comes from the reference driver's nop loop;
// the real constraint is elapsed time, so tune it per link if the hardware
// needs longer.
const DefaultSettleIterations = 256

// ErrNoData reports that no fresh random byte was ready at the time of a
// Get call. This is the normal not-ready condition, not a fault: retry.
var ErrNoData = errors.New("trng: no data ready")

// Device is a handle on the TRNG peripheral behind a register bus.
type Device struct {
	bus    Bus
	settle int
}

// New returns a Device operating on bus. settleIterations tunes the delay
// loop run after enable-bit writes; pass 0 for DefaultSettleIterations.
func New(bus Bus, settleIterations int) *Device {
	if settleIterations <= 0 {
		settleIterations = DefaultSettleIterations
	}
	return &Device{bus: bus, settle: settleIterations}
}

// Available reports whether the TRNG unit was synthesized in the current
// hardware build. Pure read of the SYSINFO SOC register; check it (or know
// your bitstream) before using any other operation, since a missing
// peripheral reads back all-zero.
func (d *Device) Available() bool {
	return d.bus.Read32(SysinfoSocAddr)&SocTRNG != 0
}

// Enable activates entropy generation. The register is first forced to a
// known all-zero reset state, then the enable bit is set; both writes are
// followed by a settle delay so the entropy core can de-assert its internal
// reset and stabilize. Any stale data accumulated during power-up is
// flushed before returning. Calling Enable on an already enabled unit just
// re-runs the same sequence.
func (d *Device) Enable() {
	d.bus.Write32(CtrlAddr, 0) // reset
	settle(d.settle)

	d.bus.Write32(CtrlAddr, CtrlEnable) // activate
	settle(d.settle)

	// discard whatever the pool collected while powering up
	d.FIFOClear()
}

// Disable deactivates the peripheral by zeroing the control register. Takes
// effect immediately; no settle delay is needed.
func (d *Device) Disable() {
	d.bus.Write32(CtrlAddr, 0)
}

// FIFOClear flushes the hardware's internal random data pool. The clear bit
// is ORed in so the enable bit is left untouched; hardware resets the bit
// by itself once the flush completes, so there is nothing to poll.
func (d *Device) FIFOClear() {
	ctrl := d.bus.Read32(CtrlAddr)
	d.bus.Write32(CtrlAddr, ctrl|CtrlFIFOClear)
}

// Get attempts to fetch one random byte. A single register read is made: if
// the valid flag is set the data byte is returned, otherwise ErrNoData.
// Get never blocks and never retries; call it again (or use ReadByte) when
// it reports not-ready.
func (d *Device) Get() (byte, error) {
	ctrl := d.bus.Read32(CtrlAddr)
	if ctrl&CtrlValid == 0 {
		return 0, ErrNoData
	}
	return byte((ctrl >> CtrlDataLSB) & ctrlDataMask), nil
}

// SimMode reports whether the entropy source was synthesized in simulation
// mode, where a plain PRNG stands in for the physical noise source. Data
// read in simulation mode has very bad random quality and must not be used
// for anything but testing.
func (d *Device) SimMode() bool {
	return d.bus.Read32(CtrlAddr)&CtrlSimMode != 0
}
