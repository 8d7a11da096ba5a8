// Package simreg is a software simulation of the NEORV32 I/O registers the
// TRNG driver touches: the TRNG control/status register and the SYSINFO SOC
// capability word. It implements trng.Bus, so the full driver stack runs
// against it unchanged, both in tests and in the CLIs' "sim" device mode.
//
// The simulation reproduces the register-level quirks that matter:
// read-only fields ignore writes, the FIFO-clear bit self-resets after the
// flush, disabling the unit forgets the pool, and unmapped addresses read
// back all-zero. Entropy comes from a Galois LFSR, the same class of
// generator the hardware substitutes for its physical noise source when
// built in simulation mode.
package simreg

import (
	"github.com/Thiagojm/neorv32_trng_go/trng"
)

// defaultSeed is an arbitrary nonzero LFSR start state. A zero seed would
// lock the LFSR at zero forever.
const defaultSeed uint32 = 0xCAFE1234

// Sim is a simulated register file. It is not safe for concurrent use; the
// real peripheral assumes single-context access and so does the simulation.
type Sim struct {
	soc     uint32
	enabled bool
	simMode bool
	valid   bool
	data    byte

	auto bool
	lfsr uint32

	lastWrite uint32
}

// New returns a register file with the TRNG presence bit set, simulation
// mode flagged, and automatic entropy generation on: once the driver
// enables the unit, every control-register read observes a fresh LFSR byte,
// so the simulation behaves like a live (if low quality) device.
func New() *Sim {
	return &Sim{
		soc:     trng.SocTRNG,
		simMode: true,
		auto:    true,
		lfsr:    defaultSeed,
	}
}

// Read32 implements trng.Bus.
func (s *Sim) Read32(addr uint32) uint32 {
	switch addr {
	case trng.SysinfoSocAddr:
		return s.soc
	case trng.CtrlAddr:
		if s.soc&trng.SocTRNG == 0 {
			return 0 // peripheral not synthesized
		}
		if s.auto && s.enabled {
			// the pool always has a next byte ready
			s.data = s.nextLFSRByte()
			s.valid = true
		}
		return s.ctrl()
	}
	return 0 // unmapped
}

// Write32 implements trng.Bus.
func (s *Sim) Write32(addr uint32, v uint32) {
	if addr != trng.CtrlAddr {
		return // SOC is read-only, everything else unmapped
	}
	if s.soc&trng.SocTRNG == 0 {
		return // writes to a missing peripheral vanish
	}
	s.lastWrite = v

	s.enabled = v&trng.CtrlEnable != 0
	if !s.enabled {
		// disabling forgets the pool
		s.valid = false
		s.data = 0
	}
	if v&trng.CtrlFIFOClear != 0 {
		// flush, then self-clear: the bit is never stored
		s.valid = false
		s.data = 0
	}
	// SIM_MODE, VALID and DATA are read-only fields; writes fall through
}

// ctrl composes the current control/status register value.
func (s *Sim) ctrl() uint32 {
	v := uint32(s.data)
	if s.simMode {
		v |= trng.CtrlSimMode
	}
	if s.enabled {
		v |= trng.CtrlEnable
	}
	if s.valid {
		v |= trng.CtrlValid
	}
	return v
}

// nextLFSRByte clocks a 32-bit Galois LFSR eight times and returns the
// gathered output bits.
func (s *Sim) nextLFSRByte() byte {
	var b byte
	for i := 0; i < 8; i++ {
		out := s.lfsr & 1
		s.lfsr >>= 1
		if out != 0 {
			s.lfsr ^= 0xA3000000 // taps 32,30,26,25
		}
		b = b<<1 | byte(out)
	}
	return b
}

// SetPresent sets or clears the TRNG presence bit in the capability word.
func (s *Sim) SetPresent(present bool) {
	if present {
		s.soc |= trng.SocTRNG
	} else {
		s.soc &^= trng.SocTRNG
	}
}

// SetSimMode sets the read-only SIM_MODE flag.
func (s *Sim) SetSimMode(sim bool) { s.simMode = sim }

// SetAuto switches automatic entropy generation. With auto off the valid
// flag and data byte only change through Push or register writes, which is
// what deterministic tests want.
func (s *Sim) SetAuto(auto bool) { s.auto = auto }

// Seed resets the LFSR state. Zero is replaced by the default seed.
func (s *Sim) Seed(seed uint32) {
	if seed == 0 {
		seed = defaultSeed
	}
	s.lfsr = seed
}

// Push makes b the current data byte and raises the valid flag, emulating
// the hardware pool delivering a byte.
func (s *Sim) Push(b byte) {
	s.data = b
	s.valid = true
}

// ClearValid drops the valid flag without touching anything else.
func (s *Sim) ClearValid() { s.valid = false }

// Ctrl returns the current control/status register value without the
// side effects of a bus read.
func (s *Sim) Ctrl() uint32 { return s.ctrl() }

// LastWrite returns the raw value of the most recent control-register
// write, including self-clearing bits that are no longer observable.
func (s *Sim) LastWrite() uint32 { return s.lastWrite }

// Enabled reports the stored enable bit.
func (s *Sim) Enabled() bool { return s.enabled }
