// Package trng drives the NEORV32 True Random Number Generator (TRNG)
// peripheral through its single memory-mapped control/status register. It
// mirrors the processor's reference C driver while exposing a Go-friendly
// API: register access goes through an injected Bus handle, so hosts can
// talk to real silicon (over a debug link) or to a software-simulated
// register file with the same code.
//
// The driver is stateless. Every call reads or writes the hardware register
// directly; the register is the single source of truth. Callers that share
// a device between goroutines must serialize access themselves.
package trng
