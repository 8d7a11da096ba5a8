// Package uartlink reaches the NEORV32 I/O registers from a host machine
// through the board's USB-UART debug bridge. It implements trng.Bus on top
// of a small peek/poke protocol served by the debug firmware:
//
//	read:  host sends 'R' followed by the 32-bit register address
//	       (little-endian); the device answers 'r' followed by the
//	       32-bit register value.
//	write: host sends 'W', the address and the value; the device
//	       answers a bare 'w' ack.
//
// Register access itself is errorless, matching the hardware semantics the
// driver is written against: a failed read yields zero, exactly like a read
// from a peripheral that was never synthesized. Transport faults are
// recorded on the link and can be inspected with Err after a sequence of
// operations.
package uartlink
