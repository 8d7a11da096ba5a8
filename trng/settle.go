package trng

import "sync/atomic"

// settleSink only exists to give the settle loop a side effect.
var settleSink atomic.Uint32

// settle burns a fixed number of iterations after an enable-bit write. The
// hardware needs a minimum elapsed time before the write's effects are
// observable, so the loop body is an atomic add: unlike an empty loop, the
// compiler cannot elide it and every iteration is guaranteed to execute.
func settle(iterations int) {
	for i := 0; i < iterations; i++ {
		settleSink.Add(1)
	}
}
