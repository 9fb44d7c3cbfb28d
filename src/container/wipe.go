package container

import "runtime"

// Wipe zeroes a buffer that held secret material. The KeepAlive pins the
// slice until after the stores so the compiler cannot drop them as dead
// writes to a buffer about to become unreachable.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
