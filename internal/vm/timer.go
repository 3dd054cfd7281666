package vm

import "sync/atomic"

// timer is an 8-bit countdown register written by instructions and
// decremented by the 60Hz clock from another goroutine.
type timer struct {
	v atomic.Uint32
}

func (t *timer) Load() uint8 {
	return uint8(t.v.Load())
}

func (t *timer) Store(v uint8) {
	t.v.Store(uint32(v))
}

// Decrement lowers a nonzero timer by one and returns the new value.
// A concurrent Store either lands before the decrement or replaces its result.
func (t *timer) Decrement() uint8 {
	for {
		old := t.v.Load()
		if old == 0 {
			return 0
		}

		if t.v.CompareAndSwap(old, old-1) {
			return uint8(old - 1)
		}
	}
}
