package vm

import (
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestTimerDecrementSaturates(t *testing.T) {
	var tm timer
	tm.Store(3)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		maxed uint8
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := tm.Decrement()
				mu.Lock()
				maxed = max(maxed, v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint8(0), tm.Load())
	assert.True(t, maxed <= 2)
}

func TestTimerConcurrentWithInstructions(t *testing.T) {
	// The program keeps reloading the delay timer while the clock counts it down.
	vm := newTestVM(t,
		0x6105, // mov v1, 5
		0xF115, // sdelay v1
		0xF207, // gdelay v2
		0x1202, // jmp 0x202
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			vm.Tick60Hz()
		}
	}()

	for i := 0; i < 3000; i++ {
		assert.NoError(t, vm.Step())
		assert.True(t, vm.registers[2] <= 5)
	}
	<-done

	for i := 0; i < 10; i++ {
		vm.Tick60Hz()
	}
	assert.Equal(t, uint8(0), vm.delayTimer.Load())
}
