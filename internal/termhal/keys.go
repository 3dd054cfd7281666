package termhal

import (
	"time"

	"github.com/kapitanov/chip8/internal/vm"
)

const (
	ctrlC     = 0x03
	ctrlD     = 0x04
	backspace = 0x08
	del       = 0x7f
)

// DefaultHoldTime is how long a key stays down after its last keystroke.
// Terminals report no key releases, only presses and autorepeat.
const DefaultHoldTime = 150 * time.Millisecond

func keyMap(b byte) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}

	switch b {
	case 'x':
		return vm.Key0, true
	case '1':
		return vm.Key1, true
	case '2':
		return vm.Key2, true
	case '3':
		return vm.Key3, true
	case 'q':
		return vm.Key4, true
	case 'w':
		return vm.Key5, true
	case 'e':
		return vm.Key6, true
	case 'a':
		return vm.Key7, true
	case 's':
		return vm.Key8, true
	case 'd':
		return vm.Key9, true
	case 'z':
		return vm.KeyA, true
	case 'c':
		return vm.KeyB, true
	case '4':
		return vm.KeyC, true
	case 'r':
		return vm.KeyD, true
	case 'f':
		return vm.KeyE, true
	case 'v':
		return vm.KeyF, true
	default:
		return 0, false
	}
}

// keypad turns keystrokes into press and release transitions.
type keypad struct {
	hold     time.Duration
	lastSeen [vm.KeyCount]time.Time
}

func (k *keypad) press(key vm.Key, now time.Time, setKey func(vm.Key, bool)) {
	if k.lastSeen[key].IsZero() {
		setKey(key, true)
	}
	k.lastSeen[key] = now
}

func (k *keypad) expire(now time.Time, setKey func(vm.Key, bool)) {
	for i, seen := range k.lastSeen {
		if seen.IsZero() || now.Sub(seen) < k.hold {
			continue
		}
		k.lastSeen[i] = time.Time{}
		setKey(vm.Key(i), false)
	}
}
