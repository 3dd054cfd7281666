package vm

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	MaxProgramSize  = MemorySize - int(ProgramStart)
	InstructionSize = 2

	flagRegister = 0xF
)

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack [StackSize]uint16 // Return addresses
	sp    uint16            // Stack pointer

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer timer // Delay timer, shared with the 60Hz clock
	soundTimer timer // Sound timer, shared with the 60Hz clock

	gfx      Framebuffer    // Graphics buffer
	keypad   [KeyCount]bool // Keypad
	drawFlag bool           // Indicates a draw has occurred
	looping  bool           // Last instruction jumped to itself

	rng *rand.Rand
}

// Option configures a VM created by New.
type Option func(*VM)

// WithRand sets the random source used by the rand instruction.
func WithRand(rng *rand.Rand) Option {
	return func(vm *VM) {
		vm.rng = rng
	}
}

// New creates an initialized VM with no program loaded.
func New(opts ...Option) *VM {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}

	if vm.rng == nil {
		vm.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	vm.Initialize()
	return vm
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Initialize resets the machine to its power-on state. Any loaded program is discarded.
func (vm *VM) Initialize() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.sp = 0

	// Clear the display
	vm.gfx.clear()
	vm.drawFlag = true
	vm.looping = false

	// Clear the stack, keypad, and V registers
	slog.Debug("clear stack", "n", len(vm.stack))
	vm.stack = [StackSize]uint16{}

	slog.Debug("clear keypad", "n", len(vm.keypad))
	vm.keypad = [KeyCount]bool{}

	slog.Debug("clear registers", "n", len(vm.registers))
	vm.registers = [RegisterCount]uint8{}

	// Clear memory
	slog.Debug("clear memory", "n", len(vm.memory))
	vm.memory = [MemorySize]uint8{}

	// Load font set into memory
	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	copy(vm.memory[FontStart:], chip8Font)

	// Reset timers
	vm.delayTimer.Store(0)
	vm.soundTimer.Store(0)
}

// LoadProgram copies a raw ROM image into memory at ProgramStart.
// Nothing is written when the image does not fit.
func (vm *VM) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, at most %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(program))
	copy(vm.memory[ProgramStart:], program)
	return nil
}

// SetKey records a key transition. Must be called from the goroutine that calls Step.
func (vm *VM) SetKey(key Key, pressed bool) error {
	if int(key) >= KeyCount {
		return fmt.Errorf("%w: %d", ErrInvalidKey, key)
	}

	vm.keypad[key] = pressed
	return nil
}

// Framebuffer returns a read-only view of the display.
func (vm *VM) Framebuffer() *Framebuffer {
	return &vm.gfx
}

// TakeDrawFlag reports whether the display changed since the previous call.
func (vm *VM) TakeDrawFlag() bool {
	drawn := vm.drawFlag
	vm.drawFlag = false
	return drawn
}

// Looping reports whether the last executed instruction was a jump to itself.
func (vm *VM) Looping() bool {
	return vm.looping
}

// PC returns the program counter.
func (vm *VM) PC() uint16 {
	return vm.pc
}

// Tick60Hz counts both timers down by one and reports whether the tone should sound.
// It is safe to call concurrently with Step.
func (vm *VM) Tick60Hz() bool {
	vm.delayTimer.Decrement()
	return vm.soundTimer.Decrement() > 0
}

// Step executes exactly one instruction.
func (vm *VM) Step() error {
	pc := vm.pc

	opcode, err := vm.fetchOpcode()
	if err != nil {
		return &ExecError{PC: pc, Err: err}
	}
	vm.pc += InstructionSize
	vm.looping = false

	if err := vm.executeOpcode(opcode); err != nil {
		return &ExecError{PC: pc, Opcode: opcode, Fetched: true, Err: err}
	}

	return nil
}

func (vm *VM) fetchOpcode() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: fetch at 0x%04x", ErrAddressOutOfRange, vm.pc)
	}

	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]

	opcode := uint16(hi)<<8 | uint16(lo) // Op code is two bytes
	return opcode, nil
}

// checkRange fails when n bytes starting at addr do not fit into memory.
func checkRange(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return fmt.Errorf("%w: 0x%04x+%d", ErrAddressOutOfRange, addr, n)
	}
	return nil
}
