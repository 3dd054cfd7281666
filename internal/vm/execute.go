package vm

import (
	"fmt"
	"log/slog"
)

// execute applies a decoded instruction. PC already points past it.
func (vm *VM) execute(instr instruction) error {
	v := &vm.registers
	x, y := instr.x, instr.y

	switch instr.op {
	case opCls:
		vm.gfx.clear()
		vm.drawFlag = true

	case opRts:
		if vm.sp == 0 {
			return ErrStackUnderflow
		}
		vm.sp--
		vm.pc = vm.stack[vm.sp]

	case opJmp:
		vm.looping = instr.nnn == vm.pc-InstructionSize
		vm.pc = instr.nnn

	case opJsr:
		if int(vm.sp) >= StackSize {
			return ErrStackOverflow
		}
		vm.stack[vm.sp] = vm.pc
		vm.sp++
		vm.pc = instr.nnn

	case opSkeqImm:
		vm.skipIf(v[x] == instr.nn)

	case opSkneImm:
		vm.skipIf(v[x] != instr.nn)

	case opSkeqReg:
		vm.skipIf(v[x] == v[y])

	case opSkneReg:
		vm.skipIf(v[x] != v[y])

	case opMovImm:
		v[x] = instr.nn

	case opAddImm:
		v[x] += instr.nn

	case opMovReg:
		v[x] = v[y]

	case opOr:
		v[x] |= v[y]

	case opAnd:
		v[x] &= v[y]

	case opXor:
		v[x] ^= v[y]

	case opAddReg:
		sum := uint16(v[x]) + uint16(v[y])
		v[x] = uint8(sum)
		// The flag is written last so it wins when X is VF.
		v[flagRegister] = boolToFlag(sum > 0xFF)

	case opSub:
		flag := boolToFlag(v[x] >= v[y])
		if x != flagRegister {
			v[x] -= v[y]
		}
		v[flagRegister] = flag

	case opRsb:
		flag := boolToFlag(v[y] >= v[x])
		if x != flagRegister {
			v[x] = v[y] - v[x]
		}
		v[flagRegister] = flag

	case opShr:
		flag := v[x] & 0x01
		if x != flagRegister {
			v[x] >>= 1
		}
		v[flagRegister] = flag

	case opShl:
		flag := v[x] >> 7
		if x != flagRegister {
			v[x] <<= 1
		}
		v[flagRegister] = flag

	case opMvi:
		vm.index = instr.nnn

	case opJmi:
		vm.pc = instr.nnn + uint16(v[instr.nnn>>8])

	case opRand:
		v[x] = uint8(vm.rng.UintN(256)) & instr.nn

	case opSprite:
		return vm.drawSprite(v[x], v[y], instr.n)

	case opSkpr:
		pressed, err := vm.keyPressed(v[x])
		if err != nil {
			return err
		}
		vm.skipIf(pressed)

	case opSkup:
		pressed, err := vm.keyPressed(v[x])
		if err != nil {
			return err
		}
		vm.skipIf(!pressed)

	case opGdelay:
		v[x] = vm.delayTimer.Load()

	case opKey:
		for i, pressed := range vm.keypad {
			if pressed {
				v[x] = uint8(i)
				return nil
			}
		}
		// Nothing pressed: run this instruction again on the next step.
		vm.pc -= InstructionSize

	case opSdelay:
		vm.delayTimer.Store(v[x])

	case opSsound:
		vm.soundTimer.Store(v[x])

	case opAdi:
		sum := uint32(vm.index) + uint32(v[x])
		if sum >= MemorySize {
			v[flagRegister] = 1
		}
		vm.index = uint16(sum)

	case opFont:
		if int(v[x]) >= KeyCount {
			return fmt.Errorf("%w: font digit %d", ErrInvalidKey, v[x])
		}
		vm.index = fontAddr(v[x])

	case opBcd:
		if err := checkRange(vm.index, 3); err != nil {
			return err
		}
		vm.memory[vm.index] = v[x] / 100
		vm.memory[vm.index+1] = (v[x] / 10) % 10
		vm.memory[vm.index+2] = v[x] % 10

	case opStr:
		if err := checkRange(vm.index, int(x)+1); err != nil {
			return err
		}
		copy(vm.memory[vm.index:], v[:x+1])

	case opLdr:
		if err := checkRange(vm.index, int(x)+1); err != nil {
			return err
		}
		copy(v[:x+1], vm.memory[vm.index:])

	default:
		return ErrUnknownOpcode
	}

	return nil
}

// skipIf steps over the next instruction when cond holds.
func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

func (vm *VM) keyPressed(key uint8) (bool, error) {
	if int(key) >= KeyCount {
		return false, fmt.Errorf("%w: %d", ErrInvalidKey, key)
	}
	return vm.keypad[key], nil
}

// drawSprite XORs an 8-pixel-wide, height-row sprite from memory at I onto the
// display at (vx mod 64, vy mod 32). Rows and columns that run past the right or
// bottom edge are clipped. VF ends up 1 when any lit pixel was switched off.
func (vm *VM) drawSprite(vx, vy, height uint8) error {
	xLocation := int(vx) % ScreenWidth
	yLocation := int(vy) % ScreenHeight

	rows := min(int(height), ScreenHeight-yLocation)
	if err := checkRange(vm.index, rows); err != nil {
		slog.Error("sprite out of range",
			"index", fmt.Sprintf("0x%04x", vm.index),
			"rows", rows,
		)
		return err
	}

	const width = 8
	cols := min(width, ScreenWidth-xLocation)

	hasCollision := uint8(0)
	for row := 0; row < rows; row++ {
		pixel := vm.memory[int(vm.index)+row]

		for col := 0; col < cols; col++ {
			mask := uint8(0x80 >> col)
			if pixel&mask == 0 {
				continue
			}

			if vm.gfx.toggle(xLocation+col, yLocation+row) {
				hasCollision = 1
			}
		}
	}

	vm.registers[flagRegister] = hasCollision
	vm.drawFlag = true
	return nil
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
