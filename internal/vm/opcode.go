package vm

import (
	"context"
	"fmt"
	"log/slog"
)

type op uint8

const (
	opUnknown op = iota
	opCls
	opRts
	opJmp
	opJsr
	opSkeqImm
	opSkneImm
	opSkeqReg
	opMovImm
	opAddImm
	opMovReg
	opOr
	opAnd
	opXor
	opAddReg
	opSub
	opShr
	opRsb
	opShl
	opSkneReg
	opMvi
	opJmi
	opRand
	opSprite
	opSkpr
	opSkup
	opGdelay
	opKey
	opSdelay
	opSsound
	opAdi
	opFont
	opBcd
	opStr
	opLdr
)

// instruction is a decoded opcode. Every operand field is filled in; each
// op reads only the ones it needs.
type instruction struct {
	op  op
	x   uint8  // register index from bits 8-11
	y   uint8  // register index from bits 4-7
	n   uint8  // bits 0-3
	nn  uint8  // bits 0-7
	nnn uint16 // bits 0-11
}

func decode(opcode uint16) (instruction, error) {
	instr := instruction{
		x:   uint8((opcode & 0x0F00) >> 8),
		y:   uint8((opcode & 0x00F0) >> 4),
		n:   uint8(opcode & 0x000F),
		nn:  uint8(opcode & 0x00FF),
		nnn: opcode & 0x0FFF,
	}

	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			// 00E0 - Clear screen
			instr.op = opCls

		case 0x00EE:
			// 00EE - Return from subroutine
			instr.op = opRts
		}

	case 0x1000:
		// 1NNN - Jumps to address NNN
		instr.op = opJmp

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		instr.op = opJsr

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		instr.op = opSkeqImm

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		instr.op = opSkneImm

	case 0x5000:
		// 5XY0 - Skips the next instruction if VX equals VY
		instr.op = opSkeqReg

	case 0x6000:
		// 6XNN - Sets VX to NN
		instr.op = opMovImm

	case 0x7000:
		// 7XNN - Adds NN to VX
		instr.op = opAddImm

	case 0x8000:
		// 8XY_
		switch opcode & 0x000F {
		case 0x0000:
			instr.op = opMovReg
		case 0x0001:
			instr.op = opOr
		case 0x0002:
			instr.op = opAnd
		case 0x0003:
			instr.op = opXor
		case 0x0004:
			instr.op = opAddReg
		case 0x0005:
			instr.op = opSub
		case 0x0006:
			instr.op = opShr
		case 0x0007:
			instr.op = opRsb
		case 0x000E:
			instr.op = opShl
		}

	case 0x9000:
		// 9XY0 - Skips the next instruction if VX doesn't equal VY
		instr.op = opSkneReg

	case 0xA000:
		// ANNN - Sets I to the address NNN
		instr.op = opMvi

	case 0xB000:
		// BNNN - Jumps to the address NNN plus the register named by the top nibble of NNN
		instr.op = opJmi

	case 0xC000:
		// CXNN - Sets VX to a random number, masked by NN
		instr.op = opRand

	case 0xD000:
		// DXYN - Draws an 8xN sprite from memory at I to (VX, VY)
		instr.op = opSprite

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			instr.op = opSkpr

		case 0x00A1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			instr.op = opSkup
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			instr.op = opGdelay
		case 0x000A:
			instr.op = opKey
		case 0x0015:
			instr.op = opSdelay
		case 0x0018:
			instr.op = opSsound
		case 0x001E:
			instr.op = opAdi
		case 0x0029:
			instr.op = opFont
		case 0x0033:
			instr.op = opBcd
		case 0x0055:
			instr.op = opStr
		case 0x0065:
			instr.op = opLdr
		}
	}

	if instr.op == opUnknown {
		return instr, fmt.Errorf("%w 0x%04X", ErrUnknownOpcode, opcode)
	}

	return instr, nil
}

func (vm *VM) executeOpcode(opcode uint16) error {
	instr, err := decode(opcode)
	if err != nil {
		return err
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.pc-InstructionSize),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", instr.String(),
		)
	}

	return vm.execute(instr)
}

// String returns the mnemonic form used in execution traces.
func (i instruction) String() string {
	switch i.op {
	case opCls:
		return "cls"
	case opRts:
		return "rts"
	case opJmp:
		return fmt.Sprintf("jmp 0x%04x", i.nnn)
	case opJsr:
		return fmt.Sprintf("jsr 0x%04x", i.nnn)
	case opSkeqImm:
		return fmt.Sprintf("skeq v%x, %d", i.x, i.nn)
	case opSkneImm:
		return fmt.Sprintf("skne v%x, %d", i.x, i.nn)
	case opSkeqReg:
		return fmt.Sprintf("skeq v%x, v%x", i.x, i.y)
	case opMovImm:
		return fmt.Sprintf("mov v%x, %d", i.x, i.nn)
	case opAddImm:
		return fmt.Sprintf("add v%x, %d", i.x, i.nn)
	case opMovReg:
		return fmt.Sprintf("mov v%x, v%x", i.x, i.y)
	case opOr:
		return fmt.Sprintf("or v%x, v%x", i.x, i.y)
	case opAnd:
		return fmt.Sprintf("and v%x, v%x", i.x, i.y)
	case opXor:
		return fmt.Sprintf("xor v%x, v%x", i.x, i.y)
	case opAddReg:
		return fmt.Sprintf("add v%x, v%x", i.x, i.y)
	case opSub:
		return fmt.Sprintf("sub v%x, v%x", i.x, i.y)
	case opShr:
		return fmt.Sprintf("shr v%x", i.x)
	case opRsb:
		return fmt.Sprintf("rsb v%x, v%x", i.x, i.y)
	case opShl:
		return fmt.Sprintf("shl v%x", i.x)
	case opSkneReg:
		return fmt.Sprintf("skne v%x, v%x", i.x, i.y)
	case opMvi:
		return fmt.Sprintf("mvi 0x%04x", i.nnn)
	case opJmi:
		return fmt.Sprintf("jmi 0x%04x", i.nnn)
	case opRand:
		return fmt.Sprintf("rand v%x, %d", i.x, i.nn)
	case opSprite:
		return fmt.Sprintf("sprite v%x, v%x, %d", i.x, i.y, i.n)
	case opSkpr:
		return fmt.Sprintf("skpr v%x", i.x)
	case opSkup:
		return fmt.Sprintf("skup v%x", i.x)
	case opGdelay:
		return fmt.Sprintf("gdelay v%x", i.x)
	case opKey:
		return fmt.Sprintf("key v%x", i.x)
	case opSdelay:
		return fmt.Sprintf("sdelay v%x", i.x)
	case opSsound:
		return fmt.Sprintf("ssound v%x", i.x)
	case opAdi:
		return fmt.Sprintf("adi v%x", i.x)
	case opFont:
		return fmt.Sprintf("font v%x", i.x)
	case opBcd:
		return fmt.Sprintf("bcd v%x", i.x)
	case opStr:
		return fmt.Sprintf("str v0-v%x", i.x)
	case opLdr:
		return fmt.Sprintf("ldr v0-v%x", i.x)
	default:
		return "unknown"
	}
}
