package vm

import (
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge   = errors.New("program too large")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrInvalidKey        = errors.New("invalid key index")
	ErrAddressOutOfRange = errors.New("address out of range")
)

// ExecError is a fatal fault raised while executing the instruction at PC.
type ExecError struct {
	PC      uint16 // Address of the faulting instruction.
	Opcode  uint16 // Instruction word, valid only when Fetched is set.
	Fetched bool   // The instruction word was read before the fault.
	Err     error
}

func (e *ExecError) Error() string {
	if !e.Fetched {
		return fmt.Sprintf("0x%04x: %v", e.PC, e.Err)
	}
	return fmt.Sprintf("0x%04x: opcode 0x%04X: %v", e.PC, e.Opcode, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
