package cpu

import (
	"fmt"
)

// Flag is a bit position in the FL register.
type Flag int

//go:generate go tool stringer -linecomment -type=Flag
const (
	FLAG_E = Flag(0) // E
	FLAG_G = Flag(1) // G
	FLAG_L = Flag(2) // L
)

const (
	REG_IM = 5 // Interrupt mask alias.
	REG_IS = 6 // Interrupt status alias.
	REG_SP = 7 // Stack pointer alias.

	REGISTER_COUNT = 8

	SP_INIT = 0xf4 // Empty stack.

	FLAG_MASK = 0b111
)

// Registers is the register file.
type Registers struct {
	R  [REGISTER_COUNT]uint8 // General purpose registers.
	Pc uint8                 // Program counter.
	Fl uint8                 // Flags, see FLAG_E, FLAG_G, FLAG_L.
}

// Reset the register file to the power-on state.
func (reg *Registers) Reset() {
	clear(reg.R[:])
	reg.Pc = 0
	reg.Fl = 0
	reg.R[REG_SP] = SP_INIT
}

// Get returns general purpose register index.
func (reg *Registers) Get(index int) (value uint8, err error) {
	if index < 0 || index >= REGISTER_COUNT {
		err = ErrRegister(index)
		return
	}

	value = reg.R[index]
	return
}

// Set stores value in general purpose register index.
func (reg *Registers) Set(index int, value uint8) (err error) {
	if index < 0 || index >= REGISTER_COUNT {
		err = ErrRegister(index)
		return
	}

	reg.R[index] = value
	return
}

func (reg *Registers) SP() uint8 {
	return reg.R[REG_SP]
}

func (reg *Registers) SetSP(value uint8) {
	reg.R[REG_SP] = value
}

func (reg *Registers) IM() uint8 {
	return reg.R[REG_IM]
}

func (reg *Registers) SetIM(value uint8) {
	reg.R[REG_IM] = value
}

func (reg *Registers) IS() uint8 {
	return reg.R[REG_IS]
}

func (reg *Registers) SetIS(value uint8) {
	reg.R[REG_IS] = value
}

// SetFlag sets or clears a single flag bit.
func (reg *Registers) SetFlag(flag Flag, value bool) {
	if value {
		reg.Fl |= 1 << flag
	} else {
		reg.Fl &^= 1 << flag
	}
}

// GetFlag returns 1 if flag is set, 0 otherwise.
func (reg *Registers) GetFlag(flag Flag) uint8 {
	return (reg.Fl >> flag) & 1
}

// String returns the register file as text.
func (reg *Registers) String() (text string) {
	text = fmt.Sprintf("% 4s: %02X\n", "pc", reg.Pc)

	var flags string
	for _, flag := range []Flag{FLAG_L, FLAG_G, FLAG_E} {
		if reg.GetFlag(flag) != 0 {
			flags += flag.String()
		} else {
			flags += "-"
		}
	}
	text += fmt.Sprintf("% 4s: %v\n", "fl", flags)

	names := [REGISTER_COUNT]string{"r0", "r1", "r2", "r3", "r4", "im", "is", "sp"}
	for n, name := range names {
		text += fmt.Sprintf("% 4s: %02X\n", name, reg.R[n])
	}

	return
}
