// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator drives an LS-8 CPU: it loads programs, runs ticks until
// the CPU halts, and feeds the timer and keyboard interrupt lines.
package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/internal"
	"github.com/ezrec/ls8/io"
)

const (
	MEMORY_SIZE  = cpu.MEMORY_SIZE // Default memory size.
	INT_TIMER    = 0               // Timer interrupt line.
	INT_KEYBOARD = 1               // Keyboard interrupt line.
)

var _emulator_defines = map[string]string{
	"INT_TIMER":    fmt.Sprintf("%v", INT_TIMER),
	"INT_KEYBOARD": fmt.Sprintf("%v", INT_KEYBOARD),
}

// Emulator state. CPU + console + interrupt sources.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Console io.Console // Console for PRN/PRA and the keyboard.

	TimerTicks int // Raise INT_TIMER every TimerTicks ticks; 0 disables the timer.

	timer    int
	keysDone bool
	hook     *Hook
}

// NewEmulator creates a new emulator with size bytes of memory.
func NewEmulator(size uint) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(size),
		Program: &cpu.Program{},
	}

	emu.Cpu.Output = &emu.Console

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Console.Defines(),
	)
}

// Close the emulator
func (emu *Emulator) Close() (err error) {
	if emu.hook != nil {
		emu.hook.Close()
		emu.hook = nil
	}

	return
}

// Reset the machine, and load the program listing into memory.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.timer = 0

	if emu.Program == nil {
		return
	}

	for addr, value := range emu.Program.Bytes() {
		err = emu.Cpu.Poke(addr, value)
		if err != nil {
			return
		}
	}

	return
}

// Load pokes a raw memory image at address 0, as the program loader does.
func (emu *Emulator) Load(data []uint8) (err error) {
	for addr, value := range data {
		err = emu.Cpu.Poke(addr, value)
		if err != nil {
			return
		}
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Registers.Pc)
}

// LineNo returns the listing line number for the instruction at PC,
// or 0 without a listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Registers.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// poll delivers pending device interrupts.
func (emu *Emulator) poll() (err error) {
	if emu.TimerTicks > 0 {
		emu.timer++
		if emu.timer >= emu.TimerTicks {
			emu.timer = 0
			emu.Cpu.Raise(INT_TIMER)
		}
	}

	if emu.keysDone {
		return
	}

	// An unmasked key waits until the last one has been taken.
	const keyboard = 1 << INT_KEYBOARD
	reg := &emu.Cpu.Registers
	if reg.IM()&keyboard != 0 && (reg.IS()&keyboard != 0 || !emu.Cpu.InterruptsEnabled()) {
		return
	}

	select {
	case key, ok := <-emu.Console.Keys():
		if !ok {
			emu.keysDone = true
			return
		}
		err = emu.Cpu.Poke(cpu.KEY_ADDR, key)
		if err != nil {
			return
		}
		emu.Cpu.Raise(INT_KEYBOARD)
	default:
	}

	return
}

// Tick performs a single tick of the emulator.
//
// done is set once the CPU has halted, or the hook asked to stop.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted() {
		done = true
		return
	}

	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: emu.Cpu.Registers.Pc, LineNo: emu.LineNo(), Err: err}
		}
	}()

	err = emu.poll()
	if err != nil {
		return
	}

	if emu.hook != nil {
		var stop bool
		stop, err = emu.hook.Tick()
		if err != nil {
			return
		}
		if stop {
			done = true
			return
		}
	}

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted()

	return
}

// Run ticks until the CPU halts, a fault occurs, or limit ticks have
// run. A limit of 0 runs without bound.
func (emu *Emulator) Run(limit int) (err error) {
	for n := 0; limit == 0 || n < limit; n++ {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}

	if !emu.Cpu.Halted() {
		err = ErrTickLimit
	}

	return
}
