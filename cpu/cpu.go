package cpu

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"math/bits"
	"strconv"

	"github.com/ezrec/ls8/translate"
)

// State is the execution state of the CPU.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
)

const (
	KEY_ADDR        = 0xf4 // Last key pressed.
	VECTOR_BASE     = 0xf8 // Interrupt vector table.
	INTERRUPT_LINES = 8    // Number of interrupt lines.
)

var _cpu_defines = map[string]string{
	"KEY":         fmt.Sprintf("%#x", KEY_ADDR),
	"VECTOR_BASE": fmt.Sprintf("%#x", VECTOR_BASE),
	"SP_INIT":     fmt.Sprintf("%#x", SP_INIT),
}

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool        // Set to enable verbose logging.
	Logger  *log.Logger // Destination of traces and fault diagnostics; nil for the standard logger.
	Output  io.Writer   // Destination of PRN and PRA.

	Memory    *Memory   // Main memory.
	Registers Registers // Register file.
	Stack     Stack     // Stack in main memory.
	State     State     // Running or halted.

	Ticks int // Instructions executed since reset.

	interrupts bool // Interrupt delivery enabled.
}

// NewCpu creates a new CPU with size bytes of memory.
func NewCpu(size uint) (cpu *Cpu) {
	cpu = &Cpu{
		Output: io.Discard,
		Memory: NewMemory(size),
	}
	cpu.Stack = Stack{Memory: cpu.Memory, Registers: &cpu.Registers}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	defines := maps.Clone(_cpu_defines)
	defines["MEMORY_SIZE"] = fmt.Sprintf("%d", cpu.Memory.Size())
	return maps.All(defines)
}

// Reset the CPU state.
// - Clears memory and registers.
// - Empties the stack.
// - Zeros the tick counter.
// - Enables interrupt delivery.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		cpu.logger().Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Registers.Reset()
	cpu.State = STATE_RUNNING
	cpu.Ticks = 0
	cpu.interrupts = true
}

// Poke stores a byte in memory. This is the program loader contract.
func (cpu *Cpu) Poke(address int, value uint8) error {
	return cpu.Memory.Write(address, value)
}

// Peek reads a byte from memory.
func (cpu *Cpu) Peek(address int) (uint8, error) {
	return cpu.Memory.Read(address)
}

// Halted returns true once HLT has executed or a fault occurred.
func (cpu *Cpu) Halted() bool {
	return cpu.State == STATE_HALTED
}

// InterruptsEnabled returns true when pending interrupts will be taken.
func (cpu *Cpu) InterruptsEnabled() bool {
	return cpu.interrupts
}

// Raise marks interrupt line as pending in IS.
func (cpu *Cpu) Raise(line int) {
	cpu.Registers.SetIS(cpu.Registers.IS() | (1 << (line & (INTERRUPT_LINES - 1))))
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = cpu.Registers.String()
	text += fmt.Sprintf("% 4s: %v\n", "st", cpu.State)
	text += fmt.Sprintf("% 4s: %v\n", "tick", cpu.Ticks)
	return
}

func (cpu *Cpu) logger() *log.Logger {
	if cpu.Logger == nil {
		return log.Default()
	}
	return cpu.Logger
}

// halt stops the CPU after a fault, reporting it once.
func (cpu *Cpu) halt(pc uint8, err error) {
	cpu.State = STATE_HALTED
	translate.Logf(cpu.Logger, "cpu: halted at 0x%02x: %v", pc, err)
}

// Fetch reads the opcode at PC and the two bytes after it.
//
// Operand bytes past the end of memory read as zero unless the
// opcode is known and needs them.
func (cpu *Cpu) Fetch() (op Opcode, a, b uint8, err error) {
	pc := int(cpu.Registers.Pc)

	value, err := cpu.Memory.Read(pc)
	if err != nil {
		return
	}
	op = Opcode(value)

	operands := [2]*uint8{&a, &b}
	for n, operand := range operands {
		address := pc + 1 + n
		if address >= cpu.Memory.Size() && (n+1 >= op.Length() || !op.Valid()) {
			continue
		}
		*operand, err = cpu.Memory.Read(address)
		if err != nil {
			return
		}
	}

	return
}

// Tick executes a single fetch-decode-execute cycle.
//
// Any fault halts the CPU; further ticks return ErrHalted.
func (cpu *Cpu) Tick() (err error) {
	if cpu.State == STATE_HALTED {
		return ErrHalted
	}

	pc := cpu.Registers.Pc
	defer func() {
		if err != nil {
			cpu.halt(pc, err)
		}
	}()

	err = cpu.interrupt()
	if err != nil {
		return
	}

	pc = cpu.Registers.Pc
	op, a, b, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(op, a, b)
	return
}

// Execute executes a single decoded instruction at PC.
func (cpu *Cpu) Execute(op Opcode, a, b uint8) (err error) {
	reg := &cpu.Registers
	pc := reg.Pc

	if cpu.Verbose {
		cpu.logger().Printf("%02x: %v", pc, Disassemble(op, a, b))
	}

	next_pc := pc + uint8(op.Length())

	switch op {
	case OP_NOP:
		// pass
	case OP_HLT:
		next_pc = pc
		cpu.State = STATE_HALTED
	case OP_LDI:
		err = reg.Set(int(a), b)
	case OP_LD:
		var address, value uint8
		address, err = reg.Get(int(b))
		if err != nil {
			return
		}
		value, err = cpu.Memory.Read(int(address))
		if err != nil {
			return
		}
		err = reg.Set(int(a), value)
	case OP_ST:
		var address, value uint8
		address, err = reg.Get(int(a))
		if err != nil {
			return
		}
		value, err = reg.Get(int(b))
		if err != nil {
			return
		}
		err = cpu.Memory.Write(int(address), value)
	case OP_PRN:
		var value uint8
		value, err = reg.Get(int(a))
		if err != nil {
			return
		}
		_, err = io.WriteString(cpu.Output, strconv.Itoa(int(value))+"\n")
	case OP_PRA:
		var value uint8
		value, err = reg.Get(int(a))
		if err != nil {
			return
		}
		_, err = io.WriteString(cpu.Output, string(rune(value)))
	case OP_ADD:
		err = cpu.doAlu(ALU_OP_ADD, int(a), int(b))
	case OP_SUB:
		err = cpu.doAlu(ALU_OP_SUB, int(a), int(b))
	case OP_MUL:
		err = cpu.doAlu(ALU_OP_MUL, int(a), int(b))
	case OP_DIV:
		err = cpu.doAlu(ALU_OP_DIV, int(a), int(b))
	case OP_INC:
		err = cpu.doAlu(ALU_OP_INC, int(a), 0)
	case OP_DEC:
		err = cpu.doAlu(ALU_OP_DEC, int(a), 0)
	case OP_CMP:
		err = cpu.doAlu(ALU_OP_CMP, int(a), int(b))
	case OP_PUSH:
		var value uint8
		value, err = reg.Get(int(a))
		if err != nil {
			return
		}
		err = cpu.Stack.Push(value)
	case OP_POP:
		// Validate the destination before touching SP.
		_, err = reg.Get(int(a))
		if err != nil {
			return
		}
		var value uint8
		value, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
		err = reg.Set(int(a), value)
	case OP_CALL:
		var target uint8
		target, err = reg.Get(int(a))
		if err != nil {
			return
		}
		err = cpu.Stack.Push(next_pc)
		if err != nil {
			return
		}
		next_pc = target
	case OP_RET:
		next_pc, err = cpu.Stack.Pop()
	case OP_JMP:
		next_pc, err = reg.Get(int(a))
	case OP_JEQ, OP_JNE:
		var target uint8
		target, err = reg.Get(int(a))
		if err != nil {
			return
		}
		equal := reg.GetFlag(FLAG_E) != 0
		if equal == (op == OP_JEQ) {
			next_pc = target
		}
	case OP_INT:
		var line uint8
		line, err = reg.Get(int(a))
		if err != nil {
			return
		}
		cpu.Raise(int(line))
	case OP_IRET:
		next_pc, err = cpu.interruptReturn()
	default:
		err = ErrInstruction{Pc: pc, Opcode: op}
	}

	if err != nil {
		return
	}

	reg.Pc = next_pc
	cpu.Ticks++

	return
}

// interrupt enters the handler of the lowest pending, unmasked line.
//
// The frame is PC, FL, R0..R6 pushed in that order; R7 is the stack
// pointer itself and comes back as the frame is popped.
func (cpu *Cpu) interrupt() (err error) {
	if !cpu.interrupts {
		return
	}

	reg := &cpu.Registers
	pending := reg.IM() & reg.IS()
	if pending == 0 {
		return
	}

	line := bits.TrailingZeros8(pending)
	reg.SetIS(reg.IS() &^ (1 << line))
	cpu.interrupts = false

	frame := []uint8{reg.Pc, reg.Fl}
	frame = append(frame, reg.R[:REG_SP]...)
	for _, value := range frame {
		err = cpu.Stack.Push(value)
		if err != nil {
			return
		}
	}

	vector, err := cpu.Memory.Read(VECTOR_BASE + line)
	if err != nil {
		return
	}

	if cpu.Verbose {
		cpu.logger().Printf("cpu: interrupt %d -> %02x", line, vector)
	}

	reg.Pc = vector
	return
}

// interruptReturn pops the frame pushed by interrupt and re-enables
// interrupt delivery. It returns the interrupted PC.
func (cpu *Cpu) interruptReturn() (pc uint8, err error) {
	reg := &cpu.Registers

	for n := REG_SP - 1; n >= 0; n-- {
		reg.R[n], err = cpu.Stack.Pop()
		if err != nil {
			return
		}
	}

	reg.Fl, err = cpu.Stack.Pop()
	if err != nil {
		return
	}

	pc, err = cpu.Stack.Pop()
	if err != nil {
		return
	}

	cpu.interrupts = true
	return
}
