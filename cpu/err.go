package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrMemoryBounds       = errors.New(f("memory address out of bounds"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrDivideByZero       = errors.New(f("divide by zero"))
	ErrInstructionUnknown = errors.New(f("unknown instruction"))
	ErrAluOpUnknown       = errors.New(f("unknown alu operation"))
	ErrHalted             = errors.New(f("cpu halted"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrDataSyntax         = errors.New(f("data syntax"))
)

// ErrAddress is a memory access outside of the memory array.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%02x out of bounds", int(ea))
}

func (ea ErrAddress) Is(err error) bool {
	return err == ErrMemoryBounds
}

// ErrRegister is a register index outside of R0..R7.
type ErrRegister int

func (er ErrRegister) Error() string {
	return f("register %d invalid", int(er))
}

func (er ErrRegister) Is(err error) bool {
	return err == ErrRegisterInvalid
}

// ErrInstruction identifies an opcode the decoder does not know, and where it was found.
type ErrInstruction struct {
	Pc     uint8
	Opcode Opcode
}

func (ei ErrInstruction) Error() string {
	return f("unknown instruction 0b%08b at 0x%02x", uint8(ei.Opcode), ei.Pc)
}

func (ei ErrInstruction) Is(err error) bool {
	return err == ErrInstructionUnknown
}

// ErrAluOp is an operation code the ALU does not implement.
type ErrAluOp AluOp

func (ea ErrAluOp) Error() string {
	return f("unknown alu operation %d", int(ea))
}

func (ea ErrAluOp) Is(err error) bool {
	return err == ErrAluOpUnknown
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}
