package cpu

import (
	"fmt"
	"strings"
)

// Opcode is the first byte of an instruction.
//
// Bits 7-6 are the number of operand bytes that follow.
type Opcode uint8

const (
	OP_NOP  = Opcode(0b00000000)
	OP_HLT  = Opcode(0b00000001)
	OP_RET  = Opcode(0b00001001)
	OP_IRET = Opcode(0b00001011)

	OP_PRA  = Opcode(0b01000010)
	OP_PRN  = Opcode(0b01000011)
	OP_CALL = Opcode(0b01001000)
	OP_INT  = Opcode(0b01001010)
	OP_POP  = Opcode(0b01001100)
	OP_PUSH = Opcode(0b01001101)
	OP_JMP  = Opcode(0b01010000)
	OP_JEQ  = Opcode(0b01010001)
	OP_JNE  = Opcode(0b01010010)
	OP_INC  = Opcode(0b01111000)
	OP_DEC  = Opcode(0b01111001)

	OP_LD  = Opcode(0b10011000)
	OP_LDI = Opcode(0b10011001)
	OP_ST  = Opcode(0b10011010)
	OP_CMP = Opcode(0b10100000)
	OP_ADD = Opcode(0b10101000)
	OP_SUB = Opcode(0b10101001)
	OP_MUL = Opcode(0b10101010)
	OP_DIV = Opcode(0b10101011)
)

// OperandKind is the interpretation of an operand byte.
type OperandKind int

const (
	OPERAND_REGISTER  = OperandKind(0) // Register index.
	OPERAND_IMMEDIATE = OperandKind(1) // Literal byte.
)

type opcodeInfo struct {
	name     string
	operands []OperandKind
}

var (
	reg1    = []OperandKind{OPERAND_REGISTER}
	reg2    = []OperandKind{OPERAND_REGISTER, OPERAND_REGISTER}
	regImm8 = []OperandKind{OPERAND_REGISTER, OPERAND_IMMEDIATE}
)

var opcodeTable = map[Opcode]opcodeInfo{
	OP_NOP:  {"NOP", nil},
	OP_HLT:  {"HLT", nil},
	OP_RET:  {"RET", nil},
	OP_IRET: {"IRET", nil},
	OP_PRA:  {"PRA", reg1},
	OP_PRN:  {"PRN", reg1},
	OP_CALL: {"CALL", reg1},
	OP_INT:  {"INT", reg1},
	OP_POP:  {"POP", reg1},
	OP_PUSH: {"PUSH", reg1},
	OP_JMP:  {"JMP", reg1},
	OP_JEQ:  {"JEQ", reg1},
	OP_JNE:  {"JNE", reg1},
	OP_INC:  {"INC", reg1},
	OP_DEC:  {"DEC", reg1},
	OP_LD:   {"LD", reg2},
	OP_LDI:  {"LDI", regImm8},
	OP_ST:   {"ST", reg2},
	OP_CMP:  {"CMP", reg2},
	OP_ADD:  {"ADD", reg2},
	OP_SUB:  {"SUB", reg2},
	OP_MUL:  {"MUL", reg2},
	OP_DIV:  {"DIV", reg2},
}

var opcodeNames = func() map[string]Opcode {
	names := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		names[info.name] = op
	}
	return names
}()

// OpcodeOf looks up an opcode by mnemonic, ignoring case.
func OpcodeOf(name string) (op Opcode, ok bool) {
	op, ok = opcodeNames[strings.ToUpper(name)]
	return
}

// Length returns the total instruction length in bytes, opcode included.
func (op Opcode) Length() int {
	return int(op>>6) + 1
}

// Valid returns true if op is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Operands returns the kinds of the operand bytes that follow op.
func (op Opcode) Operands() []OperandKind {
	return opcodeTable[op].operands
}

// String returns the mnemonic of op.
func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("0b%08b", uint8(op))
	}
	return info.name
}

// Disassemble renders an instruction as assembly text.
func Disassemble(op Opcode, a, b uint8) string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("DB 0b%08b", uint8(op))
	}

	var args []string
	for n, kind := range info.operands {
		value := a
		if n == 1 {
			value = b
		}
		switch kind {
		case OPERAND_REGISTER:
			args = append(args, fmt.Sprintf("R%d", value))
		case OPERAND_IMMEDIATE:
			args = append(args, fmt.Sprintf("0x%02X", value))
		}
	}

	if len(args) == 0 {
		return info.name
	}

	return info.name + " " + strings.Join(args, ",")
}
