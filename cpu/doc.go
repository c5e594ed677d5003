// Package cpu implements the microprocessor and assembler for the LS-8 system.
//
// The CPU consists of a program counter (PC), a flags register (FL), eight
// 8-bit general-purpose registers (R0-R7), an ALU, and a descending stack
// that shares the flat byte-addressed memory with program and data. R5, R6
// and R7 double as the interrupt mask (IM), interrupt status (IS) and stack
// pointer (SP).
//
// Each instruction is an opcode byte followed by zero, one or two operand
// bytes; the two high bits of the opcode give the operand count. Tick runs
// one fetch-decode-execute cycle.
//
// The stack has no bounds fence: pushing past address 0 or popping past the
// initial stack pointer silently walks over adjacent memory, as on the real
// machine.
//
// The assembler provides a small assembly language for the LS-8 instruction
// set, supporting labels, equates, raw data, and compile-time expression
// evaluation.
package cpu
