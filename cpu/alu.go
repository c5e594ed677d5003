package cpu

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0) // add
	ALU_OP_SUB = AluOp(1) // sub
	ALU_OP_MUL = AluOp(2) // mul
	ALU_OP_DIV = AluOp(3) // div
	ALU_OP_INC = AluOp(4) // inc
	ALU_OP_DEC = AluOp(5) // dec
	ALU_OP_CMP = AluOp(6) // cmp
)

// Alu performs op on a and b.
//
// Arithmetic operations return their result in output, wrapped modulo 256;
// unary operations ignore b. ALU_OP_CMP leaves output at zero and returns
// the FL bits for an unsigned comparison of a against b.
func Alu(op AluOp, a, b uint8) (output uint8, flags uint8, err error) {
	switch op {
	case ALU_OP_ADD:
		output = a + b
	case ALU_OP_SUB:
		output = a - b
	case ALU_OP_MUL:
		output = a * b
	case ALU_OP_DIV:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		output = a / b
	case ALU_OP_INC:
		output = a + 1
	case ALU_OP_DEC:
		output = a - 1
	case ALU_OP_CMP:
		switch {
		case a == b:
			flags = 1 << FLAG_E
		case a > b:
			flags = 1 << FLAG_G
		default:
			flags = 1 << FLAG_L
		}
	default:
		err = ErrAluOp(op)
	}

	return
}

// doAlu applies op to register a (and b), storing the result back in a,
// or in FL for a comparison. Registers are untouched on error.
func (cpu *Cpu) doAlu(op AluOp, a, b int) (err error) {
	va, err := cpu.Registers.Get(a)
	if err != nil {
		return
	}

	var vb uint8
	if op != ALU_OP_INC && op != ALU_OP_DEC {
		vb, err = cpu.Registers.Get(b)
		if err != nil {
			return
		}
	}

	output, flags, err := Alu(op, va, vb)
	if err != nil {
		return
	}

	if op == ALU_OP_CMP {
		cpu.Registers.Fl = (cpu.Registers.Fl &^ FLAG_MASK) | flags
		return
	}

	err = cpu.Registers.Set(a, output)
	return
}
