package cpu

// Stack is the descending stack kept in Memory below SP.
//
// SP holds the most recently pushed slot. There is no fence against
// underflow or overflow; a misbehaving program walks over neighbouring
// memory exactly as it would on hardware.
type Stack struct {
	Memory    *Memory
	Registers *Registers
}

// Push decrements SP and stores value at the new SP.
func (s *Stack) Push(value uint8) (err error) {
	sp := s.Registers.SP() - 1
	err = s.Memory.Write(int(sp), value)
	if err != nil {
		return
	}

	s.Registers.SetSP(sp)
	return
}

// Pop reads the value at SP and increments SP.
func (s *Stack) Pop() (value uint8, err error) {
	value, err = s.Peek()
	if err != nil {
		return
	}

	s.Registers.SetSP(s.Registers.SP() + 1)
	return
}

// Peek reads the value at SP without moving it.
func (s *Stack) Peek() (value uint8, err error) {
	return s.Memory.Read(int(s.Registers.SP()))
}

// Depth returns the number of bytes pushed since reset, assuming the
// program has kept the stack balanced.
func (s *Stack) Depth() int {
	return SP_INIT - int(s.Registers.SP())
}

func (s *Stack) Empty() bool {
	return s.Registers.SP() == SP_INIT
}

// Reset empties the stack.
func (s *Stack) Reset() {
	s.Registers.SetSP(SP_INIT)
}
