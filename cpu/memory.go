package cpu

const (
	MEMORY_SIZE = 256 // Largest memory addressable by an 8-bit register.
)

// Memory is the flat, byte addressed RAM of the machine.
type Memory struct {
	Data []uint8
}

// NewMemory creates a zeroed memory of size bytes.
func NewMemory(size uint) (mem *Memory) {
	mem = &Memory{
		Data: make([]uint8, size),
	}

	return
}

// Size returns the number of addressable bytes.
func (mem *Memory) Size() int {
	return len(mem.Data)
}

// Read returns the byte at address.
func (mem *Memory) Read(address int) (value uint8, err error) {
	if address < 0 || address >= len(mem.Data) {
		err = ErrAddress(address)
		return
	}

	value = mem.Data[address]
	return
}

// Write stores value at address.
func (mem *Memory) Write(address int, value uint8) (err error) {
	if address < 0 || address >= len(mem.Data) {
		err = ErrAddress(address)
		return
	}

	mem.Data[address] = value
	return
}

// Load copies data into memory starting at origin.
func (mem *Memory) Load(origin int, data []uint8) (err error) {
	for n, value := range data {
		err = mem.Write(origin+n, value)
		if err != nil {
			return
		}
	}

	return
}

// Reset zeros the memory.
func (mem *Memory) Reset() {
	clear(mem.Data)
}
