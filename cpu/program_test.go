package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Lines: []Line{
			{LineNo: 1, Addr: 0, Words: []string{"LDI", "R0", "8"},
				Bytes: []uint8{uint8(OP_LDI), 0, 8}},
			{LineNo: 2, Addr: 3, Words: []string{"PRN", "R0"},
				Bytes: []uint8{uint8(OP_PRN), 0}},
			{LineNo: 4, Addr: 5, Words: []string{"HLT"},
				Bytes: []uint8{uint8(OP_HLT)}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Line)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(2)
	assert.NotNil(dbg.Line)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(4)
	assert.NotNil(dbg.Line)
	assert.Equal(2, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(5)
	assert.NotNil(dbg.Line)
	assert.Equal(4, dbg.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(6)
	assert.Nil(dbg.Line)
	assert.Equal(0, dbg.Index)

	dbg = (&Program{}).Debug(0)
	assert.Nil(dbg.Line)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal(6, prog.Size())
	assert.Equal([]uint8{uint8(OP_LDI), 0, 8, uint8(OP_PRN), 0, uint8(OP_HLT)}, prog.Binary())

	// Gaps fill with zero.
	prog.Lines = append(prog.Lines, Line{LineNo: 9, Addr: 0x10, Bytes: []uint8{0xaa}})
	bin := prog.Binary()
	assert.Equal(0x11, len(bin))
	assert.Equal(uint8(0), bin[6])
	assert.Equal(uint8(0xaa), bin[0x10])
}

func TestProgram_Bytes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var addrs []int
	for addr := range prog.Bytes() {
		addrs = append(addrs, addr)
		if addr == 3 {
			break
		}
	}
	assert.Equal([]int{0, 1, 2, 3}, addrs)
}
