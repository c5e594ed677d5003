package emulator

import (
	"bytes"
	"errors"
	"io"
	"log"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	lua "github.com/yuin/gopher-lua"

	"github.com/ezrec/ls8/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	defer emu.Close()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(MEMORY_SIZE, emu.Cpu.Memory.Size())
	assert.Equal(0, emu.TimerTicks)
	assert.Equal(0, emu.LineNo())
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	defines := maps.Collect(emu.Defines())

	assert.Equal("0", defines["INT_TIMER"])
	assert.Equal("1", defines["INT_KEYBOARD"])
	assert.Equal("256", defines["MEMORY_SIZE"])
	assert.Equal("0xf4", defines["KEY"])
	assert.Equal("0xa", defines["KEY_ENTER"])
}

// doAssemble assembles program, with the emulator defines, as the
// emulator's listing and resets the machine.
func doAssemble(emu *Emulator, program []string, t *testing.T) (output *bytes.Buffer) {
	asm := &cpu.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}

	output = &bytes.Buffer{}
	emu.Console.Output = output
	emu.Cpu.Logger = log.New(io.Discard, "", 0)

	return
}

func TestEmulatorSingle(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	program := []string{
		"; print8",
		"LDI R0,8",
		"PRN R0",
		"HLT",
	}
	output := doAssemble(emu, program, t)

	for _, line := range emu.Program.Lines {
		assert.Equal(line.LineNo, emu.LineNo())
		assert.Equal(line.Addr, emu.Pc())
		done, err := emu.Tick()
		assert.NoError(err, program[line.LineNo-1])
		assert.Equal(line.Words[0] == "HLT", done)
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(3, emu.Ticks())
	assert.Equal("8\n", output.String())
	assert.Equal(2, emu.Console.Written())
}

func TestEmulatorMult(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	output := doAssemble(emu, []string{
		"    LDI R0, 8",
		"    LDI R1, 9",
		"    MUL R0, R1",
		"    PRN R0",
		"    HLT",
	}, t)

	assert.NoError(emu.Run(0))
	assert.Equal("72\n", output.String())
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	emu.Program = nil
	assert.NoError(emu.Reset())

	output := &bytes.Buffer{}
	emu.Console.Output = output
	assert.NoError(emu.Load([]uint8{0b10011001, 0, 8, 0b01000011, 0, 1}))

	assert.NoError(emu.Run(100))
	assert.Equal("8\n", output.String())
	assert.Equal(0, emu.LineNo())

	small := NewEmulator(4)
	assert.ErrorIs(small.Load([]uint8{0, 0, 0, 0, 0}), cpu.ErrMemoryBounds)
}

func TestEmulatorCall(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	output := doAssemble(emu, []string{
		"    LDI R1, Mult2Print",
		"    LDI R0, 10",
		"    CALL R1",
		"    LDI R0, 15",
		"    CALL R1",
		"    HLT",
		"Mult2Print:",
		"    ADD R0, R0",
		"    PRN R0",
		"    RET",
	}, t)

	assert.NoError(emu.Run(100))
	assert.Equal("20\n30\n", output.String())
	assert.Equal(uint8(cpu.SP_INIT), emu.Cpu.Registers.SP())
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	doAssemble(emu, []string{
		"NOP",
		"; bad",
		"DB 0xff",
		"HLT",
	}, t)

	err := emu.Run(100)
	assert.ErrorIs(err, cpu.ErrInstructionUnknown)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(3, rt.LineNo)
		assert.Equal(uint8(1), rt.Pc)
		assert.Contains(rt.Error(), "line 3 pc 0x01")
	}
	assert.True(emu.Cpu.Halted())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorTickLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	doAssemble(emu, []string{
		"Loop: LDI R0, Loop",
		"      JMP R0",
	}, t)

	err := emu.Run(10)
	assert.ErrorIs(err, ErrTickLimit)
	assert.Equal(10, emu.Ticks())
	assert.False(emu.Cpu.Halted())
}

func TestEmulatorTimer(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	emu.TimerTicks = 20
	output := doAssemble(emu, []string{
		"    LDI R1, Timer",
		"    LDI R2, $(VECTOR_BASE + INT_TIMER)",
		"    ST R2, R1",
		"    LDI IM, $(1 << INT_TIMER)",
		"    LDI R2, Count",
		"    LDI R3, 3",
		"    LDI R4, Loop",
		"Loop:",
		"    LD R0, R2",
		"    CMP R0, R3",
		"    JNE R4",
		"    PRN R0",
		"    HLT",
		"Timer:",
		"    LDI R0, Count",
		"    LD R1, R0",
		"    INC R1",
		"    ST R0, R1",
		"    IRET",
		"Count: DB 0",
	}, t)

	assert.NoError(emu.Run(1000))
	assert.Equal("3\n", output.String())
	assert.Equal(uint8(cpu.SP_INIT), emu.Cpu.Registers.SP())
}

func TestEmulatorKeyboard(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	output := doAssemble(emu, []string{
		"    LDI R1, Key",
		"    LDI R2, $(VECTOR_BASE + INT_KEYBOARD)",
		"    ST R2, R1",
		"    LDI IM, $(1 << INT_KEYBOARD)",
		"    LDI R2, Count",
		"    LDI R3, 3",
		"    LDI R4, Loop",
		"Loop:",
		"    LD R0, R2",
		"    CMP R0, R3",
		"    JNE R4",
		"    HLT",
		"Key:",
		"    LDI R0, KEY",
		"    LD R0, R0",
		"    PRA R0",
		"    LDI R0, Count",
		"    LD R1, R0",
		"    INC R1",
		"    ST R0, R1",
		"    IRET",
		"Count: DB 0",
	}, t)

	// Attach the keyboard once the handler is installed.
	assert.ErrorIs(emu.Run(4), ErrTickLimit)
	emu.Console.Input = strings.NewReader("ok\n")

	// Keys arrive from a goroutine; the spin loop waits for them.
	assert.NoError(emu.Run(100_000_000))
	assert.Equal("ok\n", output.String())
}

func TestEmulatorKeyboardPolled(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	output := doAssemble(emu, []string{
		"    LDI R1, KEY",
		"    LDI R2, Loop",
		"    LDI R3, 'x'",
		"Loop:",
		"    LD R0, R1",
		"    CMP R0, R3",
		"    JNE R2",
		"    PRA R0",
		"    HLT",
	}, t)
	emu.Console.Input = strings.NewReader("abx")

	assert.NoError(emu.Run(100_000_000))
	assert.Equal("x", output.String())
	assert.NotZero(emu.Cpu.Registers.IS() & (1 << INT_KEYBOARD))
}

func TestEmulatorHook(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	defer emu.Close()
	output := doAssemble(emu, []string{
		"LDI R0,8",
		"PRN R0",
		"HLT",
	}, t)

	err := emu.SetHook("hook.lua", `
count = 0
function tick(pc, op)
	count = count + 1
	if disassemble(op, peek(pc + 1), peek(pc + 2)) == "PRN R0" then
		set_reg(0, reg(0) * 5 + 2)
	end
end
`)
	assert.NoError(err)

	assert.NoError(emu.Run(100))
	assert.Equal("42\n", output.String())
	assert.Equal(lua.LNumber(3), emu.hook.L.GetGlobal("count"))
}

func TestEmulatorHookStop(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	defer emu.Close()
	output := doAssemble(emu, []string{
		"LDI R0,8",
		"PRN R0",
		"HLT",
	}, t)

	assert.NoError(emu.SetHook("stop.lua", `
function tick(pc, op)
	if pc == 3 then
		raise(2)
		poke(0x80, flags() + 7)
		return false
	end
	return true
end
`))

	assert.NoError(emu.Run(100))
	assert.Equal("", output.String())
	assert.Equal(3, emu.Pc())
	assert.False(emu.Cpu.Halted())
	assert.Equal(uint8(0b100), emu.Cpu.Registers.IS())
	assert.Equal(uint8(7), emu.Cpu.Memory.Data[0x80])
}

func TestEmulatorHookErrors(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(MEMORY_SIZE)
	defer emu.Close()
	doAssemble(emu, []string{"HLT"}, t)

	assert.ErrorIs(emu.SetHook("none.lua", "x = 1"), ErrHookMissing)
	assert.Error(emu.SetHook("syntax.lua", "function tick("))
	assert.Error(emu.SetHook("fails.lua", "error('boom')"))
	assert.Nil(emu.hook)

	assert.NoError(emu.SetHook("bad.lua", "function tick() reg(9) end"))
	_, err := emu.Tick()
	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Contains(err.Error(), "register 9 invalid")
	assert.False(emu.Cpu.Halted())
}
