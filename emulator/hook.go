package emulator

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ezrec/ls8/cpu"
)

// Hook runs a Lua function before every tick.
//
// The script must define tick(pc, opcode); returning false stops the
// emulator. Scripts can inspect and alter the machine with reg(n),
// set_reg(n, v), peek(addr), poke(addr, v), raise(line) and flags();
// disassemble(op, a, b) renders an instruction.
type Hook struct {
	L    *lua.LState
	emu  *Emulator
	tick lua.LValue
}

// SetHook compiles source and attaches it to the emulator, replacing
// any earlier hook.
func (emu *Emulator) SetHook(name string, source string) (err error) {
	hook := &Hook{
		L:   lua.NewState(),
		emu: emu,
	}

	hook.register()

	fn, err := hook.L.Load(strings.NewReader(source), name)
	if err != nil {
		hook.Close()
		return
	}

	hook.L.Push(fn)
	err = hook.L.PCall(0, lua.MultRet, nil)
	if err != nil {
		hook.Close()
		return
	}

	hook.tick = hook.L.GetGlobal("tick")
	if hook.tick.Type() != lua.LTFunction {
		hook.Close()
		err = ErrHookMissing
		return
	}

	emu.Close()
	emu.hook = hook

	return
}

// Close releases the Lua state.
func (hook *Hook) Close() {
	hook.L.Close()
}

// Tick calls the script's tick function with the upcoming PC and opcode.
func (hook *Hook) Tick() (stop bool, err error) {
	L := hook.L
	pc := hook.emu.Cpu.Registers.Pc
	opcode, _ := hook.emu.Cpu.Peek(int(pc))

	err = L.CallByParam(lua.P{
		Fn:      hook.tick,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(pc), lua.LNumber(opcode))
	if err != nil {
		return
	}

	ret := L.Get(-1)
	L.Pop(1)

	stop = ret == lua.LFalse
	return
}

// register installs the machine access functions.
func (hook *Hook) register() {
	L := hook.L
	machine := hook.emu.Cpu

	fail := func(L *lua.LState, err error) int {
		L.RaiseError("%v", err)
		return 0
	}

	functions := map[string]lua.LGFunction{
		"reg": func(L *lua.LState) int {
			value, err := machine.Registers.Get(L.CheckInt(1))
			if err != nil {
				return fail(L, err)
			}
			L.Push(lua.LNumber(value))
			return 1
		},
		"set_reg": func(L *lua.LState) int {
			err := machine.Registers.Set(L.CheckInt(1), uint8(L.CheckInt(2)))
			if err != nil {
				return fail(L, err)
			}
			return 0
		},
		"peek": func(L *lua.LState) int {
			value, err := machine.Peek(L.CheckInt(1))
			if err != nil {
				return fail(L, err)
			}
			L.Push(lua.LNumber(value))
			return 1
		},
		"poke": func(L *lua.LState) int {
			err := machine.Poke(L.CheckInt(1), uint8(L.CheckInt(2)))
			if err != nil {
				return fail(L, err)
			}
			return 0
		},
		"raise": func(L *lua.LState) int {
			machine.Raise(L.CheckInt(1))
			return 0
		},
		"flags": func(L *lua.LState) int {
			L.Push(lua.LNumber(machine.Registers.Fl))
			return 1
		},
		"disassemble": func(L *lua.LState) int {
			op := cpu.Opcode(L.CheckInt(1))
			a := uint8(L.OptInt(2, 0))
			b := uint8(L.OptInt(3, 0))
			L.Push(lua.LString(cpu.Disassemble(op, a, b)))
			return 1
		},
	}

	for name, fn := range functions {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}
