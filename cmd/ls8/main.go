// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/io"
	"github.com/ezrec/ls8/loader"
)

func main() {
	var assemble string
	var output string
	var size uint
	var timer int
	var keyboard bool
	var script string
	var limit int
	var verbose bool

	flag.StringVar(&assemble, "a", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "", ".ls8 file to write, do not execute")
	flag.UintVar(&size, "m", emulator.MEMORY_SIZE, "Memory size in bytes")
	flag.IntVar(&timer, "t", 0, "Raise the timer interrupt every N ticks")
	flag.BoolVar(&keyboard, "k", false, "Attach the terminal keyboard")
	flag.StringVar(&script, "l", "", "Lua tick hook script")
	flag.IntVar(&limit, "n", 0, "Stop after N ticks")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if size == 0 || size > cpu.MEMORY_SIZE {
		log.Fatalf("%v: memory size must be 1..%d", os.Args[0], cpu.MEMORY_SIZE)
	}

	emu := emulator.NewEmulator(size)
	defer emu.Close()
	emu.Verbose = verbose
	emu.TimerTicks = timer

	switch {
	case len(assemble) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}

		inf, err := os.Open(assemble)
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}

		if len(output) != 0 {
			ouf, err := os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer ouf.Close()

			err = loader.Write(ouf, emu.Program)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}
	case flag.NArg() == 1:
		name := flag.Arg(0)
		inf, err := os.Open(name)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
		defer inf.Close()

		emu.Program = nil
		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}

		_, err = loader.Load(emu.Cpu, inf, name)
		if err != nil {
			log.Fatalf("%v", err)
		}
	default:
		log.Fatalf("%v: provide a .ls8 file, or -a with an assembly file", os.Args[0])
	}

	if len(script) != 0 {
		source, err := os.ReadFile(script)
		if err != nil {
			log.Fatalf("%v: %v", script, err)
		}
		err = emu.SetHook(script, string(source))
		if err != nil {
			log.Fatalf("%v: %v", script, err)
		}
	}

	var tty *io.Terminal
	emu.Console.Output = os.Stdout
	if keyboard {
		var err error
		tty, err = io.OpenTerminal(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatalf("keyboard: %v", err)
		}
		emu.Console.Input = tty
		emu.Console.Output = tty
	}

	err := emu.Run(limit)
	if tty != nil {
		tty.Close()
	}
	if errors.Is(err, emulator.ErrTickLimit) {
		log.Printf("%v", err)
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}
