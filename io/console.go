// Package io provides the character devices of the LS-8 emulator: a
// console that receives PRN/PRA output and delivers keystrokes, and a raw
// mode terminal to feed it from an interactive session.
package io

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"sync"
)

const (
	KEY_BUFFER = 16 // Keystrokes buffered before the reader blocks.
)

// Console is a character device. Output receives the bytes written by
// the CPU; Input, when set, supplies keystrokes.
type Console struct {
	Input  io.Reader
	Output io.Writer

	mutex   sync.Mutex
	written int
	keys    chan uint8
}

var _ io.Writer = (*Console)(nil)

var _console_defines = map[string]string{
	"KEY_ENTER":     fmt.Sprintf("%#x", '\n'),
	"KEY_BACKSPACE": fmt.Sprintf("%#x", KEY_BACKSPACE),
}

// Defines returns an iter of defines for the console.
func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(_console_defines)
}

// Write sends p to the console output. Without an output the bytes are
// counted and dropped.
func (con *Console) Write(p []byte) (n int, err error) {
	con.mutex.Lock()
	defer con.mutex.Unlock()

	if con.Output == nil {
		n = len(p)
	} else {
		n, err = con.Output.Write(p)
	}
	con.written += n

	return
}

// Written returns the total number of bytes written.
func (con *Console) Written() int {
	con.mutex.Lock()
	defer con.mutex.Unlock()

	return con.written
}

// Keys returns the keystroke channel. The first call starts a goroutine
// reading Input a byte at a time; the channel is closed when Input ends.
// Without an input the channel is nil, and never ready.
func (con *Console) Keys() <-chan uint8 {
	con.mutex.Lock()
	defer con.mutex.Unlock()

	if con.Input == nil {
		return nil
	}

	if con.keys == nil {
		con.keys = make(chan uint8, KEY_BUFFER)
		go con.receive(con.Input, con.keys)
	}

	return con.keys
}

func (con *Console) receive(input io.Reader, keys chan<- uint8) {
	defer close(keys)

	for key := range Receive(input) {
		keys <- key
	}
}

// Receive returns an iterator that yields the bytes of input until it
// ends or fails.
func Receive(input io.Reader) iter.Seq[uint8] {
	return func(yield func(value uint8) bool) {
		var one [1]byte
		for {
			n, err := input.Read(one[:])
			if n == 1 {
				if !yield(one[0]) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}
