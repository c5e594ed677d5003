package io

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	KEY_INTERRUPT = 0x03 // ^C
	KEY_EOF       = 0x04 // ^D
	KEY_DELETE    = 0x7f
	KEY_BACKSPACE = 0x08
)

// Terminal puts a terminal in raw mode so every keystroke reaches the
// machine unbuffered and unechoed.
type Terminal struct {
	In  *os.File
	Out io.Writer

	state *term.State
}

var _ io.ReadWriter = (*Terminal)(nil)

// OpenTerminal switches in to raw mode. Close restores it.
func OpenTerminal(in *os.File, out io.Writer) (tty *Terminal, err error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		err = ErrNotTerminal
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	tty = &Terminal{
		In:    in,
		Out:   out,
		state: state,
	}

	return
}

// Close restores the terminal mode.
func (tty *Terminal) Close() (err error) {
	if tty.state == nil {
		return
	}

	err = term.Restore(int(tty.In.Fd()), tty.state)
	tty.state = nil

	return
}

// Read returns keystrokes with Enter as '\n' and Delete as backspace.
// ^C and ^D end the input, as raw mode no longer turns them into signals.
func (tty *Terminal) Read(p []byte) (n int, err error) {
	n, err = tty.In.Read(p)
	for i := range n {
		switch p[i] {
		case '\r':
			p[i] = '\n'
		case KEY_DELETE:
			p[i] = KEY_BACKSPACE
		case KEY_INTERRUPT, KEY_EOF:
			return i, io.EOF
		}
	}

	return
}

// Write sends p to the terminal, restoring the carriage return raw
// mode no longer adds after each newline.
func (tty *Terminal) Write(p []byte) (n int, err error) {
	_, err = tty.Out.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return
	}

	n = len(p)
	return
}
