// Package loader reads and writes LS-8 program files.
//
// A program file holds one byte per line written as binary digits. Text
// after a '#' is a comment; blank lines are ignored. Bytes are placed in
// memory from address 0 in file order.
package loader

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ezrec/ls8/cpu"
)

// File is the top-level AST node of a program file.
type File struct {
	Bytes []*Byte `parser:"@@*"`
}

// Byte is a single binary-digit token.
type Byte struct {
	Pos  lexer.Position
	Bits string `parser:"@Bits"`
}

var ls8Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Bits", Pattern: `[01]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// Parser is the program file parser.
var Parser = participle.MustBuild[File](
	participle.Lexer(ls8Lexer),
	participle.Elide("Whitespace", "Comment"),
)

// Poker is the memory write contract of the machine.
type Poker interface {
	Poke(address int, value uint8) error
}

// Read parses a program file into its bytes.
func Read(input io.Reader, filename string) (data []uint8, err error) {
	file, err := Parser.Parse(filename, input)
	if err != nil {
		lineno := 0
		var perr participle.Error
		if errors.As(err, &perr) {
			lineno = perr.Position().Line
		}
		err = &ErrSyntax{Filename: filename, LineNo: lineno, Err: errors.Join(ErrByteSyntax, err)}
		return
	}

	lastLine := 0
	for _, b := range file.Bytes {
		if b.Pos.Line == lastLine {
			err = &ErrSyntax{Filename: filename, LineNo: b.Pos.Line, Err: ErrLineExtra}
			return
		}
		lastLine = b.Pos.Line

		if len(b.Bits) > 8 {
			err = &ErrSyntax{Filename: filename, LineNo: b.Pos.Line, Err: ErrByteWidth}
			return
		}

		var value uint64
		value, err = strconv.ParseUint(b.Bits, 2, 8)
		if err != nil {
			err = &ErrSyntax{Filename: filename, LineNo: b.Pos.Line, Err: err}
			return
		}
		data = append(data, uint8(value))
	}

	return
}

// Load reads a program file and pokes it into memory from address 0.
// It returns the number of bytes loaded.
func Load(mem Poker, input io.Reader, filename string) (count int, err error) {
	data, err := Read(input, filename)
	if err != nil {
		return
	}

	for addr, value := range data {
		err = mem.Poke(addr, value)
		if err != nil {
			return
		}
		count++
	}

	return
}

// Write emits an assembled program as a program file, with each
// instruction's source as a comment.
func Write(output io.Writer, prog *cpu.Program) (err error) {
	for addr, value := range prog.Binary() {
		line := fmt.Sprintf("%08b", value)
		dbg := prog.Debug(uint8(addr))
		if dbg.Line != nil && dbg.Index == 0 {
			line += " # " + strings.Join(dbg.Words, " ")
		}
		_, err = fmt.Fprintln(output, line)
		if err != nil {
			return
		}
	}

	return
}
