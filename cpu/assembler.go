// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"KEY":         fmt.Sprintf("%#x", KEY_ADDR),
	"VECTOR_BASE": fmt.Sprintf("%#x", VECTOR_BASE),
	"SP_INIT":     fmt.Sprintf("%#x", SP_INIT),
}

// Assembler is a single pass assembler for the LS-8 system.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Line    []Line // List of generated lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register indexes.
var regMap = map[string]int{
	"R0": 0,
	"R1": 1,
	"R2": 2,
	"R3": 3,
	"R4": 4,
	"R5": 5,
	"R6": 6,
	"R7": 7,
	"IM": REG_IM,
	"IS": REG_IS,
	"SP": REG_SP,
}

var reLabel = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var reChar = regexp.MustCompile(`'\\?[^']'`)
var reParen = regexp.MustCompile(`\$\([^\$]*\)`)

// registerOf returns the register index named by word.
func (asm *Assembler) registerOf(word string) (index int, err error) {
	index, ok := regMap[strings.ToUpper(word)]
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// valueOf returns the value of a numeric word.
func (asm *Assembler) valueOf(word string) (value uint8, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < -128 || v64 > 255 {
		err = ErrImmediateRange
		return
	}

	value = uint8(v64)
	return
}

// immediateOf returns the value of a numeric word, or the label to link.
func (asm *Assembler) immediateOf(word string) (value uint8, label string, err error) {
	if reLabel.MatchString(word) {
		label = word
		return
	}

	value, err = asm.valueOf(word)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 32)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// charEval replaces 'x' character literals by their value.
func charEval(line string) string {
	return reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})
}

// splitWords splits on whitespace and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// parseLabels strips leading 'Label:' definitions from line.
func (asm *Assembler) parseLabels(line string) (rest string, err error) {
	rest = strings.TrimSpace(line)
	for {
		colon := strings.Index(rest, ":")
		if colon < 0 {
			return
		}
		label := rest[:colon]
		if strings.ContainsFunc(label, unicode.IsSpace) {
			// Not a label; the colon belongs to later text.
			return
		}
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		rest = strings.TrimSpace(rest[colon+1:])
	}
}

// parseLine parses a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line, err = asm.parseLabels(line)
	if err != nil || len(line) == 0 {
		return
	}

	// DS takes the rest of the line verbatim.
	fields := strings.Fields(line)
	if strings.EqualFold(fields[0], "DS") {
		words = []string{"DS", strings.TrimSpace(line[len(fields[0]):])}
		return
	}

	line = charEval(line)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	// .equ CONST VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// currentAddr gets the current address
func (asm *Assembler) currentAddr() int {
	if len(asm.Line) == 0 {
		return 0
	}

	last := asm.Line[len(asm.Line)-1]

	return last.Addr + len(last.Bytes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Line = asm.Line[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Line {
		op := &asm.Line[n]

		for index, label := range op.Links {
			addr, ok := asm.Label[label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(label)
				return
			}
			op.Bytes[index] = uint8(addr)
		}
	}

	prog = &Program{
		Lines: slices.Clone(asm.Line),
	}

	return
}

// parseData evaluates the DB and DS directives.
func (asm *Assembler) parseData(words []string) (data []uint8, links map[int]string, err error) {
	switch strings.ToUpper(words[0]) {
	case "DS":
		if len(words) < 2 || len(words[1]) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		data = []uint8(words[1])
	case "DB":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint8
			var label string
			value, label, err = asm.immediateOf(word)
			if err != nil {
				return
			}
			if len(label) != 0 {
				if links == nil {
					links = make(map[int]string)
				}
				links[len(data)] = label
			}
			data = append(data, value)
		}
	default:
		err = ErrDataSyntax
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []uint8
	var links map[int]string

	// no-op
	if len(words) == 0 {
		return
	}

	defer func() {
		if len(data) == 0 {
			return
		}
		line := Line{LineNo: lineno, Addr: asm.currentAddr(), Words: words, Bytes: data, Links: links}
		asm.Line = append(asm.Line, line)
	}()

	switch strings.ToUpper(words[0]) {
	case "DB", "DS":
		data, links, err = asm.parseData(words)
		if err != nil {
			data = nil
		}
		return
	}

	op, ok := OpcodeOf(words[0])
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]
	kinds := op.Operands()
	if len(args) < len(kinds) {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > len(kinds) {
		err = ErrOpcodeExtraArgs
		return
	}

	code := []uint8{uint8(op)}
	for n, kind := range kinds {
		var value uint8
		switch kind {
		case OPERAND_REGISTER:
			var index int
			index, err = asm.registerOf(args[n])
			value = uint8(index)
		case OPERAND_IMMEDIATE:
			var label string
			value, label, err = asm.immediateOf(args[n])
			if len(label) != 0 {
				if links == nil {
					links = make(map[int]string)
				}
				links[len(code)] = label
			}
		}
		if err != nil {
			return
		}
		code = append(code, value)
	}

	data = code
	return
}
