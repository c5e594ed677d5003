package loader

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	ErrByteWidth  = errors.New(f("more than 8 binary digits"))
	ErrLineExtra  = errors.New(f("more than one byte on a line"))
	ErrByteSyntax = errors.New(f("not a binary byte"))
)

// ErrSyntax locates a problem in a program file.
type ErrSyntax struct {
	Filename string
	LineNo   int
	Err      error
}

func (err *ErrSyntax) Error() string {
	return f("%v:%d: %v", err.Filename, err.LineNo, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}
