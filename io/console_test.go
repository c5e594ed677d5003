package io

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Write(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	con := &Console{Output: output}

	n, err := con.Write([]byte("72\n"))
	assert.NoError(err)
	assert.Equal(3, n)
	n, err = con.Write([]byte("A"))
	assert.NoError(err)
	assert.Equal(1, n)

	assert.Equal("72\nA", output.String())
	assert.Equal(4, con.Written())
}

func TestConsole_WriteDiscard(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}

	n, err := con.Write([]byte("hello"))
	assert.NoError(err)
	assert.Equal(5, n)
	assert.Equal(5, con.Written())
}

func TestConsole_WriteError(t *testing.T) {
	assert := assert.New(t)

	failure := errors.New("broken")
	con := &Console{Output: &failingWriter{err: failure}}

	_, err := con.Write([]byte("x"))
	assert.ErrorIs(err, failure)
	assert.Equal(0, con.Written())
}

type failingWriter struct {
	err error
}

func (fw *failingWriter) Write(p []byte) (int, error) {
	return 0, fw.err
}

func TestConsole_Keys(t *testing.T) {
	assert := assert.New(t)

	con := &Console{Input: strings.NewReader("hi\n")}

	keys := con.Keys()
	assert.Equal(keys, con.Keys())

	var got []uint8
	for key := range keys {
		got = append(got, key)
	}
	assert.Equal([]uint8("hi\n"), got)
}

func TestConsole_KeysNoInput(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	assert.Nil(con.Keys())
}

func TestConsole_Defines(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	defines := maps.Collect(con.Defines())
	assert.Equal("0xa", defines["KEY_ENTER"])
	assert.Equal("0x8", defines["KEY_BACKSPACE"])
}

func TestReceive(t *testing.T) {
	assert := assert.New(t)

	var got []uint8
	for key := range Receive(iotest.OneByteReader(strings.NewReader("abc"))) {
		got = append(got, key)
	}
	assert.Equal([]uint8("abc"), got)

	// Data returned with the error still counts.
	got = got[:0]
	for key := range Receive(iotest.DataErrReader(strings.NewReader("z"))) {
		got = append(got, key)
	}
	assert.Equal([]uint8("z"), got)

	// Stops early when the consumer does.
	got = got[:0]
	for key := range Receive(strings.NewReader("abc")) {
		got = append(got, key)
		break
	}
	assert.Equal([]uint8("a"), got)

	got = got[:0]
	for key := range Receive(iotest.ErrReader(errors.New("gone"))) {
		got = append(got, key)
	}
	assert.Empty(got)
}
