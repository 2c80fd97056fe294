package io

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Keyboard errors
	ErrNotTerminal    = errors.New(f("stdin is not a terminal"))
	ErrKeyboardClosed = errors.New(f("keyboard closed"))
)

// ErrTerminal indicates a failure to change or restore the terminal mode.
type ErrTerminal struct {
	Op  string
	Err error
}

func (err *ErrTerminal) Error() string {
	return f("terminal %v: %v", err.Op, err.Err)
}

func (err *ErrTerminal) Unwrap() error {
	return err.Err
}
