package io

import (
	"os"

	"golang.org/x/term"
)

// RawKeyboard reads single key presses from a terminal on stdin, without
// waiting for a newline.
type RawKeyboard struct {
	*StreamKeyboard

	fd    int
	state *term.State // Terminal state to restore on Close.
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NewRawKeyboard puts the stdin terminal into raw mode and starts polling it.
func NewRawKeyboard() (kb *RawKeyboard, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		err = ErrNotTerminal
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		err = &ErrTerminal{Op: "raw", Err: err}
		return
	}

	kb = &RawKeyboard{
		StreamKeyboard: NewStreamKeyboard(os.Stdin),
		fd:             fd,
		state:          state,
	}

	return
}

// Close stops polling and restores the terminal.
func (kb *RawKeyboard) Close() (err error) {
	kb.StreamKeyboard.Close()

	if kb.state == nil {
		return
	}

	err = term.Restore(kb.fd, kb.state)
	kb.state = nil
	if err != nil {
		err = &ErrTerminal{Op: "restore", Err: err}
	}

	return
}
