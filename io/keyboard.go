// Package io provides the LS8 console devices: keyboards that are polled by
// the interrupt source, and the console writer for PRN and PRA output.
package io

// Keyboard is a source of key presses that can be polled without blocking.
type Keyboard interface {
	// Poll returns the next buffered key, if any.
	// An error means the keyboard can no longer deliver keys.
	Poll() (key uint8, ok bool, err error)
	// Close releases the keyboard and any terminal state it changed.
	Close() error
}
