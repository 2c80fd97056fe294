package io

import (
	"bufio"
	"io"
	"sync"
)

// StreamKeyboard polls key presses from any io.Reader.
//
// A goroutine reads the stream one byte at a time and hands each byte over a
// channel, so that Poll never blocks.
type StreamKeyboard struct {
	keys chan uint8    // Keys read from the stream.
	done chan struct{} // Closed by Close.
	err  error         // Read error, valid once keys is closed.

	closer sync.Once
}

// NewStreamKeyboard starts reading keys from input.
func NewStreamKeyboard(input io.Reader) (kb *StreamKeyboard) {
	kb = &StreamKeyboard{
		keys: make(chan uint8),
		done: make(chan struct{}),
	}

	go kb.read(bufio.NewReader(input))

	return
}

func (kb *StreamKeyboard) read(in *bufio.Reader) {
	defer close(kb.keys)

	for {
		key, err := in.ReadByte()
		if err != nil {
			kb.err = err
			return
		}
		select {
		case kb.keys <- key:
		case <-kb.done:
			kb.err = ErrKeyboardClosed
			return
		}
	}
}

// Poll returns a key if the reader goroutine has one waiting.
// Once the stream fails or ends, Poll returns the read error.
func (kb *StreamKeyboard) Poll() (key uint8, ok bool, err error) {
	select {
	case key, ok = <-kb.keys:
		if !ok {
			err = kb.err
		}
	default:
	}

	return
}

// Close stops delivering keys. A read already blocked on the stream is
// abandoned.
func (kb *StreamKeyboard) Close() (err error) {
	kb.closer.Do(func() {
		close(kb.done)
	})

	return
}
