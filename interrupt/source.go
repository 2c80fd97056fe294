// Package interrupt drives the LS8 timer and keyboard interrupt lines from
// a goroutine running alongside the Cpu.
package interrupt

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/io"
)

const (
	DEFAULT_RATE     = 60   // Cycles per second.
	DEFAULT_QUIT_KEY = 0x1b // ESC
)

// Lines is the view of the Cpu interrupt state that a Source may touch.
type Lines interface {
	Permitted(line int) bool
	Raise(line int)
	SetKey(key uint8)
	RequestQuit()
}

var _ Lines = (*cpu.Lines)(nil)

// Source polls the keyboard and keeps the timer for a single Cpu run.
type Source struct {
	Verbose  bool        // If set, logs keys and keyboard failures.
	Keyboard io.Keyboard // Polled once per cycle, if not nil.
	Rate     int         // Cycles per second.
	QuitKey  uint8       // Key that ends the run.

	lines Lines
	ticks int
	stop  atomic.Bool
}

// NewSource creates a new interrupt source for the lines.
func NewSource(lines Lines, keyboard io.Keyboard) (src *Source) {
	src = &Source{
		Keyboard: keyboard,
		Rate:     DEFAULT_RATE,
		QuitKey:  DEFAULT_QUIT_KEY,
		lines:    lines,
	}

	return
}

// Stop asks Run to return at the next cycle boundary.
func (src *Source) Stop() {
	src.stop.Store(true)
}

// Run cycles Rate times per second until stopped, the quit key is read, or
// ctx is done.
func (src *Source) Run(ctx context.Context) (err error) {
	rate := src.Rate
	if rate <= 0 {
		rate = DEFAULT_RATE
	}

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for !src.stop.Load() {
		if src.cycle(rate) {
			return
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}
	}

	return
}

// cycle does a single keyboard poll and timer tick.
// It returns true once the quit key has been read.
func (src *Source) cycle(rate int) (quit bool) {
	if src.Keyboard != nil {
		key, ok, err := src.Keyboard.Poll()
		switch {
		case err != nil:
			if src.Verbose {
				log.Printf("interrupt: keyboard: %v", err)
			}
			src.Keyboard = nil
		case ok && key == src.QuitKey:
			quit = true
		case ok:
			if src.Verbose {
				log.Printf("interrupt: key 0x%02x", key)
			}
			src.lines.SetKey(key)
			if src.lines.Permitted(cpu.INT_KEYBOARD) {
				src.lines.Raise(cpu.INT_KEYBOARD)
			}
		}
	}

	src.ticks = (src.ticks + 1) % rate
	if src.ticks == 0 && src.lines.Permitted(cpu.INT_TIMER) {
		src.lines.Raise(cpu.INT_TIMER)
	}

	if quit {
		if src.Verbose {
			log.Printf("interrupt: quit")
		}
		src.lines.RequestQuit()
	}

	return
}
