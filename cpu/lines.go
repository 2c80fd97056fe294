package cpu

import (
	"sync/atomic"
)

// Interrupt numbers.
const (
	INT_TIMER    = 0 // Timer interrupt, IS bit 0.
	INT_KEYBOARD = 1 // Keyboard interrupt, IS bit 1.
)

// Lines is the interrupt state shared between the Cpu and an interrupt
// source on another goroutine.
//
// The source only sets IS bits, replaces the last key and requests a quit;
// it reads IM and the interrupts-enabled flag. Everything else is written by
// the Cpu alone.
type Lines struct {
	status  atomic.Uint32 // IS (r6)
	mask    atomic.Uint32 // IM (r5)
	enabled atomic.Bool   // Interrupts enabled
	key     atomic.Uint32 // Last key pressed
	quit    atomic.Bool   // Termination requested
}

// Permitted returns true if interrupts are enabled and the line is unmasked.
func (ln *Lines) Permitted(line int) bool {
	return ln.enabled.Load() && (ln.mask.Load()&(1<<(line&7))) != 0
}

// Raise sets the IS bit for the line.
func (ln *Lines) Raise(line int) {
	ln.status.Or(1 << (line & 7))
}

// SetKey records the last key pressed.
func (ln *Lines) SetKey(key uint8) {
	ln.key.Store(uint32(key))
}

// RequestQuit asks the Cpu to halt at the end of its current iteration.
func (ln *Lines) RequestQuit() {
	ln.quit.Store(true)
}

// Key returns the last key pressed.
func (ln *Lines) Key() uint8 {
	return uint8(ln.key.Load())
}

// QuitRequested returns true once a quit has been requested.
func (ln *Lines) QuitRequested() bool {
	return ln.quit.Load()
}

// Status returns IS.
func (ln *Lines) Status() uint8 {
	return uint8(ln.status.Load())
}

// Mask returns IM.
func (ln *Lines) Mask() uint8 {
	return uint8(ln.mask.Load())
}

// Enabled returns true if interrupts may be serviced.
func (ln *Lines) Enabled() bool {
	return ln.enabled.Load()
}

func (ln *Lines) reset() {
	ln.status.Store(0)
	ln.mask.Store(0)
	ln.enabled.Store(true)
	ln.key.Store(0)
	ln.quit.Store(false)
}

// update moves IS from old, the value last read, to value. Only the bits
// that differ are touched, so a bit raised since old was read survives.
func (ln *Lines) update(old, value uint8) {
	if cleared := old &^ value; cleared != 0 {
		ln.status.And(^uint32(cleared))
	}
	if set := value &^ old; set != 0 {
		ln.status.Or(uint32(set))
	}
}

func (ln *Lines) acknowledge(line int) {
	ln.status.And(^uint32(1 << (line & 7)))
}
