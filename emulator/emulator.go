// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/interrupt"
	lsio "github.com/ezrec/ls8/io"
)

const (
	CANCEL_CHECK_TICKS = 4096 // Instructions between context checks.
)

// Emulator state. CPU + program + keyboard.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Keyboard lsio.Keyboard // Keyboard for the interrupt source, if any.
	Rate     int           // Interrupt source cycles per second.
	QuitKey  uint8         // Key that ends the run.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
		Rate:    interrupt.DEFAULT_RATE,
		QuitKey: interrupt.DEFAULT_QUIT_KEY,
	}

	return
}

// LoadSource parses a program. Files named *.ls8 are binary images, all
// others are assembled.
func (emu *Emulator) LoadSource(name string, input io.Reader) (err error) {
	var prog *cpu.Program

	if strings.EqualFold(filepath.Ext(name), ".ls8") {
		prog, err = cpu.ParseImage(input)
	} else {
		asm := &cpu.Assembler{Verbose: emu.Verbose}
		prog, err = asm.Parse(input)
	}
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the CPU and reload the program image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	err = emu.Cpu.Load(emu.Program.Binary())

	return
}

// LineNo returns the source line number for the byte at PC, or 0.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Quit returns true if the last run ended with the quit key.
func (emu *Emulator) Quit() bool {
	return emu.Cpu.Lines().QuitRequested()
}

// Run executes the program until it halts, faults, or is quit, with a fresh
// interrupt source running alongside.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: emu.LineNo(), Pc: emu.Cpu.Pc, Err: err}
		}
	}()

	src := interrupt.NewSource(emu.Cpu.Lines(), emu.Keyboard)
	src.Verbose = emu.Verbose
	src.Rate = emu.Rate
	src.QuitKey = emu.QuitKey

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return src.Run(gctx)
	})

	for done := false; !done; {
		done, err = emu.Cpu.Tick()
		if !done && emu.Cpu.Ticks%CANCEL_CHECK_TICKS == 0 && ctx.Err() != nil {
			err = ctx.Err()
			break
		}
	}

	src.Stop()
	serr := group.Wait()
	if err == nil {
		err = serr
	}

	if emu.Verbose {
		log.Printf("emulator: stopped after %d ticks, quit %v", emu.Cpu.Ticks, emu.Quit())
	}

	return
}
