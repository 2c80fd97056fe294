// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/interrupt"
	"github.com/ezrec/ls8/io"
)

// fileKeyboard is a keyboard reading from a file it owns.
type fileKeyboard struct {
	io.Keyboard
	file *os.File
}

// Close stops the keyboard, then closes its file.
func (fk *fileKeyboard) Close() (err error) {
	err = fk.Keyboard.Close()
	cerr := fk.file.Close()
	if err == nil {
		err = cerr
	}
	return
}

// openKeyboard returns the keyboard named by source, and whether it put the
// terminal into raw mode.
func openKeyboard(source string) (kb io.Keyboard, raw bool, err error) {
	switch source {
	case "none":
	case "tty":
		if !io.IsTerminal() {
			kb = io.NewStreamKeyboard(os.Stdin)
			return
		}
		var rk *io.RawKeyboard
		rk, err = io.NewRawKeyboard()
		if err != nil {
			return
		}
		kb, raw = rk, true
	case "-":
		kb = io.NewStreamKeyboard(os.Stdin)
	default:
		var inf *os.File
		inf, err = os.Open(source)
		if err != nil {
			return
		}
		kb = &fileKeyboard{Keyboard: io.NewStreamKeyboard(inf), file: inf}
	}

	return
}

func run(filename string, save bool, keyboard string, emu *emulator.Emulator) (err error) {
	inf, err := os.Open(filename)
	if err != nil {
		return
	}
	defer inf.Close()

	err = emu.LoadSource(filename, inf)
	if err != nil {
		return
	}

	if save {
		err = emu.Program.Listing(os.Stdout)
		return
	}

	kb, raw, err := openKeyboard(keyboard)
	if err != nil {
		return
	}
	if kb != nil {
		defer kb.Close()
	}

	emu.Keyboard = kb
	emu.Cpu.Output = &io.Console{Output: os.Stdout, Raw: raw}

	err = emu.Reset()
	if err != nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = emu.Run(ctx)

	return
}

func main() {
	var verbose bool
	var rate int
	var quit int
	var keyboard string
	var save bool

	flag.BoolVar(&verbose, "v", false, "Verbose mode, trace every instruction")
	flag.IntVar(&rate, "r", interrupt.DEFAULT_RATE, "Interrupt source rate, in Hz")
	flag.IntVar(&quit, "q", interrupt.DEFAULT_QUIT_KEY, "Quit key code")
	flag.StringVar(&keyboard, "k", "tty", "Keyboard: tty, - (stdin), a file, or none")
	flag.BoolVar(&save, "s", false, "Assemble only, write the .ls8 listing to stdout")

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: usage: %v [flags] program.ls8|program.asm", os.Args[0], os.Args[0])
	}

	if rate <= 0 {
		log.Fatalf("%v: -r %v: rate must be positive", os.Args[0], rate)
	}

	if quit < 0 || quit > 0xff {
		log.Fatalf("%v: -q %v: not a key code", os.Args[0], quit)
	}

	filename := flag.Arg(0)

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Rate = rate
	emu.QuitKey = uint8(quit)

	err := run(filename, save, keyboard, emu)
	if err != nil {
		log.Fatalf("%v: %v", filename, err)
	}
}
