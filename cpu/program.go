package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Link is a byte of a Line that takes the address of a label.
type Link struct {
	Index int    // Byte within Line.Bytes.
	Label string // Label to link to.
}

// Line is a single line of source with the bytes it generated.
type Line struct {
	LineNo int      // Source line number.
	Addr   int      // Address of the first byte.
	Words  []string // Source words, labels and comments removed.
	Bytes  []uint8  // Generated bytes.
	Links  []Link   // Unresolved label references.
}

// Program is a memory image with its source mapping.
type Program struct {
	Lines []Line
}

// Debug locates the byte at an address within a Program.
type Debug struct {
	*Line
	Index int
}

// Debug returns the line that generated the byte at addr.
// dbg.Line is nil if no line covers the address.
func (prog *Program) Debug(addr uint8) (dbg Debug) {
	for n, line := range prog.Lines {
		if int(addr) >= line.Addr && int(addr) < line.Addr+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: int(addr) - line.Addr,
			}
			break
		}
	}

	return
}

// Bytes returns an iterator over the generated bytes and their addresses.
func (prog *Program) Bytes() iter.Seq2[int, uint8] {
	return func(yield func(addr int, value uint8) bool) {
		for _, line := range prog.Lines {
			for n, value := range line.Bytes {
				if !yield(line.Addr+n, value) {
					return
				}
			}
		}
	}
}

// Binary returns the memory image, with zeros in any gaps.
func (prog *Program) Binary() (image []uint8) {
	for addr, value := range prog.Bytes() {
		for len(image) <= addr {
			image = append(image, 0)
		}
		image[addr] = value
	}

	return
}

// Listing writes the memory image in the .ls8 text format, annotating the
// first byte of each line with its source.
func (prog *Program) Listing(out io.Writer) (err error) {
	w := bufio.NewWriter(out)

	for addr, value := range prog.Binary() {
		dbg := prog.Debug(uint8(addr))
		if dbg.Line != nil && dbg.Index == 0 && len(dbg.Words) > 0 {
			_, err = fmt.Fprintf(w, "%08b # %02X: %v\n", value, addr, strings.Join(dbg.Words, " "))
		} else {
			_, err = fmt.Fprintf(w, "%08b\n", value)
		}
		if err != nil {
			return
		}
	}

	err = w.Flush()

	return
}
