package cpu

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParseImage reads a program in the .ls8 text format: one 8-bit binary
// literal per line, '#' starting a comment, blank lines ignored.
func ParseImage(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
			prog = nil
		}
	}()

	prog = &Program{}
	addr := 0

	for scanner.Scan() {
		text = scanner.Text()
		lineno += 1

		line, _, _ := strings.Cut(text, "#")
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if len(line) != 8 {
			err = ErrImageLine
			return
		}

		var value uint64
		value, err = strconv.ParseUint(line, 2, 8)
		if err != nil {
			err = ErrImageLine
			return
		}

		if addr >= MEMORY_SIZE {
			err = ErrImageSize
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Addr:   addr,
			Words:  []string{line},
			Bytes:  []uint8{uint8(value)},
		})
		addr++
	}

	err = scanner.Err()

	return
}
