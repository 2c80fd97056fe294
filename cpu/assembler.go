// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ls8/internal"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var (
	reLabel     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reChar      = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	isSeparator = func(r rune) bool { return r == ' ' || r == '\t' || r == ',' }
)

// Assembler is a single pass assembler for the LS8, with a final link pass
// for label references.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Lines   []Line // List of generated lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.

	addr int // Address of the next generated byte.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Defines returns the equates in force before the first line is parsed.
func (asm *Assembler) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(sysEquate), Defines(), maps.All(asm.predefine))
}

// valueOf returns the value of a simple numeric word.
// Negative values down to -128 are stored as two's complement.
func (asm *Assembler) valueOf(word string) (value uint8, err error) {
	v64, err := strconv.ParseInt(word, 0, 16)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < -128 || v64 > 0xff {
		err = ErrValueRange
		return
	}

	value = uint8(v64)

	return
}

// addressOf returns the value of a word used as an address or count.
func (asm *Assembler) addressOf(word string, limit int64) (value int, err error) {
	v64, err := strconv.ParseInt(word, 0, 16)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 || v64 > limit {
		err = ErrValueRange
		return
	}

	value = int(v64)

	return
}

// byteOf returns the value of an immediate word, or a link if the word
// names a label.
func (asm *Assembler) byteOf(word string, index int) (value uint8, link *Link, err error) {
	value, err = asm.valueOf(word)
	if err == nil {
		return
	}

	_, isReg := ParseReg(word)
	if !isReg && reLabel.MatchString(word) {
		err = nil
		link = &Link{Index: index, Label: word}
	}

	return
}

// regOf returns the encoding of a register operand.
func (asm *Assembler) regOf(word string) (value uint8, err error) {
	reg, ok := ParseReg(word)
	if !ok {
		err = ErrRegisterInvalid
		return
	}

	value = uint8(reg)

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 64)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for label, addr := range asm.Label {
		pred[label] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// stripComment removes a ';' or '#' comment, ignoring quoted characters.
func stripComment(text string) string {
	quoted := false
	for n, r := range text {
		switch {
		case r == '\'':
			quoted = !quoted
		case !quoted && (r == ';' || r == '#'):
			return text[:n]
		}
	}
	return text
}

// parseLine parses a single line into words, handling equates and labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, isSeparator)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.addr
		words = words[1:]
	}

	return
}

// emit appends a line of generated bytes at the current address.
func (asm *Assembler) emit(lineno int, words []string, bytes []uint8, links []Link) (err error) {
	if len(bytes) == 0 {
		return
	}

	if asm.addr+len(bytes) > MEMORY_SIZE {
		err = ErrImageSize
		return
	}

	asm.Lines = append(asm.Lines, Line{
		LineNo: lineno,
		Addr:   asm.addr,
		Words:  words,
		Bytes:  bytes,
		Links:  links,
	})
	asm.addr += len(bytes)

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	var bytes []uint8
	var links []Link

	args := words[1:]

	switch mnemonic := strings.ToUpper(words[0]); mnemonic {
	case ".ORG":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var addr int
		addr, err = asm.addressOf(args[0], MEMORY_SIZE-1)
		if err != nil {
			return
		}
		if addr < asm.addr {
			err = ErrOrgOverlap
			return
		}
		asm.addr = addr
		return
	case "DB":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, arg := range args {
			var value uint8
			var link *Link
			value, link, err = asm.byteOf(arg, n)
			if err != nil {
				return
			}
			if link != nil {
				links = append(links, *link)
			}
			bytes = append(bytes, value)
		}
	case "DS":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var count int
		count, err = asm.addressOf(args[0], MEMORY_SIZE)
		if err != nil {
			return
		}
		bytes = make([]uint8, count)
	default:
		op, ok := OpcodeOf(mnemonic)
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		if len(args) < op.Operands() {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > op.Operands() {
			err = ErrOpcodeExtraArgs
			return
		}
		bytes = append(bytes, uint8(op))
		for n, arg := range args {
			var value uint8
			if op == OP_LDI && n == 1 {
				var link *Link
				value, link, err = asm.byteOf(arg, len(bytes))
				if link != nil {
					links = append(links, *link)
				}
			} else {
				value, err = asm.regOf(arg)
			}
			if err != nil {
				return
			}
			bytes = append(bytes, value)
		}
	}

	err = asm.emit(lineno, words, bytes, links)

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
			prog = nil
		}
	}()

	if asm.Label == nil {
		asm.Label = make(map[string]int, 16)
	}
	clear(asm.Label)
	asm.Lines = asm.Lines[:0]
	asm.addr = 0
	asm.Equate = maps.Collect(asm.Defines())

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Lines {
		ln := &asm.Lines[n]
		for _, link := range ln.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				lineno = ln.LineNo
				line = strings.Join(ln.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			ln.Bytes[link.Index] = uint8(addr)
		}
	}

	prog = &Program{
		Lines: slices.Clone(asm.Lines),
	}

	return
}
