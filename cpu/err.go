package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrUnimplemented = errors.New(f("unimplemented instruction"))
	ErrDivision      = errors.New(f("division by zero"))
	ErrImageSize     = errors.New(f("image exceeds memory"))

	// Image errors
	ErrImageLine = errors.New(f("not an 8-bit binary literal"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrOrgOverlap         = errors.New(f(".org overlaps earlier code"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrValueRange         = errors.New(f("value out of 8-bit range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrInstruction is raised when the fetched opcode has no handler.
type ErrInstruction struct {
	Opcode Opcode
	Pc     uint8
}

func (err ErrInstruction) Error() string {
	return f("unimplemented instruction 0x%02x at 0x%02x", uint8(err.Opcode), err.Pc)
}

func (err ErrInstruction) Is(target error) bool {
	return target == ErrUnimplemented
}

// ErrDivideByZero is raised by DIV or MOD with a zero divisor.
type ErrDivideByZero struct {
	Op Opcode
	Pc uint8
}

func (err ErrDivideByZero) Error() string {
	return f("division by zero in %v at 0x%02x", err.Op.String(), err.Pc)
}

func (err ErrDivideByZero) Is(target error) bool {
	return target == ErrDivision
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
