package cpu

import (
	"strings"
)

// Reg is a register index.
type Reg int

//go:generate go tool stringer -linecomment -type=Reg
const (
	REG_R0 = Reg(0) // r0
	REG_R1 = Reg(1) // r1
	REG_R2 = Reg(2) // r2
	REG_R3 = Reg(3) // r3
	REG_R4 = Reg(4) // r4
	REG_IM = Reg(5) // im
	REG_IS = Reg(6) // is
	REG_SP = Reg(7) // sp
)

// REG_MASK isolates the register number in an operand byte.
const REG_MASK = 0b0000_0111

// RegOf decodes a register operand byte.
func RegOf(operand uint8) Reg {
	return Reg(operand & REG_MASK)
}

var regName = map[string]Reg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_IM,
	"r6": REG_IS,
	"r7": REG_SP,
	"im": REG_IM,
	"is": REG_IS,
	"sp": REG_SP,
}

// ParseReg parses a register name (r0-r7, im, is, sp), ignoring case.
func ParseReg(name string) (reg Reg, ok bool) {
	reg, ok = regName[strings.ToLower(name)]
	return
}
