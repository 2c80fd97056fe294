package cpu

import (
	"fmt"
	"maps"
	"strings"
)

// Opcode is the first byte of an LS8 instruction.
//
// The byte is laid out as AABCDDDD:
//   - AA: number of operand bytes that follow (0, 1 or 2)
//   - B: handled by the ALU
//   - C: the instruction sets PC itself
//   - DDDD: instruction identifier
type Opcode uint8

const (
	OPCODE_OPERANDS_SHIFT = 6            // Shift of the operand count.
	OPCODE_ALU            = Opcode(0x20) // ALU instruction bit.
	OPCODE_SETS_PC        = Opcode(0x10) // Sets PC bit.
)

const (
	OP_NOP  = Opcode(0b0000_0000) // nop
	OP_HLT  = Opcode(0b0000_0001) // hlt
	OP_RET  = Opcode(0b0001_0001) // ret
	OP_IRET = Opcode(0b0001_0011) // iret
	OP_PUSH = Opcode(0b0100_0101) // push
	OP_POP  = Opcode(0b0100_0110) // pop
	OP_PRN  = Opcode(0b0100_0111) // prn
	OP_PRA  = Opcode(0b0100_1000) // pra
	OP_CALL = Opcode(0b0101_0000) // call
	OP_INT  = Opcode(0b0101_0010) // int
	OP_JMP  = Opcode(0b0101_0100) // jmp
	OP_JEQ  = Opcode(0b0101_0101) // jeq
	OP_JNE  = Opcode(0b0101_0110) // jne
	OP_JGT  = Opcode(0b0101_0111) // jgt
	OP_JLT  = Opcode(0b0101_1000) // jlt
	OP_JLE  = Opcode(0b0101_1001) // jle
	OP_JGE  = Opcode(0b0101_1010) // jge
	OP_INC  = Opcode(0b0110_0101) // inc
	OP_DEC  = Opcode(0b0110_0110) // dec
	OP_NOT  = Opcode(0b0110_1001) // not
	OP_LDI  = Opcode(0b1000_0010) // ldi
	OP_LD   = Opcode(0b1000_0011) // ld
	OP_ST   = Opcode(0b1000_0100) // st
	OP_ADD  = Opcode(0b1010_0000) // add
	OP_SUB  = Opcode(0b1010_0001) // sub
	OP_MUL  = Opcode(0b1010_0010) // mul
	OP_DIV  = Opcode(0b1010_0011) // div
	OP_MOD  = Opcode(0b1010_0100) // mod
	OP_CMP  = Opcode(0b1010_0111) // cmp
	OP_AND  = Opcode(0b1010_1000) // and
	OP_OR   = Opcode(0b1010_1010) // or
	OP_XOR  = Opcode(0b1010_1011) // xor
	OP_SHL  = Opcode(0b1010_1100) // shl
	OP_SHR  = Opcode(0b1010_1101) // shr
)

var opcodeName = map[Opcode]string{
	OP_NOP:  "NOP",
	OP_HLT:  "HLT",
	OP_RET:  "RET",
	OP_IRET: "IRET",
	OP_PUSH: "PUSH",
	OP_POP:  "POP",
	OP_PRN:  "PRN",
	OP_PRA:  "PRA",
	OP_CALL: "CALL",
	OP_INT:  "INT",
	OP_JMP:  "JMP",
	OP_JEQ:  "JEQ",
	OP_JNE:  "JNE",
	OP_JGT:  "JGT",
	OP_JLT:  "JLT",
	OP_JLE:  "JLE",
	OP_JGE:  "JGE",
	OP_INC:  "INC",
	OP_DEC:  "DEC",
	OP_NOT:  "NOT",
	OP_LDI:  "LDI",
	OP_LD:   "LD",
	OP_ST:   "ST",
	OP_ADD:  "ADD",
	OP_SUB:  "SUB",
	OP_MUL:  "MUL",
	OP_DIV:  "DIV",
	OP_MOD:  "MOD",
	OP_CMP:  "CMP",
	OP_AND:  "AND",
	OP_OR:   "OR",
	OP_XOR:  "XOR",
	OP_SHL:  "SHL",
	OP_SHR:  "SHR",
}

var mnemonicOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeName))
	for op, name := range maps.All(opcodeName) {
		m[name] = op
	}
	return m
}()

// OpcodeOf returns the opcode for a mnemonic, ignoring case.
func OpcodeOf(mnemonic string) (op Opcode, ok bool) {
	op, ok = mnemonicOpcode[strings.ToUpper(mnemonic)]
	return
}

// Known returns true if the opcode is part of the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeName[op]
	return ok
}

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPCODE_OPERANDS_SHIFT)
}

// Size returns the instruction size in bytes, opcode included.
func (op Opcode) Size() int {
	return op.Operands() + 1
}

// IsAlu returns true if the instruction is executed by the ALU.
func (op Opcode) IsAlu() bool {
	return (op & OPCODE_ALU) != 0
}

// SetsPc returns true if the instruction leaves PC where it put it, and the
// fetch loop must not advance past it.
func (op Opcode) SetsPc() bool {
	return (op & OPCODE_SETS_PC) != 0
}

// String returns the mnemonic, or the hex value for unknown opcodes.
func (op Opcode) String() string {
	name, ok := opcodeName[op]
	if !ok {
		return fmt.Sprintf("0x%02x", uint8(op))
	}
	return name
}
