package cpu

// compare returns the flags for an unsigned comparison of a and b.
func compare(a, b uint8) uint8 {
	switch {
	case a == b:
		return FL_EQUAL
	case a < b:
		return FL_LESS
	default:
		return FL_GREATER
	}
}

// doAlu performs the requested ALU action on registers a and b, storing the
// result in a. CMP only updates the flags.
func (cpu *Cpu) doAlu(op Opcode, a, b Reg) (err error) {
	input := uint(cpu.Reg(a))
	value := uint(cpu.Reg(b))

	var output uint
	switch op {
	case OP_ADD:
		output = input + value
	case OP_SUB:
		output = input - value
	case OP_MUL:
		output = input * value
	case OP_DIV:
		if value == 0 {
			err = ErrDivideByZero{Op: op, Pc: cpu.Pc}
			return
		}
		output = input / value
	case OP_MOD:
		if value == 0 {
			err = ErrDivideByZero{Op: op, Pc: cpu.Pc}
			return
		}
		output = input % value
	case OP_AND:
		output = input & value
	case OP_OR:
		output = input | value
	case OP_XOR:
		output = input ^ value
	case OP_SHL:
		output = input << value
	case OP_SHR:
		output = input >> value
	case OP_NOT:
		output = ^input
	case OP_INC:
		output = input + 1
	case OP_DEC:
		output = input - 1
	case OP_CMP:
		cpu.Fl = compare(uint8(input), uint8(value))
		return
	default:
		err = ErrInstruction{Opcode: op, Pc: cpu.Pc}
		return
	}

	cpu.writeReg(a, uint8(input), uint8(output&0xff))

	return
}
