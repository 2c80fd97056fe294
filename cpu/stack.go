package cpu

// Push decrements SP and writes value at the new top of stack.
func (cpu *Cpu) Push(value uint8) {
	sp := cpu.register[REG_SP] - 1
	cpu.register[REG_SP] = sp
	cpu.Memory[sp] = value
}

// Pop reads the top of stack and increments SP.
func (cpu *Cpu) Pop() (value uint8) {
	sp := cpu.register[REG_SP]
	value = cpu.Memory[sp]
	cpu.register[REG_SP] = sp + 1
	return
}

// Peek returns the top of stack without moving SP.
func (cpu *Cpu) Peek() uint8 {
	return cpu.Memory[cpu.register[REG_SP]]
}
