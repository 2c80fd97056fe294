package cpu

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"strings"

	"github.com/ezrec/ls8/internal"
)

// Memory map.
const (
	MEMORY_SIZE  = 256  // Bytes of memory.
	ADDR_KEY     = 0xf4 // Last key pressed mirror.
	ADDR_VECTOR  = 0xf8 // Interrupt vector table, one byte per interrupt.
	STACK_INIT   = 0xf3 // Initial stack pointer.
	VECTOR_COUNT = 8    // Number of interrupt vectors.
)

// Flags register bits, 0b00000LGE.
const (
	FL_EQUAL   = uint8(0b001)
	FL_GREATER = uint8(0b010)
	FL_LESS    = uint8(0b100)
	FL_MASK    = uint8(0b111)
)

var _cpu_defines = map[string]string{
	"KEY":             fmt.Sprintf("%#x", ADDR_KEY),
	"VECTOR":          fmt.Sprintf("%#x", ADDR_VECTOR),
	"VECTOR_TIMER":    fmt.Sprintf("%#x", ADDR_VECTOR+INT_TIMER),
	"VECTOR_KEYBOARD": fmt.Sprintf("%#x", ADDR_VECTOR+INT_KEYBOARD),
	"STACK":           fmt.Sprintf("%#x", STACK_INIT),
	"INT_TIMER":       fmt.Sprintf("%v", INT_TIMER),
	"INT_KEYBOARD":    fmt.Sprintf("%v", INT_KEYBOARD),
}

// Defines returns the memory map and interrupt constants as assembler equates.
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Cpu is the simulation context for the LS8.
type Cpu struct {
	Verbose bool      // Set to enable verbose logging.
	Output  io.Writer // Destination of PRN and PRA.

	Memory [MEMORY_SIZE]uint8 // Main memory.
	Pc     uint8              // Program counter.
	Ir     Opcode             // Instruction register.
	Fl     uint8              // Flags, 0b00000LGE.
	Halted bool               // Set once the run is over.
	Fault  error              // Fatal error that halted the run, if any.
	Ticks  int                // Instructions executed since reset.

	register [8]uint8 // r5 and r6 are kept in lines.
	lines    Lines
}

// NewCpu creates a new CPU in the reset state, printing to os.Stdout.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Output: os.Stdout,
	}

	cpu.Reset()

	return
}

// Lines returns the interrupt state to be shared with an interrupt source.
func (cpu *Cpu) Lines() *Lines {
	return &cpu.lines
}

// Reset the CPU state.
// - Clears memory, registers, flags and PC.
// - Sets SP to its initial value.
// - Enables interrupts and clears any pending quit request.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	clear(cpu.register[:])
	cpu.register[REG_SP] = STACK_INIT
	cpu.Pc = 0
	cpu.Ir = OP_NOP
	cpu.Fl = 0
	cpu.Halted = false
	cpu.Fault = nil
	cpu.Ticks = 0
	cpu.lines.reset()
}

// Load copies an image into memory starting at address 0.
func (cpu *Cpu) Load(image []uint8) (err error) {
	if len(image) > MEMORY_SIZE {
		err = ErrImageSize
		return
	}

	copy(cpu.Memory[:], image)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(image))
	}

	return
}

// Reg returns the value of a register.
func (cpu *Cpu) Reg(reg Reg) uint8 {
	switch reg & REG_MASK {
	case REG_IM:
		return cpu.lines.Mask()
	case REG_IS:
		return cpu.lines.Status()
	default:
		return cpu.register[reg&REG_MASK]
	}
}

// SetReg sets the value of a register.
func (cpu *Cpu) SetReg(reg Reg, value uint8) {
	cpu.writeReg(reg, cpu.Reg(reg), value)
}

// writeReg replaces old, the value of reg read by the instruction, with value.
// IS is never stored outright, as the interrupt source may raise bits in it
// at any time.
func (cpu *Cpu) writeReg(reg Reg, old, value uint8) {
	switch reg & REG_MASK {
	case REG_IM:
		cpu.lines.mask.Store(uint32(value))
	case REG_IS:
		cpu.lines.update(old, value)
	default:
		cpu.register[reg&REG_MASK] = value
	}
}

// Tick executes a single iteration of the fetch-decode-execute loop.
// It returns done once the CPU has halted; err is the fault, if any.
func (cpu *Cpu) Tick() (done bool, err error) {
	if cpu.Halted {
		return true, cpu.Fault
	}

	cpu.Memory[ADDR_KEY] = cpu.lines.Key()

	if cpu.lines.Enabled() {
		pending := cpu.lines.Status() & cpu.lines.Mask()
		if pending != 0 {
			cpu.service(pending)
		}
	}

	pc := cpu.Pc
	cpu.Ir = Opcode(cpu.Memory[pc])

	if cpu.Verbose {
		log.Printf("%v", cpu.Trace())
	}

	handler := dispatch[cpu.Ir]
	if handler == nil {
		err = ErrInstruction{Opcode: cpu.Ir, Pc: pc}
	} else {
		err = handler(cpu, cpu.Memory[pc+1], cpu.Memory[pc+2])
	}
	if err != nil {
		cpu.Halted = true
		cpu.Fault = err
		if cpu.Verbose {
			log.Printf("cpu: fault: %v", err)
		}
		return true, err
	}

	if !cpu.Ir.SetsPc() {
		cpu.Pc += uint8(cpu.Ir.Size())
	}

	cpu.Ticks++

	if cpu.lines.QuitRequested() {
		if cpu.Verbose {
			log.Printf("cpu: quit requested")
		}
		cpu.Halted = true
	}

	return cpu.Halted, nil
}

// Run ticks until the CPU halts, and returns the fault, if any.
func (cpu *Cpu) Run() (err error) {
	for done := false; !done; {
		done, err = cpu.Tick()
	}

	return
}

// service vectors into the handler of the lowest pending interrupt.
// Context is pushed as PC, FL, then r0 through r6.
func (cpu *Cpu) service(pending uint8) {
	for line := range internal.Bits(pending) {
		cpu.lines.enabled.Store(false)
		cpu.lines.acknowledge(line)

		cpu.Push(cpu.Pc)
		cpu.Push(cpu.Fl)
		for reg := REG_R0; reg <= REG_IS; reg++ {
			cpu.Push(cpu.Reg(reg))
		}

		cpu.Pc = cpu.Memory[ADDR_VECTOR+line]

		if cpu.Verbose {
			log.Printf("cpu: interrupt %d, vector 0x%02x", line, cpu.Pc)
		}
		return
	}
}

// Trace returns a single line summary of the CPU state, followed by the top
// page of memory.
func (cpu *Cpu) Trace() string {
	var sb strings.Builder

	pc := cpu.Pc
	fmt.Fprintf(&sb, "TRACE: %02X | %02X %02X %02X |", pc, cpu.Memory[pc], cpu.Memory[pc+1], cpu.Memory[pc+2])
	for reg := REG_R0; reg <= REG_SP; reg++ {
		fmt.Fprintf(&sb, " %02X", cpu.Reg(reg))
	}
	fmt.Fprintf(&sb, " | %03b |", cpu.Fl)
	for addr := 0xf0; addr < MEMORY_SIZE; addr++ {
		fmt.Fprintf(&sb, " %02X", cpu.Memory[addr])
	}

	return sb.String()
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc", "ir", "fl",
		"r0", "r1", "r2", "r3", "r4", "im", "is", "sp",
		"ie", "key",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
		case "ir":
			strval = fmt.Sprintf("%02X %v", uint8(cpu.Ir), cpu.Ir)
		case "fl":
			strval = fmt.Sprintf("%03b", cpu.Fl)
		case "ie":
			strval = "false"
			if cpu.lines.Enabled() {
				strval = "true"
			}
		case "key":
			strval = fmt.Sprintf("%02X", cpu.lines.Key())
		default:
			r, _ := ParseReg(reg)
			strval = fmt.Sprintf("%02X", cpu.Reg(r))
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}
