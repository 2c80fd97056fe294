package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// newTestCpu returns a Cpu loaded with program, printing to out.
func newTestCpu(t *testing.T, program []uint8, out *bytes.Buffer) (cpu *Cpu) {
	cpu = NewCpu()
	cpu.Output = out
	err := cpu.Load(program)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestOpcode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op       Opcode
		name     string
		operands int
		alu      bool
		setsPc   bool
	}){
		{OP_NOP, "NOP", 0, false, false},
		{OP_HLT, "HLT", 0, false, false},
		{OP_RET, "RET", 0, false, true},
		{OP_IRET, "IRET", 0, false, true},
		{OP_PRN, "PRN", 1, false, false},
		{OP_CALL, "CALL", 1, false, true},
		{OP_INT, "INT", 1, false, true},
		{OP_JNE, "JNE", 1, false, true},
		{OP_INC, "INC", 1, true, false},
		{OP_LDI, "LDI", 2, false, false},
		{OP_ST, "ST", 2, false, false},
		{OP_ADD, "ADD", 2, true, false},
		{OP_SHR, "SHR", 2, true, false},
	}

	for _, entry := range table {
		assert.Equal(entry.name, entry.op.String())
		assert.Equal(entry.operands, entry.op.Operands(), entry.name)
		assert.Equal(entry.operands+1, entry.op.Size(), entry.name)
		assert.Equal(entry.alu, entry.op.IsAlu(), entry.name)
		assert.Equal(entry.setsPc, entry.op.SetsPc(), entry.name)
		assert.True(entry.op.Known(), entry.name)

		op, ok := OpcodeOf(strings.ToLower(entry.name))
		assert.True(ok, entry.name)
		assert.Equal(entry.op, op)
	}

	assert.False(Opcode(0xff).Known())
	assert.Equal("0xff", Opcode(0xff).String())

	_, ok := OpcodeOf("BOGUS")
	assert.False(ok)
}

func TestDispatch(t *testing.T) {
	assert := assert.New(t)

	for n := range 256 {
		op := Opcode(n)
		assert.Equal(op.Known(), dispatch[op] != nil, op.String())
	}
}

func TestReg(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"r5", "IM", "im"} {
		reg, ok := ParseReg(name)
		assert.True(ok, name)
		assert.Equal(REG_IM, reg, name)
	}

	reg, ok := ParseReg("SP")
	assert.True(ok)
	assert.Equal(REG_SP, reg)
	assert.Equal("sp", reg.String())

	_, ok = ParseReg("r8")
	assert.False(ok)

	assert.Equal(REG_R1, RegOf(0b1111_1001))
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Memory[0x10] = 0xaa
	cpu.SetReg(REG_R3, 3)
	cpu.SetReg(REG_SP, 0x80)
	cpu.Fl = FL_LESS
	cpu.Pc = 0x40

	cpu.Reset()

	assert.Equal(uint8(0), cpu.Memory[0x10])
	assert.Equal(uint8(0), cpu.Reg(REG_R3))
	assert.Equal(uint8(STACK_INIT), cpu.Reg(REG_SP))
	assert.Equal(uint8(0), cpu.Fl)
	assert.Equal(uint8(0), cpu.Pc)
	assert.True(cpu.Lines().Enabled())
	assert.False(cpu.Halted)
	assert.NoError(cpu.Fault)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Load(make([]uint8, MEMORY_SIZE)))
	assert.ErrorIs(cpu.Load(make([]uint8, MEMORY_SIZE+1)), ErrImageSize)
}

func TestHalt(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	cpu := newTestCpu(t, []uint8{uint8(OP_HLT)}, out)

	err := cpu.Run()
	assert.NoError(err)
	assert.True(cpu.Halted)
	assert.Equal(1, cpu.Ticks)
	assert.Equal(0, out.Len())

	done, err := cpu.Tick()
	assert.True(done)
	assert.NoError(err)
	assert.Equal(1, cpu.Ticks)
}

func TestPrint(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 0, 8,
		uint8(OP_PRN), 0,
		uint8(OP_LDI), 1, 'A',
		uint8(OP_PRA), 1,
		uint8(OP_HLT),
	}, out)

	assert.NoError(cpu.Run())
	assert.Equal("8\nA", out.String())
	assert.Equal(uint8(11), cpu.Pc)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestPrintFailure(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Output = failWriter{}
	assert.NoError(cpu.Load([]uint8{uint8(OP_PRN), 0, uint8(OP_HLT)}))

	assert.NoError(cpu.Run())
	assert.NoError(cpu.Fault)
}

func TestAlu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     Opcode
		a, b   uint8
		expect uint8
	}){
		{"add", OP_ADD, 0x05, 0x03, 0x08},
		{"add_wrap", OP_ADD, 0xff, 0x02, 0x01},
		{"sub", OP_SUB, 0x05, 0x03, 0x02},
		{"sub_wrap", OP_SUB, 0x01, 0x02, 0xff},
		{"mul", OP_MUL, 0x07, 0x06, 0x2a},
		{"mul_wrap", OP_MUL, 0x10, 0x10, 0x00},
		{"div", OP_DIV, 0x0a, 0x03, 0x03},
		{"mod", OP_MOD, 0x0a, 0x03, 0x01},
		{"and", OP_AND, 0b1100, 0b1010, 0b1000},
		{"or", OP_OR, 0b1100, 0b1010, 0b1110},
		{"xor", OP_XOR, 0b1100, 0b1010, 0b0110},
		{"shl", OP_SHL, 0x81, 0x01, 0x02}, // not 0x81 & 0x01
		{"shl_out", OP_SHL, 0x81, 0x09, 0x00},
		{"shr", OP_SHR, 0x81, 0x01, 0x40}, // not 0x81 & 0x01
		{"shr_out", OP_SHR, 0x81, 0x08, 0x00},
		{"not", OP_NOT, 0x0f, 0x00, 0xf0},
		{"inc", OP_INC, 0x41, 0x00, 0x42},
		{"inc_wrap", OP_INC, 0xff, 0x00, 0x00},
		{"dec", OP_DEC, 0x41, 0x00, 0x40},
		{"dec_wrap", OP_DEC, 0x00, 0x00, 0xff},
	}

	for _, entry := range table {
		program := []uint8{uint8(entry.op), 0, 1}[:entry.op.Size()]
		program = append(program, uint8(OP_HLT))

		cpu := newTestCpu(t, program, &bytes.Buffer{})
		cpu.SetReg(REG_R0, entry.a)
		cpu.SetReg(REG_R1, entry.b)

		assert.NoError(cpu.Run(), entry.name)
		assert.Equal(entry.expect, cpu.Reg(REG_R0), entry.name)
		assert.Equal(entry.b, cpu.Reg(REG_R1), entry.name)
		assert.Equal(uint8(0), cpu.Fl, entry.name)
	}
}

func TestCmp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		a, b uint8
		fl   uint8
	}){
		{1, 1, FL_EQUAL},
		{1, 2, FL_LESS},
		{2, 1, FL_GREATER},
		{0x80, 0x7f, FL_GREATER}, // unsigned
	}

	for _, entry := range table {
		cpu := newTestCpu(t, []uint8{uint8(OP_CMP), 0, 1, uint8(OP_HLT)}, &bytes.Buffer{})
		cpu.SetReg(REG_R0, entry.a)
		cpu.SetReg(REG_R1, entry.b)

		assert.NoError(cpu.Run())
		assert.Equal(entry.fl, cpu.Fl, "%v vs %v", entry.a, entry.b)
		assert.Equal(entry.a, cpu.Reg(REG_R0))
	}
}

func TestDivideByZero(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []Opcode{OP_DIV, OP_MOD} {
		out := &bytes.Buffer{}
		cpu := newTestCpu(t, []uint8{
			uint8(OP_LDI), 0, 10,
			uint8(OP_LDI), 1, 0,
			uint8(op), 0, 1,
			uint8(OP_PRN), 0,
			uint8(OP_HLT),
		}, out)

		err := cpu.Run()
		assert.ErrorIs(err, ErrDivision)
		assert.True(cpu.Halted)
		assert.Equal(err, cpu.Fault)
		assert.Equal(0, out.Len())

		var div ErrDivideByZero
		assert.ErrorAs(err, &div)
		assert.Equal(op, div.Op)
		assert.Equal(uint8(6), div.Pc)
		assert.Equal(uint8(10), cpu.Reg(REG_R0))
	}
}

func TestUnimplemented(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{uint8(OP_NOP), 0xff}, &bytes.Buffer{})

	err := cpu.Run()
	assert.ErrorIs(err, ErrUnimplemented)
	assert.Equal(ErrInstruction{Opcode: 0xff, Pc: 1}, err)
	assert.True(cpu.Halted)
	assert.Equal(uint8(1), cpu.Pc)
}

func TestLoadStore(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 0, 0x80,
		uint8(OP_LDI), 1, 0x5a,
		uint8(OP_ST), 0, 1,
		uint8(OP_LD), 2, 0,
		uint8(OP_HLT),
	}, &bytes.Buffer{})

	assert.NoError(cpu.Run())
	assert.Equal(uint8(0x5a), cpu.Memory[0x80])
	assert.Equal(uint8(0x5a), cpu.Reg(REG_R2))
}

func TestPushPop(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 0, 7,
		uint8(OP_PUSH), 0,
		uint8(OP_LDI), 0, 9,
		uint8(OP_POP), 1,
		uint8(OP_HLT),
	}, &bytes.Buffer{})

	assert.NoError(cpu.Run())
	assert.Equal(uint8(7), cpu.Reg(REG_R1))
	assert.Equal(uint8(9), cpu.Reg(REG_R0))
	assert.Equal(uint8(STACK_INIT), cpu.Reg(REG_SP))
	assert.Equal(uint8(7), cpu.Memory[STACK_INIT-1])
}

func TestCallRet(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 1, 8, // 0x00
		uint8(OP_CALL), 1, // 0x03
		uint8(OP_PRN), 0, // 0x05
		uint8(OP_HLT),        // 0x07
		uint8(OP_LDI), 0, 42, // 0x08
		uint8(OP_RET), // 0x0b
	}, out)

	assert.NoError(cpu.Run())
	assert.Equal("42\n", out.String())
	assert.Equal(uint8(STACK_INIT), cpu.Reg(REG_SP))
	assert.Equal(uint8(0x05), cpu.Memory[STACK_INIT-1])
}

func TestTaken(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op   Opcode
		fl   uint8
		jump bool
	}){
		{OP_JMP, 0, true},
		{OP_JEQ, FL_EQUAL, true},
		{OP_JEQ, FL_LESS, false},
		{OP_JNE, FL_EQUAL, false},
		{OP_JNE, FL_GREATER, true},
		{OP_JNE, 0, true},
		{OP_JGT, FL_GREATER, true},
		{OP_JGT, FL_EQUAL, false},
		{OP_JLT, FL_LESS, true},
		{OP_JLT, FL_GREATER, false},
		{OP_JLE, FL_LESS, true},
		{OP_JLE, FL_EQUAL, true},
		{OP_JLE, FL_GREATER, false},
		{OP_JGE, FL_GREATER, true},
		{OP_JGE, FL_EQUAL, true},
		{OP_JGE, FL_LESS, false},
	}

	for _, entry := range table {
		assert.Equal(entry.jump, taken(entry.op, entry.fl), "%v %03b", entry.op, entry.fl)
	}
}

func TestJump(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op     Opcode
		a, b   uint8
		output string
	}){
		{OP_JEQ, 5, 5, ""},
		{OP_JEQ, 5, 6, "5\n"},
		{OP_JNE, 5, 5, "5\n"},
		{OP_JNE, 5, 6, ""},
		{OP_JLT, 5, 6, ""},
		{OP_JGT, 5, 6, "5\n"},
	}

	for _, entry := range table {
		out := &bytes.Buffer{}
		cpu := newTestCpu(t, []uint8{
			uint8(OP_LDI), 0, entry.a, // 0x00
			uint8(OP_LDI), 1, entry.b, // 0x03
			uint8(OP_LDI), 2, 0x10, // 0x06
			uint8(OP_CMP), 0, 1, // 0x09
			uint8(entry.op), 2, // 0x0c
			uint8(OP_PRN), 0, // 0x0e
			uint8(OP_HLT), // 0x10
		}, out)

		assert.NoError(cpu.Run())
		assert.Equal(entry.output, out.String(), "%v %v %v", entry.op, entry.a, entry.b)
		assert.Equal(uint8(0x11), cpu.Pc)
	}
}

func TestInterrupt(t *testing.T) {
	assert := assert.New(t)

	program := make([]uint8, MEMORY_SIZE)
	copy(program, []uint8{uint8(OP_NOP), uint8(OP_HLT)})
	copy(program[0x20:], []uint8{
		uint8(OP_LDI), 0, 0x99,
		uint8(OP_IRET),
	})
	program[ADDR_VECTOR+INT_KEYBOARD] = 0x20

	cpu := newTestCpu(t, program, &bytes.Buffer{})
	cpu.SetReg(REG_R0, 0x11)
	cpu.SetReg(REG_IM, 0b10)
	cpu.Fl = FL_GREATER
	cpu.Lines().Raise(INT_KEYBOARD)

	// Service, then the handler's LDI.
	done, err := cpu.Tick()
	assert.False(done)
	assert.NoError(err)
	assert.Equal(uint8(0x23), cpu.Pc)
	assert.Equal(uint8(0x99), cpu.Reg(REG_R0))
	assert.Equal(uint8(0), cpu.Reg(REG_IS))
	assert.False(cpu.Lines().Enabled())
	assert.Equal(uint8(STACK_INIT-9), cpu.Reg(REG_SP))
	assert.Equal(uint8(0x00), cpu.Memory[STACK_INIT-1]) // PC
	assert.Equal(FL_GREATER, cpu.Memory[STACK_INIT-2])  // FL
	assert.Equal(uint8(0x11), cpu.Memory[STACK_INIT-3]) // R0
	assert.Equal(uint8(0b10), cpu.Memory[STACK_INIT-8]) // IM

	// No nesting while disabled.
	cpu.Lines().Raise(INT_KEYBOARD)
	done, err = cpu.Tick()
	assert.False(done)
	assert.NoError(err)

	// IRET restored the context.
	assert.Equal(uint8(0x00), cpu.Pc)
	assert.Equal(uint8(0x11), cpu.Reg(REG_R0))
	assert.Equal(FL_GREATER, cpu.Fl)
	assert.Equal(uint8(STACK_INIT), cpu.Reg(REG_SP))
	assert.True(cpu.Lines().Enabled())
	assert.Equal(uint8(0b10), cpu.Reg(REG_IS))

	// The pending bit is serviced again.
	_, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint8(0x23), cpu.Pc)
	assert.Equal(uint8(0), cpu.Reg(REG_IS))
}

func TestStatusUpdate(t *testing.T) {
	assert := assert.New(t)

	var lines Lines
	lines.reset()
	lines.Raise(0)
	lines.Raise(1)

	// Bit 3 is raised after IS was read as 0b011.
	lines.Raise(3)
	lines.update(0b011, 0b110)

	assert.Equal(uint8(0b1110), lines.Status())
}

func TestStatusRaisedWhileRunning(t *testing.T) {
	assert := assert.New(t)

	for run := range 300 {
		cpu := newTestCpu(t, []uint8{
			uint8(OP_LDI), 2, 3,
			uint8(OP_ADD), uint8(REG_IS), 4, // IS += 0
			uint8(OP_JMP), 2,
		}, &bytes.Buffer{})

		done := make(chan error)
		go func() {
			done <- cpu.Run()
		}()

		cpu.Lines().Raise(3)
		cpu.Lines().RequestQuit()

		assert.NoError(<-done, "run %d", run)
		assert.Equal(uint8(1<<3), cpu.Reg(REG_IS), "run %d", run)
	}
}

func TestInterruptPriority(t *testing.T) {
	assert := assert.New(t)

	program := make([]uint8, MEMORY_SIZE)
	program[0x30] = uint8(OP_NOP)
	program[0x40] = uint8(OP_NOP)
	program[ADDR_VECTOR+INT_TIMER] = 0x30
	program[ADDR_VECTOR+INT_KEYBOARD] = 0x40

	cpu := newTestCpu(t, program, &bytes.Buffer{})
	cpu.SetReg(REG_IM, 0b11)
	cpu.Lines().Raise(INT_KEYBOARD)
	cpu.Lines().Raise(INT_TIMER)

	_, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint8(0x31), cpu.Pc)
	assert.Equal(uint8(0b10), cpu.Reg(REG_IS))
}

func TestInterruptMasked(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{uint8(OP_NOP), uint8(OP_HLT)}, &bytes.Buffer{})
	cpu.SetReg(REG_IM, 0b01)
	cpu.Lines().Raise(INT_KEYBOARD)

	assert.NoError(cpu.Run())
	assert.Equal(uint8(2), cpu.Pc)
	assert.Equal(uint8(0b10), cpu.Reg(REG_IS))
	assert.True(cpu.Lines().Enabled())
}

func TestIntInstruction(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 0, 0x09,
		uint8(OP_INT), 0,
		uint8(OP_HLT),
	}, &bytes.Buffer{})

	assert.NoError(cpu.Run())
	assert.Equal(uint8(0b10), cpu.Reg(REG_IS))
	assert.Equal(uint8(6), cpu.Pc)
}

func TestKeyMirror(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{uint8(OP_NOP), uint8(OP_HLT)}, &bytes.Buffer{})
	cpu.Lines().SetKey('x')

	_, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint8('x'), cpu.Memory[ADDR_KEY])
}

func TestQuit(t *testing.T) {
	assert := assert.New(t)

	// Spin forever.
	cpu := newTestCpu(t, []uint8{
		uint8(OP_LDI), 0, 0,
		uint8(OP_JMP), 0,
	}, &bytes.Buffer{})
	cpu.Lines().RequestQuit()

	done, err := cpu.Tick()
	assert.True(done)
	assert.NoError(err)
	assert.True(cpu.Halted)
	assert.NoError(cpu.Run())
}

func TestTrace(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t, []uint8{uint8(OP_LDI), 2, 0x7f}, &bytes.Buffer{})

	trace := cpu.Trace()
	assert.True(strings.HasPrefix(trace, "TRACE: 00 | 82 02 7F | 00 00 00 00 00 00 00 F3 | 000 |"), trace)

	text := cpu.String()
	assert.Contains(text, "   pc: 00\n")
	assert.Contains(text, "   ir: 00 NOP\n")
	assert.Contains(text, "   sp: F3\n")
	assert.Contains(text, "   ie: true\n")
}
