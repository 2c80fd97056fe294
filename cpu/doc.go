// Package cpu implements the execution engine and assembler for the LS8.
//
// The LS8 is an 8-bit machine with 256 bytes of memory, eight general
// registers (r0-r7), a flags register, and a vectored interrupt scheme.
// Register r5 is the interrupt mask (IM), r6 the interrupt status (IS) and
// r7 the stack pointer (SP). The top of memory holds the keyboard mirror at
// 0xf4 and the eight interrupt vectors at 0xf8-0xff.
//
// IM and IS are shared with an interrupt source running on another
// goroutine through Lines; every other piece of state belongs to the Cpu.
//
// The assembler provides a small assembly language for the LS8 instruction
// set, supporting labels, equates, .org, data bytes, and compile-time
// expression evaluation. ParseImage reads the plain .ls8 binary listing.
package cpu
