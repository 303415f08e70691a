// Package isa defines the robot VM's instruction encoding model: the
// register file layout, the operand-shape taxonomy, and the tables that
// map mnemonic + operand shape to a concrete opcode and back. Both the
// asm package (which emits instructions) and the vm package (which
// decodes and executes them) import isa so they can never disagree about
// what a byte in ROM means.
package isa

// Register indexes the seven VM registers. The numeric values are part of
// the wire format: a register operand in an instruction record is exactly
// this index, encoded as a single byte.
type Register byte

const (
	R1 Register = iota
	R2
	R3
	R4
	PC
	SP
	IX

	numRegisters = 7
)

// NumGeneral is the count of general-purpose accumulators (R1..R4).
const NumGeneral = 4

// registerNames maps a register index back to its assembly mnemonic, used
// by the disassembler and by diagnostics.
var registerNames = [numRegisters]string{
	R1: "R1",
	R2: "R2",
	R3: "R3",
	R4: "R4",
	PC: "PC",
	SP: "SP",
	IX: "IX",
}

// String implements fmt.Stringer.
func (r Register) String() string {
	if int(r) >= len(registerNames) {
		return "R?"
	}
	return registerNames[r]
}

// Valid reports whether r is one of the seven defined registers.
func (r Register) Valid() bool {
	return r < numRegisters
}

// General reports whether r is one of R1..R4, the only registers DUP
// operates on. Other opcodes accept any register.
func (r Register) General() bool {
	return r < NumGeneral
}

// LookupRegister returns the register named by s (case-sensitive: register
// and label names are never folded), or ok=false.
func LookupRegister(s string) (Register, bool) {
	for i, name := range registerNames {
		if name == s {
			return Register(i), true
		}
	}
	return 0, false
}
