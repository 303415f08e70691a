// Package vm implements the robot brain's interpreter: register file,
// memory arenas, and the fetch/decode/execute loop over bytecode produced
// by the asm package. It is a flat struct of registers plus fixed memory
// arenas, with a separate fetch/decode stage and execute stage, and a
// String method for tracing.
package vm

import (
	"fmt"
	"strings"

	"github.com/oisee/robotvm/isa"
)

// Memory arena sizes.
const (
	ROMSize   = 8192
	StackSize = 256
	RAMSize   = 4096 - StackSize
)

// Registers is a snapshot of the register file, returned by VM.Registers
// so a caller cannot mutate VM state through an aliased slice.
type Registers struct {
	R1, R2, R3, R4 int16
	PC, SP, IX     uint16
}

// VM is one robot's virtual machine instance. It is not goroutine safe;
// each robot owns exactly one VM and drives it from a single goroutine.
type VM struct {
	gen [isa.NumGeneral]int16 // R1..R4, in that exact order
	pc  uint16
	sp  uint16
	ix  uint16

	rom   [ROMSize]byte
	ram   [RAMSize]byte
	stack [StackSize]byte

	rwp uint16 // ROM write pointer; only the assembler advances this

	halted             bool
	illegalInstruction bool
	onFire             bool
}

// New returns a freshly zeroed VM, arenas included.
func New() *VM {
	return &VM{}
}

// Reset zeroes general registers, PC, and the ROM write pointer, and
// clears the halt bit. RAM, the stack, and ROM contents are left alone —
// a host that wants a fully blank VM reconstructs it.
func (m *VM) Reset() {
	m.gen = [isa.NumGeneral]int16{}
	m.pc = 0
	m.rwp = 0
	m.halted = false
}

// Get reads register r. General registers are sign-extended to uint16 via
// their bit pattern (not their value) so callers that only care about the
// 16-bit encoding — e.g. the bitwise opcodes — don't need a separate path.
func (m *VM) Get(r isa.Register) uint16 {
	switch r {
	case isa.R1:
		return uint16(m.gen[0])
	case isa.R2:
		return uint16(m.gen[1])
	case isa.R3:
		return uint16(m.gen[2])
	case isa.R4:
		return uint16(m.gen[3])
	case isa.PC:
		return m.pc
	case isa.SP:
		return m.sp
	case isa.IX:
		return m.ix
	default:
		return 0
	}
}

// GetSigned reads a general register as a signed 16-bit value. Valid only
// for R1..R4; PC/SP/IX have no signed interpretation.
func (m *VM) GetSigned(r isa.Register) int16 {
	return int16(m.Get(r))
}

// Set writes register r from its 16-bit bit pattern.
func (m *VM) Set(r isa.Register, v uint16) {
	switch r {
	case isa.R1:
		m.gen[0] = int16(v)
	case isa.R2:
		m.gen[1] = int16(v)
	case isa.R3:
		m.gen[2] = int16(v)
	case isa.R4:
		m.gen[3] = int16(v)
	case isa.PC:
		m.pc = v
	case isa.SP:
		m.sp = v
	case isa.IX:
		m.ix = v
	}
}

// SetSigned writes a general register from a signed value.
func (m *VM) SetSigned(r isa.Register, v int16) {
	m.Set(r, uint16(v))
}

// Registers returns a snapshot of the register file.
func (m *VM) Registers() Registers {
	return Registers{
		R1: m.gen[0], R2: m.gen[1], R3: m.gen[2], R4: m.gen[3],
		PC: m.pc, SP: m.sp, IX: m.ix,
	}
}

// IsHalted reports whether the halt bit is set.
func (m *VM) IsHalted() bool { return m.halted }

// IllegalInstruction reports the sticky illegal-instruction flag.
func (m *VM) IllegalInstruction() bool { return m.illegalInstruction }

// OnFire reports the sticky on-fire flag.
func (m *VM) OnFire() bool { return m.onFire }

// ROMSize returns the capacity of the ROM arena.
func (m *VM) ROMSize() int { return ROMSize }

// RWP returns the current ROM write pointer.
func (m *VM) RWP() uint16 { return m.rwp }

// SetRWP sets the ROM write pointer. Used only by the assembler.
func (m *VM) SetRWP(addr uint16) { m.rwp = addr }

// ROMCapacity reports the total size of the ROM arena in bytes (the same
// value as ROMSize), independent of how much has been burned.
func (m *VM) ROMCapacity() int { return ROMSize }

// Burn writes data into ROM at addr and returns an error if it would run
// past the end of the arena. Only the assembler should call this.
func (m *VM) Burn(addr uint16, data []byte) error {
	if int(addr)+len(data) > ROMSize {
		return fmt.Errorf("vm: burn at %#04x would overflow %d-byte ROM", addr, ROMSize)
	}
	copy(m.rom[addr:], data)
	return nil
}

// ROMBytes returns a copy of the burned ROM contents, from address 0 up
// to the current write pointer. Used by disassembly and debugging tools;
// returns a copy rather than a slice of the internal array for the same
// no-aliasing reason as Registers.
func (m *VM) ROMBytes() []byte {
	out := make([]byte, m.rwp)
	copy(out, m.rom[:m.rwp])
	return out
}

// PrintROM renders the burned ROM contents as a disassembly listing, one
// instruction per line.
func (m *VM) PrintROM() string {
	return strings.Join(isa.DisassembleROM(m.ROMBytes()), "\n")
}

// PutStr blits bytes into RAM starting at addr. Used by hosts and tests
// to seed RAM before a run.
func (m *VM) PutStr(addr uint16, data []byte) {
	for i, b := range data {
		m.ram[ramIndex(uint16(int(addr)+i))] = b
	}
}

// ramIndex maps a 16-bit address into the RAM arena defensively: RAM is
// addressed with the same 16-bit space as ROM, but is smaller, so this
// wraps rather than panicking on an out-of-range access. Only BC checks
// bounds explicitly and faults; every other RAM access wraps, so a raw
// byte-slice access can never index out of bounds.
func ramIndex(addr uint16) int {
	return int(addr) % RAMSize
}

func (m *VM) ramReadWord(addr uint16) uint16 {
	lo := m.ram[ramIndex(addr)]
	hi := m.ram[ramIndex(addr+1)]
	return uint16(lo) | uint16(hi)<<8
}

func (m *VM) ramWriteWord(addr uint16, v uint16) {
	m.ram[ramIndex(addr)] = byte(v)
	m.ram[ramIndex(addr+1)] = byte(v >> 8)
}

func (m *VM) ramReadByte(addr uint16) byte {
	return m.ram[ramIndex(addr)]
}

func (m *VM) ramWriteByte(addr uint16, b byte) {
	m.ram[ramIndex(addr)] = b
}

// String renders a compact trace line, used for --verbose step tracing.
func (m *VM) String() string {
	return fmt.Sprintf("{PC:%04x SP:%02x R1:%d R2:%d R3:%d R4:%d halt:%v illegal:%v fire:%v}",
		m.pc, m.sp, m.gen[0], m.gen[1], m.gen[2], m.gen[3], m.halted, m.illegalInstruction, m.onFire)
}
