package vm

import "github.com/oisee/robotvm/isa"

// fetch4 reads the 4-byte instruction window starting at pc. Bytes past
// the end of the ROM arena read as zero rather than panicking — only
// opcodes that actually need a given payload byte will ever look past
// what pass 2 burned there.
func (m *VM) fetch4(pc uint16) isa.Record {
	var rec isa.Record
	for i := 0; i < 4; i++ {
		addr := int(pc) + i
		if addr < ROMSize {
			rec[i] = m.rom[addr]
		}
	}
	return rec
}

// Step decodes and executes exactly one instruction. Step never consults
// the halt bit — a host that wants to stop on halt calls IsHalted itself,
// or uses Run.
func (m *VM) Step() {
	oldPC := m.pc
	rec := m.fetch4(oldPC)
	op := isa.Opcode(rec[0])

	shape, ok := isa.ShapeOf(op)
	if !ok {
		m.illegal()
		return
	}
	length := uint16(shape.Len())

	m.execute(op, shape, rec)

	if m.pc == oldPC {
		m.pc = oldPC + length
	}
	if m.pc > m.rwp {
		m.halted = true
	}
}

// Run clears the halt bit and steps until it is set again.
func (m *VM) Run() {
	m.halted = false
	for !m.halted {
		m.Step()
	}
}

// illegal sets both sticky error flags and halts. This is the disposition
// for an invalid opcode, and — deliberately — for RECV/SEND: those
// mnemonics assemble but remain semantically inert at runtime.
func (m *VM) illegal() {
	m.illegalInstruction = true
	m.onFire = true
	m.halted = true
}
