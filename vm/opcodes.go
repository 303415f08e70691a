package vm

import "github.com/oisee/robotvm/isa"

// execute dispatches a decoded instruction to its semantic handler. This
// is a flat dispatch over a small, dense enum, expressed as a switch over
// Opcode rather than a literal array of function pointers — idiomatic for
// Go and functionally identical to one.
func (m *VM) execute(op isa.Opcode, shape isa.Shape, rec isa.Record) {
	switch op {
	case isa.OpNOP:
		// no-op

	case isa.OpMOV_RM:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.ramReadWord(addr))
	case isa.OpMOV_MR:
		addr, reg := wordAt(rec, 1), regAt(rec, 3)
		m.ramWriteWord(addr, m.Get(reg))
	case isa.OpMOV_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r2))
	case isa.OpMOV_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, w)

	case isa.OpMOVRP_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.ramWriteWord(m.Get(r1), m.Get(r2))
	case isa.OpMOVPR_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.ramReadWord(m.Get(r2)))
	case isa.OpMOVB_RM:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, uint16(m.ramReadByte(addr)))

	case isa.OpSWAP_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		v1, v2 := m.Get(r1), m.Get(r2)
		m.Set(r1, v2)
		m.Set(r2, v1)
	case isa.OpSWAP_RM:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		rv, mv := m.Get(reg), m.ramReadWord(addr)
		m.Set(reg, mv)
		m.ramWriteWord(addr, rv)

	case isa.OpZERO:
		m.gen = [isa.NumGeneral]int16{}

	case isa.OpDUP_R:
		r := regAt(rec, 1)
		if r.General() {
			v := m.gen[r]
			for i := int(r); i < isa.NumGeneral; i++ {
				m.gen[i] = v
			}
		}

	case isa.OpADD_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.Get(reg)+w)
	case isa.OpADD_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)+m.Get(r2))
	case isa.OpADD_RRR:
		r1, r2, r3 := regAt(rec, 1), regAt(rec, 2), regAt(rec, 3)
		m.Set(r1, m.Get(r1)+m.Get(r2)+m.Get(r3))
	case isa.OpSUB_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)-m.Get(r2))
	case isa.OpMUL_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.Get(reg)*w)
	case isa.OpMUL_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)*m.Get(r2))
	case isa.OpNEG_R:
		r := regAt(rec, 1)
		m.SetSigned(r, -m.GetSigned(r))

	case isa.OpAND_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)&m.Get(r2))
	case isa.OpAND_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.Get(reg)&w)
	case isa.OpOR_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)|m.Get(r2))
	case isa.OpOR_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.Get(reg)|w)
	case isa.OpXOR_RR:
		r1, r2 := regAt(rec, 1), regAt(rec, 2)
		m.Set(r1, m.Get(r1)^m.Get(r2))
	case isa.OpXOR_RW:
		reg, w := regAt(rec, 1), wordAt(rec, 2)
		m.Set(reg, m.Get(reg)^w)
	case isa.OpNOT_R:
		r := regAt(rec, 1)
		m.Set(r, ^m.Get(r))

	case isa.OpBSL_R:
		r := regAt(rec, 1)
		m.Set(r, m.Get(r)<<1)
	case isa.OpBSR_R:
		r := regAt(rec, 1)
		m.Set(r, m.Get(r)>>1)
	case isa.OpROL_R:
		r := regAt(rec, 1)
		v := m.Get(r)
		m.Set(r, (v<<1)|(v>>15))
	case isa.OpROR_R:
		r := regAt(rec, 1)
		v := m.Get(r)
		m.Set(r, (v>>1)|((v&1)<<15))

	case isa.OpPUSH_R:
		m.pushWord(m.Get(regAt(rec, 1)))
	case isa.OpPUSH_W:
		m.pushWord(wordAt(rec, 1))
	case isa.OpPUSH_B:
		m.pushByte(rec[1])
	case isa.OpPOPW_R:
		if v, ok := m.popWord(); ok {
			m.Set(regAt(rec, 1), v)
		}
	case isa.OpPOPB_R:
		if b, ok := m.popByte(); ok {
			m.Set(regAt(rec, 1), uint16(b))
		}

	case isa.OpBC_RRR:
		m.blockCopy(regAt(rec, 1), regAt(rec, 2), regAt(rec, 3))

	case isa.OpJMP_W:
		m.pc = wordAt(rec, 1)
	case isa.OpJNEG_RW:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		if m.GetSigned(reg) < 0 {
			m.pc = addr
		}
	case isa.OpJPOS_RW:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		// Preserved quirk: fires on REG > 1, not REG > 0.
		if m.GetSigned(reg) > 1 {
			m.pc = addr
		}
	case isa.OpJZERO_RW:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		if m.GetSigned(reg) == 0 {
			m.pc = addr
		}
	case isa.OpJNZERO_RW:
		reg, addr := regAt(rec, 1), wordAt(rec, 2)
		if m.GetSigned(reg) != 0 {
			m.pc = addr
		}

	case isa.OpHALT:
		m.halted = true

	case isa.OpRECV, isa.OpSEND:
		// Reserved for external I/O ports; no host wiring exists yet.
		m.illegal()

	default:
		m.illegal()
	}
}

func regAt(rec isa.Record, i int) isa.Register {
	return isa.Register(rec[i])
}

func wordAt(rec isa.Record, i int) uint16 {
	return isa.GetWord(rec[i : i+2])
}

func (m *VM) pushWord(v uint16) {
	if m.sp >= StackSize-2 {
		return
	}
	m.stack[m.sp] = byte(v)
	m.stack[m.sp+1] = byte(v >> 8)
	m.sp += 2
}

func (m *VM) pushByte(b byte) {
	if m.sp >= StackSize-1 {
		return
	}
	m.stack[m.sp] = b
	m.sp++
}

// popWord reports ok=false at SP==0, leaving the stack untouched, so the
// caller can skip writing the destination register instead of clobbering
// it with a decoded zero.
func (m *VM) popWord() (uint16, bool) {
	if m.sp == 0 {
		return 0, false
	}
	if m.sp == 1 {
		m.sp--
	} else {
		m.sp -= 2
	}
	return uint16(m.stack[m.sp]) | uint16(m.stack[m.sp+1])<<8, true
}

// popByte reports ok=false at SP==0, leaving the stack untouched.
func (m *VM) popByte() (byte, bool) {
	if m.sp == 0 {
		return 0, false
	}
	m.sp--
	return m.stack[m.sp], true
}

// fault sets the illegal-instruction flag and halts, without setting
// on_fire. The combined illegal+on_fire+halt disposition is reserved for
// an actually-invalid opcode; a BC out-of-range access only sets
// illegal_instruction and halts.
func (m *VM) fault() {
	m.illegalInstruction = true
	m.halted = true
}

// blockCopy implements BC RRR: copy byteCountReg bytes from RAM[srcReg] to
// RAM[dstReg]. Negative byte counts clamp to zero. Both the source and
// destination ranges are bounds-checked against RAM_SIZE, so an unchecked
// destination write can never run off the end of the arena.
func (m *VM) blockCopy(srcReg, dstReg, countReg isa.Register) {
	src := m.Get(srcReg)
	dst := m.Get(dstReg)
	amt := m.GetSigned(countReg)
	if amt < 0 {
		amt = 0
	}
	n := int(amt)

	if int(src)+n > RAMSize || int(dst)+n > RAMSize {
		m.fault()
		return
	}

	// Copy via a staging buffer so overlapping src/dst ranges behave like
	// an atomic block move rather than corrupting themselves mid-copy.
	buf := make([]byte, n)
	copy(buf, m.ram[src:src+uint16(n)])
	copy(m.ram[dst:dst+uint16(n)], buf)
}
