package vm

import (
	"testing"

	"github.com/oisee/robotvm/isa"
)

// burn emits one instruction directly via isa.Emit and writes it at addr,
// returning the address just past it. Used to build tiny test programs
// without depending on the asm package (which imports vm).
func burn(t *testing.T, m *VM, addr uint16, mnemonic string, shape isa.Shape, ops ...isa.Operand) uint16 {
	t.Helper()
	rec, n, err := isa.Emit(mnemonic, []isa.Shape{shape}, ops)
	if err != nil {
		t.Fatalf("Emit(%s): %v", mnemonic, err)
	}
	if err := m.Burn(addr, rec[:n]); err != nil {
		t.Fatalf("Burn(%s): %v", mnemonic, err)
	}
	return addr + uint16(n)
}

func TestGetSetGeneralRegisters(t *testing.T) {
	m := New()
	m.Set(isa.R1, 0xFFFF)
	if got := m.GetSigned(isa.R1); got != -1 {
		t.Errorf("GetSigned(R1) = %d, want -1", got)
	}
	if got := m.Get(isa.R1); got != 0xFFFF {
		t.Errorf("Get(R1) = %#04x, want 0xFFFF", got)
	}
}

func TestGetSetSpecialRegisters(t *testing.T) {
	m := New()
	m.Set(isa.PC, 42)
	m.Set(isa.SP, 7)
	m.Set(isa.IX, 99)
	if m.Get(isa.PC) != 42 || m.Get(isa.SP) != 7 || m.Get(isa.IX) != 99 {
		t.Errorf("special registers = %v", m.Registers())
	}
}

func TestResetClearsGeneralRegistersNotStickyFlags(t *testing.T) {
	m := New()
	m.Set(isa.R1, 5)
	m.illegal()
	m.Reset()
	if m.Get(isa.R1) != 0 {
		t.Error("Reset should zero general registers")
	}
	if !m.IllegalInstruction() || !m.OnFire() {
		t.Error("Reset must not clear sticky error flags")
	}
	if m.IsHalted() {
		t.Error("Reset should clear the halt bit")
	}
}

func TestStepAdvancesByEncodedLength(t *testing.T) {
	m := New()
	end := burn(t, m, 0, "NOP", isa.NIL)
	m.SetRWP(end + 1) // leave room so Step doesn't halt
	m.Step()
	if m.Get(isa.PC) != end {
		t.Errorf("PC = %d, want %d", m.Get(isa.PC), end)
	}
}

func TestJumpSetsPCDirectly(t *testing.T) {
	m := New()
	burn(t, m, 0, "JMP", isa.W, isa.NumOperand(100))
	m.SetRWP(200)
	m.Step()
	if m.Get(isa.PC) != 100 {
		t.Errorf("PC = %d, want 100", m.Get(isa.PC))
	}
}

func TestHaltsWhenPCPassesRWP(t *testing.T) {
	m := New()
	end := burn(t, m, 0, "NOP", isa.NIL)
	m.SetRWP(end - 1) // RWP at this instruction's start, so PC lands past it
	m.Step()
	if !m.IsHalted() {
		t.Error("Step should halt once PC exceeds RWP")
	}
}

func TestIllegalOpcodeSetsStickyFlagsAndHalts(t *testing.T) {
	m := New()
	if err := m.Burn(0, []byte{0xFE}); err != nil {
		t.Fatal(err)
	}
	m.SetRWP(10)
	m.Step()
	if !m.IllegalInstruction() || !m.OnFire() || !m.IsHalted() {
		t.Errorf("illegal=%v fire=%v halt=%v, want all true",
			m.IllegalInstruction(), m.OnFire(), m.IsHalted())
	}
}

func TestAddWraps(t *testing.T) {
	m := New()
	m.Set(isa.R1, uint16(int16(32767)))
	m.Set(isa.R2, 1)
	m.execute(isa.OpADD_RR, isa.RR, isa.Record{byte(isa.OpADD_RR), byte(isa.R1), byte(isa.R2), 0})
	if got := m.GetSigned(isa.R1); got != -32768 {
		t.Errorf("R1 = %d, want -32768 (wrapped)", got)
	}
}

func TestNegTwiceRestoresValue(t *testing.T) {
	m := New()
	m.SetSigned(isa.R1, 1234)
	rec := isa.Record{byte(isa.OpNEG_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpNEG_R, isa.R, rec)
	m.execute(isa.OpNEG_R, isa.R, rec)
	if got := m.GetSigned(isa.R1); got != 1234 {
		t.Errorf("R1 = %d, want 1234", got)
	}
}

func TestRolThenRorRestoresValue(t *testing.T) {
	m := New()
	m.Set(isa.R1, 0x8001)
	rol := isa.Record{byte(isa.OpROL_R), byte(isa.R1), 0, 0}
	ror := isa.Record{byte(isa.OpROR_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpROL_R, isa.R, rol)
	if got := m.Get(isa.R1); got != 0x0003 {
		t.Errorf("after ROL, R1 = %#04x, want 0x0003", got)
	}
	m.execute(isa.OpROR_R, isa.R, ror)
	if got := m.Get(isa.R1); got != 0x8001 {
		t.Errorf("after ROL+ROR, R1 = %#04x, want 0x8001", got)
	}
}

func TestBslThenBsrRestoresOnlyWhenTopBitClear(t *testing.T) {
	m := New()
	m.Set(isa.R1, 0x4000) // top bit clear
	bsl := isa.Record{byte(isa.OpBSL_R), byte(isa.R1), 0, 0}
	bsr := isa.Record{byte(isa.OpBSR_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpBSL_R, isa.R, bsl)
	m.execute(isa.OpBSR_R, isa.R, bsr)
	if got := m.Get(isa.R1); got != 0x4000 {
		t.Errorf("R1 = %#04x, want 0x4000 restored", got)
	}

	m.Set(isa.R1, 0x8000) // top bit set: bit is lost on BSL
	m.execute(isa.OpBSL_R, isa.R, bsl)
	m.execute(isa.OpBSR_R, isa.R, bsr)
	if got := m.Get(isa.R1); got == 0x8000 {
		t.Error("R1 should not be restored once the top bit was shifted away")
	}
}

func TestPushPopWordRoundTrip(t *testing.T) {
	m := New()
	m.Set(isa.R1, 0x1234)
	push := isa.Record{byte(isa.OpPUSH_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpPUSH_R, isa.R, push)
	if m.sp != 2 {
		t.Fatalf("SP = %d, want 2 after one word push", m.sp)
	}
	pop := isa.Record{byte(isa.OpPOPW_R), byte(isa.R2), 0, 0}
	m.execute(isa.OpPOPW_R, isa.R, pop)
	if got := m.Get(isa.R2); got != 0x1234 {
		t.Errorf("R2 = %#04x, want 0x1234", got)
	}
	if m.sp != 0 {
		t.Errorf("SP = %d, want 0 after the matching pop", m.sp)
	}
}

func TestPopwAtSPOneDecrementsByOne(t *testing.T) {
	m := New()
	m.sp = 1
	m.stack[0] = 0xAB
	rec := isa.Record{byte(isa.OpPOPW_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpPOPW_R, isa.R, rec)
	if m.sp != 0 {
		t.Errorf("SP = %d, want 0 (SP==1 decrements by 1, not 2)", m.sp)
	}
}

func TestPushAtCapacitySilentlyIgnored(t *testing.T) {
	m := New()
	m.sp = StackSize - 2
	push := isa.Record{byte(isa.OpPUSH_R), byte(isa.R1), 0, 0}
	m.execute(isa.OpPUSH_R, isa.R, push)
	if m.sp != StackSize-2 {
		t.Errorf("SP = %d, want unchanged at capacity", m.sp)
	}
}

func TestPopAtZeroSilentlyIgnored(t *testing.T) {
	m := New()
	rec := isa.Record{byte(isa.OpPOPW_R), byte(isa.R1), 0, 0}
	m.Set(isa.R1, 0x99)
	m.execute(isa.OpPOPW_R, isa.R, rec)
	if m.Get(isa.R1) != 0x99 {
		t.Error("POPW at SP==0 must leave the destination register untouched")
	}
}

func TestJposFiresOnlyAboveOne(t *testing.T) {
	m := New()
	m.SetSigned(isa.R1, 1)
	m.pc = 0
	rec := isa.Record{byte(isa.OpJPOS_RW), byte(isa.R1), 50, 0}
	m.execute(isa.OpJPOS_RW, isa.RW, rec)
	if m.pc != 0 {
		t.Error("JPOS with REG==1 should not jump (preserved quirk: fires only on REG>1)")
	}
	m.SetSigned(isa.R1, 2)
	m.execute(isa.OpJPOS_RW, isa.RW, rec)
	if m.pc != 50 {
		t.Error("JPOS with REG==2 should jump")
	}
}

func TestBlockCopy(t *testing.T) {
	m := New()
	m.ram[10] = 0xAA
	m.ram[11] = 0xBB
	m.Set(isa.R1, 10)
	m.Set(isa.R2, 20)
	m.Set(isa.R3, 2)
	rec := isa.Record{byte(isa.OpBC_RRR), byte(isa.R1), byte(isa.R2), byte(isa.R3)}
	m.execute(isa.OpBC_RRR, isa.RRR, rec)
	if m.ram[20] != 0xAA || m.ram[21] != 0xBB {
		t.Errorf("ram[20:22] = %v, want [0xAA 0xBB]", m.ram[20:22])
	}
}

func TestBlockCopyOutOfRangeFaults(t *testing.T) {
	m := New()
	m.Set(isa.R1, uint16(RAMSize-1))
	m.Set(isa.R2, 0)
	m.Set(isa.R3, 10) // reads past the end of RAM
	rec := isa.Record{byte(isa.OpBC_RRR), byte(isa.R1), byte(isa.R2), byte(isa.R3)}
	m.execute(isa.OpBC_RRR, isa.RRR, rec)
	if !m.IllegalInstruction() || !m.IsHalted() {
		t.Error("out-of-range BC should set illegal_instruction and halt")
	}
	if m.OnFire() {
		t.Error("BC's own fault should not set on_fire (that's reserved for invalid opcodes)")
	}
}

func TestBlockCopyNegativeCountClampsToZero(t *testing.T) {
	m := New()
	m.ram[0] = 0x11
	m.Set(isa.R1, 0)
	m.Set(isa.R2, 5)
	m.SetSigned(isa.R3, -1)
	rec := isa.Record{byte(isa.OpBC_RRR), byte(isa.R1), byte(isa.R2), byte(isa.R3)}
	m.execute(isa.OpBC_RRR, isa.RRR, rec)
	if m.ram[5] != 0 {
		t.Error("a negative count should copy nothing")
	}
}

func TestDupRestrictedToGeneralRegisters(t *testing.T) {
	m := New()
	m.SetSigned(isa.R2, 7)
	rec := isa.Record{byte(isa.OpDUP_R), byte(isa.R2), 0, 0}
	m.execute(isa.OpDUP_R, isa.R, rec)
	if m.GetSigned(isa.R3) != 7 || m.GetSigned(isa.R4) != 7 {
		t.Errorf("DUP R2 should propagate to R3,R4: got R3=%d R4=%d", m.GetSigned(isa.R3), m.GetSigned(isa.R4))
	}
	if m.GetSigned(isa.R1) != 0 {
		t.Error("DUP R2 must not touch R1")
	}
}
