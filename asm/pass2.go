package asm

import (
	"fmt"

	"github.com/oisee/robotvm/isa"
	"github.com/oisee/robotvm/vm"
)

// secondPass re-deduces each line's operand shape — now with every label
// reference holding its resolved address — and burns the encoded bytes
// into v's ROM. The length it emits for a line must exactly match what
// firstPass simulated; a mismatch means the two passes disagreed about a
// shape and is a bug in the emitter or the deducer, not a user-correctable
// source error.
func (a *Assembler) secondPass(v *vm.VM) error {
	addr := v.RWP()
	for i, line := range a.lines {
		shape, _, err := shapesFor(line)
		if err != nil {
			return err
		}

		operands := make([]isa.Operand, len(line.Params))
		for j, p := range line.Params {
			if p.Kind == ParamRegister {
				operands[j] = isa.RegOperand(p.Register)
			} else {
				operands[j] = isa.NumOperand(p.Value)
			}
		}

		rec, n, err := isa.Emit(line.Mnemonic, []isa.Shape{shape}, operands)
		if err != nil {
			return wrap(line.LineNo, line.Source, ErrEmit, err.Error())
		}
		if n != a.lengths[i] {
			return fmt.Errorf("%w: line %d: pass 1 predicted %d bytes, pass 2 emitted %d",
				ErrEmit, line.LineNo, a.lengths[i], n)
		}

		if err := v.Burn(addr, rec[:n]); err != nil {
			return wrap(line.LineNo, line.Source, ErrEmit, err.Error())
		}
		addr += uint16(n)
	}

	v.SetRWP(addr)
	return nil
}
