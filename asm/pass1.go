package asm

import (
	"fmt"

	"github.com/oisee/robotvm/isa"
	"github.com/oisee/robotvm/vm"
)

// shapesFor deduces the ordered candidate shapes for a line's parameter
// block and resolves them against its mnemonic. Both passes call this
// with identical inputs — pass 1 before label values are known, pass 2
// after — since shape deduction depends only on each parameter's kind and
// bracketing, never its resolved value.
func shapesFor(line Line) (isa.Shape, isa.Opcode, error) {
	candidates, ok := isa.ShapesForParamCode(line.ParamCode())
	if !ok {
		return 0, 0, wrap(line.LineNo, line.Source, ErrShape,
			fmt.Sprintf("parameter shape %q has no known encoding", line.ParamCode()))
	}
	op, shape, ok := isa.Resolve(line.Mnemonic, candidates)
	if !ok {
		return 0, 0, wrap(line.LineNo, line.Source, ErrShape,
			fmt.Sprintf("%s has no overload accepting %v", line.Mnemonic, candidates))
	}
	return shape, op, nil
}

// firstPass walks the classified lines once, building the label table and
// the per-line encoded length that simulates the ROM write pointer. It
// then sweeps every line's parameters a second time, resolving label
// references to their now-known addresses.
func (a *Assembler) firstPass() error {
	labels := make(map[string]uint16, len(a.lines))
	lengths := make([]int, len(a.lines))

	var rwp uint32
	for i, line := range a.lines {
		if line.Label != "" {
			if _, dup := labels[line.Label]; dup {
				return wrap(line.LineNo, line.Source, ErrLabel,
					fmt.Sprintf("label %q defined more than once", line.Label))
			}
			labels[line.Label] = uint16(rwp)
		}

		shape, _, err := shapesFor(line)
		if err != nil {
			return err
		}
		lengths[i] = shape.Len()
		rwp += uint32(shape.Len())
	}
	if rwp > uint32(vm.ROMSize) {
		return fmt.Errorf("%w: program is %d bytes, ROM holds %d", ErrEmit, rwp, vm.ROMSize)
	}

	for i, line := range a.lines {
		for j, p := range line.Params {
			if p.Kind != ParamLabel {
				continue
			}
			addr, ok := labels[p.Label]
			if !ok {
				return wrap(line.LineNo, line.Source, ErrLabel,
					fmt.Sprintf("reference to undefined label %q", p.Label))
			}
			a.lines[i].Params[j].Value = addr
		}
	}

	a.labels = labels
	a.lengths = lengths
	a.finalRWP = uint16(rwp)
	return nil
}
