// Package asm implements the two-pass assembler: source text in, a
// burned ROM image in a vm.VM out. The pipeline is lex -> classify (both
// channel-driven, see lex.go) -> first pass (label table + simulated ROM
// write pointer) -> second pass (shape re-deduction + emission), run as
// two explicit, synchronous passes so every label is known before any
// instruction referencing it gets encoded.
package asm

import (
	"strings"

	"github.com/oisee/robotvm/vm"
)

// Assembler holds one program's classified source and the label table and
// per-line lengths firstPass derives from it. It is not safe for
// concurrent use, and is meant to be used once per program: call Reset to
// reuse it for another.
type Assembler struct {
	lines    []Line
	labels   map[string]uint16
	lengths  []int
	finalRWP uint16
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Reset discards any parsed program, returning the Assembler to its
// zero state.
func (a *Assembler) Reset() {
	a.lines = nil
	a.labels = nil
	a.lengths = nil
	a.finalRWP = 0
}

// ParseText lexes and classifies source, replacing any previously parsed
// program. It returns the first lex or syntax error encountered, tagged
// with its source line.
func (a *Assembler) ParseText(source string) error {
	a.Reset()

	raw := startLexing(strings.NewReader(source))
	classified := startClassifying(raw)

	var lines []Line
	var firstErr error
	for loe := range classified {
		if loe.err != nil {
			if firstErr == nil {
				firstErr = loe.err
			}
			continue
		}
		if firstErr == nil {
			lines = append(lines, loe.line)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	a.lines = lines
	return nil
}

// FirstPass builds the label table and simulates ROM layout over the
// parsed program. It must run after ParseText and before SecondPass.
func (a *Assembler) FirstPass() error {
	return a.firstPass()
}

// SecondPass re-deduces operand shapes with labels resolved and burns the
// encoded program into v, starting at v's current ROM write pointer (0 for
// a new or reset VM). Label addresses from FirstPass count from 0, so they
// match the burned code only when that pointer starts at 0. It must run
// after FirstPass.
func (a *Assembler) SecondPass(v *vm.VM) error {
	return a.secondPass(v)
}

// Labels returns the address each label resolved to. Valid only after
// FirstPass.
func (a *Assembler) Labels() map[string]uint16 {
	out := make(map[string]uint16, len(a.labels))
	for k, v := range a.labels {
		out[k] = v
	}
	return out
}

// Compile is the convenience path for a host that just wants a program
// burned into a VM in one call: parse, first pass, second pass.
func Compile(source string, v *vm.VM) error {
	a := New()
	if err := a.ParseText(source); err != nil {
		return err
	}
	if err := a.FirstPass(); err != nil {
		return err
	}
	return a.SecondPass(v)
}
