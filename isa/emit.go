package isa

import (
	"errors"
	"fmt"
)

// ErrEmitRejected is returned when a mnemonic has no defined opcode for
// the requested operand shape.
var ErrEmitRejected = errors.New("isa: emit rejected")

// Record is a single encoded instruction: opcode byte plus up to three
// payload bytes. Not every record uses all four bytes — Len in the
// returned value says how many of them are meaningful.
type Record [4]byte

// Operand is a tagged union of the two concrete operand kinds the emitter
// accepts: a register index, or a 16-bit numeric value (used for bytes,
// words, pointers and memory addresses alike — the shape determines how
// many of its bits get packed and where).
type Operand struct {
	Reg      Register
	Value    uint16
	Register bool
}

// RegOperand builds a register operand. Value mirrors the register's index
// so a register operand can still be packed into a numeric slot: a
// bracketed-register parameter shares its deduced shape with a plain
// register or a word literal depending on its position, so the packer
// needs a numeric fallback for a register operand too.
func RegOperand(r Register) Operand { return Operand{Reg: r, Value: uint16(r), Register: true} }

// NumOperand builds a numeric operand (byte, word, pointer, or address).
func NumOperand(v uint16) Operand { return Operand{Value: v} }

// Emit resolves mnemonic+candidates to a concrete opcode (exactly as
// Resolve does), validates operands against the resulting shape, and
// packs the instruction record. It performs no I/O and mutates nothing —
// callers are responsible for burning the returned bytes into ROM.
func Emit(mnemonic string, candidates []Shape, operands []Operand) (Record, int, error) {
	op, shape, ok := Resolve(mnemonic, candidates)
	if !ok {
		return Record{}, 0, fmt.Errorf("%w: %s has no overload for shapes %v", ErrEmitRejected, mnemonic, candidates)
	}
	rec, n, err := pack(op, shape, operands)
	if err != nil {
		return Record{}, 0, fmt.Errorf("%w: %s: %s", ErrEmitRejected, mnemonic, err)
	}
	return rec, n, nil
}

func pack(op Opcode, shape Shape, ops []Operand) (Record, int, error) {
	var rec Record
	rec[0] = byte(op)
	n := shape.Len()

	need := func(count int) error {
		if len(ops) != count {
			return fmt.Errorf("shape %s wants %d operand(s), got %d", shape, count, len(ops))
		}
		return nil
	}
	reg := func(i int) (Register, error) {
		if !ops[i].Register {
			return 0, fmt.Errorf("operand %d must be a register for shape %s", i, shape)
		}
		return ops[i].Reg, nil
	}
	num := func(i int) (uint16, error) {
		return ops[i].Value, nil
	}

	switch shape {
	case NIL:
		if err := need(0); err != nil {
			return Record{}, 0, err
		}

	case R, B:
		if err := need(1); err != nil {
			return Record{}, 0, err
		}
		if shape == R {
			r, err := reg(0)
			if err != nil {
				return Record{}, 0, err
			}
			rec[1] = byte(r)
		} else {
			v, err := num(0)
			if err != nil {
				return Record{}, 0, err
			}
			rec[1] = byte(v)
		}

	case W, P, M:
		if err := need(1); err != nil {
			return Record{}, 0, err
		}
		v, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		putWord(rec[1:3], v)

	case RR:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		r1, err := reg(0)
		if err != nil {
			return Record{}, 0, err
		}
		r2, err := reg(1)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1], rec[2] = byte(r1), byte(r2)

	case RB:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		r, err := reg(0)
		if err != nil {
			return Record{}, 0, err
		}
		v, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1], rec[2] = byte(r), byte(v)

	case BB:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		v1, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		v2, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1], rec[2] = byte(v1), byte(v2)

	case RM, RW:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		r, err := reg(0)
		if err != nil {
			return Record{}, 0, err
		}
		v, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1] = byte(r)
		putWord(rec[2:4], v)

	case MR:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		addr, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		r, err := reg(1)
		if err != nil {
			return Record{}, 0, err
		}
		putWord(rec[1:3], addr)
		rec[3] = byte(r)

	case WB:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		v, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		b, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		putWord(rec[1:3], v)
		rec[3] = byte(b)

	case BW:
		if err := need(2); err != nil {
			return Record{}, 0, err
		}
		b, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		v, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1] = byte(b)
		putWord(rec[2:4], v)

	case RRR:
		if err := need(3); err != nil {
			return Record{}, 0, err
		}
		r1, err := reg(0)
		if err != nil {
			return Record{}, 0, err
		}
		r2, err := reg(1)
		if err != nil {
			return Record{}, 0, err
		}
		r3, err := reg(2)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1], rec[2], rec[3] = byte(r1), byte(r2), byte(r3)

	case BBB:
		if err := need(3); err != nil {
			return Record{}, 0, err
		}
		v1, err := num(0)
		if err != nil {
			return Record{}, 0, err
		}
		v2, err := num(1)
		if err != nil {
			return Record{}, 0, err
		}
		v3, err := num(2)
		if err != nil {
			return Record{}, 0, err
		}
		rec[1], rec[2], rec[3] = byte(v1), byte(v2), byte(v3)

	default:
		return Record{}, 0, fmt.Errorf("unsupported shape %s", shape)
	}

	return rec, n, nil
}

// putWord writes v little-endian into the two bytes of dst.
func putWord(dst []byte, v uint16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

// GetWord reads a little-endian word from src.
func GetWord(src []byte) uint16 {
	return uint16(src[0]) | uint16(src[1])<<8
}
