package asm

import "github.com/oisee/robotvm/isa"

// ParamKind classifies a single parameter token.
type ParamKind byte

const (
	ParamRegister ParamKind = iota
	ParamNumber
	ParamLabel
)

// Param is one classified, comma-separated parameter within an
// instruction's parameter block. Bracketed means the token was written
// as `[...]`: "the address held in register/at this literal/where this
// label resolves".
type Param struct {
	Kind      ParamKind
	Bracketed bool

	Register isa.Register // valid when Kind == ParamRegister
	Number   int64        // valid when Kind == ParamNumber (decimal signed, hex unsigned)
	Label    string        // valid when Kind == ParamLabel

	// Value holds the 16-bit value this parameter contributes to an
	// encoded operand: the literal number, or (after pass 1's label-fixup
	// sweep) the resolved address of Label. It is meaningless for
	// ParamRegister, whose value comes from Register instead.
	Value uint16
}

// Line is one classified source line: a triple of (label-token?,
// mnemonic-token, param-block-token?), any of which may be absent.
// Mnemonic is always present for a non-blank line.
type Line struct {
	LineNo  int
	Source  string
	Label   string // "" if this line defines no label
	Mnemonic string
	Params  []Param
}

// ParamCode returns the concatenated per-parameter shape code (e.g. "RB",
// "M"), used to look up candidate operand shapes via
// isa.ShapesForParamCode.
func (l Line) ParamCode() string {
	var code [3]byte
	for i, p := range l.Params {
		code[i] = paramCode(p)
	}
	return string(code[:len(l.Params)])
}

func paramCode(p Param) byte {
	switch {
	case p.Kind == ParamRegister && !p.Bracketed:
		return 'R'
	case p.Kind == ParamRegister && p.Bracketed:
		return 'P'
	case p.Kind == ParamLabel && !p.Bracketed:
		return 'W'
	case p.Kind == ParamLabel && p.Bracketed:
		return 'M'
	case p.Kind == ParamNumber && p.Bracketed:
		return 'M'
	case p.Kind == ParamNumber && !p.Bracketed && fitsByte(p.Number):
		return 'B'
	default: // ParamNumber, literal, outside byte range
		return 'W'
	}
}

func fitsByte(v int64) bool {
	return (v >= -128 && v <= 127) || (v >= 0 && v <= 255)
}
