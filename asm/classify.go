package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oisee/robotvm/isa"
)

// fieldCharset is the whole set of characters a source field may contain.
var fieldCharset = regexp.MustCompile(`^[A-Za-z0-9._\-:\[\],]+$`)

// labelGrammar is the label-name grammar: first character in [A-Za-z._],
// remainder in [A-Za-z0-9._-].
var labelGrammar = regexp.MustCompile(`^[A-Za-z._][A-Za-z0-9._\-]*$`)

var hexNumber = regexp.MustCompile(`^0x[0-9A-Fa-f]+$`)
var decNumber = regexp.MustCompile(`^-?[0-9]+$`)

// classifyLine turns one already-trimmed, non-empty, comment-free source
// line into a Line record, or reports the lex/syntax error that prevents
// classification.
func classifyLine(lineNo int, source string) (Line, error) {
	fields := strings.Fields(source)
	if len(fields) == 0 {
		return Line{}, wrap(lineNo, source, ErrLex, "empty line reached classifier")
	}

	for _, f := range fields {
		if !fieldCharset.MatchString(f) {
			return Line{}, wrap(lineNo, source, ErrLex, fmt.Sprintf("invalid character in field %q", f))
		}
	}

	line := Line{LineNo: lineNo, Source: source}
	i := 0

	if strings.HasSuffix(fields[0], ":") {
		stem := strings.TrimSuffix(fields[0], ":")
		if !labelGrammar.MatchString(stem) {
			return Line{}, wrap(lineNo, source, ErrSyntax, fmt.Sprintf("invalid label definition %q", fields[0]))
		}
		line.Label = stem
		i++
	}

	if i >= len(fields) {
		return Line{}, wrap(lineNo, source, ErrSyntax, "label with no mnemonic")
	}
	if !isa.KnownMnemonic(fields[i]) {
		return Line{}, wrap(lineNo, source, ErrSyntax, fmt.Sprintf("unknown mnemonic %q", fields[i]))
	}
	line.Mnemonic = isa.Canonical(fields[i])
	i++

	if i < len(fields) {
		params, err := classifyParamBlock(lineNo, source, fields[i])
		if err != nil {
			return Line{}, err
		}
		line.Params = params
		i++
	}

	if i != len(fields) {
		return Line{}, wrap(lineNo, source, ErrSyntax, "too many fields after parameter block")
	}

	return line, nil
}

func classifyParamBlock(lineNo int, source, block string) ([]Param, error) {
	tokens := strings.Split(block, ",")
	if len(tokens) > 3 {
		return nil, wrap(lineNo, source, ErrSyntax, "more than three parameters")
	}
	params := make([]Param, 0, len(tokens))
	for _, tok := range tokens {
		p, err := classifyParam(lineNo, source, tok)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func classifyParam(lineNo int, source, tok string) (Param, error) {
	bracketed := false
	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") && len(tok) >= 2 {
		bracketed = true
		tok = tok[1 : len(tok)-1]
	}

	if reg, ok := isa.LookupRegister(tok); ok {
		return Param{Kind: ParamRegister, Bracketed: bracketed, Register: reg}, nil
	}

	if hexNumber.MatchString(tok) {
		v, err := strconv.ParseUint(tok[2:], 16, 16)
		if err != nil {
			return Param{}, wrap(lineNo, source, ErrLex, fmt.Sprintf("hex literal out of range: %q", tok))
		}
		return Param{Kind: ParamNumber, Bracketed: bracketed, Number: int64(v), Value: uint16(v)}, nil
	}

	if decNumber.MatchString(tok) {
		v, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return Param{}, wrap(lineNo, source, ErrLex, fmt.Sprintf("decimal literal out of range: %q", tok))
		}
		return Param{Kind: ParamNumber, Bracketed: bracketed, Number: v, Value: uint16(int16(v))}, nil
	}

	if labelGrammar.MatchString(tok) {
		return Param{Kind: ParamLabel, Bracketed: bracketed, Label: tok}, nil
	}

	return Param{}, wrap(lineNo, source, ErrLex, fmt.Sprintf("invalid parameter %q", tok))
}

func wrap(lineNo int, source string, sentinel error, msg string) error {
	return &Error{Line: lineNo, Source: source, Err: fmt.Errorf("%w: %s", sentinel, msg)}
}
