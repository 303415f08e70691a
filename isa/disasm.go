package isa

import "fmt"

// Disassemble renders one decoded instruction back to text and reports
// how many bytes it consumed. An opcode with no known shape renders as a
// single-byte "???" so a corrupted or hand-crafted ROM disassembles
// without panicking.
func Disassemble(rec Record) (string, int) {
	op := Opcode(rec[0])
	shape, ok := ShapeOf(op)
	if !ok {
		return fmt.Sprintf("??? (0x%02x)", rec[0]), 1
	}
	mnemonic := MnemonicOf(op)
	n := shape.Len()

	switch shape {
	case NIL:
		return mnemonic, n
	case R:
		return fmt.Sprintf("%s %s", mnemonic, Register(rec[1])), n
	case B:
		return fmt.Sprintf("%s %d", mnemonic, rec[1]), n
	case W, P, M:
		return fmt.Sprintf("%s %#04x", mnemonic, GetWord(rec[1:3])), n
	case RR:
		return fmt.Sprintf("%s %s, %s", mnemonic, Register(rec[1]), Register(rec[2])), n
	case RB:
		return fmt.Sprintf("%s %s, %d", mnemonic, Register(rec[1]), rec[2]), n
	case BB:
		return fmt.Sprintf("%s %d, %d", mnemonic, rec[1], rec[2]), n
	case RM, RW:
		return fmt.Sprintf("%s %s, %#04x", mnemonic, Register(rec[1]), GetWord(rec[2:4])), n
	case MR:
		return fmt.Sprintf("%s %#04x, %s", mnemonic, GetWord(rec[1:3]), Register(rec[3])), n
	case WB:
		return fmt.Sprintf("%s %#04x, %d", mnemonic, GetWord(rec[1:3]), rec[3]), n
	case BW:
		return fmt.Sprintf("%s %d, %#04x", mnemonic, rec[1], GetWord(rec[2:4])), n
	case RRR:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, Register(rec[1]), Register(rec[2]), Register(rec[3])), n
	case BBB:
		return fmt.Sprintf("%s %d, %d, %d", mnemonic, rec[1], rec[2], rec[3]), n
	default:
		return mnemonic, n
	}
}

// DisassembleROM walks a flat ROM byte image from address 0, formatting
// one line per instruction until it runs out of bytes.
func DisassembleROM(rom []byte) []string {
	var lines []string
	addr := 0
	for addr < len(rom) {
		var rec Record
		for i := 0; i < 4 && addr+i < len(rom); i++ {
			rec[i] = rom[addr+i]
		}
		text, n := Disassemble(rec)
		lines = append(lines, fmt.Sprintf("%#04x  %s", addr, text))
		if n <= 0 {
			n = 1
		}
		addr += n
	}
	return lines
}
