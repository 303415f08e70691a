package isa

// Shape is the abstract operand-layout classification of an instruction,
// independent of which mnemonic uses it. The same shape value is used on
// both the assembler side (to pick an opcode) and the decoder side (to
// know how many payload bytes follow the opcode byte).
type Shape byte

const (
	NIL Shape = iota
	R         // one register
	B         // one byte
	W         // one word
	P         // one pointer (word-encoded)
	M         // one 16-bit memory address
	RR        // two registers
	RM        // register + memory address
	MR        // memory address + register
	RW        // register + word
	RB        // register + byte
	RRR       // three registers
	BB        // two bytes
	BW        // byte + word
	WB        // word + byte
	BBB       // three bytes

	numShapes
)

var shapeNames = [numShapes]string{
	NIL: "NIL", R: "R", B: "B", W: "W", P: "P", M: "M",
	RR: "RR", RM: "RM", MR: "MR", RW: "RW", RB: "RB",
	RRR: "RRR", BB: "BB", BW: "BW", WB: "WB", BBB: "BBB",
}

func (s Shape) String() string {
	if s >= numShapes {
		return "?"
	}
	return shapeNames[s]
}

// encodedLength is the dense shape -> byte-length table. Every instruction
// record is the opcode byte followed by this many minus one bytes of
// payload.
var encodedLength = [numShapes]byte{
	NIL: 1, R: 2, B: 2,
	RR: 3, RB: 3, BB: 3, W: 3, P: 3, M: 3,
	RM: 4, MR: 4, RW: 4, RRR: 4, BBB: 4, BW: 4, WB: 4,
}

// Len returns the total encoded length, in bytes, of an instruction with
// this operand shape (opcode byte included).
func (s Shape) Len() int {
	if s >= numShapes {
		return 0
	}
	return int(encodedLength[s])
}

// fromParamCode maps the concatenated per-parameter code string (built by
// the classifier) to its ordered list of candidate shapes. Ordering
// matters: pass 2 tries candidates left to right and takes the first one
// with a defined opcode for the mnemonic in play.
var fromParamCode = map[string][]Shape{
	"":    {NIL},
	"R":   {R},
	"B":   {B, W},
	"W":   {W},
	"RP":  {RW},
	"RB":  {RB, RW},
	"M":   {M},
	"P":   {P},
	"BW":  {BW},
	"RM":  {RM},
	"MR":  {MR},
	"RR":  {RR},
	"RW":  {RW},
	"PR":  {RR},
	"BB":  {BB, BW, WB},
	"BBB": {BBB},
	"RRR": {RRR},
	"WB":  {WB},
}

// ShapesForParamCode returns the ordered candidate shapes for a
// concatenated parameter-code string, or ok=false if the string does not
// correspond to any deducible shape.
func ShapesForParamCode(code string) ([]Shape, bool) {
	shapes, ok := fromParamCode[code]
	return shapes, ok
}
