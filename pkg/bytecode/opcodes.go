package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop      Opcode = 0x00 // No operation
	OpPop      Opcode = 0x01 // Pop top of stack
	OpPopN     Opcode = 0x02 // Pop n values: OpPopN <n:u8>
	OpPopNLong Opcode = 0x03 // Pop n values: OpPopNLong <n:u24>

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpLoadConst     Opcode = 0x10 // Push constant: OpLoadConst <index:u8>
	OpLoadConstLong Opcode = 0x11 // Push constant: OpLoadConstLong <index:u24>

	// ========================================================================
	// Stack slots and IT (0x20-0x2F)
	// ========================================================================

	OpReadSt      Opcode = 0x20 // Push local: OpReadSt <slot:u8>
	OpReadStLong  Opcode = 0x21 // Push local: OpReadStLong <slot:u24>
	OpWriteSt     Opcode = 0x22 // Pop into local: OpWriteSt <slot:u8>
	OpWriteStLong Opcode = 0x23 // Pop into local: OpWriteStLong <slot:u24>
	OpReadIt      Opcode = 0x24 // Push IT
	OpWriteIt     Opcode = 0x25 // Pop into IT

	// ========================================================================
	// Arithmetic (0x30-0x3F)
	// ========================================================================

	OpAdd Opcode = 0x30 // Pop two, push sum
	OpSub Opcode = 0x31 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x32 // Pop two, push product
	OpDiv Opcode = 0x33 // Pop two, push quotient
	OpMod Opcode = 0x34 // Pop two, push remainder
	OpMin Opcode = 0x35 // Pop two, push the smaller
	OpMax Opcode = 0x36 // Pop two, push the larger

	// ========================================================================
	// Comparison (0x40-0x47)
	// ========================================================================

	OpEqual Opcode = 0x40 // Pop two, push WIN if equal
	OpNotEq Opcode = 0x41 // Pop two, push WIN if not equal
	OpGT    Opcode = 0x42 // Pop two, push WIN if a > b
	OpLT    Opcode = 0x43 // Pop two, push WIN if a < b
	OpGTE   Opcode = 0x44 // Pop two, push WIN if a >= b
	OpLTE   Opcode = 0x45 // Pop two, push WIN if a <= b

	// ========================================================================
	// Logical operations (0x48-0x4F)
	// ========================================================================

	OpAnd Opcode = 0x48 // Pop two, push truthy(a) && truthy(b)
	OpOr  Opcode = 0x49 // Pop two, push truthy(a) || truthy(b)
	OpXor Opcode = 0x4A // Pop two, push truthy(a) != truthy(b)
	OpNot Opcode = 0x4B // Pop one, push !truthy(a)

	// ========================================================================
	// Strings and casts (0x50-0x57)
	// ========================================================================

	OpConcat     Opcode = 0x50 // Pop two, push stringified concatenation
	OpInterp     Opcode = 0x51 // Render template: OpInterp <index:u8>, pops one value per splice
	OpInterpLong Opcode = 0x52 // Render template: OpInterpLong <index:u24>
	OpCast       Opcode = 0x53 // Convert TOS: OpCast <type:u8>

	// ========================================================================
	// Lists (0x58-0x5F)
	// ========================================================================

	OpList     Opcode = 0x58 // Pop n, push list: OpList <n:u8>
	OpListLong Opcode = 0x59 // Pop n, push list: OpListLong <n:u24>
	OpAppend   Opcode = 0x5A // Pop list and value, append in place
	OpGetIndex Opcode = 0x5B // Pop source and index, push element
	OpSetIndex Opcode = 0x5C // Pop list, index and value, store in place
	OpFront    Opcode = 0x5D // Pop source, push first element
	OpBack     Opcode = 0x5E // Pop source, push last element
	OpLen      Opcode = 0x5F // Pop list or string, push its length

	// ========================================================================
	// Control flow (0x60-0x6F)
	// ========================================================================

	OpJump        Opcode = 0x60 // Unconditional jump: OpJump <offset:i32le>
	OpJumpIfFalse Opcode = 0x61 // Pop and jump if falsy: OpJumpIfFalse <offset:i32le>

	// ========================================================================
	// Functions (0x70-0x7F)
	// ========================================================================

	OpFnDef  Opcode = 0x70 // Function entry marker: OpFnDef <arity:u8>
	OpCall   Opcode = 0x71 // Call callee below argc args: OpCall <argc:u8>
	OpReturn Opcode = 0x72 // Return TOS to caller, or print and halt at top level

	// ========================================================================
	// I/O (0x80-0x8F)
	// ========================================================================

	OpPrint Opcode = 0x80 // Pop and print: OpPrint <newline:u8>
	OpRead  Opcode = 0x81 // Read a line from input and push it

	// ========================================================================
	// Termination
	// ========================================================================

	OpHalt Opcode = 0xFF // End of program
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNop:      {"NOP", 0, 0, 0},
	OpPop:      {"POP", 1, 0, 0},
	OpPopN:     {"POP_N", -1, 0, 1},
	OpPopNLong: {"POP_N_LONG", -1, 0, 3},

	// Constants
	OpLoadConst:     {"LOAD_CONST", 0, 1, 1},
	OpLoadConstLong: {"LOAD_CONST_LONG", 0, 1, 3},

	// Stack slots and IT
	OpReadSt:      {"READ_ST", 0, 1, 1},
	OpReadStLong:  {"READ_ST_LONG", 0, 1, 3},
	OpWriteSt:     {"WRITE_ST", 1, 0, 1},
	OpWriteStLong: {"WRITE_ST_LONG", 1, 0, 3},
	OpReadIt:      {"READ_IT", 0, 1, 0},
	OpWriteIt:     {"WRITE_IT", 1, 0, 0},

	// Arithmetic
	OpAdd: {"ADD", 2, 1, 0},
	OpSub: {"SUB", 2, 1, 0},
	OpMul: {"MUL", 2, 1, 0},
	OpDiv: {"DIV", 2, 1, 0},
	OpMod: {"MOD", 2, 1, 0},
	OpMin: {"MIN", 2, 1, 0},
	OpMax: {"MAX", 2, 1, 0},

	// Comparison
	OpEqual: {"EQUAL", 2, 1, 0},
	OpNotEq: {"NOT_EQ", 2, 1, 0},
	OpGT:    {"GT", 2, 1, 0},
	OpLT:    {"LT", 2, 1, 0},
	OpGTE:   {"GTE", 2, 1, 0},
	OpLTE:   {"LTE", 2, 1, 0},

	// Logical
	OpAnd: {"AND", 2, 1, 0},
	OpOr:  {"OR", 2, 1, 0},
	OpXor: {"XOR", 2, 1, 0},
	OpNot: {"NOT", 1, 1, 0},

	// Strings and casts
	OpConcat:     {"CONCAT", 2, 1, 0},
	OpInterp:     {"INTERP", -1, 1, 1},
	OpInterpLong: {"INTERP_LONG", -1, 1, 3},
	OpCast:       {"CAST", 1, 1, 1},

	// Lists
	OpList:     {"LIST", -1, 1, 1},
	OpListLong: {"LIST_LONG", -1, 1, 3},
	OpAppend:   {"APPEND", 2, 0, 0},
	OpGetIndex: {"GET_INDEX", 2, 1, 0},
	OpSetIndex: {"SET_INDEX", 3, 0, 0},
	OpFront:    {"FRONT", 1, 1, 0},
	OpBack:     {"BACK", 1, 1, 0},
	OpLen:      {"LEN", 1, 1, 0},

	// Control flow
	OpJump:        {"JUMP", 0, 0, 4},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0, 4},

	// Functions
	OpFnDef:  {"FN_DEF", 0, 0, 1},
	OpCall:   {"CALL", -1, 1, 1}, // Pops callee + argc args
	OpReturn: {"RETURN", 1, 0, 0},

	// I/O
	OpPrint: {"PRINT", 1, 0, 1},
	OpRead:  {"READ", 0, 1, 0},

	OpHalt: {"HALT", 0, 0, 0},
}

// LookupOpcode decodes a raw byte. Bytes that are not a defined opcode
// report false.
func LookupOpcode(b byte) (Opcode, bool) {
	op := Opcode(b)
	_, ok := opcodeInfoTable[op]
	return op, ok
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
