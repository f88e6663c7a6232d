package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/lolcode/pkg/diag"
)

// MaxShortOperand and MaxLongOperand bound the u8 and u24 operand forms.
const (
	MaxShortOperand = 0xFF
	MaxLongOperand  = 0xFFFFFF
)

// Chunk is a compiled program: code, a span per code byte, the constant
// pool and the interned names it was compiled with. Operand bytes carry
// the same span as their opcode.
type Chunk struct {
	Code      []byte
	Positions []diag.Span
	Constants []Value
	Names     []string

	constIndex map[constKey]int
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:       make([]byte, 0, 256),
		Positions:  make([]diag.Span, 0, 256),
		Constants:  make([]Value, 0, 16),
		constIndex: make(map[constKey]int),
	}
}

// AddConstant adds a value to the pool and returns its index. Equal
// constants of the same kind share one slot.
func (c *Chunk) AddConstant(v Value) int {
	key, ok := keyOf(v)
	if ok {
		if c.constIndex == nil {
			c.reindex()
		}
		if idx, found := c.constIndex[key]; found {
			return idx
		}
	}
	idx := len(c.Constants)
	c.Constants = append(c.Constants, v)
	if ok {
		c.constIndex[key] = idx
	}
	return idx
}

// reindex rebuilds the de-duplication index, e.g. after decoding.
func (c *Chunk) reindex() {
	c.constIndex = make(map[constKey]int, len(c.Constants))
	for i, v := range c.Constants {
		if key, ok := keyOf(v); ok {
			if _, dup := c.constIndex[key]; !dup {
				c.constIndex[key] = i
			}
		}
	}
}

// Emit appends an opcode and its operand bytes, all tagged with span.
// Returns the offset of the opcode.
func (c *Chunk) Emit(op Opcode, span diag.Span, operands ...byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, operands...)
	for i := 0; i <= len(operands); i++ {
		c.Positions = append(c.Positions, span)
	}
	return offset
}

// EmitIndexed emits short with a u8 operand when n fits, otherwise long
// with a u24 operand.
func (c *Chunk) EmitIndexed(short, long Opcode, n int, span diag.Span) (int, error) {
	switch {
	case n < 0 || n > MaxLongOperand:
		return 0, fmt.Errorf("operand %d does not fit in 24 bits", n)
	case n <= MaxShortOperand:
		return c.Emit(short, span, byte(n)), nil
	default:
		return c.Emit(long, span, PutU24(n)...), nil
	}
}

// EmitConstant adds v to the pool and emits the narrowest load for it.
func (c *Chunk) EmitConstant(v Value, span diag.Span) (int, error) {
	idx := c.AddConstant(v)
	return c.EmitIndexed(OpLoadConst, OpLoadConstLong, idx, span)
}

// EmitJump emits a jump instruction with a placeholder offset.
// Returns the offset of the placeholder for later patching.
func (c *Chunk) EmitJump(op Opcode, span diag.Span) int {
	return c.Emit(op, span, 0xFF, 0xFF, 0xFF, 0xFF) + 1
}

// PatchJump patches a jump's placeholder to land at the current position.
func (c *Chunk) PatchJump(placeholderOffset int) {
	c.PatchJumpTo(placeholderOffset, len(c.Code))
}

// PatchJumpTo patches a jump to go to a specific offset. Offsets are
// relative to the first operand byte.
func (c *Chunk) PatchJumpTo(placeholderOffset, target int) {
	delta := int32(target - placeholderOffset)
	binary.LittleEndian.PutUint32(c.Code[placeholderOffset:], uint32(delta))
}

// EmitLoop emits a backward jump to loopStart.
func (c *Chunk) EmitLoop(loopStart int, span diag.Span) {
	placeholder := c.EmitJump(OpJump, span)
	c.PatchJumpTo(placeholder, loopStart)
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}

// SpanAt returns the source span recorded for a code offset.
func (c *Chunk) SpanAt(offset int) diag.Span {
	if offset < 0 || offset >= len(c.Positions) {
		return diag.Span{}
	}
	return c.Positions[offset]
}

// ReadU24 decodes a big-endian 24-bit operand at offset.
func (c *Chunk) ReadU24(offset int) int {
	return int(c.Code[offset])<<16 | int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
}

// ReadJump decodes the little-endian signed jump operand at offset and
// returns the absolute target.
func (c *Chunk) ReadJump(offset int) int {
	return offset + int(int32(binary.LittleEndian.Uint32(c.Code[offset:])))
}

// PutU24 encodes n as a big-endian 24-bit operand.
func PutU24(n int) []byte {
	return []byte{byte(n >> 16), byte(n >> 8), byte(n)}
}

// Validate checks the chunk's structural invariants.
func (c *Chunk) Validate() error {
	if len(c.Positions) != len(c.Code) {
		return fmt.Errorf("chunk has %d code bytes but %d positions", len(c.Code), len(c.Positions))
	}
	for i, v := range c.Constants {
		if v.Kind > KindList {
			return fmt.Errorf("constant %d has unknown kind %d", i, v.Kind)
		}
		if v.Kind == KindInterp {
			if v.Tmpl == nil {
				return fmt.Errorf("constant %d is an interpolation without a template", i)
			}
			prev := 0
			for _, off := range v.Tmpl.Offsets {
				if off < prev || off > len(v.Tmpl.Text) {
					return fmt.Errorf("constant %d has splice offset %d out of order", i, off)
				}
				prev = off
			}
		}
		if v.Kind == KindList {
			return fmt.Errorf("constant %d is a list; lists are built at run time", i)
		}
	}
	return nil
}
