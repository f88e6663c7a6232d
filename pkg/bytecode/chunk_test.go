package bytecode

import (
	"testing"

	"github.com/chazu/lolcode/pkg/diag"
)

var sp = diag.Span{Start: 3, End: 7}

func TestNewChunk(t *testing.T) {
	c := NewChunk()
	if c.Code == nil {
		t.Error("Code is nil")
	}
	if c.Constants == nil {
		t.Error("Constants is nil")
	}
	if c.CurrentOffset() != 0 {
		t.Errorf("CurrentOffset() = %d, want 0", c.CurrentOffset())
	}
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk()

	tests := []struct {
		v    Value
		want int
	}{
		{Str("hello"), 0},
		{Int(1), 1},
		{Str("hello"), 0},
		{Float(1), 2}, // different kind from Int(1)
		{Bool(true), 3},
		{Int(1), 1},
		{Null(), 4},
		{Null(), 4},
	}
	for i, tt := range tests {
		if got := c.AddConstant(tt.v); got != tt.want {
			t.Errorf("%d: AddConstant(%s) = %d, want %d", i, tt.v.Repr(), got, tt.want)
		}
	}
	if len(c.Constants) != 5 {
		t.Errorf("len(Constants) = %d, want 5", len(c.Constants))
	}
}

func TestChunkEmit(t *testing.T) {
	c := NewChunk()
	off := c.Emit(OpPopN, sp, 2)
	c.Emit(OpHalt, diag.Span{Start: 9, End: 10})

	if off != 0 {
		t.Errorf("Emit offset = %d, want 0", off)
	}
	wantCode := []byte{byte(OpPopN), 2, byte(OpHalt)}
	if string(c.Code) != string(wantCode) {
		t.Errorf("Code = %v, want %v", c.Code, wantCode)
	}
	if len(c.Positions) != len(c.Code) {
		t.Fatalf("len(Positions) = %d, want %d", len(c.Positions), len(c.Code))
	}
	if c.SpanAt(1) != sp {
		t.Errorf("operand span = %v, want %v", c.SpanAt(1), sp)
	}
	if c.SpanAt(2).Start != 9 {
		t.Errorf("SpanAt(2).Start = %d, want 9", c.SpanAt(2).Start)
	}
}

func TestChunkEmitConstantWidth(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 256; i++ {
		c.AddConstant(Int(int64(i)))
	}

	if _, err := c.EmitConstant(Int(255), sp); err != nil {
		t.Fatal(err)
	}
	if Opcode(c.Code[0]) != OpLoadConst || c.Code[1] != 255 {
		t.Errorf("short load = %v, want LOAD_CONST 255", c.Code[:2])
	}

	start := c.CurrentOffset()
	if _, err := c.EmitConstant(Int(1000), sp); err != nil {
		t.Fatal(err)
	}
	if Opcode(c.Code[start]) != OpLoadConstLong {
		t.Fatalf("opcode = %s, want LOAD_CONST_LONG", Opcode(c.Code[start]))
	}
	if got := c.ReadU24(start + 1); got != 256 {
		t.Errorf("long operand = %d, want 256", got)
	}
}

func TestChunkEmitIndexedOverflow(t *testing.T) {
	c := NewChunk()
	if _, err := c.EmitIndexed(OpPopN, OpPopNLong, MaxLongOperand+1, sp); err == nil {
		t.Error("expected an error for an operand wider than 24 bits")
	}
}

func TestPutU24(t *testing.T) {
	got := PutU24(0x123456)
	if len(got) != 3 || got[0] != 0x12 || got[1] != 0x34 || got[2] != 0x56 {
		t.Errorf("PutU24(0x123456) = %X, want 123456", got)
	}
}

func TestChunkJumpPatch(t *testing.T) {
	c := NewChunk()
	ph := c.EmitJump(OpJumpIfFalse, sp)
	if ph != 1 {
		t.Fatalf("placeholder = %d, want 1", ph)
	}
	c.Emit(OpNop, sp)
	c.Emit(OpNop, sp)
	c.PatchJump(ph)

	if got := c.ReadJump(ph); got != 7 {
		t.Errorf("jump target = %d, want 7", got)
	}
	// Little-endian delta 6 relative to the first operand byte.
	if c.Code[1] != 6 || c.Code[2] != 0 || c.Code[3] != 0 || c.Code[4] != 0 {
		t.Errorf("operand bytes = %v, want [6 0 0 0]", c.Code[1:5])
	}
}

func TestChunkEmitLoop(t *testing.T) {
	c := NewChunk()
	c.Emit(OpNop, sp)
	loopStart := c.CurrentOffset()
	c.Emit(OpNop, sp)
	c.EmitLoop(loopStart, sp)

	if got := c.ReadJump(3); got != loopStart {
		t.Errorf("loop target = %d, want %d", got, loopStart)
	}
}

func TestChunkValidate(t *testing.T) {
	c := NewChunk()
	c.Emit(OpHalt, sp)
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v on a well-formed chunk", err)
	}

	bad := []struct {
		name  string
		chunk *Chunk
	}{
		{"positions", &Chunk{Code: []byte{byte(OpHalt)}}},
		{"kind", &Chunk{Constants: []Value{{Kind: 42}}}},
		{"list constant", &Chunk{Constants: []Value{NewList(nil)}}},
		{"template", &Chunk{Constants: []Value{Interp(&Template{Text: "ab", Offsets: []int{2, 1}})}}},
	}
	for _, tt := range bad {
		if err := tt.chunk.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want an error", tt.name)
		}
	}
}
