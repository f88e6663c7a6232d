package bytecode

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(Str("hi"), sp)
	c.EmitConstant(Float(2.5), sp)
	c.EmitConstant(Function(12), sp)
	c.AddConstant(Interp(&Template{Text: "a b", Offsets: []int{1, 3}}))
	c.Emit(OpHalt, sp)
	c.Names = []string{"IT", "x"}

	data, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !IsEncoded(data) {
		t.Fatal("IsEncoded() = false for encoded data")
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.Code, c.Code) {
		t.Errorf("Code = %v, want %v", got.Code, c.Code)
	}
	if len(got.Positions) != len(c.Positions) || got.Positions[0] != sp {
		t.Errorf("Positions = %v, want %v", got.Positions, c.Positions)
	}
	if len(got.Constants) != len(c.Constants) {
		t.Fatalf("len(Constants) = %d, want %d", len(got.Constants), len(c.Constants))
	}
	for i := 0; i < 3; i++ {
		if !got.Constants[i].Equal(c.Constants[i]) {
			t.Errorf("constant %d = %s, want %s", i, got.Constants[i].Repr(), c.Constants[i].Repr())
		}
	}
	tmpl := got.Constants[3].Tmpl
	if tmpl == nil || tmpl.Text != "a b" || len(tmpl.Offsets) != 2 || tmpl.Offsets[1] != 3 {
		t.Errorf("template = %+v, want {a b [1 3]}", tmpl)
	}
	if len(got.Names) != 2 || got.Names[1] != "x" {
		t.Errorf("Names = %v, want [IT x]", got.Names)
	}

	// The pool index survives decoding.
	if idx := got.AddConstant(Str("hi")); idx != 0 {
		t.Errorf("AddConstant after decode = %d, want 0", idx)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	build := func() []byte {
		c := NewChunk()
		c.EmitConstant(Int(7), sp)
		c.Emit(OpPrint, sp, 1)
		c.Emit(OpHalt, sp)
		data, err := c.Encode()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	if !bytes.Equal(build(), build()) {
		t.Error("encoding the same chunk twice produced different bytes")
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("nope")); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Decode(short) = %v, want ErrBadMagic", err)
	}
	if _, err := Decode([]byte("XXXX\x00\x01")); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Decode(bad magic) = %v, want ErrBadMagic", err)
	}
	if _, err := Decode([]byte("LOLC\x00\x09\xa0")); err == nil {
		t.Error("Decode accepted an unknown format version")
	}
	if _, err := Decode([]byte("LOLC\x00\x01\xff")); err == nil {
		t.Error("Decode accepted a malformed body")
	}
}
