package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/lolcode/pkg/diag"
)

// FormatVersion is the current compiled-chunk format version.
// Increment when making incompatible changes to the format.
const FormatVersion uint16 = 1

// Magic bytes for compiled chunk files: "LOLC"
var Magic = []byte{'L', 'O', 'L', 'C'}

// ErrBadMagic is returned when data does not start with Magic.
var ErrBadMagic = errors.New("bytecode: not a compiled LOLCODE chunk")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireChunk is the CBOR body of an encoded chunk.
type wireChunk struct {
	Code      []byte      `cbor:"1,keyasint"`
	Positions []wireSpan  `cbor:"2,keyasint"`
	Constants []wireValue `cbor:"3,keyasint"`
	Names     []string    `cbor:"4,keyasint,omitempty"`
}

type wireSpan struct {
	_     struct{} `cbor:",toarray"`
	Start int
	End   int
	File  int
}

type wireValue struct {
	Kind    ValueKind `cbor:"1,keyasint"`
	Bool    bool      `cbor:"2,keyasint,omitempty"`
	Int     int64     `cbor:"3,keyasint,omitempty"`
	Float   float64   `cbor:"4,keyasint,omitempty"`
	Str     string    `cbor:"5,keyasint,omitempty"`
	Offsets []int     `cbor:"6,keyasint,omitempty"`
}

// Encode serializes the chunk as Magic, a big-endian u16 FormatVersion and
// a canonical CBOR body.
func (c *Chunk) Encode() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	w := wireChunk{
		Code:      c.Code,
		Positions: make([]wireSpan, len(c.Positions)),
		Constants: make([]wireValue, len(c.Constants)),
		Names:     c.Names,
	}
	for i, s := range c.Positions {
		w.Positions[i] = wireSpan{Start: s.Start, End: s.End, File: s.File}
	}
	for i, v := range c.Constants {
		wv := wireValue{Kind: v.Kind, Bool: v.Bool, Int: v.Int, Float: v.Float, Str: v.Str}
		if v.Kind == KindInterp {
			wv.Str = v.Tmpl.Text
			wv.Offsets = v.Tmpl.Offsets
		}
		w.Constants[i] = wv
	}

	body, err := cborEncMode.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal chunk: %w", err)
	}
	buf := make([]byte, 0, len(Magic)+2+len(body))
	buf = append(buf, Magic...)
	buf = binary.BigEndian.AppendUint16(buf, FormatVersion)
	return append(buf, body...), nil
}

// Decode parses data produced by Encode and validates the result.
func Decode(data []byte) (*Chunk, error) {
	if len(data) < len(Magic)+2 || !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, ErrBadMagic
	}
	version := binary.BigEndian.Uint16(data[len(Magic):])
	if version != FormatVersion {
		return nil, fmt.Errorf("bytecode: format version %d, want %d", version, FormatVersion)
	}

	var w wireChunk
	if err := cbor.Unmarshal(data[len(Magic)+2:], &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}

	c := &Chunk{
		Code:      w.Code,
		Positions: make([]diag.Span, len(w.Positions)),
		Constants: make([]Value, len(w.Constants)),
		Names:     w.Names,
	}
	for i, s := range w.Positions {
		c.Positions[i] = diag.Span{Start: s.Start, End: s.End, File: s.File}
	}
	for i, wv := range w.Constants {
		v := Value{Kind: wv.Kind, Bool: wv.Bool, Int: wv.Int, Float: wv.Float, Str: wv.Str}
		if wv.Kind == KindInterp {
			v.Str = ""
			v.Tmpl = &Template{Text: wv.Str, Offsets: wv.Offsets}
		}
		c.Constants[i] = v
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	c.reindex()
	return c, nil
}

// IsEncoded reports whether data starts with the compiled chunk magic.
func IsEncoded(data []byte) bool {
	return len(data) >= len(Magic) && bytes.Equal(data[:len(Magic)], Magic)
}
