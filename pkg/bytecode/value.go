package bytecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindInterp // constant pool only
	KindFunction
	KindList
)

var kindNames = [...]string{"NOOB", "TROOF", "NUMBR", "NUMBAR", "YARN", "INTERP", "FUNKSHON", "BUKKIT"}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Template is an interpolated string literal: Text with a splice at each
// byte offset in Offsets. The VM fills the splices from the stack.
type Template struct {
	Text    string
	Offsets []int
}

// Render fills the template's splices with parts, in order.
func (t *Template) Render(parts []string) string {
	var sb strings.Builder
	prev := 0
	for i, off := range t.Offsets {
		sb.WriteString(t.Text[prev:off])
		if i < len(parts) {
			sb.WriteString(parts[i])
		}
		prev = off
	}
	sb.WriteString(t.Text[prev:])
	return sb.String()
}

// List is a mutable BUKKIT. Lists are shared by reference.
type List struct {
	Elems []Value
}

// Value is a runtime or constant value. Int doubles as the code offset of
// a Function.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Tmpl  *Template
	List  *List
}

func Null() Value { return Value{Kind: KindNull} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func Str(s string) Value { return Value{Kind: KindStr, Str: s} }
func Function(offset int) Value { return Value{Kind: KindFunction, Int: int64(offset)} }
func Interp(t *Template) Value { return Value{Kind: KindInterp, Tmpl: t} }
func NewList(elems []Value) Value { return Value{Kind: KindList, List: &List{Elems: elems}} }

// IsNumeric reports whether v is an Int or a Float.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Truthy applies the language's truthiness rule.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindStr:
		return v.Str != ""
	case KindInterp:
		return v.Tmpl.Text != "" || len(v.Tmpl.Offsets) > 0
	case KindFunction:
		return true
	case KindList:
		return len(v.List.Elems) > 0
	}
	return false
}

// Equal compares by value. Ints and Floats are equal when they have the
// same mathematical value; lists compare by identity.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.Kind == KindInt && o.Kind == KindInt {
			return v.Int == o.Int
		}
		return v.toFloat() == o.toFloat()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindStr:
		return v.Str == o.Str
	case KindFunction:
		return v.Int == o.Int
	case KindList:
		return v.List == o.List
	case KindInterp:
		return v.Tmpl == o.Tmpl
	}
	return false
}

func (v Value) toFloat() float64 {
	if v.Kind == KindFloat {
		return v.Float
	}
	return float64(v.Int)
}

// String renders the value the way VISIBLE and SMOOSH do.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NOOB"
	case KindBool:
		if v.Bool {
			return "WIN"
		}
		return "FAIL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindStr:
		return v.Str
	case KindInterp:
		return v.Tmpl.Text
	case KindFunction:
		return fmt.Sprintf("<FUNKSHON at 0x%X>", v.Int)
	case KindList:
		parts := make([]string, len(v.List.Elems))
		for i, e := range v.List.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "?"
}

// Repr renders the value for disassembly and traces: strings are quoted.
func (v Value) Repr() string {
	switch v.Kind {
	case KindStr:
		return strconv.Quote(v.Str)
	case KindInterp:
		return fmt.Sprintf("interp %q %v", v.Tmpl.Text, v.Tmpl.Offsets)
	}
	return v.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// constKey identifies a constant for pool de-duplication.
type constKey struct {
	kind ValueKind
	n    int64
	bits uint64
	s    string
}

func keyOf(v Value) (constKey, bool) {
	switch v.Kind {
	case KindNull:
		return constKey{kind: KindNull}, true
	case KindBool:
		if v.Bool {
			return constKey{kind: KindBool, n: 1}, true
		}
		return constKey{kind: KindBool}, true
	case KindInt, KindFunction:
		return constKey{kind: v.Kind, n: v.Int}, true
	case KindFloat:
		return constKey{kind: KindFloat, bits: math.Float64bits(v.Float)}, true
	case KindStr:
		return constKey{kind: KindStr, s: v.Str}, true
	case KindInterp:
		return constKey{kind: KindInterp, s: fmt.Sprintf("%s\x00%v", v.Tmpl.Text, v.Tmpl.Offsets)}, true
	}
	return constKey{}, false
}
