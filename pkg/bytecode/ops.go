package bytecode

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chazu/lolcode/compiler"
	"github.com/chazu/lolcode/pkg/diag"
)

// toNumber coerces v to an Int or Float. NOOB is 0, TROOF is 0 or 1 and
// a YARN is parsed as a NUMBAR when it contains a '.', else as a NUMBR.
func (vm *VM) toNumber(v Value) (Value, error) {
	switch v.Kind {
	case KindInt, KindFloat:
		return v, nil
	case KindNull:
		return Int(0), nil
	case KindBool:
		if v.Bool {
			return Int(1), nil
		}
		return Int(0), nil
	case KindStr:
		s := strings.TrimSpace(v.Str)
		if strings.Contains(s, ".") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, vm.errorf(diag.Type, "cannot use %q as a NUMBAR", v.Str)
			}
			return Float(f), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, vm.errorf(diag.Type, "cannot use %q as a NUMBR", v.Str)
		}
		return Int(n), nil
	}
	return Value{}, vm.errorf(diag.Type, "cannot use a %s as a number", v.Kind)
}

func (vm *VM) numbers(a, b Value) (Value, Value, error) {
	x, err := vm.toNumber(a)
	if err != nil {
		return Value{}, Value{}, err
	}
	y, err := vm.toNumber(b)
	if err != nil {
		return Value{}, Value{}, err
	}
	return x, y, nil
}

// arith applies a numeric operator. The result is a Float when either
// operand is one.
func (vm *VM) arith(op Opcode, a, b Value) (Value, error) {
	x, y, err := vm.numbers(a, b)
	if err != nil {
		return Value{}, err
	}

	if x.Kind == KindFloat || y.Kind == KindFloat {
		p, q := x.toFloat(), y.toFloat()
		switch op {
		case OpAdd:
			return Float(p + q), nil
		case OpSub:
			return Float(p - q), nil
		case OpMul:
			return Float(p * q), nil
		case OpDiv:
			return Float(p / q), nil
		case OpMod:
			return Float(math.Mod(p, q)), nil
		case OpMin:
			return Float(math.Min(p, q)), nil
		case OpMax:
			return Float(math.Max(p, q)), nil
		}
	}

	p, q := x.Int, y.Int
	switch op {
	case OpAdd:
		return Int(p + q), nil
	case OpSub:
		return Int(p - q), nil
	case OpMul:
		return Int(p * q), nil
	case OpDiv:
		if q == 0 {
			return Value{}, vm.errorf(diag.Runtime, "division by zero")
		}
		return Int(p / q), nil
	case OpMod:
		if q == 0 {
			return Value{}, vm.errorf(diag.Runtime, "modulo by zero")
		}
		return Int(p % q), nil
	case OpMin:
		return Int(min(p, q)), nil
	case OpMax:
		return Int(max(p, q)), nil
	}
	return Value{}, vm.errorf(diag.Runtime, "%s is not an arithmetic operator", op)
}

// compare applies an ordering operator to two numbers.
func (vm *VM) compare(op Opcode, a, b Value) (bool, error) {
	x, y, err := vm.numbers(a, b)
	if err != nil {
		return false, err
	}
	var c int
	if x.Kind == KindInt && y.Kind == KindInt {
		switch {
		case x.Int < y.Int:
			c = -1
		case x.Int > y.Int:
			c = 1
		}
	} else {
		p, q := x.toFloat(), y.toFloat()
		switch {
		case p < q:
			c = -1
		case p > q:
			c = 1
		case p != q:
			// NaN orders with nothing.
			return false, nil
		}
	}
	switch op {
	case OpGT:
		return c > 0, nil
	case OpLT:
		return c < 0, nil
	case OpGTE:
		return c >= 0, nil
	case OpLTE:
		return c <= 0, nil
	}
	return false, vm.errorf(diag.Runtime, "%s is not a comparison", op)
}

// cast converts v to type t.
func (vm *VM) cast(v Value, t compiler.ValueType) (Value, error) {
	switch t {
	case compiler.TypeNoob:
		return Null(), nil
	case compiler.TypeTroof:
		return Bool(v.Truthy()), nil
	case compiler.TypeYarn:
		return Str(v.String()), nil
	case compiler.TypeNumbr:
		n, err := vm.toNumber(v)
		if err != nil {
			return Value{}, err
		}
		if n.Kind == KindFloat {
			i, err := vm.truncate(n.Float)
			if err != nil {
				return Value{}, err
			}
			return Int(i), nil
		}
		return n, nil
	case compiler.TypeNumbar:
		n, err := vm.toNumber(v)
		if err != nil {
			return Value{}, err
		}
		return Float(n.toFloat()), nil
	case compiler.TypeBukkit:
		switch v.Kind {
		case KindList:
			return v, nil
		case KindNull:
			return NewList(nil), nil
		}
		return Value{}, vm.errorf(diag.Type, "cannot make a %s into a BUKKIT", v.Kind)
	}
	return Value{}, vm.errorf(diag.Runtime, "unknown cast target %d", uint8(t))
}

func (vm *VM) toIndex(v Value) (int, error) {
	n, err := vm.toNumber(v)
	if err != nil {
		return 0, err
	}
	if n.Kind == KindFloat {
		i, err := vm.truncate(n.Float)
		if err != nil {
			return 0, err
		}
		return int(i), nil
	}
	return int(n.Int), nil
}

// truncate converts f to an integer, rounding toward zero. NaN, the
// infinities and values outside the NUMBR range are runtime errors.
func (vm *VM) truncate(f float64) (int64, error) {
	// -2^63 is exact as a float64; 2^63 is the first value past MaxInt64.
	if math.IsNaN(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, vm.errorf(diag.Runtime, "%s does not fit in a NUMBR", Float(f).String())
	}
	return int64(f), nil
}

// index picks element i of a list or character i of a string.
func (vm *VM) index(src, i Value) (Value, error) {
	n, err := vm.toIndex(i)
	if err != nil {
		return Value{}, err
	}
	switch src.Kind {
	case KindList:
		if n < 0 || n >= len(src.List.Elems) {
			return Value{}, vm.errorf(diag.Runtime, "index %d out of range for a BUKKIT of %d", n, len(src.List.Elems))
		}
		return src.List.Elems[n], nil
	case KindStr:
		runes := []rune(src.Str)
		if n < 0 || n >= len(runes) {
			return Value{}, vm.errorf(diag.Runtime, "index %d out of range for a YARN of %d", n, len(runes))
		}
		return Str(string(runes[n])), nil
	}
	return Value{}, vm.errorf(diag.Type, "cannot index a %s", src.Kind)
}

// setIndex stores v at index i of a list in place.
func (vm *VM) setIndex(target, i, v Value) error {
	if target.Kind != KindList {
		return vm.errorf(diag.Type, "cannot index into a %s", target.Kind)
	}
	n, err := vm.toIndex(i)
	if err != nil {
		return err
	}
	if n < 0 || n >= len(target.List.Elems) {
		return vm.errorf(diag.Runtime, "index %d out of range for a BUKKIT of %d", n, len(target.List.Elems))
	}
	target.List.Elems[n] = v
	return nil
}

// end returns the first or last element of a list or string.
func (vm *VM) end(src Value, back bool) (Value, error) {
	switch src.Kind {
	case KindList:
		elems := src.List.Elems
		if len(elems) == 0 {
			return Value{}, vm.errorf(diag.Runtime, "empty BUKKIT")
		}
		if back {
			return elems[len(elems)-1], nil
		}
		return elems[0], nil
	case KindStr:
		if src.Str == "" {
			return Value{}, vm.errorf(diag.Runtime, "empty YARN")
		}
		if back {
			r, _ := utf8.DecodeLastRuneInString(src.Str)
			return Str(string(r)), nil
		}
		r, _ := utf8.DecodeRuneInString(src.Str)
		return Str(string(r)), nil
	}
	return Value{}, vm.errorf(diag.Type, "cannot index a %s", src.Kind)
}

// length counts the elements of a list or the characters of a string.
func (vm *VM) length(v Value) (Value, error) {
	switch v.Kind {
	case KindList:
		return Int(int64(len(v.List.Elems))), nil
	case KindStr:
		return Int(int64(utf8.RuneCountInString(v.Str))), nil
	}
	return Value{}, vm.errorf(diag.Type, "cannot take the length of a %s", v.Kind)
}
