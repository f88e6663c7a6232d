package bytecode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/chazu/lolcode/compiler"
	"github.com/chazu/lolcode/pkg/diag"
)

// DefaultMaxFrames bounds call depth.
const DefaultMaxFrames = 1024

// CallFrame is an active function invocation. Base is the stack index of
// the frame's slot 0; the callee value sits just below it.
type CallFrame struct {
	ReturnIP int
	Base     int
	SavedIT  Value
}

// VM executes a compiled Chunk.
type VM struct {
	chunk  *Chunk
	ip     int
	opIP   int // offset of the instruction being executed
	stack  []Value
	frames []CallFrame
	it     Value

	// Program I/O. Out defaults to os.Stdout and In to os.Stdin.
	Out io.Writer
	In  *bufio.Reader

	// Trace, when set, receives the stack and the instruction before each
	// step.
	Trace io.Writer

	MaxFrames int
}

// NewVM creates a VM for chunk.
func NewVM(chunk *Chunk) *VM {
	return &VM{
		chunk:     chunk,
		Out:       os.Stdout,
		In:        bufio.NewReader(os.Stdin),
		MaxFrames: DefaultMaxFrames,
	}
}

// Run executes chunk with the given I/O.
func Run(chunk *Chunk, out io.Writer, in io.Reader) error {
	vm := NewVM(chunk)
	vm.Out = out
	vm.In = bufio.NewReader(in)
	return vm.Run()
}

// Run executes the chunk from offset 0 until Halt or a top-level return.
func (vm *VM) Run() (err error) {
	vm.ip = 0
	vm.it = Null()
	// Slot 0 of the stack is a NOOB sentinel; top-level locals start at 1.
	vm.stack = append(vm.stack[:0], Null())
	vm.frames = append(vm.frames[:0], CallFrame{Base: 1})

	defer func() {
		// Index errors can only come from hand-built or corrupted chunks.
		if r := recover(); r != nil {
			if e, ok := r.(runtime.Error); ok {
				err = vm.errorf(diag.Runtime, "malformed bytecode: %v", e)
				return
			}
			panic(r)
		}
	}()
	return vm.run()
}

// IT returns the current value of the implicit variable.
func (vm *VM) IT() Value { return vm.it }

// Stack returns the operand stack, bottom first.
func (vm *VM) Stack() []Value { return vm.stack }

// run is the main execution loop.
func (vm *VM) run() error {
	code := vm.chunk.Code
	for {
		if vm.ip >= len(code) {
			return vm.errorf(diag.Runtime, "execution ran past the end of the code")
		}
		if vm.Trace != nil {
			vm.trace()
		}

		vm.opIP = vm.ip
		op, ok := LookupOpcode(code[vm.ip])
		if !ok {
			return vm.errorf(diag.Runtime, "invalid opcode 0x%02X at offset %d", code[vm.ip], vm.ip)
		}
		operandLen := op.OperandLen()
		if vm.ip+1+operandLen > len(code) {
			return vm.errorf(diag.Runtime, "truncated %s instruction at offset %d", op, vm.ip)
		}
		at := vm.ip + 1
		vm.ip = at + operandLen
		arg := 0
		switch operandLen {
		case 1:
			arg = int(code[at])
		case 3:
			arg = vm.chunk.ReadU24(at)
		}

		switch op {
		// ============ Stack Operations ============
		case OpNop:

		case OpPop:
			vm.pop()

		case OpPopN, OpPopNLong:
			if arg > len(vm.stack)-vm.frame().Base {
				return vm.errorf(diag.Runtime, "stack underflow")
			}
			vm.stack = vm.stack[:len(vm.stack)-arg]

		// ============ Constants ============
		case OpLoadConst, OpLoadConstLong:
			if arg >= len(vm.chunk.Constants) {
				return vm.errorf(diag.Runtime, "constant %d out of range", arg)
			}
			vm.push(vm.chunk.Constants[arg])

		// ============ Slots and IT ============
		case OpReadSt, OpReadStLong:
			slot, err := vm.slot(arg)
			if err != nil {
				return err
			}
			vm.push(vm.stack[slot])

		case OpWriteSt, OpWriteStLong:
			v := vm.pop()
			slot, err := vm.slot(arg)
			if err != nil {
				return err
			}
			vm.stack[slot] = v

		case OpReadIt:
			vm.push(vm.it)

		case OpWriteIt:
			vm.it = vm.pop()

		// ============ Arithmetic ============
		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpMin, OpMax:
			b, a := vm.pop(), vm.pop()
			r, err := vm.arith(op, a, b)
			if err != nil {
				return err
			}
			vm.push(r)

		// ============ Comparison ============
		case OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(a.Equal(b)))

		case OpNotEq:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(!a.Equal(b)))

		case OpGT, OpLT, OpGTE, OpLTE:
			b, a := vm.pop(), vm.pop()
			r, err := vm.compare(op, a, b)
			if err != nil {
				return err
			}
			vm.push(Bool(r))

		// ============ Logical ============
		case OpAnd:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(a.Truthy() && b.Truthy()))

		case OpOr:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(a.Truthy() || b.Truthy()))

		case OpXor:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(a.Truthy() != b.Truthy()))

		case OpNot:
			vm.push(Bool(!vm.pop().Truthy()))

		// ============ Strings and Casts ============
		case OpConcat:
			b, a := vm.pop(), vm.pop()
			vm.push(Str(a.String() + b.String()))

		case OpInterp, OpInterpLong:
			if arg >= len(vm.chunk.Constants) || vm.chunk.Constants[arg].Kind != KindInterp {
				return vm.errorf(diag.Runtime, "constant %d is not a template", arg)
			}
			tmpl := vm.chunk.Constants[arg].Tmpl
			n := len(tmpl.Offsets)
			parts := make([]string, n)
			for i, v := range vm.stack[len(vm.stack)-n:] {
				parts[i] = v.String()
			}
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(Str(tmpl.Render(parts)))

		case OpCast:
			r, err := vm.cast(vm.pop(), compiler.ValueType(arg))
			if err != nil {
				return err
			}
			vm.push(r)

		// ============ Lists ============
		case OpList, OpListLong:
			elems := make([]Value, arg)
			copy(elems, vm.stack[len(vm.stack)-arg:])
			vm.stack = vm.stack[:len(vm.stack)-arg]
			vm.push(NewList(elems))

		case OpAppend:
			v, target := vm.pop(), vm.pop()
			if target.Kind != KindList {
				return vm.errorf(diag.Type, "cannot append to a %s", target.Kind)
			}
			target.List.Elems = append(target.List.Elems, v)

		case OpGetIndex:
			idx, src := vm.pop(), vm.pop()
			r, err := vm.index(src, idx)
			if err != nil {
				return err
			}
			vm.push(r)

		case OpSetIndex:
			v, idx, target := vm.pop(), vm.pop(), vm.pop()
			if err := vm.setIndex(target, idx, v); err != nil {
				return err
			}

		case OpFront, OpBack:
			r, err := vm.end(vm.pop(), op == OpBack)
			if err != nil {
				return err
			}
			vm.push(r)

		case OpLen:
			r, err := vm.length(vm.pop())
			if err != nil {
				return err
			}
			vm.push(r)

		// ============ Control Flow ============
		case OpJump:
			vm.ip = vm.chunk.ReadJump(at)

		case OpJumpIfFalse:
			if !vm.pop().Truthy() {
				vm.ip = vm.chunk.ReadJump(at)
			}

		// ============ Functions ============
		case OpFnDef:
			// Reached only by falling into a body; skip the marker.

		case OpCall:
			if err := vm.call(arg); err != nil {
				return err
			}

		case OpReturn:
			v := vm.pop()
			if len(vm.frames) == 1 {
				return vm.print(v, true)
			}
			f := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:f.Base-1]
			vm.ip = f.ReturnIP
			vm.it = f.SavedIT
			vm.push(v)

		// ============ I/O ============
		case OpPrint:
			if err := vm.print(vm.pop(), arg != 0); err != nil {
				return err
			}

		case OpRead:
			line, err := vm.In.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read input: %w", err)
			}
			vm.push(Str(strings.TrimRight(line, "\r\n")))

		case OpHalt:
			return nil

		default:
			return vm.errorf(diag.Runtime, "unhandled opcode %s", op)
		}
	}
}

// call enters the function below the top argc stack values.
func (vm *VM) call(argc int) error {
	calleeAt := len(vm.stack) - argc - 1
	if calleeAt < vm.frame().Base {
		return vm.errorf(diag.Runtime, "stack underflow")
	}
	callee := vm.stack[calleeAt]
	if callee.Kind != KindFunction {
		return vm.errorf(diag.Type, "cannot call a %s", callee.Kind)
	}
	target := int(callee.Int)
	code := vm.chunk.Code
	if target < 0 || target+1 >= len(code) || Opcode(code[target]) != OpFnDef {
		return vm.errorf(diag.Runtime, "no function at offset 0x%X", target)
	}
	if arity := int(code[target+1]); arity != argc {
		return vm.errorf(diag.FunctionArgumentMany, "function takes %d arguments, got %d", arity, argc)
	}
	if len(vm.frames) >= vm.MaxFrames {
		return vm.errorf(diag.Runtime, "stack overflow")
	}
	vm.frames = append(vm.frames, CallFrame{
		ReturnIP: vm.ip,
		Base:     calleeAt + 1,
		SavedIT:  vm.it,
	})
	vm.it = Null()
	vm.ip = target + OpFnDef.InstructionLen()
	return nil
}

func (vm *VM) print(v Value, newline bool) error {
	s := v.String()
	if newline {
		s += "\n"
	}
	if _, err := io.WriteString(vm.Out, s); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (vm *VM) trace() {
	parts := make([]string, len(vm.stack))
	for i, v := range vm.stack {
		parts[i] = v.Repr()
	}
	fmt.Fprintf(vm.Trace, "          [%s]\n", strings.Join(parts, ", "))
	if text, _, err := vm.chunk.DisassembleInstruction(vm.ip); err == nil {
		fmt.Fprintf(vm.Trace, "%04X  %s\n", vm.ip, text)
	} else {
		fmt.Fprintf(vm.Trace, "%04X  ; %v\n", vm.ip, err)
	}
}

// Stack helpers

func (vm *VM) frame() *CallFrame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) slot(n int) (int, error) {
	i := vm.frame().Base + n
	if i >= len(vm.stack) {
		return 0, vm.errorf(diag.Runtime, "slot %d out of range", n)
	}
	return i, nil
}

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// errorf reports a diagnostic at the span of the current instruction.
func (vm *VM) errorf(kind diag.Kind, format string, args ...any) error {
	return diag.New(kind, vm.chunk.SpanAt(vm.opIP), format, args...)
}
