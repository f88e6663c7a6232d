package bytecode

import (
	"fmt"

	"github.com/chazu/lolcode/compiler"
	"github.com/chazu/lolcode/pkg/diag"
)

// maxArity is the most parameters or arguments a function may take.
const maxArity = MaxShortOperand

// blockKind identifies the construct a GTFO applies to.
type blockKind uint8

const (
	blockFunction blockKind = iota
	blockLoop
	blockCase
)

// breakable is an enclosing construct GTFO can leave.
type breakable struct {
	kind blockKind
	// locals is the number of locals live when the construct started; a
	// GTFO pops everything above it before jumping.
	locals int
	exits  []int // jump placeholders patched to the construct's end
}

// funcInfo describes a name known at compile time to hold a function.
type funcInfo struct {
	offset int
	arity  int
}

// local is a variable living in a stack slot of the current frame.
type local struct {
	name  compiler.Sym
	depth int
	fn    *funcInfo // nil unless the slot holds a known function
}

// env is the compile-time view of one frame. Function bodies get a fresh
// env whose parent is only consulted for function names.
type env struct {
	parent      *env
	locals      []local
	validLocals map[compiler.Sym]int // name -> slot
	depth       int
	blocks      []*breakable
}

func newEnv(parent *env) *env {
	return &env{parent: parent, validLocals: make(map[compiler.Sym]int)}
}

// Compiler lowers a parsed program to a Chunk.
type Compiler struct {
	chunk    *Chunk
	interner *compiler.Interner
	it       compiler.Sym
	env      *env
}

// NewCompiler creates a compiler that resolves names through interner.
func NewCompiler(interner *compiler.Interner) *Compiler {
	return &Compiler{
		chunk:    NewChunk(),
		interner: interner,
		it:       interner.Intern("IT"),
		env:      newEnv(nil),
	}
}

// Compile lowers prog into a new chunk.
func Compile(prog *compiler.Program, interner *compiler.Interner) (*Chunk, error) {
	return NewCompiler(interner).Compile(prog)
}

// Compile lowers prog. Top-level code ends in Halt.
func (c *Compiler) Compile(prog *compiler.Program) (*Chunk, error) {
	if err := c.compileBlock(prog.Body); err != nil {
		return nil, err
	}
	c.emit(OpHalt, prog.Span())
	c.chunk.Names = c.interner.All()
	return c.chunk, nil
}

// ---------------------------------------------------------------------------
// Emission helpers
// ---------------------------------------------------------------------------

func (c *Compiler) emit(op Opcode, span diag.Span, operands ...byte) int {
	return c.chunk.Emit(op, span, operands...)
}

func (c *Compiler) emitConstant(v Value, span diag.Span) error {
	if _, err := c.chunk.EmitConstant(v, span); err != nil {
		return diag.New(diag.Runtime, span, "constant pool overflow: %v", err)
	}
	return nil
}

func (c *Compiler) emitIndexed(short, long Opcode, n int, span diag.Span) error {
	if _, err := c.chunk.EmitIndexed(short, long, n, span); err != nil {
		return diag.New(diag.Runtime, span, "%s: %v", short, err)
	}
	return nil
}

// emitPops drops n stack slots, emitting nothing when n is zero.
func (c *Compiler) emitPops(n int, span diag.Span) error {
	if n == 0 {
		return nil
	}
	return c.emitIndexed(OpPopN, OpPopNLong, n, span)
}

// ---------------------------------------------------------------------------
// Scopes and name resolution
// ---------------------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.env.depth++
}

// endScope drops every local declared deeper than the enclosing depth and
// emits the matching pop.
func (c *Compiler) endScope(span diag.Span) error {
	e := c.env
	e.depth--
	n := 0
	for len(e.locals) > 0 && e.locals[len(e.locals)-1].depth > e.depth {
		last := e.locals[len(e.locals)-1]
		e.locals = e.locals[:len(e.locals)-1]
		delete(e.validLocals, last.name)
		n++
		// Uncover a shadowed outer binding of the same name.
		for i := len(e.locals) - 1; i >= 0; i-- {
			if e.locals[i].name == last.name {
				e.validLocals[last.name] = i
				break
			}
		}
	}
	return c.emitPops(n, span)
}

// declare binds name to the slot the value just pushed now occupies.
func (c *Compiler) declare(name compiler.Sym, fn *funcInfo) int {
	e := c.env
	slot := len(e.locals)
	e.locals = append(e.locals, local{name: name, depth: e.depth, fn: fn})
	e.validLocals[name] = slot
	return slot
}

// resolved is the outcome of looking a name up.
type resolved struct {
	slot  int       // valid when fn is nil or the name is in the current env
	fn    *funcInfo // known function binding
	outer bool      // found in an enclosing function's env
}

func (c *Compiler) resolve(id compiler.Ident) (resolved, error) {
	if slot, ok := c.env.validLocals[id.Sym]; ok {
		return resolved{slot: slot, fn: c.env.locals[slot].fn}, nil
	}
	for e := c.env.parent; e != nil; e = e.parent {
		slot, ok := e.validLocals[id.Sym]
		if !ok {
			continue
		}
		if fn := e.locals[slot].fn; fn != nil {
			return resolved{fn: fn, outer: true}, nil
		}
		return resolved{}, diag.New(diag.Scope, id.Span(),
			"variable %s is not visible inside a function", c.interner.Lookup(id.Sym))
	}
	return resolved{}, diag.New(diag.Scope, id.Span(), "unknown symbol %s", c.interner.Lookup(id.Sym))
}

// compileRead pushes the value named by id.
func (c *Compiler) compileRead(id compiler.Ident) error {
	if id.Sym == c.it {
		c.emit(OpReadIt, id.Span())
		return nil
	}
	r, err := c.resolve(id)
	if err != nil {
		return err
	}
	if r.outer {
		return c.emitConstant(Function(r.fn.offset), id.Span())
	}
	return c.emitIndexed(OpReadSt, OpReadStLong, r.slot, id.Span())
}

// compileWrite pops the top of stack into the variable named by id.
func (c *Compiler) compileWrite(id compiler.Ident) error {
	if id.Sym == c.it {
		c.emit(OpWriteIt, id.Span())
		return nil
	}
	r, err := c.resolve(id)
	if err != nil {
		return err
	}
	if r.outer {
		return diag.New(diag.Scope, id.Span(),
			"cannot assign to %s from inside a function", c.interner.Lookup(id.Sym))
	}
	// The slot may no longer hold the function it was declared with.
	c.env.locals[r.slot].fn = nil
	return c.emitIndexed(OpWriteSt, OpWriteStLong, r.slot, id.Span())
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) compileBlock(b *compiler.Block) error {
	if b == nil {
		return nil
	}
	for _, stmt := range b.Stmts {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileScoped compiles b in its own scope.
func (c *Compiler) compileScoped(b *compiler.Block, span diag.Span) error {
	c.beginScope()
	if err := c.compileBlock(b); err != nil {
		return err
	}
	return c.endScope(span)
}

func (c *Compiler) compileStatement(stmt compiler.Stmt) error {
	switch s := stmt.(type) {
	case *compiler.AssignStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		return c.compileWrite(s.Target)

	case *compiler.DeclareStmt:
		return c.compileDeclare(s)

	case *compiler.ImportStmt:
		// Libraries are built in; nothing to load.
		return nil

	case *compiler.FuncDef:
		return c.compileFuncDef(s)

	case *compiler.ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		c.emit(OpWriteIt, s.Span())
		return nil

	case *compiler.CaseStmt:
		return c.compileCase(s)

	case *compiler.IfStmt:
		return c.compileIf(s)

	case *compiler.CastStmt:
		if err := c.compileRead(s.Name); err != nil {
			return err
		}
		c.emit(OpCast, s.Span(), byte(s.To))
		return c.compileWrite(s.Name)

	case *compiler.BreakStmt:
		return c.compileBreak(s)

	case *compiler.LoopStmt:
		return c.compileLoop(s)

	case *compiler.ReturnStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emit(OpReturn, s.Span())
		return nil

	case *compiler.PrintStmt:
		return c.compilePrint(s)

	case *compiler.ReadStmt:
		c.emit(OpRead, s.Span())
		return c.compileWrite(s.Target)

	case *compiler.AppendStmt:
		if err := c.compileRead(s.Target); err != nil {
			return err
		}
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emit(OpAppend, s.Span())
		return nil

	case *compiler.SetIndexStmt:
		if err := c.compileRead(s.Target); err != nil {
			return err
		}
		if err := c.compileExpr(s.Index); err != nil {
			return err
		}
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emit(OpSetIndex, s.Span())
		return nil

	default:
		return fmt.Errorf("bytecode: unknown statement type: %T", stmt)
	}
}

// compileDeclare leaves the initial value on the stack as the new slot.
func (c *Compiler) compileDeclare(s *compiler.DeclareStmt) error {
	span := s.Span()
	switch {
	case s.Init != nil:
		if err := c.compileExpr(s.Init); err != nil {
			return err
		}
	case s.Typed:
		if err := c.emitDefault(s.Type, span); err != nil {
			return err
		}
	default:
		if err := c.emitConstant(Null(), span); err != nil {
			return err
		}
	}
	c.declare(s.Name.Sym, nil)
	return nil
}

// emitDefault pushes the zero value of t.
func (c *Compiler) emitDefault(t compiler.ValueType, span diag.Span) error {
	switch t {
	case compiler.TypeTroof:
		return c.emitConstant(Bool(false), span)
	case compiler.TypeNumbr:
		return c.emitConstant(Int(0), span)
	case compiler.TypeNumbar:
		return c.emitConstant(Float(0), span)
	case compiler.TypeYarn:
		return c.emitConstant(Str(""), span)
	case compiler.TypeBukkit:
		c.emit(OpList, span, 0)
		return nil
	default:
		return c.emitConstant(Null(), span)
	}
}

// compileFuncDef emits the body behind a skip jump and binds the name to a
// Function constant in the enclosing scope.
func (c *Compiler) compileFuncDef(s *compiler.FuncDef) error {
	span := s.Span()
	if len(s.Params) > maxArity {
		return diag.New(diag.FunctionArgumentMany, s.Name.Span(),
			"function %s takes %d parameters, at most %d are allowed",
			c.interner.Lookup(s.Name.Sym), len(s.Params), maxArity)
	}

	skip := c.chunk.EmitJump(OpJump, span)
	fn := &funcInfo{offset: c.chunk.CurrentOffset(), arity: len(s.Params)}
	c.emit(OpFnDef, span, byte(len(s.Params)))

	// Declared before the body so the body can call itself. The slot is
	// filled by the LoadConst emitted after the body.
	c.declare(s.Name.Sym, fn)

	outer := c.env
	c.env = newEnv(outer)
	c.env.depth = 1
	for _, p := range s.Params {
		c.declare(p.Sym, nil)
	}
	c.env.blocks = append(c.env.blocks, &breakable{kind: blockFunction})

	err := c.compileBlock(s.Body)
	if err == nil && !endsInTransfer(s.Body) {
		c.emit(OpReadIt, span)
		c.emit(OpReturn, span)
	}
	c.env = outer
	if err != nil {
		return err
	}

	c.chunk.PatchJump(skip)
	return c.emitConstant(Function(fn.offset), span)
}

func endsInTransfer(b *compiler.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*compiler.ReturnStmt)
	return ok
}

// compileIf lowers O RLY?. YA RLY tests IT; each MEBBE tests its own
// expression.
func (c *Compiler) compileIf(s *compiler.IfStmt) error {
	span := s.Span()
	var ends []int

	c.emit(OpReadIt, span)
	next := c.chunk.EmitJump(OpJumpIfFalse, span)
	if err := c.compileScoped(s.Then, span); err != nil {
		return err
	}
	ends = append(ends, c.chunk.EmitJump(OpJump, span))

	for _, arm := range s.ElseIfs {
		c.chunk.PatchJump(next)
		if err := c.compileExpr(arm.Cond); err != nil {
			return err
		}
		next = c.chunk.EmitJump(OpJumpIfFalse, arm.Cond.Span())
		if err := c.compileScoped(arm.Body, span); err != nil {
			return err
		}
		ends = append(ends, c.chunk.EmitJump(OpJump, span))
	}

	c.chunk.PatchJump(next)
	if s.Else != nil {
		if err := c.compileScoped(s.Else, span); err != nil {
			return err
		}
	}
	for _, j := range ends {
		c.chunk.PatchJump(j)
	}
	return nil
}

// compileCase lowers WTF?. A matching arm's body falls through into the
// following bodies until a GTFO.
func (c *Compiler) compileCase(s *compiler.CaseStmt) error {
	span := s.Span()
	blk := &breakable{kind: blockCase, locals: len(c.env.locals)}
	c.env.blocks = append(c.env.blocks, blk)
	defer func() { c.env.blocks = c.env.blocks[:len(c.env.blocks)-1] }()

	fall := -1
	for _, arm := range s.Arms {
		c.emit(OpReadIt, arm.Match.Span())
		if err := c.compileExpr(arm.Match); err != nil {
			return err
		}
		c.emit(OpEqual, arm.Match.Span())
		next := c.chunk.EmitJump(OpJumpIfFalse, arm.Match.Span())

		if fall >= 0 {
			c.chunk.PatchJump(fall)
		}
		if err := c.compileScoped(arm.Body, span); err != nil {
			return err
		}
		fall = c.chunk.EmitJump(OpJump, span)
		c.chunk.PatchJump(next)
	}

	if fall >= 0 {
		c.chunk.PatchJump(fall)
	}
	if s.Default != nil {
		if err := c.compileScoped(s.Default, span); err != nil {
			return err
		}
	}
	for _, j := range blk.exits {
		c.chunk.PatchJump(j)
	}
	return nil
}

// compileLoop lowers IM IN YR. The index variable lives in the loop's own
// scope and starts at 0; the condition is tested before each iteration.
func (c *Compiler) compileLoop(s *compiler.LoopStmt) error {
	span := s.Span()
	u := s.Update

	c.beginScope()
	indexSlot := -1
	if u != nil {
		if err := c.emitConstant(Int(0), u.Var.Span()); err != nil {
			return err
		}
		indexSlot = c.declare(u.Var.Sym, nil)
	}

	blk := &breakable{kind: blockLoop, locals: len(c.env.locals)}
	c.env.blocks = append(c.env.blocks, blk)

	loopStart := c.chunk.CurrentOffset()
	exit := -1
	if u != nil && u.Cond != compiler.LoopForever {
		if err := c.compileExpr(u.Test); err != nil {
			return err
		}
		if u.Cond == compiler.LoopUntil {
			c.emit(OpNot, u.Test.Span())
		}
		exit = c.chunk.EmitJump(OpJumpIfFalse, u.Test.Span())
	}

	if err := c.compileScoped(s.Body, span); err != nil {
		return err
	}

	if u != nil {
		if err := c.compileLoopUpdate(u, indexSlot); err != nil {
			return err
		}
	}
	c.chunk.EmitLoop(loopStart, span)

	if exit >= 0 {
		c.chunk.PatchJump(exit)
	}
	for _, j := range blk.exits {
		c.chunk.PatchJump(j)
	}
	c.env.blocks = c.env.blocks[:len(c.env.blocks)-1]
	return c.endScope(span)
}

func (c *Compiler) compileLoopUpdate(u *compiler.LoopUpdate, slot int) error {
	span := u.Var.Span()
	switch u.Op {
	case compiler.LoopUppin, compiler.LoopNerfin:
		if err := c.emitIndexed(OpReadSt, OpReadStLong, slot, span); err != nil {
			return err
		}
		if err := c.emitConstant(Int(1), span); err != nil {
			return err
		}
		if u.Op == compiler.LoopUppin {
			c.emit(OpAdd, span)
		} else {
			c.emit(OpSub, span)
		}
	case compiler.LoopFunc:
		if err := c.compileCallee(u.Func, 1); err != nil {
			return err
		}
		if err := c.emitIndexed(OpReadSt, OpReadStLong, slot, span); err != nil {
			return err
		}
		c.emit(OpCall, u.Func.Span(), 1)
	}
	return c.emitIndexed(OpWriteSt, OpWriteStLong, slot, span)
}

// compileBreak lowers GTFO for the innermost loop, case or function.
func (c *Compiler) compileBreak(s *compiler.BreakStmt) error {
	span := s.Span()
	blocks := c.env.blocks
	if len(blocks) == 0 {
		return diag.New(diag.Syntax, span, "GTFO outside of a loop, switch or function")
	}
	blk := blocks[len(blocks)-1]
	if blk.kind == blockFunction {
		if err := c.emitConstant(Null(), span); err != nil {
			return err
		}
		c.emit(OpReturn, span)
		return nil
	}
	if err := c.emitPops(len(c.env.locals)-blk.locals, span); err != nil {
		return err
	}
	blk.exits = append(blk.exits, c.chunk.EmitJump(OpJump, span))
	return nil
}

// compilePrint concatenates the arguments and prints the result.
func (c *Compiler) compilePrint(s *compiler.PrintStmt) error {
	for i, arg := range s.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
		if i > 0 {
			c.emit(OpConcat, arg.Span())
		}
	}
	if len(s.Args) == 0 {
		if err := c.emitConstant(Str(""), s.Span()); err != nil {
			return err
		}
	}
	var newline byte = 1
	if s.NoNewline {
		newline = 0
	}
	c.emit(OpPrint, s.Span(), newline)
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) compileExpr(expr compiler.Expr) error {
	span := expr.Span()
	switch e := expr.(type) {
	case *compiler.IntLit:
		return c.emitConstant(Int(e.Value), span)
	case *compiler.FloatLit:
		return c.emitConstant(Float(e.Value), span)
	case *compiler.StringLit:
		return c.emitConstant(Str(e.Value), span)
	case *compiler.BoolLit:
		return c.emitConstant(Bool(e.Value), span)
	case *compiler.NullLit:
		return c.emitConstant(Null(), span)
	case *compiler.ItExpr:
		c.emit(OpReadIt, span)
		return nil
	case *compiler.VarRef:
		return c.compileRead(e.Name)
	case *compiler.InterpLit:
		return c.compileInterp(e)
	case *compiler.ListLit:
		for _, el := range e.Elems {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		return c.emitIndexed(OpList, OpListLong, len(e.Elems), span)
	case *compiler.CallExpr:
		return c.compileCall(e)
	case *compiler.ConcatExpr:
		return c.compileConcat(e)
	case *compiler.CastExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(OpCast, span, byte(e.To))
		return nil
	case *compiler.BinaryExpr:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.emit(binaryOps[e.Op], span)
		return nil
	case *compiler.NaryExpr:
		return c.compileNary(e)
	case *compiler.UnaryExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		if e.Op == compiler.UnaryLen {
			c.emit(OpLen, span)
		} else {
			c.emit(OpNot, span)
		}
		return nil
	case *compiler.IndexExpr:
		if err := c.compileExpr(e.Source); err != nil {
			return err
		}
		switch e.Kind {
		case compiler.IndexFront:
			c.emit(OpFront, span)
		case compiler.IndexBack:
			c.emit(OpBack, span)
		default:
			if err := c.compileExpr(e.Index); err != nil {
				return err
			}
			c.emit(OpGetIndex, span)
		}
		return nil
	default:
		return fmt.Errorf("bytecode: unknown expression type: %T", expr)
	}
}

var binaryOps = map[compiler.OpTy]Opcode{
	compiler.OpAdd:   OpAdd,
	compiler.OpSub:   OpSub,
	compiler.OpMul:   OpMul,
	compiler.OpDiv:   OpDiv,
	compiler.OpMod:   OpMod,
	compiler.OpMin:   OpMin,
	compiler.OpMax:   OpMax,
	compiler.OpAnd:   OpAnd,
	compiler.OpOr:    OpOr,
	compiler.OpXor:   OpXor,
	compiler.OpEqual: OpEqual,
	compiler.OpNotEq: OpNotEq,
	compiler.OpGT:    OpGT,
	compiler.OpLT:    OpLT,
	compiler.OpGTE:   OpGTE,
	compiler.OpLTE:   OpLTE,
}

// compileInterp pushes each spliced variable, then renders the template.
func (c *Compiler) compileInterp(e *compiler.InterpLit) error {
	tmpl := &Template{Text: e.Text, Offsets: make([]int, len(e.Splices))}
	for i, sp := range e.Splices {
		if err := c.compileRead(sp.Name); err != nil {
			return err
		}
		tmpl.Offsets[i] = sp.Offset
	}
	idx := c.chunk.AddConstant(Interp(tmpl))
	return c.emitIndexed(OpInterp, OpInterpLong, idx, e.Span())
}

// compileCallee pushes the function named by id, checking the argument
// count against its arity when the binding is known.
func (c *Compiler) compileCallee(id compiler.Ident, argc int) error {
	if argc > maxArity {
		return diag.New(diag.FunctionArgumentMany, id.Span(),
			"call to %s passes %d arguments, at most %d are allowed",
			c.interner.Lookup(id.Sym), argc, maxArity)
	}
	if id.Sym != c.it {
		r, err := c.resolve(id)
		if err != nil {
			return err
		}
		if r.fn != nil && r.fn.arity != argc {
			return diag.New(diag.FunctionArgumentMany, id.Span(),
				"function %s takes %d arguments, got %d",
				c.interner.Lookup(id.Sym), r.fn.arity, argc)
		}
	}
	return c.compileRead(id)
}

func (c *Compiler) compileCall(e *compiler.CallExpr) error {
	if err := c.compileCallee(e.Name, len(e.Args)); err != nil {
		return err
	}
	for _, arg := range e.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.emit(OpCall, e.Span(), byte(len(e.Args)))
	return nil
}

// compileConcat folds SMOOSH pairwise. A single part is concatenated onto
// an empty string so the result is always a YARN.
func (c *Compiler) compileConcat(e *compiler.ConcatExpr) error {
	span := e.Span()
	if len(e.Parts) <= 1 {
		if err := c.emitConstant(Str(""), span); err != nil {
			return err
		}
		if len(e.Parts) == 0 {
			return nil
		}
		if err := c.compileExpr(e.Parts[0]); err != nil {
			return err
		}
		c.emit(OpConcat, span)
		return nil
	}
	for i, part := range e.Parts {
		if err := c.compileExpr(part); err != nil {
			return err
		}
		if i > 0 {
			c.emit(OpConcat, span)
		}
	}
	return nil
}

// compileNary folds ALL OF / ANY OF over And / Or.
func (c *Compiler) compileNary(e *compiler.NaryExpr) error {
	span := e.Span()
	op := OpAnd
	if e.Op == compiler.NaryAny {
		op = OpOr
	}
	switch len(e.Operands) {
	case 0:
		return c.emitConstant(Bool(e.Op == compiler.NaryAll), span)
	case 1:
		if err := c.compileExpr(e.Operands[0]); err != nil {
			return err
		}
		c.emit(OpCast, span, byte(compiler.TypeTroof))
		return nil
	}
	for i, x := range e.Operands {
		if err := c.compileExpr(x); err != nil {
			return err
		}
		if i > 0 {
			c.emit(op, span)
		}
	}
	return nil
}
