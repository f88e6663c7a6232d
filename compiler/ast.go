package compiler

import (
	"fmt"

	"github.com/chazu/lolcode/pkg/diag"
)

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for LOLCODE
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() diag.Span
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Ident is a name occurrence. Two identifiers are equal when they carry the
// same handle, wherever they appear.
type Ident struct {
	Sym     Sym
	SpanVal diag.Span
}

func (id Ident) Span() diag.Span { return id.SpanVal }

// Equal reports whether id and other name the same thing.
func (id Ident) Equal(other Ident) bool { return id.Sym == other.Sym }

// ValueType names a LOLCODE type in casts and typed declarations.
type ValueType uint8

const (
	TypeNoob ValueType = iota
	TypeTroof
	TypeNumbr
	TypeNumbar
	TypeYarn
	TypeBukkit
)

var valueTypeNames = [...]string{"NOOB", "TROOF", "NUMBR", "NUMBAR", "YARN", "BUKKIT"}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// OpTy tags a binary operator.
type OpTy uint8

const (
	OpAdd OpTy = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpAnd
	OpOr
	OpXor
	OpEqual
	OpNotEq
	OpGT
	OpLT
	OpGTE
	OpLTE
)

var opNames = [...]string{
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod",
	OpMin: "Min", OpMax: "Max", OpAnd: "And", OpOr: "Or", OpXor: "Xor",
	OpEqual: "Equal", OpNotEq: "NotEq", OpGT: "GT", OpLT: "LT", OpGTE: "GTE", OpLTE: "LTE",
}

func (op OpTy) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OpTy(%d)", uint8(op))
}

// Program is the root of a parsed source file.
type Program struct {
	SpanVal diag.Span
	Version string
	Body    *Block
}

func (n *Program) Span() diag.Span { return n.SpanVal }
func (n *Program) node()           {}

// Block is an ordered statement list.
type Block struct {
	SpanVal diag.Span
	Stmts   []Stmt
}

func (n *Block) Span() diag.Span { return n.SpanVal }
func (n *Block) node()           {}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// IntLit is a NUMBR literal.
type IntLit struct {
	SpanVal diag.Span
	Value   int64
}

func (n *IntLit) Span() diag.Span { return n.SpanVal }
func (n *IntLit) node()           {}
func (n *IntLit) expr()           {}

// FloatLit is a NUMBAR literal.
type FloatLit struct {
	SpanVal diag.Span
	Value   float64
}

func (n *FloatLit) Span() diag.Span { return n.SpanVal }
func (n *FloatLit) node()           {}
func (n *FloatLit) expr()           {}

// StringLit is a YARN literal with escapes already decoded.
type StringLit struct {
	SpanVal diag.Span
	Value   string
}

func (n *StringLit) Span() diag.Span { return n.SpanVal }
func (n *StringLit) node()           {}
func (n *StringLit) expr()           {}

// Splice is one :{name} reference inside an interpolated string.
type Splice struct {
	Offset int
	Name   Ident
}

// InterpLit is a string literal with variable splices. Text is the literal
// with the splices removed; each splice's Offset indexes into Text.
type InterpLit struct {
	SpanVal diag.Span
	Text    string
	Splices []Splice
}

func (n *InterpLit) Span() diag.Span { return n.SpanVal }
func (n *InterpLit) node()           {}
func (n *InterpLit) expr()           {}

// BoolLit is WIN or FAIL.
type BoolLit struct {
	SpanVal diag.Span
	Value   bool
}

func (n *BoolLit) Span() diag.Span { return n.SpanVal }
func (n *BoolLit) node()           {}
func (n *BoolLit) expr()           {}

// ListLit is a BUKKIT literal.
type ListLit struct {
	SpanVal diag.Span
	Elems   []Expr
}

func (n *ListLit) Span() diag.Span { return n.SpanVal }
func (n *ListLit) node()           {}
func (n *ListLit) expr()           {}

// NullLit is NOOB.
type NullLit struct {
	SpanVal diag.Span
}

func (n *NullLit) Span() diag.Span { return n.SpanVal }
func (n *NullLit) node()           {}
func (n *NullLit) expr()           {}

// ItExpr reads the implicit IT register.
type ItExpr struct {
	SpanVal diag.Span
}

func (n *ItExpr) Span() diag.Span { return n.SpanVal }
func (n *ItExpr) node()           {}
func (n *ItExpr) expr()           {}

// VarRef reads a variable.
type VarRef struct {
	SpanVal diag.Span
	Name    Ident
}

func (n *VarRef) Span() diag.Span { return n.SpanVal }
func (n *VarRef) node()           {}
func (n *VarRef) expr()           {}

// CallExpr is I IZ name [YR arg (AN YR arg)*] MKAY.
type CallExpr struct {
	SpanVal diag.Span
	Name    Ident
	Args    []Expr
}

func (n *CallExpr) Span() diag.Span { return n.SpanVal }
func (n *CallExpr) node()           {}
func (n *CallExpr) expr()           {}

// ConcatExpr is SMOOSH over any number of parts.
type ConcatExpr struct {
	SpanVal diag.Span
	Parts   []Expr
}

func (n *ConcatExpr) Span() diag.Span { return n.SpanVal }
func (n *ConcatExpr) node()           {}
func (n *ConcatExpr) expr()           {}

// CastExpr is MAEK x A type.
type CastExpr struct {
	SpanVal diag.Span
	X       Expr
	To      ValueType
}

func (n *CastExpr) Span() diag.Span { return n.SpanVal }
func (n *CastExpr) node()           {}
func (n *CastExpr) expr()           {}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	SpanVal diag.Span
	Op      OpTy
	Left    Expr
	Right   Expr
}

func (n *BinaryExpr) Span() diag.Span { return n.SpanVal }
func (n *BinaryExpr) node()           {}
func (n *BinaryExpr) expr()           {}

// NaryOp selects ALL OF or ANY OF.
type NaryOp uint8

const (
	NaryAll NaryOp = iota
	NaryAny
)

// NaryExpr is ALL OF or ANY OF over an operand list.
type NaryExpr struct {
	SpanVal  diag.Span
	Op       NaryOp
	Operands []Expr
}

func (n *NaryExpr) Span() diag.Span { return n.SpanVal }
func (n *NaryExpr) node()           {}
func (n *NaryExpr) expr()           {}

// UnaryOp selects NOT or LEN OF.
type UnaryOp uint8

const (
	UnaryNot UnaryOp = iota
	UnaryLen
)

// UnaryExpr applies NOT or LEN OF.
type UnaryExpr struct {
	SpanVal diag.Span
	Op      UnaryOp
	X       Expr
}

func (n *UnaryExpr) Span() diag.Span { return n.SpanVal }
func (n *UnaryExpr) node()           {}
func (n *UnaryExpr) expr()           {}

// IndexKind selects what an IndexExpr picks.
type IndexKind uint8

const (
	IndexAt IndexKind = iota
	IndexFront
	IndexBack
)

// IndexExpr is PICK (idx | FRONT | BAK) OUTTA source. Index is nil unless
// Kind is IndexAt.
type IndexExpr struct {
	SpanVal diag.Span
	Kind    IndexKind
	Index   Expr
	Source  Expr
}

func (n *IndexExpr) Span() diag.Span { return n.SpanVal }
func (n *IndexExpr) node()           {}
func (n *IndexExpr) expr()           {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// AssignStmt is target R value. The target may be IT.
type AssignStmt struct {
	SpanVal diag.Span
	Target  Ident
	Value   Expr
}

func (n *AssignStmt) Span() diag.Span { return n.SpanVal }
func (n *AssignStmt) node()           {}
func (n *AssignStmt) stmt()           {}

// DeclareStmt is I HAS A name [ITZ value | ITZ A type].
type DeclareStmt struct {
	SpanVal diag.Span
	Name    Ident
	Init    Expr // nil when absent
	Type    ValueType
	Typed   bool // ITZ A type form
}

func (n *DeclareStmt) Span() diag.Span { return n.SpanVal }
func (n *DeclareStmt) node()           {}
func (n *DeclareStmt) stmt()           {}

// ImportStmt is CAN HAS name ?.
type ImportStmt struct {
	SpanVal diag.Span
	Name    Ident
}

func (n *ImportStmt) Span() diag.Span { return n.SpanVal }
func (n *ImportStmt) node()           {}
func (n *ImportStmt) stmt()           {}

// FuncDef is HOW IZ I name [YR arg ...] ... IF U SAY SO.
type FuncDef struct {
	SpanVal diag.Span
	Name    Ident
	Params  []Ident
	Body    *Block
}

func (n *FuncDef) Span() diag.Span { return n.SpanVal }
func (n *FuncDef) node()           {}
func (n *FuncDef) stmt()           {}

// ExprStmt evaluates an expression and stores it in IT.
type ExprStmt struct {
	SpanVal diag.Span
	X       Expr
}

func (n *ExprStmt) Span() diag.Span { return n.SpanVal }
func (n *ExprStmt) node()           {}
func (n *ExprStmt) stmt()           {}

// CaseArm is OMG value followed by its body.
type CaseArm struct {
	Match Expr
	Body  *Block
}

// CaseStmt is WTF? over IT.
type CaseStmt struct {
	SpanVal diag.Span
	Arms    []CaseArm
	Default *Block // OMGWTF, nil when absent
}

func (n *CaseStmt) Span() diag.Span { return n.SpanVal }
func (n *CaseStmt) node()           {}
func (n *CaseStmt) stmt()           {}

// CondArm is MEBBE cond followed by its body.
type CondArm struct {
	Cond Expr
	Body *Block
}

// IfStmt is O RLY? over IT. Then and Else are nil when absent.
type IfStmt struct {
	SpanVal diag.Span
	Then    *Block
	ElseIfs []CondArm
	Else    *Block
}

func (n *IfStmt) Span() diag.Span { return n.SpanVal }
func (n *IfStmt) node()           {}
func (n *IfStmt) stmt()           {}

// CastStmt is name IS NOW A type.
type CastStmt struct {
	SpanVal diag.Span
	Name    Ident
	To      ValueType
}

func (n *CastStmt) Span() diag.Span { return n.SpanVal }
func (n *CastStmt) node()           {}
func (n *CastStmt) stmt()           {}

// BreakStmt is GTFO.
type BreakStmt struct {
	SpanVal diag.Span
}

func (n *BreakStmt) Span() diag.Span { return n.SpanVal }
func (n *BreakStmt) node()           {}
func (n *BreakStmt) stmt()           {}

// LoopOp selects how a loop updates its index variable.
type LoopOp uint8

const (
	LoopUppin LoopOp = iota
	LoopNerfin
	LoopFunc
)

// LoopCond selects when a loop with an update stops.
type LoopCond uint8

const (
	LoopForever LoopCond = iota
	LoopUntil
	LoopWhile
)

// LoopUpdate is the optional "op YR var [TIL|WILE expr]" loop header.
type LoopUpdate struct {
	Op   LoopOp
	Func Ident // set when Op is LoopFunc
	Var  Ident
	Cond LoopCond
	Test Expr // nil when Cond is LoopForever
}

// LoopStmt is IM IN YR label ... IM OUTTA YR label.
type LoopStmt struct {
	SpanVal  diag.Span
	Label    Ident
	EndLabel Ident
	Update   *LoopUpdate // nil for a bare loop
	Body     *Block
}

func (n *LoopStmt) Span() diag.Span { return n.SpanVal }
func (n *LoopStmt) node()           {}
func (n *LoopStmt) stmt()           {}

// ReturnStmt is FOUND YR value.
type ReturnStmt struct {
	SpanVal diag.Span
	Value   Expr
}

func (n *ReturnStmt) Span() diag.Span { return n.SpanVal }
func (n *ReturnStmt) node()           {}
func (n *ReturnStmt) stmt()           {}

// PrintStmt is VISIBLE args [!].
type PrintStmt struct {
	SpanVal   diag.Span
	Args      []Expr
	NoNewline bool
}

func (n *PrintStmt) Span() diag.Span { return n.SpanVal }
func (n *PrintStmt) node()           {}
func (n *PrintStmt) stmt()           {}

// ReadStmt is GIMMEH target.
type ReadStmt struct {
	SpanVal diag.Span
	Target  Ident
}

func (n *ReadStmt) Span() diag.Span { return n.SpanVal }
func (n *ReadStmt) node()           {}
func (n *ReadStmt) stmt()           {}

// AppendStmt is PUT value IN MAH target.
type AppendStmt struct {
	SpanVal diag.Span
	Target  Ident
	Value   Expr
}

func (n *AppendStmt) Span() diag.Span { return n.SpanVal }
func (n *AppendStmt) node()           {}
func (n *AppendStmt) stmt()           {}

// SetIndexStmt is PUT value IN MAH target AT index.
type SetIndexStmt struct {
	SpanVal diag.Span
	Target  Ident
	Index   Expr
	Value   Expr
}

func (n *SetIndexStmt) Span() diag.Span { return n.SpanVal }
func (n *SetIndexStmt) node()           {}
func (n *SetIndexStmt) stmt()           {}

// ---------------------------------------------------------------------------
// Structural equality
// ---------------------------------------------------------------------------

// ExprEqual reports whether a and b are the same expression, ignoring spans.
func ExprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *IntLit:
		y, ok := b.(*IntLit)
		return ok && x.Value == y.Value
	case *FloatLit:
		y, ok := b.(*FloatLit)
		return ok && x.Value == y.Value
	case *StringLit:
		y, ok := b.(*StringLit)
		return ok && x.Value == y.Value
	case *InterpLit:
		y, ok := b.(*InterpLit)
		if !ok || x.Text != y.Text || len(x.Splices) != len(y.Splices) {
			return false
		}
		for i := range x.Splices {
			if x.Splices[i].Offset != y.Splices[i].Offset || !x.Splices[i].Name.Equal(y.Splices[i].Name) {
				return false
			}
		}
		return true
	case *BoolLit:
		y, ok := b.(*BoolLit)
		return ok && x.Value == y.Value
	case *ListLit:
		y, ok := b.(*ListLit)
		return ok && exprsEqual(x.Elems, y.Elems)
	case *NullLit:
		_, ok := b.(*NullLit)
		return ok
	case *ItExpr:
		_, ok := b.(*ItExpr)
		return ok
	case *VarRef:
		y, ok := b.(*VarRef)
		return ok && x.Name.Equal(y.Name)
	case *CallExpr:
		y, ok := b.(*CallExpr)
		return ok && x.Name.Equal(y.Name) && exprsEqual(x.Args, y.Args)
	case *ConcatExpr:
		y, ok := b.(*ConcatExpr)
		return ok && exprsEqual(x.Parts, y.Parts)
	case *CastExpr:
		y, ok := b.(*CastExpr)
		return ok && x.To == y.To && ExprEqual(x.X, y.X)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && ExprEqual(x.Left, y.Left) && ExprEqual(x.Right, y.Right)
	case *NaryExpr:
		y, ok := b.(*NaryExpr)
		return ok && x.Op == y.Op && exprsEqual(x.Operands, y.Operands)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && ExprEqual(x.X, y.X)
	case *IndexExpr:
		y, ok := b.(*IndexExpr)
		return ok && x.Kind == y.Kind && ExprEqual(x.Index, y.Index) && ExprEqual(x.Source, y.Source)
	}
	return false
}

func exprsEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ExprEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// HasSideEffects reports whether evaluating e may call a function.
func HasSideEffects(e Expr) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *CallExpr:
		return true
	case *ListLit:
		return anySideEffects(x.Elems)
	case *ConcatExpr:
		return anySideEffects(x.Parts)
	case *CastExpr:
		return HasSideEffects(x.X)
	case *BinaryExpr:
		return HasSideEffects(x.Left) || HasSideEffects(x.Right)
	case *NaryExpr:
		return anySideEffects(x.Operands)
	case *UnaryExpr:
		return HasSideEffects(x.X)
	case *IndexExpr:
		return HasSideEffects(x.Index) || HasSideEffects(x.Source)
	}
	return false
}

func anySideEffects(es []Expr) bool {
	for _, e := range es {
		if HasSideEffects(e) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Traversal
// ---------------------------------------------------------------------------

// WalkStmts calls fn for every statement in b, depth first, including the
// statements of nested blocks. Returning false from fn skips the children
// of that statement.
func WalkStmts(b *Block, fn func(Stmt) bool) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		if !fn(s) {
			continue
		}
		switch x := s.(type) {
		case *FuncDef:
			WalkStmts(x.Body, fn)
		case *LoopStmt:
			WalkStmts(x.Body, fn)
		case *CaseStmt:
			for _, arm := range x.Arms {
				WalkStmts(arm.Body, fn)
			}
			WalkStmts(x.Default, fn)
		case *IfStmt:
			WalkStmts(x.Then, fn)
			for _, arm := range x.ElseIfs {
				WalkStmts(arm.Body, fn)
			}
			WalkStmts(x.Else, fn)
		}
	}
}
