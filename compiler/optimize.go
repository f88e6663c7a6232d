package compiler

// ---------------------------------------------------------------------------
// Optimizer: algebraic rewrites over the AST
// ---------------------------------------------------------------------------

// Optimize returns a rewritten copy of prog. The input tree is not
// modified. Currently the only rewrite folds a comparison against BIGGR or
// SMALLR into a single relational operator:
//
//	BOTH SAEM x AN BIGGR OF x AN y   ->  x >= y
//	BOTH SAEM x AN SMALLR OF x AN y  ->  x <= y
//	DIFFRINT x AN BIGGR OF x AN y    ->  y > x
//	DIFFRINT x AN SMALLR OF x AN y   ->  y < x
//
// x must be free of calls. The pass is idempotent.
func Optimize(prog *Program) *Program {
	if prog == nil {
		return nil
	}
	out := *prog
	out.Body = optimizeBlock(prog.Body)
	return &out
}

func optimizeBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{SpanVal: b.SpanVal, Stmts: make([]Stmt, len(b.Stmts))}
	for i, s := range b.Stmts {
		out.Stmts[i] = optimizeStmt(s)
	}
	return out
}

func optimizeStmt(s Stmt) Stmt {
	switch x := s.(type) {
	case *AssignStmt:
		n := *x
		n.Value = OptimizeExpr(x.Value)
		return &n
	case *DeclareStmt:
		n := *x
		n.Init = OptimizeExpr(x.Init)
		return &n
	case *FuncDef:
		n := *x
		n.Body = optimizeBlock(x.Body)
		return &n
	case *ExprStmt:
		n := *x
		n.X = OptimizeExpr(x.X)
		return &n
	case *CaseStmt:
		n := *x
		n.Arms = make([]CaseArm, len(x.Arms))
		for i, arm := range x.Arms {
			n.Arms[i] = CaseArm{Match: OptimizeExpr(arm.Match), Body: optimizeBlock(arm.Body)}
		}
		n.Default = optimizeBlock(x.Default)
		return &n
	case *IfStmt:
		n := *x
		n.Then = optimizeBlock(x.Then)
		n.ElseIfs = make([]CondArm, len(x.ElseIfs))
		for i, arm := range x.ElseIfs {
			n.ElseIfs[i] = CondArm{Cond: OptimizeExpr(arm.Cond), Body: optimizeBlock(arm.Body)}
		}
		n.Else = optimizeBlock(x.Else)
		return &n
	case *LoopStmt:
		n := *x
		if x.Update != nil {
			up := *x.Update
			up.Test = OptimizeExpr(x.Update.Test)
			n.Update = &up
		}
		n.Body = optimizeBlock(x.Body)
		return &n
	case *ReturnStmt:
		n := *x
		n.Value = OptimizeExpr(x.Value)
		return &n
	case *PrintStmt:
		n := *x
		n.Args = optimizeExprs(x.Args)
		return &n
	case *AppendStmt:
		n := *x
		n.Value = OptimizeExpr(x.Value)
		return &n
	case *SetIndexStmt:
		n := *x
		n.Index = OptimizeExpr(x.Index)
		n.Value = OptimizeExpr(x.Value)
		return &n
	}
	// ImportStmt, CastStmt, BreakStmt, ReadStmt carry no expressions.
	return s
}

func optimizeExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = OptimizeExpr(e)
	}
	return out
}

// OptimizeExpr rewrites a single expression tree bottom up.
func OptimizeExpr(e Expr) Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ListLit:
		n := *x
		n.Elems = optimizeExprs(x.Elems)
		return &n
	case *CallExpr:
		n := *x
		n.Args = optimizeExprs(x.Args)
		return &n
	case *ConcatExpr:
		n := *x
		n.Parts = optimizeExprs(x.Parts)
		return &n
	case *CastExpr:
		n := *x
		n.X = OptimizeExpr(x.X)
		return &n
	case *NaryExpr:
		n := *x
		n.Operands = optimizeExprs(x.Operands)
		return &n
	case *UnaryExpr:
		n := *x
		n.X = OptimizeExpr(x.X)
		return &n
	case *IndexExpr:
		n := *x
		n.Index = OptimizeExpr(x.Index)
		n.Source = OptimizeExpr(x.Source)
		return &n
	case *BinaryExpr:
		n := *x
		n.Left = OptimizeExpr(x.Left)
		n.Right = OptimizeExpr(x.Right)
		return foldMinMaxCompare(&n)
	}
	return e
}

// minMaxFold maps (outer, inner) to the replacement operator.
var minMaxFold = map[[2]OpTy]OpTy{
	{OpEqual, OpMax}: OpGTE,
	{OpEqual, OpMin}: OpLTE,
	{OpNotEq, OpMax}: OpGT,
	{OpNotEq, OpMin}: OpLT,
}

func foldMinMaxCompare(cmp *BinaryExpr) Expr {
	if cmp.Op != OpEqual && cmp.Op != OpNotEq {
		return cmp
	}
	inner, other := asMinMax(cmp.Left), cmp.Right
	if inner == nil {
		inner, other = asMinMax(cmp.Right), cmp.Left
	}
	if inner == nil || HasSideEffects(other) || nonNumeric(other) {
		return cmp
	}

	var matched, rest Expr
	switch {
	case ExprEqual(inner.Left, other):
		matched, rest = inner.Left, inner.Right
	case ExprEqual(inner.Right, other):
		matched, rest = inner.Right, inner.Left
	default:
		return cmp
	}

	out := &BinaryExpr{SpanVal: cmp.SpanVal, Op: minMaxFold[[2]OpTy{cmp.Op, inner.Op}]}
	if cmp.Op == OpEqual {
		out.Left, out.Right = matched, rest
	} else {
		out.Left, out.Right = rest, matched
	}
	return out
}

// nonNumeric reports whether e is statically known not to be a number.
// Equality on such a value is strict while the ordering operators coerce,
// so the rewrite would change the result.
func nonNumeric(e Expr) bool {
	switch x := e.(type) {
	case *StringLit, *InterpLit, *BoolLit, *NullLit, *ListLit, *ConcatExpr:
		return true
	case *CastExpr:
		return x.To != TypeNumbr && x.To != TypeNumbar
	}
	return false
}

func asMinMax(e Expr) *BinaryExpr {
	if b, ok := e.(*BinaryExpr); ok && (b.Op == OpMin || b.Op == OpMax) {
		return b
	}
	return nil
}
