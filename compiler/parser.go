package compiler

import (
	"strconv"

	"github.com/chazu/lolcode/pkg/diag"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for LOLCODE
// ---------------------------------------------------------------------------

// Parser parses LOLCODE source into an AST. It stops at the first error:
// once err is set, the token window is pinned to EOF so every loop unwinds.
type Parser struct {
	lexer     *Lexer
	interner  *Interner
	curToken  Token
	peekToken Token
	prevEnd   int // end offset of the last consumed token
	file      int
	it        Sym
	err       *diag.Diagnostic
}

// NewParser creates a parser for input. file is the source id recorded in
// spans.
func NewParser(input string, file int, interner *Interner) *Parser {
	p := &Parser{
		lexer:    NewLexer(input, file, interner),
		interner: interner,
		file:     file,
		it:       interner.Intern("IT"),
	}
	// Read two tokens to fill curToken and peekToken
	p.curToken = p.lex()
	p.peekToken = p.curToken
	if p.err == nil && p.curToken.Kind != TokenEOF {
		p.peekToken = p.lex()
	}
	if p.err != nil {
		p.curToken = p.eofToken()
		p.peekToken = p.curToken
	}
	return p
}

// Parse parses a whole program.
func Parse(input string, file int, interner *Interner) (*Program, error) {
	return NewParser(input, file, interner).ParseProgram()
}

func (p *Parser) lex() Token {
	tok, err := p.lexer.Next()
	if err != nil {
		p.fail(err)
		return p.eofToken()
	}
	return tok
}

func (p *Parser) eofToken() Token {
	end := len(p.lexer.input)
	return Token{Kind: TokenEOF, Span: diag.Span{Start: end, End: end, File: p.file}}
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	if p.err != nil {
		p.curToken = p.eofToken()
		p.peekToken = p.curToken
		return
	}
	p.prevEnd = p.curToken.Span.End
	p.curToken = p.peekToken
	if p.peekToken.Kind == TokenEOF {
		return
	}
	p.peekToken = p.lex()
	if p.err != nil {
		// A lexer error surfaced in the lookahead slot; it is still the
		// first error, reported at its own span.
		p.curToken = p.eofToken()
		p.peekToken = p.curToken
	}
}

func (p *Parser) curTokenIs(k TokenKind) bool  { return p.curToken.Kind == k }
func (p *Parser) peekTokenIs(k TokenKind) bool { return p.peekToken.Kind == k }

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(k TokenKind) bool {
	if p.curTokenIs(k) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, found %s", k, p.curToken)
	return false
}

// errorf records a syntax error at the current token.
func (p *Parser) errorf(format string, args ...any) {
	p.fail(diag.New(diag.Syntax, p.curToken.Span, format, args...))
}

// fail records the first error and pins the parser to EOF.
func (p *Parser) fail(err error) {
	if p.err != nil {
		return
	}
	d, ok := diag.As(err)
	if !ok {
		d = diag.New(diag.Syntax, p.curToken.Span, "%v", err)
	}
	p.err = d
	p.curToken = p.eofToken()
	p.peekToken = p.curToken
}

// Err returns the first error, if any.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Parser) spanFrom(start diag.Span) diag.Span {
	end := p.prevEnd
	if end < start.Start {
		end = start.End
	}
	return diag.Span{Start: start.Start, End: end, File: start.File}
}

func (p *Parser) skipBreaks() {
	for p.curTokenIs(TokenBreak) {
		p.nextToken()
	}
}

// expectBreak consumes one or more line breaks.
func (p *Parser) expectBreak() bool {
	if !p.expect(TokenBreak) {
		return false
	}
	p.skipBreaks()
	return true
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses HAI version ... KTHXBYE.
func (p *Parser) ParseProgram() (*Program, error) {
	p.skipBreaks()
	start := p.curToken.Span
	if !p.expect(TokenHai) {
		return nil, p.Err()
	}
	version := p.parseVersion()
	if p.err != nil {
		return nil, p.Err()
	}
	if !p.expectBreak() {
		return nil, p.Err()
	}
	body := p.parseBlock(TokenKthxbye)
	if !p.expect(TokenKthxbye) {
		return nil, p.Err()
	}
	prog := &Program{SpanVal: p.spanFrom(start), Version: version, Body: body}
	p.skipBreaks()
	if !p.curTokenIs(TokenEOF) {
		p.errorf("expected end of input, found %s", p.curToken)
	}
	if p.err != nil {
		return nil, p.Err()
	}
	return prog, nil
}

func (p *Parser) parseVersion() string {
	major := p.curToken.Text
	if !p.expect(TokenNumber) {
		return ""
	}
	if !p.expect(TokenDot) {
		return ""
	}
	minor := p.curToken.Text
	if !p.expect(TokenNumber) {
		return ""
	}
	return major + "." + minor
}

// atTerminator reports whether the current token ends a block. IM only
// terminates when it opens IM OUTTA; IM IN starts a nested loop.
func (p *Parser) atTerminator(terms []TokenKind) bool {
	if p.curTokenIs(TokenEOF) {
		return true
	}
	for _, k := range terms {
		if !p.curTokenIs(k) {
			continue
		}
		if k == TokenIm && !p.peekTokenIs(TokenOutta) {
			continue
		}
		return true
	}
	return false
}

// parseBlock parses statements separated by line breaks until one of terms.
// The terminator itself is left for the caller.
func (p *Parser) parseBlock(terms ...TokenKind) *Block {
	block := &Block{SpanVal: diag.Span{Start: p.curToken.Span.Start, End: p.curToken.Span.Start, File: p.file}}
	for {
		p.skipBreaks()
		if p.atTerminator(terms) {
			break
		}
		stmt := p.parseStatement()
		if stmt == nil {
			break
		}
		block.Stmts = append(block.Stmts, stmt)
		block.SpanVal.End = stmt.Span().End
		if !p.curTokenIs(TokenBreak) && !p.atTerminator(terms) {
			p.errorf("expected line break, found %s", p.curToken)
			break
		}
	}
	return block
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Kind {
	case TokenI:
		if p.peekTokenIs(TokenIz) {
			return p.parseExprStmt()
		}
		return p.parseDeclare()
	case TokenIdent, TokenIt:
		switch {
		case p.peekTokenIs(TokenR):
			return p.parseAssign()
		case p.peekTokenIs(TokenIs) && p.curTokenIs(TokenIdent):
			return p.parseCastStmt()
		}
		return p.parseExprStmt()
	case TokenCan:
		return p.parseImport()
	case TokenHow:
		return p.parseFuncDef()
	case TokenWtf:
		return p.parseCase()
	case TokenO:
		return p.parseIf()
	case TokenGtfo:
		start := p.curToken.Span
		p.nextToken()
		return &BreakStmt{SpanVal: start}
	case TokenIm:
		return p.parseLoop()
	case TokenFound:
		return p.parseReturn()
	case TokenVisible:
		return p.parsePrint()
	case TokenGimmeh:
		return p.parseRead()
	case TokenPut:
		return p.parsePut()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseIdent() (Ident, bool) {
	tok := p.curToken
	if !p.expect(TokenIdent) {
		return Ident{}, false
	}
	return Ident{Sym: tok.Sym, SpanVal: tok.Span}, true
}

// parseTarget parses an identifier or IT as a write target.
func (p *Parser) parseTarget() (Ident, bool) {
	if p.curTokenIs(TokenIt) {
		id := Ident{Sym: p.it, SpanVal: p.curToken.Span}
		p.nextToken()
		return id, true
	}
	return p.parseIdent()
}

func (p *Parser) parseExprStmt() Stmt {
	start := p.curToken.Span
	x := p.parseExpr()
	if x == nil {
		return nil
	}
	return &ExprStmt{SpanVal: p.spanFrom(start), X: x}
}

// I HAS A name [ITZ expr | ITZ A type]
func (p *Parser) parseDeclare() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenI) || !p.expect(TokenHas) || !p.expect(TokenA) {
		return nil
	}
	name, ok := p.parseIdent()
	if !ok {
		return nil
	}
	decl := &DeclareStmt{Name: name}
	if p.curTokenIs(TokenItz) {
		p.nextToken()
		if p.curTokenIs(TokenA) {
			p.nextToken()
			t, ok := p.parseType()
			if !ok {
				return nil
			}
			decl.Type, decl.Typed = t, true
		} else {
			decl.Init = p.parseExpr()
			if decl.Init == nil {
				return nil
			}
		}
	}
	decl.SpanVal = p.spanFrom(start)
	return decl
}

// target R expr
func (p *Parser) parseAssign() Stmt {
	start := p.curToken.Span
	target, ok := p.parseTarget()
	if !ok || !p.expect(TokenR) {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &AssignStmt{SpanVal: p.spanFrom(start), Target: target, Value: value}
}

// name IS NOW A type
func (p *Parser) parseCastStmt() Stmt {
	start := p.curToken.Span
	name, ok := p.parseIdent()
	if !ok || !p.expect(TokenIs) || !p.expect(TokenNow) || !p.expect(TokenA) {
		return nil
	}
	t, ok := p.parseType()
	if !ok {
		return nil
	}
	return &CastStmt{SpanVal: p.spanFrom(start), Name: name, To: t}
}

// CAN HAS name ?
func (p *Parser) parseImport() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenCan) || !p.expect(TokenHas) {
		return nil
	}
	name, ok := p.parseIdent()
	if !ok || !p.expect(TokenQuestion) {
		return nil
	}
	return &ImportStmt{SpanVal: p.spanFrom(start), Name: name}
}

// HOW IZ I name [YR arg (AN YR arg)*] Break Block IF U SAY SO
func (p *Parser) parseFuncDef() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenHow) || !p.expect(TokenIz) || !p.expect(TokenI) {
		return nil
	}
	name, ok := p.parseIdent()
	if !ok {
		return nil
	}
	var params []Ident
	if p.curTokenIs(TokenYr) {
		for {
			if !p.expect(TokenYr) {
				return nil
			}
			param, ok := p.parseIdent()
			if !ok {
				return nil
			}
			params = append(params, param)
			if !p.curTokenIs(TokenAn) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectBreak() {
		return nil
	}
	body := p.parseBlock(TokenIf)
	if !p.expect(TokenIf) || !p.expect(TokenU) || !p.expect(TokenSay) || !p.expect(TokenSo) {
		return nil
	}
	return &FuncDef{SpanVal: p.spanFrom(start), Name: name, Params: params, Body: body}
}

// WTF ? Break (OMG expr Break Block)* [OMGWTF Break Block] OIC
func (p *Parser) parseCase() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenWtf) || !p.expect(TokenQuestion) || !p.expectBreak() {
		return nil
	}
	stmt := &CaseStmt{}
	for p.curTokenIs(TokenOmg) {
		p.nextToken()
		match := p.parseExpr()
		if match == nil || !p.expectBreak() {
			return nil
		}
		body := p.parseBlock(TokenOmg, TokenOmgwtf, TokenOic)
		stmt.Arms = append(stmt.Arms, CaseArm{Match: match, Body: body})
	}
	if p.curTokenIs(TokenOmgwtf) {
		p.nextToken()
		if !p.expectBreak() {
			return nil
		}
		stmt.Default = p.parseBlock(TokenOic)
	}
	if !p.expect(TokenOic) {
		return nil
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

// O RLY ? Break [YA RLY Break Block] (MEBBE expr Break Block)* [NO WAI Break Block] OIC
func (p *Parser) parseIf() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenO) || !p.expect(TokenRly) || !p.expect(TokenQuestion) || !p.expectBreak() {
		return nil
	}
	stmt := &IfStmt{}
	if p.curTokenIs(TokenYa) {
		p.nextToken()
		if !p.expect(TokenRly) || !p.expectBreak() {
			return nil
		}
		stmt.Then = p.parseBlock(TokenMebbe, TokenNo, TokenOic)
	}
	for p.curTokenIs(TokenMebbe) {
		p.nextToken()
		cond := p.parseExpr()
		if cond == nil || !p.expectBreak() {
			return nil
		}
		body := p.parseBlock(TokenMebbe, TokenNo, TokenOic)
		stmt.ElseIfs = append(stmt.ElseIfs, CondArm{Cond: cond, Body: body})
	}
	if p.curTokenIs(TokenNo) {
		p.nextToken()
		if !p.expect(TokenWai) || !p.expectBreak() {
			return nil
		}
		stmt.Else = p.parseBlock(TokenOic)
	}
	if !p.expect(TokenOic) {
		return nil
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

// IM IN YR label [op YR var [TIL|WILE expr]] Break Block IM OUTTA YR label
func (p *Parser) parseLoop() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenIm) || !p.expect(TokenIn) || !p.expect(TokenYr) {
		return nil
	}
	label, ok := p.parseIdent()
	if !ok {
		return nil
	}
	stmt := &LoopStmt{Label: label}
	if !p.curTokenIs(TokenBreak) {
		stmt.Update = p.parseLoopUpdate()
		if stmt.Update == nil {
			return nil
		}
	}
	if !p.expectBreak() {
		return nil
	}
	stmt.Body = p.parseBlock(TokenIm)
	if !p.expect(TokenIm) || !p.expect(TokenOutta) || !p.expect(TokenYr) {
		return nil
	}
	end, ok := p.parseIdent()
	if !ok {
		return nil
	}
	if !end.Equal(label) {
		p.fail(diag.New(diag.UnmatchedBlockName, end.Span(),
			"expected %s, found %s", p.interner.Lookup(label.Sym), p.interner.Lookup(end.Sym)).
			Annotate(label.Span(), "loop %s opened here", p.interner.Lookup(label.Sym)))
		return nil
	}
	stmt.EndLabel = end
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseLoopUpdate() *LoopUpdate {
	up := &LoopUpdate{}
	switch p.curToken.Kind {
	case TokenUppin:
		up.Op = LoopUppin
		p.nextToken()
	case TokenNerfin:
		up.Op = LoopNerfin
		p.nextToken()
	case TokenIdent:
		up.Op = LoopFunc
		up.Func, _ = p.parseIdent()
	default:
		p.errorf("expected UPPIN, NERFIN or a function name, found %s", p.curToken)
		return nil
	}
	if !p.expect(TokenYr) {
		return nil
	}
	v, ok := p.parseIdent()
	if !ok {
		return nil
	}
	up.Var = v
	switch p.curToken.Kind {
	case TokenTil:
		up.Cond = LoopUntil
	case TokenWile:
		up.Cond = LoopWhile
	default:
		return up
	}
	p.nextToken()
	up.Test = p.parseExpr()
	if up.Test == nil {
		return nil
	}
	return up
}

// FOUND YR expr
func (p *Parser) parseReturn() Stmt {
	start := p.curToken.Span
	if !p.expect(TokenFound) || !p.expect(TokenYr) {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ReturnStmt{SpanVal: p.spanFrom(start), Value: value}
}

// VISIBLE expr ([AN] expr)* [!]
func (p *Parser) parsePrint() Stmt {
	start := p.curToken.Span
	p.nextToken()
	stmt := &PrintStmt{}
	for {
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		stmt.Args = append(stmt.Args, arg)
		if p.curTokenIs(TokenAn) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(TokenBang) || p.curTokenIs(TokenBreak) || p.curTokenIs(TokenEOF) {
			break
		}
	}
	if p.curTokenIs(TokenBang) {
		stmt.NoNewline = true
		p.nextToken()
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

// GIMMEH target
func (p *Parser) parseRead() Stmt {
	start := p.curToken.Span
	p.nextToken()
	target, ok := p.parseTarget()
	if !ok {
		return nil
	}
	return &ReadStmt{SpanVal: p.spanFrom(start), Target: target}
}

// PUT expr IN MAH name [AT expr]
func (p *Parser) parsePut() Stmt {
	start := p.curToken.Span
	p.nextToken()
	value := p.parseExpr()
	if value == nil || !p.expect(TokenIn) || !p.expect(TokenMah) {
		return nil
	}
	target, ok := p.parseIdent()
	if !ok {
		return nil
	}
	if !p.curTokenIs(TokenAt) {
		return &AppendStmt{SpanVal: p.spanFrom(start), Target: target, Value: value}
	}
	p.nextToken()
	index := p.parseExpr()
	if index == nil {
		return nil
	}
	return &SetIndexStmt{SpanVal: p.spanFrom(start), Target: target, Index: index, Value: value}
}

func (p *Parser) parseType() (ValueType, bool) {
	var t ValueType
	switch p.curToken.Kind {
	case TokenNoob:
		t = TypeNoob
	case TokenTroof:
		t = TypeTroof
	case TokenNumbr:
		t = TypeNumbr
	case TokenNumbar:
		t = TypeNumbar
	case TokenYarn:
		t = TypeYarn
	case TokenBukkit:
		t = TypeBukkit
	default:
		p.errorf("expected a type, found %s", p.curToken)
		return 0, false
	}
	p.nextToken()
	return t, true
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOfOps = map[TokenKind]OpTy{
	TokenSum:      OpAdd,
	TokenDiff:     OpSub,
	TokenProdukt:  OpMul,
	TokenQuoshunt: OpDiv,
	TokenMod:      OpMod,
	TokenBiggr:    OpMax,
	TokenSmallr:   OpMin,
	TokenEither:   OpOr,
	TokenWon:      OpXor,
}

func (p *Parser) parseExpr() Expr {
	tok := p.curToken
	switch tok.Kind {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		p.nextToken()
		return &StringLit{SpanVal: tok.Span, Value: tok.Text}
	case TokenInterpStr:
		p.nextToken()
		lit := &InterpLit{SpanVal: tok.Span, Text: tok.Text}
		for _, e := range tok.Interp {
			lit.Splices = append(lit.Splices, Splice{
				Offset: e.Offset,
				Name:   Ident{Sym: p.interner.Intern(e.Name), SpanVal: e.Span},
			})
		}
		return lit
	case TokenWin, TokenFail:
		p.nextToken()
		return &BoolLit{SpanVal: tok.Span, Value: tok.Kind == TokenWin}
	case TokenNoob:
		p.nextToken()
		return &NullLit{SpanVal: tok.Span}
	case TokenIt:
		p.nextToken()
		return &ItExpr{SpanVal: tok.Span}
	case TokenIdent:
		p.nextToken()
		return &VarRef{SpanVal: tok.Span, Name: Ident{Sym: tok.Sym, SpanVal: tok.Span}}
	case TokenBoth:
		if p.peekTokenIs(TokenSaem) {
			p.nextToken()
			p.nextToken()
			return p.parseBinaryTail(tok.Span, OpEqual, false)
		}
		p.nextToken()
		if !p.expect(TokenOf) {
			return nil
		}
		return p.parseBinaryTail(tok.Span, OpAnd, true)
	case TokenDiffrint:
		p.nextToken()
		return p.parseBinaryTail(tok.Span, OpNotEq, false)
	case TokenNot:
		p.nextToken()
		x := p.parseExpr()
		if x == nil {
			return nil
		}
		return &UnaryExpr{SpanVal: p.spanFrom(tok.Span), Op: UnaryNot, X: x}
	case TokenLen:
		p.nextToken()
		if !p.expect(TokenOf) {
			return nil
		}
		x := p.parseExpr()
		if x == nil {
			return nil
		}
		return &UnaryExpr{SpanVal: p.spanFrom(tok.Span), Op: UnaryLen, X: x}
	case TokenAll, TokenAny:
		return p.parseNary()
	case TokenSmoosh:
		return p.parseConcat()
	case TokenMaek:
		return p.parseCastExpr()
	case TokenI:
		return p.parseCall()
	case TokenBukkit:
		return p.parseList()
	case TokenPick:
		return p.parseIndex()
	}
	if op, ok := binaryOfOps[tok.Kind]; ok {
		p.nextToken()
		if !p.expect(TokenOf) {
			return nil
		}
		return p.parseBinaryTail(tok.Span, op, true)
	}
	p.errorf("expected expression, found %s", p.curToken)
	return nil
}

// parseBinaryTail parses "a AN b" with AN mandatory or optional.
func (p *Parser) parseBinaryTail(start diag.Span, op OpTy, needAn bool) Expr {
	left := p.parseExpr()
	if left == nil {
		return nil
	}
	if needAn {
		if !p.expect(TokenAn) {
			return nil
		}
	} else if p.curTokenIs(TokenAn) {
		p.nextToken()
	}
	right := p.parseExpr()
	if right == nil {
		return nil
	}
	return &BinaryExpr{SpanVal: p.spanFrom(start), Op: op, Left: left, Right: right}
}

// parseNumber parses Number [. Number], fusing the pair into a float.
func (p *Parser) parseNumber() Expr {
	tok := p.curToken
	p.nextToken()
	if !p.curTokenIs(TokenDot) {
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.fail(diag.New(diag.Syntax, tok.Span, "number %s is out of range", tok.Text))
			return nil
		}
		return &IntLit{SpanVal: tok.Span, Value: n}
	}
	p.nextToken()
	frac := p.curToken
	if !p.curTokenIs(TokenNumber) || frac.Text[0] == '-' {
		p.errorf("expected number, found %s", p.curToken)
		return nil
	}
	p.nextToken()
	f, err := strconv.ParseFloat(tok.Text+"."+frac.Text, 64)
	if err != nil {
		p.fail(diag.New(diag.Syntax, tok.Span.To(frac.Span), "invalid number %s.%s", tok.Text, frac.Text))
		return nil
	}
	return &FloatLit{SpanVal: tok.Span.To(frac.Span), Value: f}
}

// ALL OF expr ([AN] expr)* MKAY
func (p *Parser) parseNary() Expr {
	start := p.curToken.Span
	op := NaryAll
	if p.curTokenIs(TokenAny) {
		op = NaryAny
	}
	p.nextToken()
	if !p.expect(TokenOf) {
		return nil
	}
	expr := &NaryExpr{Op: op}
	for !p.curTokenIs(TokenMkay) {
		if p.curTokenIs(TokenBreak) || p.curTokenIs(TokenEOF) {
			p.errorf("expected MKAY, found %s", p.curToken)
			return nil
		}
		x := p.parseExpr()
		if x == nil {
			return nil
		}
		expr.Operands = append(expr.Operands, x)
		if p.curTokenIs(TokenAn) {
			p.nextToken()
		}
	}
	p.nextToken()
	expr.SpanVal = p.spanFrom(start)
	return expr
}

// SMOOSH expr ([AN] expr)* [MKAY]; MKAY may be left off at end of line.
func (p *Parser) parseConcat() Expr {
	start := p.curToken.Span
	p.nextToken()
	expr := &ConcatExpr{}
	for {
		x := p.parseExpr()
		if x == nil {
			return nil
		}
		expr.Parts = append(expr.Parts, x)
		if p.curTokenIs(TokenAn) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(TokenMkay) {
			p.nextToken()
			break
		}
		if p.curTokenIs(TokenBreak) || p.curTokenIs(TokenEOF) || p.curTokenIs(TokenBang) {
			break
		}
	}
	expr.SpanVal = p.spanFrom(start)
	return expr
}

// MAEK expr [A] type
func (p *Parser) parseCastExpr() Expr {
	start := p.curToken.Span
	p.nextToken()
	x := p.parseExpr()
	if x == nil {
		return nil
	}
	if p.curTokenIs(TokenA) {
		p.nextToken()
	}
	t, ok := p.parseType()
	if !ok {
		return nil
	}
	return &CastExpr{SpanVal: p.spanFrom(start), X: x, To: t}
}

// I IZ name [YR expr (AN YR expr)*] MKAY
func (p *Parser) parseCall() Expr {
	start := p.curToken.Span
	if !p.expect(TokenI) || !p.expect(TokenIz) {
		return nil
	}
	name, ok := p.parseIdent()
	if !ok {
		return nil
	}
	call := &CallExpr{Name: name}
	if p.curTokenIs(TokenYr) {
		for {
			if !p.expect(TokenYr) {
				return nil
			}
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			if !p.curTokenIs(TokenAn) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expect(TokenMkay) {
		return nil
	}
	call.SpanVal = p.spanFrom(start)
	return call
}

// BUKKIT [OF expr (AN expr)* MKAY]
func (p *Parser) parseList() Expr {
	start := p.curToken.Span
	p.nextToken()
	list := &ListLit{}
	if p.curTokenIs(TokenOf) {
		p.nextToken()
		for !p.curTokenIs(TokenMkay) {
			x := p.parseExpr()
			if x == nil {
				return nil
			}
			list.Elems = append(list.Elems, x)
			if !p.curTokenIs(TokenAn) {
				break
			}
			p.nextToken()
		}
		if !p.expect(TokenMkay) {
			return nil
		}
	}
	list.SpanVal = p.spanFrom(start)
	return list
}

// PICK (expr | FRONT | BAK) OUTTA expr
func (p *Parser) parseIndex() Expr {
	start := p.curToken.Span
	p.nextToken()
	expr := &IndexExpr{}
	switch p.curToken.Kind {
	case TokenFront:
		expr.Kind = IndexFront
		p.nextToken()
	case TokenBak:
		expr.Kind = IndexBack
		p.nextToken()
	default:
		expr.Kind = IndexAt
		expr.Index = p.parseExpr()
		if expr.Index == nil {
			return nil
		}
	}
	if !p.expect(TokenOutta) {
		return nil
	}
	expr.Source = p.parseExpr()
	if expr.Source == nil {
		return nil
	}
	expr.SpanVal = p.spanFrom(start)
	return expr
}
