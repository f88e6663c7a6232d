package compiler

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"

	"github.com/chazu/lolcode/pkg/diag"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for LOLCODE source
// ---------------------------------------------------------------------------

// Lexer tokenizes LOLCODE source code. It produces one token per call and
// buffers at most one token for Peek. An error does not end the stream: the
// offending input is consumed and the next call continues after it.
type Lexer struct {
	input    string
	file     int
	pos      int  // current position in input
	readPos  int  // reading position (after current char)
	ch       rune // current character
	interner *Interner

	peeked  bool
	peekTok Token
	peekErr error
}

// NewLexer creates a lexer over input. file is the source id recorded in
// every span; identifiers are interned into interner.
func NewLexer(input string, file int, interner *Interner) *Lexer {
	l := &Lexer{
		input:    input,
		file:     file,
		interner: interner,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) span(start int) diag.Span {
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	return diag.Span{Start: start, End: end, File: l.file}
}

// Next returns the next token, consuming it.
func (l *Lexer) Next() (Token, error) {
	if l.peeked {
		l.peeked = false
		return l.peekTok, l.peekErr
	}
	return l.lex()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if !l.peeked {
		l.peekTok, l.peekErr = l.lex()
		l.peeked = true
	}
	return l.peekTok, l.peekErr
}

// All lexes the remaining input, stopping at the first error.
func (l *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) lex() (Token, error) {
	for {
		start := l.pos
		switch {
		case l.atEOF():
			return Token{Kind: TokenEOF, Span: l.span(len(l.input))}, nil

		case l.ch == ' ' || l.ch == '\t':
			l.readChar()

		case l.ch == '\r' && l.peekChar() != '\n':
			l.readChar()

		case l.ch == '\n' || l.ch == '\r':
			l.skipNewlines()
			return Token{Kind: TokenBreak, Span: diag.Span{Start: start, End: start + 1, File: l.file}}, nil

		case l.ch == ',':
			l.readChar()
			return Token{Kind: TokenBreak, Span: l.span(start)}, nil

		case l.ch == '?':
			l.readChar()
			return Token{Kind: TokenQuestion, Span: l.span(start)}, nil

		case l.ch == '!':
			l.readChar()
			return Token{Kind: TokenBang, Span: l.span(start)}, nil

		case l.ch == '.' && strings.HasPrefix(l.input[l.pos:], "..."):
			l.readChar()
			l.readChar()
			l.readChar()
			if err := l.continuation(); err != nil {
				return Token{}, err
			}

		case l.ch == '…':
			l.readChar()
			if err := l.continuation(); err != nil {
				return Token{}, err
			}

		case l.ch == '.':
			l.readChar()
			return Token{Kind: TokenDot, Span: l.span(start)}, nil

		case l.ch == '"':
			return l.readString()

		case l.ch == '-':
			if !isDigit(l.peekChar()) {
				l.readChar()
				return Token{}, diag.New(diag.UnexpectedCharacter, l.span(start),
					"expected a number after '-'")
			}
			l.readChar()
			tok := l.readNumber()
			tok.Text = "-" + tok.Text
			tok.Span.Start = start
			return tok, nil

		case isDigit(l.ch):
			return l.readNumber(), nil

		case isIdentStart(l.ch):
			word := l.readIdent()
			switch word {
			case "BTW":
				l.skipLineComment()
				continue
			case "OBTW":
				l.skipBlockComment()
				continue
			}
			if kind, ok := keywords[word]; ok {
				return Token{Kind: kind, Span: l.span(start), Text: word}, nil
			}
			return Token{Kind: TokenIdent, Span: l.span(start), Text: word, Sym: l.interner.Intern(word)}, nil

		default:
			ch := l.ch
			l.readChar()
			return Token{}, diag.New(diag.UnexpectedCharacter,
				diag.Span{Start: start, End: start + 1, File: l.file},
				"unexpected character %q", ch)
		}
	}
}

// skipNewlines consumes a run of line breaks. \r\n counts as one.
func (l *Lexer) skipNewlines() {
	for {
		switch {
		case l.ch == '\n':
			l.readChar()
		case l.ch == '\r' && l.peekChar() == '\n':
			l.readChar()
			l.readChar()
		default:
			return
		}
	}
}

// continuation consumes the rest of a line ending in an ellipsis. Only
// spaces and tabs may sit between the ellipsis and the newline.
func (l *Lexer) continuation() error {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	switch {
	case l.ch == '\n':
		l.readChar()
		return nil
	case l.ch == '\r' && l.peekChar() == '\n':
		l.readChar()
		l.readChar()
		return nil
	}
	start := l.pos
	if !l.atEOF() {
		l.readChar()
	}
	return diag.New(diag.UnexpectedCharacter, diag.Span{Start: start, End: start + 1, File: l.file},
		"expected a line break after '...'")
}

// skipLineComment consumes to end of line, leaving the newline in place so
// it still produces a Break.
func (l *Lexer) skipLineComment() {
	for !l.atEOF() && l.ch != '\n' {
		if l.ch == '\r' && l.peekChar() == '\n' {
			return
		}
		l.readChar()
	}
}

// skipBlockComment consumes through the next TLDR. An unterminated block
// comment runs to the end of input.
func (l *Lexer) skipBlockComment() {
	idx := strings.Index(l.input[l.pos:], "TLDR")
	if idx < 0 {
		l.readPos = len(l.input)
		l.readChar()
		return
	}
	l.readPos = l.pos + idx + len("TLDR")
	l.readChar()
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for isIdentContinue(l.ch) && !l.atEOF() {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a run of digits. Fractions are two Number tokens around
// a Dot; the parser fuses them.
func (l *Lexer) readNumber() Token {
	start := l.pos
	for isDigit(l.ch) && !l.atEOF() {
		l.readChar()
	}
	return Token{Kind: TokenNumber, Span: l.span(start), Text: l.input[start:l.pos]}
}

// readString reads a string literal with its : escapes and :{var} splices.
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.readChar() // opening quote

	var sb strings.Builder
	var interp []InterpEntry
	for {
		if l.atEOF() {
			return Token{}, diag.New(diag.Syntax, l.span(start), "unterminated string")
		}
		switch l.ch {
		case '"':
			l.readChar()
			tok := Token{Kind: TokenString, Span: l.span(start), Text: sb.String()}
			if len(interp) > 0 {
				tok.Kind = TokenInterpStr
				tok.Interp = interp
			}
			return tok, nil

		case ':':
			escStart := l.pos
			l.readChar()
			if l.atEOF() {
				return Token{}, diag.New(diag.InvalidEscapeSequence, l.span(escStart), "unterminated escape sequence")
			}
			switch l.ch {
			case ':':
				sb.WriteByte(':')
				l.readChar()
			case '"':
				sb.WriteByte('"')
				l.readChar()
			case ')':
				sb.WriteByte('\n')
				l.readChar()
			case '>':
				sb.WriteByte('\t')
				l.readChar()
			case 'o':
				sb.WriteByte(0x07)
				l.readChar()
			case '(':
				r, err := l.readHexEscape(escStart)
				if err != nil {
					return Token{}, err
				}
				sb.WriteRune(r)
			case '[', '<':
				r, err := l.readNamedEscape(escStart)
				if err != nil {
					return Token{}, err
				}
				sb.WriteRune(r)
			case '{':
				entry, err := l.readSplice(escStart)
				if err != nil {
					return Token{}, err
				}
				entry.Offset = sb.Len()
				interp = append(interp, entry)
			default:
				l.readChar()
				return Token{}, diag.New(diag.InvalidEscapeSequence, l.span(escStart),
					"unknown escape sequence %q", l.input[escStart:l.pos])
			}

		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readDelimited consumes the opener at l.ch and returns the text up to
// close, consuming close as well.
func (l *Lexer) readDelimited(escStart int, close rune) (string, error) {
	l.readChar()
	bodyStart := l.pos
	for l.ch != close {
		if l.atEOF() || l.ch == '"' {
			return "", diag.New(diag.InvalidEscapeSequence, l.span(escStart),
				"unterminated escape sequence, expected %q", close)
		}
		l.readChar()
	}
	body := l.input[bodyStart:l.pos]
	l.readChar()
	return body, nil
}

func (l *Lexer) readHexEscape(escStart int) (rune, error) {
	body, err := l.readDelimited(escStart, ')')
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(strings.TrimSpace(body), 16, 32)
	if perr != nil || !utf8.ValidRune(rune(n)) {
		return 0, diag.New(diag.InvalidEscapeSequence, l.span(escStart), "invalid code point %q", body)
	}
	return rune(n), nil
}

func (l *Lexer) readNamedEscape(escStart int) (rune, error) {
	close := ']'
	if l.ch == '<' {
		close = '>'
	}
	body, err := l.readDelimited(escStart, close)
	if err != nil {
		return 0, err
	}
	r, ok := lookupRuneName(body)
	if !ok {
		return 0, diag.New(diag.InvalidEscapeSequence, l.span(escStart), "unknown character name %q", body)
	}
	return r, nil
}

func (l *Lexer) readSplice(escStart int) (InterpEntry, error) {
	body, err := l.readDelimited(escStart, '}')
	if err != nil {
		return InterpEntry{}, err
	}
	if !isIdent(body) {
		return InterpEntry{}, diag.New(diag.InvalidEscapeSequence, l.span(escStart),
			"%q is not a variable name", body)
	}
	return InterpEntry{Name: body, Span: l.span(escStart)}, nil
}

// ---------------------------------------------------------------------------
// Unicode names
// ---------------------------------------------------------------------------

var (
	runeNamesOnce sync.Once
	runeNames     map[string]rune
)

// lookupRuneName resolves a Unicode character name, ignoring case.
func lookupRuneName(name string) (rune, bool) {
	runeNamesOnce.Do(func() {
		runeNames = make(map[string]rune, 40000)
		for r := rune(0); r <= utf8.MaxRune; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			n := runenames.Name(r)
			if n == "" || n[0] == '<' {
				continue
			}
			if _, dup := runeNames[n]; !dup {
				runeNames[n] = r
			}
		}
	})
	r, ok := runeNames[strings.ToUpper(strings.TrimSpace(name))]
	return r, ok
}

// ---------------------------------------------------------------------------
// Character classes
// ---------------------------------------------------------------------------

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch rune) bool { return isIdentStart(ch) || isDigit(ch) }

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentContinue(r) {
			return false
		}
	}
	return true
}
