package compiler

import (
	"fmt"

	"github.com/chazu/lolcode/pkg/diag"
)

// ---------------------------------------------------------------------------
// Token kinds for the LOLCODE lexer
// ---------------------------------------------------------------------------

// TokenKind is the closed set of token variants.
type TokenKind int

const (
	// Special tokens
	TokenEOF TokenKind = iota
	TokenBreak

	// Literals
	TokenNumber    // 42, -7 (fractions are fused by the parser)
	TokenString    // "hello"
	TokenInterpStr // "hai :{name}"
	TokenIdent     // foo

	// Punctuation
	TokenQuestion // ?
	TokenBang     // !
	TokenDot      // .

	// Keywords
	TokenHai
	TokenKthxbye
	TokenI
	TokenHas
	TokenA
	TokenItz
	TokenR
	TokenAn
	TokenSum
	TokenOf
	TokenDiff
	TokenProdukt
	TokenQuoshunt
	TokenMod
	TokenBiggr
	TokenSmallr
	TokenBoth
	TokenEither
	TokenWon
	TokenNot
	TokenAll
	TokenAny
	TokenSaem
	TokenDiffrint
	TokenSmoosh
	TokenMkay
	TokenMaek
	TokenIs
	TokenNow
	TokenVisible
	TokenGimmeh
	TokenO
	TokenRly
	TokenYa
	TokenMebbe
	TokenNo
	TokenWai
	TokenOic
	TokenWtf
	TokenOmg
	TokenOmgwtf
	TokenGtfo
	TokenIm
	TokenIn
	TokenYr
	TokenOutta
	TokenUppin
	TokenNerfin
	TokenTil
	TokenWile
	TokenHow
	TokenIz
	TokenIf
	TokenU
	TokenSay
	TokenSo
	TokenFound
	TokenCan
	TokenWin
	TokenFail
	TokenNoob
	TokenNumbr
	TokenNumbar
	TokenYarn
	TokenTroof
	TokenBukkit
	TokenIt
	TokenLen
	TokenPut
	TokenMah
	TokenAt
	TokenPick
	TokenFront
	TokenBak
)

// keywords is the exact, case-sensitive keyword table.
var keywords = map[string]TokenKind{
	"HAI":      TokenHai,
	"KTHXBYE":  TokenKthxbye,
	"I":        TokenI,
	"HAS":      TokenHas,
	"A":        TokenA,
	"ITZ":      TokenItz,
	"R":        TokenR,
	"AN":       TokenAn,
	"SUM":      TokenSum,
	"OF":       TokenOf,
	"DIFF":     TokenDiff,
	"PRODUKT":  TokenProdukt,
	"QUOSHUNT": TokenQuoshunt,
	"MOD":      TokenMod,
	"BIGGR":    TokenBiggr,
	"SMALLR":   TokenSmallr,
	"BOTH":     TokenBoth,
	"EITHER":   TokenEither,
	"WON":      TokenWon,
	"NOT":      TokenNot,
	"ALL":      TokenAll,
	"ANY":      TokenAny,
	"SAEM":     TokenSaem,
	"DIFFRINT": TokenDiffrint,
	"SMOOSH":   TokenSmoosh,
	"MKAY":     TokenMkay,
	"MAEK":     TokenMaek,
	"IS":       TokenIs,
	"NOW":      TokenNow,
	"VISIBLE":  TokenVisible,
	"GIMMEH":   TokenGimmeh,
	"O":        TokenO,
	"RLY":      TokenRly,
	"YA":       TokenYa,
	"MEBBE":    TokenMebbe,
	"NO":       TokenNo,
	"WAI":      TokenWai,
	"OIC":      TokenOic,
	"WTF":      TokenWtf,
	"OMG":      TokenOmg,
	"OMGWTF":   TokenOmgwtf,
	"GTFO":     TokenGtfo,
	"IM":       TokenIm,
	"IN":       TokenIn,
	"YR":       TokenYr,
	"OUTTA":    TokenOutta,
	"UPPIN":    TokenUppin,
	"NERFIN":   TokenNerfin,
	"TIL":      TokenTil,
	"TILL":     TokenTil,
	"WILE":     TokenWile,
	"HOW":      TokenHow,
	"IZ":       TokenIz,
	"IF":       TokenIf,
	"U":        TokenU,
	"SAY":      TokenSay,
	"SO":       TokenSo,
	"FOUND":    TokenFound,
	"CAN":      TokenCan,
	"WIN":      TokenWin,
	"FAIL":     TokenFail,
	"NOOB":     TokenNoob,
	"NUMBR":    TokenNumbr,
	"NUMBAR":   TokenNumbar,
	"YARN":     TokenYarn,
	"TROOF":    TokenTroof,
	"BUKKIT":   TokenBukkit,
	"IT":       TokenIt,
	"LEN":      TokenLen,
	"PUT":      TokenPut,
	"MAH":      TokenMah,
	"AT":       TokenAt,
	"PICK":     TokenPick,
	"FRONT":    TokenFront,
	"BAK":      TokenBak,
}

var tokenNames = map[TokenKind]string{
	TokenEOF:       "end of input",
	TokenBreak:     "line break",
	TokenNumber:    "number",
	TokenString:    "string",
	TokenInterpStr: "string",
	TokenIdent:     "identifier",
	TokenQuestion:  "?",
	TokenBang:      "!",
	TokenDot:       ".",
}

func init() {
	for word, kind := range keywords {
		if word == "TILL" {
			continue
		}
		tokenNames[kind] = word
	}
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Keywords returns the keyword table's spellings. The slice is freshly
// allocated; order is unspecified.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for word := range keywords {
		out = append(out, word)
	}
	return out
}

// LookupKeyword returns the kind for an exact keyword spelling.
func LookupKeyword(word string) (TokenKind, bool) {
	k, ok := keywords[word]
	return k, ok
}

// InterpEntry marks a :{name} splice inside a string literal. Offset is the
// byte length of the decoded text preceding the splice.
type InterpEntry struct {
	Offset int
	Name   string
	Span   diag.Span
}

// Token is a lexical token. Text holds the decoded literal for numbers and
// strings; Sym is set for identifiers.
type Token struct {
	Kind   TokenKind
	Span   diag.Span
	Text   string
	Sym    Sym
	Interp []InterpEntry
}

func (t Token) String() string {
	switch t.Kind {
	case TokenNumber:
		return fmt.Sprintf("number %s", t.Text)
	case TokenString, TokenInterpStr:
		if len(t.Text) > 20 {
			return fmt.Sprintf("string %q...", t.Text[:20])
		}
		return fmt.Sprintf("string %q", t.Text)
	case TokenIdent:
		return fmt.Sprintf("identifier %s", t.Text)
	default:
		return t.Kind.String()
	}
}
