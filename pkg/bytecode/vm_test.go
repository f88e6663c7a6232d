package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/lolcode/pkg/diag"
)

func runChunk(c *Chunk, input string) (string, error) {
	var out bytes.Buffer
	err := Run(c, &out, strings.NewReader(input))
	return out.String(), err
}

func runSource(t *testing.T, src, input string) (string, error) {
	t.Helper()
	return runChunk(mustCompile(t, src), input)
}

func program(body string) string {
	return "HAI 1.2\n" + body + "\nKTHXBYE\n"
}

func TestVMPrograms(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		input string
		want  string
	}{
		{"hello", `VISIBLE "hello, world"`, "", "hello, world\n"},
		{"found yr it", "SUM OF 2 AN 3\nFOUND YR IT", "", "5\n"},
		{"top-level return halts", "FOUND YR 7\nVISIBLE \"unreached\"", "", "7\n"},
		{"no newline", "VISIBLE \"a\"!\nVISIBLE \"b\"", "", "ab\n"},
		{"print concat", `VISIBLE "a" 1 AN WIN`, "", "a1WIN\n"},

		// Arithmetic and coercion
		{"int div", "VISIBLE QUOSHUNT OF 7 AN 2", "", "3\n"},
		{"float div", "VISIBLE QUOSHUNT OF 7.0 AN 2", "", "3.5\n"},
		{"mod", "VISIBLE MOD OF 7 AN 3", "", "1\n"},
		{"max", "VISIBLE BIGGR OF 3 AN 9", "", "9\n"},
		{"min", "VISIBLE SMALLR OF 3 AN -9", "", "-9\n"},
		{"string int", `VISIBLE SUM OF "3" AN 4`, "", "7\n"},
		{"string float", `VISIBLE SUM OF "1.5" AN 1`, "", "2.5\n"},
		{"bools", "VISIBLE SUM OF WIN AN WIN", "", "2\n"},
		{"noob", "VISIBLE SUM OF NOOB AN 1", "", "1\n"},
		{"float format", "VISIBLE 0.1", "", "0.1\n"},
		{"float inf", "VISIBLE QUOSHUNT OF 1.0 AN 0", "", "INF\n"},

		// Comparison and logic
		{"equal mixed", "VISIBLE BOTH SAEM 3 AN 3.0", "", "WIN\n"},
		{"diffrint", "VISIBLE DIFFRINT 1 AN 2", "", "WIN\n"},
		{"string equal", `VISIBLE BOTH SAEM "a" AN "a"`, "", "WIN\n"},
		{"both", "VISIBLE BOTH OF WIN AN FAIL", "", "FAIL\n"},
		{"either", "VISIBLE EITHER OF WIN AN FAIL", "", "WIN\n"},
		{"won", "VISIBLE WON OF WIN AN WIN", "", "FAIL\n"},
		{"not", "VISIBLE NOT FAIL", "", "WIN\n"},
		{"all", "VISIBLE ALL OF WIN AN WIN AN FAIL MKAY", "", "FAIL\n"},
		{"any", "VISIBLE ANY OF FAIL AN 1 MKAY", "", "WIN\n"},
		{"all empty", "VISIBLE ALL OF MKAY", "", "WIN\n"},
		{"any one", "VISIBLE ANY OF 0 MKAY", "", "FAIL\n"},

		// Strings
		{"smoosh", `VISIBLE SMOOSH "a" AN 1 AN WIN AN NOOB MKAY`, "", "a1WINNOOB\n"},
		{"smoosh one", "VISIBLE SMOOSH 4", "", "4\n"},
		{"interp", "I HAS A name ITZ \"world\"\nVISIBLE \"hi :{name}!\"", "", "hi world!\n"},
		{"len string", `VISIBLE LEN OF "héllo"`, "", "5\n"},

		// Casts and declarations
		{"cast stmt", "I HAS A x ITZ \"12\"\nx IS NOW A NUMBR\nVISIBLE SUM OF x AN 1", "", "13\n"},
		{"maek numbr", "VISIBLE MAEK 3.7 A NUMBR", "", "3\n"},
		{"maek numbar", "VISIBLE MAEK \"2\" A NUMBAR", "", "2\n"},
		{"maek troof", "VISIBLE MAEK \"\" A TROOF", "", "FAIL\n"},
		{"maek yarn", "VISIBLE SMOOSH MAEK 5 A YARN AN 5", "", "55\n"},
		{"typed numbr", "I HAS A n ITZ A NUMBR\nVISIBLE n", "", "0\n"},
		{"typed troof", "I HAS A n ITZ A TROOF\nVISIBLE n", "", "FAIL\n"},
		{"untyped", "I HAS A n\nVISIBLE n", "", "NOOB\n"},
		{"assign it", "IT R 5\nVISIBLE IT", "", "5\n"},

		// Control flow
		{"if mebbe", `I HAS A x ITZ 5
BOTH SAEM x AN 3
O RLY?
  YA RLY
    VISIBLE "three"
  MEBBE BOTH SAEM x AN 5
    VISIBLE "five"
  NO WAI
    VISIBLE "other"
OIC`, "", "five\n"},
		{"if else", "FAIL\nO RLY?\n  YA RLY\n    VISIBLE 1\n  NO WAI\n    VISIBLE 2\nOIC", "", "2\n"},
		{"shadowing", `I HAS A x ITZ 1
WIN
O RLY?
  YA RLY
    I HAS A x ITZ 2
    VISIBLE x
OIC
VISIBLE x`, "", "2\n1\n"},
		{"case fallthrough", caseProgram("b"), "", "B\nC\n"},
		{"case first", caseProgram("d"), "", "D\ndefault\n"},
		{"case default", caseProgram("z"), "", "default\n"},
		{"uppin til", `IM IN YR loop UPPIN YR i TIL BOTH SAEM i AN 3
  VISIBLE i
IM OUTTA YR loop`, "", "0\n1\n2\n"},
		{"nerfin wile", `IM IN YR l NERFIN YR i WILE DIFFRINT i AN -3
  VISIBLE i
IM OUTTA YR l`, "", "0\n-1\n-2\n"},
		{"loop gtfo", `I HAS A n ITZ 0
IM IN YR l
  I HAS A tmp ITZ n
  n R SUM OF tmp AN 1
  BOTH SAEM n AN 4
  O RLY?
    YA RLY
      GTFO
  OIC
IM OUTTA YR l
I HAS A after ITZ "done"
VISIBLE n AN " " AN after`, "", "4 done\n"},
		{"nested loops", `IM IN YR outer UPPIN YR i TIL BOTH SAEM i AN 2
  IM IN YR inner UPPIN YR j TIL BOTH SAEM j AN 2
    VISIBLE i AN j
  IM OUTTA YR inner
IM OUTTA YR outer`, "", "00\n01\n10\n11\n"},
		{"func update", `HOW IZ I twice YR x
  FOUND YR SUM OF x AN 2
IF U SAY SO
IM IN YR l twice YR i TIL BOTH SAEM i AN 6
  VISIBLE i
IM OUTTA YR l`, "", "0\n2\n4\n"},

		// Functions
		{"implicit it", `HOW IZ I f YR a
  SUM OF a AN 1
IF U SAY SO
VISIBLE I IZ f YR 41 MKAY`, "", "42\n"},
		{"gtfo returns noob", `HOW IZ I g
  GTFO
IF U SAY SO
VISIBLE I IZ g MKAY`, "", "NOOB\n"},
		{"it per call", `"outer"
HOW IZ I f
  "inner"
IF U SAY SO
I HAS A r ITZ I IZ f MKAY
VISIBLE IT AN " " AN r`, "", "outer inner\n"},
		{"factorial", `HOW IZ I fact YR n
  BOTH SAEM n AN 0
  O RLY?
    YA RLY
      FOUND YR 1
  OIC
  FOUND YR PRODUKT OF n AN I IZ fact YR DIFF OF n AN 1 MKAY
IF U SAY SO
VISIBLE I IZ fact YR 5 MKAY`, "", "120\n"},
		{"fibonacci", `HOW IZ I fib YR n
  BOTH SAEM SMALLR OF n AN 1 AN n
  O RLY?
    YA RLY
      FOUND YR n
  OIC
  FOUND YR SUM OF I IZ fib YR DIFF OF n AN 1 MKAY AN I IZ fib YR DIFF OF n AN 2 MKAY
IF U SAY SO
VISIBLE I IZ fib YR 10 MKAY`, "", "55\n"},
		{"local in function", `HOW IZ I f YR a AN YR b
  I HAS A s ITZ SUM OF a AN b
  FOUND YR PRODUKT OF s AN s
IF U SAY SO
I HAS A x ITZ 1
VISIBLE I IZ f YR x AN YR 2 MKAY AN " " AN x`, "", "9 1\n"},
		{"function value", `HOW IZ I f
IF U SAY SO
VISIBLE f`, "", "<FUNKSHON at 0x5>\n"},

		// Lists
		{"lists", `I HAS A l ITZ BUKKIT OF 1 AN 2 MKAY
PUT 3 IN MAH l
VISIBLE l
VISIBLE LEN OF l
VISIBLE PICK 1 OUTTA l
VISIBLE PICK FRONT OUTTA l AN PICK BAK OUTTA l
PUT 9 IN MAH l AT 0
VISIBLE l`, "", "[1, 2, 3]\n3\n2\n13\n[9, 2, 3]\n"},
		{"typed bukkit", "I HAS A l ITZ A BUKKIT\nPUT \"x\" IN MAH l\nVISIBLE l", "", "[x]\n"},
		{"list identity", "I HAS A a ITZ BUKKIT\nI HAS A b ITZ a\nPUT 1 IN MAH b\nVISIBLE a AN BOTH SAEM a AN b", "", "[1]WIN\n"},

		// Input
		{"gimmeh", "I HAS A n\nGIMMEH n\nVISIBLE \"hi \" AN n", "bob\n", "hi bob\n"},
		{"gimmeh eof", "GIMMEH IT\nVISIBLE LEN OF IT", "", "0\n"},
	}

	for _, tt := range tests {
		got, err := runSource(t, program(tt.body), tt.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: output = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func caseProgram(value string) string {
	return `I HAS A c ITZ "` + value + `"
c
WTF?
  OMG "a"
    VISIBLE "A"
  OMG "b"
    VISIBLE "B"
  OMG "c"
    VISIBLE "C"
    GTFO
  OMG "d"
    VISIBLE "D"
  OMGWTF
    VISIBLE "default"
OIC`
}

func TestVMRuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		kind  diag.Kind
		start int
	}{
		{"div by zero", "VISIBLE QUOSHUNT OF 1 AN 0", diag.Runtime, 16},
		{"mod by zero", "VISIBLE MOD OF 1 AN 0", diag.Runtime, 16},
		{"bad number", `VISIBLE SUM OF "abc" AN 1`, diag.Type, 16},
		{"call non-function", "I HAS A x ITZ 1\nI IZ x MKAY", diag.Type, -1},
		{"index range", "I HAS A l ITZ BUKKIT\nVISIBLE PICK 0 OUTTA l", diag.Runtime, -1},
		{"append non-list", "I HAS A l ITZ 1\nPUT 2 IN MAH l", diag.Type, -1},
		{"numbr overflow", "VISIBLE MAEK PRODUKT OF 10000000000.0 AN 10000000000000000000.0 A NUMBR", diag.Runtime, -1},
		{"numbr from nan", "VISIBLE MAEK QUOSHUNT OF 0.0 AN 0.0 A NUMBR", diag.Runtime, -1},
		{"numbr from inf", "VISIBLE MAEK QUOSHUNT OF 1.0 AN 0 A NUMBR", diag.Runtime, -1},
		{"index from inf", "I HAS A l ITZ BUKKIT\nPUT 1 IN MAH l\nVISIBLE PICK QUOSHUNT OF 1.0 AN 0 OUTTA l", diag.Runtime, -1},
		{"stack overflow", "HOW IZ I f YR n\n  FOUND YR I IZ f YR n MKAY\nIF U SAY SO\nI IZ f YR 1 MKAY", diag.Runtime, -1},
	}

	for _, tt := range tests {
		_, err := runSource(t, program(tt.body), "")
		d, ok := diag.As(err)
		if !ok {
			t.Errorf("%s: error = %v, want a diagnostic", tt.name, err)
			continue
		}
		if d.Kind != tt.kind {
			t.Errorf("%s: kind = %s, want %s (%v)", tt.name, d.Kind, tt.kind, d)
		}
		if tt.start >= 0 && d.Span.Start != tt.start {
			t.Errorf("%s: span start = %d, want %d", tt.name, d.Span.Start, tt.start)
		}
	}
}

func TestVMInvalidOpcode(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(Int(1), sp)
	at := diag.Span{Start: 20, End: 21}
	c.Code = append(c.Code, 0xEE)
	c.Positions = append(c.Positions, at)

	_, err := runChunk(c, "")
	d := wantDiag(t, err, diag.Runtime)
	if d.Span != at {
		t.Errorf("span = %v, want %v", d.Span, at)
	}
	if !strings.Contains(d.Message, "invalid opcode") {
		t.Errorf("message = %q, want it to mention the invalid opcode", d.Message)
	}
}

func TestVMCallWrongArity(t *testing.T) {
	// Copying f into another variable hides its arity from the compiler.
	src := program(`HOW IZ I f YR a
  FOUND YR a
IF U SAY SO
I HAS A g ITZ f
I IZ g YR 1 AN YR 2 MKAY`)
	_, err := runSource(t, src, "")
	wantDiag(t, err, diag.FunctionArgumentMany)
}

func TestVMMalformedChunk(t *testing.T) {
	c := NewChunk()
	c.Emit(OpAdd, sp)
	c.Emit(OpHalt, sp)
	_, err := runChunk(c, "")
	wantDiag(t, err, diag.Runtime)
}

func TestVMEncodedChunkRunsIdentically(t *testing.T) {
	src := program(`HOW IZ I fact YR n
  BOTH SAEM n AN 0
  O RLY?
    YA RLY
      FOUND YR 1
  OIC
  FOUND YR PRODUKT OF n AN I IZ fact YR DIFF OF n AN 1 MKAY
IF U SAY SO
I HAS A who ITZ "cat"
VISIBLE "hai :{who} " AN I IZ fact YR 6 MKAY AN " " AN 2.25`)
	c := mustCompile(t, src)
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want, err := runChunk(c, "")
	if err != nil {
		t.Fatalf("run original: %v", err)
	}
	got, err := runChunk(decoded, "")
	if err != nil {
		t.Fatalf("run decoded: %v", err)
	}
	if got != want || want != "hai cat 720 2.25\n" {
		t.Errorf("decoded output = %q, original = %q", got, want)
	}
}

func TestVMTrace(t *testing.T) {
	c := mustCompile(t, program(`VISIBLE "hi"`))
	var out, trace bytes.Buffer
	vm := NewVM(c)
	vm.Out = &out
	vm.Trace = &trace
	if err := vm.Run(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hi\n" {
		t.Errorf("output = %q, want %q", out.String(), "hi\n")
	}
	for _, want := range []string{"[NOOB]", "LOAD_CONST 0", "PRINT 1", "HALT"} {
		if !strings.Contains(trace.String(), want) {
			t.Errorf("trace missing %q:\n%s", want, trace.String())
		}
	}
}
