package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic. The set is closed.
type Kind uint8

const (
	UnexpectedCharacter Kind = iota
	InvalidEscapeSequence
	Syntax
	UnmatchedBlockName
	Scope
	Type
	FunctionArgumentMany
	Runtime
)

type kindInfo struct {
	tag         string
	description string
}

var kindTable = map[Kind]kindInfo{
	UnexpectedCharacter:   {"unexpected-character", "unexpected character"},
	InvalidEscapeSequence: {"invalid-escape", "invalid escape sequence"},
	Syntax:                {"syntax", "syntax error"},
	UnmatchedBlockName:    {"unmatched-block-name", "block names do not match"},
	Scope:                 {"unknown-symbol", "unknown symbol"},
	Type:                  {"type", "type mismatch"},
	FunctionArgumentMany:  {"function-arguments", "wrong number of function arguments"},
	Runtime:               {"runtime", "runtime error"},
}

// Tag returns the stable machine-readable tag for the kind.
func (k Kind) Tag() string {
	if info, ok := kindTable[k]; ok {
		return info.tag
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Description returns the default human-readable description.
func (k Kind) Description() string {
	if info, ok := kindTable[k]; ok {
		return info.description
	}
	return "unknown error"
}

func (k Kind) String() string { return k.Tag() }

// Annotation attaches a message to a span.
type Annotation struct {
	Span    Span
	Message string
}

// Diagnostic is a single error with its primary span and one or more
// annotations. It implements error.
type Diagnostic struct {
	Kind        Kind
	Span        Span
	Message     string
	Annotations []Annotation
}

// New creates a diagnostic whose single annotation repeats the message at
// the primary span.
func New(kind Kind, span Span, format string, args ...any) *Diagnostic {
	msg := fmt.Sprintf(format, args...)
	return &Diagnostic{
		Kind:        kind,
		Span:        span,
		Message:     msg,
		Annotations: []Annotation{{Span: span, Message: msg}},
	}
}

// Annotate appends an annotation and returns d.
func (d *Diagnostic) Annotate(span Span, format string, args ...any) *Diagnostic {
	d.Annotations = append(d.Annotations, Annotation{Span: span, Message: fmt.Sprintf(format, args...)})
	return d
}

func (d *Diagnostic) Error() string {
	if d.Message == "" {
		return d.Kind.Description()
	}
	return fmt.Sprintf("%s: %s", d.Kind.Description(), d.Message)
}

// As extracts a *Diagnostic from an error chain.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// List holds several diagnostics. The primary pipeline only ever returns
// one, but the container supports more.
type List []*Diagnostic

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns nil for an empty list, the single diagnostic for a
// one-element list, and the list itself otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}
