package diag

import (
	"fmt"
	"io"
	"strings"
)

// Render writes a plain-text report for err to w. Diagnostics get a header
// with file, line and column plus a caret snippet for each annotation;
// other errors are written as-is.
func Render(w io.Writer, sources *Sources, err error) {
	switch e := err.(type) {
	case List:
		for _, d := range e {
			renderOne(w, sources, d)
		}
		return
	case *Diagnostic:
		renderOne(w, sources, e)
		return
	}
	if d, ok := As(err); ok {
		renderOne(w, sources, d)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func renderOne(w io.Writer, sources *Sources, d *Diagnostic) {
	src := sources.Get(d.Span.File)
	if src == nil {
		fmt.Fprintf(w, "error[%s]: %s\n", d.Kind.Tag(), d.Message)
		return
	}
	pos := src.Position(d.Span.Start)
	fmt.Fprintf(w, "error[%s]: %s\n", d.Kind.Tag(), d.Kind.Description())
	fmt.Fprintf(w, "  --> %s:%d:%d\n", src.Name, pos.Line, pos.Column)

	for _, a := range d.Annotations {
		asrc := sources.Get(a.Span.File)
		if asrc == nil {
			asrc = src
		}
		writeSnippet(w, asrc, a)
	}
}

// writeSnippet prints the annotated line with a caret run underneath.
func writeSnippet(w io.Writer, src *Source, a Annotation) {
	start := src.Position(a.Span.Start)
	end := src.Position(a.Span.End)

	line := src.Line(start.Line)
	gutter := len(fmt.Sprint(start.Line))
	pad := strings.Repeat(" ", gutter)

	width := 1
	if end.Line == start.Line && end.Column > start.Column {
		width = end.Column - start.Column
	}
	col := start.Column
	if col < 1 {
		col = 1
	}

	fmt.Fprintf(w, "%s |\n", pad)
	fmt.Fprintf(w, "%d | %s\n", start.Line, line)
	fmt.Fprintf(w, "%s | %s%s %s\n", pad, strings.Repeat(" ", col-1), strings.Repeat("^", width), a.Message)
}
