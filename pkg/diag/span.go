// Package diag holds source spans, the source registry, and the diagnostics
// produced by every phase of the LOLCODE pipeline.
package diag

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) into one registered source.
type Span struct {
	Start int
	End   int
	File  int
}

// NewSpan returns a span, swapping start and end if they arrive reversed.
func NewSpan(start, end, file int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end, File: file}
}

// Len returns the byte length of the span.
func (s Span) Len() int { return s.End - s.Start }

// To returns the smallest span covering s and other. Both must be in the
// same file; other's file is ignored.
func (s Span) To(other Span) Span {
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end, File: s.File}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d..%d", s.File, s.Start, s.End)
}

// ---------------------------------------------------------------------------
// Source registry
// ---------------------------------------------------------------------------

// Source is one named source buffer.
type Source struct {
	Name string
	Text string

	lineStarts []int
}

// Sources maps file indices to named buffers. It is passed explicitly
// through the pipeline; there is no process-wide registry.
type Sources struct {
	files []*Source
}

// NewSources creates an empty registry.
func NewSources() *Sources {
	return &Sources{}
}

// Add registers a buffer and returns its file index.
func (s *Sources) Add(name, text string) int {
	src := &Source{Name: name, Text: text, lineStarts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			src.lineStarts = append(src.lineStarts, i+1)
		}
	}
	s.files = append(s.files, src)
	return len(s.files) - 1
}

// Get returns the source for a file index, or nil.
func (s *Sources) Get(file int) *Source {
	if s == nil || file < 0 || file >= len(s.files) {
		return nil
	}
	return s.files[file]
}

// Len returns the number of registered sources.
func (s *Sources) Len() int { return len(s.files) }

// Position is a 1-based line and column. Column counts runes.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Position maps a byte offset to a line and column. Offsets past the end
// clamp to the end of the buffer.
func (src *Source) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src.Text) {
		offset = len(src.Text)
	}
	line := sort.Search(len(src.lineStarts), func(i int) bool {
		return src.lineStarts[i] > offset
	}) - 1
	start := src.lineStarts[line]
	col := utf8.RuneCountInString(src.Text[start:offset]) + 1
	return Position{Line: line + 1, Column: col}
}

// Line returns the text of the 1-based line without its newline.
func (src *Source) Line(n int) string {
	if n < 1 || n > len(src.lineStarts) {
		return ""
	}
	start := src.lineStarts[n-1]
	end := len(src.Text)
	if n < len(src.lineStarts) {
		end = src.lineStarts[n] - 1
	}
	if end > start && src.Text[end-1] == '\r' {
		end--
	}
	return src.Text[start:end]
}

// LineCount returns the number of lines in the buffer.
func (src *Source) LineCount() int { return len(src.lineStarts) }
