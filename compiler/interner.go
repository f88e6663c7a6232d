package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Interner: identifier text <-> small integer handles
// ---------------------------------------------------------------------------

// Sym is an interned identifier handle.
type Sym uint32

// Interner maps identifier text to stable handles. Handles live for the
// whole compilation unit; nothing is ever evicted. An Interner is owned by
// one pipeline and is not safe for concurrent use.
type Interner struct {
	byName map[string]Sym
	byID   []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{
		byName: make(map[string]Sym),
		byID:   make([]string, 0, 64),
	}
}

// Intern returns the handle for text, allocating one on first sight.
func (in *Interner) Intern(text string) Sym {
	if id, ok := in.byName[text]; ok {
		return id
	}
	id := Sym(len(in.byID))
	in.byName[text] = id
	in.byID = append(in.byID, text)
	return id
}

// Lookup returns the text for a handle. An unknown handle means the caller
// mixed handles from different interners, which is a bug, so it panics.
func (in *Interner) Lookup(id Sym) string {
	if int(id) >= len(in.byID) {
		panic(fmt.Sprintf("interner: invalid handle %d (have %d)", id, len(in.byID)))
	}
	return in.byID[id]
}

// Find returns the handle for text without allocating one.
func (in *Interner) Find(text string) (Sym, bool) {
	id, ok := in.byName[text]
	return id, ok
}

// Len returns the number of interned strings.
func (in *Interner) Len() int { return len(in.byID) }

// All returns a copy of all interned strings in handle order.
func (in *Interner) All() []string {
	out := make([]string, len(in.byID))
	copy(out, in.byID)
	return out
}
