// Copyright © 2016, The T Authors.

// Package memdoc is a minimal in-memory leaf document: a []rune
// buffer addressed by plain integer offset. It exists only to give
// tests (and the doc/multipart/crop packages' own tests) a concrete
// doc.Doc backend to exercise without pulling in a production storage
// engine, loosely in the vein of the teacher's edit.Runes buffer.
package memdoc

import (
	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/doc"
	"github.com/gopane/edlib/pane"
)

// Document is a doc.Doc backed by a plain []rune; its Ref values are
// always plain ints, the buffer offset.
type Document struct {
	*doc.Base
	text []rune
}

// New registers a new memdoc under parent, seeded with initial text.
func New(parent *pane.Pane, name, initial string) *Document {
	d := &Document{text: []rune(initial)}
	d.Base = doc.NewBase(parent, name, d)
	d.Base.RegisterHandler(d.Base.Handle)
	return d
}

// Start implements doc.Doc.
func (d *Document) Start() doc.Ref { return 0 }

// End implements doc.Doc.
func (d *Document) End() doc.Ref { return len(d.text) }

func off(r doc.Ref) int { v, _ := r.(int); return v }

// Equal implements doc.Doc.
func (d *Document) Equal(a, b doc.Ref) bool { return off(a) == off(b) }

// Less implements doc.Doc.
func (d *Document) Less(a, b doc.Ref) bool { return off(a) < off(b) }

// Step implements doc.Doc.
func (d *Document) Step(ref doc.Ref, forward bool) (doc.Ref, rune, bool) {
	i := off(ref)
	if forward {
		if i >= len(d.text) {
			return ref, command.WEOF, false
		}
		return i + 1, d.text[i], true
	}
	if i <= 0 {
		return ref, command.WEOF, false
	}
	return i - 1, d.text[i-1], true
}

// Content implements doc.Doc.
func (d *Document) Content(from, to doc.Ref, each func(rune) bool) int {
	i, j := off(from), off(to)
	n := 0
	for ; i < j && i < len(d.text); i++ {
		n++
		if !each(d.text[i]) {
			break
		}
	}
	return n
}

// GetAttr implements doc.Doc. memdoc has no position-keyed attributes
// of its own; callers get whatever doc.Base's document-level
// attribute set holds instead.
func (d *Document) GetAttr(ref doc.Ref, key string) (string, bool) { return "", false }

// SetAttr implements doc.Doc as a no-op for the same reason.
func (d *Document) SetAttr(ref doc.Ref, key, value string) {}

// Replace implements doc.Doc by splicing text into the buffer.
func (d *Document) Replace(from, to doc.Ref, text string) (doc.Ref, error) {
	i, j := off(from), off(to)
	if i < 0 || j > len(d.text) || i > j {
		return from, command.Einval
	}
	ins := []rune(text)
	out := make([]rune, 0, len(d.text)-(j-i)+len(ins))
	out = append(out, d.text[:i]...)
	out = append(out, ins...)
	out = append(out, d.text[j:]...)
	d.text = out
	return i + len(ins), nil
}

// Boundary implements doc.Doc as the buffer's own start/end.
func (d *Document) Boundary(ref doc.Ref, forward bool) doc.Ref {
	if forward {
		return d.End()
	}
	return d.Start()
}

// String returns the buffer's current contents, for test assertions.
func (d *Document) String() string { return string(d.text) }
