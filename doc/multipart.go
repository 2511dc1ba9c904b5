// Copyright © 2016, The T Authors.

package doc

import (
	"strings"

	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/mark"
	"github.com/gopane/edlib/pane"
)

// A ref identifies a position inside a Multipart document: which part,
// and the child document's own doc-ref within that part. Ordering is
// (partIndex, child ref order), spec §4.6.
type multipartRef struct {
	part int
	sub  Ref
}

// A part is one child document folded into a Multipart, plus a
// boundary string (e.g. a filename banner) stored with it. The core
// never streams, steps into or otherwise reads that string, and parts
// have no visibility switch: Step and Content visit every part.
type part struct {
	child      *Base
	invisible  string // banner stored with this part; not read by the core
	mark       mark.Handle // shared mark into child, refcounted across our own marks that sit in this part
	refcnt     int
}

// Multipart joins several child documents end to end into one
// document, presenting itself through the same doc:* vocabulary as
// any leaf (spec §4.6). It is itself a Doc backend, composed purely
// from other documents — no storage of its own.
type Multipart struct {
	*Base
	parts []*part
}

// NewMultipart registers a new multipart document under parent.
func NewMultipart(parent *pane.Pane, name string) *Multipart {
	m := &Multipart{}
	m.Base = NewBase(parent, name, m)
	m.Base.RegisterHandler(m.handle)
	return m
}

// AddPart appends child (with its own read-only invisible banner,
// often empty) as the next part.
func (m *Multipart) AddPart(child *Base, invisible string) {
	m.parts = append(m.parts, &part{child: child, invisible: invisible})
}

// PartCount returns the number of parts currently folded in.
func (m *Multipart) PartCount() int { return len(m.parts) }

func (m *Multipart) ref(r Ref) multipartRef {
	mr, _ := r.(multipartRef)
	return mr
}

// Start implements Doc.
func (m *Multipart) Start() Ref {
	if len(m.parts) == 0 {
		return multipartRef{}
	}
	return multipartRef{part: 0, sub: m.parts[0].child.backend.Start()}
}

// End implements Doc.
func (m *Multipart) End() Ref {
	n := len(m.parts)
	if n == 0 {
		return multipartRef{}
	}
	return multipartRef{part: n - 1, sub: m.parts[n-1].child.backend.End()}
}

// Equal implements Doc.
func (m *Multipart) Equal(a, b Ref) bool {
	ra, rb := m.ref(a), m.ref(b)
	if ra.part != rb.part {
		return false
	}
	if ra.part < 0 || ra.part >= len(m.parts) {
		return true
	}
	return m.parts[ra.part].child.backend.Equal(ra.sub, rb.sub)
}

// Less implements Doc: parts order first, then the child document's
// own order within a shared part (spec §4.6's ordering key).
func (m *Multipart) Less(a, b Ref) bool {
	ra, rb := m.ref(a), m.ref(b)
	if ra.part != rb.part {
		return ra.part < rb.part
	}
	if ra.part < 0 || ra.part >= len(m.parts) {
		return false
	}
	return m.parts[ra.part].child.backend.Less(ra.sub, rb.sub)
}

// Step implements Doc, crossing part boundaries transparently: when a
// step would run off the end (or start) of the current part's child
// document, it continues from the start (or end) of the next (or
// previous) part's child and steps over that part's first (or last)
// character. The part's boundary string is never stepped into.
func (m *Multipart) Step(ref Ref, forward bool) (Ref, rune, bool) {
	r := m.ref(ref)
	if r.part < 0 || r.part >= len(m.parts) {
		return ref, command.WEOF, false
	}
	p := m.parts[r.part]
	next, ch, ok := p.child.backend.Step(r.sub, forward)
	if ok {
		return multipartRef{part: r.part, sub: next}, ch, true
	}
	// Ran off this part's edge; hop to the adjacent part and consume
	// its first (or last) character in the same step, so a part with
	// no content at all is skipped transparently rather than stalling
	// the walk on an empty landing position.
	np := r.part
	if forward {
		np++
	} else {
		np--
	}
	if np < 0 || np >= len(m.parts) {
		return ref, command.WEOF, false
	}
	child := m.parts[np].child.backend
	var edge Ref
	if forward {
		edge = child.Start()
	} else {
		edge = child.End()
	}
	return m.Step(multipartRef{part: np, sub: edge}, forward)
}

// Content implements Doc by streaming every part in range, verbatim
// concatenation of each part's own stream (invisible text is never
// streamed — it is render-only).
func (m *Multipart) Content(from, to Ref, each func(rune) bool) int {
	rf, rt := m.ref(from), m.ref(to)
	n := 0
	for pi := rf.part; pi <= rt.part && pi < len(m.parts); pi++ {
		p := m.parts[pi]
		start := p.child.backend.Start()
		end := p.child.backend.End()
		if pi == rf.part {
			start = rf.sub
		}
		if pi == rt.part {
			end = rt.sub
		}
		stop := false
		cnt := p.child.backend.Content(start, end, func(ch rune) bool {
			if !each(ch) {
				stop = true
				return false
			}
			return true
		})
		n += cnt
		if stop {
			break
		}
	}
	return n
}

// GetAttr implements Doc by looking key up in the child of the part
// ref sits in, after stripping a "multipart-this:" prefix. Other
// prefixes such as "multipart-next:" or "multipart-prev:" are passed
// to that same child unchanged. Numbered doc:multipart-N-KEY commands
// are forwarded by the handler (forwardNumbered), not here.
func (m *Multipart) GetAttr(ref Ref, key string) (string, bool) {
	r := m.ref(ref)
	if r.part < 0 || r.part >= len(m.parts) {
		return "", false
	}
	if strings.HasPrefix(key, "multipart-this:") {
		key = key[len("multipart-this:"):]
	}
	return m.parts[r.part].child.backend.GetAttr(r.sub, key)
}

// SetAttr implements Doc.
func (m *Multipart) SetAttr(ref Ref, key, value string) {
	r := m.ref(ref)
	if r.part < 0 || r.part >= len(m.parts) {
		return
	}
	m.parts[r.part].child.backend.SetAttr(r.sub, key, value)
}

// Replace implements Doc by forwarding to the owning part's child;
// edits may not span a part boundary (each part keeps its own
// identity and undo history, spec §4.6).
func (m *Multipart) Replace(from, to Ref, text string) (Ref, error) {
	rf, rt := m.ref(from), m.ref(to)
	if rf.part != rt.part {
		return from, command.Einval
	}
	if rf.part < 0 || rf.part >= len(m.parts) {
		return from, command.Einval
	}
	newSub, err := m.parts[rf.part].child.backend.Replace(rf.sub, rt.sub, text)
	if err != nil {
		return from, err
	}
	return multipartRef{part: rf.part, sub: newSub}, nil
}

// Boundary implements Doc, clamping to the current part (crossing a
// part boundary is itself a kind of boundary, the multipart-next:/
// multipart-prev: keys below step across it deliberately).
func (m *Multipart) Boundary(ref Ref, forward bool) Ref {
	r := m.ref(ref)
	if r.part < 0 || r.part >= len(m.parts) {
		return ref
	}
	p := m.parts[r.part]
	if forward {
		return multipartRef{part: r.part, sub: p.child.backend.End()}
	}
	return multipartRef{part: r.part, sub: p.child.backend.Start()}
}

// handle extends Base.Handle with the multipart-specific keys of
// spec §4.6: moving to the next/previous part, and forwarding a
// numbered doc:multipart-N-KEY straight to part N.
func (m *Multipart) handle(ci *command.Info) (int, error) {
	switch ci.Key {
	case "multipart-next:move-next", "multipart-prev:move-prev":
		return m.movePart(ci, ci.Key == "multipart-next:move-next")
	case "multipart-this:part-count":
		return len(m.parts), nil
	}
	if strings.HasPrefix(ci.Key, "doc:multipart-") {
		return m.forwardNumbered(ci)
	}
	return m.Base.Handle(ci)
}

func (m *Multipart) movePart(ci *command.Info, forward bool) (int, error) {
	h, ok := m.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	r := m.ref(m.Store.Ref(h))
	np := r.part
	if forward {
		np++
	} else {
		np--
	}
	if np < 0 || np >= len(m.parts) {
		return 0, command.Efalse
	}
	var landing Ref
	if forward {
		landing = m.parts[np].child.backend.Start()
	} else {
		landing = m.parts[np].child.backend.End()
	}
	m.MoveTo(h, multipartRef{part: np, sub: landing})
	return 1, nil
}

// forwardNumbered parses "doc:multipart-<N>-<rest>" and re-dispatches
// "doc:<rest>" against part N's own pane, per spec §4.6.
func (m *Multipart) forwardNumbered(ci *command.Info) (int, error) {
	rest := strings.TrimPrefix(ci.Key, "doc:multipart-")
	idx := strings.IndexByte(rest, '-')
	if idx < 0 {
		return 0, command.Einval
	}
	n, err := parseInt(rest[:idx])
	if err != nil || n < 0 || n >= len(m.parts) {
		return 0, command.Einval
	}
	inner := *ci
	inner.Key = "doc:" + rest[idx+1:]
	return m.parts[n].child.Pane.Handle(&inner)
}

func parseInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, command.Einval
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, command.Einval
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// shareMark returns the part's single child mark, creating it at ref
// on first use, and counts one more reference to it; later calls
// ignore ref. Every caller in a part gets that same child mark: there
// is no privatize step for diverging positions and no rejoin. release
// drops one reference and frees the child mark when the count reaches
// zero. Multipart itself calls neither helper.
func (p *part) shareMark(childStore *mark.Store, ref Ref) mark.Handle {
	if p.mark == mark.Nil {
		p.mark = childStore.New(ref, mark.Ungrouped, mark.Nil, mark.Nil)
	}
	p.refcnt++
	return p.mark
}

func (p *part) release(childStore *mark.Store) {
	p.refcnt--
	if p.refcnt <= 0 && p.mark != mark.Nil {
		childStore.Free(p.mark)
		p.mark = mark.Nil
		p.refcnt = 0
	}
}
