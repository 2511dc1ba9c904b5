// Copyright © 2016, The T Authors.

// Package doc implements the document contract of spec §4.4: the
// small set of canonical operations (step-a-char, set-reference,
// stream-content, get/set attributes, notify-change) every document
// speaks, plus the generic machinery — marks, views, attributes,
// notifications, dispatch — common to every document regardless of
// backend. Concrete storage (the thing that actually holds text) is
// out of scope (spec §1 Non-goals); a document backend need only
// implement the small Doc interface below.
package doc

import (
	"fmt"

	"github.com/gopane/edlib/attr"
	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/mark"
	"github.com/gopane/edlib/pane"
)

// Ref is a document's opaque position encoding (spec §3 doc-ref). It
// is never interpreted by Base beyond what Doc exposes below.
type Ref = mark.DocRef

// Doc is the small set of backend-specific primitives spec §4.4
// names. Base implements every doc:* dispatch key in terms of these.
//
// Less is not part of the spec's prose (which says the core "never
// interprets" a doc-ref beyond equality) but is required by this
// Go rewrite's mark placement, which — unlike the original's
// pointer/offset-comparison tricks baked into one linear buffer type —
// must ask an arbitrary backend where a given ref sits relative to an
// existing mark. multipart and crop both have a natural total order
// already (part index then child seq; parent order clamped to a
// window) so this asks nothing of them they don't already know.
type Doc interface {
	// Start and End return the document's first and one-past-last
	// doc-ref.
	Start() Ref
	End() Ref

	// Equal reports whether a and b are the same position.
	Equal(a, b Ref) bool

	// Less reports whether a strictly precedes b in document order.
	Less(a, b Ref) bool

	// Step moves one code point from ref in the given direction. ok
	// is false at the start/end of the document, in which case ref is
	// returned unchanged and ch is command.WEOF.
	Step(ref Ref, forward bool) (next Ref, ch rune, ok bool)

	// Content streams every code point in [from, to) to each,
	// stopping early if each returns false. It returns the number of
	// code points actually streamed.
	Content(from, to Ref, each func(rune) bool) int

	// GetAttr and SetAttr access backend-level attributes addressed
	// by position (e.g. syntax highlighting looked up by offset).
	// Concrete backends with no such notion may always return "", false.
	GetAttr(ref Ref, key string) (string, bool)
	SetAttr(ref Ref, key, value string)

	// Replace substitutes the text in [from, to) with text, returning
	// the new end-of-replacement ref.
	Replace(from, to Ref, text string) (Ref, error)

	// Boundary returns the farthest position in the given direction a
	// renderer is allowed to go from ref (spec §4.4 doc:get-boundary).
	// Most backends just return Start()/End(); crop overrides it to
	// the crop window.
	Boundary(ref Ref, forward bool) Ref
}

// A Base is the generic document machinery: marks, views, document
// attributes, notifications, and the doc:* dispatch table, all
// layered over a Doc backend. Every concrete document type (the
// in-core multipart and crop, or a test/production leaf backend)
// embeds a *Base and is itself registered as the Base's owning pane.
type Base struct {
	Pane    *pane.Pane
	Store   *mark.Store
	Attrs   attr.Set
	Name    string

	Autoclose bool
	Readonly  bool

	backend    Doc
	viewOwners []*pane.Pane // index-aligned with Store's view slots
}

// NewBase registers a new document pane under parent, backed by
// backend, and returns the Base embedding object code can compose.
// The caller is responsible for making the returned Base (or a type
// embedding it) the Handler of the returned Pane — see RegisterHandler.
func NewBase(parent *pane.Pane, name string, backend Doc) *Base {
	b := &Base{Store: mark.NewStore(), Name: name, backend: backend}
	b.Pane = pane.Register(parent, 0, nil)
	b.Pane.Attrs.Set("doc-name", name)
	return b
}

// RegisterHandler installs fn (typically a concrete document type's
// own method value wrapping b.Handle for its own extra keys) as b's
// pane handler.
func (b *Base) RegisterHandler(fn pane.Handler) { b.Pane.SetHandler(fn) }

// Backend returns the Doc backend this Base was constructed with.
func (b *Base) Backend() Doc { return b.backend }

// locate scans the mark chain for the pair of marks that bracket ref
// in document order, i.e. the nearest existing mark before ref and
// the nearest existing mark at-or-after it. Either may be mark.Nil if
// ref is before the first mark or at/after the last.
//
// This is linear in the number of marks; see DESIGN.md for why that
// trade-off is acceptable here.
func (b *Base) locate(ref Ref) (prev, next mark.Handle) {
	prev, next = mark.Nil, mark.Nil
	for h := b.Store.First(); h != mark.Nil; h = b.Store.Next(h) {
		r := b.Store.Ref(h)
		if b.backend.Equal(r, ref) || b.backend.Less(ref, r) {
			next = h
			return prev, next
		}
		prev = h
	}
	return prev, mark.Nil
}

// NewMark allocates a fresh, Ungrouped mark at ref.
func (b *Base) NewMark(ref Ref) mark.Handle {
	prev, next := b.locate(ref)
	return b.Store.New(ref, mark.Ungrouped, prev, next)
}

// NewPoint allocates a fresh point at ref, a member of the global
// chain and of every active view simultaneously.
func (b *Base) NewPoint(ref Ref) mark.Handle {
	prev, next := b.locate(ref)
	return b.Store.NewPoint(ref, prev, next)
}

// MoveTo re-places an existing mark at a new ref (spec §4.3 to_mark).
func (b *Base) MoveTo(h mark.Handle, ref Ref) {
	prev, next := b.locate(ref)
	b.Store.Place(h, ref, prev, next)
}

// StepMark moves mark h by one code point in the given direction,
// performing the pre-step equal-position overtake (spec §4.3 step)
// before asking the backend to actually advance the ref. It returns
// the code point stepped over (or command.WEOF) and whether movement
// occurred.
//
// Named StepMark rather than Step: every Doc backend (Multipart,
// Crop, a leaf document) also has its own Step(ref, forward) working
// on a bare Ref, and a same-named method on an embedding type would
// silently shadow this one instead of being promoted.
func (b *Base) StepMark(h mark.Handle, forward bool) (rune, bool) {
	b.Store.Step(h, forward, b.backend.Equal)
	ref := b.Store.Ref(h)
	next, ch, ok := b.backend.Step(ref, forward)
	if !ok {
		return command.WEOF, false
	}
	b.MoveTo(h, next)
	return ch, true
}

// AddView allocates a view slot owned by owner and returns its index.
func (b *Base) AddView(owner *pane.Pane) int {
	idx := b.Store.AddView()
	b.viewOwners = append(b.viewOwners, owner)
	return idx
}

// DelView releases a view slot.
func (b *Base) DelView(idx int) {
	b.Store.DelView(idx)
	if idx >= 0 && idx < len(b.viewOwners) {
		b.viewOwners[idx] = nil
	}
}

// NotifyChange fires doc:replaced to every subscriber, the way
// doc:replace reports a completed edit (spec §4.4 doc:notify:*).
func (b *Base) NotifyChange(payload any) {
	pane.Notify(b.Pane, "doc:replaced", payload)
}

// A ReplacedEvent is the payload delivered with doc:replaced.
type ReplacedEvent struct {
	From, To Ref
	Text     string
}

// Handle implements the doc:* dispatch vocabulary of spec §4.4. A
// concrete document type whose own handler adds extra keys should
// fall back to this method for anything it doesn't recognize itself.
func (b *Base) Handle(ci *command.Info) (int, error) {
	switch ci.Key {
	case "doc:char", "doc:byte", "doc:step":
		return b.handleChar(ci)
	case "doc:content", "doc:content-bytes":
		return b.handleContent(ci)
	case "doc:set-ref":
		return b.handleSetRef(ci)
	case "doc:get-attr":
		return b.handleGetAttr(ci)
	case "doc:set-attr":
		return b.handleSetAttr(ci)
	case "doc:add-view":
		owner, _ := ci.Focus.(*pane.Pane)
		return b.AddView(owner) + 1, nil
	case "doc:del-view":
		b.DelView(ci.Num)
		return 1, nil
	case "doc:replace":
		return b.handleReplace(ci)
	case "doc:get-boundary":
		return b.handleBoundary(ci)
	case "Close":
		return 1, nil
	}
	return 0, nil
}

func (b *Base) mark(v command.Mark) (mark.Handle, bool) {
	h, ok := v.(mark.Handle)
	return h, ok
}

// handleChar implements the composite contract of spec §4.4 verbatim:
// it serves "move N chars", "scan until boundary", "peek adjacent
// char", and "count chars in range" through one operation.
func (b *Base) handleChar(ci *command.Info) (int, error) {
	h, ok := b.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	steps := ci.Num
	forward := steps > 0

	var bound mark.Handle
	hasBound := false
	if h2, ok := b.mark(ci.Mark2); ok {
		bound, hasBound = h2, true
		if b.backend.Equal(b.Store.Ref(h), b.Store.Ref(bound)) {
			return 1, nil
		}
		wrongSide := forward && b.backend.Less(b.Store.Ref(bound), b.Store.Ref(h)) ||
			!forward && b.backend.Less(b.Store.Ref(h), b.Store.Ref(bound))
		if wrongSide {
			return 0, command.Einval
		}
	}

	var last rune = command.WEOF
	moved := 0
	remaining := steps
	if remaining < 0 {
		remaining = -remaining
	}
	for remaining > 0 {
		if hasBound && b.backend.Equal(b.Store.Ref(h), b.Store.Ref(bound)) {
			break
		}
		ch, ok := b.StepMark(h, forward)
		if !ok {
			break
		}
		last = ch
		moved++
		remaining--
	}

	if hasBound {
		return 1 + moved, nil
	}
	if ci.Num2 == 0 {
		return command.CharRet(last), nil
	}
	if (steps < 0) != (ci.Num2 < 0) {
		return command.CharRet(last), nil
	}
	// Peek one extra code point in the direction of Num2, without
	// moving the mark.
	peekForward := ci.Num2 > 0
	ref := b.Store.Ref(h)
	_, peekCh, peekOK := b.backend.Step(ref, peekForward)
	if !peekOK {
		return command.CharRet(command.WEOF), nil
	}
	return command.CharRet(peekCh), nil
}

func (b *Base) handleContent(ci *command.Info) (int, error) {
	h, ok := b.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	h2, ok := b.mark(ci.Mark2)
	if !ok {
		return 0, command.Enoarg
	}
	if ci.Comm2 == nil {
		return 0, command.Enoarg
	}
	from, to := b.Store.Ref(h), b.Store.Ref(h2)
	n := b.backend.Content(from, to, func(ch rune) bool {
		ret, err := ci.Comm2.Invoke(&command.Info{Key: ci.Key, Any: ch})
		return err == nil && ret > 0
	})
	return n + 1, nil
}

func (b *Base) handleSetRef(ci *command.Info) (int, error) {
	h, ok := b.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	if ci.Num == 1 {
		b.MoveTo(h, b.backend.Start())
	} else {
		b.MoveTo(h, b.backend.End())
	}
	return 1, nil
}

func (b *Base) handleGetAttr(ci *command.Info) (int, error) {
	if h, ok := b.mark(ci.Mark); ok {
		if v, found := b.backend.GetAttr(b.Store.Ref(h), ci.Str); found {
			if ci.Comm2 != nil {
				ci.Comm2.Invoke(&command.Info{Any: v})
			}
			return 1, nil
		}
	}
	if v, found := b.Attrs.Get(ci.Str); found {
		if ci.Comm2 != nil {
			ci.Comm2.Invoke(&command.Info{Any: v})
		}
		return 1, nil
	}
	return 0, command.Efalse
}

func (b *Base) handleSetAttr(ci *command.Info) (int, error) {
	if h, ok := b.mark(ci.Mark); ok {
		b.backend.SetAttr(b.Store.Ref(h), ci.Str, ci.Str2)
		return 1, nil
	}
	b.Attrs.Set(ci.Str, ci.Str2)
	return 1, nil
}

func (b *Base) handleReplace(ci *command.Info) (int, error) {
	h, ok := b.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	h2, ok := b.mark(ci.Mark2)
	if !ok {
		return 0, command.Enoarg
	}
	from, to := b.Store.Ref(h), b.Store.Ref(h2)
	newEnd, err := b.backend.Replace(from, to, ci.Str)
	if err != nil {
		return 0, fmt.Errorf("doc:replace: %w: %v", command.Efail, err)
	}
	b.MoveTo(h, from)
	b.MoveTo(h2, newEnd)
	b.NotifyChange(ReplacedEvent{From: from, To: newEnd, Text: ci.Str})
	return 1, nil
}

func (b *Base) handleBoundary(ci *command.Info) (int, error) {
	h, ok := b.mark(ci.Mark)
	if !ok {
		return 0, command.Enoarg
	}
	forward := ci.Num != 0
	bnd := b.backend.Boundary(b.Store.Ref(h), forward)
	out := b.NewMark(bnd)
	if ci.Comm2 != nil {
		ci.Comm2.Invoke(&command.Info{Any: out})
	}
	return 1, nil
}
