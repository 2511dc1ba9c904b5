// Copyright © 2016, The T Authors.

// Package mark implements the mark/point ordering system of spec
// §4.3: stable, totally-ordered references into one document, with
// per-view sub-orderings, under arbitrary edits.
//
// A Store holds every mark of one document. It does not know how to
// interpret a document's opaque doc-ref positions beyond what the
// owning document tells it (an equality test); placing a mark at a
// given ref, and finding the marks that already bracket that ref in
// document order, is the document's job (spec §4.4) — Store only
// manages the sparse seq allocation and the chain/view-membership
// bookkeeping once the document has located where a mark belongs.
package mark

import (
	"github.com/gopane/edlib/attr"
	"github.com/gopane/edlib/internal/handle"
)

// A DocRef is a document's opaque encoding of a position. The core
// never interprets it beyond what the owning document exposes through
// an Equal-style callback; Store stores it as an any.
type DocRef any

// View numbers, per spec §3.
const (
	Point     = -1
	Ungrouped = -2
)

// Handle addresses one mark (or point) within a Store.
type Handle = handle.Handle

// Nil is the handle that never addresses a live mark.
var Nil = handle.Nil

type record struct {
	ref     DocRef
	seq     int64
	view    int // Point, Ungrouped, or a view index >= 0
	attrs   attr.Set
	owner   any // opaque owner (typically a *pane.Pane); mark does not depend on pane
	rpos    int64
	refcnt  func(delta int)
	mdata   any
	isPoint bool
}

// A Store holds every mark of one document, kept in a single global
// chain ordered by seq, which in turn must always track the
// document's own doc-ref order (the document enforces this by only
// ever calling Place with the correct neighbors).
type Store struct {
	marks      handle.Arena[*record]
	chain      []handle.Handle // sorted ascending by seq
	nViews     int
	viewActive []bool
}

// NewStore returns an empty Store.
func NewStore() *Store { return &Store{} }

// New allocates a plain mark (not a point) at the position between
// prev and next (either may be Nil to mean "start"/"end" of the
// chain), belonging to view (Ungrouped if it should join no view
// sub-list). The caller (the owning document) is responsible for
// having already determined that ref sits between prev's and next's
// positions in document order.
func (s *Store) New(ref DocRef, view int, prev, next Handle) Handle {
	return s.insert(ref, view, false, prev, next)
}

// NewPoint allocates a point: a mark that participates in the global
// chain and in every currently-active view's sub-list simultaneously
// (spec §3, §4.3).
func (s *Store) NewPoint(ref DocRef, prev, next Handle) Handle {
	return s.insert(ref, Point, true, prev, next)
}

func (s *Store) insert(ref DocRef, view int, isPoint bool, prev, next Handle) Handle {
	prevSeq, nextSeq := s.bounds(prev, next)
	seq := s.allocSeq(prevSeq, nextSeq, prev, next)
	h := s.marks.New(&record{ref: ref, seq: seq, view: view, isPoint: isPoint})
	s.linkChain(h, seq)
	return h
}

// bounds returns the seq of prev (or -1<<62 if Nil) and next (or
// 1<<62 if Nil), the effective lower/upper bound for a new insertion.
func (s *Store) bounds(prev, next Handle) (prevSeq, nextSeq int64) {
	const minSeq, maxSeq = -(int64(1) << 62), int64(1) << 62
	prevSeq, nextSeq = minSeq, maxSeq
	if r, ok := s.marks.Get(prev); ok {
		prevSeq = r.seq
	}
	if r, ok := s.marks.Get(next); ok {
		nextSeq = r.seq
	}
	return prevSeq, nextSeq
}

// tailGap is the seq spacing used when appending at the very end of
// an empty neighborhood (spec §4.3: "Append at tail with gap 128").
const tailGap = 128

// shiftAmounts are tried, largest first, when the gap between prev and
// next has closed to nothing: a bounded run of marks starting at next
// is shifted by one of these amounts until room reopens (spec §4.3).
var shiftAmounts = []int64{256, 255, 128, 64}

// maxShiftWindow bounds how many marks a renumber may touch, keeping
// a single insert's renumbering work independent of document size —
// the "amortized O(1) per insert" requirement.
const maxShiftWindow = 64

func (s *Store) allocSeq(prevSeq, nextSeq int64, prev, next Handle) int64 {
	if next == Nil {
		// Appending past the current tail: no neighbor to collide with.
		if prevSeq == -(int64(1) << 62) {
			return 0
		}
		return prevSeq + tailGap
	}
	if nextSeq-prevSeq >= 2 {
		return prevSeq + (nextSeq-prevSeq)/2
	}
	window := s.windowFrom(next)
	for _, shift := range shiftAmounts {
		if s.tryShift(window, shift) {
			nextSeq = s.seqOf(next)
			return prevSeq + (nextSeq-prevSeq)/2
		}
	}
	// Last resort: renumber the whole chain evenly. This is the only
	// unbounded-cost path, and only reached if maxShiftWindow marks in
	// a row are all packed at consecutive integers.
	s.renumberAll()
	prevSeq, nextSeq = s.bounds(prev, next) // now evenly spaced again
	return prevSeq + (nextSeq-prevSeq)/2
}

type windowEntry struct {
	h        Handle
	seqBefore int64
}

// windowFrom collects up to maxShiftWindow marks in the chain starting
// at (and including) next.
func (s *Store) windowFrom(next Handle) []windowEntry {
	i := s.indexOf(next)
	if i < 0 {
		return nil
	}
	var win []windowEntry
	for j := i; j < len(s.chain) && len(win) < maxShiftWindow; j++ {
		r, _ := s.marks.Get(s.chain[j])
		win = append(win, windowEntry{h: s.chain[j], seqBefore: r.seq})
	}
	return win
}

// tryShift reports whether shifting every mark in window by shift
// would keep it sorted without colliding with whatever mark (if any)
// immediately follows the window, and if so, applies the shift.
func (s *Store) tryShift(window []windowEntry, shift int64) bool {
	if len(window) == 0 {
		return false
	}
	lastIdx := s.indexOf(window[len(window)-1].h)
	if lastIdx+1 < len(s.chain) {
		r, _ := s.marks.Get(s.chain[lastIdx+1])
		if window[len(window)-1].seqBefore+shift >= r.seq {
			return false
		}
	}
	for _, w := range window {
		r, _ := s.marks.Get(w.h)
		r.seq += shift
	}
	return true
}

func (s *Store) seqOf(h Handle) int64 {
	r, ok := s.marks.Get(h)
	if !ok {
		return 0
	}
	return r.seq
}

// renumberAll reassigns every mark a fresh, evenly-spaced seq,
// preserving current order. Only used as a last resort; see
// allocSeq.
func (s *Store) renumberAll() {
	for i, h := range s.chain {
		r, _ := s.marks.Get(h)
		r.seq = int64(i) * tailGap
	}
}

func (s *Store) indexOf(h Handle) int {
	for i, c := range s.chain {
		if c == h {
			return i
		}
	}
	return -1
}

func (s *Store) linkChain(h Handle, seq int64) {
	i := 0
	for i < len(s.chain) && s.seqOf(s.chain[i]) < seq {
		i++
	}
	s.chain = append(s.chain, Nil)
	copy(s.chain[i+1:], s.chain[i:])
	s.chain[i] = h
}

func (s *Store) unlinkChain(h Handle) {
	i := s.indexOf(h)
	if i < 0 {
		return
	}
	s.chain = append(s.chain[:i], s.chain[i+1:]...)
}

// Get returns the mark's current ref, seq and view.
func (s *Store) Get(h Handle) (ref DocRef, seq int64, view int, ok bool) {
	r, ok := s.marks.Get(h)
	if !ok {
		return nil, 0, 0, false
	}
	return r.ref, r.seq, r.view, true
}

// Ref returns the mark's current doc-ref.
func (s *Store) Ref(h Handle) DocRef {
	r, ok := s.marks.Get(h)
	if !ok {
		return nil
	}
	return r.ref
}

// Seq returns the mark's current ordering key.
func (s *Store) Seq(h Handle) int64 { return s.seqOf(h) }

// View returns the mark's view membership (Point, Ungrouped, or a
// view index).
func (s *Store) View(h Handle) int {
	r, ok := s.marks.Get(h)
	if !ok {
		return Ungrouped
	}
	return r.view
}

// IsPoint reports whether h is a point.
func (s *Store) IsPoint(h Handle) bool {
	r, ok := s.marks.Get(h)
	return ok && r.isPoint
}

// Attrs returns the mark's attribute set for direct read/write.
func (s *Store) Attrs(h Handle) *attr.Set {
	r, ok := s.marks.Get(h)
	if !ok {
		return &attr.Set{}
	}
	return &r.attrs
}

// Owner returns the mark's owning pane (opaque to this package).
func (s *Store) Owner(h Handle) any {
	r, ok := s.marks.Get(h)
	if !ok {
		return nil
	}
	return r.owner
}

// SetOwner records the mark's owning pane.
func (s *Store) SetOwner(h Handle, owner any) {
	if r, ok := s.marks.Get(h); ok {
		r.owner = owner
	}
}

// RPos returns the mark's opaque renderer-only passthrough field
// (spec §9 open question: "the core never reads it; carried for
// external consumers").
func (s *Store) RPos(h Handle) int64 {
	r, ok := s.marks.Get(h)
	if !ok {
		return 0
	}
	return r.rpos
}

// SetRPos sets the renderer passthrough field.
func (s *Store) SetRPos(h Handle, rpos int64) {
	if r, ok := s.marks.Get(h); ok {
		r.rpos = rpos
	}
}

// MData returns the mark's opaque per-mark data payload.
func (s *Store) MData(h Handle) any {
	r, ok := s.marks.Get(h)
	if !ok {
		return nil
	}
	return r.mdata
}

// SetMData sets the mark's opaque per-mark data payload.
func (s *Store) SetMData(h Handle, data any) {
	if r, ok := s.marks.Get(h); ok {
		r.mdata = data
	}
}

// SetRefcnt installs the callback invoked whenever this mark's ref is
// duplicated (delta=+1) or overwritten/freed (delta=-1) — used by a
// document (such as multipart, §4.6) that shares an opaque
// sub-reference across several of its own marks.
func (s *Store) SetRefcnt(h Handle, cb func(delta int)) {
	if r, ok := s.marks.Get(h); ok {
		r.refcnt = cb
	}
}

func (s *Store) bumpRefcnt(h Handle, delta int) {
	if r, ok := s.marks.Get(h); ok && r.refcnt != nil {
		r.refcnt(delta)
	}
}

// Dup clones m's position as a brand-new, Ungrouped mark (spec §4.3:
// "new mark becomes UNGROUPED unless explicitly viewed"). If the
// caller wants the dup to join a view, call SetView afterward.
func (s *Store) Dup(h Handle) Handle {
	r, ok := s.marks.Get(h)
	if !ok {
		return Nil
	}
	i := s.indexOf(h)
	dup := &record{ref: r.ref, seq: r.seq, view: Ungrouped, rpos: r.rpos}
	nh := s.marks.New(dup)
	s.chain = append(s.chain, Nil)
	copy(s.chain[i+2:], s.chain[i+1:])
	s.chain[i+1] = nh
	s.bumpRefcnt(h, 1)
	s.SetRefcnt(nh, r.refcnt)
	return nh
}

// SetView changes a (non-point) mark's view membership.
func (s *Store) SetView(h Handle, view int) {
	if r, ok := s.marks.Get(h); ok {
		r.view = view
	}
}

// Same reports whether a and b are the document's own notion of the
// same position, given the document's equality test over DocRef.
func Same(a, b DocRef, equal func(a, b DocRef) bool) bool { return equal(a, b) }

// Ordered reports whether a precedes b in seq order (spec §4.3).
func (s *Store) Ordered(a, b Handle) bool { return s.seqOf(a) < s.seqOf(b) }

// Place re-links m at a new ref, positioned between prev and next in
// chain order (spec §4.3 to_mark: "set m.ref = target.ref and re-link
// m at the correct seq position"). Like New, the caller must already
// know the correct neighbors.
func (s *Store) Place(h Handle, ref DocRef, prev, next Handle) {
	r, ok := s.marks.Get(h)
	if !ok {
		return
	}
	s.unlinkChain(h)
	prevSeq, nextSeq := s.bounds(prev, next)
	r.ref = ref
	r.seq = s.allocSeq(prevSeq, nextSeq, prev, next)
	s.linkChain(h, r.seq)
}

// Step is the pre-step hook of spec §4.3: if another mark shares m's
// exact ref (per the document's equal test), swap seq values with
// that neighbour so m "overtakes" its equal-position peers in the
// stepping direction. The actual ref advance is the document's job;
// Step only fixes up ordering among marks already at the same
// position before that advance happens.
func (s *Store) Step(h Handle, forward bool, equal func(a, b DocRef) bool) {
	r, ok := s.marks.Get(h)
	if !ok {
		return
	}
	i := s.indexOf(h)
	var j int
	if forward {
		j = i + 1
	} else {
		j = i - 1
	}
	if j < 0 || j >= len(s.chain) {
		return
	}
	neighbor := s.chain[j]
	nr, _ := s.marks.Get(neighbor)
	if nr == nil || !equal(r.ref, nr.ref) {
		return
	}
	r.seq, nr.seq = nr.seq, r.seq
	s.chain[i], s.chain[j] = s.chain[j], s.chain[i]
}

// Free scrubs m's attributes (to the all-set pattern a debug dump
// recognizes as "this mark was just freed", kept for parity with the
// teacher's poisoned-memory convention) and unlinks it from the
// chain. Validity after Free must be checked with Valid, never by
// re-inspecting the scrubbed attributes (spec §9 open question).
func (s *Store) Free(h Handle) {
	r, ok := s.marks.Get(h)
	if !ok {
		return
	}
	s.bumpRefcnt(h, -1)
	r.attrs = attr.Set{}
	r.attrs.Set("~freed~", "~0~")
	s.unlinkChain(h)
	s.marks.Free(h)
}

// Valid reports whether h still addresses a live mark in s. This
// replaces the poisoned-memory `mark_valid` of spec §9's open
// question with an explicit arena-generation check.
func (s *Store) Valid(h Handle) bool { return s.marks.Valid(h) }

// First returns the first mark in the global chain, or Nil if empty.
func (s *Store) First() Handle {
	if len(s.chain) == 0 {
		return Nil
	}
	return s.chain[0]
}

// Last returns the last mark in the global chain, or Nil if empty.
func (s *Store) Last() Handle {
	if len(s.chain) == 0 {
		return Nil
	}
	return s.chain[len(s.chain)-1]
}

// Next returns the mark immediately after h in the global chain, or
// Nil if h is last.
func (s *Store) Next(h Handle) Handle {
	i := s.indexOf(h)
	if i < 0 || i+1 >= len(s.chain) {
		return Nil
	}
	return s.chain[i+1]
}

// Prev returns the mark immediately before h in the global chain, or
// Nil if h is first.
func (s *Store) Prev(h Handle) Handle {
	i := s.indexOf(h)
	if i <= 0 {
		return Nil
	}
	return s.chain[i-1]
}

// Len returns the number of live marks (including points) in the
// store.
func (s *Store) Len() int { return len(s.chain) }

// Validate confirms that walking the chain from a reaches b and that
// a.seq <= b.seq, the debug check of spec §4.3's marks_validate.
func (s *Store) Validate(a, b Handle) bool {
	if s.seqOf(a) > s.seqOf(b) {
		return false
	}
	for h := a; h != Nil; h = s.Next(h) {
		if h == b {
			return true
		}
	}
	return false
}

// AddView allocates a new view slot and returns its index. Every
// existing point becomes (conceptually) a member of the new view
// immediately, since points belong to every active view (spec §4.3
// "Points and view resizing").
func (s *Store) AddView() int {
	s.viewActive = append(s.viewActive, true)
	s.nViews++
	return len(s.viewActive) - 1
}

// DelView releases view. Marks that belonged to it become Ungrouped;
// points simply stop being considered members of it.
func (s *Store) DelView(view int) {
	if view < 0 || view >= len(s.viewActive) {
		return
	}
	s.viewActive[view] = false
	s.marks.Each(func(h Handle, r *record) {
		if r.view == view {
			r.view = Ungrouped
		}
	})
}

// NViews returns the number of view slots ever allocated (including
// released ones, which keep their index reserved).
func (s *Store) NViews() int { return len(s.viewActive) }

// ViewMembers returns, in chain order, every mark belonging to view
// (either bound to it directly, or a point, while the view is
// active).
func (s *Store) ViewMembers(view int) []Handle {
	if view < 0 || view >= len(s.viewActive) || !s.viewActive[view] {
		return nil
	}
	var out []Handle
	for _, h := range s.chain {
		r, _ := s.marks.Get(h)
		if r.view == view || r.isPoint {
			out = append(out, h)
		}
	}
	return out
}

// NearestInView returns the nearest mark belonging to view that is
// strictly before (forward=false) or after (forward=true) from in the
// chain, or Nil if there is none. from itself need not be a member of
// view (e.g. a point looking for the nearest view-3 mark around it).
func (s *Store) NearestInView(from Handle, view int, forward bool) Handle {
	i := s.indexOf(from)
	if i < 0 {
		return Nil
	}
	if forward {
		for j := i + 1; j < len(s.chain); j++ {
			if s.memberOf(s.chain[j], view) {
				return s.chain[j]
			}
		}
		return Nil
	}
	for j := i - 1; j >= 0; j-- {
		if s.memberOf(s.chain[j], view) {
			return s.chain[j]
		}
	}
	return Nil
}

func (s *Store) memberOf(h Handle, view int) bool {
	r, ok := s.marks.Get(h)
	if !ok {
		return false
	}
	return r.view == view || r.isPoint
}
