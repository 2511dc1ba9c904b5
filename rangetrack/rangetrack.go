// Copyright © 2016, The T Authors.

// Package rangetrack implements the range-track auxiliary service of
// spec §4.9: a secondary service attached on demand to a document,
// keeping named sets of validated, non-overlapping ranges — the
// building block a spell-checker or syntax highlighter uses to
// remember "I have already checked/highlighted these stretches of
// text" and to find what still needs (re)checking after an edit.
package rangetrack

import (
	"sort"

	"github.com/gopane/edlib/doc"
	"github.com/gopane/edlib/pane"
)

// A Range is a half-open [Start, End) span of one document.
type Range struct {
	Start, End doc.Ref
}

// A Tracker owns every named Set attached to one document.
type Tracker struct {
	doc  *doc.Base
	sets map[string]*Set
}

// New attaches a Tracker to d.
func New(d *doc.Base) *Tracker {
	return &Tracker{doc: d, sets: map[string]*Set{}}
}

// Set returns the named set, creating it (with its own view slot on
// the document) on first use.
func (t *Tracker) Set(name string) *Set {
	if s, ok := t.sets[name]; ok {
		return s
	}
	s := &Set{name: name, doc: t.doc, view: t.doc.AddView(nil)}
	t.sets[name] = s
	return s
}

// A Set is one named, non-overlapping collection of validated ranges,
// backed by alternating start/end marks in its own view sub-list: a
// start mark carries the "start"="yes" attribute, distinguishing it
// from the end mark that follows it in chain order (spec §4.9).
type Set struct {
	name string
	doc  *doc.Base
	view int
}

func (s *Set) backend() doc.Doc { return s.doc.Backend() }

// intervals returns every (start,end) pair currently recorded,
// in document order, derived by pairing up this set's view sub-list
// two marks at a time.
func (s *Set) intervals() []Range {
	members := s.doc.Store.ViewMembers(s.view)
	var out []Range
	for i := 0; i+1 < len(members); i += 2 {
		out = append(out, Range{
			Start: s.doc.Store.Ref(members[i]),
			End:   s.doc.Store.Ref(members[i+1]),
		})
	}
	return out
}

// rebuild discards every boundary mark and replaces this set's
// contents with ranges, which must already be sorted and
// non-overlapping.
func (s *Set) rebuild(ranges []Range) {
	for _, h := range s.doc.Store.ViewMembers(s.view) {
		s.doc.Store.Free(h)
	}
	for _, r := range ranges {
		start := s.doc.NewMark(r.Start)
		s.doc.Store.Attrs(start).Set("start", "yes")
		s.doc.Store.SetView(start, s.view)
		end := s.doc.NewMark(r.End)
		s.doc.Store.SetView(end, s.view)
	}
}

func (s *Set) less(a, b doc.Ref) bool { return s.backend().Less(a, b) }

// merge sorts and coalesces overlapping or touching ranges.
func merge(ranges []Range, less func(a, b doc.Ref) bool) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return less(ranges[i].Start, ranges[j].Start) })
	out := []Range{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if !less(last.End, r.Start) { // touching or overlapping
			if less(last.End, r.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Add records r as validated, merging it with any existing range it
// touches or overlaps (spec §4.9: "adding... merges... intervals").
func (s *Set) Add(r Range) {
	ranges := append(s.intervals(), r)
	s.rebuild(merge(ranges, s.less))
}

// Clear invalidates r, splitting any existing interval that only
// partially overlaps it, and broadcasts
// "rangetrack:recheck-<name>" afterward (spec §4.9).
func (s *Set) Clear(r Range) {
	var out []Range
	for _, cur := range s.intervals() {
		out = append(out, subtract(cur, r, s.less)...)
	}
	s.rebuild(merge(out, s.less))
	pane.Notify(s.doc.Pane, "rangetrack:recheck-"+s.name, r)
}

// subtract removes the part of cur that overlaps r, returning zero,
// one, or two remaining sub-ranges of cur.
func subtract(cur, r Range, less func(a, b doc.Ref) bool) []Range {
	if !less(cur.Start, r.End) || !less(r.Start, cur.End) {
		return []Range{cur} // disjoint
	}
	var out []Range
	if less(cur.Start, r.Start) {
		out = append(out, Range{Start: cur.Start, End: r.Start})
	}
	if less(r.End, cur.End) {
		out = append(out, Range{Start: r.End, End: cur.End})
	}
	return out
}

// Choose returns the first sub-range of r not currently marked valid,
// and whether one was found (spec §4.9: "return the first sub-range
// not currently marked valid"). If r is entirely covered by existing
// validated ranges, ok is false.
func (s *Set) Choose(r Range) (gap Range, ok bool) {
	cursor := r.Start
	for _, cur := range merge(s.intervals(), s.less) {
		if !s.less(cur.Start, r.End) {
			break // this interval starts at/after r ends; nothing more to check
		}
		if s.less(cursor, cur.Start) {
			end := cur.Start
			if s.less(r.End, end) {
				end = r.End
			}
			return Range{Start: cursor, End: end}, true
		}
		if s.less(cursor, cur.End) {
			cursor = cur.End
		}
	}
	if s.less(cursor, r.End) {
		return Range{Start: cursor, End: r.End}, true
	}
	return Range{}, false
}
