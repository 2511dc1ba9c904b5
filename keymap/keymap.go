// Copyright © 2016, The T Authors.

// Package keymap implements Map, the keyed dispatch table of spec
// §3/§4.2: an ordered associative structure from key strings to
// Commands, supporting exact bindings, half-open range bindings, and
// chain links to another Map.
package keymap

import (
	"sort"

	"github.com/gopane/edlib/command"
)

// entryKind distinguishes the three shapes a binding may take.
type entryKind int

const (
	kindExact entryKind = iota
	kindRange
	kindChain
)

type entry struct {
	kind entryKind
	// first is the sort key for all kinds: the exact key, or the
	// range's lower (inclusive) bound. Chain entries use the empty
	// string, so they sort first; Lookup consults them only after
	// every exact and range entry has missed.
	first string
	// last is the range's upper (exclusive) bound; unused otherwise.
	last string
	cmd  *command.Command
	// chain is the linked Map for kindChain entries.
	chain *Map
}

// A Map is an ordered, sorted-by-key table of bindings. The zero Map
// is empty and ready to use.
type Map struct {
	entries []entry
}

// New returns an empty Map.
func New() *Map { return &Map{} }

// Set binds the exact key to cmd, replacing any previous exact
// binding for that key.
func (m *Map) Set(key string, cmd *command.Command) {
	for i := range m.entries {
		if m.entries[i].kind == kindExact && m.entries[i].first == key {
			m.entries[i].cmd = cmd
			return
		}
	}
	m.insert(entry{kind: kindExact, first: key, cmd: cmd})
}

// SetRange binds every key in the half-open range [first, last) to
// cmd. A prefix command is the common case: SetRange(p, p+"\xff\xff\xff\xff", cmd)
// binds every key that starts with p (spec §4.2).
func (m *Map) SetRange(first, last string, cmd *command.Command) {
	m.insert(entry{kind: kindRange, first: first, last: last, cmd: cmd})
}

// SetPrefix is the common range-binding shape: it binds every key
// that has prefix as a strict or non-strict string prefix.
func (m *Map) SetPrefix(prefix string, cmd *command.Command) {
	m.SetRange(prefix, prefix+"\xff\xff\xff\xff", cmd)
}

// Chain adds other as a fallback map: a lookup that misses in m is
// retried in other.
func (m *Map) Chain(other *Map) {
	m.insert(entry{kind: kindChain, first: "", chain: other})
}

func (m *Map) insert(e entry) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].first >= e.first })
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e
}

// Lookup returns the command bound to key, trying (in order) an exact
// match, the most specific containing range, and finally any chained
// maps, depth-first in chain order. ok is false if nothing matches.
func (m *Map) Lookup(key string) (cmd *command.Command, ok bool) {
	var best *entry
	for i := range m.entries {
		e := &m.entries[i]
		switch e.kind {
		case kindExact:
			if e.first == key {
				// An exact match is always most specific.
				return e.cmd, true
			}
		case kindRange:
			if key >= e.first && key < e.last {
				if best == nil || moreSpecific(e, best) {
					best = e
				}
			}
		}
	}
	if best != nil {
		return best.cmd, true
	}
	for i := range m.entries {
		if m.entries[i].kind == kindChain {
			if cmd, ok := m.entries[i].chain.Lookup(key); ok {
				return cmd, true
			}
		}
	}
	return nil, false
}

// moreSpecific reports whether a's range is a subrange of (hence more
// specific than) b's.
func moreSpecific(a, b *entry) bool {
	return a.first >= b.first && a.last <= b.last && (a.first != b.first || a.last != b.last)
}

// LookupPrefix reports whether any bound key (exact or the start of
// any range) is a strict extension of prefix, i.e. whether a
// multi-stroke key sequence beginning with prefix is still in
// progress (spec §4.2).
func (m *Map) LookupPrefix(prefix string) bool {
	for i := range m.entries {
		e := &m.entries[i]
		switch e.kind {
		case kindExact:
			if len(e.first) > len(prefix) && hasPrefix(e.first, prefix) {
				return true
			}
		case kindRange:
			if len(e.first) > len(prefix) && hasPrefix(e.first, prefix) {
				return true
			}
			// A range whose bounds straddle prefix also counts: some
			// key starting with prefix falls inside [first, last).
			if e.first <= prefix && prefix < e.last && prefix+"\xff" < e.last {
				return true
			}
		case kindChain:
			if e.chain.LookupPrefix(prefix) {
				return true
			}
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
