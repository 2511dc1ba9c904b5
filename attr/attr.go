// Copyright © 2016, The T Authors.

// Package attr implements the attribute set of spec §4.5: an ordered,
// keyed string-to-string map attached to panes and marks, with an
// optional numeric suffix on the key for sparse enumeration (used to
// snapshot the attributes active at a given textual offset).
package attr

import (
	"sort"
	"strconv"
	"strings"
)

// A pair is one stored (key, value) entry, kept sorted by key.
type pair struct {
	key, val string
}

// A Set is a sorted sequence of (key, value) pairs. The zero Set is
// empty and ready to use.
type Set struct {
	pairs []pair
}

// Get returns the value bound to key and whether it is present.
func (s *Set) Get(key string) (string, bool) {
	i := s.search(key)
	if i < len(s.pairs) && s.pairs[i].key == key {
		return s.pairs[i].val, true
	}
	return "", false
}

// GetDefault returns the value bound to key, or def if key is absent
// (spec §7: "Missing attributes return a caller-supplied default").
func (s *Set) GetDefault(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set stores value under key, replacing any previous value.
func (s *Set) Set(key, value string) {
	i := s.search(key)
	if i < len(s.pairs) && s.pairs[i].key == key {
		s.pairs[i].val = value
		return
	}
	s.pairs = append(s.pairs, pair{})
	copy(s.pairs[i+1:], s.pairs[i:])
	s.pairs[i] = pair{key: key, val: value}
}

// Delete removes key. It reports whether a value was removed.
func (s *Set) Delete(key string) bool {
	i := s.search(key)
	if i >= len(s.pairs) || s.pairs[i].key != key {
		return false
	}
	s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
	return true
}

// DeleteRange removes every key in [first, last). It reports the
// number of entries removed.
func (s *Set) DeleteRange(first, last string) int {
	i := s.search(first)
	j := i
	for j < len(s.pairs) && s.pairs[j].key < last {
		j++
	}
	n := j - i
	if n > 0 {
		s.pairs = append(s.pairs[:i], s.pairs[j:]...)
	}
	return n
}

// Trim drops every entry from index n onward (by current sorted
// order), e.g. to discard the attributes installed after a known
// checkpoint.
func (s *Set) Trim(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.pairs) {
		s.pairs = s.pairs[:n]
	}
}

// CopyTail returns a new Set sharing nothing with s, containing the
// entries from index n onward.
func (s *Set) CopyTail(n int) *Set {
	if n < 0 {
		n = 0
	}
	if n > len(s.pairs) {
		n = len(s.pairs)
	}
	out := &Set{pairs: make([]pair, len(s.pairs)-n)}
	copy(out.pairs, s.pairs[n:])
	return out
}

// Len returns the number of stored entries.
func (s *Set) Len() int { return len(s.pairs) }

// GetNextKey iterates in sorted order past key, returning the next
// key/value pair whose numeric suffix is keynum (or the next key of
// any form, suffixed or not, if keynum < 0), mirroring the C API's get-next-by-key operation.
func (s *Set) GetNextKey(key string, keynum int) (nextKey, value string, ok bool) {
	i := s.search(key)
	if i < len(s.pairs) && s.pairs[i].key == key {
		i++
	}
	for ; i < len(s.pairs); i++ {
		if keynum < 0 {
			return s.pairs[i].key, s.pairs[i].val, true
		}
		if _, n, hasN := splitSuffix(s.pairs[i].key); hasN && n == keynum {
			return s.pairs[i].key, s.pairs[i].val, true
		}
	}
	return "", "", false
}

// Collect returns a snapshot of every attribute whose key carries the
// numeric suffix pos (i.e. keys of the form "base:123"), as a fresh
// Set keyed by the base (prefix stripped), the way attach-numbered-prefix
// snapshots the attributes valid at a given textual offset (spec §4.5).
func Collect(s *Set, pos int, stripPrefix string) *Set {
	out := &Set{}
	for _, p := range s.pairs {
		base, n, ok := splitSuffix(p.key)
		if !ok || n != pos {
			continue
		}
		key := base
		if stripPrefix != "" && strings.HasPrefix(key, stripPrefix) {
			key = key[len(stripPrefix):]
		}
		out.Set(key, p.val)
	}
	return out
}

// AttachSuffix builds a key of the form "base:n", the numbered-prefix
// form Collect reverses.
func AttachSuffix(base string, n int) string {
	return base + ":" + strconv.Itoa(n)
}

// splitSuffix splits a key of the form "base:n" into base and n.
func splitSuffix(key string) (base string, n int, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, false
	}
	return key[:i], v, true
}

func (s *Set) search(key string) int {
	return sort.Search(len(s.pairs), func(i int) bool { return s.pairs[i].key >= key })
}
