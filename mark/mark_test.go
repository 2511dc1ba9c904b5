// Copyright © 2016, The T Authors.

package mark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intRefsEqual treats a DocRef as a plain int offset, the simplest
// possible document ref, for exercising the Store independent of any
// concrete document.
func intRefsEqual(a, b DocRef) bool { return a.(int) == b.(int) }

func TestNewAndChainOrder(t *testing.T) {
	s := NewStore()
	a := s.New(0, Ungrouped, Nil, Nil)
	b := s.New(10, Ungrouped, a, Nil)
	c := s.New(20, Ungrouped, b, Nil)

	require.True(t, s.Ordered(a, b))
	require.True(t, s.Ordered(b, c))
	assert.Equal(t, a, s.First())
	assert.Equal(t, c, s.Last())
	assert.Equal(t, b, s.Next(a))
	assert.Equal(t, b, s.Prev(c))
}

// Scenario A (spec §8): create a document, add marks producing seqs
// [0, 128, 256]. Insert 10 marks at position 0. Verify no pair of
// seqs is equal and the chain order matches document order.
func TestScenarioASparseSeqRenumber(t *testing.T) {
	s := NewStore()
	m0 := s.New(0, Ungrouped, Nil, Nil)
	m1 := s.New(1, Ungrouped, m0, Nil)
	m2 := s.New(2, Ungrouped, m1, Nil)
	require.Equal(t, int64(0), s.Seq(m0))
	require.Equal(t, int64(128), s.Seq(m1))
	require.Equal(t, int64(256), s.Seq(m2))

	var inserted []Handle
	prev := Handle{}
	_ = prev
	// Insert 10 marks "at position 0", i.e. each new mark goes
	// immediately before m0 (between the start-of-chain and m0).
	before := Nil
	for i := 0; i < 10; i++ {
		h := s.New(0, Ungrouped, before, m0)
		inserted = append(inserted, h)
		before = h
	}

	seqs := map[int64]bool{}
	for h := s.First(); h != Nil; h = s.Next(h) {
		seq := s.Seq(h)
		require.Falsef(t, seqs[seq], "duplicate seq %d", seq)
		seqs[seq] = true
	}

	// Chain order must match insertion/document order: all 10 new
	// marks precede m0, in the order they were chained.
	h := s.First()
	for i := 0; i < 10; i++ {
		assert.Equal(t, inserted[i], h, "position %d", i)
		h = s.Next(h)
	}
	assert.Equal(t, m0, h)
}

func TestDupIsDistinctButMarkSame(t *testing.T) {
	s := NewStore()
	a := s.New(5, Ungrouped, Nil, Nil)
	b := s.Dup(a)
	if a == b {
		t.Fatal("Dup returned the same handle")
	}
	if !intRefsEqual(s.Ref(a), s.Ref(b)) {
		t.Fatal("dup should share the same ref")
	}
	if s.View(b) != Ungrouped {
		t.Fatal("a dup without an explicit view should be Ungrouped")
	}
}

func TestStepSwapsEqualPositionNeighbors(t *testing.T) {
	s := NewStore()
	a := s.New(5, 0, Nil, Nil)
	b := s.New(5, Point, a, Nil) // same ref, different mark

	seqA, seqB := s.Seq(a), s.Seq(b)
	s.Step(b, false, intRefsEqual)
	// After stepping b backward past an equal-position neighbor a, b
	// should now sort before a (it "overtook" it).
	assert.Equal(t, seqA, s.Seq(b))
	assert.Equal(t, seqB, s.Seq(a))
}

func TestFreeAndValid(t *testing.T) {
	s := NewStore()
	a := s.New(1, Ungrouped, Nil, Nil)
	if !s.Valid(a) {
		t.Fatal("freshly created mark should be valid")
	}
	s.Free(a)
	if s.Valid(a) {
		t.Fatal("mark should be invalid after Free")
	}
}

func TestViewsAndPointsMembership(t *testing.T) {
	// Invariant 2 (spec §8): for every point with V active views, it
	// appears exactly once in the global chain and exactly once in
	// each view's sub-list.
	s := NewStore()
	v0 := s.AddView()
	v1 := s.AddView()

	a := s.New(0, v0, Nil, Nil)
	p := s.NewPoint(1, a, Nil)
	b := s.New(2, v1, p, Nil)

	members0 := s.ViewMembers(v0)
	members1 := s.ViewMembers(v1)

	assertContainsOnce(t, members0, a)
	assertContainsOnce(t, members0, p)
	assertContainsOnce(t, members1, b)
	assertContainsOnce(t, members1, p)

	for _, h := range members0 {
		if h == b {
			t.Fatal("view 0 should not contain a mark bound to view 1")
		}
	}
}

func assertContainsOnce(t *testing.T, list []Handle, h Handle) {
	t.Helper()
	n := 0
	for _, x := range list {
		if x == h {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected %v exactly once in %v, found %d", h, list, n)
	}
}

func TestAddViewExtendsExistingPoints(t *testing.T) {
	s := NewStore()
	v0 := s.AddView()
	p := s.NewPoint(0, Nil, Nil)
	s.SetView(Nil, v0) // no-op on Nil, just exercising the API surface
	v1 := s.AddView()

	members := s.ViewMembers(v1)
	assertContainsOnce(t, members, p)
}

func TestNearestInView(t *testing.T) {
	s := NewStore()
	v0 := s.AddView()
	a := s.New(0, v0, Nil, Nil)
	mid := s.New(5, Ungrouped, a, Nil)
	b := s.New(10, v0, mid, Nil)

	if got := s.NearestInView(mid, v0, true); got != b {
		t.Fatalf("NearestInView forward = %v, want %v", got, b)
	}
	if got := s.NearestInView(mid, v0, false); got != a {
		t.Fatalf("NearestInView backward = %v, want %v", got, a)
	}
}

func TestValidateChainReachability(t *testing.T) {
	s := NewStore()
	a := s.New(0, Ungrouped, Nil, Nil)
	b := s.New(1, Ungrouped, a, Nil)
	c := s.New(2, Ungrouped, b, Nil)

	if !s.Validate(a, c) {
		t.Fatal("a should reach c")
	}
	if s.Validate(c, a) {
		t.Fatal("c should not reach a (seq out of order)")
	}
}
