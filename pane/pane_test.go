// Copyright © 2016, The T Authors.

package pane

import (
	"testing"

	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/notify"
)

func newRoot() *Pane {
	root := Register(nil, 0, nil)
	root.SetBus(notify.New())
	return root
}

func TestRegisterLinksIntoParent(t *testing.T) {
	root := newRoot()
	child := Register(root, 0, nil)
	if child.Parent() != root {
		t.Fatal("child's parent is not root")
	}
	if len(root.Children()) != 1 || root.Children()[0] != child {
		t.Fatal("root's children does not contain child")
	}
	if !child.HasDamage(DamageSize | DamageRefresh) {
		t.Fatal("newly registered pane should be damaged SIZE|REFRESH")
	}
}

func TestReparentRefusesCycle(t *testing.T) {
	root := newRoot()
	child := Register(root, 0, nil)
	grandchild := Register(child, 0, nil)
	if err := Reparent(root, grandchild); err == nil {
		t.Fatal("expected Reparent to refuse creating a cycle")
	}
	if err := Reparent(child, child); err == nil {
		t.Fatal("expected Reparent(p, p) to be refused")
	}
}

func TestReparentMovesChild(t *testing.T) {
	root := newRoot()
	a := Register(root, 0, nil)
	b := Register(root, 0, nil)
	if err := Reparent(b, a); err != nil {
		t.Fatalf("Reparent failed: %v", err)
	}
	if b.Parent() != a {
		t.Fatal("b's parent should now be a")
	}
	for _, c := range root.Children() {
		if c == b {
			t.Fatal("b should no longer be a direct child of root")
		}
	}
}

func TestMoveAfterToHead(t *testing.T) {
	root := newRoot()
	a := Register(root, 0, nil)
	b := Register(root, 0, nil)
	MoveAfter(b, nil)
	if root.Children()[0] != b {
		t.Fatalf("MoveAfter(b, nil) should move b to head, got %v", root.Children())
	}
	_ = a
}

func TestCloseRecursesAndNotifies(t *testing.T) {
	root := newRoot()
	parent := Register(root, 0, nil)
	var childClosed, parentClosed bool
	child := Register(parent, 0, func(ci *command.Info) (int, error) {
		if ci.Key == "Close" {
			childClosed = true
		}
		return 1, nil
	})
	parent.SetHandler(func(ci *command.Info) (int, error) {
		if ci.Key == "Close" {
			parentClosed = true
		}
		return 1, nil
	})
	var notified bool
	AddNotify(parent, root, "Notify:Close")
	root.SetHandler(func(ci *command.Info) (int, error) {
		if ci.Key == "Notify:Close" {
			notified = true
		}
		return 1, nil
	})

	Close(parent, nil)

	if !childClosed {
		t.Error("child's handler never saw Close")
	}
	if !parentClosed {
		t.Error("parent's own handler never saw Close")
	}
	if !notified {
		t.Error("Notify:Close was not delivered to the subscriber")
	}
	if !parent.IsDead() {
		t.Error("parent should be dead after Close")
	}
	if parent.Parent() != nil {
		t.Error("parent should be detached from the tree after Close")
	}
	_ = child
}

func TestDispatchFallthrough(t *testing.T) {
	// Scenario E (spec §8): C's handler returns 0 for "foo:bar"; C's
	// parent's handler returns 1. Dispatch from C invokes parent
	// exactly once.
	root := newRoot()
	var parentInvocations int
	root.SetHandler(func(ci *command.Info) (int, error) {
		parentInvocations++
		return 1, nil
	})
	c := Register(root, 0, func(ci *command.Info) (int, error) { return 0, nil })

	ret, err := Dispatch(&command.Info{Key: "foo:bar", Focus: c})
	if err != nil || ret != 1 {
		t.Fatalf("Dispatch = %d, %v; want 1, nil", ret, err)
	}
	if parentInvocations != 1 {
		t.Fatalf("parent invoked %d times, want 1", parentInvocations)
	}
}

func TestDispatchBothFallthroughReturnsZero(t *testing.T) {
	root := newRoot()
	root.SetHandler(func(ci *command.Info) (int, error) { return 0, nil })
	c := Register(root, 0, func(ci *command.Info) (int, error) { return 0, nil })

	ret, err := Dispatch(&command.Info{Key: "foo:bar", Focus: c})
	if err != nil || ret != 0 {
		t.Fatalf("Dispatch = %d, %v; want 0, nil", ret, err)
	}
}

func TestSetFocusWalksToRoot(t *testing.T) {
	root := newRoot()
	mid := Register(root, 0, nil)
	leaf := Register(mid, 0, nil)

	SetFocus(leaf)
	if root.Focus() != mid {
		t.Fatal("root's focus should be mid")
	}
	if mid.Focus() != leaf {
		t.Fatal("mid's focus should be leaf")
	}
}

func TestDamagePropagatesSizeChildUpward(t *testing.T) {
	root := newRoot()
	ClearDamage(root, DamageSize|DamageSizeChild|DamageRefresh|DamageChild)
	mid := Register(root, 0, nil)
	ClearDamage(mid, DamageSize|DamageSizeChild|DamageRefresh|DamageChild)
	leaf := Register(mid, 0, nil)
	ClearDamage(leaf, DamageRefresh|DamageChild)

	SetDamage(leaf, DamageSize)
	if !mid.HasDamage(DamageSizeChild) {
		t.Fatal("SIZE should propagate SIZE_CHILD to the parent")
	}
	if !root.HasDamage(DamageSizeChild) {
		t.Fatal("SIZE_CHILD should keep propagating to the grandparent")
	}
}

func TestSubsumeAdoptsChildrenAndData(t *testing.T) {
	root := newRoot()
	outer := Register(root, 0, nil)
	inner := Register(outer, 0, nil)
	leaf := Register(inner, 0, nil)
	inner.Data = "payload"

	Subsume(inner, outer)

	if leaf.Parent() != outer {
		t.Fatal("leaf should have been adopted by outer")
	}
	if outer.Data != "payload" {
		t.Fatal("outer should have adopted inner's private data")
	}
	found := false
	for _, c := range outer.Children() {
		if c == inner {
			found = true
		}
	}
	if found {
		t.Fatal("inner should no longer be a child of outer after being subsumed")
	}
}
