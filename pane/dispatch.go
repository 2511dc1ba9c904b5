// Copyright © 2016, The T Authors.

package pane

import "github.com/gopane/edlib/command"

// Dispatch computes which pane handles ci by walking the focus chain
// from ci.Focus toward the root, exactly as spec §4.2 describes:
//
//  1. Let p = ci.Focus.
//  2. Set ci.Home = p and invoke p.handler(ci).
//  3. If the return is 0 (fall through), move p := p.parent; if nil,
//     dispatch ends with (0, nil).
//  4. Otherwise repeat from 2.
//
// Soft errors (Efalse, Eunused) and hard errors both end the walk
// immediately, same as any other nonzero-equivalent result; only a
// literal 0 return with a nil error continues it.
func Dispatch(ci *command.Info) (int, error) {
	p, ok := ci.Focus.(*Pane)
	if !ok || p == nil {
		return 0, nil
	}
	for p != nil {
		ci.Home = p
		ret, err := p.Handle(ci)
		if ret != 0 || err != nil {
			return ret, err
		}
		p = p.Parent()
	}
	return 0, nil
}

// DispatchHome is the "home" targeting mode (spec §4.2): it fixes
// ci.Home to an explicit pane for the duration of a single
// invocation, without walking the chain, then restores whatever
// ci.Home held before (dispatch proper always overwrites Home itself,
// so this is for a handler that wants to temporarily impersonate
// another pane while still going through that pane's own handler).
func DispatchHome(home *Pane, ci *command.Info) (int, error) {
	prev := ci.Home
	ci.Home = home
	defer func() { ci.Home = prev }()
	return home.Handle(ci)
}

// DispatchPane targets exactly one pane's handler, with no chain walk
// at all: ci.Home is set to p and p.Handle is invoked once.
func DispatchPane(p *Pane, ci *command.Info) (int, error) {
	ci.Home = p
	return p.Handle(ci)
}

// DispatchComm invokes a single command capability directly, bypassing
// the pane tree entirely (spec §4.2's fourth targeting mode).
func DispatchComm(c *command.Command, ci *command.Info) (int, error) {
	return c.Invoke(ci)
}

// WalkPostOrder visits every pane in p's subtree post-order (children
// before parent), the order Close uses to tear down a subtree and the
// order a renderer uses to composite z-layers bottom-up.
func WalkPostOrder(p *Pane, visit func(*Pane)) {
	for _, c := range p.children {
		WalkPostOrder(c, visit)
	}
	visit(p)
}

// WalkPreOrder visits every pane in p's subtree pre-order (parent
// before children), the natural order for projecting absolute
// geometry top-down.
func WalkPreOrder(p *Pane, visit func(*Pane)) {
	visit(p)
	for _, c := range p.children {
		WalkPreOrder(c, visit)
	}
}
