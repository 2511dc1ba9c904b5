// Copyright © 2016, The T Authors.

// Package pane implements the pane tree of spec §3/§4.1: the node
// type that is also the dispatch graph for the dynamically typed
// command/event system every editor feature plugs into.
package pane

import (
	"github.com/google/uuid"

	"github.com/gopane/edlib/attr"
	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/notify"
)

// A Handler is a pane's primary command: the function invoked for
// every command.Info whose Home is this pane. Returning 0 means "I do
// not handle this key; the dispatcher should try the next candidate"
// (spec §4.1).
type Handler func(ci *command.Info) (int, error)

// A Pane is one node of the tree. Every pane owns private data
// (Data), an attribute set, a handler capability, child/sibling
// links, a z-ordered geometry, and two notifier-edge lists threaded
// through the owning instance's shared Bus.
type Pane struct {
	// Name defaults to a random uuid (SPEC_FULL "domain stack");
	// callers that care about a stable identity (e.g. a document's
	// doc-name) should set it explicitly via Attrs.
	Name string

	parent   *Pane
	children []*Pane
	focus    *Pane

	x, y, w, h, z int
	cx, cy        int // cursor hint

	damage  Damage
	handler Handler
	Data    any
	Attrs   attr.Set

	bus *notify.Bus

	closed bool
	dead   bool
}

// Register allocates a new pane, links it under parent as the last
// child (or as a root if parent is nil), sets its handler and
// z-order, and marks it damaged SIZE|REFRESH (spec §4.1). A root pane
// must be created with Register(nil, ...) exactly once per instance
// and is given the instance's shared notifier Bus via SetBus.
func Register(parent *Pane, z int, h Handler) *Pane {
	p := &Pane{
		Name:    uuid.NewString(),
		parent:  parent,
		z:       z,
		handler: h,
	}
	if parent != nil {
		p.bus = parent.bus
		parent.children = append(parent.children, p)
		if parent.handler != nil {
			parent.handler(&command.Info{Key: "ChildRegistered", Home: parent, Focus: parent, Any: p})
		}
	}
	SetDamage(p, DamageSize|DamageRefresh)
	return p
}

// SetBus attaches the shared notifier bus used by Notify/AddNotify.
// The root pane's bus is inherited by every pane Register creates
// under it; this is only needed to bootstrap the root itself.
func (p *Pane) SetBus(b *notify.Bus) { p.bus = b }

// Bus returns the instance-wide notifier bus this pane uses.
func (p *Pane) Bus() *notify.Bus { return p.bus }

// Parent returns p's parent, or nil if p is the root.
func (p *Pane) Parent() *Pane { return p.parent }

// Children returns p's children in z/sibling order. The caller must
// not mutate the returned slice.
func (p *Pane) Children() []*Pane { return p.children }

// Focus returns p's focused child, or nil.
func (p *Pane) Focus() *Pane { return p.focus }

// Z returns p's z-order among its siblings.
func (p *Pane) Z() int { return p.z }

// IsRoot reports whether p has no parent.
func (p *Pane) IsRoot() bool { return p.parent == nil }

// IsClosed reports whether Close has been called on p.
func (p *Pane) IsClosed() bool { return p.closed }

// IsDead reports whether p has finished closing (its private data has
// been handed to Free and the parent link severed).
func (p *Pane) IsDead() bool { return p.dead }

// Bounds returns the pane's geometry as (x, y, w, h).
func (p *Pane) Bounds() (x, y, w, h int) { return p.x, p.y, p.w, p.h }

// CursorHint returns the pane's last reported cursor position.
func (p *Pane) CursorHint() (x, y int) { return p.cx, p.cy }

// SetCursorHint records where a handler would like the cursor drawn.
func (p *Pane) SetCursorHint(x, y int) { p.cx, p.cy = x, y }

// Resize sets p's geometry and marks it damaged SIZE (spec §4.1).
func (p *Pane) Resize(x, y, w, h int) {
	p.x, p.y, p.w, p.h = x, y, w, h
	SetDamage(p, DamageSize)
}

// Reparent unlinks p from its current parent and links it under
// newParent, appending it as the last child. It refuses to create a
// cycle (spec §4.1, §9 "Panes form a tree (acyclic by construction)").
func Reparent(p, newParent *Pane) error {
	if p == newParent {
		return errCycle
	}
	for a := newParent; a != nil; a = a.parent {
		if a == p {
			return errCycle
		}
	}
	if p.parent != nil {
		removeChild(p.parent, p)
	}
	p.parent = newParent
	p.bus = newParent.bus
	if newParent != nil {
		newParent.children = append(newParent.children, p)
	}
	return nil
}

var errCycle = cycleError{}

type cycleError struct{}

func (cycleError) Error() string { return "pane: reparent would create a cycle" }

// MoveAfter reorders p among its siblings to directly follow sibling.
// A nil sibling moves p to the head of the list.
func MoveAfter(p, sibling *Pane) {
	if p.parent == nil {
		return
	}
	siblings := p.parent.children
	removeChild(p.parent, p)
	if sibling == nil {
		p.parent.children = append([]*Pane{p}, p.parent.children...)
		return
	}
	out := make([]*Pane, 0, len(siblings)+1)
	for _, s := range p.parent.children {
		out = append(out, s)
		if s == sibling {
			out = append(out, p)
		}
	}
	p.parent.children = out
}

// Subsume adopts pane's children and private data into parent, used
// when a single-child tile collapses its parent (spec §4.1). pane's
// own node becomes an empty, parent-less husk; the caller should
// discard it (Subsume does not call Close, since nothing about pane
// itself is being destroyed — its contents simply moved).
func Subsume(pane, parent *Pane) {
	for _, c := range pane.children {
		c.parent = parent
		c.bus = parent.bus
		parent.children = append(parent.children, c)
	}
	parent.Data = pane.Data
	pane.children = nil
	pane.Data = nil
	if pane.parent != nil {
		removeChild(pane.parent, pane)
	}
	pane.parent = nil
}

func removeChild(parent, child *Pane) {
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// SetFocus walks from p to the root, setting focus on each ancestor
// so that p is reachable by repeatedly following Focus() from the
// root, and fires pane:refocus on the bus so input routers can reset
// modal state (spec §4.1).
func SetFocus(p *Pane) {
	child := p
	for parent := p.parent; parent != nil; child, parent = parent, parent.parent {
		parent.focus = child
	}
	if p.bus != nil {
		p.bus.Notify(asTarget(p), "pane:refocus", nil)
	}
}

// Close closes p: sets DamageClosed, recursively closes children
// post-order, fires Notify:Close to subscribers, delivers "Close" to
// p's own handler, detaches p from its parent, marks it dead, and
// hands off its private data to free (spec §4.1). free may be nil.
//
// Closed panes stay reachable (dead, with nil Data) until the caller
// is done iterating, mirroring the idle-epoch deferred free of the
// teacher's C ancestor without needing an actual idle pass: Go's GC
// reclaims the node itself once the last reference drops.
func Close(p *Pane, free func(data any)) {
	if p.closed {
		return
	}
	p.closed = true
	SetDamage(p, DamageClosed)

	for _, c := range append([]*Pane(nil), p.children...) {
		Close(c, nil)
	}

	if p.bus != nil {
		p.bus.Notify(asTarget(p), "Notify:Close", nil)
	}
	if p.handler != nil {
		p.handler(&command.Info{Key: "Close", Home: p, Focus: p})
	}
	if p.parent != nil {
		parent := p.parent
		removeChild(parent, p)
		p.parent = nil
		if parent.handler != nil {
			parent.handler(&command.Info{Key: "ChildClosed", Home: parent, Focus: parent, Any: p})
		}
	}
	p.dead = true
	SetDamage(p, DamageDead)
	if free != nil {
		free(p.Data)
	}
	p.Data = nil
}

// Handle implements command.Pane: it invokes p's own handler with no
// chain walk. Dispatch (in this package) performs the focus-chain
// walk described in spec §4.2.
func (p *Pane) Handle(ci *command.Info) (int, error) {
	if p.handler == nil {
		return 0, nil
	}
	return p.handler(ci)
}

// SetHandler installs or replaces p's handler.
func (p *Pane) SetHandler(h Handler) { p.handler = h }

// notifyTarget adapts *Pane to notify.Target by routing through the
// command dispatch convention: a notification arrives as an Info
// whose Key is the event name.
type notifyTarget struct{ p *Pane }

func (t notifyTarget) Notified(key string, payload any) (int, error) {
	ci := &command.Info{Key: key, Home: t.p, Focus: t.p, Any: payload}
	return Dispatch(ci)
}

func asTarget(p *Pane) notify.Target { return notifyTarget{p: p} }

// AddNotify registers target to receive event (and any sub-event with
// event as a prefix) notifications fired by source.
func AddNotify(source, target *Pane, event string) {
	if source.bus == nil {
		return
	}
	source.bus.AddNotify(asTarget(source), asTarget(target), event)
}

// DropNotifiers removes every subscription to event on source,
// whichever pane subscribed.
func DropNotifiers(source *Pane, event string) {
	if source.bus == nil {
		return
	}
	source.bus.DropNotifiers(asTarget(source), event)
}

// Notify fires event on source's bus, delivering payload to every
// subscriber.
func Notify(source *Pane, event string, payload any) (int, error) {
	if source.bus == nil {
		return 0, nil
	}
	return source.bus.Notify(asTarget(source), event, payload)
}
