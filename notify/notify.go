// Copyright © 2016, The T Authors.

// Package notify implements the notifier bus of spec §4.8: a
// directed graph of pane-to-pane notifications, with a generation
// counter that prevents a re-entrant notification from re-invoking an
// edge that already fired within the same originating call.
//
// Edges are non-owning: they are not part of the pane ownership tree
// (§9 "cyclic ownership") and may themselves form cycles, which the
// generation-stamped visit marker protects against.
package notify

// A Target receives delivered notifications. pane.Pane implements
// this; notify does not import pane to avoid a cycle.
type Target interface {
	Notified(key string, payload any) (int, error)
}

type edge struct {
	source, target Target
	event          string
	notedGen       int64
}

// A Bus owns every notifier edge for one editor instance. The zero
// Bus is empty and ready to use.
type Bus struct {
	edges []*edge
	gen   int64
	depth int // number of Notify calls currently delivering
}

// New returns an empty Bus.
func New() *Bus { return &Bus{} }

// AddNotify creates an edge: source, is delivered event (or any event
// with this as a prefix) and will invoke target.Notified.
func (b *Bus) AddNotify(source, target Target, event string) {
	b.edges = append(b.edges, &edge{source: source, target: target, event: event})
}

// DropNotifiers removes every edge from pane matching event (exact
// string match on the originally-bound event name, not prefix).
func (b *Bus) DropNotifiers(source Target, event string) {
	out := b.edges[:0]
	for _, e := range b.edges {
		if e.source == source && e.event == event {
			continue
		}
		out = append(out, e)
	}
	b.edges = out
}

// DropTarget removes every edge whose target is pane, e.g. when a
// pane closes and must stop receiving notifications (spec §4.1 close
// sequence fires Notify:Close to subscribers before severing links,
// so this is normally called only after that delivery completes).
func (b *Bus) DropTarget(target Target) {
	out := b.edges[:0]
	for _, e := range b.edges {
		if e.target == target {
			continue
		}
		out = append(out, e)
	}
	b.edges = out
}

// Notify delivers event (with payload) to every edge whose bound
// event name is a prefix of event (so "Notify:Close" subscribers also
// see "Notify:Close:window", etc.), skipping edges already stamped
// with the current call's generation; a Notify made from inside a
// handler reuses the generation of the outermost call. It returns the
// number of handlers that returned a positive code, and the first
// error any handler returned, which also stops delivery, mirroring
// dispatch's short-circuit convention.
func (b *Bus) Notify(source Target, event string, payload any) (delivered int, err error) {
	if b.depth == 0 {
		b.gen++
	}
	b.depth++
	defer func() { b.depth-- }()
	gen := b.gen
	// Snapshot the edge list: a handler invoked during delivery may
	// register or drop edges, and must not perturb this walk.
	edges := append([]*edge(nil), b.edges...)
	for _, e := range edges {
		if e.source != source || !hasEventPrefix(event, e.event) {
			continue
		}
		if e.notedGen == gen {
			continue
		}
		e.notedGen = gen
		ret, nerr := e.target.Notified(event, payload)
		if nerr != nil {
			return delivered, nerr
		}
		if ret > 0 {
			delivered++
		}
	}
	return delivered, nil
}

// hasEventPrefix reports whether bound (the event name an edge was
// registered for) is a prefix of event (the event actually firing),
// so that registering for "Notify:Close" also observes
// "Notify:Close:window".
func hasEventPrefix(event, bound string) bool {
	return len(event) >= len(bound) && event[:len(bound)] == bound
}
