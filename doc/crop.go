// Copyright © 2016, The T Authors.

package doc

import (
	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/pane"
)

// Crop presents a clamped [start, end) window onto a parent document.
// Content clamps its range to the window, Step stops at the window's
// edges and clamps where it lands, Replace rejects a range that
// reaches outside the window, and doc:set-ref moves a mark to the
// window edges exactly. Marks are not clamped when placed: NewMark and
// MoveTo accept any parent ref, and a mark outside the window is only
// brought back by the next Step through the crop.
type Crop struct {
	*Base
	parent     *Base
	start, end Ref
}

// NewCrop registers a new crop document under parent pane, presenting
// the window [start, end) of src.
func NewCrop(parentPane *pane.Pane, name string, src *Base, start, end Ref) *Crop {
	c := &Crop{parent: src, start: start, end: end}
	c.Base = NewBase(parentPane, name, c)
	c.Base.RegisterHandler(c.handle)
	return c
}

// Start implements Doc: the window's own first position.
func (c *Crop) Start() Ref { return c.start }

// End implements Doc: the window's own one-past-last position.
func (c *Crop) End() Ref { return c.end }

// Equal implements Doc by forwarding to the parent.
func (c *Crop) Equal(a, b Ref) bool { return c.parent.backend.Equal(a, b) }

// Less implements Doc by forwarding to the parent's own order.
func (c *Crop) Less(a, b Ref) bool { return c.parent.backend.Less(a, b) }

// clamp forces ref into [start, end], the "force-into-range" rule of
// spec §4.7.
func (c *Crop) clamp(ref Ref) Ref {
	if c.parent.backend.Less(ref, c.start) {
		return c.start
	}
	if c.parent.backend.Less(c.end, ref) {
		return c.end
	}
	return ref
}

// Step implements Doc. Stepping off either edge of the window
// reports end-of-document (ok=false) rather than escaping into the
// parent's content beyond the crop, per spec §4.7.
func (c *Crop) Step(ref Ref, forward bool) (Ref, rune, bool) {
	if forward && c.parent.backend.Equal(ref, c.end) {
		return ref, command.WEOF, false
	}
	if !forward && c.parent.backend.Equal(ref, c.start) {
		return ref, command.WEOF, false
	}
	next, ch, ok := c.parent.backend.Step(ref, forward)
	if !ok {
		return ref, command.WEOF, false
	}
	return c.clamp(next), ch, true
}

// Content implements Doc, clamping the requested range to the window
// before forwarding to the parent.
func (c *Crop) Content(from, to Ref, each func(rune) bool) int {
	return c.parent.backend.Content(c.clamp(from), c.clamp(to), each)
}

// GetAttr implements Doc by forwarding, unclamped (attributes are a
// property of the underlying position, not of the window).
func (c *Crop) GetAttr(ref Ref, key string) (string, bool) {
	return c.parent.backend.GetAttr(ref, key)
}

// SetAttr implements Doc by forwarding.
func (c *Crop) SetAttr(ref Ref, key, value string) {
	c.parent.backend.SetAttr(ref, key, value)
}

// Replace implements Doc, refusing an edit that would reach outside
// the window.
func (c *Crop) Replace(from, to Ref, text string) (Ref, error) {
	if c.parent.backend.Less(from, c.start) || c.parent.backend.Less(c.end, to) {
		return from, command.Einval
	}
	return c.parent.backend.Replace(from, to, text)
}

// Boundary implements Doc: the window's own edges, never the
// underlying parent document's.
func (c *Crop) Boundary(ref Ref, forward bool) Ref {
	if forward {
		return c.end
	}
	return c.start
}

// handle extends Base.Handle with doc:set-ref's crop-specific
// exemption: spec §4.7 carves it out of the force-into-range rule so
// a caller can still address the window's exact edges, and with
// crop:resize, letting an owner narrow or widen the window in place.
func (c *Crop) handle(ci *command.Info) (int, error) {
	switch ci.Key {
	case "doc:set-ref":
		h, ok := c.mark(ci.Mark)
		if !ok {
			return 0, command.Enoarg
		}
		if ci.Num == 1 {
			c.MoveTo(h, c.start)
		} else {
			c.MoveTo(h, c.end)
		}
		return 1, nil
	case "crop:resize":
		start, ok1 := ci.Any.(struct{ Start, End Ref })
		if ok1 {
			c.start, c.end = start.Start, start.End
		}
		return 1, nil
	}
	return c.Base.Handle(ci)
}
