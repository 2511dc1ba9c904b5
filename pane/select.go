// Copyright © 2016, The T Authors.

package pane

// RootPane walks from p to the tree root (spec §6 pane-selection
// helper "RootPane").
func RootPane(p *Pane) *Pane {
	for p.parent != nil {
		p = p.parent
	}
	return p
}

// ThisPane returns p unchanged: the trivial pane-selection helper, a
// placeholder callers substitute for a selector argument when no
// translation is wanted (spec §6 "ThisPane").
func ThisPane(p *Pane) *Pane { return p }

// DocPane walks from p toward the root and returns the nearest
// ancestor (inclusive) whose attributes carry "doc-name", i.e. the
// nearest enclosing document pane (spec §6 "DocPane").
func DocPane(p *Pane) (*Pane, bool) {
	for a := p; a != nil; a = a.parent {
		if _, ok := a.Attrs.Get("doc-name"); ok {
			return a, true
		}
	}
	return nil, false
}

// OtherPane has no generic core implementation: "the other pane" is
// defined relative to a window's split layout (spec §6), which is a
// concrete tile-manager feature this core does not model (spec §1
// non-goal "rendering geometry"). A window-manager pane built on top
// of this core should implement its own OtherPane using its layout
// tree; there is no sensible tree-generic definition to provide here.

// Window:* geometry commands resize and re-z-order p itself, the way
// a tile manager built on this core would implement split/resize
// without needing bespoke per-window-type code (spec §6 "Pane
// geometry and scaling"). HandleWindowKey returns 0 (fall through) for
// any key it doesn't recognize, so callers chain it into their own
// handler freely:
//
//	func (w *myPane) handle(ci *command.Info) (int, error) {
//	    if ret, err := pane.HandleWindowKey(w.Pane, ci.Key); ret != 0 || err != nil {
//	        return ret, err
//	    }
//	    ... w's own keys ...
//	}
func HandleWindowKey(p *Pane, key string) (int, error) {
	x, y, w, h := p.Bounds()
	switch key {
	case "Window:x+":
		p.Resize(x, y, w+1, h)
	case "Window:x-":
		if w > 1 {
			p.Resize(x, y, w-1, h)
		}
	case "Window:y+":
		p.Resize(x, y, w, h+1)
	case "Window:y-":
		if h > 1 {
			p.Resize(x, y, w, h-1)
		}
	case "Window:close":
		Close(p, nil)
	case "Window:bury":
		if p.parent != nil {
			MoveAfter(p, nil)
		}
	default:
		return 0, nil
	}
	return 1, nil
}
