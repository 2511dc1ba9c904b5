// Copyright © 2016, The T Authors.

// Package instance implements the editor instance of spec §9: a
// designated root pane plus the global command and attribute maps
// every pane ultimately falls back to, and the single-threaded run
// loop that funnels external events into the dispatch graph.
package instance

import (
	"log"
	"time"

	"github.com/gopane/edlib/attr"
	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/doc"
	"github.com/gopane/edlib/keymap"
	"github.com/gopane/edlib/notify"
	"github.com/gopane/edlib/pane"
)

// An Instance owns one root pane, the global command/attribute state
// every pane falls back to when its own handler and keymap don't
// recognize a key, and the run loop that serializes external work
// onto a single goroutine (spec §5: "an external event loop feeds the
// dispatcher through designated entry points").
type Instance struct {
	Root    *pane.Pane
	Global  keymap.Map
	Attrs   attr.Set
	Logger  *log.Logger

	docs map[string]*doc.Base

	events chan func()
	tick   time.Duration
	done   chan struct{}
}

// New constructs an Instance with a fresh root pane and notifier bus.
// logger defaults to log.Default() if nil, the way ui.Server takes an
// optional screen.Screen.
func New(logger *log.Logger) *Instance {
	if logger == nil {
		logger = log.Default()
	}
	inst := &Instance{
		Root:   pane.Register(nil, 0, nil),
		Logger: logger,
		docs:   map[string]*doc.Base{},
		events: make(chan func(), 64),
		tick:   33 * time.Millisecond,
		done:   make(chan struct{}),
	}
	inst.Root.SetBus(notify.New())
	inst.Root.SetHandler(inst.rootHandle)
	return inst
}

// Send queues fn to run on the instance's single dispatch goroutine,
// the way ui.window.Send funnels a UI callback into its event loop.
// Safe to call from any goroutine.
func (inst *Instance) Send(fn func()) {
	select {
	case inst.events <- fn:
	case <-inst.done:
	}
}

// Run drains queued work until Stop is called, ticking every
// inst.tick interval so callers can hook periodic housekeeping (idle
// arena compaction, autosave, etc.) onto onTick without needing their
// own timer. onTick may be nil.
//
// Grounded on ui/window.go's events(): a single goroutine select over
// a timer and a channel of func() closures, the teacher's mechanism
// for serializing asynchronous UI/network events onto the thread that
// owns the pane tree.
func (inst *Instance) Run(onTick func()) {
	timer := time.NewTimer(inst.tick)
	defer timer.Stop()
	for {
		select {
		case <-inst.done:
			return
		case fn, ok := <-inst.events:
			if !ok {
				return
			}
			fn()
		case <-timer.C:
			if onTick != nil {
				onTick()
			}
			timer.Reset(inst.tick)
		}
	}
}

// Stop ends Run and causes any blocked Send to return.
func (inst *Instance) Stop() {
	select {
	case <-inst.done:
	default:
		close(inst.done)
	}
}

// RegisterDocument records base under name so it is discoverable by
// Document and by httpapi's introspection routes.
func (inst *Instance) RegisterDocument(name string, base *doc.Base) {
	inst.docs[name] = base
}

// Document looks up a previously registered document by name.
func (inst *Instance) Document(name string) (*doc.Base, bool) {
	b, ok := inst.docs[name]
	return b, ok
}

// Documents returns every registered document name.
func (inst *Instance) Documents() []string {
	names := make([]string, 0, len(inst.docs))
	for name := range inst.docs {
		names = append(names, name)
	}
	return names
}

// GlobalSetAttr records a global attribute in inst.Attrs (spec §9
// "global-set-attr"). Pane attribute lookups do not fall back to
// inst.Attrs; it is read only by code that asks it directly.
func (inst *Instance) GlobalSetAttr(key, value string) { inst.Attrs.Set(key, value) }

// GlobalBind installs an exact global key binding, consulted after a
// pane's focus-chain walk falls all the way through (spec §6
// "global-set-command").
func (inst *Instance) GlobalBind(key string, c *command.Command) { inst.Global.Set(key, c) }

// GlobalBindPrefix installs a global binding for every key sharing
// prefix (spec §6 "global-set-command-prefix").
func (inst *Instance) GlobalBindPrefix(prefix string, c *command.Command) {
	inst.Global.SetPrefix(prefix, c)
}

// A Module installs whatever global bindings/attrs it provides onto
// inst; the load-time equivalent of a concrete editing mode plugging
// itself into the core (spec §6 "global-load-module").
type Module interface {
	Load(inst *Instance) error
}

// LoadModule runs m.Load(inst). The core itself has no notion of
// where a Module's code comes from (a compiled-in package, a loaded
// plugin, a scripting bridge) — that dispatch is a concrete-mode
// concern (spec §1 non-goal "the scripting bridge"); LoadModule only
// gives every module a single well-known entry point.
func (inst *Instance) LoadModule(m Module) error { return m.Load(inst) }

// rootHandle is the root pane's own handler: it is the last stop of
// every Dispatch walk, so global bindings live here.
func (inst *Instance) rootHandle(ci *command.Info) (int, error) {
	if c, ok := inst.Global.Lookup(ci.Key); ok {
		return c.Invoke(ci)
	}
	return 0, nil
}
