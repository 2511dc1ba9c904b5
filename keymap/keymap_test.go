// Copyright © 2016, The T Authors.

package keymap

import (
	"testing"

	"github.com/gopane/edlib/command"
)

func cmdNamed(name string) *command.Command {
	return command.NewStatic(name, func(ci *command.Info) (int, error) { return 1, nil })
}

func TestExactLookup(t *testing.T) {
	m := New()
	c := cmdNamed("doc:char")
	m.Set("doc:char", c)
	got, ok := m.Lookup("doc:char")
	if !ok || got != c {
		t.Fatalf("Lookup(doc:char) = %v, %v; want %v, true", got, ok, c)
	}
	if _, ok := m.Lookup("doc:byte"); ok {
		t.Fatal("Lookup(doc:byte) found a match, want none")
	}
}

func TestPrefixRangeBinding(t *testing.T) {
	m := New()
	c := cmdNamed("multipart-next")
	m.SetPrefix("multipart-next:", c)
	got, ok := m.Lookup("multipart-next:doc:char")
	if !ok || got != c {
		t.Fatalf("Lookup within prefix range failed: %v, %v", got, ok)
	}
	if _, ok := m.Lookup("multipart-prev:doc:char"); ok {
		t.Fatal("unrelated prefix incorrectly matched")
	}
}

func TestExactBeatsRange(t *testing.T) {
	m := New()
	rangeCmd := cmdNamed("range")
	exactCmd := cmdNamed("exact")
	m.SetPrefix("Chr-", rangeCmd)
	m.Set("Chr-a", exactCmd)
	got, _ := m.Lookup("Chr-a")
	if got != exactCmd {
		t.Fatalf("exact binding did not win over range: got %v", got)
	}
	got, _ = m.Lookup("Chr-b")
	if got != rangeCmd {
		t.Fatalf("range binding should have matched Chr-b: got %v", got)
	}
}

func TestMoreSpecificRangeWins(t *testing.T) {
	m := New()
	outer := cmdNamed("outer")
	inner := cmdNamed("inner")
	m.SetRange("a", "z", outer)
	m.SetRange("m", "n", inner)
	got, ok := m.Lookup("mid")
	if !ok || got != inner {
		t.Fatalf("expected the more specific range to win, got %v", got)
	}
}

func TestChainFallback(t *testing.T) {
	primary := New()
	fallback := New()
	c := cmdNamed("global")
	fallback.Set("global-cmd", c)
	primary.Chain(fallback)

	got, ok := primary.Lookup("global-cmd")
	if !ok || got != c {
		t.Fatalf("chained lookup failed: %v, %v", got, ok)
	}
}

func TestChainDoesNotShadowPrimary(t *testing.T) {
	primary := New()
	fallback := New()
	primaryCmd := cmdNamed("primary")
	fallbackCmd := cmdNamed("fallback")
	primary.Set("k", primaryCmd)
	fallback.Set("k", fallbackCmd)
	primary.Chain(fallback)

	got, _ := primary.Lookup("k")
	if got != primaryCmd {
		t.Fatalf("primary map's own binding should win, got %v", got)
	}
}

func TestLookupPrefixDetectsInProgressSequence(t *testing.T) {
	m := New()
	m.Set("C-x C-s", cmdNamed("save"))
	m.Set("C-x C-c", cmdNamed("quit"))

	if !m.LookupPrefix("C-x") {
		t.Fatal("expected C-x to be detected as an in-progress prefix")
	}
	if m.LookupPrefix("C-x C-s") {
		t.Fatal("a fully-bound key is not itself a strict prefix of anything")
	}
	if m.LookupPrefix("Q") {
		t.Fatal("unrelated key should not be a prefix")
	}
}

func TestLookupPrefixThroughChain(t *testing.T) {
	primary := New()
	fallback := New()
	fallback.Set("C-x C-s", cmdNamed("save"))
	primary.Chain(fallback)

	if !primary.LookupPrefix("C-x") {
		t.Fatal("prefix detection should search chained maps")
	}
}
