// Copyright © 2016, The T Authors.

package notify

import "testing"

type fakePane struct {
	name    string
	calls   []string
	onNotif func(key string, payload any) (int, error)
}

func (p *fakePane) Notified(key string, payload any) (int, error) {
	p.calls = append(p.calls, key)
	if p.onNotif != nil {
		return p.onNotif(key, payload)
	}
	return 1, nil
}

func TestBasicDelivery(t *testing.T) {
	b := New()
	a, target := &fakePane{name: "a"}, &fakePane{name: "target"}
	b.AddNotify(a, target, "Notify:Close")

	n, err := b.Notify(a, "Notify:Close", nil)
	if err != nil || n != 1 {
		t.Fatalf("Notify = %d, %v; want 1, nil", n, err)
	}
	if len(target.calls) != 1 {
		t.Fatalf("target invoked %d times, want 1", len(target.calls))
	}
}

func TestSubEventPrefixDelivery(t *testing.T) {
	b := New()
	a, target := &fakePane{}, &fakePane{}
	b.AddNotify(a, target, "Notify:Close")

	b.Notify(a, "Notify:Close:window", nil)
	if len(target.calls) != 1 {
		t.Fatal("expected a Notify:Close subscriber to see a Notify:Close:window event")
	}
}

func TestDropNotifiersStopsDelivery(t *testing.T) {
	b := New()
	a, target := &fakePane{}, &fakePane{}
	b.AddNotify(a, target, "X")
	b.DropNotifiers(a, "X")

	b.Notify(a, "X", nil)
	if len(target.calls) != 0 {
		t.Fatal("dropped edge still delivered")
	}
}

// Scenario D from spec §8: pane A subscribes to B for event X; when
// A's handler for X re-fires X on B during delivery, the re-entrant
// fire must not re-invoke A's handler within the same originating call.
func TestReentrantNotificationSkipsAlreadyStampedEdge(t *testing.T) {
	b := New()
	bPane := &fakePane{}
	aPane := &fakePane{
		onNotif: func(key string, payload any) (int, error) {
			// Re-entrant fire of the same event from within A's handler.
			b.Notify(bPane, "X", payload)
			return 1, nil
		},
	}
	b.AddNotify(bPane, aPane, "X")

	b.Notify(bPane, "X", nil)
	if len(aPane.calls) != 1 {
		t.Fatalf("aPane invoked %d times during one originating call, want 1", len(aPane.calls))
	}
}

func TestIndependentCallsEachDeliverOnce(t *testing.T) {
	b := New()
	a, target := &fakePane{}, &fakePane{}
	b.AddNotify(a, target, "X")

	b.Notify(a, "X", nil)
	b.Notify(a, "X", nil)
	if len(target.calls) != 2 {
		t.Fatalf("two independent originating calls delivered %d times, want 2", len(target.calls))
	}
}

func TestHardErrorStopsDelivery(t *testing.T) {
	b := New()
	a := &fakePane{}
	failing := &fakePane{onNotif: func(string, any) (int, error) { return 0, errBoom }}
	other := &fakePane{}
	b.AddNotify(a, failing, "X")
	b.AddNotify(a, other, "X")

	_, err := b.Notify(a, "X", nil)
	if err != errBoom {
		t.Fatalf("Notify err = %v, want errBoom", err)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
