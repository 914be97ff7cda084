package presence

import (
	"reflect"
	"testing"
)

type fakeConn struct {
	name string
}

func (f *fakeConn) Enqueue(_ []byte) bool { return true }

func TestRegisterEvictsPriorConnection(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConn{name: "first"}
	second := &fakeConn{name: "second"}

	if prior := registry.Register(7, first); prior != nil {
		t.Fatalf("expected no prior connection, got %v", prior)
	}

	prior := registry.Register(7, second)
	if prior != first {
		t.Fatalf("expected first connection to be evicted, got %v", prior)
	}

	current, ok := registry.Lookup(7)
	if !ok || current != second {
		t.Fatalf("expected lookup to return newest handle, got %v ok=%v", current, ok)
	}
}

func TestUnregisterIgnoresStaleConnection(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConn{name: "first"}
	second := &fakeConn{name: "second"}

	registry.Register(7, first)
	registry.Register(7, second)

	// The evicted connection's disconnect must not remove its replacement.
	if removed := registry.Unregister(7, first); removed {
		t.Fatal("expected stale unregister to be a no-op")
	}
	if _, ok := registry.Lookup(7); !ok {
		t.Fatal("expected newest connection to survive stale unregister")
	}

	if removed := registry.Unregister(7, second); !removed {
		t.Fatal("expected current unregister to remove the entry")
	}
	if _, ok := registry.Lookup(7); ok {
		t.Fatal("expected lookup to miss after unregister")
	}
}

func TestUnregisterUnknownUserIsSafe(t *testing.T) {
	registry := NewRegistry()
	if removed := registry.Unregister(99, &fakeConn{}); removed {
		t.Fatal("expected unregister of unknown user to be a no-op")
	}
}

func TestSnapshotReturnsSortedUserIDs(t *testing.T) {
	registry := NewRegistry()
	registry.Register(9, &fakeConn{})
	registry.Register(3, &fakeConn{})
	registry.Register(41, &fakeConn{})

	got := registry.Snapshot()
	want := []int64{3, 9, 41}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected snapshot %v, got %v", want, got)
	}

	registry.Register(3, &fakeConn{})
	if got := registry.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected re-register to keep snapshot %v, got %v", want, got)
	}
}
