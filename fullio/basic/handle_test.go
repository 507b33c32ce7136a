package basic

import "testing"

func TestOwnerRelease(t *testing.T) {
	tr := &fakeTransport{}
	owner := NewOwner(tr)
	h := owner.Handle()

	got, ok := h.Lock()
	if !ok || got != tr {
		t.Fatalf("expected live handle")
	}

	owner.Release()
	owner.Release()
	if !owner.Released() {
		t.Fatalf("expected owner to be released")
	}
	if got, ok := h.Lock(); ok || got != nil {
		t.Fatalf("handle still locks after release")
	}
}

func TestZeroHandleIsExpired(t *testing.T) {
	var h Handle[Reader]
	if h.Alive() {
		t.Fatalf("zero handle should be expired")
	}
}

func TestStrongHandle(t *testing.T) {
	tr := &fakeTransport{}
	h := Strong[ReadWriter](tr)
	got, ok := h.Lock()
	if !ok || got != tr {
		t.Fatalf("strong handle should always lock")
	}
}

func TestWeakHandleLocksWhileReachable(t *testing.T) {
	tr := &fakeTransport{}
	h := Weak(tr)
	got, ok := h.Lock()
	if !ok || got != tr {
		t.Fatalf("weak handle should lock while the transport is reachable")
	}
}
