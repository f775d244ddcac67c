package atom

import "testing"

func TestAtom(t *testing.T) {
	at := New(1)
	if at.Deref() != 1 {
		t.Errorf("Deref() = %d; want 1", at.Deref())
	}

	if got := at.Swap(func(v int) int { return v + 2 }); got != 3 {
		t.Errorf("Swap() = %d; want 3", got)
	}
	if at.Deref() != 3 {
		t.Errorf("Deref() = %d after Swap; want 3", at.Deref())
	}

	at.Reset(10)
	if at.Deref() != 10 {
		t.Errorf("Deref() = %d after Reset; want 10", at.Deref())
	}
}
