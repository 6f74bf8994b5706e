package cmat

import "testing"

func TestGetFloatsLengthAndClear(t *testing.T) {
	w := getFloats(10, true)
	if len(w) != 10 {
		t.Fatalf("len(getFloats(10, true)) = %d, want 10", len(w))
	}
	for i, v := range w {
		if v != 0 {
			t.Errorf("w[%d] = %v, want 0", i, v)
		}
	}
	putFloats(w)
}

func TestGetFloatsGrowsBeyondPoolSize(t *testing.T) {
	w := getFloats(pooledFloatSize+5, true)
	if len(w) != pooledFloatSize+5 {
		t.Errorf("len = %d, want %d", len(w), pooledFloatSize+5)
	}
	putFloats(w)
}

func TestGetIntsLengthAndClear(t *testing.T) {
	w := getInts(5, true)
	if len(w) != 5 {
		t.Fatalf("len(getInts(5, true)) = %d, want 5", len(w))
	}
	for i, v := range w {
		if v != 0 {
			t.Errorf("w[%d] = %v, want 0", i, v)
		}
	}
	putInts(w)
}

func TestUseFloatsTruncatesWithoutReallocating(t *testing.T) {
	w := make([]float64, 20)
	w2 := useFloats(w, 5, false)
	if len(w2) != 5 {
		t.Fatalf("len(useFloats(w, 5, false)) = %d, want 5", len(w2))
	}
	if cap(w2) != cap(w) {
		t.Errorf("useFloats() reallocated when shrinking, cap = %d, want %d", cap(w2), cap(w))
	}
}
