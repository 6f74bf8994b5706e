package cmat

import "testing"

func TestBitsetSetTest(t *testing.T) {
	b := newBitset(100)
	if b.test(42) {
		t.Fatal("test(42) = true before any set, want false")
	}
	b.set(42)
	if !b.test(42) {
		t.Error("test(42) = false after set, want true")
	}
	if b.test(41) || b.test(43) {
		t.Error("neighbouring bits were set, want only bit 42")
	}
}

func TestBitsetTestAndSet(t *testing.T) {
	b := newBitset(10)
	if b.testAndSet(3) {
		t.Error("testAndSet(3) first call = true, want false")
	}
	if !b.testAndSet(3) {
		t.Error("testAndSet(3) second call = false, want true")
	}
}

func TestBitsetCount(t *testing.T) {
	b := newBitset(200)
	for _, i := range []int{0, 63, 64, 127, 128, 199} {
		b.set(i)
	}
	if got := b.count(); got != 6 {
		t.Errorf("count() = %d, want 6", got)
	}
}

func TestBitsetSpansWordBoundary(t *testing.T) {
	b := newBitset(130)
	b.set(63)
	b.set(64)
	if !b.test(63) || !b.test(64) {
		t.Error("bits spanning a 64-bit word boundary were not both set")
	}
	if b.test(62) || b.test(65) {
		t.Error("unexpected bits set around the word boundary")
	}
}
