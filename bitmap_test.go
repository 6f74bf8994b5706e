package cmat

import (
	"fmt"
	"reflect"
	"testing"
)

func TestExtractBitmap(t *testing.T) {
	// columns 0 and 1 of a 6x3 dense block:
	//   row: c0 c1
	//   0:   1  2
	//   1:   0  0
	//   2:   1  2
	//   3:   0  0
	//   4:   3  4
	//   5:   1  2
	src := NewDenseBlock(6, 3, []float64{
		1, 2, 0,
		0, 0, 0,
		1, 2, 0,
		0, 0, 0,
		3, 4, 0,
		1, 2, 0,
	})

	bm := ExtractBitmap(src, false, 6, []int{0, 1})

	if bm.Cardinality() != 2 {
		t.Fatalf("Cardinality() = %d, want 2", bm.Cardinality())
	}
	if got := bm.NNZ(); got != 4 {
		t.Fatalf("NNZ() = %d, want 4", got)
	}

	found := map[string][]int{}
	for ti, tuple := range bm.Tuples {
		found[tupleKey(tuple)] = bm.Rows[ti]
	}
	want := map[string][]int{
		tupleKey([]float64{1, 2}): {0, 2, 5},
		tupleKey([]float64{3, 4}): {4},
	}
	if !reflect.DeepEqual(found, want) {
		t.Errorf("tuples/rows = %v, want %v", found, want)
	}

	if err := bm.checkInvariants(6); err != nil {
		t.Errorf("checkInvariants() = %v, want nil", err)
	}
}

func TestExtractBitmapAllZeroRowsDropped(t *testing.T) {
	src := NewDenseBlock(3, 1, []float64{0, 0, 0})
	bm := ExtractBitmap(src, false, 3, []int{0})
	if bm.Cardinality() != 0 {
		t.Errorf("Cardinality() = %d, want 0 for an all-zero column", bm.Cardinality())
	}
}

func TestExtractBitmapTransposed(t *testing.T) {
	// transposedView-style source: At(col, row) instead of At(row, col).
	logical := NewDenseBlock(4, 1, []float64{5, 0, 5, 0})
	view := &transposedView{src: logical, rows: 4}

	bm := ExtractBitmap(view, true, 4, []int{0})
	if bm.Cardinality() != 1 {
		t.Fatalf("Cardinality() = %d, want 1", bm.Cardinality())
	}
	if !reflect.DeepEqual(bm.Rows[0], []int{0, 2}) {
		t.Errorf("Rows[0] = %v, want [0 2]", bm.Rows[0])
	}
}

func TestBitmapCheckInvariantsDetectsSharedRow(t *testing.T) {
	bm := &Bitmap{
		Cols:   []int{0},
		Tuples: [][]float64{{1}, {2}},
		Rows:   [][]int{{0, 1}, {1}},
	}
	if err := bm.checkInvariants(2); err == nil {
		t.Fatal("checkInvariants() = nil, want error for a row claimed by two tuples")
	}
}

func tupleKey(tuple []float64) string {
	return fmt.Sprint(tuple)
}
