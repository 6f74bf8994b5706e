package cmat

import "testing"

func TestSparseVectorAtVec(t *testing.T) {
	v := NewSparseVector(5, []int{1, 3}, []float64{2, 4})
	want := []float64{0, 2, 0, 4, 0}
	for i, w := range want {
		if got := v.AtVec(i); got != w {
			t.Errorf("AtVec(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestSparseVectorAtVecOutOfRangePanics(t *testing.T) {
	v := NewSparseVector(3, nil, nil)
	defer func() {
		if recover() == nil {
			t.Error("AtVec(3) did not panic for an out-of-range index")
		}
	}()
	v.AtVec(3)
}

func TestSparseVectorAtColAccessPanics(t *testing.T) {
	v := NewSparseVector(3, nil, nil)
	defer func() {
		if recover() == nil {
			t.Error("At(0, 1) did not panic for a non-zero column")
		}
	}()
	v.At(0, 1)
}

func TestSparseVectorNNZ(t *testing.T) {
	v := NewSparseVector(10, []int{2, 5, 9}, []float64{1, 1, 1})
	if got := v.NNZ(); got != 3 {
		t.Errorf("NNZ() = %d, want 3", got)
	}
}

func TestSparseVectorDoNonZero(t *testing.T) {
	v := NewSparseVector(5, []int{1, 3}, []float64{2, 4})
	var gotIdx []int
	var gotVal []float64
	v.DoNonZero(func(i int, val float64) {
		gotIdx = append(gotIdx, i)
		gotVal = append(gotVal, val)
	})
	wantIdx := []int{1, 3}
	wantVal := []float64{2, 4}
	for i := range wantIdx {
		if gotIdx[i] != wantIdx[i] || gotVal[i] != wantVal[i] {
			t.Errorf("DoNonZero() entry %d = (%d, %v), want (%d, %v)", i, gotIdx[i], gotVal[i], wantIdx[i], wantVal[i])
		}
	}
}

func TestSparseVectorToDense(t *testing.T) {
	v := NewSparseVector(4, []int{0, 2}, []float64{5, 7})
	want := []float64{5, 0, 7, 0}
	got := v.ToDense()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("ToDense()[%d] = %v, want %v", i, got[i], w)
		}
	}
}

func TestOneHot(t *testing.T) {
	v := OneHot(5, 2)
	want := []float64{0, 0, 1, 0, 0}
	got := v.ToDense()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("OneHot(5,2).ToDense()[%d] = %v, want %v", i, got[i], w)
		}
	}
}

func TestSparseVectorDims(t *testing.T) {
	v := NewSparseVector(7, nil, nil)
	r, c := v.Dims()
	if r != 7 || c != 1 {
		t.Errorf("Dims() = (%d, %d), want (7, 1)", r, c)
	}
}
