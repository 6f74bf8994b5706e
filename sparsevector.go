package cmat

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	_ mat.Matrix = (*SparseVector)(nil)
	_ mat.Vector = (*SparseVector)(nil)
)

// SparseVector is a sparse vector format, storing only non-zero elements as
// parallel index/value slices. It backs CompressedMatrix.
// LeftMultBySparseVector, the fast path for a row vector the caller already
// knows is mostly zero (the common case for a one-hot row selector): rather
// than scanning every row every group covers, it visits only v's non-zero
// rows.
type SparseVector struct {
	len  int
	ind  []int
	data []float64
}

// NewSparseVector returns a new sparse vector of the given length with
// elements at the positions in ind holding the corresponding values in
// data. ind must be sorted ascending and the two slices must be the same
// length; the slices back the vector directly.
func NewSparseVector(length int, ind []int, data []float64) *SparseVector {
	return &SparseVector{len: length, ind: ind, data: data}
}

// OneHot returns a length-len sparse vector with a single 1 at index i.
func OneHot(length, i int) *SparseVector {
	return NewSparseVector(length, []int{i}, []float64{1})
}

// Dims returns the vector's dimensions as (Len(), 1).
func (v *SparseVector) Dims() (int, int) { return v.len, 1 }

// At returns the element at r, c. At panics if c != 0.
func (v *SparseVector) At(r, c int) float64 {
	if c != 0 {
		panic(mat.ErrColAccess)
	}
	return v.AtVec(r)
}

// T returns the transpose of the receiver.
func (v *SparseVector) T() mat.Matrix { return mat.TransposeVec{Vector: v} }

// Len returns the length of the vector.
func (v *SparseVector) Len() int { return v.len }

// NNZ returns the number of non-zero elements in the vector.
func (v *SparseVector) NNZ() int { return len(v.data) }

// AtVec returns the i'th element of the vector.
func (v *SparseVector) AtVec(i int) float64 {
	if i < 0 || i >= v.len {
		panic(mat.ErrRowAccess)
	}
	idx := sort.SearchInts(v.ind, i)
	if idx < len(v.ind) && v.ind[idx] == i {
		return v.data[idx]
	}
	return 0
}

// DoNonZero calls fn for each non-zero element of the vector, in ascending
// index order.
func (v *SparseVector) DoNonZero(fn func(i int, val float64)) {
	for k, idx := range v.ind {
		fn(idx, v.data[k])
	}
}

// ToDense returns a dense copy of the vector.
func (v *SparseVector) ToDense() []float64 {
	out := make([]float64, v.len)
	v.DoNonZero(func(i int, val float64) { out[i] = val })
	return out
}
