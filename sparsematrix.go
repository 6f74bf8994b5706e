package cmat

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SparseBlock is a MatrixBlock backed by a row-compressed sparse structure
// (compressed sparse row, sometimes called CRS), storing only non-zero
// values. Good for arithmetic and decompression targets; occasional direct
// Set calls are supported but SparseBuilder is the faster path for bulk
// incremental construction.
type SparseBlock struct {
	i, j   int
	indptr []int
	ind    []int
	data   []float64
}

// NewSparseBlock returns a new, empty r x c sparse block.
func NewSparseBlock(r, c int) *SparseBlock {
	return &SparseBlock{i: r, j: c, indptr: make([]int, r+1)}
}

// Dims returns the block's dimensions.
func (s *SparseBlock) Dims() (int, int) { return s.i, s.j }

// At returns the element at row i, column j, scanning the row's non-zero
// run. At will panic if i or j fall outside the block's dimensions.
func (s *SparseBlock) At(i, j int) float64 {
	if uint(i) >= uint(s.i) {
		panic(mat.ErrRowAccess)
	}
	if uint(j) >= uint(s.j) {
		panic(mat.ErrColAccess)
	}
	for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
		if s.ind[k] == j {
			return s.data[k]
		}
	}
	return 0
}

// T returns the transpose of the block as a mat.Matrix view.
func (s *SparseBlock) T() mat.Matrix { return mat.Transpose{Matrix: s} }

// Set assigns the value at row i, column j, preserving ascending column
// order within the row. Zero values remove any existing entry.
func (s *SparseBlock) Set(i, j int, v float64) {
	if uint(i) >= uint(s.i) {
		panic(mat.ErrRowAccess)
	}
	if uint(j) >= uint(s.j) {
		panic(mat.ErrColAccess)
	}

	insertAt := s.indptr[i+1]
	for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
		if s.ind[k] == j {
			if v == 0 {
				s.remove(k, i)
			} else {
				s.data[k] = v
			}
			return
		}
		if s.ind[k] > j {
			insertAt = k
			break
		}
	}
	if v == 0 {
		return
	}
	s.insert(i, j, v, insertAt)
}

func (s *SparseBlock) insert(i, j int, v float64, at int) {
	s.ind = append(s.ind, 0)
	copy(s.ind[at+1:], s.ind[at:])
	s.ind[at] = j

	s.data = append(s.data, 0)
	copy(s.data[at+1:], s.data[at:])
	s.data[at] = v

	for n := i + 1; n <= s.i; n++ {
		s.indptr[n]++
	}
}

func (s *SparseBlock) remove(at, i int) {
	s.ind = append(s.ind[:at], s.ind[at+1:]...)
	s.data = append(s.data[:at], s.data[at+1:]...)
	for n := i + 1; n <= s.i; n++ {
		s.indptr[n]--
	}
}

// Reserve grows the block's backing storage to hold at least total entries
// without per-insert reallocation, leaving any existing entries untouched.
// Callers that know the final non-zero count up front (e.g. Decompress,
// via CountNonZerosPerRow) should call this before the burst of Set calls
// that follows, since Set's insert still shifts elements into place but no
// longer has to grow and copy the backing arrays as it goes.
func (s *SparseBlock) Reserve(total int) {
	if cap(s.ind) < total {
		grown := make([]int, len(s.ind), total)
		copy(grown, s.ind)
		s.ind = grown
	}
	if cap(s.data) < total {
		grown := make([]float64, len(s.data), total)
		copy(grown, s.data)
		s.data = grown
	}
}

// NNZ returns the number of stored non-zero values.
func (s *SparseBlock) NNZ() int { return len(s.data) }

// IsSparse always reports true for SparseBlock.
func (s *SparseBlock) IsSparse() bool { return true }

// Dense returns a dense copy of the block.
func (s *SparseBlock) Dense() *mat.Dense {
	out := mat.NewDense(s.i, s.j, nil)
	for row := 0; row < s.i; row++ {
		for k := s.indptr[row]; k < s.indptr[row+1]; k++ {
			out.Set(row, s.ind[k], s.data[k])
		}
	}
	return out
}

// RecomputeNonZeros returns the number of stored entries that are actually
// non-zero, dropping any that have decayed to zero via in-place updates
// elsewhere and are still occupying storage.
func (s *SparseBlock) RecomputeNonZeros() int {
	n := 0
	for _, v := range s.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// SortSparseRows re-sorts each row's column indices into ascending order.
func (s *SparseBlock) SortSparseRows() {
	for row := 0; row < s.i; row++ {
		start, end := s.indptr[row], s.indptr[row+1]
		idx := s.ind[start:end]
		dat := s.data[start:end]
		sort.Sort(&rowSorter{idx: idx, data: dat})
	}
}

type rowSorter struct {
	idx  []int
	data []float64
}

func (r *rowSorter) Len() int      { return len(r.idx) }
func (r *rowSorter) Swap(a, b int) { r.idx[a], r.idx[b] = r.idx[b], r.idx[a]; r.data[a], r.data[b] = r.data[b], r.data[a] }
func (r *rowSorter) Less(a, b int) bool { return r.idx[a] < r.idx[b] }

// Clone returns a deep copy of the block.
func (s *SparseBlock) Clone() MatrixBlock {
	return &SparseBlock{
		i: s.i, j: s.j,
		indptr: append([]int(nil), s.indptr...),
		ind:    append([]int(nil), s.ind...),
		data:   append([]float64(nil), s.data...),
	}
}

// Scale returns a new block with every stored value multiplied by alpha.
func (s *SparseBlock) Scale(alpha float64) MatrixBlock {
	out := s.Clone().(*SparseBlock)
	for k := range out.data {
		out.data[k] *= alpha
	}
	return out
}

// Apply returns a new block with f applied to every cell, including
// implicit zeros, so the result is built with a SparseBuilder rather than
// mutated in place.
func (s *SparseBlock) Apply(f func(v float64) float64) MatrixBlock {
	b := NewSparseBuilder(s.i, s.j)
	for row := 0; row < s.i; row++ {
		col := 0
		for k := s.indptr[row]; k < s.indptr[row+1]; k++ {
			for ; col < s.ind[k]; col++ {
				b.Add(row, col, f(0))
			}
			b.Add(row, s.ind[k], f(s.data[k]))
			col = s.ind[k] + 1
		}
		for ; col < s.j; col++ {
			b.Add(row, col, f(0))
		}
	}
	return b.Build()
}

// Add returns the element-wise sum of the receiver and other.
func (s *SparseBlock) Add(other MatrixBlock) MatrixBlock {
	b := NewSparseBuilder(s.i, s.j)
	for row := 0; row < s.i; row++ {
		for k := s.indptr[row]; k < s.indptr[row+1]; k++ {
			b.Add(row, s.ind[k], s.data[k])
		}
	}
	if o, ok := other.(*SparseBlock); ok {
		for row := 0; row < o.i; row++ {
			for k := o.indptr[row]; k < o.indptr[row+1]; k++ {
				b.entries = append(b.entries, triplet{row, o.ind[k], o.data[k]})
			}
		}
		return b.Build()
	}
	for row := 0; row < s.i; row++ {
		for col := 0; col < s.j; col++ {
			if v := other.At(row, col); v != 0 {
				b.Add(row, col, v)
			}
		}
	}
	return b.Build()
}

// MatMul returns the matrix product of the receiver and other, materialised
// densely (this collaborator's arithmetic is a correctness fallback, not a
// performance path — cmat's own kernels never call it on the hot path).
func (s *SparseBlock) MatMul(other MatrixBlock) MatrixBlock {
	_, oc := other.Dims()
	out := NewDenseBlock(s.i, oc, nil)
	for row := 0; row < s.i; row++ {
		for col := 0; col < oc; col++ {
			var v float64
			for k := s.indptr[row]; k < s.indptr[row+1]; k++ {
				v += s.data[k] * other.At(s.ind[k], col)
			}
			if v != 0 {
				out.Set(row, col, v)
			}
		}
	}
	return out
}
