package cmat

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MatrixBlock is the collaborator interface this package assumes for the
// uncompressed representation it compresses from and decompresses to. A
// real analytics runtime would supply a richer implementation (backed by
// its own dense/sparse block hierarchy, caching, and I/O); this package
// only requires the surface below and ships DenseBlock/SparseBlock as
// concrete, self-contained implementations so it compiles and is testable
// standalone.
type MatrixBlock interface {
	mat.Matrix

	// Set assigns the value at row i, column j, growing backing storage
	// as required by the concrete implementation.
	Set(i, j int, v float64)

	// NNZ returns the number of non-zero values the block currently
	// holds. For sparse blocks this is exact; for dense blocks it must
	// be refreshed with RecomputeNonZeros after bulk mutation.
	NNZ() int

	// IsSparse reports whether the block uses a sparse backing
	// representation.
	IsSparse() bool

	// Dense returns a dense copy of the block, never sharing storage
	// with the receiver.
	Dense() *mat.Dense

	// RecomputeNonZeros rescans the block's backing storage and
	// returns the true non-zero count, updating any cached value.
	RecomputeNonZeros() int

	// SortSparseRows normalises a sparse block's per-row column
	// indices into ascending order. A no-op for dense blocks.
	SortSparseRows()

	// Clone returns a deep copy sharing no backing storage with the
	// receiver.
	Clone() MatrixBlock

	// Scale returns a new block with every element multiplied by
	// alpha.
	Scale(alpha float64) MatrixBlock

	// Apply returns a new block with f applied element-wise. The
	// implementation is free to keep the result sparse only when f(0)
	// == 0 for every row with implicit zeros.
	Apply(f func(v float64) float64) MatrixBlock

	// Add returns the element-wise sum of the receiver and other.
	Add(other MatrixBlock) MatrixBlock

	// MatMul returns the matrix product of the receiver and other.
	MatMul(other MatrixBlock) MatrixBlock
}

// NewZeroBlock returns an empty block with a backing representation chosen
// by density: dense when density exceeds the conventional 10% sparse/dense
// crossover, sparse otherwise.
func NewZeroBlock(r, c int, density float64) MatrixBlock {
	if density > 0.1 {
		return NewDenseBlock(r, c, nil)
	}
	return NewSparseBlock(r, c)
}

// triplet is a single (row, col, value) coordinate, the creational unit
// used by SparseBuilder to accumulate entries before compressing them into
// a SparseBlock's row-compressed backing storage.
type triplet struct {
	i, j int
	v    float64
}

// SparseBuilder accumulates (row, column, value) triplets in arbitrary
// order, the way a COOrdinate/triplet matrix format is typically built, and
// compiles them into a row-compressed SparseBlock on Build. It is the
// preferred way to construct a SparseBlock incrementally; SparseBlock's own
// Set method is better suited to occasional, already-mostly-sorted updates.
type SparseBuilder struct {
	r, c     int
	entries  []triplet
}

// NewSparseBuilder returns a builder for an r x c sparse block.
func NewSparseBuilder(r, c int) *SparseBuilder {
	return &SparseBuilder{r: r, c: c}
}

// Add appends a (possibly duplicate) non-zero entry. Zero values are
// dropped, matching this package's implicit-zero convention.
func (b *SparseBuilder) Add(i, j int, v float64) {
	if v == 0 {
		return
	}
	b.entries = append(b.entries, triplet{i, j, v})
}

// Build compiles the accumulated triplets into a SparseBlock with rows
// sorted by column index. Duplicate (i, j) pairs are summed, matching COO
// semantics when converted to a compressed row format.
func (b *SparseBuilder) Build() *SparseBlock {
	sort.Slice(b.entries, func(x, y int) bool {
		if b.entries[x].i != b.entries[y].i {
			return b.entries[x].i < b.entries[y].i
		}
		return b.entries[x].j < b.entries[y].j
	})

	indptr := make([]int, b.r+1)
	ind := make([]int, 0, len(b.entries))
	data := make([]float64, 0, len(b.entries))

	row := 0
	for _, t := range b.entries {
		for row < t.i {
			indptr[row+1] = len(data)
			row++
		}
		if n := len(data); n > indptr[row] && ind[n-1] == t.j && row == t.i {
			data[n-1] += t.v
			continue
		}
		ind = append(ind, t.j)
		data = append(data, t.v)
	}
	for row < b.r {
		indptr[row+1] = len(data)
		row++
	}

	return &SparseBlock{i: b.r, j: b.c, indptr: indptr, ind: ind, data: data}
}
