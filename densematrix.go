package cmat

import "gonum.org/v1/gonum/mat"

// DenseBlock is a MatrixBlock backed by a gonum mat.Dense, storing every
// cell including zeros. It is the fallback representation columns land in
// when they do not compress profitably.
type DenseBlock struct {
	m   *mat.Dense
	nnz int
}

// NewDenseBlock returns a new r x c dense block. If data is non-nil it is
// used as the initial row-major backing values (copied), otherwise the
// block starts at all zeros.
func NewDenseBlock(r, c int, data []float64) *DenseBlock {
	d := &DenseBlock{m: mat.NewDense(r, c, nil)}
	if data != nil {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v := data[i*c+j]
				if v != 0 {
					d.m.Set(i, j, v)
					d.nnz++
				}
			}
		}
	}
	return d
}

// Dims returns the block's dimensions.
func (d *DenseBlock) Dims() (int, int) { return d.m.Dims() }

// At returns the element at row i, column j.
func (d *DenseBlock) At(i, j int) float64 { return d.m.At(i, j) }

// T returns the transpose of the block as a mat.Matrix view.
func (d *DenseBlock) T() mat.Matrix { return d.m.T() }

// Set assigns the value at row i, column j, tracking the non-zero count
// incrementally.
func (d *DenseBlock) Set(i, j int, v float64) {
	old := d.m.At(i, j)
	if old != 0 && v == 0 {
		d.nnz--
	} else if old == 0 && v != 0 {
		d.nnz++
	}
	d.m.Set(i, j, v)
}

// NNZ returns the cached non-zero count.
func (d *DenseBlock) NNZ() int { return d.nnz }

// IsSparse always reports false for DenseBlock.
func (d *DenseBlock) IsSparse() bool { return false }

// RawRow returns row i's backing values directly, without copying. The
// slice aliases the block's storage and must not be retained past the next
// mutation.
func (d *DenseBlock) RawRow(i int) []float64 {
	return d.m.RawRowView(i)
}

// Dense returns a copy of the block's backing matrix.
func (d *DenseBlock) Dense() *mat.Dense {
	r, c := d.m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(d.m)
	return out
}

// RecomputeNonZeros rescans every cell and refreshes the cached count.
func (d *DenseBlock) RecomputeNonZeros() int {
	r, c := d.m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if d.m.At(i, j) != 0 {
				n++
			}
		}
	}
	d.nnz = n
	return n
}

// SortSparseRows is a no-op for dense blocks.
func (d *DenseBlock) SortSparseRows() {}

// Clone returns a deep copy of the block.
func (d *DenseBlock) Clone() MatrixBlock {
	return &DenseBlock{m: d.Dense(), nnz: d.nnz}
}

// Scale returns a new block with every element multiplied by alpha.
func (d *DenseBlock) Scale(alpha float64) MatrixBlock {
	r, c := d.m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Scale(alpha, d.m)
	db := &DenseBlock{m: out}
	db.RecomputeNonZeros()
	return db
}

// Apply returns a new block with f applied element-wise.
func (d *DenseBlock) Apply(f func(v float64) float64) MatrixBlock {
	r, c := d.m.Dims()
	out := NewDenseBlock(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, f(d.m.At(i, j)))
		}
	}
	return out
}

// Add returns the element-wise sum of the receiver and other.
func (d *DenseBlock) Add(other MatrixBlock) MatrixBlock {
	r, c := d.m.Dims()
	out := NewDenseBlock(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, d.m.At(i, j)+other.At(i, j))
		}
	}
	return out
}

// MatMul returns the matrix product of the receiver and other.
func (d *DenseBlock) MatMul(other MatrixBlock) MatrixBlock {
	r, _ := d.m.Dims()
	_, c := other.Dims()
	out := mat.NewDense(r, c, nil)
	out.Mul(d.m, other)
	db := &DenseBlock{m: out}
	db.RecomputeNonZeros()
	return db
}
