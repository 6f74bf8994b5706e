package cmat

import "github.com/gonum/floats"

// uncompressedGroup wraps a sub-matrix verbatim for columns that do not
// compress profitably. Its sub block is addressed by local column
// position (0..len(cols)-1), not global column index.
type uncompressedGroup struct {
	cols     []int
	rowCount int
	sub      MatrixBlock
}

// NewUncompressedGroup returns an Uncompressed column group over cols. If
// sub is nil a new, empty sparse sub-matrix of shape rowCount x len(cols)
// is allocated.
func NewUncompressedGroup(cols []int, rowCount int, sub MatrixBlock) *uncompressedGroup {
	if sub == nil {
		sub = NewSparseBlock(rowCount, len(cols))
	}
	return &uncompressedGroup{cols: append([]int(nil), cols...), rowCount: rowCount, sub: sub}
}

func (g *uncompressedGroup) Kind() groupKind { return kindUncompressed }
func (g *uncompressedGroup) Columns() []int  { return g.cols }
func (g *uncompressedGroup) NumRows() int    { return g.rowCount }

func (g *uncompressedGroup) Get(r, c int) float64 {
	li := localIndex(g.cols, c)
	if li < 0 {
		return 0
	}
	return g.sub.At(r, li)
}

// DecompressInto copies rows [rl, ru) of the sub-matrix into dst at this
// group's global column positions.
func (g *uncompressedGroup) DecompressInto(dst MatrixBlock, rl, ru int) {
	for r := rl; r < ru; r++ {
		for li, c := range g.cols {
			if v := g.sub.At(r, li); v != 0 {
				dst.Set(r, c, v)
			}
		}
	}
}

func (g *uncompressedGroup) CountNonZerosPerRow(counts []int, rl, ru int) {
	for r := rl; r < ru; r++ {
		for li := range g.cols {
			if g.sub.At(r, li) != 0 {
				counts[r]++
			}
		}
	}
}

// RightMultByVector adds this group's contribution to out[r] for r in
// [rl, ru) (spec.md §4.4). A matrix can have more than one Uncompressed
// group — CBind and a zero-breaking ScalarOperation both produce them — so
// every group, Uncompressed or bitmap, must add rather than overwrite; out
// is zero-initialised by the caller. For a dense sub-block, each row's
// cells are contiguous, so the projection is a gather-then-dot rather than
// a manual cell-by-cell sum.
func (g *uncompressedGroup) RightMultByVector(v, out []float64, rl, ru int) {
	dense, ok := g.sub.(*DenseBlock)
	if !ok {
		for r := rl; r < ru; r++ {
			var s float64
			for li, c := range g.cols {
				s += g.sub.At(r, li) * v[c]
			}
			out[r] += s
		}
		return
	}

	gathered := getFloats(len(g.cols), false)
	defer putFloats(gathered)
	for li, c := range g.cols {
		gathered[li] = v[c]
	}
	for r := rl; r < ru; r++ {
		out[r] += floats.Dot(dense.RawRow(r), gathered)
	}
}

func (g *uncompressedGroup) LeftMultByVector(vRow, out []float64) {
	for r := 0; r < g.rowCount; r++ {
		vr := vRow[r]
		if vr == 0 {
			continue
		}
		for li, c := range g.cols {
			if val := g.sub.At(r, li); val != 0 {
				out[c] += vr * val
			}
		}
	}
}

// LeftMultBySparseVector adds sum_i v[i]*A[i,c] into out[c] for this
// group's columns, visiting only v's non-zero rows instead of every row
// in the sub-block.
func (g *uncompressedGroup) LeftMultBySparseVector(v *SparseVector, out []float64) {
	v.DoNonZero(func(row int, val float64) {
		if row >= g.rowCount || val == 0 {
			return
		}
		for li, c := range g.cols {
			if x := g.sub.At(row, li); x != 0 {
				out[c] += val * x
			}
		}
	})
}

func (g *uncompressedGroup) UnaryAggregate(op AggOp, shape ReduceShape, out []float64, rl, ru int) {
	switch shape {
	case ReduceAll:
		acc := out[0]
		for r := rl; r < ru; r++ {
			for li := range g.cols {
				acc = op.combine(acc, g.sub.At(r, li))
			}
		}
		out[0] = acc
	case ReduceRow:
		for r := rl; r < ru; r++ {
			acc := out[r]
			for li := range g.cols {
				acc = op.combine(acc, g.sub.At(r, li))
			}
			out[r] = acc
		}
	case ReduceCol:
		for li, c := range g.cols {
			acc := out[c]
			for r := rl; r < ru; r++ {
				acc = op.combine(acc, g.sub.At(r, li))
			}
			out[c] = acc
		}
	}
}

// ScalarOperation applies op to every cell of the sub-matrix, including
// stored zeros, since an Uncompressed group makes no implicit-zero
// assumption.
func (g *uncompressedGroup) ScalarOperation(op ScalarOp) ColumnGroup {
	out := NewUncompressedGroup(g.cols, g.rowCount, nil)
	for r := 0; r < g.rowCount; r++ {
		for li := range g.cols {
			out.sub.Set(r, li, op.Apply(g.sub.At(r, li)))
		}
	}
	return out
}

// NNZ returns the true non-zero count of the sub-matrix.
func (g *uncompressedGroup) NNZ() int {
	return g.sub.RecomputeNonZeros()
}

// EncodedSize returns the sub-block's footprint: 8 bytes per stored cell for
// a dense sub-block, or 8+8 bytes (value plus column index) per non-zero for
// a sparse one.
func (g *uncompressedGroup) EncodedSize() int64 {
	if g.sub.IsSparse() {
		return int64(g.sub.RecomputeNonZeros()) * 16
	}
	r, c := g.sub.Dims()
	return int64(r*c) * 8
}
