package cmat

import (
	"fmt"
	"log/slog"
)

// RightMultByVector computes A*v for the CompressedMatrix, allocating a
// dense R-length result. Every group — Uncompressed or bitmap (OLE/RLE) —
// adds its contribution into the zero-initialised result (spec.md §4.4,
// §4.5); a matrix can hold more than one Uncompressed group (CBind, a
// zero-breaking ScalarOperation), so overwriting would drop all but the
// last one's contribution. Groups are partitioned by row range across
// workers, so each worker owns an exclusive slice of out. A workers value
// <= 1 runs single-threaded.
func (m *CompressedMatrix) RightMultByVector(v []float64, workers int) ([]float64, error) {
	if len(v) != m.c {
		return nil, &InvariantError{msg: "cmat: RightMultByVector: vector length does not match column count"}
	}
	out := make([]float64, m.r)

	blocks := partitionRows(m.r, workers)
	err := runPool(workers, len(blocks), func(bi int) error {
		rl, ru := blocks[bi][0], blocks[bi][1]
		for _, g := range m.groups {
			g.RightMultByVector(v, out, rl, ru)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LeftMultByVector computes vᵀ*A (a length-R row vector times A), returning
// a dense C-length result. Single-threaded delegates to each group in turn;
// the multi-threaded variant assigns one task per group since groups own
// disjoint columns and so write disjoint output positions (spec.md §4.5).
func (m *CompressedMatrix) LeftMultByVector(vRow []float64, workers int) ([]float64, error) {
	if len(vRow) != m.r {
		return nil, &InvariantError{msg: "cmat: LeftMultByVector: vector length does not match row count"}
	}
	out := make([]float64, m.c)

	err := runPool(workers, len(m.groups), func(i int) error {
		m.groups[i].LeftMultByVector(vRow, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LeftMultBySparseVector is LeftMultByVector's fast path for a row vector
// known to be mostly zero (e.g. a OneHot row selector): it visits only v's
// non-zero rows instead of scanning every row of every group, so its cost
// scales with v's non-zero count rather than R (spec.md §4.4). Workers is
// used exactly as in LeftMultByVector: one task per group, safe because
// groups own disjoint columns.
func (m *CompressedMatrix) LeftMultBySparseVector(v *SparseVector, workers int) ([]float64, error) {
	if v.Len() != m.r {
		return nil, &InvariantError{msg: "cmat: LeftMultBySparseVector: vector length does not match row count"}
	}
	out := make([]float64, m.c)

	err := runPool(workers, len(m.groups), func(i int) error {
		m.groups[i].LeftMultBySparseVector(v, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MMChain computes Xᵀ(w⊙(X·v)), reusing RightMultByVector and
// LeftMultByVector (spec.md §4.5). w may be nil to skip the elementwise
// scale.
func (m *CompressedMatrix) MMChain(v, w []float64, workers int) ([]float64, error) {
	t, err := m.RightMultByVector(v, workers)
	if err != nil {
		return nil, err
	}
	if w != nil {
		if len(w) != m.r {
			return nil, &InvariantError{msg: "cmat: MMChain: weight vector length does not match row count"}
		}
		for i := range t {
			t[i] *= w[i]
		}
	}
	return m.LeftMultByVector(t, workers)
}

// TSMM computes Xᵀ·X, a C×C matrix stored densely in row-major order
// (spec.md §4.5: "for each group i, for each column j within group i,
// decompress that column into a dense vector lhs, then compute
// lhsᵀ·X[:, cols≥col_j] using left-mv over groups [i, end)"). Each output
// row belongs to exactly one global column index, so partitioning the outer
// loop by column (rather than by group) gives every task an exclusive,
// disjoint output row with no cross-task writes, satisfying the "each
// output cell written exactly once" guarantee trivially. Right-side
// transpose-self-multiply (X·Xᵀ) is not supported (spec.md §1 Non-goals).
func (m *CompressedMatrix) TSMM(workers int) ([]float64, error) {
	out := make([]float64, m.c*m.c)

	err := runPool(workers, m.c, func(col int) error {
		lhs := getFloats(m.r, true)
		defer putFloats(lhs)
		for r := 0; r < m.r; r++ {
			lhs[r] = m.Get(r, col)
		}
		row := out[col*m.c : col*m.c+m.c]
		for _, g := range m.groups {
			g.LeftMultByVector(lhs, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the value at (r,c), delegating to whichever group covers c.
func (m *CompressedMatrix) Get(r, c int) float64 {
	for _, g := range m.groups {
		if localIndex(g.Columns(), c) >= 0 {
			return g.Get(r, c)
		}
	}
	return 0
}

// UnaryAggregate folds every selected cell of the compressed matrix using
// op, according to shape. For ReduceAll the result has length 1; for
// ReduceRow length R; for ReduceCol length C. If the matrix's estimated
// encoded size exceeds MinParAggThreshold and workers > 1, work is split by
// row range (ReduceCol) or by group (otherwise), matching spec.md §4.5.
func (m *CompressedMatrix) UnaryAggregate(op AggOp, shape ReduceShape, workers int) ([]float64, error) {
	outLen := 1
	switch shape {
	case ReduceRow:
		outLen = m.r
	case ReduceCol:
		outLen = m.c
	}

	estSize := int64(0)
	for _, g := range m.groups {
		estSize += g.EncodedSize()
	}

	if workers <= 1 || estSize < MinParAggThreshold {
		out := make([]float64, outLen)
		fillIdentity(out, op)
		for _, g := range m.groups {
			g.UnaryAggregate(op, shape, out, 0, m.r)
		}
		return out, nil
	}

	if shape == ReduceCol {
		blocks := partitionRows(m.r, workers)
		partials := make([][]float64, len(blocks))
		err := runPool(workers, len(blocks), func(bi int) error {
			p := getFloats(outLen, false)
			fillIdentity(p, op)
			rl, ru := blocks[bi][0], blocks[bi][1]
			for _, g := range m.groups {
				g.UnaryAggregate(op, shape, p, rl, ru)
			}
			partials[bi] = p
			return nil
		})
		if err != nil {
			return nil, err
		}
		out := make([]float64, outLen)
		fillIdentity(out, op)
		for _, p := range partials {
			for i := range out {
				out[i] = op.merge(out[i], p[i])
			}
			putFloats(p)
		}
		return out, nil
	}

	partials := make([][]float64, len(m.groups))
	err := runPool(workers, len(m.groups), func(i int) error {
		p := getFloats(outLen, false)
		fillIdentity(p, op)
		m.groups[i].UnaryAggregate(op, shape, p, 0, m.r)
		partials[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, outLen)
	fillIdentity(out, op)
	for _, p := range partials {
		for i := range out {
			out[i] = op.merge(out[i], p[i])
		}
		putFloats(p)
	}
	return out, nil
}

func fillIdentity(out []float64, op AggOp) {
	id := op.identity()
	for i := range out {
		out[i] = id
	}
}

// ScalarOperation maps to each group's own ScalarOperation and reassembles a
// CompressedMatrix. nnz is recomputed conservatively as R*C when op may
// introduce non-zeros into implicit zeros (spec.md §4.5); otherwise it is
// the exact sum of the resulting groups' NNZ.
func (m *CompressedMatrix) ScalarOperation(op ScalarOp) *CompressedMatrix {
	newGroups := make([]ColumnGroup, len(m.groups))
	for i, g := range m.groups {
		newGroups[i] = g.ScalarOperation(op)
	}

	nnz := m.r * m.c
	if op.PreservesZero {
		nnz = 0
		for _, g := range newGroups {
			nnz += g.NNZ()
		}
	}

	return &CompressedMatrix{r: m.r, c: m.c, nnz: nnz, groups: newGroups}
}

// CBind appends other's columns after the receiver's, shifting other's
// column indices by m.C(). No re-co-coding is performed (spec.md §4.5).
// other must already be a CompressedMatrix; CBind accepts no uncompressed
// block and compresses nothing itself.
func (m *CompressedMatrix) CBind(other *CompressedMatrix) *CompressedMatrix {
	groups := make([]ColumnGroup, 0, len(m.groups)+len(other.groups))
	groups = append(groups, m.groups...)
	for _, g := range other.groups {
		groups = append(groups, shiftColumns(g, m.c))
	}
	return &CompressedMatrix{r: m.r, c: m.c + other.c, nnz: m.nnz + other.nnz, groups: groups}
}

// shiftColumns returns a group identical to g but with every column index
// shifted by delta, used by CBind.
func shiftColumns(g ColumnGroup, delta int) ColumnGroup {
	shifted := make([]int, len(g.Columns()))
	for i, c := range g.Columns() {
		shifted[i] = c + delta
	}
	switch v := g.(type) {
	case *oleGroup:
		return &oleGroup{bitmapGroup: bitmapGroup{kind: kindOLE, cols: shifted, rowCount: v.rowCount, tuples: v.tuples, stream: v.stream}}
	case *rleGroup:
		return &rleGroup{bitmapGroup: bitmapGroup{kind: kindRLE, cols: shifted, rowCount: v.rowCount, tuples: v.tuples, stream: v.stream}}
	case *uncompressedGroup:
		return &uncompressedGroup{cols: shifted, rowCount: v.rowCount, sub: v.sub}
	}
	panic(fmt.Sprintf("cmat: unknown ColumnGroup implementation %T", g))
}

// Fallback decompresses the matrix into dst (already shaped R x C with
// sparse row capacity preallocated if needed) and returns it, for any
// operation not natively supported on the compressed form (spec.md §4.5:
// "any operation not listed ... decompresses into a fresh uncompressed
// block and delegates. A warning is logged once per call").
func (m *CompressedMatrix) Fallback(op string, dst MatrixBlock) MatrixBlock {
	slog.Warn("cmat: operation not supported on compressed form, decompressing", "op", op)
	m.Decompress(dst)
	return dst
}
