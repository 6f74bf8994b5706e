package cmat

import "github.com/dstanek/cmat/blas"

// bitmapStream abstracts the encoding-specific (OLE or RLE) storage for one
// column group's tuples, so DecompressInto/CountNonZerosPerRow/
// RightMultByVector/LeftMultByVector/UnaryAggregate/ScalarOperation need be
// written only once and shared by both variants (spec.md §9: a tagged
// variant in place of duplicated subclasses).
type bitmapStream interface {
	// forEachInRange calls fn(row) for every row in [rl, ru) at which
	// tuple ti is present, in ascending order.
	forEachInRange(ti, rl, ru int, fn func(row int))

	// countInRange returns the number of rows in [rl, ru) at which
	// tuple ti is present.
	countInRange(ti, rl, ru int) int

	// byteSize returns tuple ti's encoded stream size in bytes
	// (offset/run stream plus its skip table), used by EncodedSize.
	byteSize(ti int) int64

	// contains reports whether row is covered by tuple ti.
	contains(ti, row int) bool
}

// bitmapGroup holds the state common to the OLE and RLE variants: the
// group's columns, row count, distinct tuple values, and an
// encoding-specific stream. oleGroup and rleGroup embed it and add their
// own Get and serialization methods.
type bitmapGroup struct {
	kind     groupKind
	cols     []int
	rowCount int
	tuples   [][]float64
	stream   bitmapStream
}

func (g *bitmapGroup) Kind() groupKind { return g.kind }
func (g *bitmapGroup) Columns() []int  { return g.cols }
func (g *bitmapGroup) NumRows() int    { return g.rowCount }

// EncodedSize returns the total encoded byte size across all tuples.
func (g *bitmapGroup) EncodedSize() int64 {
	var n int64
	for ti := range g.tuples {
		n += g.stream.byteSize(ti)
	}
	return n
}

// NNZ returns the number of non-zero cells contributed by this group: for
// each tuple, its row count times the number of non-zero values in the
// tuple.
func (g *bitmapGroup) NNZ() int {
	n := 0
	for ti, tuple := range g.tuples {
		nz := 0
		for _, v := range tuple {
			if v != 0 {
				nz++
			}
		}
		if nz == 0 {
			continue
		}
		n += g.stream.countInRange(ti, 0, g.rowCount) * nz
	}
	return n
}

// DecompressInto writes every tuple's values into dst at the rows it
// covers within [rl, ru).
func (g *bitmapGroup) DecompressInto(dst MatrixBlock, rl, ru int) {
	for ti, tuple := range g.tuples {
		g.stream.forEachInRange(ti, rl, ru, func(row int) {
			for li, c := range g.cols {
				if tuple[li] != 0 {
					dst.Set(row, c, tuple[li])
				}
			}
		})
	}
}

// CountNonZerosPerRow adds this group's per-row non-zero contribution for
// rows in [rl, ru) to counts.
func (g *bitmapGroup) CountNonZerosPerRow(counts []int, rl, ru int) {
	for ti, tuple := range g.tuples {
		nz := 0
		for _, v := range tuple {
			if v != 0 {
				nz++
			}
		}
		if nz == 0 {
			continue
		}
		g.stream.forEachInRange(ti, rl, ru, func(row int) {
			counts[row] += nz
		})
	}
}

// RightMultByVector adds, for each tuple, its scalar projection against v
// to out at every row the tuple covers within [rl, ru) (spec.md §4.4). The
// all-ones operand blas.Dusaxpy needs is sized once to the widest possible
// offset list (ru-rl) and reused across every tuple, rather than
// reallocated and refilled per tuple.
func (g *bitmapGroup) RightMultByVector(v, out []float64, rl, ru int) {
	ones := getFloats(ru-rl, false)
	defer putFloats(ones)
	for i := range ones {
		ones[i] = 1
	}

	for ti, tuple := range g.tuples {
		var s float64
		for li, c := range g.cols {
			s += tuple[li] * v[c]
		}
		if s == 0 {
			continue
		}

		offsets := getInts(0, false)[:0]
		g.stream.forEachInRange(ti, rl, ru, func(row int) {
			offsets = append(offsets, row)
		})
		if len(offsets) == 0 {
			putInts(offsets)
			continue
		}
		blas.Dusaxpy(s, ones[:len(offsets)], offsets, out, 1)
		putInts(offsets)
	}
}

// LeftMultByVector adds, for each tuple, the sum of vRow over the rows it
// covers, scaled by the tuple's value, to out at each of this group's
// columns. The all-ones operand blas.Dusdot needs is sized once to the
// widest possible offset list (rowCount) and reused across every tuple.
func (g *bitmapGroup) LeftMultByVector(vRow, out []float64) {
	ones := getFloats(g.rowCount, false)
	defer putFloats(ones)
	for i := range ones {
		ones[i] = 1
	}

	for ti, tuple := range g.tuples {
		offsets := getInts(0, false)[:0]
		g.stream.forEachInRange(ti, 0, g.rowCount, func(row int) {
			offsets = append(offsets, row)
		})
		if len(offsets) == 0 {
			putInts(offsets)
			continue
		}
		s := blas.Dusdot(ones[:len(offsets)], offsets, vRow, 1)
		putInts(offsets)
		if s == 0 {
			continue
		}
		for li, c := range g.cols {
			if tuple[li] != 0 {
				out[c] += s * tuple[li]
			}
		}
	}
}

// LeftMultBySparseVector adds sum_i v[i]*A[i,c] into out[c] for this
// group's columns, visiting only v's non-zero rows instead of scanning
// every row every tuple covers — the fast path a sparse row vector (e.g.
// a one-hot row selector) is for. A row belongs to at most one tuple in
// the group, so the tuple search stops at the first match.
func (g *bitmapGroup) LeftMultBySparseVector(v *SparseVector, out []float64) {
	v.DoNonZero(func(row int, val float64) {
		if row >= g.rowCount || val == 0 {
			return
		}
		for ti, tuple := range g.tuples {
			if !g.stream.contains(ti, row) {
				continue
			}
			for li, c := range g.cols {
				if tuple[li] != 0 {
					out[c] += val * tuple[li]
				}
			}
			break
		}
	})
}

// UnaryAggregate folds this group's cells using op. For Min/Max, any row in
// [rl, ru) not covered by any tuple contributes an implicit zero to the
// reduction exactly once (spec.md §4.4); Sum/SumSq need no such handling
// since zero never changes a running sum.
func (g *bitmapGroup) UnaryAggregate(op AggOp, shape ReduceShape, out []float64, rl, ru int) {
	covered := 0
	for ti := range g.tuples {
		covered += g.stream.countInRange(ti, rl, ru)
	}
	hasImplicitZero := covered < ru-rl

	switch shape {
	case ReduceAll:
		acc := out[0]
		for ti, tuple := range g.tuples {
			count := g.stream.countInRange(ti, rl, ru)
			if count == 0 {
				continue
			}
			for _, v := range tuple {
				acc = op.combineN(acc, v, count)
			}
		}
		if hasImplicitZero && (op == AggMin || op == AggMax) {
			acc = op.combine(acc, 0)
		}
		out[0] = acc

	case ReduceRow:
		for ti, tuple := range g.tuples {
			g.stream.forEachInRange(ti, rl, ru, func(row int) {
				for _, v := range tuple {
					out[row] = op.combine(out[row], v)
				}
			})
		}
		if hasImplicitZero && (op == AggMin || op == AggMax) {
			seen := newBitset(ru)
			for ti := range g.tuples {
				g.stream.forEachInRange(ti, rl, ru, func(row int) { seen.set(row) })
			}
			for r := rl; r < ru; r++ {
				if !seen.test(r) {
					out[r] = op.combine(out[r], 0)
				}
			}
		}

	case ReduceCol:
		for ti, tuple := range g.tuples {
			count := g.stream.countInRange(ti, rl, ru)
			if count == 0 {
				continue
			}
			for li, c := range g.cols {
				out[c] = op.combineN(out[c], tuple[li], count)
			}
		}
		if hasImplicitZero && (op == AggMin || op == AggMax) {
			for _, c := range g.cols {
				out[c] = op.combine(out[c], 0)
			}
		}
	}
}

// ScalarOperation applies op to every tuple value (metadata-only) when op
// preserves zero, so implicit zero rows are unaffected. When op does not
// preserve zero, every row implicitly zero for this group would need to
// become op.Apply(0) != 0 — materialising that many rows would likely
// exceed the group's sparse budget, so the group falls back to an
// Uncompressed result instead (spec.md §4.4, §9).
func (g *bitmapGroup) ScalarOperation(op ScalarOp) ColumnGroup {
	if op.PreservesZero {
		newTuples := make([][]float64, len(g.tuples))
		for ti, tuple := range g.tuples {
			nt := make([]float64, len(tuple))
			for li, v := range tuple {
				nt[li] = op.Apply(v)
			}
			newTuples[ti] = nt
		}
		switch g.kind {
		case kindOLE:
			return &oleGroup{bitmapGroup: bitmapGroup{kind: kindOLE, cols: g.cols, rowCount: g.rowCount, tuples: newTuples, stream: g.stream}}
		case kindRLE:
			return &rleGroup{bitmapGroup: bitmapGroup{kind: kindRLE, cols: g.cols, rowCount: g.rowCount, tuples: newTuples, stream: g.stream}}
		}
	}

	// op does not preserve zero: materialise every logical cell of this
	// group (including implicit zeros, local to this group's column
	// positions) and apply op to the dense result.
	full := NewDenseBlock(g.rowCount, len(g.cols), nil)
	for ti, tuple := range g.tuples {
		g.stream.forEachInRange(ti, 0, g.rowCount, func(row int) {
			for li, v := range tuple {
				if v != 0 {
					full.Set(row, li, v)
				}
			}
		})
	}

	out := NewUncompressedGroup(g.cols, g.rowCount, nil)
	for r := 0; r < g.rowCount; r++ {
		for li := range g.cols {
			out.sub.Set(r, li, op.Apply(full.At(r, li)))
		}
	}
	return out
}
