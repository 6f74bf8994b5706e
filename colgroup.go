package cmat

import (
	"math"
	"sort"
)

// groupKind tags which of the three ColumnGroup variants a group is, both
// for dispatch and as the on-disk type byte (§6): 0 = uncompressed,
// 1 = OLE, 2 = RLE.
type groupKind uint8

const (
	kindUncompressed groupKind = iota
	kindOLE
	kindRLE
)

// AggOp selects the reduction applied by ColumnGroup.UnaryAggregate.
type AggOp int

const (
	AggSum AggOp = iota
	AggSumSq
	AggMin
	AggMax
)

// ReduceShape selects which axis UnaryAggregate reduces over.
type ReduceShape int

const (
	// ReduceAll reduces every selected cell to a single scalar.
	ReduceAll ReduceShape = iota
	// ReduceRow reduces each row independently, producing one value per
	// row in the caller's output slice.
	ReduceRow
	// ReduceCol reduces each column independently, producing one value
	// per (global) column in the caller's output slice.
	ReduceCol
)

// identity returns the neutral element combined with other values for op.
func (op AggOp) identity() float64 {
	switch op {
	case AggMin:
		return math.Inf(1)
	case AggMax:
		return math.Inf(-1)
	default:
		return 0
	}
}

// combine folds a single raw cell value v into accumulator acc, applying
// op's per-cell transform — SumSq squares v before accumulating, so callers
// always pass the raw value, never v*v themselves.
func (op AggOp) combine(acc, v float64) float64 {
	switch op {
	case AggSum:
		return acc + v
	case AggSumSq:
		return acc + v*v
	case AggMin:
		if v < acc {
			return v
		}
		return acc
	case AggMax:
		if v > acc {
			return v
		}
		return acc
	}
	return acc
}

// combineN folds n occurrences of raw value v into acc at once, for a bitmap
// group's tuple known to cover n rows without walking each one individually.
// Sum/SumSq scale by n; Min/Max defer to a single combine since repeating an
// already-seen value can never change either result.
func (op AggOp) combineN(acc, v float64, n int) float64 {
	switch op {
	case AggSum:
		return acc + v*float64(n)
	case AggSumSq:
		return acc + v*v*float64(n)
	default:
		return op.combine(acc, v)
	}
}

// merge folds two partial accumulators of the same op into one — used when
// joining parallel worker partials that already reflect op's semantics (two
// partial sums, two partial sums-of-squares), as opposed to combine, which
// folds in one more raw, unprocessed cell value.
func (op AggOp) merge(a, b float64) float64 {
	switch op {
	case AggSum, AggSumSq:
		return a + b
	case AggMin:
		if b < a {
			return b
		}
		return a
	case AggMax:
		if b > a {
			return b
		}
		return a
	}
	return a
}

// ScalarOp describes an element-wise scalar operation applied to a
// ColumnGroup. PreservesZero must be true iff Apply(0) == 0 — scalar ops
// that break that (e.g. "+ 1") cannot be represented by a bitmap group
// whose rows rely on implicit zeros without either materialising the zero
// tuple or falling back to an Uncompressed result (spec.md §4.4, §9).
type ScalarOp struct {
	Apply         func(v float64) float64
	PreservesZero bool
}

// ColumnGroup is the shared capability set implemented by each of the three
// encoding variants (spec.md §9): a tagged union in place of subclass
// polymorphism over a common column-group base class.
type ColumnGroup interface {
	// Kind reports which variant this group is.
	Kind() groupKind

	// Columns returns the sorted, ascending global column indices this
	// group covers.
	Columns() []int

	// NumRows returns R, the row count of the logical matrix this group
	// is a slice of.
	NumRows() int

	// Get returns the value at logical row r, global column c. c must
	// be one of Columns().
	Get(r, c int) float64

	// DecompressInto writes this group's columns into rows [rl, ru) of
	// dst, which must already be sized to the full R x C logical
	// matrix, via repeated Set calls.
	DecompressInto(dst MatrixBlock, rl, ru int)

	// CountNonZerosPerRow adds, for rows [rl, ru), the number of this
	// group's non-zero cells in that row to counts[r].
	CountNonZerosPerRow(counts []int, rl, ru int)

	// RightMultByVector adds sum_c A[r,c]*v[c] into out[r] for rows
	// [rl, ru), where v and out are full-width (length C and R
	// respectively). out must be zero-initialised by the caller; every
	// group, regardless of variant, adds its contribution rather than
	// overwriting, since a matrix can hold more than one Uncompressed
	// group.
	RightMultByVector(v, out []float64, rl, ru int)

	// LeftMultByVector computes out[c] += sum_r vRow[r]*A[r,c] for each
	// column c in the group. vRow is full-width (length R), out is
	// full-width (length C).
	LeftMultByVector(vRow, out []float64)

	// LeftMultBySparseVector is LeftMultByVector's fast path for a row
	// vector known to be mostly zero: it visits only v's non-zero rows
	// instead of scanning every row the group covers.
	LeftMultBySparseVector(v *SparseVector, out []float64)

	// UnaryAggregate folds this group's cells (those in rows [rl, ru))
	// using op, combining into out according to shape. For ReduceAll,
	// out has length 1. For ReduceRow, out has length R and only rows
	// [rl, ru) are touched. For ReduceCol, out has length C (global)
	// and only this group's columns are touched.
	UnaryAggregate(op AggOp, shape ReduceShape, out []float64, rl, ru int)

	// ScalarOperation applies op to every logical cell (including
	// implicit zeros) and returns the resulting group, which may be a
	// different variant than the receiver.
	ScalarOperation(op ScalarOp) ColumnGroup

	// EncodedSize returns this group's actual encoded byte size (stream
	// plus skip table for OLE/RLE, the dense/sparse sub-block's footprint
	// for Uncompressed). CompressedMatrix.UnaryAggregate sums it to decide
	// whether to split work across workers.
	EncodedSize() int64

	// NNZ returns the exact non-zero cell count this group contributes.
	NNZ() int
}

// localIndex returns the position of global column c within the ascending
// cols slice, or -1 if c is not present.
func localIndex(cols []int, c int) int {
	i := sort.SearchInts(cols, c)
	if i < len(cols) && cols[i] == c {
		return i
	}
	return -1
}

