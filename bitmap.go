package cmat

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Source is the minimal read surface Bitmap extraction, size estimation, and
// co-coding need from a matrix: its shape and per-cell values. MatrixBlock
// satisfies it automatically; Compress's transposedView working view implements
// only this much, since it is read-only and never reaches the rest of the
// MatrixBlock surface.
type Source interface {
	Dims() (int, int)
	At(i, j int) float64
}

// Bitmap is the transient, compression-time representation of a candidate
// column set: the distinct value tuples that appear across those columns,
// and for each tuple the sorted, strictly-increasing list of row indices at
// which it occurs. The all-zero tuple is never recorded. Bitmap exists only
// during Compress; it is never part of a serialized or persisted
// CompressedMatrix.
type Bitmap struct {
	Cols   []int
	Tuples [][]float64
	Rows   [][]int
}

// Cardinality returns the number of distinct (non-zero) tuples observed.
func (b *Bitmap) Cardinality() int { return len(b.Tuples) }

// NNZ returns the count of (tuple, row) pairs, i.e. the number of rows at
// which some non-zero tuple occurs. For a multi-column bitmap this is a row
// count, not the number of non-zero cells.
func (b *Bitmap) NNZ() int {
	n := 0
	for _, rows := range b.Rows {
		n += len(rows)
	}
	return n
}

// ExtractBitmap scans rows [0, rowCount) of src for the given columns and
// returns the distinct tuples and their row-index lists.
//
// When transposed is true, src is assumed to already be the transpose of
// the logical source block (so src.At(col, row) returns the logical
// (row, col) cell) — per-column reads are then contiguous, which is the
// point of working from a transposed copy during compression. When false,
// src.At(row, col) is used directly.
func ExtractBitmap(src Source, transposed bool, rowCount int, cols []int) *Bitmap {
	rows := make([]int, rowCount)
	for i := range rows {
		rows[i] = i
	}
	return ExtractBitmapRows(src, transposed, cols, rows)
}

// ExtractBitmapRows is the same as ExtractBitmap but restricted to the
// given (ascending) logical row indices. It backs both full extraction
// (Exact encode phase) and sample-based extraction (the size estimator).
func ExtractBitmapRows(src Source, transposed bool, cols []int, rows []int) *Bitmap {
	nc := len(cols)
	n := len(rows)
	colVals := make([]float64, nc*n)

	if transposed {
		for ci, col := range cols {
			base := ci * n
			for k, r := range rows {
				colVals[base+k] = src.At(col, r)
			}
		}
	} else {
		for ci, col := range cols {
			base := ci * n
			for k, r := range rows {
				colVals[base+k] = src.At(r, col)
			}
		}
	}

	bm := &Bitmap{Cols: append([]int(nil), cols...)}
	buckets := make(map[uint64][]int)
	buf := make([]byte, 8*nc)
	tup := make([]float64, nc)

	for k, r := range rows {
		allZero := true
		for ci := 0; ci < nc; ci++ {
			v := colVals[ci*n+k]
			tup[ci] = v
			if v != 0 {
				allZero = false
			}
		}
		if allZero {
			continue
		}

		for ci, v := range tup {
			binary.LittleEndian.PutUint64(buf[ci*8:], math.Float64bits(v))
		}
		h := xxhash.Sum64(buf)

		idx := -1
		for _, cand := range buckets[h] {
			if tupleEqual(bm.Tuples[cand], tup) {
				idx = cand
				break
			}
		}
		if idx < 0 {
			idx = len(bm.Tuples)
			bm.Tuples = append(bm.Tuples, append([]float64(nil), tup...))
			bm.Rows = append(bm.Rows, nil)
			buckets[h] = append(buckets[h], idx)
		}
		bm.Rows[idx] = append(bm.Rows[idx], r)
	}

	return bm
}

func tupleEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkInvariants verifies Bitmap invariant 3 from the data model: tuples
// are unique, per-tuple row lists are sorted and unique, and no two tuples
// share a row. It is used by tests; Compress does not call it, and it is
// not on the hot path.
func (b *Bitmap) checkInvariants(rowCount int) error {
	seen := newBitset(rowCount)
	for ti, rows := range b.Rows {
		if !sort.IntsAreSorted(rows) {
			return &InvariantError{msg: "cmat: bitmap tuple rows not sorted"}
		}
		for i, r := range rows {
			if i > 0 && rows[i-1] == r {
				return &InvariantError{msg: "cmat: bitmap tuple has duplicate row"}
			}
			if seen.testAndSet(r) {
				return &InvariantError{msg: "cmat: bitmap row claimed by more than one tuple"}
			}
		}
		for tj := ti + 1; tj < len(b.Tuples); tj++ {
			if tupleEqual(b.Tuples[ti], b.Tuples[tj]) {
				return &InvariantError{msg: "cmat: bitmap has duplicate tuple"}
			}
		}
	}
	return nil
}
