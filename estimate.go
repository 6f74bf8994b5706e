package cmat

import (
	"sort"

	"golang.org/x/exp/rand"
)

// CompressedSizeInfo is the output of the size estimator for a candidate
// column set (spec.md §4.1): the estimated tuple cardinality and the
// projected byte sizes of each encoding.
type CompressedSizeInfo struct {
	EstCardinality int
	OleSize        int64
	RleSize        int64
	MinSize        int64
}

// Estimator produces CompressedSizeInfo for a candidate column set, either
// from a fixed sample (SampleEstimator) or an exact scan (ExactEstimator).
type Estimator interface {
	Estimate(src Source, transposed bool, cols []int) CompressedSizeInfo
}

// chosenEncoding reports which variant minimises size.
func (s CompressedSizeInfo) chosenEncoding() groupKind {
	if s.RleSize < s.OleSize {
		return kindRLE
	}
	return kindOLE
}

// sizeInfoFromBitmap projects OLE/RLE byte sizes from an exact bitmap over
// rowCount logical rows, following the formulas in spec.md §4.1:
//
//	OLE bytes ~= tupleBytes + 2*nnzRows + 2*(k*segments)
//	RLE bytes ~= tupleBytes + 4*estimatedRuns
func sizeInfoFromBitmap(bm *Bitmap, rowCount int) CompressedSizeInfo {
	k := bm.Cardinality()
	nnzRows := bm.NNZ()
	numCols := len(bm.Cols)
	segments := (rowCount + BSZ - 1) / BSZ

	tupleBytes := int64(8 * numCols * k)
	ole := tupleBytes + int64(2*nnzRows) + int64(2*k*segments)

	runs := 0
	for _, rows := range bm.Rows {
		runs += countRuns(rows)
	}
	rle := tupleBytes + int64(4*runs)

	min := ole
	if rle < min {
		min = rle
	}
	return CompressedSizeInfo{EstCardinality: k, OleSize: ole, RleSize: rle, MinSize: min}
}

func countRuns(rows []int) int {
	if len(rows) == 0 {
		return 0
	}
	runs := 1
	for i := 1; i < len(rows); i++ {
		if rows[i] != rows[i-1]+1 {
			runs++
		}
	}
	return runs
}

// SampleEstimator draws a fixed row sample once per Compress call (so every
// classify/co-code/encode decision made from it is consistent, per spec.md
// §4.1) and projects full-matrix size information from it. It may be
// swapped for ExactEstimator, which scans every row.
type SampleEstimator struct {
	sample []int
	total  int
}

// NewSampleEstimator draws sampleSize distinct row indices out of
// [0, rowCount) using rng, sorted ascending. If sampleSize >= rowCount the
// "sample" is simply every row, making the estimator exact.
func NewSampleEstimator(rng *rand.Rand, rowCount, sampleSize int) *SampleEstimator {
	if sampleSize >= rowCount {
		rows := make([]int, rowCount)
		for i := range rows {
			rows[i] = i
		}
		return &SampleEstimator{sample: rows, total: rowCount}
	}

	picked := make(map[int]struct{}, sampleSize)
	rows := make([]int, 0, sampleSize)
	for len(rows) < sampleSize {
		r := rng.Intn(rowCount)
		if _, ok := picked[r]; ok {
			continue
		}
		picked[r] = struct{}{}
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return &SampleEstimator{sample: rows, total: rowCount}
}

// SampleRows returns the fixed row sample this estimator was built with.
func (e *SampleEstimator) SampleRows() []int { return e.sample }

// Estimate projects CompressedSizeInfo for cols from the fixed sample.
func (e *SampleEstimator) Estimate(src Source, transposed bool, cols []int) CompressedSizeInfo {
	bm := ExtractBitmapRows(src, transposed, cols, e.sample)
	sampleInfo := sizeInfoFromBitmap(bm, len(e.sample))

	if len(e.sample) == e.total {
		return sampleInfo
	}

	scale := float64(e.total) / float64(len(e.sample))
	estCard := int(float64(sampleInfo.EstCardinality)*scale + 0.5)
	if estCard > e.total {
		estCard = e.total
	}
	nnzRows := float64(bm.NNZ()) * scale
	runs := 0
	for _, rows := range bm.Rows {
		runs += countRuns(rows)
	}
	scaledRuns := float64(runs) * scale

	numCols := len(cols)
	segments := (e.total + BSZ - 1) / BSZ
	tupleBytes := int64(8 * numCols * estCard)
	ole := tupleBytes + int64(2*nnzRows) + int64(2*estCard*segments)
	rle := tupleBytes + int64(4*scaledRuns)

	min := ole
	if rle < min {
		min = rle
	}
	return CompressedSizeInfo{EstCardinality: estCard, OleSize: ole, RleSize: rle, MinSize: min}
}

// ExactEstimator scans every row instead of a sample. It is a drop-in
// replacement for SampleEstimator where estimation accuracy matters more
// than classification speed (spec.md §4.1: "may be swapped for an exact
// variant that scans all rows").
type ExactEstimator struct {
	rowCount int
}

// NewExactEstimator returns an estimator that always scans all rowCount
// rows.
func NewExactEstimator(rowCount int) *ExactEstimator {
	return &ExactEstimator{rowCount: rowCount}
}

// Estimate projects CompressedSizeInfo for cols by extracting the exact
// bitmap over every row.
func (e *ExactEstimator) Estimate(src Source, transposed bool, cols []int) CompressedSizeInfo {
	bm := ExtractBitmap(src, transposed, e.rowCount, cols)
	return sizeInfoFromBitmap(bm, e.rowCount)
}
