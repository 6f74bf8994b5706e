package cmat

import (
	"sort"

	"golang.org/x/exp/rand"
)

// CompressedMatrix owns an ordered, column-disjoint list of ColumnGroups
// covering [0,C) plus the matrix's logical shape and non-zero count. It is
// immutable once built by Compress: every observer reads groups, and every
// mutator either operates metadata-only (ScalarOperation) or decompresses
// into a fresh MatrixBlock (spec.md §3 lifecycle, §9 "no in-place mutation
// after compression").
type CompressedMatrix struct {
	r, c   int
	nnz    int
	groups []ColumnGroup
}

// R returns the row count.
func (m *CompressedMatrix) R() int { return m.r }

// C returns the column count.
func (m *CompressedMatrix) C() int { return m.c }

// NNZ returns the cached non-zero count, established at Compress time.
func (m *CompressedMatrix) NNZ() int { return m.nnz }

// Groups returns the matrix's column groups in compression order. Callers
// must not mutate the returned slice or its elements.
func (m *CompressedMatrix) Groups() []ColumnGroup { return m.groups }

// CompressOptions configures a Compress call.
type CompressOptions struct {
	// Estimator is used during classify/co-code. If nil, a SampleEstimator
	// with a default sample of min(R, 2000) rows is used.
	Estimator Estimator
	// Rng seeds the default SampleEstimator's row sample. Ignored if
	// Estimator is set. If nil, a fixed default seed is used so Compress
	// is deterministic unless the caller opts into randomness.
	Rng *rand.Rand
	// Workers bounds the worker-pool size used by classify and encode
	// (spec.md §4.3: "multi-threaded variants parallelize phases 1 and 3
	// over columns/groups with a fixed-size thread pool of size k"). A
	// value <= 1 runs single-threaded.
	Workers int
}

// Compress builds a CompressedMatrix from src following the classify,
// co-code, encode, cleanup pipeline of spec.md §4.3. src is always read
// through a transposed working view so per-column scans are contiguous. On any error src is left untouched and a nil matrix is
// returned alongside the error (spec.md §7: "the compressed matrix never
// ends in a half-compressed state").
func Compress(src MatrixBlock, opts CompressOptions) (*CompressedMatrix, error) {
	r, c := src.Dims()
	if c == 0 {
		return nil, &InvariantError{msg: "cmat: cannot compress a matrix with zero columns"}
	}

	estimator := opts.Estimator
	if estimator == nil {
		sampleSize := 2000
		if sampleSize > r {
			sampleSize = r
		}
		rng := opts.Rng
		if rng == nil {
			rng = rand.New(rand.NewSource(0x636d6174))
		}
		estimator = NewSampleEstimator(rng, r, sampleSize)
	}

	view := &transposedView{src: src, rows: r}

	nnzTotal := src.RecomputeNonZeros()
	sparsity := 0.0
	if r > 0 && c > 0 {
		sparsity = float64(nnzTotal) / float64(r*c)
	}
	uncompressedColSize := 8.0 * float64(r) * sparsity

	single := make(map[int]CompressedSizeInfo, c)
	ratio := make(map[int]float64, c)

	infos := make([]CompressedSizeInfo, c)
	ratios := make([]float64, c)
	if err := runPool(opts.Workers, c, func(col int) error {
		info := estimator.Estimate(view, true, []int{col})
		infos[col] = info
		rat := 0.0
		if info.MinSize > 0 {
			rat = uncompressedColSize / float64(info.MinSize)
		}
		ratios[col] = rat
		return nil
	}); err != nil {
		return nil, err
	}
	for col := 0; col < c; col++ {
		single[col] = infos[col]
		ratio[col] = ratios[col]
	}

	var compressible, deferred []int
	for col := 0; col < c; col++ {
		if ratio[col] > 1 {
			compressible = append(compressible, col)
		} else {
			deferred = append(deferred, col)
		}
	}

	candidateGroups := coCode(view, true, estimator, compressible, single, ratio)

	groupResults := make([]ColumnGroup, len(candidateGroups))
	extraUncompressed := make([][]int, len(candidateGroups))

	if err := runPool(opts.Workers, len(candidateGroups), func(i int) error {
		group, leftover := encodeGroup(view, candidateGroups[i])
		groupResults[i] = group
		extraUncompressed[i] = leftover
		return nil
	}); err != nil {
		return nil, err
	}

	var groups []ColumnGroup
	for i, g := range groupResults {
		if g != nil {
			groups = append(groups, g)
		}
		deferred = append(deferred, extraUncompressed[i]...)
	}

	if len(deferred) > 0 {
		sort.Ints(deferred)
		sub := NewZeroBlock(r, len(deferred), sparsity)
		for li, col := range deferred {
			for row := 0; row < r; row++ {
				if v := src.At(row, col); v != 0 {
					sub.Set(row, li, v)
				}
			}
		}
		groups = append(groups, NewUncompressedGroup(deferred, r, sub))
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Columns()[0] < groups[j].Columns()[0] })

	if err := checkGroupDisjointness(groups, c); err != nil {
		return nil, err
	}

	total := 0
	for _, g := range groups {
		total += g.NNZ()
	}

	return &CompressedMatrix{r: r, c: c, nnz: total, groups: groups}, nil
}

// transposedView adapts a MatrixBlock into the compression pipeline's
// read-only transposed addressing (At(col, row) means src.At(row, col)),
// without needing to materialize a second copy of src or implement the full
// MatrixBlock surface (spec.md §4.6, §9 "transposed working copy... is
// released at phase 4" — here it is simply never retained past Compress).
type transposedView struct {
	src  MatrixBlock
	rows int
}

func (t *transposedView) Dims() (int, int) {
	_, c := t.src.Dims()
	return c, t.rows
}

func (t *transposedView) At(i, j int) float64 { return t.src.At(j, i) }

// encodeGroup extracts the exact bitmap for cols, chooses OLE/RLE by size,
// and returns the columns refinement removed, which fall back to the
// uncompressed pool — all of cols on refinement exhaustion (spec.md §4.3
// step 3: "repeat until the group is empty ... or it passes").
func encodeGroup(view *transposedView, cols []int) (ColumnGroup, []int) {
	remaining := append([]int(nil), cols...)
	rowCount := view.rows
	var dropped []int

	for len(remaining) > 0 {
		bm := ExtractBitmap(view, true, rowCount, remaining)
		info := sizeInfoFromBitmap(bm, rowCount)
		uncompressedSize := 8.0 * float64(rowCount) * float64(len(remaining))
		rat := 0.0
		if info.MinSize > 0 {
			rat = uncompressedSize / float64(info.MinSize)
		}
		if rat > 1 {
			if info.chosenEncoding() == kindRLE {
				return newRLEGroup(bm, rowCount), dropped
			}
			return newOLEGroup(bm, rowCount), dropped
		}

		worstIdx := worstRatioColumnIndex(view, remaining, rowCount)
		dropped = append(dropped, remaining[worstIdx])
		remaining = append(remaining[:worstIdx], remaining[worstIdx+1:]...)
	}

	return nil, cols
}

// worstRatioColumnIndex returns the index within cols of the column with the
// lowest single-column compression ratio, used by encodeGroup's refinement
// loop (spec.md §4.3: "remove the column with the worst compression ratio").
func worstRatioColumnIndex(view *transposedView, cols []int, rowCount int) int {
	worstRatio := -1.0
	worstIdx := 0
	for i, c := range cols {
		bm := ExtractBitmap(view, true, rowCount, []int{c})
		info := sizeInfoFromBitmap(bm, rowCount)
		rat := 0.0
		if info.MinSize > 0 {
			rat = 8.0 * float64(rowCount) / float64(info.MinSize)
		}
		if worstRatio < 0 || rat < worstRatio {
			worstRatio = rat
			worstIdx = i
		}
	}
	return worstIdx
}

// checkGroupDisjointness verifies spec.md §3 invariant 1: the union of group
// column indices is exactly [0,C) and pairwise disjoint.
func checkGroupDisjointness(groups []ColumnGroup, c int) error {
	seen := newBitset(c)
	total := 0
	for _, g := range groups {
		cols := g.Columns()
		if len(cols) == 0 {
			return ErrEmptyColumns
		}
		for i, col := range cols {
			if i > 0 && cols[i-1] >= col {
				return &InvariantError{msg: "cmat: column group indices not strictly ascending"}
			}
			if col < 0 || col >= c {
				return &InvariantError{msg: "cmat: column group index out of range"}
			}
			if seen.testAndSet(col) {
				return &InvariantError{msg: "cmat: column claimed by more than one group"}
			}
			total++
		}
	}
	if total != c {
		return &InvariantError{msg: "cmat: column groups do not cover [0,C)"}
	}
	return nil
}

// Decompress materializes the full R x C matrix from the compressed groups
// into dst, which must already be shaped R x C (spec.md §4.4). If dst is a
// SparseBlock, its backing storage is reserved to the exact final non-zero
// count first, so the Set calls that follow only pay for in-place shifting,
// not repeated slice growth.
func (m *CompressedMatrix) Decompress(dst MatrixBlock) {
	counts := make([]int, m.r)
	for _, g := range m.groups {
		g.CountNonZerosPerRow(counts, 0, m.r)
	}
	if sb, ok := dst.(*SparseBlock); ok {
		total := 0
		for _, n := range counts {
			total += n
		}
		sb.Reserve(total)
	}
	for _, g := range m.groups {
		g.DecompressInto(dst, 0, m.r)
	}
}
