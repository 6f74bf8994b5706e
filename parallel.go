package cmat

import "golang.org/x/sync/errgroup"

// runPool runs fn(i) for i in [0, n) across a bounded worker pool of size
// workers (workers <= 1 runs sequentially on the calling goroutine), joining
// every task before returning (spec.md §5: "data-parallel fan-out + join
// only", "a failure in any task is propagated as a fatal error to the
// caller after joining remaining tasks").
func runPool(workers, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return &WorkerError{Err: err}
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	if err := g.Wait(); err != nil {
		return &WorkerError{Err: err}
	}
	return nil
}

// partitionRows splits [0, rowCount) into blocks whose size is a multiple of
// BSZ, aligning to segment boundaries so OLE/RLE skip-table jumps stay cheap
// within each worker's range (spec.md §4.5: right-mv's multi-threaded
// variant). At most `workers` blocks are produced; fewer if rowCount is
// small relative to BSZ.
func partitionRows(rowCount, workers int) [][2]int {
	if workers <= 1 || rowCount <= BSZ {
		return [][2]int{{0, rowCount}}
	}
	segments := (rowCount + BSZ - 1) / BSZ
	if segments < workers {
		workers = segments
	}
	segsPerBlock := (segments + workers - 1) / workers

	var blocks [][2]int
	for start := 0; start < segments; start += segsPerBlock {
		end := start + segsPerBlock
		if end > segments {
			end = segments
		}
		rl := start * BSZ
		ru := end * BSZ
		if ru > rowCount {
			ru = rowCount
		}
		blocks = append(blocks, [2]int{rl, ru})
	}
	return blocks
}
