package cmat

import "testing"

func TestCoCodeGroupsLowCardinalityColumnsTogether(t *testing.T) {
	// cols 0 and 1 share a single repeated value at the same sparse rows
	// (cheap to co-code); col 2 is a distinct-per-row column that should
	// stay on its own once flushed.
	r := 40
	data := make([]float64, r*3)
	for row := 0; row < r; row++ {
		if row%4 == 0 {
			data[row*3+0] = 9
			data[row*3+1] = 11
		}
		data[row*3+2] = float64(row) + 1
	}
	src := NewDenseBlock(r, 3, data)
	view := &transposedView{src: src, rows: r}
	estimator := NewExactEstimator(r)

	cols := []int{0, 1, 2}
	single := make(map[int]CompressedSizeInfo, len(cols))
	ratio := make(map[int]float64, len(cols))
	for _, c := range cols {
		info := estimator.Estimate(view, true, []int{c})
		single[c] = info
		if info.MinSize > 0 {
			ratio[c] = 8 * float64(r) / float64(info.MinSize)
		}
	}

	groups := coCode(view, true, estimator, cols, single, ratio)

	total := 0
	seen := make(map[int]bool)
	for _, g := range groups {
		for _, c := range g {
			if seen[c] {
				t.Fatalf("column %d appears in more than one group", c)
			}
			seen[c] = true
			total++
		}
	}
	if total != len(cols) {
		t.Fatalf("coCode() covered %d columns, want %d", total, len(cols))
	}

	foundTogether := false
	for _, g := range groups {
		has0, has1 := false, false
		for _, c := range g {
			if c == 0 {
				has0 = true
			}
			if c == 1 {
				has1 = true
			}
		}
		if has0 && has1 {
			foundTogether = true
		}
	}
	if !foundTogether {
		t.Error("coCode() did not place columns 0 and 1 in the same group, expected them to co-code")
	}
}

func TestCoCodeEmptyInput(t *testing.T) {
	src := NewDenseBlock(10, 1, nil)
	view := &transposedView{src: src, rows: 10}
	estimator := NewExactEstimator(10)
	groups := coCode(view, true, estimator, nil, map[int]CompressedSizeInfo{}, map[int]float64{})
	if len(groups) != 0 {
		t.Errorf("coCode(nil cols) = %v, want no groups", groups)
	}
}
