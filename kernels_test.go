package cmat

import "testing"

func denseExpectedRightMult(src *DenseBlock, r, c int, v []float64) []float64 {
	out := make([]float64, r)
	for row := 0; row < r; row++ {
		var s float64
		for col := 0; col < c; col++ {
			s += src.At(row, col) * v[col]
		}
		out[row] = s
	}
	return out
}

func denseExpectedLeftMult(src *DenseBlock, r, c int, vRow []float64) []float64 {
	out := make([]float64, c)
	for col := 0; col < c; col++ {
		var s float64
		for row := 0; row < r; row++ {
			s += vRow[row] * src.At(row, col)
		}
		out[col] = s
	}
	return out
}

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > 1e-9 {
			return false
		}
	}
	return true
}

func TestRightMultByVector(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	v := make([]float64, c)
	for i := range v {
		v[i] = float64(i + 1)
	}

	for _, workers := range []int{1, 4} {
		got, err := cm.RightMultByVector(v, workers)
		if err != nil {
			t.Fatalf("RightMultByVector(workers=%d) error = %v", workers, err)
		}
		want := denseExpectedRightMult(src, r, c, v)
		if !almostEqual(got, want) {
			t.Errorf("workers=%d: RightMultByVector() = %v, want %v", workers, got, want)
		}
	}
}

func TestRightMultByVectorSumsMultipleUncompressedGroups(t *testing.T) {
	// CBind and a zero-breaking ScalarOperation can both leave a
	// CompressedMatrix with more than one Uncompressed group; each must add
	// its contribution rather than overwrite the other's. Built directly
	// (rather than via Compress) so the test doesn't depend on the size
	// heuristic actually choosing Uncompressed for these tiny columns.
	left := NewUncompressedGroup([]int{0}, 3, NewDenseBlock(3, 1, []float64{1, 0, 3}))
	right := NewUncompressedGroup([]int{1}, 3, NewDenseBlock(3, 1, []float64{5, 7, 0}))
	cm := &CompressedMatrix{r: 3, c: 2, nnz: 4, groups: []ColumnGroup{left, right}}

	v := []float64{2, 3}
	got, err := cm.RightMultByVector(v, 1)
	if err != nil {
		t.Fatalf("RightMultByVector() error = %v", err)
	}
	want := []float64{1*2 + 5*3, 0*2 + 7*3, 3*2 + 0*3}
	if !almostEqual(got, want) {
		t.Errorf("RightMultByVector() = %v, want %v", got, want)
	}
}

func TestRightMultByVectorRejectsWrongLength(t *testing.T) {
	src, _, _ := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if _, err := cm.RightMultByVector([]float64{1}, 1); err == nil {
		t.Error("RightMultByVector() with mismatched length = nil error, want error")
	}
}

func TestLeftMultByVector(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	vRow := make([]float64, r)
	for i := range vRow {
		vRow[i] = float64(i%3) - 1
	}

	for _, workers := range []int{1, 4} {
		got, err := cm.LeftMultByVector(vRow, workers)
		if err != nil {
			t.Fatalf("LeftMultByVector(workers=%d) error = %v", workers, err)
		}
		want := denseExpectedLeftMult(src, r, c, vRow)
		if !almostEqual(got, want) {
			t.Errorf("workers=%d: LeftMultByVector() = %v, want %v", workers, got, want)
		}
	}
}

func TestLeftMultBySparseVectorOneHotSelectsRow(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	for _, row := range []int{0, 4, 15, 16, r - 1} {
		v := OneHot(r, row)
		got, err := cm.LeftMultBySparseVector(v, 1)
		if err != nil {
			t.Fatalf("LeftMultBySparseVector(row=%d) error = %v", row, err)
		}
		want := make([]float64, c)
		for col := 0; col < c; col++ {
			want[col] = src.At(row, col)
		}
		if !almostEqual(got, want) {
			t.Errorf("row=%d: LeftMultBySparseVector() = %v, want %v", row, got, want)
		}
	}
}

func TestLeftMultBySparseVectorMatchesDenseEquivalent(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	ind := []int{0, 4, 10, 19, r - 1}
	data := []float64{1, -2, 3, 0.5, -1}
	v := NewSparseVector(r, ind, data)

	got, err := cm.LeftMultBySparseVector(v, 1)
	if err != nil {
		t.Fatalf("LeftMultBySparseVector() error = %v", err)
	}
	want := denseExpectedLeftMult(src, r, c, v.ToDense())
	if !almostEqual(got, want) {
		t.Errorf("LeftMultBySparseVector() = %v, want %v", got, want)
	}
}

func TestLeftMultBySparseVectorRejectsWrongLength(t *testing.T) {
	src, _, _ := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if _, err := cm.LeftMultBySparseVector(OneHot(3, 0), 1); err == nil {
		t.Error("LeftMultBySparseVector() with mismatched length = nil error, want error")
	}
}

func TestTSMM(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	want := make([]float64, c*c)
	for i := 0; i < c; i++ {
		for j := 0; j < c; j++ {
			var s float64
			for row := 0; row < r; row++ {
				s += src.At(row, i) * src.At(row, j)
			}
			want[i*c+j] = s
		}
	}

	for _, workers := range []int{1, 4} {
		got, err := cm.TSMM(workers)
		if err != nil {
			t.Fatalf("TSMM(workers=%d) error = %v", workers, err)
		}
		if !almostEqual(got, want) {
			t.Errorf("workers=%d: TSMM() = %v, want %v", workers, got, want)
		}
	}
}

func TestUnaryAggregateSum(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	wantAll := 0.0
	wantRow := make([]float64, r)
	wantCol := make([]float64, c)
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			v := src.At(row, col)
			wantAll += v
			wantRow[row] += v
			wantCol[col] += v
		}
	}

	gotAll, err := cm.UnaryAggregate(AggSum, ReduceAll, 1)
	if err != nil || !almostEqual(gotAll, []float64{wantAll}) {
		t.Errorf("UnaryAggregate(Sum, All) = %v, %v, want %v, nil", gotAll, err, wantAll)
	}
	gotRow, err := cm.UnaryAggregate(AggSum, ReduceRow, 1)
	if err != nil || !almostEqual(gotRow, wantRow) {
		t.Errorf("UnaryAggregate(Sum, Row) = %v, %v, want %v, nil", gotRow, err, wantRow)
	}
	gotCol, err := cm.UnaryAggregate(AggSum, ReduceCol, 1)
	if err != nil || !almostEqual(gotCol, wantCol) {
		t.Errorf("UnaryAggregate(Sum, Col) = %v, %v, want %v, nil", gotCol, err, wantCol)
	}
}

func TestUnaryAggregateSumSq(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	wantAll := 0.0
	wantCol := make([]float64, c)
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			v := src.At(row, col)
			wantAll += v * v
			wantCol[col] += v * v
		}
	}

	gotAll, err := cm.UnaryAggregate(AggSumSq, ReduceAll, 1)
	if err != nil || !almostEqual(gotAll, []float64{wantAll}) {
		t.Errorf("UnaryAggregate(SumSq, All) = %v, %v, want %v, nil", gotAll, err, wantAll)
	}
	gotCol, err := cm.UnaryAggregate(AggSumSq, ReduceCol, 1)
	if err != nil || !almostEqual(gotCol, wantCol) {
		t.Errorf("UnaryAggregate(SumSq, Col) = %v, %v, want %v, nil", gotCol, err, wantCol)
	}
}

func TestUnaryAggregateMinIncludesImplicitZero(t *testing.T) {
	// col0 of testMatrix has value 7 on a sparse subset of rows; every
	// other row is implicitly zero, so the column minimum must be 0, not 7.
	src, _, _ := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	got, err := cm.UnaryAggregate(AggMin, ReduceCol, 1)
	if err != nil {
		t.Fatalf("UnaryAggregate(Min, Col) error = %v", err)
	}
	if got[0] != 0 {
		t.Errorf("col 0 min = %v, want 0 (implicit zero)", got[0])
	}
}

func TestScalarOperationPreservingZero(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	scaled := cm.ScalarOperation(ScalarOp{Apply: func(v float64) float64 { return v * 2 }, PreservesZero: true})
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			want := src.At(row, col) * 2
			if got := scaled.Get(row, col); got != want {
				t.Errorf("Get(%d,%d) = %v, want %v", row, col, got, want)
			}
		}
	}
}

func TestScalarOperationNonPreservingZero(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	shifted := cm.ScalarOperation(ScalarOp{Apply: func(v float64) float64 { return v + 1 }, PreservesZero: false})
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			want := src.At(row, col) + 1
			if got := shifted.Get(row, col); got != want {
				t.Errorf("Get(%d,%d) = %v, want %v", row, col, got, want)
			}
		}
	}
}

func TestCBind(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	combined := cm.CBind(cm)
	if combined.C() != 2*c {
		t.Fatalf("CBind().C() = %d, want %d", combined.C(), 2*c)
	}
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			want := src.At(row, col)
			if got := combined.Get(row, col); got != want {
				t.Errorf("left half Get(%d,%d) = %v, want %v", row, col, got, want)
			}
			if got := combined.Get(row, col+c); got != want {
				t.Errorf("right half Get(%d,%d) = %v, want %v", row, col+c, got, want)
			}
		}
	}
}
