package cmat

import (
	"bytes"
	"testing"
)

func TestWriteToReadCompressedMatrixRoundTrip(t *testing.T) {
	src, r, c := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	var buf bytes.Buffer
	n, err := cm.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() returned %d, but wrote %d bytes", n, buf.Len())
	}

	got, err := ReadCompressedMatrix(&buf)
	if err != nil {
		t.Fatalf("ReadCompressedMatrix() error = %v", err)
	}
	if got.R() != r || got.C() != c {
		t.Fatalf("round-tripped dims = (%d,%d), want (%d,%d)", got.R(), got.C(), r, c)
	}
	if got.NNZ() != cm.NNZ() {
		t.Errorf("round-tripped NNZ() = %d, want %d", got.NNZ(), cm.NNZ())
	}

	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			if want := cm.Get(row, col); got.Get(row, col) != want {
				t.Errorf("round-tripped Get(%d,%d) = %v, want %v", row, col, got.Get(row, col), want)
			}
		}
	}
}

func TestExactSizeOnDiskMatchesWriteTo(t *testing.T) {
	src, _, _ := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	var buf bytes.Buffer
	n, err := cm.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if got := cm.ExactSizeOnDisk(); got != n {
		t.Errorf("ExactSizeOnDisk() = %d, want %d (actual written bytes)", got, n)
	}
}

func TestReadCompressedMatrixRejectsUncompressedFlag(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0})
	if _, err := ReadCompressedMatrix(buf); err == nil {
		t.Error("ReadCompressedMatrix() with compressed=false = nil error, want error")
	}
}

func TestReadCompressedMatrixRejectsTruncatedStream(t *testing.T) {
	src, _, _ := testMatrix(t)
	cm, err := Compress(src, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	var buf bytes.Buffer
	if _, err := cm.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()/2])
	if _, err := ReadCompressedMatrix(truncated); err == nil {
		t.Error("ReadCompressedMatrix() on a truncated stream = nil error, want error")
	}
}
