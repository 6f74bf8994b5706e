package cmat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteTo serializes the compressed matrix per spec.md §6: a leading
// `compressed` boolean (always true here; false-case handling of an
// uncompressed stream is the caller's responsibility, since this type only
// exists once compression has happened), followed by R, C, nnz, numGroups,
// and each group's tagged body.
func (m *CompressedMatrix) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteByte(1)

	if err := binary.Write(&buf, binary.LittleEndian, int32(m.r)); err != nil {
		return 0, &IoError{Op: "write R", Err: err}
	}
	if err := binary.Write(&buf, binary.LittleEndian, int32(m.c)); err != nil {
		return 0, &IoError{Op: "write C", Err: err}
	}
	if err := binary.Write(&buf, binary.LittleEndian, int64(m.nnz)); err != nil {
		return 0, &IoError{Op: "write nnz", Err: err}
	}
	if err := binary.Write(&buf, binary.LittleEndian, int32(len(m.groups))); err != nil {
		return 0, &IoError{Op: "write numGroups", Err: err}
	}

	for _, g := range m.groups {
		if err := writeGroup(&buf, g); err != nil {
			return 0, &IoError{Op: "write group", Err: err}
		}
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), &IoError{Op: "write", Err: err}
	}
	return int64(n), nil
}

// writeGroup writes one group's groupType byte, numCols/cols header, and its
// variant-specific body.
func writeGroup(w io.Writer, g ColumnGroup) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(g.Kind())); err != nil {
		return err
	}
	cols := g.Columns()
	if err := binary.Write(w, binary.LittleEndian, int32(len(cols))); err != nil {
		return err
	}
	for _, c := range cols {
		if err := binary.Write(w, binary.LittleEndian, int32(c)); err != nil {
			return err
		}
	}

	switch v := g.(type) {
	case *oleGroup:
		return writeOLEGroup(w, v)
	case *rleGroup:
		return writeRLEGroup(w, v)
	case *uncompressedGroup:
		return writeUncompressedGroup(w, v)
	}
	return fmt.Errorf("cmat: unknown ColumnGroup implementation %T", g)
}

// writeUncompressedGroup writes the sub-block densely: a row-major run of
// R*|cols| float64s. A real deployment would delegate to the collaborator
// MatrixBlock's own serialization (spec.md §6: "embedded sub-matrix block
// serialization"); this package ships no second serialization format for
// MatrixBlock, so it defines one inline here for its own DenseBlock/
// SparseBlock pair.
func writeUncompressedGroup(w io.Writer, g *uncompressedGroup) error {
	for r := 0; r < g.rowCount; r++ {
		for li := range g.cols {
			if err := binary.Write(w, binary.LittleEndian, g.sub.At(r, li)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadCompressedMatrix reads back a stream written by WriteTo. It does not
// handle the uncompressed (`compressed == false`) branch of spec.md §6,
// since that path belongs to the collaborator MatrixBlock's own format.
func ReadCompressedMatrix(r io.Reader) (*CompressedMatrix, error) {
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return nil, &IoError{Op: "read compressed flag", Err: err}
	}
	if flag[0] == 0 {
		return nil, &UnsupportedError{Op: "ReadCompressedMatrix: uncompressed stream"}
	}

	var rr, cc int32
	var nnz int64
	var numGroups int32
	if err := binary.Read(r, binary.LittleEndian, &rr); err != nil {
		return nil, &IoError{Op: "read R", Err: err}
	}
	if err := binary.Read(r, binary.LittleEndian, &cc); err != nil {
		return nil, &IoError{Op: "read C", Err: err}
	}
	if err := binary.Read(r, binary.LittleEndian, &nnz); err != nil {
		return nil, &IoError{Op: "read nnz", Err: err}
	}
	if err := binary.Read(r, binary.LittleEndian, &numGroups); err != nil {
		return nil, &IoError{Op: "read numGroups", Err: err}
	}

	groups := make([]ColumnGroup, numGroups)
	for i := range groups {
		g, err := readGroup(r, int(rr))
		if err != nil {
			return nil, err
		}
		groups[i] = g
	}

	return &CompressedMatrix{r: int(rr), c: int(cc), nnz: int(nnz), groups: groups}, nil
}

func readGroup(r io.Reader, rowCount int) (ColumnGroup, error) {
	var kindByte uint8
	if err := binary.Read(r, binary.LittleEndian, &kindByte); err != nil {
		return nil, &IoError{Op: "read groupType", Err: err}
	}
	var numCols int32
	if err := binary.Read(r, binary.LittleEndian, &numCols); err != nil {
		return nil, &IoError{Op: "read numCols", Err: err}
	}
	cols := make([]int, numCols)
	for i := range cols {
		var c int32
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return nil, &IoError{Op: "read col", Err: err}
		}
		cols[i] = int(c)
	}

	switch groupKind(kindByte) {
	case kindOLE:
		g, err := readOLEGroup(r, cols, rowCount)
		if err != nil {
			return nil, &IoError{Op: "read ole group", Err: err}
		}
		return g, nil
	case kindRLE:
		g, err := readRLEGroup(r, cols, rowCount)
		if err != nil {
			return nil, &IoError{Op: "read rle group", Err: err}
		}
		return g, nil
	case kindUncompressed:
		return readUncompressedGroup(r, cols, rowCount)
	default:
		return nil, ErrBadGroupType
	}
}

func readUncompressedGroup(r io.Reader, cols []int, rowCount int) (*uncompressedGroup, error) {
	sub := NewDenseBlock(rowCount, len(cols), nil)
	for row := 0; row < rowCount; row++ {
		for li := range cols {
			var v float64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, &IoError{Op: "read uncompressed cell", Err: err}
			}
			if v != 0 {
				sub.Set(row, li, v)
			}
		}
	}
	return NewUncompressedGroup(cols, rowCount, sub), nil
}

// ExactSizeOnDisk returns the exact byte count WriteTo would produce,
// without performing the write (spec.md §6: "exactSizeOnDisk must equal the
// byte count of write").
func (m *CompressedMatrix) ExactSizeOnDisk() int64 {
	n := int64(1 + 4 + 4 + 8 + 4) // compressed flag, R, C, nnz, numGroups
	for _, g := range m.groups {
		n += 1 + 4 + int64(4*len(g.Columns())) // groupType, numCols, cols[]
		switch v := g.(type) {
		case *oleGroup:
			n += oleRleBodySize(&v.bitmapGroup)
		case *rleGroup:
			n += oleRleBodySize(&v.bitmapGroup)
		case *uncompressedGroup:
			n += int64(v.rowCount*len(v.cols)) * 8
		}
	}
	return n
}

// oleRleBodySize computes the exact byte size of an OLE/RLE group body:
// numTuples, then per tuple its values, streamByteLen, stream, and skip
// table.
func oleRleBodySize(g *bitmapGroup) int64 {
	n := int64(4)
	numCols := int64(len(g.cols))
	for ti := range g.tuples {
		n += 8 * numCols // tuple values
		n += 4           // streamByteLen
		n += g.stream.byteSize(ti)
	}
	return n
}
