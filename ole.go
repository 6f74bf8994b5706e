package cmat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// oleStream is the Offset-List Encoding storage for one column group: for
// each tuple, the matrix's rows are split into BSZ-row segments, and each
// segment stores the sorted in-segment offsets (row % BSZ) at which that
// tuple occurs, preceded by a u16 count. A segment is present (possibly with
// count 0) for every segment index, so a per-tuple skip table of cumulative
// byte offsets lets Get jump directly to any segment without a scan
// (spec.md §3).
type oleStream struct {
	rowCount int
	segments int
	// perTuple[ti] is the concatenated per-segment encoding for tuple ti:
	// repeated (u16 count, count x u16 offset) blocks, one per segment.
	perTuple [][]byte
	// skipTable[ti][s] is the byte offset into perTuple[ti] at which
	// segment s begins.
	skipTable [][]int32
}

func newOLEStream(bm *Bitmap, rowCount int) *oleStream {
	segments := (rowCount + BSZ - 1) / BSZ
	s := &oleStream{rowCount: rowCount, segments: segments}
	s.perTuple = make([][]byte, len(bm.Tuples))
	s.skipTable = make([][]int32, len(bm.Tuples))

	for ti, rows := range bm.Rows {
		buf := make([]byte, 0, len(rows)*2+segments*2)
		skip := make([]int32, segments)

		ri := 0
		for seg := 0; seg < segments; seg++ {
			skip[seg] = int32(len(buf))
			segStart := seg * BSZ
			segEnd := segStart + BSZ
			if segEnd > rowCount {
				segEnd = rowCount
			}

			countPos := len(buf)
			buf = append(buf, 0, 0)
			count := uint16(0)
			for ri < len(rows) && rows[ri] < segEnd {
				off := uint16(rows[ri] - segStart)
				buf = append(buf, byte(off), byte(off>>8))
				count++
				ri++
			}
			binary.LittleEndian.PutUint16(buf[countPos:], count)
		}

		s.perTuple[ti] = buf
		s.skipTable[ti] = skip
	}
	return s
}

func (s *oleStream) forEachInRange(ti, rl, ru int, fn func(row int)) {
	buf := s.perTuple[ti]
	skip := s.skipTable[ti]

	segLo := rl / BSZ
	segHi := (ru - 1) / BSZ
	if ru <= rl {
		return
	}

	for seg := segLo; seg <= segHi && seg < len(skip); seg++ {
		pos := int(skip[seg])
		count := int(binary.LittleEndian.Uint16(buf[pos:]))
		pos += 2
		segStart := seg * BSZ
		for i := 0; i < count; i++ {
			off := int(binary.LittleEndian.Uint16(buf[pos:]))
			pos += 2
			row := segStart + off
			if row >= rl && row < ru {
				fn(row)
			}
		}
	}
}

func (s *oleStream) countInRange(ti, rl, ru int) int {
	n := 0
	s.forEachInRange(ti, rl, ru, func(int) { n++ })
	return n
}

func (s *oleStream) byteSize(ti int) int64 {
	return int64(len(s.perTuple[ti]) + 4*len(s.skipTable[ti]))
}

// contains reports whether row is covered by tuple ti, via a skip-table
// jump plus a binary search of the segment's offsets (spec.md §3).
func (s *oleStream) contains(ti, row int) bool {
	seg := row / BSZ
	skip := s.skipTable[ti]
	if seg >= len(skip) {
		return false
	}
	buf := s.perTuple[ti]
	pos := int(skip[seg])
	count := int(binary.LittleEndian.Uint16(buf[pos:]))
	pos += 2
	target := uint16(row - seg*BSZ)

	lo, hi := 0, count
	for lo < hi {
		mid := (lo + hi) / 2
		off := binary.LittleEndian.Uint16(buf[pos+mid*2:])
		if off < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < count && binary.LittleEndian.Uint16(buf[pos+lo*2:]) == target
}

// oleGroup is the Offset-List Encoding ColumnGroup variant.
type oleGroup struct {
	bitmapGroup
}

// newOLEGroup builds an OLE group from a bitmap already restricted to cols.
func newOLEGroup(bm *Bitmap, rowCount int) *oleGroup {
	return &oleGroup{bitmapGroup: bitmapGroup{
		kind:     kindOLE,
		cols:     append([]int(nil), bm.Cols...),
		rowCount: rowCount,
		tuples:   bm.Tuples,
		stream:   newOLEStream(bm, rowCount),
	}}
}

// Get performs a skip-table jump to row's segment followed by a binary
// search for row's offset within it (spec.md §3).
func (g *oleGroup) Get(r, c int) float64 {
	li := localIndex(g.cols, c)
	if li < 0 {
		return 0
	}
	s := g.stream.(*oleStream)
	for ti, tuple := range g.tuples {
		if tuple[li] == 0 {
			continue
		}
		if s.contains(ti, r) {
			return tuple[li]
		}
	}
	return 0
}

// writeOLEGroup serializes an OLE group's body per spec.md §6: numTuples,
// then per tuple its values, then streamByteLen + stream bytes, then the
// skip table.
func writeOLEGroup(w io.Writer, g *oleGroup) error {
	s := g.stream.(*oleStream)
	if err := binary.Write(w, binary.LittleEndian, int32(len(g.tuples))); err != nil {
		return err
	}
	for ti, tuple := range g.tuples {
		for _, v := range tuple {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		buf := s.perTuple[ti]
		if err := binary.Write(w, binary.LittleEndian, int32(len(buf))); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
		for _, off := range s.skipTable[ti] {
			if err := binary.Write(w, binary.LittleEndian, off); err != nil {
				return err
			}
		}
	}
	return nil
}

// readOLEGroup reads back an OLE group's body written by writeOLEGroup.
func readOLEGroup(r io.Reader, cols []int, rowCount int) (*oleGroup, error) {
	var numTuples int32
	if err := binary.Read(r, binary.LittleEndian, &numTuples); err != nil {
		return nil, fmt.Errorf("cmat: read ole numTuples: %w", err)
	}
	segments := (rowCount + BSZ - 1) / BSZ

	tuples := make([][]float64, numTuples)
	perTuple := make([][]byte, numTuples)
	skipTable := make([][]int32, numTuples)

	for ti := 0; ti < int(numTuples); ti++ {
		vals := make([]float64, len(cols))
		for i := range vals {
			if err := binary.Read(r, binary.LittleEndian, &vals[i]); err != nil {
				return nil, fmt.Errorf("cmat: read ole tuple value: %w", err)
			}
		}
		tuples[ti] = vals

		var streamLen int32
		if err := binary.Read(r, binary.LittleEndian, &streamLen); err != nil {
			return nil, fmt.Errorf("cmat: read ole streamByteLen: %w", err)
		}
		buf := make([]byte, streamLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("cmat: read ole stream: %w", err)
		}
		perTuple[ti] = buf

		skip := make([]int32, segments)
		for s := range skip {
			if err := binary.Read(r, binary.LittleEndian, &skip[s]); err != nil {
				return nil, fmt.Errorf("cmat: read ole skipTable: %w", err)
			}
		}
		skipTable[ti] = skip
	}

	return &oleGroup{bitmapGroup: bitmapGroup{
		kind:     kindOLE,
		cols:     append([]int(nil), cols...),
		rowCount: rowCount,
		tuples:   tuples,
		stream:   &oleStream{rowCount: rowCount, segments: segments, perTuple: perTuple, skipTable: skipTable},
	}}, nil
}
