package cmat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// rleStream is the Run-Length Encoding storage for one column group:
// per tuple, per BSZ-row segment, a sequence of (gap, runLength) u16 pairs,
// where gap is the distance from the end of the previous run (or the
// segment start) to the start of this run. A per-tuple skip table mirrors
// oleStream's, giving O(1) segment jump (spec.md §3).
type rleStream struct {
	rowCount int
	segments int
	perTuple [][]byte
	skipTable [][]int32
}

func newRLEStream(bm *Bitmap, rowCount int) *rleStream {
	segments := (rowCount + BSZ - 1) / BSZ
	s := &rleStream{rowCount: rowCount, segments: segments}
	s.perTuple = make([][]byte, len(bm.Tuples))
	s.skipTable = make([][]int32, len(bm.Tuples))

	for ti, rows := range bm.Rows {
		buf := make([]byte, 0, segments*2)
		skip := make([]int32, segments)

		ri := 0
		for seg := 0; seg < segments; seg++ {
			skip[seg] = int32(len(buf))
			segStart := seg * BSZ
			segEnd := segStart + BSZ
			if segEnd > rowCount {
				segEnd = rowCount
			}

			cursor := segStart
			for ri < len(rows) && rows[ri] < segEnd {
				runStart := rows[ri]
				runEnd := runStart + 1
				ri++
				for ri < len(rows) && rows[ri] == runEnd && runEnd < segEnd {
					runEnd++
					ri++
				}
				gap := uint16(runStart - cursor)
				runLen := uint16(runEnd - runStart)
				buf = appendU16(buf, gap)
				buf = appendU16(buf, runLen)
				cursor = runEnd
			}
		}

		s.perTuple[ti] = buf
		s.skipTable[ti] = skip
	}
	return s
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func readU16(buf []byte, pos int) uint16 {
	return binary.LittleEndian.Uint16(buf[pos:])
}

func (s *rleStream) forEachInRange(ti, rl, ru int, fn func(row int)) {
	if ru <= rl {
		return
	}
	buf := s.perTuple[ti]
	skip := s.skipTable[ti]

	segLo := rl / BSZ
	segHi := (ru - 1) / BSZ

	for seg := segLo; seg <= segHi && seg < len(skip); seg++ {
		pos := int(skip[seg])
		end := len(buf)
		if seg+1 < len(skip) {
			end = int(skip[seg+1])
		}
		cursor := seg * BSZ
		for pos < end {
			gap := int(readU16(buf, pos))
			runLen := int(readU16(buf, pos+2))
			pos += 4
			start := cursor + gap
			cursor = start + runLen
			for row := start; row < start+runLen; row++ {
				if row >= rl && row < ru {
					fn(row)
				}
			}
		}
	}
}

func (s *rleStream) countInRange(ti, rl, ru int) int {
	n := 0
	s.forEachInRange(ti, rl, ru, func(int) { n++ })
	return n
}

func (s *rleStream) byteSize(ti int) int64 {
	return int64(len(s.perTuple[ti]) + 4*len(s.skipTable[ti]))
}

// contains reports whether row is covered by tuple ti's runs, via a
// skip-table jump followed by a linear scan of the segment's run pairs
// (spec.md §3: "linear/binary scan of runs").
func (s *rleStream) contains(ti, row int) bool {
	seg := row / BSZ
	skip := s.skipTable[ti]
	if seg >= len(skip) {
		return false
	}
	buf := s.perTuple[ti]
	pos := int(skip[seg])
	end := len(buf)
	if seg+1 < len(skip) {
		end = int(skip[seg+1])
	}
	cursor := seg * BSZ
	for pos < end {
		gap := int(readU16(buf, pos))
		runLen := int(readU16(buf, pos+2))
		pos += 4
		start := cursor + gap
		cursor = start + runLen
		if row >= start && row < cursor {
			return true
		}
		if row < start {
			return false
		}
	}
	return false
}

// rleGroup is the Run-Length Encoding ColumnGroup variant.
type rleGroup struct {
	bitmapGroup
}

func newRLEGroup(bm *Bitmap, rowCount int) *rleGroup {
	return &rleGroup{bitmapGroup: bitmapGroup{
		kind:     kindRLE,
		cols:     append([]int(nil), bm.Cols...),
		rowCount: rowCount,
		tuples:   bm.Tuples,
		stream:   newRLEStream(bm, rowCount),
	}}
}

func (g *rleGroup) Get(r, c int) float64 {
	li := localIndex(g.cols, c)
	if li < 0 {
		return 0
	}
	s := g.stream.(*rleStream)
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

// writeRLEGroup serializes an RLE group's body per spec.md §6, mirroring
// writeOLEGroup's layout.
func writeRLEGroup(w io.Writer, g *rleGroup) error {
	s := g.stream.(*rleStream)
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

func readRLEGroup(r io.Reader, cols []int, rowCount int) (*rleGroup, error) {
	var numTuples int32
	if err := binary.Read(r, binary.LittleEndian, &numTuples); err != nil {
		return nil, fmt.Errorf("cmat: read rle numTuples: %w", err)
	}
	segments := (rowCount + BSZ - 1) / BSZ

	tuples := make([][]float64, numTuples)
	perTuple := make([][]byte, numTuples)
	skipTable := make([][]int32, numTuples)

	for ti := 0; ti < int(numTuples); ti++ {
		vals := make([]float64, len(cols))
		for i := range vals {
			if err := binary.Read(r, binary.LittleEndian, &vals[i]); err != nil {
				return nil, fmt.Errorf("cmat: read rle tuple value: %w", err)
			}
		}
		tuples[ti] = vals

		var streamLen int32
		if err := binary.Read(r, binary.LittleEndian, &streamLen); err != nil {
			return nil, fmt.Errorf("cmat: read rle streamByteLen: %w", err)
		}
		buf := make([]byte, streamLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("cmat: read rle stream: %w", err)
		}
		perTuple[ti] = buf

		skip := make([]int32, segments)
		for s := range skip {
			if err := binary.Read(r, binary.LittleEndian, &skip[s]); err != nil {
				return nil, fmt.Errorf("cmat: read rle skipTable: %w", err)
			}
		}
		skipTable[ti] = skip
	}

	return &rleGroup{bitmapGroup: bitmapGroup{
		kind:     kindRLE,
		cols:     append([]int(nil), cols...),
		rowCount: rowCount,
		tuples:   tuples,
		stream:   &rleStream{rowCount: rowCount, segments: segments, perTuple: perTuple, skipTable: skipTable},
	}}, nil
}
