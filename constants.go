package cmat

// BSZ is the canonical row-block size used to segment per-tuple offset and
// run-length streams. A skip table maps segment index to stream position so
// random access to a row range never scans segments outside it.
const BSZ = 1 << 16

// TransposeInput records that Compress works from a transposed view of the
// source block so that per-column scans during bitmap extraction and
// classification are contiguous. Compress always does so; it does not read
// this constant, so setting it to false has no effect.
const TransposeInput = true

// MaterializeZeros is false: the all-zero tuple is never stored in a
// column group and rows not covered by any tuple are implicitly zero.
const MaterializeZeros = false

// MinParAggThreshold is the minimum serialized size, in bytes, above which a
// threaded unary aggregate bothers splitting work across the pool.
const MinParAggThreshold = 16 * 1024 * 1024

// maxCoCodedCardinality bounds the product of per-column cardinalities the
// co-coder will allow into a single group before refusing to merge further,
// keeping per-group tuple counts manageable.
const maxCoCodedCardinality = 1 << 20
