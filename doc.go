/*
Package cmat provides a compressed, column-oriented in-memory matrix
representation for large, read-mostly numeric matrices used in analytics
workloads.

Rather than storing a matrix as a dense array or a general sparse format,
cmat partitions columns into groups and encodes each group using a scheme
chosen for the value distribution it observes: an Offset-List Encoding (OLE)
for columns with a handful of distinct tuples scattered across many rows, a
Run-Length Encoding (RLE) for columns whose non-zero values cluster into
runs, or an Uncompressed group for columns that do not compress profitably.

Linear-algebra kernels (matrix-vector multiply, transpose-self multiply,
unary aggregates, scalar operations) execute directly against the
compressed form without fully materialising it back to a dense or sparse
block. The multiply and aggregate kernels take a worker count and partition
work across column groups, columns or row ranges using a bounded worker
pool; ScalarOperation runs single-threaded.

A CompressedMatrix is built from an uncompressed MatrixBlock by
Compress. Once built it is read-only: operations with no compressed-path
implementation decompress to a fresh block and delegate, logging a one-line
warning naming the operation.

DenseBlock, SparseBlock and SparseVector implement the
gonum.org/v1/gonum/mat Matrix interface so they may be used interchangeably
with mat.Dense and friends. CompressedMatrix does not implement it; it
exposes its shape and cells through R, C and Get.
*/
package cmat
