// Package blas provides the two sparse BLAS level-1 primitives the OLE and
// RLE column-group kernels build their row-vector contributions from:
// Dusaxpy (scatter-add a scalar at a list of row offsets) and Dusdot (sum a
// vector at a list of row offsets). Both take an explicit index slice
// rather than assuming a stride, matching the row offsets bitmapGroup
// decodes from its stream for a row range.
//
// See http://www.netlib.org/blas/blast-forum/chapter3.pdf for the level 1
// sparse BLAS routines these are modeled on.
package blas
