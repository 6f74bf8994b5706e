package blas

// Dusdot returns the dot product of the compressed vector x (at the
// indices in indx) against the full vector y. LeftMultByVector uses it with
// x held to all 1s to sum y at a tuple's covered rows without decoding the
// stream a second time.
func Dusdot(x []float64, indx []int, y []float64, incy int) (dot float64) {
	for i, idx := range indx {
		dot += x[i] * y[idx*incy]
	}
	return dot
}
