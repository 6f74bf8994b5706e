package blas

// Dusaxpy scatter-adds alpha*x[i] into y at y[indx[i]*incy], for every i.
// It is the primitive RightMultByVector uses to add one tuple's scalar
// projection to every row the tuple's stream reports as covered: x is a
// same-length run of 1s, indx the decoded absolute row offsets, alpha the
// tuple's projected scalar.
func Dusaxpy(alpha float64, x []float64, indx []int, y []float64, incy int) {
	for i, idx := range indx {
		y[idx*incy] += alpha * x[i]
	}
}
