package tensor

import (
	"math"
)

// Add adds src to dst element-wise.
func Add(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// AddScaled computes dst += alpha·src.
func AddScaled(dst, src []float64, alpha float64) {
	for i := range dst {
		dst[i] += alpha * src[i]
	}
}

// Scale multiplies x by a in place.
func Scale(x []float64, a float64) {
	for i := range x {
		x[i] *= a
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Sigmoid computes the logistic sigmoid activation.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Tanh is math.Tanh, kept here so activations live in one place.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Concat appends the given vectors into dst, which is returned.
func Concat(dst []float64, parts ...[]float64) []float64 {
	dst = dst[:0]
	for _, p := range parts {
		dst = append(dst, p...)
	}
	return dst
}

// Norm2 is the Euclidean norm.
func Norm2(x []float64) float64 {
	return math.Sqrt(Dot(x, x))
}
