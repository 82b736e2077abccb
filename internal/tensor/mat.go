// Package tensor provides the dense float64 matrices and vector kernels used
// by the recurrent controller.
package tensor

import (
	"math"
	"math/rand"
)

// Mat represents a dense row‑major matrix of float64 values.
//
// R and C are the number of rows and columns. Stride is the number of
// elements between the starts of two consecutive rows (equal to C for every
// matrix this package allocates). Out‑of‑range indices panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float64
}

// NewMat allocates a zeroed r×c matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float64, r*c),
	}
}

// NewMatFromData wraps existing data; len(data) must be r*c.
func NewMatFromData(r, c int, data []float64) Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{R: r, C: c, Stride: c, Data: data}
}

// Row returns a view of the i‑th row.
func (m *Mat) Row(i int) []float64 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

func (m *Mat) At(i, j int) float64 { return m.Row(i)[j] }

func (m *Mat) Set(i, j int, v float64) { m.Row(i)[j] = v }

// Zero clears every element.
func (m *Mat) Zero() {
	clear(m.Data)
}

// VecMat computes dst = xᵀ·m, the row-vector product used for dense layers.
// len(x) must be R and len(dst) must be C.
func VecMat(dst, x []float64, m *Mat) {
	if len(x) != m.R || len(dst) != m.C {
		panic("VecMat shape mismatch")
	}
	clear(dst)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		AddScaled(dst, m.Row(i), xi)
	}
}

// MatVec computes dst = m·v. len(v) must be C and len(dst) must be R.
func MatVec(dst []float64, m *Mat, v []float64) {
	if len(v) != m.C || len(dst) != m.R {
		panic("MatVec shape mismatch")
	}
	for i := range m.R {
		dst[i] = Dot(m.Row(i), v)
	}
}

// AddOuter accumulates m += a·bᵀ.
func AddOuter(m *Mat, a, b []float64) {
	if len(a) != m.R || len(b) != m.C {
		panic("AddOuter shape mismatch")
	}
	for i, ai := range a {
		if ai == 0 {
			continue
		}
		AddScaled(m.Row(i), b, ai)
	}
}

// Glorot fills m from U(-l, l) with l = sqrt(6/(R+C)).
func Glorot(m *Mat, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(m.R+m.C))
	for i := range m.Data {
		m.Data[i] = (rng.Float64()*2 - 1) * limit
	}
}

// Orthogonal fills m with a random matrix whose rows (when R ≤ C) or
// columns (when R > C) are orthonormal.
func Orthogonal(m *Mat, rng *rand.Rand) {
	rows, cols := m.R, m.C
	transpose := rows > cols
	if transpose {
		rows, cols = cols, rows
	}
	q := NewMat(rows, cols)
	for i := range q.Data {
		q.Data[i] = rng.NormFloat64()
	}
	// Modified Gram–Schmidt over the short side.
	for i := 0; i < rows; {
		ri := q.Row(i)
		for j := range i {
			rj := q.Row(j)
			AddScaled(ri, rj, -Dot(ri, rj))
		}
		n := math.Sqrt(Dot(ri, ri))
		if n < 1e-12 {
			// Degenerate draw; resample the row and try again.
			for k := range ri {
				ri[k] = rng.NormFloat64()
			}
			continue
		}
		Scale(ri, 1/n)
		i++
	}
	for i := range rows {
		for j := range cols {
			if transpose {
				m.Set(j, i, q.At(i, j))
			} else {
				m.Set(i, j, q.At(i, j))
			}
		}
	}
}
