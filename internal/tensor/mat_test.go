package tensor

import (
	"math"
	"math/rand"
	"testing"
)

func vecMatNaive(x []float64, m *Mat) []float64 {
	out := make([]float64, m.C)
	for j := 0; j < m.C; j++ {
		var sum float64
		for i := 0; i < m.R; i++ {
			sum += x[i] * m.Data[i*m.Stride+j]
		}
		out[j] = sum
	}
	return out
}

func randMat(r, c int, seed int64) Mat {
	m := NewMat(r, c)
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = rng.Float64()*2 - 1
	}
	return m
}

func TestVecMatMatchesNaive(t *testing.T) {
	t.Parallel()
	m := randMat(5, 7, 1)
	x := []float64{0.5, -1, 0, 2, 0.25}
	got := make([]float64, 7)
	VecMat(got, x, &m)
	want := vecMatNaive(x, &m)
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("VecMat mismatch at %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestMatVecIsTransposeOfVecMat(t *testing.T) {
	t.Parallel()
	m := randMat(4, 3, 2)
	x := []float64{1, -2, 0.5, 3}
	v := []float64{0.3, -0.7, 1.1}

	// xᵀ(Mv) == (xᵀM)v
	mv := make([]float64, 4)
	MatVec(mv, &m, v)
	xm := make([]float64, 3)
	VecMat(xm, x, &m)
	if a, b := Dot(x, mv), Dot(xm, v); math.Abs(a-b) > 1e-12 {
		t.Fatalf("expected xᵀ(Mv) == (xᵀM)v, got %f vs %f", a, b)
	}
}

func TestAddOuter(t *testing.T) {
	t.Parallel()
	m := NewMat(2, 3)
	AddOuter(&m, []float64{1, 2}, []float64{3, 4, 5})
	AddOuter(&m, []float64{1, 0}, []float64{1, 1, 1})
	want := []float64{4, 5, 6, 6, 8, 10}
	for i, w := range want {
		if m.Data[i] != w {
			t.Fatalf("AddOuter: got %v, want %v", m.Data, want)
		}
	}
}

func TestOrthogonalRows(t *testing.T) {
	t.Parallel()
	for _, shape := range [][2]int{{2, 8}, {4, 4}, {6, 3}} {
		m := NewMat(shape[0], shape[1])
		Orthogonal(&m, rand.New(rand.NewSource(5)))

		// Gram matrix over the short side must be the identity.
		short := min(m.R, m.C)
		vec := func(k int) []float64 {
			if m.R <= m.C {
				return m.Row(k)
			}
			col := make([]float64, m.R)
			for i := range m.R {
				col[i] = m.At(i, k)
			}
			return col
		}
		for a := range short {
			for b := range short {
				want := 0.0
				if a == b {
					want = 1
				}
				if got := Dot(vec(a), vec(b)); math.Abs(got-want) > 1e-10 {
					t.Fatalf("shape %v: gram[%d][%d] = %f, want %f", shape, a, b, got, want)
				}
			}
		}
	}
}

func TestGlorotBounds(t *testing.T) {
	t.Parallel()
	m := NewMat(3, 8)
	Glorot(&m, rand.New(rand.NewSource(3)))
	limit := math.Sqrt(6.0 / 11.0)
	var nonzero int
	for _, v := range m.Data {
		if math.Abs(v) > limit {
			t.Fatalf("value %f outside glorot limit %f", v, limit)
		}
		if v != 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Fatal("expected glorot to fill the matrix")
	}
}

func TestSigmoidStable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		x, want float64
	}{
		{0, 0.5},
		{-1000, 0},
		{1000, 1},
	}
	for _, tc := range tests {
		if got := Sigmoid(tc.x); math.Abs(got-tc.want) > 1e-12 || math.IsNaN(got) {
			t.Errorf("Sigmoid(%v): expected %v, got %v", tc.x, tc.want, got)
		}
	}
}

func TestRowOutOfRangePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out of range row")
		}
	}()
	m := NewMat(2, 2)
	m.Row(2)
}

func TestConcat(t *testing.T) {
	t.Parallel()
	buf := make([]float64, 0, 4)
	got := Concat(buf, []float64{1}, []float64{2, 3})
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected concat result %v", got)
	}
}

func TestScaleAndSet(t *testing.T) {
	t.Parallel()
	x := []float64{1, -2, 4}
	Scale(x, 0.5)
	want := []float64{0.5, -1, 2}
	for i := range x {
		if x[i] != want[i] {
			t.Fatalf("Scale: got %v, want %v", x, want)
		}
	}

	m := NewMat(2, 3)
	m.Set(1, 2, 7)
	if m.At(1, 2) != 7 || m.Data[1*m.Stride+2] != 7 {
		t.Fatalf("Set did not write row-major element: %v", m.Data)
	}
}
