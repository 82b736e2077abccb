package quantum

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

func TestNewRejectsWidth(t *testing.T) {
	t.Parallel()
	_, err := New(0)
	assert.ErrorIs(t, err, ErrTooManyQubits)
	_, err = New(MaxQubits + 1)
	assert.ErrorIs(t, err, ErrTooManyQubits)
}

func TestHadamardMatchesUniform(t *testing.T) {
	t.Parallel()
	s, err := New(3)
	require.NoError(t, err)
	for q := range 3 {
		s.H(q)
	}
	u, err := NewUniform(3)
	require.NoError(t, err)
	for i, a := range s.Amplitudes() {
		assert.InDelta(t, 0, cmplx.Abs(a-u.Amplitudes()[i]), tol)
	}
	assert.InDelta(t, 1, s.Norm(), tol)
}

func TestRXRotatesZExpectation(t *testing.T) {
	t.Parallel()
	z0 := Hamiltonian{NumQubits: 1, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 0, Type: PauliZ}}}}}
	for _, theta := range []float64{0, 0.3, math.Pi / 2, 2.1, math.Pi} {
		s, err := New(1)
		require.NoError(t, err)
		s.RX(0, theta)
		assert.InDelta(t, math.Cos(theta), z0.Expectation(s), 1e-12, "theta=%v", theta)
	}
}

func TestCNOTBellState(t *testing.T) {
	t.Parallel()
	s, err := New(2)
	require.NoError(t, err)
	s.H(0)
	s.CNOT(0, 1)
	p := s.Probabilities()
	assert.InDelta(t, 0.5, p[0b00], tol)
	assert.InDelta(t, 0.5, p[0b11], tol)
	assert.InDelta(t, 0, p[0b01], tol)

	zz := Hamiltonian{NumQubits: 2, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{0, PauliZ}, {1, PauliZ}}}}}
	xx := Hamiltonian{NumQubits: 2, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{0, PauliX}, {1, PauliX}}}}}
	yy := Hamiltonian{NumQubits: 2, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{0, PauliY}, {1, PauliY}}}}}
	assert.InDelta(t, 1, zz.Expectation(s), tol)
	assert.InDelta(t, 1, xx.Expectation(s), tol)
	assert.InDelta(t, -1, yy.Expectation(s), tol)
}

func TestMultiRZMatchesDiagonalPhase(t *testing.T) {
	t.Parallel()
	h := Hamiltonian{NumQubits: 3, Terms: []PauliTerm{{Coeff: 0.5, Ops: []PauliOp{{0, PauliZ}, {2, PauliZ}}}}}
	diag, err := h.Diagonal()
	require.NoError(t, err)

	a, _ := NewUniform(3)
	b, _ := NewUniform(3)
	theta := 0.7
	// exp(-iθ·0.5·Z0Z2) == MultiRZ with angle θ.
	a.ApplyDiagonalPhase(diag, theta)
	b.MultiRZ([]int{0, 2}, theta)
	for i := range a.Amplitudes() {
		assert.InDelta(t, 0, cmplx.Abs(a.Amplitudes()[i]-b.Amplitudes()[i]), tol)
	}
}

func TestMixerIsProductOfRX(t *testing.T) {
	t.Parallel()
	a, _ := New(2)
	b, _ := New(2)
	a.H(0)
	b.H(0)
	a.ApplyMixer(0.4)
	b.RX(0, 0.8)
	b.RX(1, 0.8)
	assert.InDelta(t, 1, cmplx.Abs(a.Inner(b)), tol)
}

func TestDiagonalRejectsX(t *testing.T) {
	t.Parallel()
	h := Hamiltonian{NumQubits: 1, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{0, PauliX}}}}}
	_, err := h.Diagonal()
	assert.ErrorIs(t, err, ErrNotDiagonal)
}

func TestValidateRejectsRepeatedQubit(t *testing.T) {
	t.Parallel()
	h := Hamiltonian{NumQubits: 2, Terms: []PauliTerm{{Coeff: 1, Ops: []PauliOp{{0, PauliZ}, {0, PauliX}}}}}
	assert.Error(t, h.Validate())
}

func TestExpectationDiagonalMatchesGeneral(t *testing.T) {
	t.Parallel()
	h := Hamiltonian{NumQubits: 3, Terms: []PauliTerm{
		{Coeff: -1.5},
		{Coeff: 0.5, Ops: []PauliOp{{0, PauliZ}, {1, PauliZ}}},
		{Coeff: 0.25, Ops: []PauliOp{{2, PauliZ}}},
	}}
	diag, err := h.Diagonal()
	require.NoError(t, err)

	s, _ := NewUniform(3)
	s.RX(0, 0.3)
	s.RX(2, 1.1)
	s.CNOT(0, 1)
	assert.InDelta(t, h.Expectation(s), ExpectationDiagonal(diag, s), 1e-12)
}

func TestSample(t *testing.T) {
	t.Parallel()
	s, _ := New(2)
	s.RX(1, math.Pi) // |10⟩ up to phase
	rng := rand.New(rand.NewSource(3))
	for _, k := range s.Sample(rng, 50) {
		assert.Equal(t, uint64(0b10), k)
	}
	assert.Nil(t, s.Sample(rng, 0))
}

func TestTermString(t *testing.T) {
	t.Parallel()
	term := PauliTerm{Coeff: 0.5, Ops: []PauliOp{{0, PauliZ}, {3, PauliZ}}}
	assert.Equal(t, "0.5·Z0 Z3", term.String())
	assert.Equal(t, "-1·I", PauliTerm{Coeff: -1}.String())
}
