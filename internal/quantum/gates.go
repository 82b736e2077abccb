package quantum

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// H applies a Hadamard gate to qubit q.
func (s *State) H(q int) {
	s.checkQubit(q)
	mask := 1 << uint(q)
	inv := complex(1/math.Sqrt2, 0)
	for i := range s.amp {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a, b := s.amp[i], s.amp[j]
		s.amp[i] = (a + b) * inv
		s.amp[j] = (a - b) * inv
	}
}

// RX applies exp(-iθX/2) to qubit q.
func (s *State) RX(q int, theta float64) {
	s.checkQubit(q)
	mask := 1 << uint(q)
	c := complex(math.Cos(theta/2), 0)
	ms := complex(0, -math.Sin(theta/2))
	for i := range s.amp {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a, b := s.amp[i], s.amp[j]
		s.amp[i] = c*a + ms*b
		s.amp[j] = ms*a + c*b
	}
}

// RZ applies exp(-iθZ/2) to qubit q.
func (s *State) RZ(q int, theta float64) {
	s.checkQubit(q)
	mask := 1 << uint(q)
	p0 := cmplx.Exp(complex(0, -theta/2))
	p1 := cmplx.Exp(complex(0, theta/2))
	for i := range s.amp {
		if i&mask == 0 {
			s.amp[i] *= p0
		} else {
			s.amp[i] *= p1
		}
	}
}

// CNOT flips target when control is set.
func (s *State) CNOT(control, target int) {
	s.checkQubit(control)
	s.checkQubit(target)
	if control == target {
		panic("quantum: CNOT control equals target")
	}
	cm, tm := 1<<uint(control), 1<<uint(target)
	for i := range s.amp {
		if i&cm != 0 && i&tm == 0 {
			j := i | tm
			s.amp[i], s.amp[j] = s.amp[j], s.amp[i]
		}
	}
}

// MultiRZ applies exp(-iθ Z⊗…⊗Z/2) over the given qubits.
func (s *State) MultiRZ(qubits []int, theta float64) {
	var mask uint
	for _, q := range qubits {
		s.checkQubit(q)
		mask |= 1 << uint(q)
	}
	even := cmplx.Exp(complex(0, -theta/2))
	odd := cmplx.Exp(complex(0, theta/2))
	for i := range s.amp {
		if bits.OnesCount(uint(i)&mask)%2 == 0 {
			s.amp[i] *= even
		} else {
			s.amp[i] *= odd
		}
	}
}

// ApplyDiagonalPhase applies exp(-iθ·D) for a diagonal operator D given by
// its diagonal entries.
func (s *State) ApplyDiagonalPhase(diag []float64, theta float64) {
	if len(diag) != len(s.amp) {
		panic("quantum: diagonal length mismatch")
	}
	for i, d := range diag {
		sin, cos := math.Sincos(-theta * d)
		s.amp[i] *= complex(cos, sin)
	}
}

// ApplyMixer applies exp(-iθ Σ_q X_q), i.e. RX(2θ) on every wire.
func (s *State) ApplyMixer(theta float64) {
	for q := range s.n {
		s.RX(q, 2*theta)
	}
}
