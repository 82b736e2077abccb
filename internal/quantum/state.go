// Package quantum is a dense statevector simulator for the handful of qubits
// a QAOA MaxCut instance needs.
//
// Qubit q corresponds to bit q of the basis-state index, so amplitude k is
// the coefficient of |k⟩ with qubit 0 as the least significant bit.
package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"
)

// MaxQubits bounds the simulator; 2^20 amplitudes is 16 MiB of complex128.
const MaxQubits = 20

var ErrTooManyQubits = errors.New("too many qubits")

// State is a pure n-qubit state.
type State struct {
	n   int
	amp []complex128
}

// New returns |0…0⟩ on n qubits.
func New(n int) (*State, error) {
	if n < 1 || n > MaxQubits {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", ErrTooManyQubits, n, MaxQubits)
	}
	s := &State{n: n, amp: make([]complex128, 1<<uint(n))}
	s.amp[0] = 1
	return s, nil
}

// NewUniform returns |+⟩^n, the result of a Hadamard on every wire of |0…0⟩.
func NewUniform(n int) (*State, error) {
	s, err := New(n)
	if err != nil {
		return nil, err
	}
	s.Reset()
	return s, nil
}

// Reset overwrites the state with |+⟩^n without reallocating.
func (s *State) Reset() {
	v := complex(1/math.Sqrt(float64(len(s.amp))), 0)
	for i := range s.amp {
		s.amp[i] = v
	}
}

func (s *State) NumQubits() int { return s.n }

// Dim is the number of amplitudes, 2^n.
func (s *State) Dim() int { return len(s.amp) }

// Amplitudes returns the live amplitude slice.
func (s *State) Amplitudes() []complex128 { return s.amp }

func (s *State) Clone() *State {
	out := &State{n: s.n, amp: make([]complex128, len(s.amp))}
	copy(out.amp, s.amp)
	return out
}

// CopyFrom overwrites s with o. Both must have the same width.
func (s *State) CopyFrom(o *State) {
	if s.n != o.n {
		panic("quantum: state width mismatch")
	}
	copy(s.amp, o.amp)
}

// Inner returns ⟨s|o⟩.
func (s *State) Inner(o *State) complex128 {
	if s.n != o.n {
		panic("quantum: state width mismatch")
	}
	var sum complex128
	for i, a := range s.amp {
		sum += cmplx.Conj(a) * o.amp[i]
	}
	return sum
}

// Norm returns ⟨s|s⟩, which stays 1 under unitary evolution.
func (s *State) Norm() float64 {
	var sum float64
	for _, a := range s.amp {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

// Probabilities returns |amp_k|^2 for every basis state.
func (s *State) Probabilities() []float64 {
	p := make([]float64, len(s.amp))
	for i, a := range s.amp {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

// Sample draws shots basis states from the measurement distribution.
func (s *State) Sample(rng *rand.Rand, shots int) []uint64 {
	if shots <= 0 {
		return nil
	}
	cdf := s.Probabilities()
	for i := 1; i < len(cdf); i++ {
		cdf[i] += cdf[i-1]
	}
	total := cdf[len(cdf)-1]
	out := make([]uint64, shots)
	for i := range out {
		r := rng.Float64() * total
		k := sort.SearchFloat64s(cdf, r)
		if k >= len(cdf) {
			k = len(cdf) - 1
		}
		out[i] = uint64(k)
	}
	return out
}

func (s *State) checkQubit(q int) {
	if q < 0 || q >= s.n {
		panic("quantum: qubit index out of range")
	}
}
