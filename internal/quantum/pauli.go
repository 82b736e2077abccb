package quantum

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotDiagonal = errors.New("hamiltonian is not diagonal")

type PauliType int

const (
	PauliI PauliType = iota
	PauliX
	PauliY
	PauliZ
)

func (p PauliType) String() string {
	switch p {
	case PauliI:
		return "I"
	case PauliX:
		return "X"
	case PauliY:
		return "Y"
	case PauliZ:
		return "Z"
	default:
		return "?"
	}
}

type PauliOp struct {
	Qubit int       `json:"qubit"`
	Type  PauliType `json:"type"`
}

// PauliTerm is Coeff times a tensor product of single-qubit Paulis. An empty
// Ops list is the identity.
type PauliTerm struct {
	Coeff float64   `json:"coeff"`
	Ops   []PauliOp `json:"ops"`
}

func (t PauliTerm) String() string {
	if len(t.Ops) == 0 {
		return fmt.Sprintf("%g·I", t.Coeff)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%g·", t.Coeff)
	for i, op := range t.Ops {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%d", op.Type, op.Qubit)
	}
	return b.String()
}

// Hamiltonian is a real linear combination of Pauli strings.
type Hamiltonian struct {
	NumQubits int         `json:"num_qubits"`
	Terms     []PauliTerm `json:"terms"`
}

// Validate checks qubit ranges and that no term acts twice on one qubit.
func (h Hamiltonian) Validate() error {
	if h.NumQubits < 1 || h.NumQubits > MaxQubits {
		return fmt.Errorf("%w: %d", ErrTooManyQubits, h.NumQubits)
	}
	for i, t := range h.Terms {
		var used uint64
		for _, op := range t.Ops {
			if op.Qubit < 0 || op.Qubit >= h.NumQubits {
				return fmt.Errorf("term %d: qubit %d out of range", i, op.Qubit)
			}
			if used&(1<<uint(op.Qubit)) != 0 {
				return fmt.Errorf("term %d: qubit %d used twice", i, op.Qubit)
			}
			used |= 1 << uint(op.Qubit)
		}
	}
	return nil
}

// IsDiagonal reports whether every term is built from I and Z only.
func (h Hamiltonian) IsDiagonal() bool {
	for _, t := range h.Terms {
		for _, op := range t.Ops {
			if op.Type == PauliX || op.Type == PauliY {
				return false
			}
		}
	}
	return true
}

// Diagonal returns the computational-basis diagonal of a Z-only Hamiltonian.
func (h Hamiltonian) Diagonal() ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if !h.IsDiagonal() {
		return nil, ErrNotDiagonal
	}
	diag := make([]float64, 1<<uint(h.NumQubits))
	for _, t := range h.Terms {
		var zmask int
		for _, op := range t.Ops {
			if op.Type == PauliZ {
				zmask |= 1 << uint(op.Qubit)
			}
		}
		for k := range diag {
			if parity(k&zmask) {
				diag[k] -= t.Coeff
			} else {
				diag[k] += t.Coeff
			}
		}
	}
	return diag, nil
}

// Apply writes H|ψ⟩ into dst, which must have the width of psi.
func (h Hamiltonian) Apply(dst, psi *State) {
	if dst.n != psi.n || h.NumQubits != psi.n {
		panic("quantum: hamiltonian width mismatch")
	}
	clear(dst.amp)
	for _, t := range h.Terms {
		applyTerm(dst.amp, psi.amp, t)
	}
}

// applyTerm accumulates coeff·P|ψ⟩ into out.
func applyTerm(out, psi []complex128, t PauliTerm) {
	var flip, zmask, ymask int
	for _, op := range t.Ops {
		bit := 1 << uint(op.Qubit)
		switch op.Type {
		case PauliX:
			flip |= bit
		case PauliY:
			flip |= bit
			ymask |= bit
		case PauliZ:
			zmask |= bit
		}
	}
	// Y = iXZ, so each Y contributes a factor i and a Z-sign on the source bit.
	ny := popcount(ymask)
	base := complex(t.Coeff, 0)
	for range ny % 4 {
		base *= complex(0, 1)
	}
	for k, a := range psi {
		if a == 0 {
			continue
		}
		c := base
		if parity(k & (zmask | ymask)) {
			c = -c
		}
		out[k^flip] += c * a
	}
}

// Expectation returns ⟨ψ|H|ψ⟩.
func (h Hamiltonian) Expectation(psi *State) float64 {
	tmp := &State{n: psi.n, amp: make([]complex128, len(psi.amp))}
	h.Apply(tmp, psi)
	return real(psi.Inner(tmp))
}

// ExpectationDiagonal is the fast path for a precomputed diagonal.
func ExpectationDiagonal(diag []float64, psi *State) float64 {
	if len(diag) != len(psi.amp) {
		panic("quantum: diagonal length mismatch")
	}
	var sum float64
	for i, a := range psi.amp {
		sum += diag[i] * (real(a)*real(a) + imag(a)*imag(a))
	}
	return sum
}

func parity(x int) bool {
	return popcount(x)%2 == 1
}

func popcount(x int) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}
