// Package qaoa builds depth-p QAOA circuits for MaxCut and evaluates their
// cost expectation and its exact parameter gradient.
package qaoa

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/samcharles93/qmeta/internal/graph"
	"github.com/samcharles93/qmeta/internal/quantum"
)

var ErrParamCount = errors.New("wrong number of QAOA parameters")

// MaxCutHamiltonians returns the cost operator Σ w/2 (Z_u Z_v − I) and the
// transverse-field mixer Σ X_i. ⟨cost⟩ is minus the expected cut weight.
func MaxCutHamiltonians(g graph.Graph) (cost, mixer quantum.Hamiltonian) {
	cost.NumQubits = g.Nodes
	mixer.NumQubits = g.Nodes
	for _, e := range g.Edges {
		w := e.W()
		cost.Terms = append(cost.Terms,
			quantum.PauliTerm{Coeff: w / 2, Ops: []quantum.PauliOp{
				{Qubit: e.U, Type: quantum.PauliZ},
				{Qubit: e.V, Type: quantum.PauliZ},
			}},
			quantum.PauliTerm{Coeff: -w / 2},
		)
	}
	for q := range g.Nodes {
		mixer.Terms = append(mixer.Terms, quantum.PauliTerm{
			Coeff: 1,
			Ops:   []quantum.PauliOp{{Qubit: q, Type: quantum.PauliX}},
		})
	}
	return cost, mixer
}

// Circuit is a QAOA ansatz for one graph. Parameters are laid out flat as
// [γ_1..γ_p, α_1..α_p].
type Circuit struct {
	Graph  graph.Graph
	Layers int
	Cost   quantum.Hamiltonian
	Mixer  quantum.Hamiltonian

	diag []float64

	once   sync.Once
	maxCut float64
	cutErr error
}

// New builds the circuit for g with the given number of layers.
func New(g graph.Graph, layers int) (*Circuit, error) {
	if layers < 1 {
		return nil, fmt.Errorf("qaoa: layers must be positive, got %d", layers)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Nodes > quantum.MaxQubits {
		return nil, fmt.Errorf("%w: graph has %d nodes", quantum.ErrTooManyQubits, g.Nodes)
	}
	cost, mixer := MaxCutHamiltonians(g)
	diag, err := cost.Diagonal()
	if err != nil {
		return nil, err
	}
	return &Circuit{
		Graph:  g,
		Layers: layers,
		Cost:   cost,
		Mixer:  mixer,
		diag:   diag,
	}, nil
}

// NumParams is 2p.
func (c *Circuit) NumParams() int { return 2 * c.Layers }

// Split views flat parameters as (gammas, alphas).
func (c *Circuit) Split(params []float64) (gamma, alpha []float64) {
	return params[:c.Layers], params[c.Layers : 2*c.Layers]
}

func (c *Circuit) check(params []float64) {
	if len(params) != c.NumParams() {
		panic(fmt.Sprintf("%v: got %d, want %d", ErrParamCount, len(params), c.NumParams()))
	}
}

// State prepares |+⟩^n and applies p alternating cost and mixer layers.
func (c *Circuit) State(params []float64) *quantum.State {
	c.check(params)
	s, err := quantum.NewUniform(c.Graph.Nodes)
	if err != nil {
		// New already bounded the width.
		panic(err)
	}
	gamma, alpha := c.Split(params)
	for l := range c.Layers {
		s.ApplyDiagonalPhase(c.diag, gamma[l])
		s.ApplyMixer(alpha[l])
	}
	return s
}

// Evaluate returns ⟨H_C⟩ for the given parameters.
func (c *Circuit) Evaluate(params []float64) float64 {
	return quantum.ExpectationDiagonal(c.diag, c.State(params))
}

// EvaluateWithGrad returns ⟨H_C⟩ and its gradient by adjoint
// differentiation: one forward pass, then the state and the co-state
// H_C|ψ⟩ are walked back through each layer. For a layer exp(-iθG) the
// derivative is 2·Im⟨λ|G|φ⟩.
func (c *Circuit) EvaluateWithGrad(params []float64) (float64, []float64) {
	phi := c.State(params)
	gamma, alpha := c.Split(params)

	lambda := phi.Clone()
	la := lambda.Amplitudes()
	for i := range la {
		la[i] *= complex(c.diag[i], 0)
	}
	cost := real(phi.Inner(lambda))

	grad := make([]float64, c.NumParams())
	tmp := phi.Clone()
	for l := c.Layers - 1; l >= 0; l-- {
		c.Mixer.Apply(tmp, phi)
		grad[c.Layers+l] = 2 * imag(lambda.Inner(tmp))
		phi.ApplyMixer(-alpha[l])
		lambda.ApplyMixer(-alpha[l])

		grad[l] = 2 * imag(innerDiag(lambda, c.diag, phi))
		phi.ApplyDiagonalPhase(c.diag, -gamma[l])
		lambda.ApplyDiagonalPhase(c.diag, -gamma[l])
	}
	return cost, grad
}

// innerDiag returns ⟨a|D|b⟩ for diagonal D.
func innerDiag(a *quantum.State, diag []float64, b *quantum.State) complex128 {
	aa, bb := a.Amplitudes(), b.Amplitudes()
	var sum complex128
	for i, d := range diag {
		x := aa[i]
		sum += complex(real(x), -imag(x)) * bb[i] * complex(d, 0)
	}
	return sum
}

// MaxCut is the exact optimum of the underlying graph, computed once.
func (c *Circuit) MaxCut() (float64, error) {
	c.once.Do(func() {
		c.maxCut, _, c.cutErr = c.Graph.MaxCut()
	})
	return c.maxCut, c.cutErr
}

// ApproximationRatio is the expected cut over the optimum, −cost/MaxCut.
func (c *Circuit) ApproximationRatio(cost float64) (float64, error) {
	best, err := c.MaxCut()
	if err != nil {
		return 0, err
	}
	if best == 0 {
		return 1, nil
	}
	return -cost / best, nil
}

// MostLikelyCut samples the circuit and returns the best cut observed.
func (c *Circuit) MostLikelyCut(params []float64, shots int, rng *rand.Rand) (float64, uint64) {
	var (
		best     float64
		bestMask uint64
	)
	for _, mask := range c.State(params).Sample(rng, shots) {
		if cut := c.Graph.CutValue(mask); cut > best {
			best, bestMask = cut, mask
		}
	}
	return best, bestMask
}
