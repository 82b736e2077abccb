// Package optim holds the first-order optimizers used to train the
// controller (Adam) and to fine-tune QAOA angles directly (SGD).
package optim

import "math"

// Optimizer updates params in place from grads; the two lists line up
// element for element.
type Optimizer interface {
	Step(params, grads [][]float64)
}

// SGD is plain gradient descent.
type SGD struct {
	LR float64
}

func (o *SGD) Step(params, grads [][]float64) {
	for i, p := range params {
		g := grads[i]
		for j := range p {
			p[j] -= o.LR * g[j]
		}
	}
}

// Adam uses the Keras defaults unless fields are set explicitly.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t    int
	m, v [][]float64
}

func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-7}
}

// Steps reports how many updates have been applied.
func (o *Adam) Steps() int { return o.t }

func (o *Adam) Step(params, grads [][]float64) {
	if o.m == nil {
		o.m = make([][]float64, len(params))
		o.v = make([][]float64, len(params))
		for i, p := range params {
			o.m[i] = make([]float64, len(p))
			o.v[i] = make([]float64, len(p))
		}
	}
	if len(o.m) != len(params) {
		panic("optim: parameter list changed between Adam steps")
	}
	o.t++
	b1, b2 := o.Beta1, o.Beta2
	lrT := o.LR * math.Sqrt(1-math.Pow(b2, float64(o.t))) / (1 - math.Pow(b1, float64(o.t)))
	for i, p := range params {
		g, m, v := grads[i], o.m[i], o.v[i]
		for j := range p {
			m[j] = b1*m[j] + (1-b1)*g[j]
			v[j] = b2*v[j] + (1-b2)*g[j]*g[j]
			p[j] -= lrT * m[j] / (math.Sqrt(v[j]) + o.Eps)
		}
	}
}
