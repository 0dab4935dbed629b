package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// Network is a causal Conv1D -> LSTM -> Dense(relu) -> Dense(linear) regressor over a
// univariate window. Forward and backward passes are computed directly on Params.
type Network struct {
	arch   Architecture
	params *Params
}

func NewNetwork(arch Architecture, rng *rand.Rand) (*Network, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	return &Network{arch: arch, params: initParams(arch, rng)}, nil
}

func (n *Network) Architecture() Architecture {
	return n.arch
}

func (n *Network) Params() *Params {
	return n.params
}

// SetParams replaces the weights. The architecture must match.
func (n *Network) SetParams(p *Params) error {
	if err := p.checkShape(); err != nil {
		return err
	}
	if p.Arch != n.arch {
		return fmt.Errorf("params for %+v, network is %+v: %w", p.Arch, n.arch, ErrShapeMismatch)
	}
	n.params = p
	return nil
}

// Predict runs a forward pass on one window of Window values.
func (n *Network) Predict(window []float64) (float64, error) {
	if len(window) != n.arch.Window {
		return 0, fmt.Errorf("window has %d values, want %d: %w", len(window), n.arch.Window, ErrShapeMismatch)
	}
	return n.forward(window).out, nil
}

// activations keeps everything the backward pass needs.
type activations struct {
	x       []float64
	convPre [][]float64 // [t][filter]
	convOut [][]float64
	gateI   [][]float64 // [t][unit], post-activation
	gateF   [][]float64
	gateG   [][]float64
	gateO   [][]float64
	cell    [][]float64 // [t+1][unit], cell[0] is the zero state
	hidden  [][]float64
	densPre []float64
	densOut []float64
	out     float64
}

func (n *Network) forward(x []float64) *activations {
	a, p := n.arch, n.params
	steps, filters, units, gates := a.Window, a.Filters, a.Units, 4*a.Units

	act := &activations{
		x:       x,
		convPre: matrix(steps, filters),
		convOut: matrix(steps, filters),
		gateI:   matrix(steps, units),
		gateF:   matrix(steps, units),
		gateG:   matrix(steps, units),
		gateO:   matrix(steps, units),
		cell:    matrix(steps+1, units),
		hidden:  matrix(steps+1, units),
		densPre: make([]float64, a.Dense),
		densOut: make([]float64, a.Dense),
	}

	// causal convolution: output t sees inputs t-(k-1) .. t, zero padded on the left
	for t := 0; t < steps; t++ {
		for f := 0; f < filters; f++ {
			sum := p.ConvBias[f]
			for k := 0; k < a.KernelSize; k++ {
				idx := t - (a.KernelSize - 1) + k
				if idx < 0 {
					continue
				}
				sum += p.ConvKernel[k*filters+f] * x[idx]
			}
			act.convPre[t][f] = sum
			act.convOut[t][f] = relu(sum)
		}
	}

	z := make([]float64, gates)
	for t := 0; t < steps; t++ {
		in, hPrev, cPrev := act.convOut[t], act.hidden[t], act.cell[t]
		copy(z, p.LSTMBias)
		for j, xv := range in {
			if xv == 0 {
				continue
			}
			row := p.LSTMKernel[j*gates : (j+1)*gates]
			for g := range z {
				z[g] += xv * row[g]
			}
		}
		for k, hv := range hPrev {
			row := p.LSTMRecurrent[k*gates : (k+1)*gates]
			for g := range z {
				z[g] += hv * row[g]
			}
		}
		for u := 0; u < units; u++ {
			i := sigmoid(z[u])
			f := sigmoid(z[units+u])
			g := math.Tanh(z[2*units+u])
			o := sigmoid(z[3*units+u])
			c := f*cPrev[u] + i*g
			act.gateI[t][u], act.gateF[t][u], act.gateG[t][u], act.gateO[t][u] = i, f, g, o
			act.cell[t+1][u] = c
			act.hidden[t+1][u] = o * math.Tanh(c)
		}
	}

	last := act.hidden[steps]
	for d := 0; d < a.Dense; d++ {
		sum := p.Dense1Bias[d]
		for u, hv := range last {
			sum += hv * p.Dense1Kernel[u*a.Dense+d]
		}
		act.densPre[d] = sum
		act.densOut[d] = relu(sum)
	}

	out := p.OutBias[0]
	for d, v := range act.densOut {
		out += v * p.OutKernel[d]
	}
	act.out = out
	return act
}

// backward accumulates dLoss/dParams into grad given dLoss/dOutput.
func (n *Network) backward(act *activations, dOut float64, grad *Params) {
	a, p := n.arch, n.params
	steps, filters, units, gates := a.Window, a.Filters, a.Units, 4*a.Units

	grad.OutBias[0] += dOut
	dDens := make([]float64, a.Dense)
	for d := range dDens {
		grad.OutKernel[d] += dOut * act.densOut[d]
		if act.densPre[d] > 0 {
			dDens[d] = dOut * p.OutKernel[d]
		}
	}

	last := act.hidden[steps]
	dh := make([]float64, units)
	for d, g := range dDens {
		if g == 0 {
			continue
		}
		grad.Dense1Bias[d] += g
		for u := 0; u < units; u++ {
			grad.Dense1Kernel[u*a.Dense+d] += g * last[u]
			dh[u] += g * p.Dense1Kernel[u*a.Dense+d]
		}
	}

	dc := make([]float64, units)
	dz := make([]float64, gates)
	dhPrev := make([]float64, units)
	dConv := matrix(steps, filters)
	for t := steps - 1; t >= 0; t-- {
		for u := 0; u < units; u++ {
			i, f, g, o := act.gateI[t][u], act.gateF[t][u], act.gateG[t][u], act.gateO[t][u]
			tc := math.Tanh(act.cell[t+1][u])
			dO := dh[u] * tc
			dc[u] += dh[u] * o * (1 - tc*tc)
			dI := dc[u] * g
			dG := dc[u] * i
			dF := dc[u] * act.cell[t][u]
			dz[u] = dI * i * (1 - i)
			dz[units+u] = dF * f * (1 - f)
			dz[2*units+u] = dG * (1 - g*g)
			dz[3*units+u] = dO * o * (1 - o)
			dc[u] *= f
		}

		for gi, v := range dz {
			grad.LSTMBias[gi] += v
		}
		in, hPrev := act.convOut[t], act.hidden[t]
		for j := 0; j < filters; j++ {
			row := p.LSTMKernel[j*gates : (j+1)*gates]
			grow := grad.LSTMKernel[j*gates : (j+1)*gates]
			var sum float64
			for gi, v := range dz {
				grow[gi] += in[j] * v
				sum += v * row[gi]
			}
			dConv[t][j] = sum
		}
		for k := 0; k < units; k++ {
			row := p.LSTMRecurrent[k*gates : (k+1)*gates]
			grow := grad.LSTMRecurrent[k*gates : (k+1)*gates]
			var sum float64
			for gi, v := range dz {
				grow[gi] += hPrev[k] * v
				sum += v * row[gi]
			}
			dhPrev[k] = sum
		}
		dh, dhPrev = dhPrev, dh
	}

	for t := 0; t < steps; t++ {
		for f := 0; f < filters; f++ {
			if act.convPre[t][f] <= 0 {
				continue
			}
			g := dConv[t][f]
			grad.ConvBias[f] += g
			for k := 0; k < a.KernelSize; k++ {
				idx := t - (a.KernelSize - 1) + k
				if idx < 0 {
					continue
				}
				grad.ConvKernel[k*filters+f] += g * act.x[idx]
			}
		}
	}
}

func matrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols]
	}
	return m
}

func relu(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
