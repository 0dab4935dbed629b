package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Architecture fixes the layer sizes of the network.
type Architecture struct {
	Window     int `json:"window" yaml:"window"`
	Filters    int `json:"filters" yaml:"filters"`
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
	Units      int `json:"units" yaml:"units"`
	Dense      int `json:"dense" yaml:"dense"`
}

// DefaultArchitecture is Conv1D(32, k=5, causal) -> LSTM(16) -> Dense(16) -> Dense(1) over 20 steps.
func DefaultArchitecture() Architecture {
	return Architecture{Window: 20, Filters: 32, KernelSize: 5, Units: 16, Dense: 16}
}

func (a Architecture) Validate() error {
	if a.Window <= 0 || a.Filters <= 0 || a.KernelSize <= 0 || a.Units <= 0 || a.Dense <= 0 {
		return fmt.Errorf("architecture %+v: all sizes must be positive", a)
	}
	return nil
}

// Params holds every learned weight as a flat row-major slice.
//
//	ConvKernel    [KernelSize][Filters]
//	LSTMKernel    [Filters][4*Units]   gate order i, f, g, o
//	LSTMRecurrent [Units][4*Units]
//	Dense1Kernel  [Units][Dense]
//	OutKernel     [Dense]
type Params struct {
	Arch          Architecture `json:"arch"`
	ConvKernel    []float64    `json:"conv_kernel"`
	ConvBias      []float64    `json:"conv_bias"`
	LSTMKernel    []float64    `json:"lstm_kernel"`
	LSTMRecurrent []float64    `json:"lstm_recurrent"`
	LSTMBias      []float64    `json:"lstm_bias"`
	Dense1Kernel  []float64    `json:"dense1_kernel"`
	Dense1Bias    []float64    `json:"dense1_bias"`
	OutKernel     []float64    `json:"out_kernel"`
	OutBias       []float64    `json:"out_bias"`
}

// zeroParams allocates a zero-filled parameter set (also used as a gradient accumulator).
func zeroParams(a Architecture) *Params {
	g := 4 * a.Units
	return &Params{
		Arch:          a,
		ConvKernel:    make([]float64, a.KernelSize*a.Filters),
		ConvBias:      make([]float64, a.Filters),
		LSTMKernel:    make([]float64, a.Filters*g),
		LSTMRecurrent: make([]float64, a.Units*g),
		LSTMBias:      make([]float64, g),
		Dense1Kernel:  make([]float64, a.Units*a.Dense),
		Dense1Bias:    make([]float64, a.Dense),
		OutKernel:     make([]float64, a.Dense),
		OutBias:       make([]float64, 1),
	}
}

// initParams draws Glorot-uniform kernels from rng. Biases start at zero except the
// LSTM forget gate, which starts at one.
func initParams(a Architecture, rng *rand.Rand) *Params {
	p := zeroParams(a)
	glorot(rng, p.ConvKernel, a.KernelSize, a.KernelSize*a.Filters)
	glorot(rng, p.LSTMKernel, a.Filters, 4*a.Units)
	glorot(rng, p.LSTMRecurrent, a.Units, 4*a.Units)
	glorot(rng, p.Dense1Kernel, a.Units, a.Dense)
	glorot(rng, p.OutKernel, a.Dense, 1)
	for u := 0; u < a.Units; u++ {
		p.LSTMBias[a.Units+u] = 1
	}
	return p
}

func glorot(rng *rand.Rand, dst []float64, fanIn, fanOut int) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range dst {
		dst[i] = (rng.Float64()*2 - 1) * limit
	}
}

// vectors lists the parameter slices in a fixed order shared with gradients and optimizer state.
func (p *Params) vectors() [][]float64 {
	return [][]float64{
		p.ConvKernel, p.ConvBias,
		p.LSTMKernel, p.LSTMRecurrent, p.LSTMBias,
		p.Dense1Kernel, p.Dense1Bias,
		p.OutKernel, p.OutBias,
	}
}

func (p *Params) zero() {
	for _, v := range p.vectors() {
		clear(v)
	}
}

func (p *Params) scale(f float64) {
	for _, v := range p.vectors() {
		for i := range v {
			v[i] *= f
		}
	}
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := zeroParams(p.Arch)
	src, dst := p.vectors(), c.vectors()
	for i := range src {
		copy(dst[i], src[i])
	}
	return c
}

// checkShape verifies every slice length against Arch.
func (p *Params) checkShape() error {
	if err := p.Arch.Validate(); err != nil {
		return err
	}
	want := zeroParams(p.Arch).vectors()
	got := p.vectors()
	for i := range want {
		if len(got[i]) != len(want[i]) {
			return fmt.Errorf("parameter block %d has %d values, want %d: %w", i, len(got[i]), len(want[i]), ErrShapeMismatch)
		}
	}
	return nil
}

func (p *Params) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalParams decodes a snapshot produced by Marshal and validates its shape.
func UnmarshalParams(data []byte) (*Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	if err := p.checkShape(); err != nil {
		return nil, err
	}
	return &p, nil
}
