package forecast

import (
	"fmt"
	"math/rand"
)

// Predictor maps one window of normalized values to the next normalized value.
type Predictor interface {
	Predict(window []float64) (float64, error)
}

// Trainable is what Trainer drives: batch updates, evaluation and weight snapshots.
type Trainable interface {
	Predictor
	TrainBatch(batch []Example) (float64, error)
	Evaluate(examples []Example) (float64, error)
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}

// Model couples a Network with Huber loss and an Adam optimizer.
type Model struct {
	net  *Network
	opt  *Adam
	loss Huber
	grad *Params
}

var _ Trainable = (*Model)(nil)

func NewModel(arch Architecture, learningRate float64, rng *rand.Rand) (*Model, error) {
	net, err := NewNetwork(arch, rng)
	if err != nil {
		return nil, err
	}
	return &Model{
		net:  net,
		opt:  NewAdam(learningRate),
		loss: NewHuber(),
		grad: zeroParams(arch),
	}, nil
}

func (m *Model) Network() *Network {
	return m.net
}

func (m *Model) Predict(window []float64) (float64, error) {
	return m.net.Predict(window)
}

// TrainBatch runs forward/backward over batch, takes one Adam step on the mean gradient
// and returns the mean loss before the step.
func (m *Model) TrainBatch(batch []Example) (float64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	m.grad.zero()
	var total float64
	for _, ex := range batch {
		if len(ex.Input) != m.net.arch.Window {
			return 0, fmt.Errorf("example has %d values, want %d: %w", len(ex.Input), m.net.arch.Window, ErrShapeMismatch)
		}
		act := m.net.forward(ex.Input)
		total += m.loss.Loss(act.out, ex.Label)
		m.net.backward(act, m.loss.Grad(act.out, ex.Label), m.grad)
	}
	n := float64(len(batch))
	m.grad.scale(1 / n)
	m.opt.Step(m.net.params.vectors(), m.grad.vectors())
	return total / n, nil
}

// Evaluate returns the mean Huber loss over examples without updating weights.
func (m *Model) Evaluate(examples []Example) (float64, error) {
	if len(examples) == 0 {
		return 0, ErrEmptyValidationSet
	}
	var total float64
	for _, ex := range examples {
		pred, err := m.net.Predict(ex.Input)
		if err != nil {
			return 0, err
		}
		total += m.loss.Loss(pred, ex.Label)
	}
	return total / float64(len(examples)), nil
}

func (m *Model) Snapshot() ([]byte, error) {
	return m.net.params.Marshal()
}

// Restore replaces the weights with a snapshot. Optimizer state is left untouched.
func (m *Model) Restore(data []byte) error {
	p, err := UnmarshalParams(data)
	if err != nil {
		return err
	}
	return m.net.SetParams(p)
}
