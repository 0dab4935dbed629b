package forecast

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func smallArch() Architecture {
	return Architecture{Window: 6, Filters: 3, KernelSize: 3, Units: 2, Dense: 3}
}

func TestNetworkPredictShape(t *testing.T) {
	net, err := NewNetwork(DefaultArchitecture(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if _, err := net.Predict(make([]float64, 19)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	v, err := net.Predict(make([]float64, 20))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.IsNaN(v) {
		t.Fatalf("prediction is NaN")
	}
}

func TestNetworkInitForgetBias(t *testing.T) {
	net, _ := NewNetwork(DefaultArchitecture(), rand.New(rand.NewSource(7)))
	p := net.Params()
	u := net.Architecture().Units
	for i, b := range p.LSTMBias {
		want := 0.0
		if i >= u && i < 2*u {
			want = 1
		}
		if b != want {
			t.Fatalf("lstm bias %d = %v, want %v", i, b, want)
		}
	}
}

// TestNetworkGradients compares backward against central differences of L = out^2 / 2.
func TestNetworkGradients(t *testing.T) {
	arch := smallArch()
	net, err := NewNetwork(arch, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	// larger weights so that every gate and relu path is exercised
	for _, v := range net.params.vectors() {
		for i := range v {
			v[i] *= 3
		}
	}
	x := []float64{0.1, 0.7, 0.35, 0.9, 0.55, 0.2}

	act := net.forward(x)
	grad := zeroParams(arch)
	net.backward(act, act.out, grad)

	loss := func() float64 {
		out := net.forward(x).out
		return 0.5 * out * out
	}

	const eps = 1e-6
	params, grads := net.params.vectors(), grad.vectors()
	for b := range params {
		for i := range params[b] {
			orig := params[b][i]
			params[b][i] = orig + eps
			up := loss()
			params[b][i] = orig - eps
			down := loss()
			params[b][i] = orig

			numeric := (up - down) / (2 * eps)
			analytic := grads[b][i]
			if math.Abs(numeric-analytic) > 1e-5*math.Max(1, math.Abs(numeric)+math.Abs(analytic)) {
				t.Fatalf("block %d index %d: analytic %v numeric %v", b, i, analytic, numeric)
			}
		}
	}
}

func TestModelSnapshotRestore(t *testing.T) {
	arch := smallArch()
	m, err := NewModel(arch, 0.01, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	x := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	before, _ := m.Predict(x)
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	examples, _ := Windows([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}, 6)
	for i := 0; i < 5; i++ {
		if _, err := m.TrainBatch(examples); err != nil {
			t.Fatalf("train batch: %v", err)
		}
	}
	changed, _ := m.Predict(x)
	if changed == before {
		t.Fatalf("expected training to change predictions")
	}

	if err := m.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	after, _ := m.Predict(x)
	if after != before {
		t.Fatalf("restore mismatch: %v vs %v", after, before)
	}
}

func TestRestoreRejectsWrongArchitecture(t *testing.T) {
	m, _ := NewModel(smallArch(), 0.01, rand.New(rand.NewSource(1)))
	other, _ := NewModel(DefaultArchitecture(), 0.01, rand.New(rand.NewSource(1)))
	snap, _ := other.Snapshot()
	if err := m.Restore(snap); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := UnmarshalParams([]byte(`{"arch":{"window":6,"filters":3,"kernel_size":3,"units":2,"dense":3},"conv_kernel":[1]}`)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for truncated params, got %v", err)
	}
}
