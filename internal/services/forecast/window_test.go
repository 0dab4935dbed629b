package forecast

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestWindowsCountAndLabels(t *testing.T) {
	series := ramp(40)
	examples, err := Windows(series, 20)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if len(examples) != 20 {
		t.Fatalf("expected 20 examples, got %d", len(examples))
	}
	for i, ex := range examples {
		if len(ex.Input) != 20 {
			t.Fatalf("example %d has %d inputs", i, len(ex.Input))
		}
		if ex.Input[0] != float64(i+1) || ex.Input[19] != float64(i+20) {
			t.Fatalf("example %d input bounds %v..%v", i, ex.Input[0], ex.Input[19])
		}
		if ex.Label != float64(i+21) {
			t.Fatalf("example %d label %v, want %v", i, ex.Label, i+21)
		}
	}

	examples[0].Input[0] = -1
	if series[0] != 1 {
		t.Fatalf("windows must copy their inputs")
	}
}

func TestWindowsInsufficientHistory(t *testing.T) {
	if _, err := Windows(ramp(20), 20); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	examples, err := Windows(ramp(21), 20)
	if err != nil || len(examples) != 1 {
		t.Fatalf("expected exactly one example, got %d (%v)", len(examples), err)
	}
}

func TestShufflePreservesExamples(t *testing.T) {
	examples, _ := Windows(ramp(60), 5)
	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	Shuffle(shuffled, rand.New(rand.NewSource(1)))

	labels := make([]float64, len(shuffled))
	moved := false
	for i, ex := range shuffled {
		labels[i] = ex.Label
		if ex.Label != examples[i].Label {
			moved = true
		}
		if ex.Input[len(ex.Input)-1]+1 != ex.Label {
			t.Fatalf("input/label pairing broken: %v -> %v", ex.Input, ex.Label)
		}
	}
	if !moved {
		t.Fatalf("expected a different order")
	}
	sort.Float64s(labels)
	for i, l := range labels {
		if l != examples[i].Label {
			t.Fatalf("labels differ after shuffle")
		}
	}
}

func TestBatches(t *testing.T) {
	examples, _ := Windows(ramp(150), 20)
	batches := Batches(examples, 64)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 64 || len(batches[1]) != 64 || len(batches[2]) != 2 {
		t.Fatalf("unexpected batch sizes %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if len(Batches(nil, 64)) != 0 {
		t.Fatalf("expected no batches for no examples")
	}
}

func TestInferenceWindow(t *testing.T) {
	buf := ramp(20)
	w, err := InferenceWindow(buf, 20)
	if err != nil {
		t.Fatalf("inference window: %v", err)
	}
	w[0] = 99
	if buf[0] != 1 {
		t.Fatalf("inference window must copy")
	}
	if _, err := InferenceWindow(ramp(19), 20); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSplitChronological(t *testing.T) {
	train, test, err := SplitChronological(ramp(40), 0.2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(train) != 32 || len(test) != 8 {
		t.Fatalf("expected 32/8, got %d/%d", len(train), len(test))
	}
	if train[31] != 32 || test[0] != 33 {
		t.Fatalf("split must keep order")
	}

	// ceil: 0.2*101 = 20.2 -> 21 test points
	train, test, _ = SplitChronological(ramp(101), 0.2)
	if len(test) != 21 || len(train) != 80 {
		t.Fatalf("expected 80/21, got %d/%d", len(train), len(test))
	}

	if _, _, err := SplitChronological(ramp(1), 0.2); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}
