package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// Example is one supervised pair: Size consecutive values and the value that follows them.
type Example struct {
	Input []float64 `json:"input"`
	Label float64   `json:"label"`
}

// Windows slices series into len(series)-size examples with stride 1.
// Example i is (series[i:i+size], series[i+size]). Order follows the series.
func Windows(series []float64, size int) ([]Example, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size %d: %w", size, ErrShapeMismatch)
	}
	if len(series) < size+1 {
		return nil, fmt.Errorf("need at least %d points, got %d: %w", size+1, len(series), ErrInsufficientHistory)
	}

	out := make([]Example, 0, len(series)-size)
	for i := 0; i+size < len(series); i++ {
		input := make([]float64, size)
		copy(input, series[i:i+size])
		out = append(out, Example{Input: input, Label: series[i+size]})
	}
	return out, nil
}

// Shuffle reorders examples in place. Only training examples are shuffled.
func Shuffle(examples []Example, rng *rand.Rand) {
	rng.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})
}

// Batches splits examples into consecutive groups of batchSize; the last group may be shorter.
func Batches(examples []Example, batchSize int) [][]Example {
	if batchSize <= 0 {
		batchSize = len(examples)
	}
	out := make([][]Example, 0, (len(examples)+batchSize-1)/max(batchSize, 1))
	for start := 0; start < len(examples); start += batchSize {
		end := min(start+batchSize, len(examples))
		out = append(out, examples[start:end])
	}
	return out
}

// InferenceWindow returns a copy of buffer as the single model input. The buffer must hold exactly size values.
func InferenceWindow(buffer []float64, size int) ([]float64, error) {
	if len(buffer) != size {
		return nil, fmt.Errorf("inference window has %d values, want %d: %w", len(buffer), size, ErrShapeMismatch)
	}
	out := make([]float64, size)
	copy(out, buffer)
	return out, nil
}

// SplitChronological splits series into a leading train part and a trailing test part of
// ceil(testRatio*len(series)) points. No shuffling.
func SplitChronological(series []float64, testRatio float64) (train, test []float64, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v must be in (0,1)", testRatio)
	}
	nTest := int(math.Ceil(testRatio * float64(len(series))))
	nTrain := len(series) - nTest
	if nTrain <= 0 || nTest <= 0 {
		return nil, nil, fmt.Errorf("cannot split %d points: %w", len(series), ErrInsufficientHistory)
	}
	return series[:nTrain], series[nTrain:], nil
}
