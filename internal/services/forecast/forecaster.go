package forecast

import "fmt"

// ring is a fixed-capacity window over the most recent values.
type ring struct {
	data  []float64
	start int
}

func newRing(seed []float64) *ring {
	data := make([]float64, len(seed))
	copy(data, seed)
	return &ring{data: data}
}

// push drops the oldest value and appends v; the length never changes.
func (r *ring) push(v float64) {
	r.data[r.start] = v
	r.start = (r.start + 1) % len(r.data)
}

// ordered writes the values oldest first into dst.
func (r *ring) ordered(dst []float64) []float64 {
	dst = dst[:0]
	dst = append(dst, r.data[r.start:]...)
	return append(dst, r.data[:r.start]...)
}

func (r *ring) len() int {
	return len(r.data)
}

// Forecast predicts horizon steps ahead by feeding each prediction back as the newest input.
// Errors compound across the horizon; no correction is applied.
func Forecast(p Predictor, seed []float64, horizon int) ([]float64, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("horizon must not be negative, got %d", horizon)
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("empty seed window: %w", ErrShapeMismatch)
	}

	buf := newRing(seed)
	window := make([]float64, 0, buf.len())
	out := make([]float64, 0, horizon)
	for step := 0; step < horizon; step++ {
		window = buf.ordered(window)
		in, err := InferenceWindow(window, len(seed))
		if err != nil {
			return nil, err
		}
		v, err := p.Predict(in)
		if err != nil {
			return nil, fmt.Errorf("forecast step %d: %w", step+1, err)
		}
		out = append(out, v)
		buf.push(v)
	}
	return out, nil
}
