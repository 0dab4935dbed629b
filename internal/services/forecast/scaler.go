package forecast

import (
	"fmt"
	"math"
)

// MinMaxScaler maps a series into [0,1] using the min and max observed at fit time.
// A scaler is fitted exactly once; the same instance must be used to invert model outputs.
type MinMaxScaler struct {
	min    float64
	max    float64
	fitted bool
}

func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// FitTransform records min/max of series and returns the normalized copy.
func (s *MinMaxScaler) FitTransform(series []float64) ([]float64, error) {
	if s.fitted {
		return nil, ErrScalerRefit
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("index %d: %w", i, ErrNonFiniteValue)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return nil, fmt.Errorf("all %d values equal %v: %w", len(series), lo, ErrConstantSeries)
	}
	if span := hi - lo; math.IsInf(span, 0) {
		return nil, fmt.Errorf("range %v..%v overflows: %w", lo, hi, ErrNonFiniteValue)
	}

	s.min, s.max, s.fitted = lo, hi, true
	return s.Transform(series)
}

// Transform normalizes values with the fitted bounds. Values outside the fit range map outside [0,1].
func (s *MinMaxScaler) Transform(series []float64) ([]float64, error) {
	if !s.fitted {
		return nil, ErrScalerNotFitted
	}
	span := s.max - s.min
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = (v - s.min) / span
	}
	return out, nil
}

// InverseTransform maps normalized values back to the original scale.
func (s *MinMaxScaler) InverseTransform(normalized []float64) ([]float64, error) {
	if !s.fitted {
		return nil, ErrScalerNotFitted
	}
	span := s.max - s.min
	out := make([]float64, len(normalized))
	for i, v := range normalized {
		out[i] = v*span + s.min
	}
	return out, nil
}

func (s *MinMaxScaler) Bounds() (min, max float64) {
	return s.min, s.max
}

func (s *MinMaxScaler) Fitted() bool {
	return s.fitted
}
