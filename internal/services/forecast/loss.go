package forecast

import "math"

// Huber is quadratic for |err| <= Delta and linear beyond it.
type Huber struct {
	Delta float64
}

func NewHuber() Huber {
	return Huber{Delta: 1.0}
}

// Loss returns the Huber loss of a single prediction.
func (h Huber) Loss(pred, target float64) float64 {
	e := math.Abs(pred - target)
	if e <= h.Delta {
		return 0.5 * e * e
	}
	return h.Delta*e - 0.5*h.Delta*h.Delta
}

// Grad returns dLoss/dPred.
func (h Huber) Grad(pred, target float64) float64 {
	e := pred - target
	switch {
	case e > h.Delta:
		return h.Delta
	case e < -h.Delta:
		return -h.Delta
	default:
		return e
	}
}
