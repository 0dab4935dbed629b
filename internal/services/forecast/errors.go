package forecast

import "errors"

var (
	// ErrInsufficientHistory is returned when a series is too short to yield a single training example.
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrEmptySeries         = errors.New("empty series")
	ErrConstantSeries      = errors.New("constant series cannot be scaled")
	ErrNonFiniteValue      = errors.New("series contains NaN or Inf")
	ErrScalerNotFitted     = errors.New("scaler is not fitted")
	ErrScalerRefit         = errors.New("scaler is already fitted")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrEmptyValidationSet  = errors.New("validation set is empty")
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	// ErrNoFiniteLoss means no epoch produced a finite validation loss, so nothing was checkpointed.
	ErrNoFiniteLoss = errors.New("validation loss never became finite")
)
