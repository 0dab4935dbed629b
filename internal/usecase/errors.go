package usecase

import "errors"

var (
	// ErrMissingSymbol is returned when no stock code was supplied.
	ErrMissingSymbol = errors.New("stock code is required")
	// ErrForecastInProgress means another run for the same symbol holds the lock.
	ErrForecastInProgress = errors.New("forecast already in progress for symbol")
	// ErrMarketData wraps failures of the market data provider.
	ErrMarketData = errors.New("market data unavailable")
	// ErrQueueUnavailable means an async job could not be enqueued.
	ErrQueueUnavailable = errors.New("forecast queue unavailable")
)
