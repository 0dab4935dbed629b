package repository

import "errors"

var (
	// ErrSymbolNotFound means the market data provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoMarketData means the provider answered but returned no usable bars.
	ErrNoMarketData = errors.New("no market data")
	// ErrNotFound is returned by stores when nothing was recorded yet.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a record whose key is taken.
	ErrAlreadyExists = errors.New("already exists")
)
