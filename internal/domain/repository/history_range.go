package repository

// HistoryRange is how far back daily candles are requested.
type HistoryRange string

const (
	Range1y  HistoryRange = "1y"
	Range2y  HistoryRange = "2y"
	Range5y  HistoryRange = "5y"
	Range10y HistoryRange = "10y"
	RangeMax HistoryRange = "max"
)

// IsValidRange returns true if r is a supported range.
func IsValidRange(r HistoryRange) bool {
	switch r {
	case Range1y, Range2y, Range5y, Range10y, RangeMax:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default range.
func DefaultRange() HistoryRange { return Range10y }

// NormalizeRange converts raw string to a valid range (or default).
func NormalizeRange(s string) HistoryRange {
	if s == "" {
		return DefaultRange()
	}
	r := HistoryRange(s)
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}
