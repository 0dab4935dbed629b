package models

import "time"

// ForecastPoint is one predicted close on a business day.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceRange is the suggested y-axis range for charting actual vs forecast prices.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// TrainingSummary describes the weights used for the forecast.
type TrainingSummary struct {
	Epochs       int     `json:"epochs"`
	MaxEpochs    int     `json:"max_epochs"`
	BestEpoch    int     `json:"best_epoch"`
	BestValLoss  float64 `json:"best_val_loss"`
	StoppedEarly bool    `json:"stopped_early"`
	TrainSize    int     `json:"train_examples"`
	ValSize      int     `json:"validation_examples"`
	DurationMs   int64   `json:"duration_ms"`
}

// ForecastResult is everything a chart needs: history, forecast and an axis hint.
type ForecastResult struct {
	RunID      string          `json:"run_id"`
	Symbol     string          `json:"symbol"`
	Candles    []Candle        `json:"candles"`
	Forecast   []ForecastPoint `json:"forecast"`
	PriceRange PriceRange      `json:"price_range"`
	Training   TrainingSummary `json:"training"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ForecastRecord is a stored forecast point with its run metadata.
type ForecastRecord struct {
	RunID       string    `json:"run_id"`
	Symbol      string    `json:"symbol"`
	Step        int       `json:"step"`
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	BestValLoss float64   `json:"best_val_loss"`
	CreatedAt   time.Time `json:"created_at"`
}

// Records flattens a result into one record per forecast step.
func (r *ForecastResult) Records() []ForecastRecord {
	out := make([]ForecastRecord, len(r.Forecast))
	for i, p := range r.Forecast {
		out[i] = ForecastRecord{
			RunID:       r.RunID,
			Symbol:      r.Symbol,
			Step:        i + 1,
			Date:        p.Date,
			Price:       p.Price,
			BestValLoss: r.Training.BestValLoss,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out
}

// ForecastJob is a queued asynchronous forecast request.
type ForecastJob struct {
	Token      string    `json:"token"`
	Symbol     string    `json:"symbol"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ForecastEvent is published once a forecast completes.
type ForecastEvent struct {
	RunID       string          `json:"run_id"`
	Symbol      string          `json:"symbol"`
	Forecast    []ForecastPoint `json:"forecast"`
	BestValLoss float64         `json:"best_val_loss"`
	Epochs      int             `json:"epochs"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Progress is a training progress reading for one run.
type Progress struct {
	Token     string    `json:"token,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	Percent   int       `json:"progress"`
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
