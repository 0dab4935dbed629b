package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts    *prometheus.CounterVec
	epochs       *prometheus.HistogramVec
	bestValLoss  *prometheus.GaugeVec
	earlyStops   *prometheus.CounterVec
	lastForecast *prometheus.GaugeVec
	messagesSent *prometheus.CounterVec
	newsItems    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spp_forecasts_total",
				Help: "Forecast requests by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		epochs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spp_training_epochs",
				Help:    "Epochs run per training",
				Buckets: []float64{5, 10, 20, 30, 40, 50, 60, 80, 100},
			},
			[]string{"symbol"},
		),
		bestValLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spp_training_best_val_loss",
				Help: "Best validation loss of the latest training",
			},
			[]string{"symbol"},
		),
		earlyStops: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spp_training_early_stops_total",
				Help: "Trainings stopped by early stopping",
			},
			[]string{"symbol"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spp_last_forecast_price",
				Help: "Last step of the latest forecast",
			},
			[]string{"symbol"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spp_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "topic"},
		),
		newsItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spp_news_items_total",
				Help: "Analyzed news items by sentiment",
			},
			[]string{"keyword", "sentiment"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spp_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spp_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast counts a forecast by outcome ("ok" or an error kind).
func (r *Recorder) RecordForecast(symbol, outcome string) {
	r.forecasts.WithLabelValues(symbol, outcome).Inc()
}

// RecordTraining records the shape of a finished training.
func (r *Recorder) RecordTraining(symbol string, epochs int, bestValLoss float64, stoppedEarly bool) {
	r.epochs.WithLabelValues(symbol).Observe(float64(epochs))
	r.bestValLoss.WithLabelValues(symbol).Set(bestValLoss)
	if stoppedEarly {
		r.earlyStops.WithLabelValues(symbol).Inc()
	}
}

// RecordLastForecast records the final forecast price for a symbol.
func (r *Recorder) RecordLastForecast(symbol string, price float64) {
	r.lastForecast.WithLabelValues(symbol).Set(price)
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, topic string) {
	r.messagesSent.WithLabelValues(backend, topic).Inc()
}

func (r *Recorder) RecordNewsItem(keyword, sentiment string) {
	r.newsItems.WithLabelValues(keyword, sentiment).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
