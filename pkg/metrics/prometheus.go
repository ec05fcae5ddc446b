package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trendpull"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches         *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	keywordsDropped *prometheus.CounterVec
	alignedPoints   *prometheus.GaugeVec
	defaultedPoints *prometheus.GaugeVec
	lastPrice       *prometheus.GaugeVec
	lastIndex       *prometheus.GaugeVec
	sinkErrors      *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	lastSuccess     prometheus.Gauge
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Upstream fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Source records skipped because the date or value did not parse",
			},
			[]string{"source"},
		),
		keywordsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keywords_dropped_total",
				Help:      "Keywords excluded from aggregation after a failed or empty fetch",
			},
			[]string{"keyword"},
		),
		alignedPoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "aligned_points",
				Help:      "Points in the latest alignment result",
			},
			[]string{"horizon"},
		),
		defaultedPoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "defaulted_points",
				Help:      "Points in the latest alignment result that took the default score",
			},
			[]string{"horizon"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Most recent aligned price",
			},
			[]string{"horizon"},
		),
		lastIndex: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_trend_index",
				Help:      "Most recent aligned trend index",
			},
			[]string{"horizon"},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_errors_total",
				Help:      "Failed writes to optional sinks",
			},
			[]string{"sink"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		lastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}
}

func (r *Recorder) RecordFetch(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetches.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) RecordSkipped(source string, n int) {
	if n > 0 {
		r.skipped.WithLabelValues(source).Add(float64(n))
	}
}

func (r *Recorder) RecordKeywordDropped(keyword string) {
	r.keywordsDropped.WithLabelValues(keyword).Inc()
}

// RecordAlignment publishes the size and tail of one horizon's result.
func (r *Recorder) RecordAlignment(horizon string, points, defaulted int, lastPrice, lastIndex float64) {
	r.alignedPoints.WithLabelValues(horizon).Set(float64(points))
	r.defaultedPoints.WithLabelValues(horizon).Set(float64(defaulted))
	r.lastPrice.WithLabelValues(horizon).Set(lastPrice)
	r.lastIndex.WithLabelValues(horizon).Set(lastIndex)
}

func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrors.WithLabelValues(sink).Inc()
}

func (r *Recorder) RecordRun(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		r.lastSuccess.SetToCurrentTime()
	}
	r.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
