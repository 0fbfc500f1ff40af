package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the walletkit collectors on registerer
// A nil registerer uses the default registry
func NewPrometheusRecorder(registerer prometheus.Registerer) (*PrometheusRecorder, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletkit",
			Name:      "events_total",
			Help:      "wallet transaction event counters",
		},
		[]string{"type", LabelChain, LabelOutcome, LabelKind},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletkit",
			Name:      "latency_seconds",
			Help:      "wallet transaction operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"operation", LabelChain, LabelOutcome},
	)

	for _, collector := range []prometheus.Collector{counters, histogram} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}, nil
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"type":       name,
		LabelChain:   labels[LabelChain],
		LabelOutcome: labels[LabelOutcome],
		LabelKind:    labels[LabelKind],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation":  name,
		LabelChain:   labels[LabelChain],
		LabelOutcome: labels[LabelOutcome],
	}).Observe(d.Seconds())
}
