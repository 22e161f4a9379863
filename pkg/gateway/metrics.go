package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	queryTotal      *prometheus.CounterVec
	errTotal        *prometheus.CounterVec
	rejectTotal     prometheus.Counter
	responseLatency *prometheus.HistogramVec
}

func newMetrics(keys []string) *metrics {
	m := &metrics{
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_query_total",
			Help: "The total number of queries sent to this upstream",
		}, []string{"upstream"}),
		errTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_err_total",
			Help: "The total number of queries to this upstream that failed",
		}, []string{"upstream"}),
		rejectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rejected_total",
			Help: "The total number of requests rejected by validation",
		}),
		responseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_response_latency_millisecond",
			Help:    "The response latency in millisecond",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
		}, []string{"upstream"}),
	}

	// Export zeroes for every allow-listed upstream up front. Labels only
	// ever come from the allow-list, never from request input.
	for _, k := range keys {
		m.queryTotal.WithLabelValues(k)
		m.errTotal.WithLabelValues(k)
		m.responseLatency.WithLabelValues(k)
	}
	return m
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.queryTotal, m.errTotal, m.rejectTotal, m.responseLatency} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
