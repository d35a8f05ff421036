package ingest

import "github.com/prometheus/client_golang/prometheus"

// metrics are the orchestrator's Prometheus collectors
type metrics struct {
	runs  *prometheus.CounterVec
	saved *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fxgrab",
				Name:      "grab_runs_total",
				Help:      "Number of finished grab runs, by bank and result kind",
			},
			[]string{"bank", "result"},
		),
		saved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fxgrab",
				Name:      "rates_saved_total",
				Help:      "Number of exchange rates saved, by bank",
			},
			[]string{"bank"},
		),
	}
}

// register registers the collectors
func (m *metrics) register(r prometheus.Registerer) {
	r.MustRegister(m.runs, m.saved)
}
