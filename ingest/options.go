package ingest

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sig-0/fxgrab/storage/types"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithQueryInterval specifies query interval for the orchestrator's jobs.
// Defaults to 1s.
// This should only be modified if the registered banks with the orchestrator
// have sparse runs (once every hour / 24hrs)
func WithQueryInterval(q time.Duration) Option {
	return func(o *Orchestrator) {
		o.queryInterval = q
	}
}

// WithRetryDelay specifies how soon a run that failed
// with a transient error (empty page, network) is retried.
// Defaults to 1m
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.retryDelay = d
	}
}

// WithTargetCurrency specifies the currency the grabbed rates are quoted in.
// Defaults to VES
func WithTargetCurrency(c types.Currency) Option {
	return func(o *Orchestrator) {
		o.target = c
	}
}

// WithMetrics registers the orchestrator metrics with the given registerer
func WithMetrics(r prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		o.registerer = r
	}
}
