package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage"
	"github.com/sig-0/fxgrab/storage/types"
)

var (
	errInvalidBank     = errors.New("invalid bank")
	errInvalidInterval = errors.New("invalid interval")
)

// Orchestrator is the main job scheduler for registered bank grabs
type Orchestrator struct {
	resolver Resolver
	codes    CurrencyLookup
	storage  storage.Storage
	logger   *slog.Logger

	metrics    *metrics
	registerer prometheus.Registerer

	registeredJobs sync.Map

	q             iq.Queue[scheduledIngest]
	queryInterval time.Duration
	retryDelay    time.Duration
	target        types.Currency
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(
	resolver Resolver,
	codes CurrencyLookup,
	storage storage.Storage,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		resolver:      resolver,
		codes:         codes,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		metrics:       newMetrics(),
		q:             iq.NewQueue[scheduledIngest](),
		queryInterval: time.Second, // every second
		retryDelay:    time.Minute, // transient failures
		target:        types.CurrencyVES,
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	if o.registerer != nil {
		o.metrics.register(o.registerer)
	}

	return o
}

// Register registers a new bank grab job with the orchestrator.
// The job is immediately queued up for execution
func (o *Orchestrator) Register(bank string, interval time.Duration) error {
	if bank == "" {
		return errInvalidBank
	}

	if interval <= 0 {
		return errInvalidInterval
	}

	j := &job{
		id:       xid.New(),
		bank:     bank,
		interval: interval,
	}

	o.registeredJobs.Store(j.id, j)

	o.logger.Info(
		"registered new bank",
		"bank", bank,
		"interval", interval.String(),
	)

	// Schedule the job
	o.scheduleIngest(time.Now().UTC(), j)

	return nil
}

// Start starts the grab orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleIngest initializes all jobs that are executable (due)
	handleIngest := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				nextSI := o.nextIngest()
				if nextSI == nil {
					return // nothing to schedule anymore
				}

				o.logger.Info(
					"scheduling grab",
					"bank", nextSI.job.bank,
				)

				// Spawn worker
				info := &workerInfo{
					resolver: o.resolver,
					codes:    o.codes,
					job:      nextSI.job,
					resCh:    collectorCh,
					target:   o.target,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due jobs (on boot)
	handleIngest()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleIngest()
		case response := <-collectorCh:
			o.handleResponse(ctx, response)
		}
	}
}

// handleResponse saves the rates of a finished run,
// and reschedules the job according to the run's outcome
func (o *Orchestrator) handleResponse(ctx context.Context, response *workerResponse) {
	var (
		now  = time.Now().UTC()
		j    = response.job
		kind = grabber.Kind(response.error)
	)

	if _, ok := o.registeredJobs.Load(j.id); !ok {
		o.logger.Error(
			"unable to load registered job",
			"id", j.id.String(),
		)

		return
	}

	o.metrics.runs.WithLabelValues(j.bank, kind).Inc()

	switch kind {
	case grabber.KindNone:
	case grabber.KindConfiguration:
		// Broken deployment, running again won't fix it
		o.logger.Error(
			"bank grabber misconfigured, dropping job",
			"bank", j.bank,
			"err", response.error,
		)

		o.registeredJobs.Delete(j.id)

		return
	case grabber.KindMalformed, grabber.KindChecksum:
		// The page layout or the currency reference needs attention
		o.logger.Error(
			"bank page failed validation",
			"bank", j.bank,
			"kind", kind,
			"alert", true,
			"err", response.error,
		)

		o.scheduleIngest(now.Add(j.interval), j)

		return
	default:
		o.logger.Warn(
			"grab run failed, retrying",
			"bank", j.bank,
			"kind", kind,
			"retry_in", o.retryDelay.String(),
			"err", response.error,
		)

		o.scheduleIngest(now.Add(o.retryDelay), j)

		return
	}

	// Save the validated rates
	for _, rate := range response.rates {
		saveCtx, cancelFn := context.WithTimeout(ctx, time.Second*10)

		if err := o.storage.SaveExchangeRate(saveCtx, rate); err != nil {
			o.logger.Error(
				"unable to save exchange rate",
				"base", rate.Base,
				"target", rate.Target,
				"source", rate.Source,
				"err", err,
			)

			cancelFn()

			continue
		}

		cancelFn()

		o.metrics.saved.WithLabelValues(j.bank).Inc()

		o.logger.Info(
			"saved exchange rate",
			"base", rate.Base,
			"target", rate.Target,
			"source", rate.Source,
			"rate", rate.Rate,
			"rate_type", rate.RateType,
		)
	}

	// Schedule the next regular run
	o.scheduleIngest(now.Add(j.interval), j)
}

// scheduleIngest schedules a new grab run for the job
func (o *Orchestrator) scheduleIngest(at time.Time, j *job) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledIngest{
		at:  at,
		job: j,
	})
}

// nextIngest fetches the next due grab run, as of the moment of calling
func (o *Orchestrator) nextIngest() *scheduledIngest {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, latest job is in the future
	}

	// Grab the next job
	return o.q.PopFront()
}
