package ingest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

// job is a single registered bank grab job
type job struct {
	bank     string
	interval time.Duration
	id       xid.ID
}

// scheduledIngest is a single scheduled grab run
type scheduledIngest struct {
	at  time.Time
	job *job
}

// Less is utilized to sort scheduled ingests by their due-time (latest == first)
func (a scheduledIngest) Less(b scheduledIngest) bool {
	return a.at.Before(b.at)
}

// workerInfo is the work context for the grab routine
type workerInfo struct {
	resolver Resolver
	codes    CurrencyLookup
	job      *job
	resCh    chan<- *workerResponse
	target   types.Currency
}

// workerResponse is the grab routine response
type workerResponse struct {
	error error                 // encountered error, if any
	rates []*types.ExchangeRate // the validated exchange rates
	job   *job                  // the finished job
}

// handleJob runs a single grab, on a freshly resolved strategy
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	rates, err := runGrab(ctx, info)

	response := &workerResponse{
		error: err,
		rates: rates,
		job:   info.job,
	}

	select {
	case <-ctx.Done():
	case info.resCh <- response:
	}
}

// runGrab resolves the bank's strategy, grabs and converts the validated rates
func runGrab(ctx context.Context, info *workerInfo) ([]*types.ExchangeRate, error) {
	strategy, err := info.resolver.Resolve(ctx, info.job.bank)
	if err != nil {
		return nil, err
	}

	rates, err := strategy.Grab(ctx)
	if err != nil {
		return nil, err
	}

	// Unset bank IDs stay zero, and are omitted downstream
	bankID, _ := strategy.BankID()

	o := origin{
		source:    types.Source(strategy.Name()),
		target:    info.target,
		bankID:    bankID,
		fetchedAt: time.Now().UTC(),
	}

	return toExchangeRates(ctx, info.codes, o, rates)
}

// origin describes where a run's rates come from
type origin struct {
	fetchedAt time.Time
	source    types.Source
	target    types.Currency
	bankID    int64
}

// point creates a single data point of the given type
func (o origin) point(base types.Currency, rateType types.RateType, rate float64) *types.ExchangeRate {
	return &types.ExchangeRate{
		AsOf:      o.fetchedAt,
		FetchedAt: o.fetchedAt,
		Base:      base,
		Target:    o.target,
		RateType:  rateType,
		Source:    o.source,
		BankID:    o.bankID,
		Rate:      rate,
	}
}

// toExchangeRates converts validated rates into BUY and SELL data points,
// in currency ID order
func toExchangeRates(
	ctx context.Context,
	codes CurrencyLookup,
	o origin,
	rates grabber.Rates,
) ([]*types.ExchangeRate, error) {
	out := make([]*types.ExchangeRate, 0, len(rates)*2)

	for _, id := range slices.Sorted(maps.Keys(rates)) {
		currency, ok, err := codes.Currency(ctx, id)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, fmt.Errorf("currency %d missing from reference", id)
		}

		rate := rates[id]

		out = append(
			out,
			o.point(currency.Code, types.RateTypeBUY, rate.Buy.InexactFloat64()),
			o.point(currency.Code, types.RateTypeSELL, rate.Sale.InexactFloat64()),
		)
	}

	return out, nil
}
