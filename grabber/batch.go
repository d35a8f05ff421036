package grabber

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Batch accumulates the rates recorded during a single strategy run.
// It is not safe for concurrent use, and should not outlive the run
type Batch struct {
	table *CheckerTable
	rates Rates
}

// NewBatch creates an empty batch validated against the given table
func NewBatch(table *CheckerTable) *Batch {
	return &Batch{
		table: table,
		rates: make(Rates),
	}
}

// Record saves the values for the currency, replacing any earlier record.
// Nothing is validated here, Finalize is the single gate
func (b *Batch) Record(currencyID int64, buy, sale decimal.Decimal, check string) {
	b.rates[currencyID] = ScrapedRate{
		Buy:   buy,
		Sale:  sale,
		Check: check,
	}
}

// Finalize validates the recorded rates, and returns a copy of them.
// A single bad record rejects the whole batch
func (b *Batch) Finalize(ctx context.Context) (Rates, error) {
	if len(b.rates) == 0 {
		return nil, ErrEmptyResult
	}

	if err := b.table.load(ctx); err != nil {
		return nil, err
	}

	// Walk the IDs in order, so a batch with
	// several bad records always fails the same way
	ids := slices.Sorted(maps.Keys(b.rates))

	for _, id := range ids {
		rate := b.rates[id]

		// Unknown IDs (negative ones included) fail the token check below
		if id == 0 || !isPositive(rate.Buy) || !isPositive(rate.Sale) {
			return nil, fmt.Errorf(
				"%w (currency %d, buy %s, sale %s)",
				ErrMalformedData,
				id,
				rate.Buy,
				rate.Sale,
			)
		}

		ok, err := b.table.Matches(ctx, id, rate.Check)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, fmt.Errorf(
				"%w (currency %d, check %q)",
				ErrChecksumMismatch,
				id,
				rate.Check,
			)
		}
	}

	return maps.Clone(b.rates), nil
}

func isPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}
