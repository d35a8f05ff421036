package ingest

import (
	"context"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

// Resolver creates a fresh strategy for every grab run
type Resolver interface {
	// Resolve returns the strategy for the given bank
	Resolve(context.Context, string) (grabber.Strategy, error)
}

// CurrencyLookup maps validated currency IDs back to currency codes
type CurrencyLookup interface {
	// Currency returns the reference entry for the given currency ID
	Currency(context.Context, int64) (types.CurrencyInfo, bool, error)
}
