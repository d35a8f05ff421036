package storage

import (
	"context"
	"time"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

// Storage is an abstraction over exchange rate data,
// and the reference data the grabbers validate against
type Storage interface {
	grabber.CurrencyReference
	grabber.MetadataSource

	// SaveExchangeRate saves the given exchange rate data point
	SaveExchangeRate(context.Context, *types.ExchangeRate) error

	// RateAsOf fetches the rate as of the given time
	RateAsOf(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)

	// ListSources lists all present sources for fx rates
	ListSources(context.Context) ([]types.Source, error)

	// ListGrabbers lists the metadata of all configured grabbers
	ListGrabbers(context.Context) ([]*types.GrabberInfo, error)
}
