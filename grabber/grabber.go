package grabber

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxgrab/storage/types"
)

// Strategy grabs the exchange rates of a single bank
type Strategy interface {
	// Name returns the strategy name, which is also the bank's metadata key
	Name() string

	// BankID returns the downstream bank identifier, if configured
	BankID() (int64, bool)

	// Grab fetches and parses the bank's page, and returns the validated rates
	Grab(context.Context) (Rates, error)
}

// CurrencyReference is the catalog of known currencies
type CurrencyReference interface {
	// Currencies returns all known currencies, with their alias tokens
	Currencies(context.Context) ([]types.CurrencyInfo, error)
}

// MetadataSource looks up strategy metadata
type MetadataSource interface {
	// GrabberInfo returns the metadata for the given strategy name,
	// or nil if there is none
	GrabberInfo(context.Context, string) (*types.GrabberInfo, error)
}

// ScrapedRate is a single raw observation recorded by a strategy
type ScrapedRate struct {
	Buy   decimal.Decimal `json:"buy"`
	Sale  decimal.Decimal `json:"sale"`
	Check string          `json:"check"` // token taken verbatim from the page
}

// Rates are the scraped rates of a single run, keyed by currency ID
type Rates map[int64]ScrapedRate
