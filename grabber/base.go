package grabber

import (
	"context"
	"fmt"

	"github.com/sig-0/fxgrab/storage/types"
)

// Base is the shared part of every strategy. Concrete strategies embed it
// to get their metadata, the page fetcher and access to validation
type Base struct {
	table   *CheckerTable
	fetcher *Fetcher

	info types.GrabberInfo
	name string
}

// NewBase loads the metadata for the named strategy.
// Missing metadata is an ErrConfiguration
func NewBase(
	ctx context.Context,
	name string,
	metadata MetadataSource,
	table *CheckerTable,
	fetcher *Fetcher,
) (*Base, error) {
	info, err := metadata.GrabberInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("unable to load metadata for %s: %w", name, err)
	}

	if info == nil {
		return nil, fmt.Errorf("%w: metadata for %s not found", ErrConfiguration, name)
	}

	if fetcher == nil {
		fetcher = NewFetcher()
	}

	return &Base{
		name:    name,
		info:    *info,
		table:   table,
		fetcher: fetcher,
	}, nil
}

// Name returns the strategy (bank) name
func (b *Base) Name() string {
	return b.name
}

// URL returns the configured source URL, if any.
// Strategies that compute their URL don't need one configured
func (b *Base) URL() (string, bool) {
	return b.info.URL, b.info.URL != ""
}

// BankID returns the configured downstream bank ID, if any
func (b *Base) BankID() (int64, bool) {
	return b.info.BankID, b.info.BankID != 0
}

// Fetcher returns the page fetcher
func (b *Base) Fetcher() *Fetcher {
	return b.fetcher
}

// NewBatch opens a batch for a single run
func (b *Base) NewBatch() *Batch {
	return NewBatch(b.table)
}

// Identify looks up the currency a page token stands for
func (b *Base) Identify(ctx context.Context, token string) (int64, bool, error) {
	return b.table.Identify(ctx, token)
}

// SourceURL returns the configured URL, or an ErrConfiguration
// for strategies that cannot work without one
func (b *Base) SourceURL() (string, error) {
	u, ok := b.URL()
	if !ok {
		return "", fmt.Errorf("%w: no source url configured for %s", ErrConfiguration, b.name)
	}

	return u, nil
}
