package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sig-0/fxgrab/storage/types"
)

// seriesKey identifies a single rate series
type seriesKey struct {
	base     types.Currency
	target   types.Currency
	source   types.Source
	rateType types.RateType
}

func (k seriesKey) matches(query *types.RateQuery) bool {
	if k.base != query.Base {
		return false
	}

	if query.Target != nil && k.target != *query.Target {
		return false
	}

	if query.Source != nil && k.source != *query.Source {
		return false
	}

	return query.RateType == nil || k.rateType == *query.RateType
}

func compareKeys(a, b seriesKey) int {
	return cmp.Or(
		strings.Compare(a.target.String(), b.target.String()),
		strings.Compare(a.source.String(), b.source.String()),
		strings.Compare(a.rateType.String(), b.rateType.String()),
	)
}

type Option func(s *Storage)

// WithCurrencies seeds the currency reference
func WithCurrencies(currencies []types.CurrencyInfo) Option {
	return func(s *Storage) {
		s.currencies = append(s.currencies, currencies...)
	}
}

// WithGrabbers seeds the grabber metadata.
// A repeated name replaces the earlier entry
func WithGrabbers(grabbers []types.GrabberInfo) Option {
	return func(s *Storage) {
		for _, g := range grabbers {
			s.grabbers[g.Name] = g
		}
	}
}

// Storage keeps every rate series in memory, each one sorted by as-of time
type Storage struct {
	series map[seriesKey][]types.ExchangeRate

	currencies []types.CurrencyInfo
	grabbers   map[string]types.GrabberInfo

	mu sync.RWMutex
}

func NewStorage(opts ...Option) *Storage {
	s := &Storage{
		series:   make(map[seriesKey][]types.ExchangeRate),
		grabbers: make(map[string]types.GrabberInfo),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SaveExchangeRate inserts the rate into its series.
// A rate with an already stored as-of time replaces the stored one
func (s *Storage) SaveExchangeRate(_ context.Context, r *types.ExchangeRate) error {
	k := seriesKey{
		base:     r.Base,
		target:   r.Target,
		source:   r.Source,
		rateType: r.RateType,
	}

	rate := *r
	rate.AsOf = rate.AsOf.UTC()
	rate.FetchedAt = rate.FetchedAt.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.series[k]

	idx, found := slices.BinarySearchFunc(series, rate.AsOf, byAsOf)
	if found {
		series[idx] = rate

		return nil
	}

	s.series[k] = slices.Insert(series, idx, rate)

	return nil
}

func (s *Storage) RateAsOf(
	_ context.Context,
	query *types.RateQuery,
	asOf time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	var (
		cutoff = asOf.UTC()
		keys   []seriesKey
		latest = make(map[seriesKey]types.ExchangeRate)
	)

	s.mu.RLock()

	for k, series := range s.series {
		if !k.matches(query) {
			continue
		}

		// Index of the first rate after the cutoff
		idx, found := slices.BinarySearchFunc(series, cutoff, byAsOf)
		if found {
			idx++
		}

		if idx == 0 {
			continue
		}

		keys = append(keys, k)
		latest[k] = series[idx-1]
	}

	s.mu.RUnlock()

	slices.SortFunc(keys, compareKeys)

	rates := make([]*types.ExchangeRate, 0, len(keys))
	for _, k := range keys {
		rate := latest[k]
		rates = append(rates, &rate)
	}

	return paginate(rates, query.PageLimit(), query.Offset), nil
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	s.mu.RLock()

	sources := make([]types.Source, 0, len(s.series))
	for k := range s.series {
		sources = append(sources, k.source)
	}

	s.mu.RUnlock()

	slices.Sort(sources)

	return slices.Compact(sources), nil
}

func (s *Storage) Currencies(_ context.Context) ([]types.CurrencyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CurrencyInfo, 0, len(s.currencies))

	for _, c := range s.currencies {
		c.Aliases = slices.Clone(c.Aliases)
		out = append(out, c)
	}

	return out, nil
}

func (s *Storage) GrabberInfo(_ context.Context, name string) (*types.GrabberInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grabbers[name]
	if !ok {
		return nil, nil //nolint:nilnil // valid case
	}

	return &g, nil
}

func (s *Storage) ListGrabbers(_ context.Context) ([]*types.GrabberInfo, error) {
	s.mu.RLock()

	out := make([]*types.GrabberInfo, 0, len(s.grabbers))

	for _, g := range s.grabbers {
		out = append(out, &g)
	}

	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *types.GrabberInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out, nil
}

func byAsOf(rate types.ExchangeRate, t time.Time) int {
	return rate.AsOf.Compare(t)
}

// paginate cuts a single page out of the sorted items
func paginate[T any](items []T, limit int32, offset int64) *types.Page[T] {
	page := &types.Page[T]{
		Total: int64(len(items)),
	}

	offset = max(offset, 0)
	if offset >= page.Total {
		return page
	}

	end := min(offset+int64(limit), page.Total)
	page.Results = items[offset:end]

	return page
}
