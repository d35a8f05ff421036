package mock

import (
	"context"
	"time"

	"github.com/sig-0/fxgrab/storage/types"
)

type (
	SaveExchangeRateDelegate func(context.Context, *types.ExchangeRate) error
	RateAsOfDelegate         func(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)
	ListSourcesDelegate      func(context.Context) ([]types.Source, error)
	CurrenciesDelegate       func(context.Context) ([]types.CurrencyInfo, error)
	GrabberInfoDelegate      func(context.Context, string) (*types.GrabberInfo, error)
	ListGrabbersDelegate     func(context.Context) ([]*types.GrabberInfo, error)
)

type Storage struct {
	SaveExchangeRateFn SaveExchangeRateDelegate
	RateAsOfFn         RateAsOfDelegate
	ListSourcesFn      ListSourcesDelegate
	CurrenciesFn       CurrenciesDelegate
	GrabberInfoFn      GrabberInfoDelegate
	ListGrabbersFn     ListGrabbersDelegate
}

func (m *Storage) SaveExchangeRate(ctx context.Context, rate *types.ExchangeRate) error {
	if m.SaveExchangeRateFn != nil {
		return m.SaveExchangeRateFn(ctx, rate)
	}

	return nil
}

func (m *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	at time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	if m.RateAsOfFn != nil {
		return m.RateAsOfFn(ctx, query, at)
	}

	return nil, nil
}

func (m *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	if m.ListSourcesFn != nil {
		return m.ListSourcesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) Currencies(ctx context.Context) ([]types.CurrencyInfo, error) {
	if m.CurrenciesFn != nil {
		return m.CurrenciesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) GrabberInfo(ctx context.Context, name string) (*types.GrabberInfo, error) {
	if m.GrabberInfoFn != nil {
		return m.GrabberInfoFn(ctx, name)
	}

	return nil, nil
}

func (m *Storage) ListGrabbers(ctx context.Context) ([]*types.GrabberInfo, error) {
	if m.ListGrabbersFn != nil {
		return m.ListGrabbersFn(ctx)
	}

	return nil, nil
}
