package ingest

import (
	"context"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

type (
	resolveDelegate  func(context.Context, string) (grabber.Strategy, error)
	grabDelegate     func(context.Context) (grabber.Rates, error)
	currencyDelegate func(context.Context, int64) (types.CurrencyInfo, bool, error)
)

type mockResolver struct {
	resolveFn resolveDelegate
}

func (m *mockResolver) Resolve(ctx context.Context, name string) (grabber.Strategy, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, name)
	}

	return nil, nil
}

type mockStrategy struct {
	grabFn grabDelegate
	name   string
	bankID int64
}

func (m *mockStrategy) Name() string {
	return m.name
}

func (m *mockStrategy) BankID() (int64, bool) {
	return m.bankID, m.bankID != 0
}

func (m *mockStrategy) Grab(ctx context.Context) (grabber.Rates, error) {
	if m.grabFn != nil {
		return m.grabFn(ctx)
	}

	return nil, nil
}

type mockCurrencyLookup struct {
	currencyFn currencyDelegate
}

func (m *mockCurrencyLookup) Currency(ctx context.Context, id int64) (types.CurrencyInfo, bool, error) {
	if m.currencyFn != nil {
		return m.currencyFn(ctx, id)
	}

	return types.CurrencyInfo{}, false, nil
}
