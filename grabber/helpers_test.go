package grabber

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxgrab/storage/mock"
	"github.com/sig-0/fxgrab/storage/types"
)

const (
	usdID int64 = 1
	eurID int64 = 2
	rubID int64 = 3
)

// testCurrencies is the shared currency reference fixture
func testCurrencies() []types.CurrencyInfo {
	return []types.CurrencyInfo{
		{
			ID:      usdID,
			Code:    types.CurrencyUSD,
			Symbol:  "$",
			Aliases: []string{"Доллар США", "dolar"},
		},
		{
			ID:     eurID,
			Code:   types.CurrencyEUR,
			Symbol: "€",
		},
		{
			ID:      rubID,
			Code:    types.CurrencyRUB,
			Symbol:  "₽",
			Aliases: []string{"$"}, // clashes with USD on purpose
		},
	}
}

// newTestStorage creates a mock storage serving the currency fixture,
// and metadata for the given grabbers
func newTestStorage(infos ...types.GrabberInfo) *mock.Storage {
	byName := make(map[string]types.GrabberInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	return &mock.Storage{
		CurrenciesFn: func(_ context.Context) ([]types.CurrencyInfo, error) {
			return testCurrencies(), nil
		},
		GrabberInfoFn: func(_ context.Context, name string) (*types.GrabberInfo, error) {
			info, ok := byName[name]
			if !ok {
				return nil, nil
			}

			return &info, nil
		},
	}
}

// dec parses the decimal, failing the test if it's invalid
func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}

	return d
}
