package banks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/mock"
	"github.com/sig-0/fxgrab/storage/types"
)

const (
	usdID  int64 = 1
	eurID  int64 = 2
	cnyID  int64 = 3
	usdtID int64 = 10
)

// newTestRegistry creates a registry with the specialized strategies,
// over a small currency reference and the given grabber metadata
func newTestRegistry(t *testing.T, infos ...types.GrabberInfo) *grabber.Registry {
	t.Helper()

	byName := make(map[string]types.GrabberInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	storage := &mock.Storage{
		CurrenciesFn: func(_ context.Context) ([]types.CurrencyInfo, error) {
			return []types.CurrencyInfo{
				{ID: usdID, Code: types.CurrencyUSD, Symbol: "$"},
				{ID: eurID, Code: types.CurrencyEUR, Symbol: "€"},
				{ID: cnyID, Code: types.CurrencyCNY, Symbol: "¥", Aliases: []string{"CNY/YUAN"}},
				{ID: usdtID, Code: types.CurrencyUSDT, Symbol: "₮"},
			}, nil
		},
		GrabberInfoFn: func(_ context.Context, name string) (*types.GrabberInfo, error) {
			info, ok := byName[name]
			if !ok {
				return nil, nil
			}

			return &info, nil
		},
	}

	r := grabber.NewRegistry(
		storage,
		storage,
		grabber.WithFetcher(grabber.NewFetcher(grabber.WithHostRate(rate.Inf, 1))),
	)
	Register(r)

	return r
}

// newServer starts a test server with the given handler
func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}
