package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxgrab/storage/types"
)

func TestStorage_RateAsOf(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = NewStorage()

		day1 = time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
		day2 = day1.Add(24 * time.Hour)
		day3 = day2.Add(24 * time.Hour)
	)

	rates := []*types.ExchangeRate{
		{AsOf: day2, FetchedAt: day2, Base: types.CurrencyUSD, Target: types.CurrencyVES, RateType: types.RateTypeBUY, Source: "BCV", BankID: 1, Rate: 36.5},
		{AsOf: day1, FetchedAt: day1, Base: types.CurrencyUSD, Target: types.CurrencyVES, RateType: types.RateTypeBUY, Source: "BCV", BankID: 1, Rate: 36.1},
		{AsOf: day2, FetchedAt: day2, Base: types.CurrencyUSD, Target: types.CurrencyVES, RateType: types.RateTypeSELL, Source: "BCV", BankID: 1, Rate: 36.6},
		{AsOf: day2, FetchedAt: day2, Base: types.CurrencyUSD, Target: types.CurrencyVES, RateType: types.RateTypeBUY, Source: "Banesco", BankID: 7, Rate: 36.8},
		{AsOf: day2, FetchedAt: day2, Base: types.CurrencyEUR, Target: types.CurrencyVES, RateType: types.RateTypeBUY, Source: "BCV", BankID: 1, Rate: 39.9},
		{AsOf: day3, FetchedAt: day3, Base: types.CurrencyUSD, Target: types.CurrencyVES, RateType: types.RateTypeBUY, Source: "BCV", BankID: 1, Rate: 37.0},
	}

	for _, r := range rates {
		require.NoError(t, s.SaveExchangeRate(ctx, r))
	}

	t.Run("latest per series", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD}, day2)
		require.NoError(t, err)

		require.Len(t, page.Results, 3)
		assert.Equal(t, int64(3), page.Total)

		// Ordered by target, source and rate type
		assert.Equal(t, types.Source("BCV"), page.Results[0].Source)
		assert.Equal(t, types.RateTypeBUY, page.Results[0].RateType)
		assert.InDelta(t, 36.5, page.Results[0].Rate, 1e-9)

		assert.Equal(t, types.Source("BCV"), page.Results[1].Source)
		assert.Equal(t, types.RateTypeSELL, page.Results[1].RateType)

		assert.Equal(t, types.Source("Banesco"), page.Results[2].Source)
		assert.Equal(t, int64(7), page.Results[2].BankID)
	})

	t.Run("as of the past", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD}, day1.Add(time.Hour))
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.InDelta(t, 36.1, page.Results[0].Rate, 1e-9)
		assert.Equal(t, int64(1), page.Results[0].BankID)
	})

	t.Run("before any rate", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD}, day1.Add(-time.Hour))
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Zero(t, page.Total)
	})

	t.Run("filtered", func(t *testing.T) {
		t.Parallel()

		var (
			source   = types.Source("BCV")
			rateType = types.RateTypeBUY
			target   = types.CurrencyVES
		)

		page, err := s.RateAsOf(ctx, &types.RateQuery{
			Base:     types.CurrencyUSD,
			Target:   &target,
			Source:   &source,
			RateType: &rateType,
		}, day3)
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.InDelta(t, 37.0, page.Results[0].Rate, 1e-9)
	})

	t.Run("paginated", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD, Limit: 1, Offset: 1}, day2)
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, types.RateTypeSELL, page.Results[0].RateType)

		page, err = s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD, Offset: 5}, day2)
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("sources", func(t *testing.T) {
		t.Parallel()

		sources, err := s.ListSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Source{"BCV", "Banesco"}, sources)
	})
}

func TestStorage_SaveExchangeRate(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = NewStorage()

		asOf = time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	)

	rate := &types.ExchangeRate{
		AsOf:      asOf,
		FetchedAt: asOf,
		Base:      types.CurrencyUSD,
		Target:    types.CurrencyVES,
		RateType:  types.RateTypeBUY,
		Source:    "BCV",
		Rate:      36.1,
	}

	require.NoError(t, s.SaveExchangeRate(ctx, rate))

	// Same as-of time replaces the stored rate
	rate.Rate = 36.2
	rate.BankID = 1
	rate.FetchedAt = asOf.Add(time.Hour)

	require.NoError(t, s.SaveExchangeRate(ctx, rate))

	page, err := s.RateAsOf(ctx, &types.RateQuery{Base: types.CurrencyUSD}, asOf)
	require.NoError(t, err)

	require.Len(t, page.Results, 1)
	assert.InDelta(t, 36.2, page.Results[0].Rate, 1e-9)
	assert.Equal(t, int64(1), page.Results[0].BankID)
	assert.Equal(t, asOf.Add(time.Hour), page.Results[0].FetchedAt)
}

func TestStorage_Reference(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()

		s = NewStorage(
			WithCurrencies([]types.CurrencyInfo{
				{ID: 1, Code: types.CurrencyUSD, Symbol: "$", Aliases: []string{"Dólar"}},
			}),
			WithGrabbers([]types.GrabberInfo{
				{Name: "BCV", URL: "https://www.bcv.org.ve/", BankID: 1},
				{Name: "Banesco", URL: "https://old.banesco.com/"},
				{Name: "Banesco", URL: "https://www.banesco.com/"},
			}),
		)
	)

	t.Run("currencies are copies", func(t *testing.T) {
		t.Parallel()

		currencies, err := s.Currencies(ctx)
		require.NoError(t, err)
		require.Len(t, currencies, 1)

		currencies[0].Aliases[0] = "mutated"

		again, err := s.Currencies(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Dólar"}, again[0].Aliases)
	})

	t.Run("grabber info", func(t *testing.T) {
		t.Parallel()

		info, err := s.GrabberInfo(ctx, "Banesco")
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "https://www.banesco.com/", info.URL)

		info, err = s.GrabberInfo(ctx, "Unknown")
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("list grabbers", func(t *testing.T) {
		t.Parallel()

		grabbers, err := s.ListGrabbers(ctx)
		require.NoError(t, err)

		require.Len(t, grabbers, 2)
		assert.Equal(t, "BCV", grabbers[0].Name)
		assert.Equal(t, "Banesco", grabbers[1].Name)
	})
}
