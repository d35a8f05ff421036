package grabber

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxgrab/storage/mock"
	"github.com/sig-0/fxgrab/storage/types"
)

func TestCheckerTable_Load(t *testing.T) {
	t.Parallel()

	t.Run("built once under concurrent use", func(t *testing.T) {
		t.Parallel()

		var (
			calls atomic.Int32

			storage = &mock.Storage{
				CurrenciesFn: func(_ context.Context) ([]types.CurrencyInfo, error) {
					calls.Add(1)

					return testCurrencies(), nil
				},
			}

			table = NewCheckerTable(storage)
			wg    sync.WaitGroup
		)

		for range 32 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				ok, err := table.Matches(context.Background(), usdID, "USD")

				assert.NoError(t, err)
				assert.True(t, ok)
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("failed build is retried", func(t *testing.T) {
		t.Parallel()

		var (
			calls atomic.Int32

			storage = &mock.Storage{
				CurrenciesFn: func(_ context.Context) ([]types.CurrencyInfo, error) {
					if calls.Add(1) == 1 {
						return nil, errors.New("temporary outage")
					}

					return testCurrencies(), nil
				},
			}

			table = NewCheckerTable(storage)
		)

		_, _, err := table.Tokens(context.Background(), usdID)
		require.Error(t, err)

		tokens, ok, err := table.Tokens(context.Background(), usdID)
		require.NoError(t, err)

		assert.True(t, ok)
		assert.Equal(t, []string{"USD", "$", "Доллар США", "dolar"}, tokens)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("empty reference is read again", func(t *testing.T) {
		t.Parallel()

		var (
			calls atomic.Int32

			storage = &mock.Storage{
				CurrenciesFn: func(_ context.Context) ([]types.CurrencyInfo, error) {
					if calls.Add(1) == 1 {
						return nil, nil // not seeded yet
					}

					return testCurrencies(), nil
				},
			}

			table = NewCheckerTable(storage)
		)

		first := NewBatch(table)
		first.Record(usdID, dec(t, "3.65"), dec(t, "3.70"), "USD")

		_, err := first.Finalize(context.Background())
		require.ErrorIs(t, err, ErrChecksumMismatch)

		second := NewBatch(table)
		second.Record(usdID, dec(t, "3.65"), dec(t, "3.70"), "USD")

		rates, err := second.Finalize(context.Background())
		require.NoError(t, err)

		assert.Len(t, rates, 1)
		assert.Equal(t, int32(2), calls.Load())

		// Once populated, the table is not read again
		_, _, err = table.Identify(context.Background(), "USD")
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestCheckerTable_Identify(t *testing.T) {
	t.Parallel()

	table := NewCheckerTable(newTestStorage())

	testTable := []struct {
		token      string
		expectedID int64
		found      bool
	}{
		{"USD", usdID, true},
		{"dolar", usdID, true},
		{"€", eurID, true},
		{"RUB", rubID, true},
		{"$", usdID, true}, // shared with RUB, lowest ID wins
		{"GBP", 0, false},
		{"", 0, false},
	}

	for _, testCase := range testTable {
		id, ok, err := table.Identify(context.Background(), testCase.token)
		require.NoError(t, err)

		assert.Equal(t, testCase.found, ok, testCase.token)
		assert.Equal(t, testCase.expectedID, id, testCase.token)
	}
}

func TestCheckerTable_Currency(t *testing.T) {
	t.Parallel()

	table := NewCheckerTable(newTestStorage())

	c, ok, err := table.Currency(context.Background(), eurID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, types.CurrencyEUR, c.Code)

	_, ok, err = table.Currency(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckerTable_SharedTokens(t *testing.T) {
	t.Parallel()

	table := NewCheckerTable(newTestStorage())

	// "$" is an alias of RUB, so it passes for both currencies
	for _, id := range []int64{usdID, rubID} {
		ok, err := table.Matches(context.Background(), id, "$")
		require.NoError(t, err)

		assert.True(t, ok)
	}
}
