package grabber

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxgrab/storage/mock"
	"github.com/sig-0/fxgrab/storage/types"
)

// testStrategy is a specialized strategy recording fixed rates
type testStrategy struct {
	*Base
}

func newTestStrategy(base *Base) Strategy {
	return &testStrategy{
		Base: base,
	}
}

func (s *testStrategy) Grab(ctx context.Context) (Rates, error) {
	batch := s.NewBatch()
	batch.Record(usdID, decimal.RequireFromString("3.65"), decimal.RequireFromString("3.70"), "USD")

	return batch.Finalize(ctx)
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(
		types.GrabberInfo{Name: "TestBank", URL: "https://test.bank/rates", BankID: 7},
		types.GrabberInfo{Name: "OtherBank", URL: "https://other.bank/"},
	)

	t.Run("specialized strategy", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage)
		r.Register("TestBank", newTestStrategy)

		s, err := r.Resolve(context.Background(), "TestBank")
		require.NoError(t, err)

		require.IsType(t, &testStrategy{}, s)
		assert.Equal(t, "TestBank", s.Name())

		bankID, ok := s.BankID()
		assert.True(t, ok)
		assert.Equal(t, int64(7), bankID)

		rates, err := s.Grab(context.Background())
		require.NoError(t, err)
		assert.Len(t, rates, 1)
	})

	t.Run("fallback strategy", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage)
		r.Register("TestBank", newTestStrategy)

		s, err := r.Resolve(context.Background(), "OtherBank")
		require.NoError(t, err)

		require.IsType(t, &Common{}, s)
		assert.Equal(t, "OtherBank", s.Name())

		_, ok := s.BankID()
		assert.False(t, ok)
	})

	t.Run("names are case sensitive", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage)
		r.Register("OtherBank", newTestStrategy)

		_, err := r.Resolve(context.Background(), "otherbank")
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("custom fallback", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage, WithFallback(newTestStrategy))

		s, err := r.Resolve(context.Background(), "OtherBank")
		require.NoError(t, err)

		assert.IsType(t, &testStrategy{}, s)
	})

	t.Run("missing metadata", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage)
		r.Register("Ghost", newTestStrategy)

		for _, name := range []string{"Ghost", "Unknown"} {
			s, err := r.Resolve(context.Background(), name)

			assert.ErrorIs(t, err, ErrConfiguration)
			assert.ErrorContains(t, err, "metadata for "+name+" not found")
			assert.Equal(t, KindConfiguration, Kind(err))
			assert.Nil(t, s)
		}
	})

	t.Run("metadata source error", func(t *testing.T) {
		t.Parallel()

		var (
			sourceErr = errors.New("db down")

			failing = &mock.Storage{
				GrabberInfoFn: func(_ context.Context, _ string) (*types.GrabberInfo, error) {
					return nil, sourceErr
				},
			}
		)

		r := NewRegistry(failing, failing)

		_, err := r.Resolve(context.Background(), "TestBank")

		assert.ErrorIs(t, err, sourceErr)
		assert.NotErrorIs(t, err, ErrConfiguration)
	})

	t.Run("fresh instance per resolve", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(storage, storage)

		a, err := r.Resolve(context.Background(), "OtherBank")
		require.NoError(t, err)

		b, err := r.Resolve(context.Background(), "OtherBank")
		require.NoError(t, err)

		assert.NotSame(t, a, b)
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(&mock.Storage{}, &mock.Storage{})
		r.Register("TestBank", newTestStrategy)

		assert.Panics(t, func() {
			r.Register("TestBank", newTestStrategy)
		})
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(&mock.Storage{}, &mock.Storage{})

		assert.Panics(t, func() {
			r.Register("", newTestStrategy)
		})
	})

	t.Run("nil factory", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(&mock.Storage{}, &mock.Storage{})

		assert.Panics(t, func() {
			r.Register("TestBank", nil)
		})
	})

	t.Run("names", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(&mock.Storage{}, &mock.Storage{})
		r.Register("b", newTestStrategy)
		r.Register("a", newTestStrategy)

		assert.Equal(t, []string{"a", "b"}, r.Names())
	})
}

func TestBase_Metadata(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(
		types.GrabberInfo{Name: "Dynamic"},
		types.GrabberInfo{Name: "Static", URL: "https://static.bank/", BankID: 3},
	)

	table := NewCheckerTable(storage)

	t.Run("nothing configured", func(t *testing.T) {
		t.Parallel()

		b, err := NewBase(context.Background(), "Dynamic", storage, table, nil)
		require.NoError(t, err)

		_, ok := b.URL()
		assert.False(t, ok)

		_, ok = b.BankID()
		assert.False(t, ok)

		_, err = b.SourceURL()
		assert.ErrorIs(t, err, ErrConfiguration)

		assert.NotNil(t, b.Fetcher())
	})

	t.Run("everything configured", func(t *testing.T) {
		t.Parallel()

		b, err := NewBase(context.Background(), "Static", storage, table, nil)
		require.NoError(t, err)

		u, err := b.SourceURL()
		require.NoError(t, err)
		assert.Equal(t, "https://static.bank/", u)

		id, ok := b.BankID()
		assert.True(t, ok)
		assert.Equal(t, int64(3), id)
	})
}
