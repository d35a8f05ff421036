package sql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/fxgrab/storage/types"
)

// Querier is the part of a pgx connection (or pool) the storage uses
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	db Querier
}

func NewStorage(db Querier) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveExchangeRate(
	ctx context.Context,
	rate *types.ExchangeRate,
) error {
	_, err := s.db.Exec(
		ctx,
		saveExchangeRateQuery,
		rate.Base.String(),
		rate.Target.String(),
		floatToNumeric(rate.Rate),
		rate.RateType.String(),
		rate.Source.String(),
		rate.BankID,
		timeToTimestampz(rate.AsOf),
		timeToTimestampz(rate.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save exchange rate: %w", err)
	}

	return nil
}

func (s *Storage) RateAsOf(
	ctx context.Context,
	query *types.RateQuery,
	t time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	rows, err := s.db.Query(
		ctx,
		rateAsOfQuery,
		query.Base.String(),
		optionalString(query.Target),
		optionalString(query.Source),
		optionalString(query.RateType),
		timeToTimestampz(t),
		query.PageLimit(),
		max(query.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}
	defer rows.Close()

	var (
		items []*types.ExchangeRate
		total int64
	)

	for rows.Next() {
		var (
			base, target, rateType, source string

			bankID        int64
			rate          pgtype.Numeric
			asOf, fetched pgtype.Timestamptz
		)

		if err := rows.Scan(
			&base,
			&target,
			&rate,
			&rateType,
			&source,
			&bankID,
			&asOf,
			&fetched,
			&total,
		); err != nil {
			return nil, fmt.Errorf("unable to scan rate: %w", err)
		}

		if !rate.Valid || rate.Int == nil {
			continue
		}

		items = append(items, &types.ExchangeRate{
			Base:      types.Currency(base),
			Target:    types.Currency(target),
			Rate:      numericToFloat(rate),
			RateType:  types.RateType(rateType),
			Source:    types.Source(source),
			BankID:    bankID,
			AsOf:      timestampzToTime(asOf),
			FetchedAt: timestampzToTime(fetched),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	return &types.Page[*types.ExchangeRate]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	rows, err := s.db.Query(ctx, listSourcesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	out := make([]types.Source, 0, len(results))

	for _, src := range results {
		out = append(out, types.Source(src))
	}

	return out, nil
}

func (s *Storage) Currencies(ctx context.Context) ([]types.CurrencyInfo, error) {
	rows, err := s.db.Query(ctx, currenciesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currency reference: %w", err)
	}
	defer rows.Close()

	var out []types.CurrencyInfo

	for rows.Next() {
		var (
			c    types.CurrencyInfo
			code string
		)

		if err := rows.Scan(&c.ID, &code, &c.Symbol, &c.Aliases); err != nil {
			return nil, fmt.Errorf("unable to scan currency: %w", err)
		}

		c.Code = types.Currency(code)

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch currency reference: %w", err)
	}

	return out, nil
}

func (s *Storage) GrabberInfo(ctx context.Context, name string) (*types.GrabberInfo, error) {
	var info types.GrabberInfo

	err := s.db.QueryRow(ctx, grabberInfoQuery, name).Scan(&info.Name, &info.URL, &info.BankID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // valid case
		}

		return nil, fmt.Errorf("unable to fetch grabber info: %w", err)
	}

	return &info, nil
}

func (s *Storage) ListGrabbers(ctx context.Context) ([]*types.GrabberInfo, error) {
	rows, err := s.db.Query(ctx, listGrabbersQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch grabbers: %w", err)
	}
	defer rows.Close()

	var out []*types.GrabberInfo

	for rows.Next() {
		info := &types.GrabberInfo{}

		if err := rows.Scan(&info.Name, &info.URL, &info.BankID); err != nil {
			return nil, fmt.Errorf("unable to scan grabber: %w", err)
		}

		out = append(out, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch grabbers: %w", err)
	}

	return out, nil
}

// optionalString converts the optional filter to a nullable query argument
func optionalString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}

	s := string(*v)

	return &s
}

// floatToNumeric converts the float value to postgres numeric
func floatToNumeric(value float64) pgtype.Numeric {
	// round to 4dp and store as integer with exponent -4
	i := int64(math.Round(value * 1e4))

	return pgtype.Numeric{
		Int:   big.NewInt(i),
		Exp:   -4,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	f, _ := new(big.Rat).SetInt(value.Int).Float64()

	if value.Exp > 0 {
		f *= math.Pow10(int(value.Exp))
	} else if value.Exp < 0 {
		f /= math.Pow10(int(-value.Exp))
	}

	return f
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time
}
