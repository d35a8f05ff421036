package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/fxgrab/storage/types"
)

var (
	errUnableToFetchRates      = errors.New("unable to fetch rates")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errUnableToFetchSources    = errors.New("unable to fetch sources")
	errUnableToFetchBanks      = errors.New("unable to fetch banks")

	errInvalidParam = errors.New("invalid parameter")
)

// Rates serves the rates of a base currency, optionally narrowed to a
// single target when the route carries one
func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	query, asOf, err := parseRateQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateAsOf(r.Context(), query, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"base", query.Base,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	if page == nil {
		page = &types.Page[*types.ExchangeRate]{}
	}

	if page.Results == nil {
		page.Results = []*types.ExchangeRate{}
	}

	writeJSON(w, http.StatusOK, page)
}

// Sources serves the sources that have stored rates
func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, s, s.storage.ListSources, errUnableToFetchSources)
}

// Currencies serves the currency reference the grabbers validate against
func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, s, s.storage.Currencies, errUnableToFetchCurrencies)
}

// Banks serves the configured grabber metadata
func (s *Server) Banks(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, s, s.storage.ListGrabbers, errUnableToFetchBanks)
}

func serveList[T any](
	w http.ResponseWriter,
	r *http.Request,
	s *Server,
	fetch func(context.Context) ([]T, error),
	fetchErr error,
) {
	items, err := fetch(r.Context())
	if err != nil {
		s.logger.Debug(
			fetchErr.Error(),
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, fetchErr)

		return
	}

	if items == nil {
		items = []T{}
	}

	writeJSON(w, http.StatusOK, &ListResponse[T]{Results: items})
}

// parseRateQuery builds the rate query out of the route and query params.
// The as-of time defaults to now
func parseRateQuery(r *http.Request) (*types.RateQuery, time.Time, error) {
	var (
		params = r.URL.Query()
		query  = &types.RateQuery{}
		err    error
	)

	if query.Base, err = parseCurrency("base", chi.URLParam(r, "base")); err != nil {
		return nil, time.Time{}, err
	}

	if raw := chi.URLParam(r, "target"); raw != "" {
		target, err := parseCurrency("target", raw)
		if err != nil {
			return nil, time.Time{}, err
		}

		query.Target = &target
	}

	if v := param(params, "source"); v != "" {
		source := types.Source(v)
		query.Source = &source
	}

	if v := param(params, "type"); v != "" {
		rateType := types.RateType(strings.ToUpper(v))

		switch rateType {
		case types.RateTypeMID, types.RateTypeBUY, types.RateTypeSELL:
			query.RateType = &rateType
		default:
			return nil, time.Time{}, invalidParam("type", "must be MID, BUY or SELL")
		}
	}

	if v := param(params, "limit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil || limit < 0 {
			return nil, time.Time{}, invalidParam("limit", "must be a non-negative integer")
		}

		query.Limit = int32(limit)
	}

	if v := param(params, "offset"); v != "" {
		if query.Offset, err = strconv.ParseInt(v, 10, 64); err != nil || query.Offset < 0 {
			return nil, time.Time{}, invalidParam("offset", "must be a non-negative integer")
		}
	}

	query.Limit = query.PageLimit()

	asOf := time.Now().UTC()

	if v := param(params, "as_of"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, time.Time{}, invalidParam("as_of", "must be an RFC3339 timestamp")
		}

		asOf = t.UTC()
	}

	return query, asOf, nil
}

// parseCurrency accepts 3 to 5 ASCII letters, in any case
func parseCurrency(name, raw string) (types.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	if len(code) < 3 || len(code) > 5 {
		return "", invalidParam(name, "must be 3-5 letters")
	}

	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", invalidParam(name, "must be 3-5 letters")
		}
	}

	return types.Currency(code), nil
}

func param(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

func invalidParam(name, reason string) error {
	return fmt.Errorf("%w %s, %s", errInvalidParam, name, reason)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}
