package types

import "time"

type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyEUR  Currency = "EUR"
	CurrencyCNY  Currency = "CNY"
	CurrencyTRY  Currency = "TRY"
	CurrencyRUB  Currency = "RUB"
	CurrencyVES  Currency = "VES"
	CurrencyUSDT Currency = "USDT"
)

func (c Currency) String() string {
	return string(c)
}

type RateType string

const (
	RateTypeMID  RateType = "MID"
	RateTypeBUY  RateType = "BUY"
	RateTypeSELL RateType = "SELL"
)

func (r RateType) String() string {
	return string(r)
}

type Source string

func (s Source) String() string {
	return string(s)
}

type ExchangeRate struct {
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
	Base      Currency  `json:"base"`
	Target    Currency  `json:"target"`
	RateType  RateType  `json:"rate_type"`
	Source    Source    `json:"source"`
	BankID    int64     `json:"bank_id,omitempty"` // downstream bank ID of the source, if any
	Rate      float64   `json:"rate"`
}

type RateQuery struct {
	Target   *Currency `json:"target"`
	RateType *RateType `json:"rate_type"`
	Source   *Source   `json:"source"`
	Base     Currency  `json:"base"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

const (
	DefaultPageLimit int32 = 100
	MaxPageLimit     int32 = 500
)

// PageLimit returns the query limit, clamped to (0, MaxPageLimit]
func (q *RateQuery) PageLimit() int32 {
	switch {
	case q.Limit <= 0:
		return DefaultPageLimit
	case q.Limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return q.Limit
	}
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}

// CurrencyInfo is a known currency, together with every
// textual token a bank page may use to denote it
type CurrencyInfo struct {
	Code    Currency `json:"code"`
	Symbol  string   `json:"symbol"`
	Aliases []string `json:"aliases"`
	ID      int64    `json:"id"`
}

// Tokens returns the acceptable tokens for the currency,
// in order: code, symbol, aliases
func (c CurrencyInfo) Tokens() []string {
	tokens := make([]string, 0, len(c.Aliases)+2)
	tokens = append(tokens, c.Code.String(), c.Symbol)

	return append(tokens, c.Aliases...)
}

// GrabberInfo is the metadata row of a single grabbing strategy.
// Zero values mean the field is not configured
type GrabberInfo struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	BankID int64  `json:"bank_id"`
}
