//nolint:tagliatelle // Binance API uses camel case
package banks

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

const (
	binanceP2PURL = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"

	binanceAsset = types.CurrencyUSDT
	binanceFiat  = types.CurrencyVES

	binancePages    = 3
	binancePageRows = 10
	binanceTopN     = 12
)

const (
	tradeTypeBuy  = "BUY"
	tradeTypeSell = "SELL"
)

// offerFilter is a single tier of advertiser quality thresholds
type offerFilter struct {
	minOrders     int
	minFinishRate float64
	minAvailable  float64
	typicalAmount float64 // the offer limits must allow this amount
}

var (
	strictFilter = offerFilter{
		minOrders:     50,
		minFinishRate: 0.95,
		minAvailable:  50,
		typicalAmount: 100,
	}

	relaxedFilter = offerFilter{
		minOrders:     20,
		minFinishRate: 0.90,
		minAvailable:  50,
		typicalAmount: 100,
	}
)

type binanceSearchRequest struct {
	Asset     string `json:"asset"`
	Fiat      string `json:"fiat"`
	TradeType string `json:"tradeType"`
	Rows      int    `json:"rows"`
	Page      int    `json:"page"`
}

type binanceSearchResponse struct {
	Data []struct {
		Adv struct {
			Asset                string `json:"asset"`
			Price                string `json:"price"`
			MinSingleTransAmount string `json:"minSingleTransAmount"`
			MaxSingleTransAmount string `json:"maxSingleTransAmount"`
			SurplusAmount        string `json:"surplusAmount"`
			TradableQuantity     string `json:"tradableQuantity"`
		} `json:"adv"`
		Advertiser struct {
			MonthOrderCount int     `json:"monthOrderCount"`
			MonthFinishRate float64 `json:"monthFinishRate"`
		} `json:"advertiser"`
	} `json:"data"`
}

// p2pOffer is a single parsed P2P advertisement
type p2pOffer struct {
	asset      string
	price      decimal.Decimal
	minLimit   float64
	maxLimit   float64
	available  float64
	orders     int
	finishRate float64
	quality    float64
}

// BinanceP2P grabs the median USDT/VES peer-to-peer rates
type BinanceP2P struct {
	*grabber.Base
}

// NewBinanceP2P creates the Binance P2P strategy over the loaded base
func NewBinanceP2P(base *grabber.Base) grabber.Strategy {
	return &BinanceP2P{
		Base: base,
	}
}

func (s *BinanceP2P) Grab(ctx context.Context) (grabber.Rates, error) {
	endpoint, ok := s.URL()
	if !ok {
		endpoint = binanceP2PURL
	}

	// Advertisers selling USDT quote the price we pay (sale),
	// advertisers buying it quote the price we get (buy)
	sellers, err := s.fetchOffers(ctx, endpoint, tradeTypeBuy)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s offers: %w", tradeTypeBuy, err)
	}

	buyers, err := s.fetchOffers(ctx, endpoint, tradeTypeSell)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s offers: %w", tradeTypeSell, err)
	}

	batch := s.NewBatch()

	if len(sellers) > 0 && len(buyers) > 0 {
		id, known, err := s.Identify(ctx, binanceAsset.String())
		if err != nil {
			return nil, err
		}

		if known {
			batch.Record(
				id,
				medianPrice(buyers, false),
				medianPrice(sellers, true),
				sellers[0].asset,
			)
		}
	}

	return batch.Finalize(ctx)
}

// fetchOffers pages through the offers of the given trade type
func (s *BinanceP2P) fetchOffers(
	ctx context.Context,
	endpoint string,
	tradeType string,
) ([]p2pOffer, error) {
	offers := make([]p2pOffer, 0, binancePages*binancePageRows)

	for page := 1; page <= binancePages; page++ {
		req := binanceSearchRequest{
			Asset:     binanceAsset.String(),
			Fiat:      binanceFiat.String(),
			TradeType: tradeType,
			Rows:      binancePageRows,
			Page:      page,
		}

		var resp binanceSearchResponse

		if err := s.Fetcher().PostJSON(ctx, endpoint, req, &resp); err != nil {
			return nil, err
		}

		if len(resp.Data) == 0 {
			break
		}

		for _, item := range resp.Data {
			price, err := decimal.NewFromString(item.Adv.Price)
			if err != nil || price.Sign() <= 0 {
				continue
			}

			available, ok := parseAmount(item.Adv.SurplusAmount)
			if !ok {
				available, _ = parseAmount(item.Adv.TradableQuantity)
			}

			var (
				minLimit, _ = parseAmount(item.Adv.MinSingleTransAmount)
				maxLimit, _ = parseAmount(item.Adv.MaxSingleTransAmount)
				finishRate  = normalizeFinishRate(item.Advertiser.MonthFinishRate)
				orders      = item.Advertiser.MonthOrderCount
			)

			offers = append(offers, p2pOffer{
				asset:      item.Adv.Asset,
				price:      price,
				minLimit:   minLimit,
				maxLimit:   maxLimit,
				available:  available,
				orders:     orders,
				finishRate: finishRate,
				quality:    wilsonLowerBound(finishRate, orders),
			})
		}
	}

	return offers, nil
}

// medianPrice picks the best offers and returns their median price.
// Ascending ranks the cheapest offers first
func medianPrice(offers []p2pOffer, ascending bool) decimal.Decimal {
	picked := strictFilter.apply(offers)

	if len(picked) < binanceTopN {
		if relaxed := relaxedFilter.apply(offers); len(relaxed) > len(picked) {
			picked = relaxed
		}
	}

	if len(picked) == 0 {
		// Nobody passes the thresholds, so use every offer
		picked = slices.Clone(offers)
	}

	slices.SortFunc(picked, func(a, b p2pOffer) int {
		if c := a.price.Cmp(b.price); c != 0 {
			if ascending {
				return c
			}

			return -c
		}

		// Better quality first
		switch {
		case a.quality > b.quality:
			return -1
		case a.quality < b.quality:
			return 1
		default:
			return 0
		}
	})

	if len(picked) > binanceTopN {
		picked = picked[:binanceTopN]
	}

	prices := make([]decimal.Decimal, 0, len(picked))
	for _, o := range picked {
		prices = append(prices, o.price)
	}

	return median(prices).Round(4)
}

// apply returns the offers that pass the filter
func (f offerFilter) apply(offers []p2pOffer) []p2pOffer {
	out := make([]p2pOffer, 0, len(offers))

	for _, o := range offers {
		if o.orders < f.minOrders || o.finishRate < f.minFinishRate {
			continue
		}

		if o.available > 0 && o.available < f.minAvailable {
			continue
		}

		if o.minLimit > 0 && f.typicalAmount < o.minLimit {
			continue
		}

		if o.maxLimit > 0 && f.typicalAmount > o.maxLimit {
			continue
		}

		out = append(out, o)
	}

	return out
}

// median returns the median of the values, or zero if there are none
func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int {
		return a.Cmp(b)
	})

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

// normalizeFinishRate maps percentages onto 0-1
func normalizeFinishRate(rate float64) float64 {
	switch {
	case rate <= 0:
		return 0
	case rate > 1:
		return rate / 100
	default:
		return rate
	}
}

// wilsonLowerBound is a conservative completion score,
// favoring advertisers with a high rate over many orders
func wilsonLowerBound(rate float64, n int) float64 {
	if n <= 0 {
		return 0
	}

	var (
		z     = 1.96
		total = float64(n)

		denominator = 1 + z*z/total
		center      = rate + z*z/(2*total)
		adjust      = z * math.Sqrt((rate*(1-rate)+z*z/(4*total))/total)
	)

	return (center - adjust) / denominator
}

// parseAmount parses an optional API amount
func parseAmount(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, false
	}

	return d.InexactFloat64(), true
}
