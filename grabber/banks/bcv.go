package banks

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

// bcvSections maps the BCV page section IDs to their currencies
var bcvSections = []struct {
	id       string
	currency types.Currency
}{
	{"dolar", types.CurrencyUSD},
	{"euro", types.CurrencyEUR},
	{"yuan", types.CurrencyCNY},
	{"lira", types.CurrencyTRY},
	{"rublo", types.CurrencyRUB},
}

// BCV grabs the official Banco Central de Venezuela rates
type BCV struct {
	*grabber.Base
}

// NewBCV creates the BCV strategy over the loaded base
func NewBCV(base *grabber.Base) grabber.Strategy {
	return &BCV{
		Base: base,
	}
}

func (s *BCV) Grab(ctx context.Context) (grabber.Rates, error) {
	pageURL, err := s.SourceURL()
	if err != nil {
		return nil, err
	}

	doc, err := s.Fetcher().Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	batch := s.NewBatch()

	for _, section := range bcvSections {
		sel := doc.Find("#" + section.id)
		if sel.Length() == 0 {
			continue // the finalize step reports an empty page
		}

		id, ok, err := s.Identify(ctx, section.currency.String())
		if err != nil {
			return nil, err
		}

		if !ok {
			continue // not a tracked currency
		}

		rate := grabber.ParseOrZero(bcvRateText(sel))

		batch.Record(
			id,
			rate,
			rate,
			strings.TrimSpace(sel.Find("span").First().Text()),
		)
	}

	return batch.Finalize(ctx)
}

// bcvRateText extracts the rate text from a currency section
func bcvRateText(sel *goquery.Selection) string {
	txt := sel.Find(".col-sm-6.col-xs-6.centrado").First().Text()
	if strings.TrimSpace(txt) == "" {
		txt = sel.Find(".centrado").First().Text()
	}

	return strings.TrimSpace(txt)
}
