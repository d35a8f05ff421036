package grabber

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Common is the fallback strategy for banks without a specialized one.
// It reads every table row shaped as either:
//
//	currency | check | buy | sale
//	currency | buy | sale
//
// The first cell identifies the currency. The check cell (usually the
// printed code) is then validated against that currency. Three-cell rows
// have no separate check, so the currency cell doubles as the check token
type Common struct {
	*Base
}

// NewCommon creates the fallback strategy over the loaded base
func NewCommon(base *Base) Strategy {
	return &Common{
		Base: base,
	}
}

func (c *Common) Grab(ctx context.Context) (Rates, error) {
	pageURL, err := c.SourceURL()
	if err != nil {
		return nil, err
	}

	doc, err := c.Fetcher().Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	batch := c.NewBatch()

	if err := c.parse(ctx, doc, batch); err != nil {
		return nil, err
	}

	return batch.Finalize(ctx)
}

// parse records the rate rows found in the document
func (c *Common) parse(ctx context.Context, doc *goquery.Document, batch *Batch) error {
	var lookupErr error

	doc.Find("table tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		row, ok := parseCommonRow(tr.Find("td"))
		if !ok {
			return true // header, or not a rate row
		}

		id, known, err := c.Identify(ctx, row.currency)
		if err != nil {
			lookupErr = err

			return false
		}

		if !known {
			return true // not a currency we know of
		}

		batch.Record(
			id,
			ParseOrZero(row.buy),
			ParseOrZero(row.sale),
			row.check,
		)

		return true
	})

	return lookupErr
}

// commonRow is a single raw rate row
type commonRow struct {
	currency, check string
	buy, sale       string
}

// parseCommonRow splits the row cells, if they form a rate row
func parseCommonRow(cells *goquery.Selection) (commonRow, bool) {
	text := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	var row commonRow

	switch {
	case cells.Length() >= 4:
		row = commonRow{
			currency: text(0),
			check:    text(1),
			buy:      text(2),
			sale:     text(3),
		}
	case cells.Length() == 3:
		row = commonRow{
			currency: text(0),
			check:    text(0),
			buy:      text(1),
			sale:     text(2),
		}
	default:
		return commonRow{}, false
	}

	return row, row.currency != ""
}
