package banks

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/storage/types"
)

// bcvSection renders a single BCV currency section
func bcvSection(id, code, rate string) string {
	return `<div id="` + id + `">
  <div class="field-content">
    <div class="row recuadrotsmc">
      <div class="col-sm-6 col-xs-6"><span> ` + code + `</span></div>
      <div class="col-sm-6 col-xs-6 centrado"><strong> ` + rate + ` </strong></div>
    </div>
  </div>
</div>`
}

func bcvPage(sections ...string) string {
	page := `<html><body><div class="view-tipo-de-cambio-oficial-del-bcv">`
	for _, s := range sections {
		page += s
	}

	return page + `</div></body></html>`
}

func TestBCV_Grab(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, page string) grabber.Strategy {
		t.Helper()

		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(page))
		})

		r := newTestRegistry(t, types.GrabberInfo{Name: BCVName, URL: srv.URL, BankID: 1})

		s, err := r.Resolve(context.Background(), BCVName)
		require.NoError(t, err)
		require.IsType(t, &BCV{}, s)

		return s
	}

	t.Run("valid page", func(t *testing.T) {
		t.Parallel()

		s := serve(t, bcvPage(
			bcvSection("euro", "EUR", "39,87654321"),
			bcvSection("yuan", "CNY", "5,02"),
			bcvSection("lira", "TRY", "1,10"), // not in the reference
			bcvSection("dolar", "USD", "36,5123"),
		))

		rates, err := s.Grab(context.Background())
		require.NoError(t, err)

		require.Len(t, rates, 3)

		usd := rates[usdID]
		assert.True(t, decimal.RequireFromString("36.5123").Equal(usd.Buy))
		assert.True(t, usd.Buy.Equal(usd.Sale))
		assert.Equal(t, "USD", usd.Check)

		assert.Equal(t, "EUR", rates[eurID].Check)
		assert.Equal(t, "CNY", rates[cnyID].Check)
	})

	t.Run("swapped sections", func(t *testing.T) {
		t.Parallel()

		s := serve(t, bcvPage(
			bcvSection("dolar", "EUR", "39,8"),
			bcvSection("euro", "USD", "36,5"),
		))

		_, err := s.Grab(context.Background())
		assert.ErrorIs(t, err, grabber.ErrChecksumMismatch)
	})

	t.Run("missing rate", func(t *testing.T) {
		t.Parallel()

		s := serve(t, bcvPage(
			bcvSection("dolar", "USD", "36,5"),
			bcvSection("euro", "EUR", ""),
		))

		_, err := s.Grab(context.Background())
		assert.ErrorIs(t, err, grabber.ErrMalformedData)
	})

	t.Run("layout change", func(t *testing.T) {
		t.Parallel()

		s := serve(t, `<html><body><p>Mantenimiento</p></body></html>`)

		_, err := s.Grab(context.Background())
		assert.ErrorIs(t, err, grabber.ErrEmptyResult)
	})
}
