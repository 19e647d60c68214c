package ratefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
)

var day = time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

func feedConfig(gold, exchange string) config.Config {
	var cfg config.Config
	cfg.Rates.GoldEndpoint = gold
	cfg.Rates.GoldAPIKey = "gold-key"
	cfg.Rates.ExchangeEndpoint = exchange
	cfg.Rates.ExchangeAPIKey = "fx-key"
	cfg.Rates.RequestTimeout = time.Second
	return cfg
}

func TestGoldFetchAppliesKaratWeights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gold-key", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "20250304", r.URL.Query().Get("basDt"))
		assert.Equal(t, "json", r.URL.Query().Get("resultType"))
		_, _ = w.Write([]byte(`{"response":{"body":{"items":{"item":[{"basDt":"20250304","clpr":"100000"}]}}}}`))
	}))
	defer srv.Close()

	quote, err := NewGoldClient(feedConfig(srv.URL, ""), zap.NewNop()).Fetch(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), quote.BaseDate)
	assert.True(t, quote.K24.Equal(decimal.NewFromInt(100000)))
	assert.True(t, quote.K18.Equal(decimal.NewFromInt(75000)))
	assert.True(t, quote.K14.Equal(decimal.NewFromInt(58500)))
	assert.True(t, quote.K10.Equal(decimal.NewFromInt(41700)))
}

func TestGoldFetchNoData(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"empty items": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"response":{"body":{"items":{"item":[]}}}}`))
		},
		"missing body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"response":{"header":{"resultCode":"99"}}}`))
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<OpenAPI_ServiceResponse/>`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewGoldClient(feedConfig(srv.URL, ""), zap.NewNop()).Fetch(context.Background(), day)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestGoldFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := feedConfig(srv.URL, "")
	cfg.Rates.RequestTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := NewGoldClient(cfg, zap.NewNop()).Fetch(context.Background(), day)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExchangeFetchKeepsTrackedUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fx-key", r.URL.Query().Get("authkey"))
		assert.Equal(t, "20250304", r.URL.Query().Get("searchdate"))
		assert.Equal(t, "AP01", r.URL.Query().Get("data"))
		_, _ = w.Write([]byte(`[
			{"cur_unit":"EUR","deal_bas_r":"1,560.12"},
			{"cur_unit":"USD","deal_bas_r":"1,452.30"},
			{"cur_unit":"JPY(100)","deal_bas_r":"968.5"}
		]`))
	}))
	defer srv.Close()

	quote, err := NewExchangeClient(feedConfig("", srv.URL), zap.NewNop()).Fetch(context.Background(), day)
	require.NoError(t, err)

	require.True(t, quote.USD.Valid)
	assert.True(t, quote.USD.Decimal.Equal(decimal.RequireFromString("1452.30")))
	require.True(t, quote.JPY.Valid)
	assert.True(t, quote.JPY.Decimal.Equal(decimal.RequireFromString("968.5")))
	assert.False(t, quote.KRW.Valid)
}

func TestExchangeFetchWithoutTrackedUnitsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// the service answers non-business days with an empty array
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewExchangeClient(feedConfig("", srv.URL), zap.NewNop()).Fetch(context.Background(), day)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFlexNumberAcceptsNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"cur_unit":"KRW","deal_bas_r":1}]`))
	}))
	defer srv.Close()

	quote, err := NewExchangeClient(feedConfig("", srv.URL), zap.NewNop()).Fetch(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, quote.KRW.Decimal.Equal(decimal.NewFromInt(1)))
}
