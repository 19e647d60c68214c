package rate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/clock"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database/dbtest"
	"github.com/Additional-Code/atelier/internal/ratefeed"
	"github.com/Additional-Code/atelier/internal/ratefeed/mock_ratefeed"
	raterepo "github.com/Additional-Code/atelier/internal/repository/rate"
	service "github.com/Additional-Code/atelier/internal/service/rate"
	transport "github.com/Additional-Code/atelier/internal/transport/http/rate"
)

func newServer(t *testing.T) (*echo.Echo, *mock_ratefeed.MockGoldFeed, *mock_ratefeed.MockExchangeFeed) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gold := mock_ratefeed.NewMockGoldFeed(ctrl)
	exchange := mock_ratefeed.NewMockExchangeFeed(ctrl)

	var cfg config.Config
	cfg.Rates.Location = time.UTC
	cfg.Rates.CutoffHour = 11
	cfg.Rates.LookbackDays = 2

	svc, err := service.NewService(service.Params{
		Repository: raterepo.NewRepository(dbtest.New(t)),
		Gold:       gold,
		Exchange:   exchange,
		Clock:      clock.NewFake(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)),
		Cache:      cache.NewMemoryStore(time.Minute),
		Config:     cfg,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	e := echo.New()
	transport.Register(e, transport.NewHandler(svc))
	return e, gold, exchange
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRatesViews(t *testing.T) {
	e, gold, exchange := newServer(t)
	gold.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, ratefeed.ErrNoData).Times(2)
	exchange.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, date time.Time) (*ratefeed.ExchangeQuote, error) {
			return &ratefeed.ExchangeQuote{
				BaseDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
				USD:      decimal.NewNullDecimal(decimal.RequireFromString("1452.3")),
			}, nil
		}).Times(1)

	rec := get(e, "/rates/exchange")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			SearchDate string `json:"search_date"`
			Items      []struct {
				CurUnit string `json:"cur_unit"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "20250304", body.Data.SearchDate)
	require.Len(t, body.Data.Items, 3)
	assert.Equal(t, "JPY(100)", body.Data.Items[1].CurUnit)

	assert.Equal(t, http.StatusNotFound, get(e, "/rates/gold").Code)
	assert.Equal(t, http.StatusOK, get(e, "/rates").Code)
}

func TestRatesUnavailable(t *testing.T) {
	e, gold, exchange := newServer(t)
	gold.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, ratefeed.ErrNoData).Times(2)
	exchange.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, ratefeed.ErrNoData).Times(2)

	rec := get(e, "/rates")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}
