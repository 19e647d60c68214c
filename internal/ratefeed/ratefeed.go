// Package ratefeed queries the external gold-price and exchange-rate services.
package ratefeed

//go:generate mockgen -destination=mock_ratefeed/ratefeed.go -package=mock_ratefeed github.com/Additional-Code/atelier/internal/ratefeed GoldFeed,ExchangeFeed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
)

const dateLayout = "20060102"

var feedTracer = otel.Tracer("github.com/Additional-Code/atelier/ratefeed")

// ErrNoData means the feed had nothing usable for the requested date. Network,
// status and decoding failures all wrap it.
var ErrNoData = errors.New("no rate data for date")

// Karat weights applied to the 24k closing price.
var (
	weight18K = decimal.RequireFromString("0.75")
	weight14K = decimal.RequireFromString("0.585")
	weight10K = decimal.RequireFromString("0.417")
)

// GoldQuote is one day of karat-weighted gold prices.
type GoldQuote struct {
	BaseDate time.Time
	K24      decimal.Decimal
	K18      decimal.Decimal
	K14      decimal.Decimal
	K10      decimal.Decimal
}

// ExchangeQuote is one day of base exchange rates. Units the feed omitted stay invalid.
type ExchangeQuote struct {
	BaseDate time.Time
	USD      decimal.NullDecimal
	JPY      decimal.NullDecimal
	KRW      decimal.NullDecimal
}

// GoldFeed fetches gold prices for a calendar date.
type GoldFeed interface {
	Fetch(ctx context.Context, date time.Time) (*GoldQuote, error)
}

// ExchangeFeed fetches exchange rates for a calendar date.
type ExchangeFeed interface {
	Fetch(ctx context.Context, date time.Time) (*ExchangeQuote, error)
}

// Module provides both HTTP feeds to Fx.
var Module = fx.Provide(
	fx.Annotate(NewGoldClient, fx.As(new(GoldFeed))),
	fx.Annotate(NewExchangeClient, fx.As(new(ExchangeFeed))),
)

// GoldClient calls the public-data gold price service.
type GoldClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	logger   *zap.Logger
}

// NewGoldClient builds the gold feed from configuration.
func NewGoldClient(cfg config.Config, logger *zap.Logger) *GoldClient {
	return &GoldClient{
		endpoint: cfg.Rates.GoldEndpoint,
		apiKey:   cfg.Rates.GoldAPIKey,
		timeout:  cfg.Rates.RequestTimeout,
		http:     &http.Client{},
		logger:   logger,
	}
}

type goldEnvelope struct {
	Response struct {
		Body struct {
			Items struct {
				Item []struct {
					BasDt string     `json:"basDt"`
					Clpr  flexNumber `json:"clpr"`
				} `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// Fetch returns the gold prices published for date.
func (c *GoldClient) Fetch(ctx context.Context, date time.Time) (*GoldQuote, error) {
	day := date.Format(dateLayout)
	ctx, span := feedTracer.Start(ctx, "GoldFeed.Fetch", trace.WithAttributes(attribute.String("rates.date", day)))
	defer span.End()

	q := url.Values{}
	q.Set("serviceKey", c.apiKey)
	q.Set("pageNo", "1")
	q.Set("numOfRows", "1")
	q.Set("resultType", "json")
	q.Set("basDt", day)

	var env goldEnvelope
	if err := getJSON(ctx, c.http, c.timeout, c.endpoint, q, &env); err != nil {
		return nil, c.fail(span, day, err)
	}

	items := env.Response.Body.Items.Item
	if len(items) == 0 {
		return nil, c.fail(span, day, fmt.Errorf("%w: empty item list", ErrNoData))
	}
	clpr, err := items[0].Clpr.Decimal()
	if err != nil {
		return nil, c.fail(span, day, fmt.Errorf("%w: clpr %q: %v", ErrNoData, items[0].Clpr, err))
	}

	return &GoldQuote{
		BaseDate: truncateDay(date),
		K24:      clpr,
		K18:      clpr.Mul(weight18K),
		K14:      clpr.Mul(weight14K),
		K10:      clpr.Mul(weight10K),
	}, nil
}

func (c *GoldClient) fail(span trace.Span, day string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "no data")
	if c.logger != nil {
		c.logger.Warn("gold feed returned no data", zap.String("date", day), zap.Error(err))
	}
	return err
}

// ExchangeClient calls the Korea Eximbank exchange rate service.
type ExchangeClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	logger   *zap.Logger
}

// NewExchangeClient builds the exchange feed from configuration.
func NewExchangeClient(cfg config.Config, logger *zap.Logger) *ExchangeClient {
	client := &http.Client{}
	if cfg.Rates.ExchangeSkipTLSVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // upstream serves an incomplete chain
		client.Transport = transport
	}
	return &ExchangeClient{
		endpoint: cfg.Rates.ExchangeEndpoint,
		apiKey:   cfg.Rates.ExchangeAPIKey,
		timeout:  cfg.Rates.RequestTimeout,
		http:     client,
		logger:   logger,
	}
}

type exchangeItem struct {
	CurUnit  string     `json:"cur_unit"`
	DealBasR flexNumber `json:"deal_bas_r"`
}

// Fetch returns the base rates published for date.
func (c *ExchangeClient) Fetch(ctx context.Context, date time.Time) (*ExchangeQuote, error) {
	day := date.Format(dateLayout)
	ctx, span := feedTracer.Start(ctx, "ExchangeFeed.Fetch", trace.WithAttributes(attribute.String("rates.date", day)))
	defer span.End()

	q := url.Values{}
	q.Set("authkey", c.apiKey)
	q.Set("searchdate", day)
	q.Set("data", "AP01")

	var items []exchangeItem
	if err := getJSON(ctx, c.http, c.timeout, c.endpoint, q, &items); err != nil {
		return nil, c.fail(span, day, err)
	}

	quote := &ExchangeQuote{BaseDate: truncateDay(date)}
	found := 0
	for _, item := range items {
		var target *decimal.NullDecimal
		switch item.CurUnit {
		case "USD":
			target = &quote.USD
		case "JPY(100)":
			target = &quote.JPY
		case "KRW":
			target = &quote.KRW
		default:
			continue
		}
		rate, err := item.DealBasR.Decimal()
		if err != nil {
			return nil, c.fail(span, day, fmt.Errorf("%w: %s rate %q: %v", ErrNoData, item.CurUnit, item.DealBasR, err))
		}
		*target = decimal.NewNullDecimal(rate)
		found++
	}
	if found == 0 {
		return nil, c.fail(span, day, fmt.Errorf("%w: no tracked currencies", ErrNoData))
	}
	return quote, nil
}

func (c *ExchangeClient) fail(span trace.Span, day string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "no data")
	if c.logger != nil {
		c.logger.Warn("exchange feed returned no data", zap.String("date", day), zap.Error(err))
	}
	return err
}

// getJSON performs one bounded GET and decodes the body into dst. Every
// failure is reported as ErrNoData.
func getJSON(ctx context.Context, client *http.Client, timeout time.Duration, endpoint string, q url.Values, dst any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint: %v", ErrNoData, err)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrNoData, err)
	}
	return nil
}

// flexNumber accepts a JSON string or number; strings may carry thousands separators.
type flexNumber string

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexNumber(s)
		return nil
	}
	*f = flexNumber(b)
	return nil
}

// Decimal parses the value after stripping separators.
func (f flexNumber) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(string(f)), ",", ""))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
