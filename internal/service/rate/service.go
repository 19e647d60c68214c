package rate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/clock"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/ratefeed"
	repo "github.com/Additional-Code/atelier/internal/repository/rate"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

// CacheKey holds the latest snapshot.
const CacheKey = "rates:latest"

var serviceTracer = otel.Tracer("github.com/Additional-Code/atelier/service/rate")

// Module provides the rate service to Fx.
var Module = fx.Provide(NewService)

// Service keeps a once-a-day snapshot of the gold and exchange feeds.
//
// mu serializes the whole check-and-refresh sequence, so concurrent callers
// wait for the refresh in flight and then observe its snapshot instead of
// issuing their own fetches.
type Service struct {
	mu sync.Mutex

	repo     *repo.Repository
	gold     ratefeed.GoldFeed
	exchange ratefeed.ExchangeFeed
	clock    clock.Clock
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger

	loc          *time.Location
	cutoffHour   int
	lookbackDays int

	refreshes metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Gold       ratefeed.GoldFeed
	Exchange   ratefeed.ExchangeFeed
	Clock      clock.Clock
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	refreshes, err := otel.Meter("github.com/Additional-Code/atelier/service/rate").Int64Counter(
		"rates.refreshes",
		metric.WithDescription("Rate refresh cycles, by outcome."),
	)
	if err != nil {
		return nil, err
	}

	loc := p.Config.Rates.Location
	if loc == nil {
		loc = time.UTC
	}
	lookback := p.Config.Rates.LookbackDays
	if lookback <= 0 {
		lookback = 1
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}

	return &Service{
		repo:         p.Repository,
		gold:         p.Gold,
		exchange:     p.Exchange,
		clock:        clk,
		cache:        p.Cache,
		cacheTTL:     p.Config.Rates.CacheTTL,
		logger:       logger,
		loc:          loc,
		cutoffHour:   p.Config.Rates.CutoffHour,
		lookbackDays: lookback,
		refreshes:    refreshes,
	}, nil
}

// EnsureFresh refreshes the snapshot when the latest one is stale and returns
// the snapshot callers should read.
func (s *Service) EnsureFresh(ctx context.Context) (*entity.RateSnapshot, error) {
	ctx, span := serviceTracer.Start(ctx, "RateService.EnsureFresh")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().In(s.loc)

	latest, err := s.latest(ctx)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load latest failed")
		return nil, errorbank.Internal("failed to load rates", errorbank.WithCause(err))
	}
	if latest != nil && !s.stale(latest, now) {
		return latest, nil
	}

	snap, err := s.refresh(ctx, latest, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return nil, err
	}
	return snap, nil
}

// Current refreshes if needed and returns both views of the latest snapshot.
func (s *Service) Current(ctx context.Context) (*dto.RatesResponse, error) {
	snap, err := s.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewRatesResponse(snap), nil
}

// Gold returns the gold view of the latest snapshot.
func (s *Service) Gold(ctx context.Context) (*dto.GoldRates, error) {
	snap, err := s.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}
	view := dto.NewGoldRates(snap)
	if view == nil {
		return nil, errorbank.NotFound("gold price data not found")
	}
	return view, nil
}

// Exchange returns the exchange view of the latest snapshot.
func (s *Service) Exchange(ctx context.Context) (*dto.ExchangeRates, error) {
	snap, err := s.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}
	view := dto.NewExchangeRates(snap)
	if view == nil {
		return nil, errorbank.NotFound("exchange rate data not found")
	}
	return view, nil
}

// stale reports whether a snapshot must be replaced at now. A snapshot taken
// today stays fresh until the cutoff; after the cutoff only a snapshot taken
// past the cutoff counts.
func (s *Service) stale(latest *entity.RateSnapshot, now time.Time) bool {
	taken := latest.SearchedAt.In(s.loc)
	if !sameDay(taken, now) {
		return true
	}
	if taken.Hour() >= s.cutoffHour {
		return false
	}
	return now.Hour() >= s.cutoffHour
}

func (s *Service) refresh(ctx context.Context, previous *entity.RateSnapshot, now time.Time) (*entity.RateSnapshot, error) {
	var (
		gold     *ratefeed.GoldQuote
		exchange *ratefeed.ExchangeQuote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := lookback(gctx, s.lookbackDays, now, s.gold.Fetch)
		gold = q
		return err
	})
	g.Go(func() error {
		q, err := lookback(gctx, s.lookbackDays, now, s.exchange.Fetch)
		exchange = q
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errorbank.UpstreamUnavailable("rate refresh interrupted", errorbank.WithCause(err))
	}

	snap := &entity.RateSnapshot{SearchedAt: now.UTC()}
	switch {
	case gold != nil:
		base := gold.BaseDate
		snap.GoldBaseDate = &base
		snap.Gold24K.Decimal, snap.Gold24K.Valid = gold.K24, true
		snap.Gold18K.Decimal, snap.Gold18K.Valid = gold.K18, true
		snap.Gold14K.Decimal, snap.Gold14K.Valid = gold.K14, true
		snap.Gold10K.Decimal, snap.Gold10K.Valid = gold.K10, true
	case previous.HasGold():
		s.logger.Warn("gold feed unavailable; carrying forward", zap.Time("base_date", *previous.GoldBaseDate))
		snap.GoldBaseDate = previous.GoldBaseDate
		snap.Gold24K, snap.Gold18K = previous.Gold24K, previous.Gold18K
		snap.Gold14K, snap.Gold10K = previous.Gold14K, previous.Gold10K
	default:
		s.logger.Warn("gold feed unavailable and no prior data")
	}

	switch {
	case exchange != nil:
		base := exchange.BaseDate
		snap.ExchangeBaseDate = &base
		snap.USD, snap.JPY, snap.KRW = exchange.USD, exchange.JPY, exchange.KRW
	case previous.HasExchange():
		s.logger.Warn("exchange feed unavailable; carrying forward", zap.Time("base_date", *previous.ExchangeBaseDate))
		snap.ExchangeBaseDate = previous.ExchangeBaseDate
		snap.USD, snap.JPY, snap.KRW = previous.USD, previous.JPY, previous.KRW
	default:
		s.logger.Warn("exchange feed unavailable and no prior data")
	}

	if !snap.HasGold() && !snap.HasExchange() {
		s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "unavailable")))
		return nil, errorbank.UpstreamUnavailable("no rate data available from any feed")
	}

	if err := s.repo.Insert(ctx, snap); err != nil {
		s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return nil, errorbank.PersistenceFailed("failed to save rate snapshot", errorbank.WithCause(err))
	}
	if err := cache.SetJSON(ctx, s.cache, CacheKey, snap, s.cacheTTL); err != nil {
		s.logger.Warn("rates cache write failed", zap.Error(err))
	}

	s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "written")))
	s.logger.Info("rate snapshot written",
		zap.Bool("gold_fetched", gold != nil),
		zap.Bool("exchange_fetched", exchange != nil),
		zap.Time("searched_at", snap.SearchedAt),
	)
	return snap, nil
}

// lookback tries today and then each earlier day until fetch succeeds or days
// run out. A nil quote with a nil error means nothing was found.
func lookback[Q any](ctx context.Context, days int, now time.Time, fetch func(context.Context, time.Time) (*Q, error)) (*Q, error) {
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := fetch(ctx, now.AddDate(0, 0, -i))
		if err == nil && q != nil {
			return q, nil
		}
	}
	return nil, nil
}

func (s *Service) latest(ctx context.Context) (*entity.RateSnapshot, error) {
	var cached entity.RateSnapshot
	err := cache.GetJSON(ctx, s.cache, CacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("rates cache read failed", zap.Error(err))
	}

	snap, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, CacheKey, snap, s.cacheTTL); err != nil {
		s.logger.Warn("rates cache write failed", zap.Error(err))
	}
	return snap, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
