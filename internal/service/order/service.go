package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/clock"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/ordernumber"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/atelier/service/order")

// Module provides the order service to Fx.
var Module = fx.Provide(NewService)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service encapsulates business logic around order aggregates.
type Service struct {
	repo       *repo.Repository
	numbers    *ordernumber.Allocator
	clock      clock.Clock
	cache      cache.Store
	cacheTTL   time.Duration
	logger     *zap.Logger
	publisher  messaging.Client
	messaging  messagingConfig
	maxRetries int
	saved      metric.Int64Counter
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Allocator  *ordernumber.Allocator
	Clock      clock.Clock
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	saved, err := otel.Meter("github.com/Additional-Code/atelier/service/order").Int64Counter(
		"orders.saved",
		metric.WithDescription("Order aggregates written, by operation."),
	)
	if err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	retries := p.Config.Orders.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	return &Service{
		repo:       p.Repository,
		numbers:    p.Allocator,
		clock:      clk,
		cache:      p.Cache,
		cacheTTL:   p.Config.Cache.DefaultTTL,
		logger:     logger,
		publisher:  p.Publisher,
		maxRetries: retries,
		saved:      saved,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}, nil
}

// Get retrieves an order aggregate by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*dto.OrderResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var cached dto.OrderResponse
	err := cache.GetJSON(ctx, s.cache, CacheKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetAggregate(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	resp := dto.NewOrderResponse(order)
	if err := cache.SetJSON(ctx, s.cache, CacheKey(id), resp, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	} else if s.cache != nil {
		s.dropIfChanged(ctx, id, order.UpdatedAt)
	}
	return &resp, nil
}

// dropIfChanged evicts the entry just cached for id when the order changed
// after it was loaded. A write that committed between the load and the cache
// write has already run its own invalidation, so the entry would otherwise
// outlive it.
func (s *Service) dropIfChanged(ctx context.Context, id int64, loaded time.Time) {
	current, err := s.repo.UpdatedAt(ctx, id)
	if err == nil && current.Equal(loaded) {
		return
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("orders cache recheck failed", zap.Int64("id", id), zap.Error(err))
	}
	s.invalidate(ctx, id)
}

// List returns a page of order headers matching the query.
func (s *Service) List(ctx context.Context, q dto.OrderListQuery) (*dto.OrderPage, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}

	page := &dto.OrderPage{
		Orders: make([]dto.OrderResponse, 0, len(orders)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, o := range orders {
		page.Orders = append(page.Orders, dto.NewOrderResponse(o))
	}
	return page, nil
}

func buildFilter(q dto.OrderListQuery) (repo.Filter, error) {
	f := repo.Filter{
		EventID: q.EventID,
		Search:  q.Search,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	if q.Status != "" {
		status, ok := entity.ParseStatus(q.Status)
		if !ok {
			return f, errorbank.ValidationFailed("unknown order status", errorbank.WithDetail("status", q.Status))
		}
		f.Status = status
	}
	if q.Temporary != "" {
		temporary, err := strconv.ParseBool(q.Temporary)
		if err != nil {
			return f, errorbank.BadRequest("is_temporary must be a boolean", errorbank.WithCause(err))
		}
		f.Temporary = &temporary
	}
	if q.From != "" {
		from, _, err := parseBound(q.From)
		if err != nil {
			return f, errorbank.BadRequest("invalid from date", errorbank.WithCause(err))
		}
		f.CreatedFrom = &from
	}
	if q.To != "" {
		to, dateOnly, err := parseBound(q.To)
		if err != nil {
			return f, errorbank.BadRequest("invalid to date", errorbank.WithCause(err))
		}
		if dateOnly {
			// a bare date includes the whole day
			to = to.AddDate(0, 0, 1)
		}
		f.CreatedTo = &to
	}

	switch strings.ToLower(q.Sort) {
	case "", repo.SortCreatedDesc:
		f.Sort = repo.SortCreatedDesc
	case repo.SortCreatedAsc:
		f.Sort = repo.SortCreatedAsc
	default:
		return f, errorbank.BadRequest("unsupported sort", errorbank.WithDetail("sort", q.Sort))
	}

	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

// CacheKey is the cache entry holding the aggregate of order id.
func CacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey(id)); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}
