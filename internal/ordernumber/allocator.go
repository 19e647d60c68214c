package ordernumber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
)

const (
	// MaxSequence is the largest suffix a single day can issue.
	MaxSequence = 999

	dayLayout = "060102"
)

var allocTracer = otel.Tracer("github.com/Additional-Code/atelier/ordernumber")

// ErrExhausted is returned once a day has issued MaxSequence numbers.
var ErrExhausted = errors.New("order number sequence exhausted for the day")

// ErrMalformed is returned by Parse for strings that are not YYMMDD-NNN.
var ErrMalformed = errors.New("malformed order number")

// Module provides the allocator to Fx.
var Module = fx.Provide(New)

// Allocator hands out YYMMDD-NNN order numbers from a per-day counter row.
//
// The counter row is seeded from the highest number already issued for the day
// and then incremented with a single UPDATE, so the row lock taken by that
// UPDATE serializes concurrent allocations until the surrounding transaction
// commits or rolls back. A rolled back transaction returns its number to the pool.
type Allocator struct {
	loc       *time.Location
	logger    *zap.Logger
	allocated metric.Int64Counter
}

// New builds an Allocator using the configured day-boundary timezone.
func New(cfg config.Config, logger *zap.Logger) (*Allocator, error) {
	return NewAllocator(cfg.Orders.Location, logger)
}

// NewAllocator builds an Allocator whose days start at midnight in loc.
func NewAllocator(loc *time.Location, logger *zap.Logger) (*Allocator, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	counter, err := otel.Meter("github.com/Additional-Code/atelier/ordernumber").Int64Counter(
		"orders.numbers.allocated",
		metric.WithDescription("Order numbers handed out by the allocator."),
	)
	if err != nil {
		return nil, err
	}
	return &Allocator{loc: loc, logger: logger, allocated: counter}, nil
}

// Next claims the next number for the day containing now. db must be the
// caller's transaction so the claim commits or rolls back with the order.
func (a *Allocator) Next(ctx context.Context, db bun.IDB, now time.Time) (string, error) {
	day := DayKey(now, a.loc)
	ctx, span := allocTracer.Start(ctx, "Allocator.Next", trace.WithAttributes(attribute.String("order.day", day)))
	defer span.End()

	floor, err := highestIssued(ctx, db, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read highest number failed")
		return "", err
	}

	seed := &entity.OrderSequence{DayKey: day, LastValue: floor}
	if _, err := db.NewInsert().Model(seed).Ignore().Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed counter failed")
		return "", fmt.Errorf("seed order sequence: %w", err)
	}

	if _, err := db.NewUpdate().
		Model((*entity.OrderSequence)(nil)).
		Set("last_value = last_value + 1").
		Where("day_key = ?", day).
		Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment counter failed")
		return "", fmt.Errorf("increment order sequence: %w", err)
	}

	var value int
	if err := db.NewSelect().
		Model((*entity.OrderSequence)(nil)).
		Column("last_value").
		Where("day_key = ?", day).
		Scan(ctx, &value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read counter failed")
		return "", fmt.Errorf("read order sequence: %w", err)
	}

	if value > MaxSequence {
		span.SetStatus(codes.Error, "exhausted")
		a.logger.Warn("order number sequence exhausted", zap.String("day", day))
		return "", ErrExhausted
	}

	number := Format(day, value)
	a.allocated.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.number", number))
	return number, nil
}

// DayKey renders the YYMMDD prefix for now in loc.
func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dayLayout)
}

// Format joins a day prefix and a sequence value into an order number.
func Format(day string, seq int) string {
	return fmt.Sprintf("%s-%03d", day, seq)
}

// Parse splits an order number into its day prefix and sequence value.
func Parse(number string) (string, int, error) {
	day, suffix, ok := strings.Cut(number, "-")
	if !ok || len(day) != len(dayLayout) || len(suffix) != 3 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, number)
	}
	return day, seq, nil
}

func highestIssued(ctx context.Context, db bun.IDB, day string) (int, error) {
	var number string
	err := db.NewSelect().
		Model((*entity.Order)(nil)).
		Column("order_number").
		Where("order_number LIKE ?", day+"-%").
		OrderExpr("order_number DESC").
		Limit(1).
		Scan(ctx, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read highest order number: %w", err)
	}
	_, seq, err := Parse(number)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
